package command

import (
	"context"
	"regexp"
	"time"

	"github.com/tedious-mc/tedious/berror"
	"github.com/tedious-mc/tedious/game"
)

type waiter struct {
	re   *regexp.Regexp
	line chan string
}

// WaitFor waits for a chat line matching re and returns it. The wait is given up after timeout, in which
// case a transient error is returned and the line is not waited for anymore.
func (d *Dispatcher) WaitFor(ctx context.Context, re *regexp.Regexp, timeout time.Duration) (string, error) {
	return d.expect(ctx, re, timeout, nil)
}

// expect calls send and waits for the reply to it. The waiter is registered before send is called so
// that an immediate reply is not missed.
func (d *Dispatcher) expect(ctx context.Context, re *regexp.Regexp, timeout time.Duration, send func() error) (string, error) {
	w := &waiter{re: re, line: make(chan string, 1)}
	d.wMu.Lock()
	d.waiters[w] = struct{}{}
	d.wMu.Unlock()

	defer func() {
		d.wMu.Lock()
		delete(d.waiters, w)
		d.wMu.Unlock()
	}()

	if send != nil {
		if err := send(); err != nil {
			return "", err
		}
	}

	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case line := <-w.line:
		return line, nil
	case <-t.C:
		return "", berror.New(game.ErrorTimeout, "a line matching "+re.String())
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// deliver hands the line to every waiter it matches. A waiter receives at most one line.
func (d *Dispatcher) deliver(line string) {
	d.wMu.Lock()
	defer d.wMu.Unlock()

	for w := range d.waiters {
		if !w.re.MatchString(line) {
			continue
		}
		select {
		case w.line <- line:
		default:
		}
	}
}

package command

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/tedious-mc/tedious/berror"
)

// CSafeConfig configures the probe of the server's safety toggle. The toggle is flipped by sending
// Command and the server answers with a line matching Response, whose first group holds the new state.
// The command is sent again until the state is Want.
type CSafeConfig struct {
	Command  string
	Response string
	Want     string
	Retries  int
	Timeout  time.Duration
}

// Probe flips the safety toggle until the server reports the wanted state, and returns the last reply.
// A missing reply counts as a failed attempt.
func (d *Dispatcher) Probe(ctx context.Context) (string, error) {
	conf := d.conf.CSafe
	if conf.Command == "" {
		return "", fmt.Errorf("no csafe command configured")
	}
	re := regexp.MustCompile(conf.Response)
	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = time.Second * 5
	}

	attempts := max(conf.Retries, 1)
	for i := 0; i < attempts; i++ {
		line, err := d.expect(ctx, re, timeout, func() error {
			return d.c.Chat(conf.Command)
		})
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			d.log.Debugf("csafe attempt %d: %v", i+1, err)
			continue
		}
		m := re.FindStringSubmatch(line)
		if conf.Want == "" || len(m) < 2 || m[1] == conf.Want {
			return line, nil
		}
		d.log.Debugf("csafe attempt %d: state is %q", i+1, m[1])
	}
	return "", berror.New("safety toggle not confirmed after %d attempts", attempts)
}

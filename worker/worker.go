// Package worker runs CPU intensive jobs, such as chunk decoding, off the packet loop.
package worker

import (
	"runtime"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"github.com/tedious-mc/tedious/berror"
)

var workerQueue = make(chan func(), runtime.NumCPU()*64)

func init() {
	for i := 0; i < runtime.NumCPU(); i++ {
		go worker()
	}
}

// worker runs jobs until the queue is closed. A job that panics is reported and the worker carries on.
func worker() {
	for {
		f, ok := <-workerQueue
		if !ok {
			return
		}
		run(f)
	}
}

func run(f func()) {
	defer func() {
		if err := recover(); err != nil {
			logrus.Errorf("worker job crashed: %v", err)
			hub := sentry.CurrentHub().Clone()
			hub.Recover(berror.New("worker job crashed: %v", err))
			hub.Flush(time.Second * 5)
		}
	}()
	f()
}

// Submit queues f to be run by a worker. It returns false without running f if the queue is full.
func Submit(f func()) bool {
	select {
	case workerQueue <- f:
		return true
	default:
		return false
	}
}

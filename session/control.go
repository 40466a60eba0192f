package session

import "go.uber.org/atomic"

// Control holds the flags of a Session that outlive a single connection.
type Control struct {
	finished  atomic.Bool
	connected atomic.Bool
	attempts  atomic.Int32
}

// Finish makes the session end for good once the current connection is closed.
func (c *Control) Finish() {
	c.finished.Store(true)
}

// Finished returns true if the session will not reconnect.
func (c *Control) Finished() bool {
	return c.finished.Load()
}

// Connected returns true while the bot is spawned in a world.
func (c *Control) Connected() bool {
	return c.connected.Load()
}

// Attempts returns the number of reconnection attempts made since the bot last spawned.
func (c *Control) Attempts() int {
	return int(c.attempts.Load())
}

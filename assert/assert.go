package assert

import "github.com/tedious-mc/tedious/berror"

// IsTrue panics with an exhausted BotError when ok is false. The scheduler recovers the panic and halts
// the run loop.
func IsTrue(ok bool, message string, args ...interface{}) {
	if !ok {
		panic(berror.Exhausted(message, args...))
	}
}

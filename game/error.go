package game

// Messages reported to the operator, either in chat or in the log.
const (
	ErrorNoBox          = "can't find any box"
	ErrorNoBoxPlacement = "can't find a place to place the box"
	ErrorBoxNotOpened   = "unable to open the box at %v: %v"
	ErrorNoTool         = "no suitable tool for %q"
	ErrorNoEnderChest   = "no ender chest within reach"
	ErrorNoTarget       = "no target, finished"

	ErrorSchedulerRunning = "the scheduler is running, stop it first"
	ErrorUnknownAction    = "unknown action %q"
	ErrorDuplicateAction  = "action %q is already registered"
	ErrorActionNotFound   = "action %q is not registered"

	ErrorNotConnected = "not connected to a server"
	ErrorTimeout      = "timed out waiting for %s"
)

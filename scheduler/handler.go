package scheduler

// Handler is notified when a run loop ends on its own. Handler methods are called after the flags of the
// scheduler have been reset.
type Handler interface {
	// HandleTaskError handles the run loop being aborted because the task named failed.
	HandleTaskError(name string, err error)
	// HandleFinish handles every registered task reporting StatusFinished.
	HandleFinish()
}

// NopHandler implements the Handler interface but does not execute any code when an event is called.
type NopHandler struct{}

func (NopHandler) HandleTaskError(string, error) {}
func (NopHandler) HandleFinish()                 {}

package command

// Handler handles the requests of commands that reach beyond the bot itself.
type Handler interface {
	// HandleExit handles an operator asking the bot to disconnect.
	HandleExit(sender string)
}

// NopHandler implements the Handler interface but does not execute any code when an event is called.
type NopHandler struct{}

func (NopHandler) HandleExit(string) {}

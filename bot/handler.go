package bot

import "github.com/go-gl/mathgl/mgl64"

// Handler handles events of a Conn. Handler methods are called from the goroutine reading packets, so they
// must not block.
type Handler interface {
	HandleSpawn()
	// HandleChat handles a chat line. Lines sent by players have the form "<name> message".
	HandleChat(line string)
	HandleHealth(health, food float64)
	HandleDeath()
	// HandleRelocation handles the server teleporting the bot.
	HandleRelocation(pos mgl64.Vec3)
	// HandleItemCollected handles an item entity being picked up by the bot.
	HandleItemCollected(item DroppedItem)
	HandleDisconnect(reason string)
}

// NopHandler implements the Handler interface but does not execute any code when an event is called.
type NopHandler struct{}

func (NopHandler) HandleSpawn()                    {}
func (NopHandler) HandleChat(string)               {}
func (NopHandler) HandleHealth(float64, float64)   {}
func (NopHandler) HandleDeath()                    {}
func (NopHandler) HandleRelocation(mgl64.Vec3)     {}
func (NopHandler) HandleItemCollected(DroppedItem) {}
func (NopHandler) HandleDisconnect(string)         {}

var _ Handler = NopHandler{}

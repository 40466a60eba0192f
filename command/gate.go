package command

import "github.com/samber/lo"

// GateMode selects how the names of a Gate are interpreted.
type GateMode string

const (
	// Whitelist only lets the senders listed issue commands.
	Whitelist GateMode = "whitelist"
	// Blacklist lets everyone but the senders listed issue commands.
	Blacklist GateMode = "blacklist"
)

// Gate decides which senders may issue commands.
type Gate struct {
	Mode  GateMode
	Names []string
}

// Allowed returns true if the sender passed may issue commands. An empty sender is never allowed.
func (g Gate) Allowed(sender string) bool {
	if sender == "" {
		return false
	}
	listed := lo.Contains(g.Names, sender)
	if g.Mode == Blacklist {
		return !listed
	}
	return listed
}

package settings

import (
	"fmt"
	"regexp"

	"github.com/samber/lo"
)

// The names of the behaviors that can be registered.
const (
	ActionAttack    = "Attack"
	ActionAutoEat   = "AutoEat"
	ActionDigBlocks = "DigBlocks"
	ActionTreeChop  = "TreeChop"
)

// ActionNames returns the names of every behavior that can be registered.
func ActionNames() []string {
	return []string{ActionAttack, ActionAutoEat, ActionDigBlocks, ActionTreeChop}
}

// Validate checks the parts of the config the schema cannot express.
func (c Config) Validate() error {
	for _, name := range c.Actions {
		if !lo.Contains(ActionNames(), name) {
			return fmt.Errorf("unknown action %q, expecting one of %v", name, ActionNames())
		}
	}
	if lo.Contains(c.Actions, ActionDigBlocks) {
		if len(c.Dig.From) != 3 || len(c.Dig.To) != 3 {
			return fmt.Errorf("dig: from and to must both be [x, y, z]")
		}
		if len(c.Dig.Targets) == 0 {
			return fmt.Errorf("dig: no targets")
		}
	}
	if c.Reconnect.Delay < 0 || c.Reconnect.MaxAttempts < 0 {
		return fmt.Errorf("reconnect: delay and max_attempts must not be negative")
	}
	if c.Chat.Mode != "whitelist" && c.Chat.Mode != "blacklist" {
		return fmt.Errorf("chat: unknown mode %q", c.Chat.Mode)
	}

	patterns := append(append([]string{}, c.Chat.Pause...), c.Chat.Resume...)
	if c.Chat.AutoAccept.Pattern != "" {
		patterns = append(patterns, c.Chat.AutoAccept.Pattern)
	}
	if c.Chat.CSafe.Command != "" {
		patterns = append(patterns, c.Chat.CSafe.Response)
	}
	for _, p := range patterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("chat: invalid pattern %q: %w", p, err)
		}
	}
	return nil
}

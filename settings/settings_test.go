package settings

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/tedious-mc/tedious/command"
	"golang.org/x/exp/slices"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config is invalid: %v", err)
	}
	c, err := decode(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Server.Port != 19132 || c.Dig.Container != "shulker_box" {
		t.Fatalf("expected the defaults, got %+v", c)
	}
}

func TestSaveDefaultRoundTrip(t *testing.T) {
	for _, name := range []string{"config.toml", "config.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			if err := SaveDefault(path); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := SaveDefault(path); err == nil {
				t.Fatalf("expected an existing file not to be overwritten")
			}

			c, err := Load(path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			def := DefaultConfig()
			if c.Server != def.Server || c.Reconnect != def.Reconnect || c.Dig.DurabilityFloor != def.Dig.DurabilityFloor {
				t.Fatalf("expected the defaults back, got %+v", c)
			}
			if strings.Join(c.Actions, ",") != strings.Join(def.Actions, ",") || len(c.Dig.To) != 3 || c.Dig.To[1] != 64 {
				t.Fatalf("expected the default lists back, got %v %v", c.Actions, c.Dig.To)
			}
		})
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yml", `
server:
  address: play.example.com
  port: 19133
actions: [AutoEat, Attack, DigBlocks]
dig:
  targets: ["*_ore"]
  from: [10, 5, 10]
  to: [0, 40, 0]
  progressive: true
chat:
  channel: Channel
  players: [Alice]
  pause: ["moved to the lobby"]
  resume: ["moved to channel"]
  auto_accept:
    pattern: "wants to teleport to you"
    command: /tok
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Server.Address != "play.example.com" || c.Server.Port != 19133 {
		t.Fatalf("unexpected server %+v", c.Server)
	}
	if c.Dig.Radius != 5 || c.Dig.Container != "shulker_box" {
		t.Fatalf("fields missing from the file must keep their default, got %+v", c.Dig)
	}

	h := c.HarvestConfig([]string{"iron_ore", "coal_ore", "stone"})
	if h.Region.Min != (cube.Pos{0, 5, 0}) || h.Region.Max != (cube.Pos{10, 40, 10}) {
		t.Fatalf("expected the corners to be normalised, got %v", h.Region)
	}
	if !h.Targets.Match("iron_ore") || !h.Targets.Match("coal_ore") || h.Targets.Match("stone") {
		t.Fatalf("expected the target patterns to be expanded, got %v", h.Targets)
	}
	if !h.Progressive || h.TravelTimeout != time.Second*20 {
		t.Fatalf("unexpected harvest config %+v", h)
	}

	conf := c.CommandConfig()
	if conf.Channel != "Channel" || !conf.Gate.Allowed("Alice") || conf.Gate.Allowed("Bob") {
		t.Fatalf("unexpected command config %+v", conf)
	}
	kinds := make(map[command.NotificationKind]int)
	for _, n := range conf.Notifications {
		kinds[n.Kind]++
	}
	if kinds[command.NotifyPause] != 1 || kinds[command.NotifyResume] != 1 || kinds[command.NotifyReply] != 1 {
		t.Fatalf("unexpected notifications %+v", conf.Notifications)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
actions = ["TreeChop"]
finish_when_done = true

[tree_chop]
trees = ["oak_log"]
step_z = 3

[reconnect]
enabled = false
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.FinishWhenDone || c.Reconnect.Enabled || c.Reconnect.Delay != 10 {
		t.Fatalf("unexpected config %+v", c)
	}
	if tc := c.TreeChopConfig(); tc.StepZ != 3 || tc.StepX != 2 || len(tc.Trees) != 1 {
		t.Fatalf("unexpected tree chop config %+v", tc)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := map[string]string{
		"unknown key":    "actoins: [DigBlocks]\n",
		"wrong type":     "server:\n  port: abc\n",
		"out of range":   "dig:\n  durability_floor: 1.5\n",
		"short corner":   "dig:\n  from: [1, 2]\n",
		"unknown action": "actions: [Fly]\n",
		"bad mode":       "chat:\n  mode: greylist\n",
		"bad pattern":    "chat:\n  pause: [\"(\"]\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeFile(t, "config.yaml", doc)); err == nil {
				t.Fatalf("expected the config to be rejected")
			}
		})
	}
}

func TestLoadUnsupported(t *testing.T) {
	if _, err := Load(writeFile(t, "config.ini", "debug=true")); err == nil {
		t.Fatalf("expected an unsupported format to be rejected")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected a missing file to be rejected")
	}
}

func TestHarvestConfigKeepsFoodAndWeapon(t *testing.T) {
	c := DefaultConfig()
	c.Attack.Weapon = "diamond_sword"
	c.Dig.StoreExclude = []string{"torch", "bread"}

	keep := c.HarvestConfig(nil).StoreExclude
	for _, name := range []string{"torch", "bread", "cooked_beef", "diamond_sword"} {
		if !slices.Contains(keep, name) {
			t.Errorf("expected %q never to be stored, got %v", name, keep)
		}
	}
	seen := make(map[string]bool)
	for _, name := range keep {
		if seen[name] {
			t.Fatalf("%q is listed twice in %v", name, keep)
		}
		seen[name] = true
	}
}

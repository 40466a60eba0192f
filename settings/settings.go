package settings

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed config.schema.json
var schemaJSON []byte

// Config contains everything that can be configured for the bot.
type Config struct {
	// Debug enables debug logging.
	Debug bool `toml:"debug" yaml:"debug" json:"debug"`
	// SentryDSN, if set, reports crashes and fatal errors to Sentry.
	SentryDSN string `toml:"sentry_dsn" yaml:"sentry_dsn" json:"sentry_dsn"`

	Server struct {
		Address string `toml:"address" yaml:"address" json:"address"`
		Port    int    `toml:"port" yaml:"port" json:"port"`
		// Version is the game version the server runs. It is only reported.
		Version string `toml:"version" yaml:"version" json:"version"`
	} `toml:"server" yaml:"server" json:"server"`

	Auth struct {
		ClientID       string `toml:"client_id" yaml:"client_id" json:"client_id"`
		EntitlementURL string `toml:"entitlement_url" yaml:"entitlement_url" json:"entitlement_url"`
	} `toml:"auth" yaml:"auth" json:"auth"`

	// Actions are the behaviors registered on every connection, in the order they run in.
	Actions []string `toml:"actions" yaml:"actions" json:"actions"`
	// FinishWhenDone disconnects for good once every behavior finished.
	FinishWhenDone bool `toml:"finish_when_done" yaml:"finish_when_done" json:"finish_when_done"`

	Attack   Attack   `toml:"attack" yaml:"attack" json:"attack"`
	AutoEat  AutoEat  `toml:"auto_eat" yaml:"auto_eat" json:"auto_eat"`
	Dig      Dig      `toml:"dig" yaml:"dig" json:"dig"`
	TreeChop TreeChop `toml:"tree_chop" yaml:"tree_chop" json:"tree_chop"`

	Chat      Chat      `toml:"chat" yaml:"chat" json:"chat"`
	Reconnect Reconnect `toml:"reconnect" yaml:"reconnect" json:"reconnect"`

	Viewer struct {
		Enable bool   `toml:"enable" yaml:"enable" json:"enable"`
		Addr   string `toml:"addr" yaml:"addr" json:"addr"`
	} `toml:"viewer" yaml:"viewer" json:"viewer"`
}

type Attack struct {
	Enemies []string `toml:"enemies" yaml:"enemies" json:"enemies"`
	// Delay is in ticks.
	Delay  int    `toml:"delay" yaml:"delay" json:"delay"`
	Weapon string `toml:"weapon" yaml:"weapon" json:"weapon"`
}

type AutoEat struct {
	Foods           []string `toml:"foods" yaml:"foods" json:"foods"`
	FoodThreshold   float64  `toml:"food_threshold" yaml:"food_threshold" json:"food_threshold"`
	HealthThreshold float64  `toml:"health_threshold" yaml:"health_threshold" json:"health_threshold"`
	OffHand         bool     `toml:"offhand" yaml:"offhand" json:"offhand"`
}

// Dig configures the DigBlocks behavior.
type Dig struct {
	// Targets are block names. A name with a '*' matches every block containing the rest of the name.
	Targets []string `toml:"targets" yaml:"targets" json:"targets"`
	// From and To are two opposite corners of the region mined.
	From            []int    `toml:"from" yaml:"from" json:"from"`
	To              []int    `toml:"to" yaml:"to" json:"to"`
	Delay           int      `toml:"delay" yaml:"delay" json:"delay"`
	Radius          int      `toml:"radius" yaml:"radius" json:"radius"`
	MinFreeSlots    int      `toml:"min_free_slots" yaml:"min_free_slots" json:"min_free_slots"`
	Container       string   `toml:"container" yaml:"container" json:"container"`
	DurabilityFloor float64  `toml:"durability_floor" yaml:"durability_floor" json:"durability_floor"`
	Progressive     bool     `toml:"progressive" yaml:"progressive" json:"progressive"`
	StoreExclude    []string `toml:"store_exclude" yaml:"store_exclude" json:"store_exclude"`
	// FastTravelCommand is sent after reaching the column of a target high above.
	FastTravelCommand string `toml:"fast_travel_command" yaml:"fast_travel_command" json:"fast_travel_command"`
	// TravelTimeout is in seconds.
	TravelTimeout int `toml:"travel_timeout" yaml:"travel_timeout" json:"travel_timeout"`
}

type TreeChop struct {
	Trees   []string `toml:"trees" yaml:"trees" json:"trees"`
	Delay   int      `toml:"delay" yaml:"delay" json:"delay"`
	Tool    string   `toml:"tool" yaml:"tool" json:"tool"`
	Length  int      `toml:"length" yaml:"length" json:"length"`
	StepX   int      `toml:"step_x" yaml:"step_x" json:"step_x"`
	StepZ   int      `toml:"step_z" yaml:"step_z" json:"step_z"`
	OffsetY int      `toml:"offset_y" yaml:"offset_y" json:"offset_y"`
}

// Chat configures the chat commands and the server messages the bot reacts to.
type Chat struct {
	Channel  string   `toml:"channel" yaml:"channel" json:"channel"`
	Commands []string `toml:"commands" yaml:"commands" json:"commands"`
	// Mode is either "whitelist" or "blacklist" and applies to Players.
	Mode        string   `toml:"mode" yaml:"mode" json:"mode"`
	Players     []string `toml:"players" yaml:"players" json:"players"`
	ReplyPrefix string   `toml:"reply_prefix" yaml:"reply_prefix" json:"reply_prefix"`
	DrawCommand string   `toml:"draw_command" yaml:"draw_command" json:"draw_command"`

	CSafe struct {
		Command  string `toml:"command" yaml:"command" json:"command"`
		Response string `toml:"response" yaml:"response" json:"response"`
		Want     string `toml:"want" yaml:"want" json:"want"`
		Retries  int    `toml:"retries" yaml:"retries" json:"retries"`
	} `toml:"csafe" yaml:"csafe" json:"csafe"`

	// Pause and Resume are patterns of the messages that stop and resume the run loop.
	Pause  []string `toml:"pause" yaml:"pause" json:"pause"`
	Resume []string `toml:"resume" yaml:"resume" json:"resume"`

	AutoAccept struct {
		Pattern string `toml:"pattern" yaml:"pattern" json:"pattern"`
		Command string `toml:"command" yaml:"command" json:"command"`
	} `toml:"auto_accept" yaml:"auto_accept" json:"auto_accept"`
}

type Reconnect struct {
	Enabled bool `toml:"enabled" yaml:"enabled" json:"enabled"`
	// Delay is in seconds.
	Delay       int `toml:"delay" yaml:"delay" json:"delay"`
	MaxAttempts int `toml:"max_attempts" yaml:"max_attempts" json:"max_attempts"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	c := Config{}
	c.Server.Address = "127.0.0.1"
	c.Server.Port = 19132
	c.Actions = []string{ActionAutoEat, ActionDigBlocks}

	c.Attack.Enemies = []string{"zombie", "skeleton", "spider", "creeper"}
	c.Attack.Delay = 10

	c.AutoEat.Foods = []string{"bread", "cooked_beef", "cooked_porkchop", "golden_carrot"}
	c.AutoEat.FoodThreshold = 14
	c.AutoEat.HealthThreshold = 10

	c.Dig.Targets = []string{"stone"}
	c.Dig.From = []int{0, 0, 0}
	c.Dig.To = []int{15, 64, 15}
	c.Dig.Radius = 5
	c.Dig.MinFreeSlots = 2
	c.Dig.Container = "shulker_box"
	c.Dig.DurabilityFloor = 0.1
	c.Dig.TravelTimeout = 20

	c.TreeChop.Trees = []string{"oak_log", "birch_log", "spruce_log"}
	c.TreeChop.Delay = 5
	c.TreeChop.Length = 5
	c.TreeChop.StepX = 2

	c.Chat.Mode = "whitelist"
	c.Chat.DrawCommand = "/draw"
	c.Chat.CSafe.Retries = 3

	c.Reconnect.Enabled = true
	c.Reconnect.Delay = 10
	c.Reconnect.MaxAttempts = 5

	c.Viewer.Addr = "127.0.0.1:8099"
	return c
}

// SaveDefault will create and save the default config file. If the file already exists, it will return an
// error. The format is picked by the extension of the path.
func SaveDefault(path string) error {
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return errors.New("config file already exists")
	}

	c := DefaultConfig()
	var (
		data []byte
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		data, err = toml.Marshal(c)
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}
	if err != nil {
		return fmt.Errorf("failed encoding default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed creating config file: %w", err)
	}
	return nil
}

// Load will load the config from a TOML or YAML file, and return an error if the file does not exist or
// does not hold a valid config. Fields missing from the file keep their default value.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("error reading config: %w", err)
	}

	var doc map[string]any
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		tree, err := toml.LoadBytes(data)
		if err != nil {
			return Config{}, fmt.Errorf("error decoding config: %w", err)
		}
		doc = tree.ToMap()
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return Config{}, fmt.Errorf("error decoding config: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("unsupported config format %q", ext)
	}
	return decode(doc)
}

// decode validates the document against the config schema and decodes it over the default config.
func decode(doc map[string]any) (Config, error) {
	if doc == nil {
		doc = map[string]any{}
	}
	// The schema validator expects the values produced by encoding/json.
	raw, err := json.Marshal(doc)
	if err != nil {
		return Config{}, fmt.Errorf("error converting config: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return Config{}, fmt.Errorf("error converting config: %w", err)
	}
	if err := configSchema().Validate(v); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	c := DefaultConfig()
	if err := json.Unmarshal(raw, &c); err != nil {
		return Config{}, fmt.Errorf("error decoding config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func configSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("config.schema.json", bytes.NewReader(schemaJSON)); err != nil {
		panic(err)
	}
	return c.MustCompile("config.schema.json")
}

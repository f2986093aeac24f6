package ostw

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/compiler"
	rt "github.com/ItsDeltin/Overwatch-Script-To-Workshop-sub001/internal/runtime"
)

// Config holds compilation and execution options.
//
// A nil *Config means DefaultConfig. A Config built by hand starts with
// every capability off; use DefaultConfig and adjust it to keep the
// engine defaults.
type Config struct {
	// Capabilities describes what the target engine supports natively.
	Capabilities compiler.Capabilities `toml:"capabilities"`

	// MinWait is the wait in seconds run before every restart pass
	// (default: 0.016).
	MinWait float64 `toml:"min_wait"`

	// Workers bounds the rules lowered in parallel (default: GOMAXPROCS).
	Workers int `toml:"workers"`

	// Rules is a regular expression selecting the rules to compile by
	// name. Empty selects every rule.
	Rules string `toml:"rules"`

	// MaxSteps is the per-rule instruction budget of the simulator
	// (default: 1000000).
	MaxSteps int `toml:"max_steps"`

	// Output receives Log actions during Run.
	// If nil, output is captured and returned from Run.
	Output io.Writer `toml:"-"`
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() *Config {
	c := &Config{Capabilities: compiler.DefaultCapabilities()}
	c.applyDefaults()
	return c
}

// applyDefaults fills in default values for unset Config fields.
func (c *Config) applyDefaults() {
	if c.MinWait <= 0 {
		c.MinWait = compiler.DefaultMinWait
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
}

// LoadConfig reads a TOML configuration file. Keys absent from the file
// keep their DefaultConfig values; unknown keys are an error.
//
//	min_wait = 0.25
//	rules = "^spawn"
//
//	[capabilities]
//	native_loops = true
//	continue_workaround = false
func LoadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	c.applyDefaults()
	return c, nil
}

// options converts c to compiler options.
func (c *Config) options() (compiler.Options, error) {
	filter, err := rt.Filter(c.Rules)
	if err != nil {
		return compiler.Options{}, fmt.Errorf("rule filter %q: %w", c.Rules, err)
	}
	return compiler.Options{
		Capabilities: c.Capabilities,
		MinWait:      c.MinWait,
		Workers:      c.Workers,
		Filter:       filter,
	}, nil
}

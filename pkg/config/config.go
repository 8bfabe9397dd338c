package config

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/danl5/gotransition/pkg/model"
)

// DefaultDuration is how long the exited phase lasts under StrategyDuration
const DefaultDuration = 200 * time.Millisecond

// Strategy selects how the end of the exit animation is detected.
type Strategy string

const (
	// StrategySignal waits for an explicit completion notification
	StrategySignal Strategy = "signal"
	// StrategyDuration finalizes the exit after a fixed duration
	StrategyDuration Strategy = "duration"
)

func (s Strategy) String() string {
	return string(s)
}

// Config represents the transition config
type Config struct {
	// Strategy is the completion strategy, StrategySignal when empty
	Strategy Strategy `json:"strategy,omitempty" mapstructure:"strategy"`
	// SkipInitialEnter suppresses the animated entry when starting shown
	SkipInitialEnter bool `json:"skip_initial_enter,omitempty" mapstructure:"skip_initial_enter"`
	// Styles holds the per-phase style identifiers
	Styles model.StyleMap `json:"styles,omitempty" mapstructure:"styles"`
	// Duration is the time spent in the exited phase before the exit
	// finalizes, only used by StrategyDuration. Zero means DefaultDuration;
	// use time.Nanosecond to finalize on the next scheduling opportunity.
	Duration time.Duration `json:"duration,omitempty" mapstructure:"duration"`
}

// Default returns a signal-driven config with no styles.
func Default() *Config {
	return &Config{
		Strategy: StrategySignal,
		Duration: DefaultDuration,
	}
}

// Validate checks the config and fills in defaults for empty fields.
func (c *Config) Validate() error {
	switch c.Strategy {
	case "":
		c.Strategy = StrategySignal
	case StrategySignal, StrategyDuration:
	default:
		return fmt.Errorf("unknown strategy %q", c.Strategy)
	}

	if c.Duration < 0 {
		return errors.New("duration must not be negative")
	}
	if c.Duration == 0 {
		c.Duration = DefaultDuration
	}
	return nil
}

// Decode builds a validated Config from a generic map, e.g. a parsed JSON or
// YAML document. Durations are accepted as Go duration strings or as integer
// milliseconds. Unknown keys, including unknown phases under "styles", are
// rejected.
func Decode(raw map[string]any) (*Config, error) {
	cfg := Default()
	decoderConfig := &mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			millisecondsHook,
			mapstructure.StringToTimeDurationHookFunc(),
		),
		ErrorUnused: true,
		Result:      cfg,
	}

	decoder, err := mapstructure.NewDecoder(decoderConfig)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// millisecondsHook turns plain numbers into durations in milliseconds.
func millisecondsHook(f reflect.Type, t reflect.Type, data any) (any, error) {
	durationType := reflect.TypeOf(time.Duration(0))
	if t != durationType || f == durationType {
		return data, nil
	}

	switch f.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return time.Duration(reflect.ValueOf(data).Int()) * time.Millisecond, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return time.Duration(reflect.ValueOf(data).Uint()) * time.Millisecond, nil
	case reflect.Float32, reflect.Float64:
		return time.Duration(reflect.ValueOf(data).Float() * float64(time.Millisecond)), nil
	}
	return data, nil
}

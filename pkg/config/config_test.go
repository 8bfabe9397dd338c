package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/danl5/gotransition/pkg/model"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name          string
		config        Config
		expected      Config
		expectedError error
	}{
		{
			name:     "empty configuration",
			config:   Config{},
			expected: Config{Strategy: StrategySignal, Duration: DefaultDuration},
		},
		{
			name:     "duration strategy",
			config:   Config{Strategy: StrategyDuration, Duration: time.Second},
			expected: Config{Strategy: StrategyDuration, Duration: time.Second},
		},
		{
			name:          "unknown strategy",
			config:        Config{Strategy: "spring"},
			expectedError: errors.New(`unknown strategy "spring"`),
		},
		{
			name:          "negative duration",
			config:        Config{Strategy: StrategyDuration, Duration: -time.Millisecond},
			expectedError: errors.New("duration must not be negative"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectedError != nil {
				assert.EqualError(t, err, tt.expectedError.Error())
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, tt.config)
		})
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		raw      map[string]any
		expected *Config
		wantErr  bool
	}{
		{
			name:     "defaults",
			raw:      map[string]any{},
			expected: &Config{Strategy: StrategySignal, Duration: DefaultDuration},
		},
		{
			name: "full",
			raw: map[string]any{
				"strategy":           "duration",
				"skip_initial_enter": true,
				"duration":           "350ms",
				"styles": map[string]any{
					"entering": "fade-enter",
					"exited":   "fade-exit-done",
				},
			},
			expected: &Config{
				Strategy:         StrategyDuration,
				SkipInitialEnter: true,
				Duration:         350 * time.Millisecond,
				Styles:           model.StyleMap{Entering: "fade-enter", Exited: "fade-exit-done"},
			},
		},
		{
			name:     "integer milliseconds",
			raw:      map[string]any{"strategy": "duration", "duration": 120},
			expected: &Config{Strategy: StrategyDuration, Duration: 120 * time.Millisecond},
		},
		{
			name:     "float milliseconds",
			raw:      map[string]any{"duration": 75.0},
			expected: &Config{Strategy: StrategySignal, Duration: 75 * time.Millisecond},
		},
		{
			name:     "duration value",
			raw:      map[string]any{"duration": 2 * time.Second},
			expected: &Config{Strategy: StrategySignal, Duration: 2 * time.Second},
		},
		{
			name:    "unknown phase",
			raw:     map[string]any{"styles": map[string]any{"leaving": "x"}},
			wantErr: true,
		},
		{
			name:    "unknown key",
			raw:     map[string]any{"easing": "linear"},
			wantErr: true,
		},
		{
			name:    "unknown strategy",
			raw:     map[string]any{"strategy": "spring"},
			wantErr: true,
		},
		{
			name:    "bad duration",
			raw:     map[string]any{"duration": "soon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Decode(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, cfg)
		})
	}
}

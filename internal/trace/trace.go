// Package trace replays scripted inputs against a controller on a virtual
// clock and encodes every resulting snapshot.
package trace

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/ugorji/go/codec"

	"github.com/danl5/gotransition/pkg/config"
	"github.com/danl5/gotransition/pkg/controller"
	"github.com/danl5/gotransition/pkg/scheduler"
)

// Op is a scripted input.
type Op string

const (
	OpShow    Op = "show"
	OpHide    Op = "hide"
	OpAdvance Op = "advance"
	OpNotify  Op = "notify"
	OpFlush   Op = "flush"
	OpWait    Op = "wait"
)

// Step is one scripted input. Wait is only set for OpWait.
type Step struct {
	Op   Op
	Wait time.Duration
}

func (s Step) String() string {
	if s.Op == OpWait {
		return fmt.Sprintf("%s:%s", s.Op, s.Wait)
	}
	return string(s.Op)
}

// Record is the observable output after a step.
type Record struct {
	Step     string `codec:"step"`
	AtMillis int64  `codec:"at_ms"`
	Rendered bool   `codec:"rendered"`
	Style    string `codec:"style"`
	Phase    string `codec:"phase"`
	Desired  bool   `codec:"desired"`
}

// Parse reads a comma separated script such as "show,flush,hide,wait:250ms".
// A bare wait number is in milliseconds.
func Parse(script string) ([]Step, error) {
	var steps []Step
	for _, field := range strings.Split(script, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}

		name, arg, hasArg := strings.Cut(field, ":")
		op := Op(name)
		switch op {
		case OpShow, OpHide, OpAdvance, OpNotify, OpFlush:
			if hasArg {
				return nil, fmt.Errorf("step %q takes no argument", field)
			}
			steps = append(steps, Step{Op: op})
		case OpWait:
			d, err := parseWait(arg)
			if err != nil {
				return nil, fmt.Errorf("step %q: %w", field, err)
			}
			steps = append(steps, Step{Op: op, Wait: d})
		default:
			return nil, fmt.Errorf("unknown step %q", field)
		}
	}
	return steps, nil
}

func parseWait(arg string) (time.Duration, error) {
	if ms, err := strconv.ParseUint(arg, 10, 63); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(arg)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative wait %s", d)
	}
	return d, nil
}

// Replay runs steps against a fresh controller and sends one record for the
// initial state and one per step. out is closed when Replay returns.
func Replay(
	ctx context.Context,
	initial bool,
	cfg *config.Config,
	steps []Step,
	logger *slog.Logger,
	out chan<- Record) error {
	defer close(out)

	clock := scheduler.NewManual()
	c, err := controller.NewController(initial, cfg, clock, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	emit := func(step string) error {
		s := c.View()
		rec := Record{
			Step:     step,
			AtMillis: clock.Now().Milliseconds(),
			Rendered: s.Rendered,
			Style:    s.Style,
			Phase:    s.Phase.String(),
			Desired:  s.Desired,
		}
		select {
		case out <- rec:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := emit("init"); err != nil {
		return err
	}
	for _, step := range steps {
		switch step.Op {
		case OpShow:
			c.SetDesiredState(true)
		case OpHide:
			c.SetDesiredState(false)
		case OpAdvance:
			c.Advance()
		case OpNotify:
			c.NotifyTransitionComplete()
		case OpFlush:
			clock.Flush()
		case OpWait:
			clock.Advance(step.Wait)
		}
		if err := emit(step.String()); err != nil {
			return err
		}
	}
	return nil
}

// Handle returns the codec handle for format, "json" or "msgpack".
func Handle(format string) (codec.Handle, error) {
	switch format {
	case "json":
		h := &codec.JsonHandle{}
		h.MapType = reflect.TypeOf(map[string]any(nil))
		return h, nil
	case "msgpack":
		h := &codec.MsgpackHandle{}
		h.WriteExt = true
		h.MapType = reflect.TypeOf(map[string]any(nil))
		return h, nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// Encode writes every record from in to w. JSON records are newline delimited.
func Encode(w io.Writer, format string, in <-chan Record) error {
	h, err := Handle(format)
	if err != nil {
		return err
	}
	_, isJSON := h.(*codec.JsonHandle)

	enc := codec.NewEncoder(w, h)
	for rec := range in {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encode record %q: %w", rec.Step, err)
		}
		if isJSON {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
	}
	return nil
}

// DecodeConfig reads a JSON config document and decodes it with config.Decode.
func DecodeConfig(data []byte) (*config.Config, error) {
	h, err := Handle("json")
	if err != nil {
		return nil, err
	}

	raw := map[string]any{}
	if err := codec.NewDecoderBytes(data, h).Decode(&raw); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return config.Decode(raw)
}

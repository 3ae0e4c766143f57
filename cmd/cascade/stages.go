package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"log/slog"

	"github.com/cascadehq/cascade/pkg/domain"
	"github.com/cascadehq/cascade/pkg/pipeline"
	"github.com/cascadehq/cascade/pkg/registry"
	"github.com/cascadehq/cascade/pkg/suspend"
)

// report is the build target for CLI runs: an accumulating line buffer.
type report struct {
	lines []string
	done  bool
}

func (r *report) add(line string) {
	r.lines = append(r.lines, line)
}

func (r *report) String() string {
	return strings.Join(r.lines, "\n")
}

// reportFactory implements ports.TargetFactory for CLI runs.
type reportFactory struct{}

func (reportFactory) New() any { return &report{} }

func (reportFactory) Finished(target any) bool {
	r, ok := target.(*report)
	return ok && r.done
}

func (reportFactory) Modified(target any) bool {
	r, ok := target.(*report)
	return ok && len(r.lines) > 0
}

// lineWriter is what the built-in stages need from a build target. Both the
// CLI report and the HTTP ResponseTarget satisfy it.
type lineWriter interface {
	Write(p []byte) (int, error)
}

// newRegistry registers the built-in demo stages. Library consumers bring
// their own stages; these exist so the CLI works out of the box.
func newRegistry(broker *suspend.Broker, logger *slog.Logger) *registry.Registry {
	reg := registry.New()

	// annotate merges its args into the context for later stages.
	reg.Register("annotate", func(_ *domain.Context, args map[string]any) (domain.Stage, error) {
		return domain.StageFunc(func(_ context.Context, _ domain.Scope) (domain.Transition, error) {
			entries := make([]domain.Entry, 0, len(args))
			for key, value := range args {
				entries = append(entries, domain.E(key, value))
			}
			return domain.Continue(entries...), nil
		}), nil
	})

	// guard rejects unless the named context key is present.
	reg.Register("guard", func(c *domain.Context, args map[string]any) (domain.Stage, error) {
		var cfg struct {
			Key string `mapstructure:"key"`
		}
		if err := pipeline.DecodeArgs(args, &cfg); err != nil {
			return nil, err
		}
		if cfg.Key == "" {
			return nil, fmt.Errorf("guard requires a 'key' argument")
		}
		return domain.StageFunc(func(_ context.Context, sc domain.Scope) (domain.Transition, error) {
			if _, ok := sc.Context().Get(cfg.Key); !ok {
				return domain.Reject(), nil
			}
			return domain.Continue(), nil
		}), nil
	})

	// emit writes a line to the build target. ${key} placeholders are
	// resolved against the context.
	reg.Register("emit", func(_ *domain.Context, args map[string]any) (domain.Stage, error) {
		var cfg struct {
			Text string `mapstructure:"text"`
		}
		if err := pipeline.DecodeArgs(args, &cfg); err != nil {
			return nil, err
		}
		return domain.StageFunc(func(_ context.Context, sc domain.Scope) (domain.Transition, error) {
			line := expand(cfg.Text, sc.Context())
			switch target := sc.Target().(type) {
			case *report:
				target.add(line)
			case lineWriter:
				if _, err := target.Write([]byte(line + "\n")); err != nil {
					return domain.Transition{}, err
				}
			default:
				return domain.Transition{}, fmt.Errorf("emit: unsupported target %T", target)
			}
			return domain.Continue(), nil
		}), nil
	})

	// finish marks the target done and halts the chain.
	reg.Register("finish", func(_ *domain.Context, _ map[string]any) (domain.Stage, error) {
		return domain.StageFunc(func(_ context.Context, sc domain.Scope) (domain.Transition, error) {
			if r, ok := sc.Target().(*report); ok {
				r.done = true
				return domain.Terminate(r.String()), nil
			}
			return domain.Terminate(nil), nil
		}), nil
	})

	// await suspends the chain until someone answers the logged token,
	// for example via POST /v1/resume/{token} in serve mode.
	reg.Register("await", func(_ *domain.Context, args map[string]any) (domain.Stage, error) {
		var cfg struct {
			Name string `mapstructure:"name"`
		}
		if err := pipeline.DecodeArgs(args, &cfg); err != nil {
			return nil, err
		}
		if cfg.Name == "" {
			cfg.Name = "await"
		}
		return domain.StageFunc(func(ctx context.Context, sc domain.Scope) (domain.Transition, error) {
			token, err := broker.Register(ctx, "", cfg.Name, sc.Defer())
			if err != nil {
				return domain.Transition{}, err
			}
			logger.Info("pipeline suspended, waiting for answer",
				"stage", cfg.Name,
				"token", token,
			)
			return domain.Deferred(), nil
		}), nil
	})

	return reg
}

// expand substitutes ${key} placeholders with context values.
func expand(text string, c *domain.Context) string {
	return os.Expand(text, func(key string) string {
		if v, ok := c.Get(key); ok {
			return fmt.Sprint(v)
		}
		return ""
	})
}

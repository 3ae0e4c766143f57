package registry_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cascadehq/cascade/pkg/domain"
	"github.com/cascadehq/cascade/pkg/registry"
)

func echoStage(msg string) domain.Stage {
	return domain.StageFunc(func(ctx context.Context, sc domain.Scope) (domain.Transition, error) {
		return domain.Terminate(msg), nil
	})
}

func TestConstruct_InlineInstancePassesThrough(t *testing.T) {
	reg := registry.New()
	inline := echoStage("hi")

	stage, err := reg.Construct(domain.Inline(inline), domain.NewContext())
	require.NoError(t, err)
	assert.Equal(t, reflect.ValueOf(inline).Pointer(), reflect.ValueOf(stage).Pointer(), "pre-built instances are returned unchanged")
}

func TestConstruct_ResolvesRegisteredFactory(t *testing.T) {
	reg := registry.New()
	reg.Register("echo", func(c *domain.Context, args map[string]any) (domain.Stage, error) {
		msg, err := domain.Require[string](c, "message")
		if err != nil {
			return nil, err
		}
		return echoStage(msg), nil
	})

	stage, err := reg.Construct(domain.Ref("echo"), domain.NewContext(domain.E("message", "hello")))
	require.NoError(t, err)
	assert.NotNil(t, stage)
}

func TestConstruct_ArgsReachTheFactory(t *testing.T) {
	reg := registry.New()
	var got map[string]any
	reg.Register("with-args", func(c *domain.Context, args map[string]any) (domain.Stage, error) {
		got = args
		return echoStage("ok"), nil
	})

	_, err := reg.Construct(domain.RefWith("with-args", map[string]any{"limit": 3}), domain.NewContext())
	require.NoError(t, err)
	assert.Equal(t, 3, got["limit"])
}

func TestConstruct_Failures(t *testing.T) {
	t.Run("unknown reference", func(t *testing.T) {
		reg := registry.New()
		_, err := reg.Construct(domain.Ref("ghost"), domain.NewContext())
		var ce *domain.ConstructionError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "ghost", ce.Ref)
	})

	t.Run("factory error is wrapped", func(t *testing.T) {
		reg := registry.New()
		cause := errors.New("bad input")
		reg.Register("broken", func(c *domain.Context, args map[string]any) (domain.Stage, error) {
			return nil, cause
		})
		_, err := reg.Construct(domain.Ref("broken"), domain.NewContext())
		var ce *domain.ConstructionError
		require.ErrorAs(t, err, &ce)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("factory panic is captured", func(t *testing.T) {
		reg := registry.New()
		reg.Register("panics", func(c *domain.Context, args map[string]any) (domain.Stage, error) {
			panic("constructor exploded")
		})
		_, err := reg.Construct(domain.Ref("panics"), domain.NewContext())
		var ce *domain.ConstructionError
		require.ErrorAs(t, err, &ce)
		assert.Contains(t, err.Error(), "panicked")
	})

	t.Run("nil stage without error", func(t *testing.T) {
		reg := registry.New()
		reg.Register("empty", func(c *domain.Context, args map[string]any) (domain.Stage, error) {
			return nil, nil
		})
		_, err := reg.Construct(domain.Ref("empty"), domain.NewContext())
		var ce *domain.ConstructionError
		assert.ErrorAs(t, err, &ce)
	})
}

func TestRegistry_HasAndNames(t *testing.T) {
	reg := registry.New()
	assert.False(t, reg.Has("a"))

	reg.Register("a", func(c *domain.Context, args map[string]any) (domain.Stage, error) { return echoStage("a"), nil })
	reg.Register("b", func(c *domain.Context, args map[string]any) (domain.Stage, error) { return echoStage("b"), nil })

	assert.True(t, reg.Has("a"))
	assert.ElementsMatch(t, []string{"a", "b"}, reg.Names())
}

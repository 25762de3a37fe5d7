package guard_test

import (
	"errors"
	"sync"
	"testing"

	"parceltrack/internal/pkg/guard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorGuard_Validate(t *testing.T) {
	errNotConstructed := errors.New("parcel not constructed")

	t.Run("constructed_guard_passes", func(t *testing.T) {
		g := guard.NewConstructorGuard()

		require.NoError(t, g.Validate(errNotConstructed))
		require.NoError(t, g.Validate(nil))
	})

	t.Run("zero_value_returns_supplied_error", func(t *testing.T) {
		var g guard.ConstructorGuard

		err := g.Validate(errNotConstructed)

		require.Error(t, err)
		assert.Equal(t, errNotConstructed, err)
	})

	t.Run("zero_value_falls_back_to_default_error", func(t *testing.T) {
		var g guard.ConstructorGuard

		err := g.Validate(nil)

		require.ErrorIs(t, err, guard.ErrDefaultConstructorGuard)
		assert.Equal(t, "object must be created via its constructor", err.Error())
	})

	t.Run("copies_keep_state", func(t *testing.T) {
		g := guard.NewConstructorGuard()
		cp := g

		require.NoError(t, cp.Validate(errNotConstructed))
	})
}

func TestConstructorGuard_EmbeddedInValueObject(t *testing.T) {
	type agentName struct {
		value string
		guard guard.ConstructorGuard
	}

	errAgentNameIsNotConstructed := errors.New("agentName must be created via newAgentName")

	newAgentName := func(v string) (agentName, error) {
		if v == "" {
			return agentName{}, errors.New("name is required")
		}
		return agentName{value: v, guard: guard.NewConstructorGuard()}, nil
	}

	name, err := newAgentName("Rahim")
	require.NoError(t, err)
	require.NoError(t, name.guard.Validate(errAgentNameIsNotConstructed))

	var zero agentName
	require.ErrorIs(t, zero.guard.Validate(errAgentNameIsNotConstructed), errAgentNameIsNotConstructed)

	_, err = newAgentName("")
	require.Error(t, err)
}

func TestConstructorGuard_ConcurrentValidate(t *testing.T) {
	g := guard.NewConstructorGuard()
	errNotConstructed := errors.New("not constructed")

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				assert.NoError(t, g.Validate(errNotConstructed))
			}
		}()
	}
	wg.Wait()
}

func BenchmarkConstructorGuard_Validate(b *testing.B) {
	g := guard.NewConstructorGuard()
	err := errors.New("not constructed")
	b.ResetTimer()
	for range b.N {
		_ = g.Validate(err)
	}
}

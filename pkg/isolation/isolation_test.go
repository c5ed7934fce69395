package isolation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/yairfalse/jitter/pkg/hw"
)

func TestMaskUnmask(t *testing.T) {
	t.Run("delegates to the gate", func(t *testing.T) {
		gate := &hw.RecordingGate{}
		c := New(zaptest.NewLogger(t), gate)

		c.MaskInterrupts()
		c.UnmaskInterrupts()
		c.UnmaskInterrupts()

		assert.Equal(t, 1, gate.MaskCalls)
		assert.Equal(t, 2, gate.UnmaskCalls)
	})

	t.Run("nil gate is a no-op", func(t *testing.T) {
		c := New(zaptest.NewLogger(t), nil)
		assert.NotPanics(t, func() {
			c.MaskInterrupts()
			c.UnmaskInterrupts()
		})
	})
}

func TestPinRejectsInvalidCore(t *testing.T) {
	c := New(zaptest.NewLogger(t), nil)

	err := c.Pin(-1)
	require.Error(t, err)

	var affinity *AffinityError
	require.ErrorAs(t, err, &affinity)
	assert.Equal(t, -1, affinity.Core)
}

func TestErrorWrapping(t *testing.T) {
	cause := errors.New("kernel said no")

	tests := []struct {
		name string
		err  error
	}{
		{"affinity", &AffinityError{Core: 4, Cause: cause}},
		{"memory lock", &MemoryLockError{Cause: cause}},
		{"privilege", &PrivilegeError{Cause: cause}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, cause)
			assert.Contains(t, tt.err.Error(), "kernel said no")
		})
	}
}

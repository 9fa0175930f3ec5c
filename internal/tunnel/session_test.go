package tunnel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionStateMachine(t *testing.T) {
	s := newSession("127.0.0.1:1")
	assert.Equal(t, StateConnecting, s.State())
	assert.True(t, s.advance(StatePiping))
	assert.False(t, s.advance(StateConnecting), "no backwards transition")
	assert.True(t, s.advance(StateClosed))
	assert.False(t, s.advance(StatePiping), "closed is terminal")
	assert.Equal(t, "closed", s.State().String())
}

func TestSessionConnectingToClosed(t *testing.T) {
	s := newSession("r")
	assert.True(t, s.advance(StateClosed))
	assert.Equal(t, StateClosed, s.State())
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	a, b := newSession("a"), newSession("b")
	r.add(a)
	r.add(b)
	assert.Equal(t, 2, r.Active())
	a.up.Add(5)
	snap := r.Snapshot()
	assert.Len(t, snap, 2)
	for _, si := range snap {
		assert.NotEmpty(t, si.ID)
		assert.Equal(t, "connecting", si.State)
		if si.ID == a.ID {
			assert.EqualValues(t, 5, si.BytesUpstream)
		}
	}
	r.remove(a)
	r.remove(a)
	assert.Equal(t, 1, r.Active())
	assert.NotEqual(t, a.ID, b.ID)
}

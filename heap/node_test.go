package heap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fixedRoots []Node

func (r fixedRoots) GCRoots() []Node { return r }

func TestAtomInterningIsCaseInsensitive(t *testing.T) {
	h := New(0)
	a := h.Atom("Forward")
	b := h.Atom("FORWARD")
	require.Equal(t, a, b, "interning should fold case")
	require.Equal(t, "Forward", h.WordPtr(a), "first-seen casing should be preserved")
}

func TestCollectFreesUnreachableCons(t *testing.T) {
	h := New(0)
	dead, ok := h.Cons(h.Atom("dead"), Nil, nil)
	require.True(t, ok)
	live, ok := h.Cons(h.Atom("live"), Nil, nil)
	require.True(t, ok)
	_ = dead

	before := h.FreeNodes()
	h.Collect(fixedRoots{live})
	after := h.FreeNodes()
	require.Greater(t, after, before, "collecting an unreachable cons should free a slot")

	_, ok = h.Cons(h.Atom("reused"), Nil, nil)
	require.True(t, ok, "the freed slot should be reusable")
	require.Equal(t, h.Atom("live"), h.Car(live), "live cons must survive the collection untouched")
}

func TestConsRetriesAfterCollectOnExhaustion(t *testing.T) {
	h := New(1)
	_, ok := h.Cons(h.Atom("dead"), Nil, nil)
	require.True(t, ok, "first allocation should succeed under capacity 1")

	// No roots keep `dead` alive, so Cons should trigger a GC pass and
	// reuse its slot rather than failing outright.
	n, ok := h.Cons(h.Atom("new"), Nil, fixedRoots{})
	require.True(t, ok, "Cons should succeed by collecting the dead cons first")
	require.Equal(t, h.Atom("new"), h.Car(n))
}

func TestConsFailsWhenCapacityTrulyExhausted(t *testing.T) {
	h := New(1)
	live, ok := h.Cons(h.Atom("live"), Nil, nil)
	require.True(t, ok)
	_, ok = h.Cons(h.Atom("overflow"), Nil, fixedRoots{live})
	require.False(t, ok, "allocation should fail when the only cons is rooted live")
}

func TestListRefTagRoundTrips(t *testing.T) {
	h := New(0)
	inner, _ := h.Cons(h.Atom("a"), Nil, nil)
	ref := inner.AsListRef()
	require.True(t, ref.IsListRef())
	stripped := ref.StripListRef()
	require.True(t, stripped.IsCons())
	require.False(t, stripped.IsListRef())
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLookup struct {
	byID   map[string]Info
	byName map[string]Info
	calls  int
}

func (f *fakeLookup) find(_ Kind, id, name string) Info {
	f.calls++
	if i, ok := f.byID[id]; ok {
		return i
	}
	return f.byName[name]
}

func TestRef_States(t *testing.T) {
	var zero Ref[*Workspace]
	assert.True(t, zero.IsZero())
	assert.False(t, zero.IsPending())
	assert.False(t, zero.IsResolved())
	assert.Nil(t, zero.Pointee())

	pending := PendingRef[*Workspace](KindWorkspace, "ws1")
	assert.True(t, pending.IsPending())
	assert.Equal(t, "ws1", pending.ID())
	assert.Equal(t, KindWorkspace, pending.Kind())

	ws := &Workspace{Meta: Meta{ID: "ws1"}, Name: "topp"}
	resolved := RefTo(ws)
	assert.True(t, resolved.IsResolved())
	assert.Equal(t, "topp", resolved.Name())
	assert.Equal(t, "ws1", resolved.ID())
	assert.True(t, resolved.Equal(pending))

	assert.True(t, RefTo[*Workspace](nil).IsZero())
}

func TestRef_ResolveByIDThenName(t *testing.T) {
	ws := &Workspace{Meta: Meta{ID: "ws1"}, Name: "topp"}
	lookup := &fakeLookup{byID: map[string]Info{"ws1": ws}, byName: map[string]Info{"topp": ws}}

	r, ok := PendingRef[*Workspace](KindWorkspace, "ws1").Resolve(lookup.find)
	require.True(t, ok)
	assert.Same(t, ws, r.Target())

	r, ok = PendingRefByName[*Workspace](KindWorkspace, "topp").Resolve(lookup.find)
	require.True(t, ok)
	assert.Same(t, ws, r.Target())

	calls := lookup.calls
	again, ok := r.Resolve(lookup.find)
	assert.True(t, ok)
	assert.Equal(t, r, again)
	assert.Equal(t, calls, lookup.calls, "resolving a resolved reference is a no-op")
}

func TestRef_ResolveMissOrWrongKind(t *testing.T) {
	style := &Style{Meta: Meta{ID: "x"}}
	lookup := &fakeLookup{byID: map[string]Info{"x": style}}

	r, ok := PendingRef[*Workspace](KindWorkspace, "missing").Resolve(lookup.find)
	assert.False(t, ok)
	assert.True(t, r.IsPending())

	r, ok = PendingRef[*Workspace](KindWorkspace, "x").Resolve(lookup.find)
	assert.False(t, ok, "a target of another type does not resolve")
	assert.True(t, r.IsPending())
}

func TestResolveAll_PreservesOrderAndUnresolved(t *testing.T) {
	a := &Layer{Meta: Meta{ID: "a"}}
	c := &Layer{Meta: Meta{ID: "c"}}
	lookup := &fakeLookup{byID: map[string]Info{"a": a, "c": c}}

	refs := []Ref[Published]{
		PendingRef[Published](KindLayer, "a"),
		PendingRef[Published](KindLayer, "b"),
		PendingRef[Published](KindLayer, "c"),
		{},
	}

	all := ResolveAll(refs, lookup.find)

	assert.False(t, all)
	assert.Equal(t, Info(a), refs[0].Pointee())
	assert.True(t, refs[1].IsPending())
	assert.Equal(t, "b", refs[1].ID())
	assert.Equal(t, Info(c), refs[2].Pointee())
	assert.True(t, refs[3].IsZero(), "style group entries stay empty")
}

func TestEqualRefs(t *testing.T) {
	s1 := &Style{Meta: Meta{ID: "s1"}}
	s2 := &Style{Meta: Meta{ID: "s2"}}

	assert.True(t, EqualRefs([]Ref[*Style]{RefTo(s1), {}}, []Ref[*Style]{RefTo(s1), {}}))
	assert.False(t, EqualRefs([]Ref[*Style]{RefTo(s1)}, []Ref[*Style]{RefTo(s2)}))
	assert.False(t, EqualRefs([]Ref[*Style]{RefTo(s1)}, nil))
}

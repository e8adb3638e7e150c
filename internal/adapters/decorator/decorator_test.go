package decorator

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobrunner/geocat/internal/adapters/memory"
	"github.com/jobrunner/geocat/internal/domain"
	"github.com/jobrunner/geocat/internal/ports/output"
	"github.com/jobrunner/geocat/internal/scope"
)

type fixture struct {
	store    *memory.Store
	isolated *domain.Workspace
	open     *domain.Workspace
	ns       *domain.Namespace
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		store:    memory.NewStore(),
		isolated: &domain.Workspace{Meta: domain.Meta{ID: "iso"}, Name: "iso", Isolated: true},
		open:     &domain.Workspace{Meta: domain.Meta{ID: "open"}, Name: "open"},
		ns:       &domain.Namespace{Meta: domain.Meta{ID: "ns"}, Prefix: "open", URI: "http://open"},
	}
	require.NoError(t, f.store.Add(ctx, f.isolated))
	require.NoError(t, f.store.Add(ctx, f.open))
	require.NoError(t, f.store.Add(ctx, f.ns))
	return f
}

func (f *fixture) addStore(t *testing.T, id string, ws *domain.Workspace) *domain.Store {
	t.Helper()
	s := &domain.Store{Meta: domain.Meta{ID: id}, Name: id, Workspace: domain.RefTo(ws), Enabled: true}
	require.NoError(t, f.store.Add(context.Background(), s))
	return s
}

func (f *fixture) addLayer(t *testing.T, name string, store *domain.Store, advertised bool) *domain.Layer {
	t.Helper()
	ctx := context.Background()
	res := &domain.Resource{
		Meta:       domain.Meta{ID: "r-" + name},
		Name:       name,
		Store:      domain.RefTo(store),
		Namespace:  domain.RefTo(f.ns),
		Enabled:    true,
		Advertised: advertised,
	}
	require.NoError(t, f.store.Add(ctx, res))
	l := &domain.Layer{Meta: domain.Meta{ID: "l-" + name}, Resource: domain.RefTo(res), Enabled: true, Advertised: true}
	require.NoError(t, f.store.Add(ctx, l))
	return l
}

func serving(local string) context.Context {
	return scope.WithRequest(context.Background(), &scope.Request{LocalWorkspace: local})
}

func listingCtx(names ...string) context.Context {
	return scope.WithRequest(context.Background(), &scope.Request{Capabilities: true, Names: names})
}

func TestIsolated_StoreVisibility(t *testing.T) {
	f := newFixture(t)
	f.addStore(t, "st", f.isolated)
	d := NewIsolated(f.store)

	assert.NotNil(t, d.Get(context.Background(), domain.KindStore, "st"), "no request: administrative access")
	assert.NotNil(t, d.Get(serving("iso"), domain.KindStore, "st"), "request scoped to the workspace")
	assert.Nil(t, d.Get(serving("open"), domain.KindStore, "st"), "request scoped elsewhere")
	assert.Nil(t, d.Get(serving(""), domain.KindStore, "st"), "global service request")
}

func TestIsolated_ChainAndUnresolved(t *testing.T) {
	f := newFixture(t)
	st := f.addStore(t, "st", f.isolated)
	layer := f.addLayer(t, "roads", st, true)
	d := NewIsolated(f.store)
	ctx := serving("open")

	assert.Nil(t, d.Get(ctx, domain.KindLayer, layer.ID))
	assert.Nil(t, d.Get(ctx, domain.KindResource, "r-roads"))
	assert.NotNil(t, d.Get(ctx, domain.KindWorkspace, "iso"), "workspaces themselves are listed")

	dangling := &domain.Resource{Meta: domain.Meta{ID: "dangling"}, Name: "dangling",
		Store: domain.PendingRef[*domain.Store](domain.KindDataStore, "missing")}
	require.NoError(t, f.store.Add(context.Background(), dangling))
	assert.NotNil(t, d.Get(ctx, domain.KindResource, "dangling"), "an unresolved chain is let through")
}

func TestIsolated_PagingUsesComposedFilter(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 6; i++ {
		ws := f.open
		if i%2 == 0 {
			ws = f.isolated
		}
		f.addStore(t, fmt.Sprintf("s%d", i), ws)
	}
	d := NewIsolated(f.store)
	ctx := serving("open")

	it, err := d.List(ctx, domain.KindStore, domain.Query{Offset: 1, Limit: 2})
	require.NoError(t, err)
	var ids []string
	for _, h := range output.Collect(it) {
		ids = append(ids, h.ID())
	}
	assert.Equal(t, []string{"s3", "s5"}, ids)
	assert.Equal(t, 3, d.Count(ctx, domain.KindStore, nil))
}

func TestIsolated_NamespaceByURIPrefersLocal(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Add(ctx, &domain.Namespace{Meta: domain.Meta{ID: "1"}, Prefix: "a", URI: "http://x", Isolated: true}))
	require.NoError(t, store.Add(ctx, &domain.Namespace{Meta: domain.Meta{ID: "2"}, Prefix: "b", URI: "http://x", Isolated: true}))
	d := NewIsolated(store)

	found := d.NamespacesByURI(serving("b"), "http://x")
	require.Len(t, found, 2)
	assert.Equal(t, "2", found[0].ID())
}

func TestAdvertised_OnlyDuringListing(t *testing.T) {
	f := newFixture(t)
	st := f.addStore(t, "st", f.open)
	hidden := f.addLayer(t, "secret", st, false)
	d := NewAdvertised(f.store, HideNever)

	assert.NotNil(t, d.Get(context.Background(), domain.KindLayer, hidden.ID))
	assert.NotNil(t, d.Get(serving("open"), domain.KindLayer, hidden.ID))
	assert.Nil(t, d.Get(listingCtx(), domain.KindLayer, hidden.ID))
	assert.Nil(t, d.Get(listingCtx(), domain.KindResource, "r-secret"))
	assert.NotNil(t, d.Get(listingCtx("open:secret"), domain.KindLayer, hidden.ID), "directly named")
	assert.NotNil(t, d.Get(listingCtx("secret"), domain.KindResource, "r-secret"))
}

func TestAdvertised_GroupPolicies(t *testing.T) {
	tests := []struct {
		policy     GroupPolicy
		visible    int // advertised members
		hidden     int // not advertised members
		wantHidden bool
	}{
		{HideNever, 0, 2, false},
		{HideEmpty, 1, 1, false},
		{HideEmpty, 0, 2, true},
		{HideIfAllHidden, 1, 1, false},
		{HideIfAllHidden, 0, 2, true},
		{HideIfAnyHidden, 1, 1, true},
		{HideIfAnyHidden, 2, 0, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_%d_%d", tt.policy, tt.visible, tt.hidden), func(t *testing.T) {
			f := newFixture(t)
			st := f.addStore(t, "st", f.open)
			g := &domain.LayerGroup{Meta: domain.Meta{ID: "g"}, Name: "g", Mode: domain.ModeSingle, Advertised: true, Enabled: true}
			for i := 0; i < tt.visible; i++ {
				g.Layers = append(g.Layers, domain.PublishedRef(f.addLayer(t, fmt.Sprintf("v%d", i), st, true)))
			}
			for i := 0; i < tt.hidden; i++ {
				g.Layers = append(g.Layers, domain.PublishedRef(f.addLayer(t, fmt.Sprintf("h%d", i), st, false)))
			}
			require.NoError(t, f.store.Add(context.Background(), g))

			d := NewAdvertised(f.store, tt.policy)
			got := d.Get(listingCtx(), domain.KindLayerGroup, "g")
			assert.Equal(t, tt.wantHidden, got == nil)
		})
	}
}

func TestAdvertised_GroupViewIsFilteredAndReadOnly(t *testing.T) {
	f := newFixture(t)
	st := f.addStore(t, "st", f.open)
	shown := f.addLayer(t, "shown", st, true)
	secret := f.addLayer(t, "secret", st, false)
	s1 := &domain.Style{Meta: domain.Meta{ID: "s1"}, Name: "s1"}
	s2 := &domain.Style{Meta: domain.Meta{ID: "s2"}, Name: "s2"}
	g := &domain.LayerGroup{
		Meta: domain.Meta{ID: "g"}, Name: "g", Mode: domain.ModeSingle, Advertised: true,
		Layers: []domain.Ref[domain.Published]{domain.PublishedRef(secret), domain.PublishedRef(shown)},
		Styles: []domain.Ref[*domain.Style]{domain.RefTo(s1), domain.RefTo(s2)},
	}
	require.NoError(t, f.store.Add(context.Background(), g))
	d := NewAdvertised(f.store, HideNever)

	h := d.Get(listingCtx(), domain.KindLayerGroup, "g")
	require.NotNil(t, h)
	view, ok := h.(*domain.Proxy[domain.LayerGroup])
	require.True(t, ok)
	layers := domain.Get(view, domain.GroupLayers)
	require.Len(t, layers, 1)
	assert.Equal(t, shown.ID, layers[0].ID())
	assert.Equal(t, []domain.Ref[*domain.Style]{domain.RefTo(s2)}, domain.Get(view, domain.GroupStyles))
	assert.Len(t, g.Layers, 2, "the canonical group is untouched")

	_, err := view.Commit()
	assert.ErrorIs(t, err, domain.ErrReadOnly)

	it, err := d.List(listingCtx(), domain.KindLayerGroup, domain.Query{})
	require.NoError(t, err)
	listed := output.Collect(it)
	require.Len(t, listed, 1)
	assert.True(t, listed[0].IsReadOnly())
}

func TestStacking_IsolationInsideAdvertised(t *testing.T) {
	f := newFixture(t)
	iso := f.addStore(t, "iso-store", f.isolated)
	open := f.addStore(t, "open-store", f.open)
	f.addLayer(t, "a", iso, true)
	f.addLayer(t, "b", open, false)
	f.addLayer(t, "c", open, true)

	stacked := NewAdvertised(NewIsolated(f.store), HideNever)
	reversed := NewIsolated(NewAdvertised(f.store, HideNever))
	ctx := scope.WithRequest(context.Background(), &scope.Request{LocalWorkspace: "open", Capabilities: true})

	for _, facade := range []output.Facade{stacked, reversed} {
		it, err := facade.List(ctx, domain.KindLayer, domain.Query{})
		require.NoError(t, err)
		var names []string
		for _, h := range output.Collect(it) {
			names = append(names, domain.NameOf(h.Unwrap()))
		}
		assert.Equal(t, []string{"c"}, names)
	}
}

func TestLocking_ReentrantExclusive(t *testing.T) {
	f := newFixture(t)
	l := NewLocking(f.store)
	ctx := context.Background()

	err := l.Exclusive(ctx, func(ctx context.Context) error {
		require.NoError(t, l.Add(ctx, &domain.Workspace{Meta: domain.Meta{ID: "x"}, Name: "x"}))
		assert.NotNil(t, l.Get(ctx, domain.KindWorkspace, "x"))
		return l.Shared(ctx, func(ctx context.Context) error {
			assert.Equal(t, 3, l.Count(ctx, domain.KindWorkspace, nil))
			return nil
		})
	})
	require.NoError(t, err)
}

func TestLocking_ConcurrentWriters(t *testing.T) {
	l := NewLocking(memory.NewStore())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ws := &domain.Workspace{Meta: domain.Meta{ID: fmt.Sprint(i)}, Name: fmt.Sprint(i)}
			_ = l.Add(ctx, ws)
			_ = l.Count(ctx, domain.KindWorkspace, nil)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, l.Count(ctx, domain.KindWorkspace, nil))
}

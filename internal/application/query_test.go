package application

import (
	"context"
	"errors"
	"testing"

	"github.com/jobrunner/geocat/internal/domain"
	"github.com/jobrunner/geocat/internal/ports/output"
)

func newTestQueryService(t *testing.T, maxResults int) (*QueryService, *Catalog) {
	t.Helper()
	catalog := newTestCatalog(t)
	svc := NewQueryService(catalog, &output.NoOpMetrics{}, testLogger(), QueryServiceConfig{
		MaxResults: maxResults,
	})
	return svc, catalog
}

func TestQueryServiceDefaultConfig(t *testing.T) {
	svc := NewQueryService(newTestCatalog(t), &output.NoOpMetrics{}, testLogger(), QueryServiceConfig{})

	if svc.maxResults != 1000 {
		t.Errorf("maxResults = %d, want 1000", svc.maxResults)
	}
}

func TestQueryServiceAddWorkspace(t *testing.T) {
	svc, catalog := newTestQueryService(t, 100)
	ctx := context.Background()

	h, err := svc.AddWorkspace(ctx, "topp", "http://www.openplans.org/topp", false)
	if err != nil {
		t.Fatalf("AddWorkspace failed: %v", err)
	}
	if h.Kind() != domain.KindWorkspace {
		t.Errorf("Kind() = %s, want workspace", h.Kind())
	}
	ns := catalog.NamespaceByPrefix(ctx, "topp")
	if ns == nil {
		t.Fatal("namespace topp was not created")
	}
	if ns.Object().URI != "http://www.openplans.org/topp" {
		t.Errorf("URI = %q", ns.Object().URI)
	}
	if got := catalog.DefaultWorkspace(ctx); got == nil || got.ID() != h.ID() {
		t.Error("first workspace should become the default")
	}
}

func TestQueryServiceAddWorkspaceErrors(t *testing.T) {
	tests := []struct {
		name    string
		wsName  string
		uri     string
		wantErr error
	}{
		{name: "duplicate name", wsName: "topp", uri: "http://other", wantErr: domain.ErrValidation},
		{name: "duplicate uri", wsName: "other", uri: "http://topp", wantErr: domain.ErrValidation},
		{name: "relative uri", wsName: "rel", uri: "topp/ns", wantErr: domain.ErrValidation},
		{name: "reserved name", wsName: "default", uri: "http://default", wantErr: domain.ErrValidation},
		{name: "empty name", wsName: "", uri: "http://empty", wantErr: domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, catalog := newTestQueryService(t, 100)
			ctx := context.Background()
			if _, err := svc.AddWorkspace(ctx, "topp", "http://topp", false); err != nil {
				t.Fatalf("setup failed: %v", err)
			}

			_, err := svc.AddWorkspace(ctx, tt.wsName, tt.uri, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("AddWorkspace() error = %v, want %v", err, tt.wantErr)
			}
			if n := catalog.Count(ctx, domain.KindWorkspace, nil); n != 1 {
				t.Errorf("workspaces = %d, want 1", n)
			}
			if n := catalog.Count(ctx, domain.KindNamespace, nil); n != 1 {
				t.Errorf("namespaces = %d, want 1", n)
			}
		})
	}
}

func TestQueryServiceRemoveWorkspace(t *testing.T) {
	svc, catalog := newTestQueryService(t, 100)
	ctx := context.Background()

	if _, err := svc.AddWorkspace(ctx, "empty", "http://empty", false); err != nil {
		t.Fatal(err)
	}
	ws, err := svc.AddWorkspace(ctx, "busy", "http://busy", false)
	if err != nil {
		t.Fatal(err)
	}
	st := Factory{}.NewDataStore()
	st.Name = "states"
	st.Workspace = domain.RefTo(ws.Unwrap().(*domain.Workspace))
	if err := catalog.Add(ctx, st); err != nil {
		t.Fatal(err)
	}

	if err := svc.RemoveWorkspace(ctx, "empty"); err != nil {
		t.Errorf("RemoveWorkspace(empty) failed: %v", err)
	}
	if catalog.NamespaceByPrefix(ctx, "empty") != nil {
		t.Error("namespace of removed workspace still present")
	}

	err = svc.RemoveWorkspace(ctx, "busy")
	if !errors.Is(err, domain.ErrReferentialIntegrity) {
		t.Errorf("RemoveWorkspace(busy) error = %v, want referential integrity", err)
	}
	if catalog.NamespaceByPrefix(ctx, "busy") == nil {
		t.Error("namespace should be restored when the workspace is in use")
	}

	if err := svc.RemoveWorkspace(ctx, "missing"); !errors.Is(err, domain.ErrEntityNotFound) {
		t.Errorf("RemoveWorkspace(missing) error = %v, want not found", err)
	}
}

func TestQueryServiceGetByName(t *testing.T) {
	svc, catalog := newTestQueryService(t, 100)
	ctx := context.Background()

	ws, err := svc.AddWorkspace(ctx, "topp", "http://topp", false)
	if err != nil {
		t.Fatal(err)
	}
	f := Factory{}
	st := f.NewDataStore()
	st.Name = "states"
	st.Workspace = domain.RefTo(ws.Unwrap().(*domain.Workspace))
	mustAdd(t, catalog, st)
	res := f.NewFeatureType()
	res.Name = "roads"
	res.Store = domain.RefTo(st)
	mustAdd(t, catalog, res)
	layer := f.NewLayer()
	layer.Resource = domain.RefTo(res)
	mustAdd(t, catalog, layer)
	style := f.NewStyle()
	style.Name = "line"
	style.Filename = "line.sld"
	mustAdd(t, catalog, style)

	tests := []struct {
		kind    domain.Kind
		name    string
		wantID  string
		wantErr bool
	}{
		{kind: domain.KindWorkspace, name: "topp", wantID: ws.ID()},
		{kind: domain.KindWorkspace, name: "default", wantID: ws.ID()},
		{kind: domain.KindStore, name: "topp:states", wantID: st.ID},
		{kind: domain.KindStore, name: "states", wantID: st.ID},
		{kind: domain.KindResource, name: "topp:roads", wantID: res.ID},
		{kind: domain.KindLayer, name: "roads", wantID: layer.ID},
		{kind: domain.KindStyle, name: "line", wantID: style.ID},
		{kind: domain.KindLayer, name: "topp:missing", wantErr: true},
		{kind: domain.KindMap, name: "none", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String()+"/"+tt.name, func(t *testing.T) {
			h, err := svc.GetByName(ctx, tt.kind, tt.name)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrEntityNotFound) {
					t.Errorf("GetByName() error = %v, want not found", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetByName() failed: %v", err)
			}
			if h.ID() != tt.wantID {
				t.Errorf("GetByName() id = %s, want %s", h.ID(), tt.wantID)
			}
		})
	}
}

func TestQueryServiceListCapsResults(t *testing.T) {
	svc, _ := newTestQueryService(t, 2)
	ctx := context.Background()
	for _, name := range []string{"a", "b", "c"} {
		if _, err := svc.AddWorkspace(ctx, name, "http://"+name, false); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name  string
		query domain.Query
		want  int
	}{
		{name: "no limit", query: domain.Query{}, want: 2},
		{name: "limit above max", query: domain.Query{Limit: 10}, want: 2},
		{name: "limit below max", query: domain.Query{Limit: 1}, want: 1},
		{name: "filtered", query: domain.Query{Filter: domain.NameContains("C")}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.List(ctx, domain.KindWorkspace, tt.query)
			if err != nil {
				t.Fatalf("List() failed: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("len(List()) = %d, want %d", len(got), tt.want)
			}
		})
	}

	if n := svc.Count(ctx, domain.KindWorkspace, nil); n != 3 {
		t.Errorf("Count() = %d, want 3", n)
	}
}

func mustAdd(t *testing.T, c *Catalog, info domain.Info) {
	t.Helper()
	if err := c.Add(context.Background(), info); err != nil {
		t.Fatalf("Add(%s) failed: %v", info.Kind(), err)
	}
}

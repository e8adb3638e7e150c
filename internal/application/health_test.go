package application

import (
	"context"
	"testing"

	"github.com/jobrunner/geocat/internal/domain"
)

func TestHealthServiceIsHealthy(t *testing.T) {
	service := NewHealthService(newTestCatalog(t))

	if !service.IsHealthy(context.Background()) {
		t.Error("IsHealthy should return true")
	}
}

func TestHealthServiceIsReady(t *testing.T) {
	tests := []struct {
		name string
		load LoadFunc
		want bool
	}{
		{
			name: "not loaded",
			want: false,
		},
		{
			name: "empty snapshot is ready",
			load: func(context.Context, *Catalog) error { return nil },
			want: true,
		},
		{
			name: "loaded workspace",
			load: func(ctx context.Context, c *Catalog) error {
				c.BulkPut(ctx, &domain.Workspace{Meta: domain.Meta{ID: "ws"}, Name: "topp"})
				return nil
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := newTestCatalog(t)
			if tt.load != nil {
				if err := catalog.Reload(context.Background(), tt.load); err != nil {
					t.Fatalf("Reload failed: %v", err)
				}
			}
			service := NewHealthService(catalog)

			if got := service.IsReady(context.Background()); got != tt.want {
				t.Errorf("IsReady() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHealthServiceGetHealthDetails(t *testing.T) {
	catalog := newTestCatalog(t)
	service := NewHealthService(catalog)
	ctx := context.Background()

	err := catalog.Reload(ctx, func(ctx context.Context, c *Catalog) error {
		c.BulkPut(ctx,
			&domain.Workspace{Meta: domain.Meta{ID: "ws1"}, Name: "a"},
			&domain.Workspace{Meta: domain.Meta{ID: "ws2"}, Name: "b"},
			&domain.Layer{
				Meta:     domain.Meta{ID: "l1"},
				Resource: domain.PendingRef[*domain.Resource](domain.KindFeatureType, "gone"),
			},
		)
		return nil
	})
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	details := service.GetHealthDetails(ctx)

	if !details.Healthy {
		t.Error("Healthy should be true")
	}
	if !details.Ready {
		t.Error("Ready should be true")
	}
	if details.Objects["workspace"] != 2 {
		t.Errorf("Objects[workspace] = %d, want 2", details.Objects["workspace"])
	}
	if details.Objects["layer"] != 1 {
		t.Errorf("Objects[layer] = %d, want 1", details.Objects["layer"])
	}
	if details.Unresolved != 1 {
		t.Errorf("Unresolved = %d, want 1", details.Unresolved)
	}
	if details.Components["catalog"] != "loaded" {
		t.Errorf("Components[catalog] = %q, want %q", details.Components["catalog"], "loaded")
	}
	if details.Components["references"] != "pending" {
		t.Errorf("Components[references] = %q, want %q", details.Components["references"], "pending")
	}
}

func TestHealthServiceGetUnresolved(t *testing.T) {
	catalog := newTestCatalog(t)
	service := NewHealthService(catalog)
	ctx := context.Background()

	if got := service.GetUnresolved(ctx); len(got) != 0 {
		t.Fatalf("len(GetUnresolved()) = %d, want 0", len(got))
	}

	layer := Factory{}.NewLayer()
	layer.Resource = domain.PendingRefByName[*domain.Resource](domain.KindResource, "topp:roads")
	mustAdd(t, catalog, layer)

	got := service.GetUnresolved(ctx)
	if len(got) != 1 {
		t.Fatalf("len(GetUnresolved()) = %d, want 1", len(got))
	}
	if got[0].Kind != "layer" {
		t.Errorf("Kind = %q, want layer", got[0].Kind)
	}
	if got[0].ID != layer.ID {
		t.Errorf("ID = %q, want %q", got[0].ID, layer.ID)
	}
	if len(got[0].References) != 1 {
		t.Errorf("len(References) = %d, want 1", len(got[0].References))
	}
}

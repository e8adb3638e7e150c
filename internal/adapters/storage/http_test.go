package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newIndexServer(t *testing.T) *httptest.Server {
	t.Helper()
	files := map[string]string{
		"/index.txt":    "# snapshots\ncatalog.yaml\n\nstyles.yml\nlegacy.gpkg\n",
		"/catalog.yaml": "workspaces: []\n",
		"/styles.yml":   "styles: []\n",
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, pass, ok := r.BasicAuth(); !ok || user != "geo" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPStorageList(t *testing.T) {
	srv := newIndexServer(t)
	s := NewHTTPStorage(HTTPConfig{BaseURL: srv.URL + "/", Username: "geo", Password: "secret"})

	objects, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(objects) != 2 {
		t.Fatalf("len(objects) = %d, want 2", len(objects))
	}
	if objects[0].Key != "catalog.yaml" || objects[1].Key != "styles.yml" {
		t.Errorf("keys = %q, %q", objects[0].Key, objects[1].Key)
	}
}

func TestHTTPStorageGetReader(t *testing.T) {
	srv := newIndexServer(t)
	s := NewHTTPStorage(HTTPConfig{BaseURL: srv.URL, Username: "geo", Password: "secret"})

	r, err := s.GetReader(context.Background(), "catalog.yaml")
	if err != nil {
		t.Fatalf("GetReader() error = %v", err)
	}
	defer func() { _ = r.Close() }()
	data, _ := io.ReadAll(r)
	if string(data) != "workspaces: []\n" {
		t.Errorf("content = %q", data)
	}

	if _, err := s.GetReader(context.Background(), "missing.yaml"); err == nil {
		t.Error("GetReader() for a missing document should fail")
	}
}

func TestHTTPStorageExists(t *testing.T) {
	srv := newIndexServer(t)

	tests := []struct {
		name    string
		cfg     HTTPConfig
		key     string
		want    bool
		wantErr bool
	}{
		{name: "existing", cfg: HTTPConfig{Username: "geo", Password: "secret"}, key: "catalog.yaml", want: true},
		{name: "missing", cfg: HTTPConfig{Username: "geo", Password: "secret"}, key: "other.yaml", want: false},
		{name: "unauthorized", key: "catalog.yaml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.BaseURL = srv.URL
			got, err := NewHTTPStorage(cfg).Exists(context.Background(), tt.key)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Exists() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Exists() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewHTTPStorageDefaults(t *testing.T) {
	s := NewHTTPStorage(HTTPConfig{BaseURL: "https://example.org/snapshots/"})

	if s.indexFile != "index.txt" {
		t.Errorf("indexFile = %q, want index.txt", s.indexFile)
	}
	if s.baseURL != "https://example.org/snapshots" {
		t.Errorf("baseURL = %q", s.baseURL)
	}
	if s.client.Timeout == 0 {
		t.Error("client timeout should be set")
	}
}

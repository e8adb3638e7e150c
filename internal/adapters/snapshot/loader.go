package snapshot

import (
	"context"
	"log/slog"
	"path"
	"sort"
	"time"

	"github.com/jobrunner/geocat/internal/adapters/storage"
	"github.com/jobrunner/geocat/internal/application"
	"github.com/jobrunner/geocat/internal/domain"
	"github.com/jobrunner/geocat/internal/ports/output"
	"github.com/jobrunner/geocat/internal/scope"
)

// Loader reads snapshot documents from object storage into a catalog.
type Loader struct {
	storage output.ObjectStorage
	pattern string
	metrics output.MetricsCollector
	logger  *slog.Logger
}

// NewLoader creates a loader. A non-empty pattern restricts the documents to
// base names matching it, as in path.Match.
func NewLoader(store output.ObjectStorage, pattern string, metrics output.MetricsCollector, logger *slog.Logger) *Loader {
	if metrics == nil {
		metrics = &output.NoOpMetrics{}
	}
	return &Loader{storage: store, pattern: pattern, metrics: metrics, logger: logger}
}

func (l *Loader) matches(key string) bool {
	if !storage.IsDocument(key) {
		return false
	}
	if l.pattern == "" {
		return true
	}
	ok, _ := path.Match(l.pattern, path.Base(key))
	return ok
}

// Read lists, decodes and merges every document in key order.
func (l *Loader) Read(ctx context.Context) (*Document, error) {
	start := time.Now()
	objects, err := l.storage.List(ctx)
	l.metrics.IncStorageOperations("list", err == nil)
	l.metrics.ObserveStorageDuration("list", time.Since(start))
	if err != nil {
		return nil, &domain.StorageError{Operation: "list", Err: err}
	}

	var keys []string
	for _, obj := range objects {
		if l.matches(obj.Key) {
			keys = append(keys, obj.Key)
		}
	}
	sort.Strings(keys)

	doc := &Document{}
	for _, key := range keys {
		part, err := l.readOne(ctx, key)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("snapshot document read", "key", key, "entities", part.Len())
		doc.Merge(part)
	}
	return doc, nil
}

func (l *Loader) readOne(ctx context.Context, key string) (*Document, error) {
	start := time.Now()
	r, err := l.storage.GetReader(ctx, key)
	if err != nil {
		l.metrics.IncStorageOperations("read", false)
		return nil, &domain.StorageError{Operation: "read", Key: key, Err: err}
	}
	defer func() { _ = r.Close() }()

	doc, err := Decode(r)
	l.metrics.IncStorageOperations("read", err == nil)
	l.metrics.ObserveStorageDuration("read", time.Since(start))
	if err != nil {
		return nil, &domain.StorageError{Operation: "decode", Key: key, Err: err}
	}
	return doc, nil
}

// Load reads the documents, bulk-puts their entities and resolves the
// catalog. It has the signature of application.LoadFunc.
func (l *Loader) Load(ctx context.Context, c *application.Catalog) error {
	doc, err := l.Read(ctx)
	if err != nil {
		return err
	}
	Apply(ctx, c, doc)
	l.logger.Info("snapshot loaded", "entities", doc.Len())
	return c.Resolve(ctx)
}

// Apply bulk-puts the entities of doc and sets the default pointers it
// records. References stay pending until the catalog is resolved.
func Apply(ctx context.Context, c *application.Catalog, doc *Document) {
	infos := doc.Entities()
	c.BulkPut(ctx, infos...)

	facade := c.Facade()
	ictx := scope.Detach(ctx)

	var workspaces []*domain.Workspace
	for _, info := range infos {
		if ws, ok := info.(*domain.Workspace); ok {
			workspaces = append(workspaces, ws)
		}
	}
	byName := func(name string) *domain.Workspace {
		for _, ws := range workspaces {
			if ws.Name == name {
				return ws
			}
		}
		return nil
	}

	if ws := byName(doc.Defaults.Workspace); ws != nil {
		facade.SetDefaultWorkspace(ictx, ws)
		for _, info := range infos {
			if ns, ok := info.(*domain.Namespace); ok && ns.Prefix == ws.Name {
				facade.SetDefaultNamespace(ictx, ns)
				break
			}
		}
	}

	for wsName, stName := range doc.Defaults.DataStores {
		ws := byName(wsName)
		if ws == nil || ws.ID == "" {
			continue
		}
		for _, info := range infos {
			st, ok := info.(*domain.Store)
			if !ok || st.Kind() != domain.KindDataStore || st.Name != stName {
				continue
			}
			if ref := st.Workspace; ref.ID() == ws.ID || ref.Name() == ws.Name {
				facade.SetDefaultDataStore(ictx, ws.ID, st)
				break
			}
		}
	}
}

// Export renders the whole catalog, ignoring any request scope on ctx.
func Export(ctx context.Context, c *application.Catalog) (*Document, error) {
	ictx := scope.Detach(ctx)
	doc := &Document{}
	for _, kind := range []domain.Kind{
		domain.KindWorkspace, domain.KindNamespace, domain.KindStore, domain.KindStyle,
		domain.KindResource, domain.KindLayer, domain.KindLayerGroup, domain.KindMap,
	} {
		it, err := c.List(ictx, kind, domain.Query{})
		if err != nil {
			return nil, err
		}
		for _, h := range output.Collect(it) {
			doc.add(h.Unwrap())
		}
	}

	if ws := c.DefaultWorkspace(ictx); ws != nil {
		doc.Defaults.Workspace = ws.Object().Name
	}
	for _, ws := range doc.Workspaces {
		if st := c.DefaultDataStore(ictx, ws.ID); st != nil {
			if doc.Defaults.DataStores == nil {
				doc.Defaults.DataStores = make(map[string]string)
			}
			doc.Defaults.DataStores[ws.Name] = st.Object().Name
		}
	}
	return doc, nil
}

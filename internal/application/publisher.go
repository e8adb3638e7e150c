package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jobrunner/geocat/internal/domain"
	"github.com/jobrunner/geocat/internal/ports/output"
)

// PublishResult reports what PublishStore added.
type PublishResult struct {
	Store     string   `json:"store"`
	Published []string `json:"published"`
	Skipped   []string `json:"skipped,omitempty"`
}

// Publisher adds the feature types of data stores to the catalog, one layer each.
type Publisher struct {
	catalog *Catalog
	sources []output.FeatureTypeSource
	factory Factory
	logger  *slog.Logger
}

// NewPublisher creates a publisher reading from the given sources.
func NewPublisher(catalog *Catalog, logger *slog.Logger, sources ...output.FeatureTypeSource) *Publisher {
	return &Publisher{
		catalog: catalog,
		sources: sources,
		logger:  logger,
	}
}

func (p *Publisher) source(st *domain.Store) output.FeatureTypeSource {
	for _, s := range p.sources {
		if s.Supports(st) {
			return s
		}
	}
	return nil
}

// PublishStore discovers the feature types of the store with the given id and
// adds each as a resource with a layer. Names already published in the
// namespace are skipped.
func (p *Publisher) PublishStore(ctx context.Context, storeID string) (PublishResult, error) {
	h := p.catalog.Store(ctx, storeID)
	if h == nil {
		return PublishResult{}, fmt.Errorf("%w: store %s", domain.ErrEntityNotFound, storeID)
	}
	st := h.Object()
	result := PublishResult{Store: st.Name}

	src := p.source(st)
	if src == nil {
		return result, fmt.Errorf("%w: store %q has no supported connection", domain.ErrUnsupportedConnection, st.Name)
	}
	found, err := src.Discover(ctx, st)
	if err != nil {
		return result, err
	}

	for _, res := range found {
		res.Store = domain.RefTo(st)
		if err := p.catalog.Add(ctx, res); err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) && verr.Constraint == "unique" {
				result.Skipped = append(result.Skipped, res.Name)
				continue
			}
			return result, fmt.Errorf("publishing %s: %w", res.Name, err)
		}

		layer := p.factory.NewLayer()
		layer.Resource = domain.RefTo(res)
		if err := p.catalog.Add(ctx, layer); err != nil {
			return result, fmt.Errorf("publishing layer %s: %w", res.Name, err)
		}
		result.Published = append(result.Published, res.QualifiedName())
	}

	p.logger.Info("store published",
		"store", st.Name,
		"published", len(result.Published),
		"skipped", len(result.Skipped),
	)
	return result, nil
}

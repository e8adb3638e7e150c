package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jobrunner/geocat/internal/adapters/snapshot"
	"github.com/jobrunner/geocat/internal/adapters/storage"
	"github.com/jobrunner/geocat/internal/application"
	"github.com/jobrunner/geocat/internal/config"
	"github.com/jobrunner/geocat/internal/domain"
	"github.com/jobrunner/geocat/internal/ports/output"
	"github.com/jobrunner/geocat/internal/scope"
)

// CheckReport lists the problems found in a snapshot directory.
type CheckReport struct {
	Objects    map[string]int
	Unresolved []application.UnresolvedEntity
	Invalid    []InvalidEntity
}

// InvalidEntity is an entity that fails validation.
type InvalidEntity struct {
	Kind   string
	Name   string
	Errors []error
}

// Problems returns the number of entities that are unresolved or invalid.
func (r *CheckReport) Problems() int {
	return len(r.Unresolved) + len(r.Invalid)
}

// Write prints the report in a human readable form.
func (r *CheckReport) Write(w io.Writer) {
	total := 0
	for _, n := range r.Objects {
		total += n
	}
	fmt.Fprintf(w, "loaded %d objects\n", total)

	for _, u := range r.Unresolved {
		fmt.Fprintf(w, "unresolved %s %s: %s\n", u.Kind, entityLabel(u.ID, u.Name), strings.Join(u.References, ", "))
	}
	for _, inv := range r.Invalid {
		for _, err := range inv.Errors {
			fmt.Fprintf(w, "invalid %s %s: %v\n", inv.Kind, inv.Name, err)
		}
	}

	if r.Problems() == 0 {
		fmt.Fprintln(w, "ok")
		return
	}
	fmt.Fprintf(w, "%d unresolved, %d invalid\n", len(r.Unresolved), len(r.Invalid))
}

func entityLabel(id, name string) string {
	if name == "" {
		return id
	}
	return fmt.Sprintf("%s (%s)", name, id)
}

// Check loads the snapshot documents in dir into a fresh catalog, resolves
// them and validates every entity. A returned error means the documents could
// not be loaded at all.
func Check(ctx context.Context, dir, pattern string, cfg config.CatalogConfig, logger *slog.Logger) (*CheckReport, error) {
	c, err := NewCatalog(cfg, &output.NoOpMetrics{}, logger)
	if err != nil {
		return nil, err
	}
	loader := snapshot.NewLoader(storage.NewLocalStorage(dir), pattern, nil, logger)
	if err := c.Reload(ctx, loader.Load); err != nil {
		return nil, err
	}

	report := &CheckReport{
		Objects:    c.Counts(ctx),
		Unresolved: application.NewHealthService(c).GetUnresolved(ctx),
	}

	ictx := scope.Detach(ctx)
	for _, kind := range []domain.Kind{
		domain.KindWorkspace, domain.KindNamespace, domain.KindStore, domain.KindStyle,
		domain.KindResource, domain.KindLayer, domain.KindLayerGroup, domain.KindMap,
	} {
		it, err := c.List(ictx, kind, domain.Query{SortBy: []domain.SortBy{{Property: "id"}}})
		if err != nil {
			return nil, err
		}
		for it.Next() {
			info := it.Value().Unwrap()
			if res := c.Validate(ictx, info, false); !res.Valid() {
				report.Invalid = append(report.Invalid, InvalidEntity{
					Kind:   info.Kind().String(),
					Name:   entityLabel(domain.IDOf(info), domain.NameOf(info)),
					Errors: res.Errors,
				})
			}
		}
		_ = it.Close()
	}
	return report, nil
}

package decorator

import (
	"context"
	"fmt"
	"strings"

	"github.com/jobrunner/geocat/internal/domain"
	"github.com/jobrunner/geocat/internal/ports/output"
	"github.com/jobrunner/geocat/internal/scope"
)

// GroupPolicy decides whether a layer group with hidden members is listed.
type GroupPolicy int

// Group policies.
const (
	// HideNever lists the group with its visible members.
	HideNever GroupPolicy = iota
	// HideEmpty hides the group when no member is left.
	HideEmpty
	// HideIfAllHidden hides the group when every layer member is hidden.
	HideIfAllHidden
	// HideIfAnyHidden hides the group when at least one member is hidden.
	HideIfAnyHidden
)

var policyNames = map[GroupPolicy]string{
	HideNever:       "never",
	HideEmpty:       "empty",
	HideIfAllHidden: "all_hidden",
	HideIfAnyHidden: "any_hidden",
}

// String returns the policy name.
func (p GroupPolicy) String() string {
	if s, ok := policyNames[p]; ok {
		return s
	}
	return "unknown"
}

// ParseGroupPolicy returns the policy with the given name.
func ParseGroupPolicy(s string) (GroupPolicy, error) {
	for p, name := range policyNames {
		if strings.EqualFold(name, s) {
			return p, nil
		}
	}
	return HideNever, fmt.Errorf("unknown group policy %q", s)
}

// Advertised hides resources and layers that are not advertised while a
// capabilities listing is produced. Entities the request names directly stay
// visible. Layer groups are filtered member by member and then judged by the
// configured GroupPolicy.
type Advertised struct {
	filtered
	policy GroupPolicy
}

// NewAdvertised wraps inner with advertised filtering.
func NewAdvertised(inner output.Facade, policy GroupPolicy) *Advertised {
	d := &Advertised{policy: policy}
	d.filtered = filtered{Facade: inner, visible: d.visible, view: d.groupView}
	return d
}

func listing(ctx context.Context) *scope.Request {
	req := scope.FromContext(ctx)
	if req == nil || !req.Capabilities {
		return nil
	}
	return req
}

func (d *Advertised) visible(ctx context.Context, info domain.Info) bool {
	req := listing(ctx)
	if req == nil {
		return true
	}
	switch v := info.(type) {
	case *domain.Resource:
		return v.Advertised || req.Named(v.Name, v.QualifiedName())
	case *domain.Layer:
		return layerVisible(req, v)
	case *domain.LayerGroup:
		_, _, hidden := d.filterGroup(req, v, map[*domain.LayerGroup]bool{})
		return !hidden
	default:
		return true
	}
}

func layerVisible(req *scope.Request, l *domain.Layer) bool {
	return domain.LayerAdvertised(l) || req.Named(l.Name(), l.PrefixedName())
}

// filterGroup returns the visible entries of g with their parallel styles and
// whether the group as a whole is hidden.
func (d *Advertised) filterGroup(req *scope.Request, g *domain.LayerGroup, seen map[*domain.LayerGroup]bool) ([]domain.Ref[domain.Published], []domain.Ref[*domain.Style], bool) {
	if !g.Advertised && !req.Named(g.Name, g.PrefixedName()) {
		return nil, nil, true
	}
	if seen[g] {
		return g.Layers, g.Styles, false
	}
	seen[g] = true
	defer delete(seen, g)

	parallel := len(g.Styles) == len(g.Layers)
	var (
		layers  []domain.Ref[domain.Published]
		styles  []domain.Ref[*domain.Style]
		members int
		hidden  int
	)
	for i, entry := range g.Layers {
		show := true
		switch v := entry.Pointee().(type) {
		case *domain.Layer:
			members++
			show = layerVisible(req, v)
		case *domain.LayerGroup:
			members++
			_, _, h := d.filterGroup(req, v, seen)
			show = !h
		}
		if !show {
			hidden++
			continue
		}
		layers = append(layers, entry)
		if parallel {
			styles = append(styles, g.Styles[i])
		}
	}

	switch d.policy {
	case HideEmpty:
		return layers, styles, len(layers) == 0
	case HideIfAllHidden:
		return layers, styles, members > 0 && hidden == members
	case HideIfAnyHidden:
		return layers, styles, hidden > 0
	default:
		return layers, styles, false
	}
}

// groupView returns a read-only view of a group whose members were filtered.
func (d *Advertised) groupView(ctx context.Context, h domain.Handle) domain.Handle {
	req := listing(ctx)
	g, ok := h.Unwrap().(*domain.LayerGroup)
	if req == nil || !ok {
		return h
	}
	layers, styles, _ := d.filterGroup(req, g, map[*domain.LayerGroup]bool{})
	if len(layers) == len(g.Layers) {
		return h
	}
	p := domain.Wrap(g)
	domain.Set(p, domain.GroupLayers, layers)
	if len(g.Styles) == len(g.Layers) {
		domain.Set(p, domain.GroupStyles, styles)
	}
	return p.ReadOnly()
}

// Package scope carries the per-request catalog context: the local workspace of a
// virtual service, whether a capabilities listing is being served, and whether
// the caller already holds the catalog lock.
package scope

import "context"

type ctxKey int

const (
	requestKey ctxKey = iota
	lockKey
)

// Request describes an in-flight service request.
type Request struct {
	// LocalWorkspace is the workspace of a virtual service endpoint, or "".
	LocalWorkspace string
	// Capabilities is true while a capabilities-style listing is produced.
	Capabilities bool
	// Names holds resources the request names directly. They are listed even
	// when not advertised.
	Names []string
}

// Named reports whether the request names the given layer or resource directly.
// Both the local and the prefixed name are accepted.
func (r *Request) Named(names ...string) bool {
	for _, want := range r.Names {
		for _, n := range names {
			if n != "" && n == want {
				return true
			}
		}
	}
	return false
}

// WithRequest returns a context carrying req.
func WithRequest(ctx context.Context, req *Request) context.Context {
	return context.WithValue(ctx, requestKey, req)
}

// FromContext returns the request carried by ctx, or nil for administrative access.
func FromContext(ctx context.Context) *Request {
	req, _ := ctx.Value(requestKey).(*Request)
	return req
}

// LocalWorkspace returns the local workspace name of the request in ctx.
func LocalWorkspace(ctx context.Context) string {
	if req := FromContext(ctx); req != nil {
		return req.LocalWorkspace
	}
	return ""
}

// Detach returns a context without request scoping, keeping the lock marker.
// Internal integrity checks use it to see the whole catalog.
func Detach(ctx context.Context) context.Context {
	return context.WithValue(ctx, requestKey, (*Request)(nil))
}

// WithLock marks ctx as holding the catalog lock. exclusive is true for the write lock.
func WithLock(ctx context.Context, exclusive bool) context.Context {
	return context.WithValue(ctx, lockKey, lockState{held: true, exclusive: exclusive})
}

type lockState struct {
	held      bool
	exclusive bool
}

// LockHeld reports whether ctx holds the catalog lock and whether exclusively.
func LockHeld(ctx context.Context) (held, exclusive bool) {
	s, _ := ctx.Value(lockKey).(lockState)
	return s.held, s.exclusive
}

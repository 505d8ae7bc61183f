// Package remote defines the provider protocol for synchronizing
// commit history with archival backends, and the registry that
// resolves a remote's provider string to an implementation.
//
// Providers must uphold one ordering invariant: a commit listed on a
// remote always has complete, valid metadata. Implementations either
// stage and atomically publish, or write the metadata header last and
// verify the data after transfer.
package remote

import (
	"context"
	"io"
	"sync"

	"github.com/strata-data/strata/pkg/model"
)

// Provider is implemented once per backend kind. Backend-specific
// parameters travel opaquely in the remote's property map;
// ValidateParameters is the only place they are inspected.
type Provider interface {
	// Type is the provider string this implementation serves
	Type() string

	// ValidateParameters rejects malformed backend parameters with
	// InvalidArgument. Credential values are checked for presence
	// only, never interpreted.
	ValidateParameters(properties map[string]interface{}) error

	// ListCommits returns the remote's commit descriptors matching
	// the filters, most recent first.
	ListCommits(ctx context.Context, remote *model.Remote, filters []model.TagFilter) ([]model.Commit, error)

	// GetCommit fetches a single remote commit's metadata. Missing
	// commits surface status.ErrNotFound.
	GetCommit(ctx context.Context, remote *model.Remote, commitID string) (*model.Commit, error)

	// Push writes the commit's metadata and the opaque data stream to
	// the backend. The commit must not become listable until both are
	// durably stored.
	Push(ctx context.Context, remote *model.Remote, commit *model.Commit, data io.Reader, progress Sink) error

	// Pull fetches and validates the commit's metadata, then opens
	// the data stream. The returned reader fails before EOF if the
	// transfer cannot be verified, so callers can gate local
	// materialization on a clean read.
	Pull(ctx context.Context, remote *model.Remote, commitID string, progress Sink) (*model.Commit, io.ReadCloser, error)
}

// Registry resolves provider strings at call time. Backends register
// themselves; dispatch sites never enumerate kinds.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry builds an empty registry
func NewRegistry() *Registry {
	return &Registry{providers: map[string]Provider{}}
}

// Register adds or replaces the implementation for a provider string
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Type()] = p
}

// Get resolves a provider string, failing InvalidArgument on unknown
// kinds.
func (r *Registry) Get(kind string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[kind]
	if !ok {
		return nil, model.InvalidArgument("unknown provider '%s'", kind)
	}
	return p, nil
}

// Resolve looks up the provider for a remote configuration
func (r *Registry) Resolve(remote *model.Remote) (Provider, error) {
	return r.Get(remote.Provider)
}

// Types lists the registered provider strings
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.providers))
	for t := range r.providers {
		types = append(types, t)
	}
	return types
}

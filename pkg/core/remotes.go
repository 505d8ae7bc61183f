package core

import (
	"context"

	"github.com/strata-data/strata/pkg/model"
)

// CreateRemote registers a remote on the repository. The provider
// string must resolve to a registered backend and the backend gets to
// reject malformed parameters before anything is persisted.
func (e *Engine) CreateRemote(ctx context.Context, repository string, remote *model.Remote) error {
	provider, err := e.registry.Resolve(remote)
	if err != nil {
		return err
	}
	if err := provider.ValidateParameters(remote.Properties); err != nil {
		return err
	}
	return e.store.CreateRemote(ctx, repository, remote)
}

// GetRemote returns one remote by name
func (e *Engine) GetRemote(ctx context.Context, repository, name string) (*model.Remote, error) {
	return e.store.GetRemote(ctx, repository, name)
}

// ListRemotes returns the repository's remotes in creation order
func (e *Engine) ListRemotes(ctx context.Context, repository string) ([]model.Remote, error) {
	return e.store.ListRemotes(ctx, repository)
}

// DeleteRemote removes a remote configuration. Nothing on the backend
// is touched.
func (e *Engine) DeleteRemote(ctx context.Context, repository, name string) error {
	return e.store.DeleteRemote(ctx, repository, name)
}

// ListRemoteCommits lists the commits archived on a remote, newest
// first, filtered by the same tag expressions as local listing.
func (e *Engine) ListRemoteCommits(ctx context.Context, repository, remoteName string, filterExprs []string) ([]model.Commit, error) {
	filters, err := model.ParseTagFilters(filterExprs)
	if err != nil {
		return nil, err
	}
	rem, err := e.store.GetRemote(ctx, repository, remoteName)
	if err != nil {
		return nil, err
	}
	provider, err := e.registry.Resolve(rem)
	if err != nil {
		return nil, err
	}
	return provider.ListCommits(ctx, rem, filters)
}

// GetRemoteCommit fetches one commit's metadata from a remote
func (e *Engine) GetRemoteCommit(ctx context.Context, repository, remoteName, commitID string) (*model.Commit, error) {
	rem, err := e.store.GetRemote(ctx, repository, remoteName)
	if err != nil {
		return nil, err
	}
	provider, err := e.registry.Resolve(rem)
	if err != nil {
		return nil, err
	}
	return provider.GetCommit(ctx, rem, commitID)
}

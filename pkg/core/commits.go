package core

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/strata-data/strata/pkg/model"
)

// CreateCommit snapshots the repository's active volume set into a
// new commit. The driver snapshots first, one set-level call then one
// call per volume; the metadata record is persisted only after every
// driver call succeeded, so a failed snapshot never leaves a partial
// commit visible.
func (e *Engine) CreateCommit(ctx context.Context, repository string, commit *model.Commit) error {
	if err := model.ValidateCommitID(commit.ID); err != nil {
		return err
	}
	vs, err := e.store.GetActiveVolumeSet(ctx, repository)
	if err != nil {
		return err
	}
	if _, err := e.store.GetCommit(ctx, repository, commit.ID); err == nil {
		return model.CommitExists(repository, commit.ID)
	} else if !model.IsNoSuchObject(err) {
		return err
	}
	volumes, err := e.store.ListVolumes(ctx, repository, vs)
	if err != nil {
		return err
	}

	if err := e.driver.CommitVolumeSet(ctx, vs, commit.ID); err != nil {
		return model.DriverFailure("commit volume set", err)
	}
	grp, gctx := errgroup.WithContext(ctx)
	for _, volume := range volumes {
		volume := volume
		grp.Go(func() error {
			if err := e.driver.CommitVolume(gctx, vs, volume.Name, commit.ID, volume.Properties); err != nil {
				return model.DriverFailure("commit volume", err)
			}
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return err
	}

	if err := e.store.CreateCommit(ctx, repository, vs, commit); err != nil {
		return err
	}
	e.l.Info("commit created",
		zap.String("repository", repository),
		zap.String("commit", commit.ID),
		zap.String("volumeset", vs))
	return nil
}

// GetCommit returns one commit by id
func (e *Engine) GetCommit(ctx context.Context, repository, commitID string) (*model.Commit, error) {
	return e.store.GetCommit(ctx, repository, commitID)
}

// ListCommits returns the repository's commits matching the given tag
// filter expressions, newest first. Expressions take the REST query
// form "key" or "key=value" and are ANDed.
func (e *Engine) ListCommits(ctx context.Context, repository string, filterExprs []string) ([]model.Commit, error) {
	filters, err := model.ParseTagFilters(filterExprs)
	if err != nil {
		return nil, err
	}
	return e.store.ListCommits(ctx, repository, filters)
}

// UpdateCommit replaces a commit's property map, id unchanged
func (e *Engine) UpdateCommit(ctx context.Context, repository string, commit *model.Commit) error {
	return e.store.UpdateCommit(ctx, repository, commit)
}

// DeleteCommit removes the commit's metadata record. Reclaiming the
// physical snapshot is deferred to the driver's own garbage
// collection.
func (e *Engine) DeleteCommit(ctx context.Context, repository, commitID string) error {
	return e.store.DeleteCommit(ctx, repository, commitID)
}

// GetCommitStatus aggregates per-volume space accounting from the
// driver. Never cached: each call re-queries the driver.
func (e *Engine) GetCommitStatus(ctx context.Context, repository, commitID string) (*model.CommitStatus, error) {
	vs, err := e.store.GetCommitSource(ctx, repository, commitID)
	if err != nil {
		return nil, err
	}
	volumes, err := e.store.ListVolumes(ctx, repository, vs)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	total := &model.CommitStatus{Ready: true}
	grp, gctx := errgroup.WithContext(ctx)
	for _, volume := range volumes {
		volume := volume
		grp.Go(func() error {
			st, err := e.driver.GetCommitStatus(gctx, vs, volume.Name, commitID)
			if err != nil {
				return model.DriverFailure("get commit status", err)
			}
			mu.Lock()
			defer mu.Unlock()
			total.LogicalSize += st.LogicalSize
			total.ActualSize += st.ActualSize
			total.UniqueSize += st.UniqueSize
			if !st.Ready {
				total.Ready = false
			}
			if total.Error == "" {
				total.Error = st.Error
			}
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return total, nil
}

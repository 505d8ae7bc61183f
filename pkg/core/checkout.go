package core

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/strata-data/strata/pkg/core/status"
	"github.com/strata-data/strata/pkg/errors"
	metastatus "github.com/strata-data/strata/pkg/meta/status"
	"github.com/strata-data/strata/pkg/model"
)

// Checkout branches the repository from an existing commit. It clones
// the commit's volumes into a fresh volume set via the driver, then
// atomically swaps the active pointer to it. The previous active set
// is left intact for later resurrection or garbage collection.
//
// A concurrent checkout that moves the pointer first wins; the loser
// gets ErrCheckoutConflict and its cloned set is reaped. Returns the
// new active volume set id.
func (e *Engine) Checkout(ctx context.Context, repository, commitID string) (string, error) {
	if err := model.ValidateCommitID(commitID); err != nil {
		return "", err
	}
	oldVs, err := e.store.GetActiveVolumeSet(ctx, repository)
	if err != nil {
		return "", err
	}
	srcVs, err := e.store.GetCommitSource(ctx, repository, commitID)
	if err != nil {
		return "", err
	}

	newVs, err := e.store.CreateVolumeSet(ctx, repository, commitID, false)
	if err != nil {
		return "", err
	}
	if err := e.cloneVolumeSet(ctx, repository, srcVs, commitID, newVs); err != nil {
		e.reapVolumeSet(ctx, repository, newVs)
		return "", err
	}

	if err := e.store.ActivateVolumeSet(ctx, repository, oldVs, newVs); err != nil {
		e.reapVolumeSet(ctx, repository, newVs)
		if errors.Is(err, metastatus.ErrStalePointer) {
			return "", status.ErrCheckoutConflict.Wrap(err)
		}
		return "", err
	}
	e.l.Info("checkout complete",
		zap.String("repository", repository),
		zap.String("commit", commitID),
		zap.String("volumeset", newVs))
	return newVs, nil
}

// cloneVolumeSet drives the physical clone: one set-level call, then
// one call per volume. Mount paths reported by the driver are
// recorded on the new set's volume records.
func (e *Engine) cloneVolumeSet(ctx context.Context, repository, srcVs, commitID, newVs string) error {
	if err := e.driver.CloneVolumeSet(ctx, srcVs, commitID, newVs); err != nil {
		return model.DriverFailure("clone volume set", err)
	}
	volumes, err := e.store.ListVolumes(ctx, repository, newVs)
	if err != nil {
		return err
	}

	mounts := make([]map[string]string, len(volumes))
	grp, gctx := errgroup.WithContext(ctx)
	for i, volume := range volumes {
		i, volume := i, volume
		grp.Go(func() error {
			m, err := e.driver.CloneVolume(gctx, srcVs, commitID, newVs, volume.Name)
			if err != nil {
				return model.DriverFailure("clone volume", err)
			}
			mounts[i] = m
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return err
	}

	for i := range volumes {
		volume := volumes[i]
		if mountpoint, ok := mounts[i][volume.Name]; ok {
			volume.Mountpoint = mountpoint
		}
		if err := e.store.UpdateVolume(ctx, repository, newVs, &volume); err != nil {
			return err
		}
	}
	return nil
}

// reapVolumeSet tears down a clone that will never become active.
// Best effort on the driver side: a failure leaves a leak, reported
// and reconciled out of band.
func (e *Engine) reapVolumeSet(ctx context.Context, repository, vs string) {
	if err := e.driver.DeleteVolumeSet(ctx, vs); err != nil {
		e.l.Warn("failed to destroy volume set",
			zap.String("repository", repository),
			zap.String("volumeset", vs),
			zap.Error(err))
	}
	if err := e.store.DeleteVolumeSet(ctx, repository, vs); err != nil {
		e.l.Warn("failed to remove volume set metadata",
			zap.String("repository", repository),
			zap.String("volumeset", vs),
			zap.Error(err))
	}
}

// GarbageCollectVolumeSets destroys the repository's volume sets that
// are neither active nor referenced by any commit. Returns the reaped
// ids.
func (e *Engine) GarbageCollectVolumeSets(ctx context.Context, repository string) ([]string, error) {
	active, err := e.store.GetActiveVolumeSet(ctx, repository)
	if err != nil {
		return nil, err
	}
	sets, err := e.store.ListVolumeSets(ctx, repository)
	if err != nil {
		return nil, err
	}

	reaped := []string{}
	for _, vs := range sets {
		if vs.ID == active {
			continue
		}
		referenced, err := e.store.VolumeSetHasCommits(ctx, repository, vs.ID)
		if err != nil {
			return reaped, err
		}
		if referenced {
			continue
		}
		if err := e.driver.DeleteVolumeSet(ctx, vs.ID); err != nil {
			return reaped, model.DriverFailure("delete volume set", err)
		}
		if err := e.store.DeleteVolumeSet(ctx, repository, vs.ID); err != nil {
			return reaped, err
		}
		reaped = append(reaped, vs.ID)
	}
	if len(reaped) > 0 {
		e.l.Info("volume sets reaped",
			zap.String("repository", repository),
			zap.Int("count", len(reaped)))
	}
	return reaped, nil
}

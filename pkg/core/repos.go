package core

import (
	"context"

	"go.uber.org/zap"

	"github.com/strata-data/strata/pkg/core/status"
	"github.com/strata-data/strata/pkg/model"
)

// CreateRepository creates a repository with an empty active volume
// set.
func (e *Engine) CreateRepository(ctx context.Context, repo *model.Repository) error {
	if err := e.store.CreateRepository(ctx, repo); err != nil {
		return err
	}
	vs, err := e.store.CreateVolumeSet(ctx, repo.Name, "", true)
	if err != nil {
		return err
	}
	if err := e.driver.CreateVolumeSet(ctx, vs); err != nil {
		// undo the metadata so a failed create leaves nothing behind
		if derr := e.store.DeleteRepository(ctx, repo.Name); derr != nil {
			e.l.Warn("failed to roll back repository", zap.String("repository", repo.Name), zap.Error(derr))
		}
		return model.DriverFailure("create volume set", err)
	}
	e.l.Info("repository created", zap.String("repository", repo.Name), zap.String("volumeset", vs))
	return nil
}

// GetRepository returns one repository by name
func (e *Engine) GetRepository(ctx context.Context, name string) (*model.Repository, error) {
	return e.store.GetRepository(ctx, name)
}

// ListRepositories returns all repositories ordered by name
func (e *Engine) ListRepositories(ctx context.Context) ([]model.Repository, error) {
	return e.store.ListRepositories(ctx)
}

// UpdateRepository replaces a repository's property map
func (e *Engine) UpdateRepository(ctx context.Context, repo *model.Repository) error {
	return e.store.UpdateRepository(ctx, repo)
}

// DeleteRepository removes a repository and all its metadata. The
// physical volume sets are destroyed best effort; a failed driver
// call leaves a leak, not inconsistent metadata. Deletion is refused
// while transfers against the repository are running.
func (e *Engine) DeleteRepository(ctx context.Context, name string) error {
	if e.ops != nil && e.ops.HasRunning(name) {
		return status.ErrRepositoryBusy
	}
	sets, err := e.store.ListVolumeSets(ctx, name)
	if err != nil {
		return err
	}
	if err := e.store.DeleteRepository(ctx, name); err != nil {
		return err
	}
	for _, vs := range sets {
		if err := e.driver.DeleteVolumeSet(ctx, vs.ID); err != nil {
			e.l.Warn("failed to destroy volume set",
				zap.String("repository", name),
				zap.String("volumeset", vs.ID),
				zap.Error(err))
		}
	}
	e.l.Info("repository deleted", zap.String("repository", name))
	return nil
}

// CreateVolume adds a volume to the repository's active volume set.
// The driver reports the mount path, recorded on the volume.
func (e *Engine) CreateVolume(ctx context.Context, repository string, volume *model.Volume) error {
	if err := model.ValidateVolumeName(volume.Name); err != nil {
		return err
	}
	vs, err := e.store.GetActiveVolumeSet(ctx, repository)
	if err != nil {
		return err
	}
	if _, err := e.store.GetVolume(ctx, repository, vs, volume.Name); err == nil {
		return model.VolumeExists(repository, volume.Name)
	} else if !model.IsNoSuchObject(err) {
		return err
	}
	mountpoint, err := e.driver.CreateVolume(ctx, vs, volume.Name, volume.Properties)
	if err != nil {
		return model.DriverFailure("create volume", err)
	}
	volume.Mountpoint = mountpoint
	return e.store.CreateVolume(ctx, repository, vs, volume)
}

// GetVolume returns one volume of the active volume set
func (e *Engine) GetVolume(ctx context.Context, repository, name string) (*model.Volume, error) {
	vs, err := e.store.GetActiveVolumeSet(ctx, repository)
	if err != nil {
		return nil, err
	}
	return e.store.GetVolume(ctx, repository, vs, name)
}

// ListVolumes returns the volumes of the active volume set
func (e *Engine) ListVolumes(ctx context.Context, repository string) ([]model.Volume, error) {
	vs, err := e.store.GetActiveVolumeSet(ctx, repository)
	if err != nil {
		return nil, err
	}
	return e.store.ListVolumes(ctx, repository, vs)
}

// DeleteVolume removes a volume from the active volume set. The
// physical volume is destroyed best effort after the metadata commit.
func (e *Engine) DeleteVolume(ctx context.Context, repository, name string) error {
	vs, err := e.store.GetActiveVolumeSet(ctx, repository)
	if err != nil {
		return err
	}
	if err := e.store.DeleteVolume(ctx, repository, vs, name); err != nil {
		return err
	}
	if err := e.driver.DeleteVolume(ctx, vs, name); err != nil {
		e.l.Warn("failed to destroy volume",
			zap.String("repository", repository),
			zap.String("volumeset", vs),
			zap.String("volume", name),
			zap.Error(err))
	}
	return nil
}

// Package driver declares the capability interface of the external
// volume storage driver. The core calls it synchronously and treats
// its errors as opaque: they are wrapped into the DriverFailure
// taxonomy without inspection.
package driver

import (
	"context"
	"io"

	"github.com/strata-data/strata/pkg/model"
)

// VolumeDriver performs the physical volume operations behind
// commits and checkouts. Calls may be slow; callers must not hold a
// metadata transaction open across them.
type VolumeDriver interface {
	// Volume set lifecycle
	CreateVolumeSet(ctx context.Context, volumeSet string) error
	DeleteVolumeSet(ctx context.Context, volumeSet string) error

	// Volume lifecycle within a set. CreateVolume returns the mount
	// path for the new volume.
	CreateVolume(ctx context.Context, volumeSet, volume string, properties map[string]interface{}) (string, error)
	DeleteVolume(ctx context.Context, volumeSet, volume string) error

	// Snapshot a volume set into a commit: one set-level call, then
	// one call per volume.
	CommitVolumeSet(ctx context.Context, volumeSet, commitID string) error
	CommitVolume(ctx context.Context, volumeSet, volume, commitID string, properties map[string]interface{}) error

	// Clone a commit into a fresh volume set: one set-level call,
	// then one call per volume. CloneVolume returns a mapping of
	// volume name to mount path.
	CloneVolumeSet(ctx context.Context, sourceVolumeSet, commitID, newVolumeSet string) error
	CloneVolume(ctx context.Context, sourceVolumeSet, commitID, newVolumeSet, volume string) (map[string]string, error)

	// GetCommitStatus computes space accounting for one volume of a
	// commit. Never cached by the core.
	GetCommitStatus(ctx context.Context, volumeSet, volume, commitID string) (model.CommitStatus, error)

	// Data plane for remote transfers: an opaque byte stream for a
	// commit's volumes, produced and consumed only by the driver.
	ExportCommit(ctx context.Context, volumeSet, commitID string) (io.ReadCloser, error)
	ImportCommit(ctx context.Context, volumeSet, commitID string, data io.Reader) error
}

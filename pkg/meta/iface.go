// Package meta defines the transactional metadata store for
// repositories, volume sets, volumes, commits and remotes.
//
// Every mutation executes as a single atomic transaction: partial
// application is never observable, and the active-volume-set pointer
// of a repository moves only through CreateVolumeSet(makeActive) or
// ActivateVolumeSet. Reads see a consistent snapshot.
package meta

import (
	"context"

	"github.com/strata-data/strata/pkg/model"
)

// A Store manages versioning metadata in a transactional storage
// mechanism. Missing-entity conditions surface as
// model.NoSuchObjectError carrying the entity kind and key.
type Store interface {
	Init() error
	Close() error

	// Repositories
	CreateRepository(ctx context.Context, repo *model.Repository) error
	GetRepository(ctx context.Context, name string) (*model.Repository, error)
	ListRepositories(ctx context.Context) ([]model.Repository, error)
	UpdateRepository(ctx context.Context, repo *model.Repository) error
	DeleteRepository(ctx context.Context, name string) error

	// Volume sets. CreateVolumeSet returns the generated id; when
	// sourceCommit is set the new set inherits the volume records of
	// the commit's source set. ActivateVolumeSet is a compare-and-swap
	// on the active pointer and fails with status.ErrStalePointer when
	// the pointer no longer equals oldID.
	CreateVolumeSet(ctx context.Context, repository, sourceCommit string, makeActive bool) (string, error)
	GetVolumeSet(ctx context.Context, repository, id string) (*model.VolumeSet, error)
	ListVolumeSets(ctx context.Context, repository string) ([]model.VolumeSet, error)
	GetActiveVolumeSet(ctx context.Context, repository string) (string, error)
	ActivateVolumeSet(ctx context.Context, repository, oldID, newID string) error
	DeleteVolumeSet(ctx context.Context, repository, id string) error

	// Volumes within a volume set
	CreateVolume(ctx context.Context, repository, volumeSet string, volume *model.Volume) error
	GetVolume(ctx context.Context, repository, volumeSet, name string) (*model.Volume, error)
	ListVolumes(ctx context.Context, repository, volumeSet string) ([]model.Volume, error)
	UpdateVolume(ctx context.Context, repository, volumeSet string, volume *model.Volume) error
	DeleteVolume(ctx context.Context, repository, volumeSet, name string) error

	// Commits. Listing is ordered by descending creation time, ties
	// broken by insertion order. Filters are ANDed tag predicates.
	CreateCommit(ctx context.Context, repository, volumeSet string, commit *model.Commit) error
	GetCommit(ctx context.Context, repository, id string) (*model.Commit, error)
	GetCommitSource(ctx context.Context, repository, id string) (string, error)
	ListCommits(ctx context.Context, repository string, filters []model.TagFilter) ([]model.Commit, error)
	UpdateCommit(ctx context.Context, repository string, commit *model.Commit) error
	DeleteCommit(ctx context.Context, repository, id string) error
	VolumeSetHasCommits(ctx context.Context, repository, volumeSet string) (bool, error)

	// Remotes
	CreateRemote(ctx context.Context, repository string, remote *model.Remote) error
	GetRemote(ctx context.Context, repository, name string) (*model.Remote, error)
	ListRemotes(ctx context.Context, repository string) ([]model.Remote, error)
	DeleteRemote(ctx context.Context, repository, name string) error
}

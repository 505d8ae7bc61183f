package localdir

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-data/strata/pkg/driver"
	"github.com/strata-data/strata/pkg/errors"
)

func setupDriver(t *testing.T) (driver.VolumeDriver, string, func()) {
	td, err := os.MkdirTemp("", "strata-localdir")
	require.NoError(t, err)
	return New(afero.NewOsFs(), td), td, func() { _ = os.RemoveAll(td) }
}

func TestVolumeLifecycle(t *testing.T) {
	d, _, cleanup := setupDriver(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, d.CreateVolumeSet(ctx, "vs1"))
	mountpoint, err := d.CreateVolume(ctx, "vs1", "v0", nil)
	require.NoError(t, err)
	info, err := os.Stat(mountpoint)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	require.NoError(t, d.DeleteVolume(ctx, "vs1", "v0"))
	_, err = os.Stat(mountpoint)
	require.True(t, os.IsNotExist(err))

	require.NoError(t, d.DeleteVolumeSet(ctx, "vs1"))
}

func TestCommitAndClone(t *testing.T) {
	d, _, cleanup := setupDriver(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, d.CreateVolumeSet(ctx, "vs1"))
	mountpoint, err := d.CreateVolume(ctx, "vs1", "v0", nil)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(mountpoint, "file.txt"), []byte("payload"), 0600))

	require.NoError(t, d.CommitVolumeSet(ctx, "vs1", "hash"))
	require.NoError(t, d.CommitVolume(ctx, "vs1", "v0", "hash", nil))

	// mutating the live volume does not touch the snapshot
	require.NoError(t, os.WriteFile(filepath.Join(mountpoint, "file.txt"), []byte("changed"), 0600))

	require.NoError(t, d.CloneVolumeSet(ctx, "vs1", "hash", "vs2"))
	mounts, err := d.CloneVolume(ctx, "vs1", "hash", "vs2", "v0")
	require.NoError(t, err)
	clonePath, ok := mounts["v0"]
	require.True(t, ok)

	data, err := os.ReadFile(filepath.Join(clonePath, "file.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
}

func TestCloneUnknownCommit(t *testing.T) {
	d, _, cleanup := setupDriver(t)
	defer cleanup()

	err := d.CloneVolumeSet(context.Background(), "vs1", "missing", "vs2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCommitNotFound))
}

func TestGetCommitStatus(t *testing.T) {
	d, _, cleanup := setupDriver(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, d.CreateVolumeSet(ctx, "vs1"))
	mountpoint, err := d.CreateVolume(ctx, "vs1", "v0", nil)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(mountpoint, "a"), make([]byte, 100), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(mountpoint, "b"), make([]byte, 50), 0600))

	require.NoError(t, d.CommitVolumeSet(ctx, "vs1", "hash"))
	require.NoError(t, d.CommitVolume(ctx, "vs1", "v0", "hash", nil))

	status, err := d.GetCommitStatus(ctx, "vs1", "v0", "hash")
	require.NoError(t, err)
	assert.Equal(t, int64(150), status.LogicalSize)
	assert.Equal(t, int64(150), status.ActualSize)
	assert.Equal(t, int64(150), status.UniqueSize)
	assert.True(t, status.Ready)

	_, err = d.GetCommitStatus(ctx, "vs1", "v0", "missing")
	require.Error(t, err)
}

func TestExportImportRoundTrip(t *testing.T) {
	d, _, cleanup := setupDriver(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, d.CreateVolumeSet(ctx, "vs1"))
	mountpoint, err := d.CreateVolume(ctx, "vs1", "v0", nil)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(mountpoint, "nested"), 0700))
	require.NoError(t, os.WriteFile(filepath.Join(mountpoint, "nested", "file.txt"), []byte("payload"), 0600))
	require.NoError(t, d.CommitVolumeSet(ctx, "vs1", "hash"))
	require.NoError(t, d.CommitVolume(ctx, "vs1", "v0", "hash", nil))

	stream, err := d.ExportCommit(ctx, "vs1", "hash")
	require.NoError(t, err)
	archive, err := io.ReadAll(stream)
	require.NoError(t, err)
	require.NoError(t, stream.Close())
	require.NotEmpty(t, archive)

	// import into a fresh driver and clone from the imported commit
	other, _, cleanupOther := setupDriver(t)
	defer cleanupOther()
	require.NoError(t, other.CreateVolumeSet(ctx, "vs9"))
	require.NoError(t, other.ImportCommit(ctx, "vs9", "hash", bytes.NewReader(archive)))

	require.NoError(t, other.CloneVolumeSet(ctx, "vs9", "hash", "vs10"))
	mounts, err := other.CloneVolume(ctx, "vs9", "hash", "vs10", "v0")
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(mounts["v0"], "nested", "file.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
}

func TestExportUnknownCommit(t *testing.T) {
	d, _, cleanup := setupDriver(t)
	defer cleanup()

	_, err := d.ExportCommit(context.Background(), "vs1", "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCommitNotFound))
}

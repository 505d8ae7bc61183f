package core

import (
	"context"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/strata-data/strata/pkg/driver/mocks"
	"github.com/strata-data/strata/pkg/meta"
	"github.com/strata-data/strata/pkg/meta/bdgr"
	"github.com/strata-data/strata/pkg/model"
	"github.com/strata-data/strata/pkg/remote"
	"github.com/strata-data/strata/pkg/remote/localfs"
)

type fixture struct {
	engine *Engine
	store  meta.Store
	driver *mocks.VolumeDriver
}

func setup(t *testing.T, options ...Option) (*fixture, func()) {
	td, err := os.MkdirTemp("", "strata-core")
	require.NoError(t, err)

	st := bdgr.New(td)
	require.NoError(t, st.Init())

	registry := remote.NewRegistry()
	registry.Register(localfs.New(afero.NewOsFs()))

	drv := &mocks.VolumeDriver{}
	f := &fixture{
		engine: New(st, drv, registry, options...),
		store:  st,
		driver: drv,
	}
	return f, func() {
		_ = st.Close()
		_ = os.RemoveAll(td)
	}
}

// setupRepo creates repository "foo" with one volume "v0" mounted by
// the driver at /mnt/v0.
func setupRepo(t *testing.T, f *fixture) string {
	ctx := context.Background()
	f.driver.On("CreateVolumeSet", mock.Anything, mock.AnythingOfType("string")).Return(nil)
	require.NoError(t, f.engine.CreateRepository(ctx, &model.Repository{Name: "foo"}))

	f.driver.On("CreateVolume", mock.Anything, mock.AnythingOfType("string"), "v0", mock.Anything).
		Return("/mnt/v0", nil)
	require.NoError(t, f.engine.CreateVolume(ctx, "foo", &model.Volume{Name: "v0"}))

	vs, err := f.store.GetActiveVolumeSet(ctx, "foo")
	require.NoError(t, err)
	return vs
}

// setupCommit snapshots the active volume set as the given commit id
func setupCommit(t *testing.T, f *fixture, vs, commitID string, properties map[string]interface{}) {
	ctx := context.Background()
	f.driver.On("CommitVolumeSet", mock.Anything, vs, commitID).Return(nil)
	f.driver.On("CommitVolume", mock.Anything, vs, "v0", commitID, mock.Anything).Return(nil)
	require.NoError(t, f.engine.CreateCommit(ctx, "foo", &model.Commit{
		ID:         commitID,
		Properties: properties,
	}))
}

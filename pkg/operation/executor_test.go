package operation

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
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
	executor *Executor
	store    meta.Store
	driver   *mocks.VolumeDriver
	provider remote.Provider
	remote   *model.Remote
	vs       string
}

// setup builds an executor over a real metadata store, a mocked
// driver and a localfs remote. Repository "foo" holds commit "hash"
// on its active volume set.
func setup(t *testing.T) (*fixture, func()) {
	td, err := os.MkdirTemp("", "strata-operation")
	require.NoError(t, err)
	remoteDir, err := os.MkdirTemp("", "strata-operation-remote")
	require.NoError(t, err)

	st := bdgr.New(td)
	require.NoError(t, st.Init())

	ctx := context.Background()
	require.NoError(t, st.CreateRepository(ctx, &model.Repository{Name: "foo"}))
	vs, err := st.CreateVolumeSet(ctx, "foo", "", true)
	require.NoError(t, err)
	require.NoError(t, st.CreateCommit(ctx, "foo", vs, &model.Commit{
		ID:         "hash",
		Properties: map[string]interface{}{"a": "b"},
	}))

	rem := &model.Remote{
		Name:       "origin",
		Provider:   "localfs",
		Properties: map[string]interface{}{"path": remoteDir},
	}
	require.NoError(t, st.CreateRemote(ctx, "foo", rem))

	provider := localfs.New(afero.NewOsFs())
	registry := remote.NewRegistry()
	registry.Register(provider)

	drv := &mocks.VolumeDriver{}
	f := &fixture{
		executor: New(st, drv, registry, WithMaxRetries(0)),
		store:    st,
		driver:   drv,
		provider: provider,
		remote:   rem,
		vs:       vs,
	}
	return f, func() {
		_ = st.Close()
		_ = os.RemoveAll(td)
		_ = os.RemoveAll(remoteDir)
	}
}

func waitTerminal(t *testing.T, f *fixture, id string) *model.Operation {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	op, err := f.executor.Wait(ctx, "foo", id)
	require.NoError(t, err)
	return op
}

func TestPushComplete(t *testing.T) {
	f, cleanup := setup(t)
	defer cleanup()

	payload := []byte("volume data")
	f.driver.On("ExportCommit", mock.Anything, f.vs, "hash").
		Return(io.NopCloser(bytes.NewReader(payload)), nil)

	op, err := f.executor.StartPush(context.Background(), "foo", "origin", "hash")
	require.NoError(t, err)
	assert.Equal(t, model.OperationPush, op.Type)
	assert.Equal(t, model.OperationRunning, op.State)
	assert.Equal(t, "origin", op.Remote)
	assert.Equal(t, "hash", op.CommitID)

	done := waitTerminal(t, f, op.ID)
	assert.Equal(t, model.OperationComplete, done.State)

	commits, err := f.provider.ListCommits(context.Background(), f.remote, nil)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, "hash", commits[0].ID)
	assert.Equal(t, "b", commits[0].Properties["a"])

	entries, err := f.executor.GetProgress("foo", op.ID, 0)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, model.ProgressStart, entries[0].Type)
	assert.Equal(t, model.ProgressComplete, entries[len(entries)-1].Type)
	f.driver.AssertExpectations(t)
}

func TestPushUnknownCommit(t *testing.T) {
	f, cleanup := setup(t)
	defer cleanup()

	_, err := f.executor.StartPush(context.Background(), "foo", "origin", "missing")
	require.Error(t, err)
	assert.True(t, model.IsNoSuchObject(err))
	assert.Equal(t, "no such commit 'missing' in repository 'foo'", err.Error())
}

func TestPushUnknownRemote(t *testing.T) {
	f, cleanup := setup(t)
	defer cleanup()

	_, err := f.executor.StartPush(context.Background(), "foo", "nowhere", "hash")
	require.Error(t, err)
	assert.True(t, model.IsNoSuchObject(err))
}

func TestPushDuplicateFails(t *testing.T) {
	f, cleanup := setup(t)
	defer cleanup()

	f.driver.On("ExportCommit", mock.Anything, f.vs, "hash").
		Return(io.NopCloser(bytes.NewReader(nil)), nil)

	op, err := f.executor.StartPush(context.Background(), "foo", "origin", "hash")
	require.NoError(t, err)
	require.Equal(t, model.OperationComplete, waitTerminal(t, f, op.ID).State)

	op, err = f.executor.StartPush(context.Background(), "foo", "origin", "hash")
	require.NoError(t, err)
	done := waitTerminal(t, f, op.ID)
	assert.Equal(t, model.OperationFailed, done.State)

	entries, err := f.executor.GetProgress("foo", op.ID, 0)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	last := entries[len(entries)-1]
	assert.Equal(t, model.ProgressError, last.Type)
	assert.Contains(t, last.Message, "exists")
}

func TestPullMaterializesCommit(t *testing.T) {
	f, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	payload := []byte("archived bytes")
	require.NoError(t, f.provider.Push(ctx, f.remote, &model.Commit{
		ID:         "hash2",
		Properties: map[string]interface{}{"c": "d"},
	}, bytes.NewReader(payload), remote.NopSink()))

	var imported []byte
	f.driver.On("ImportCommit", mock.Anything, f.vs, "hash2", mock.Anything).
		Run(func(args mock.Arguments) {
			imported, _ = io.ReadAll(args.Get(3).(io.Reader))
		}).
		Return(nil)

	op, err := f.executor.StartPull(ctx, "foo", "origin", "hash2")
	require.NoError(t, err)
	assert.Equal(t, model.OperationPull, op.Type)
	done := waitTerminal(t, f, op.ID)
	require.Equal(t, model.OperationComplete, done.State)

	assert.Equal(t, payload, imported)
	got, err := f.store.GetCommit(ctx, "foo", "hash2")
	require.NoError(t, err)
	assert.Equal(t, "d", got.Properties["c"])
	f.driver.AssertExpectations(t)
}

func TestPullExistingCommit(t *testing.T) {
	f, cleanup := setup(t)
	defer cleanup()

	_, err := f.executor.StartPull(context.Background(), "foo", "origin", "hash")
	require.Error(t, err)
	assert.True(t, model.IsAlreadyExists(err))
}

func TestPullUnknownRemoteCommit(t *testing.T) {
	f, cleanup := setup(t)
	defer cleanup()

	op, err := f.executor.StartPull(context.Background(), "foo", "origin", "missing")
	require.NoError(t, err)
	done := waitTerminal(t, f, op.ID)
	assert.Equal(t, model.OperationFailed, done.State)
}

func TestAbort(t *testing.T) {
	f, cleanup := setup(t)
	defer cleanup()

	// the export blocks until the operation context is cancelled
	f.driver.On("ExportCommit", mock.Anything, f.vs, "hash").
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.Canceled)

	op, err := f.executor.StartPush(context.Background(), "foo", "origin", "hash")
	require.NoError(t, err)
	assert.True(t, f.executor.HasRunning("foo"))

	require.NoError(t, f.executor.Abort("foo", op.ID))
	done := waitTerminal(t, f, op.ID)
	assert.Equal(t, model.OperationAborted, done.State)
	assert.False(t, f.executor.HasRunning("foo"))

	entries, err := f.executor.GetProgress("foo", op.ID, 0)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, model.ProgressAbort, entries[len(entries)-1].Type)

	// aborting a finished operation is a no-op
	require.NoError(t, f.executor.Abort("foo", op.ID))
	assert.Equal(t, model.OperationAborted, waitTerminal(t, f, op.ID).State)
}

func TestListOperations(t *testing.T) {
	f, cleanup := setup(t)
	defer cleanup()

	assert.Empty(t, f.executor.ListOperations("foo"))

	f.driver.On("ExportCommit", mock.Anything, f.vs, "hash").
		Return(io.NopCloser(bytes.NewReader(nil)), nil)

	first, err := f.executor.StartPush(context.Background(), "foo", "origin", "hash")
	require.NoError(t, err)
	waitTerminal(t, f, first.ID)
	second, err := f.executor.StartPush(context.Background(), "foo", "origin", "hash")
	require.NoError(t, err)
	waitTerminal(t, f, second.ID)

	ops := f.executor.ListOperations("foo")
	require.Len(t, ops, 2)
	assert.Equal(t, second.ID, ops[0].ID)
	assert.Equal(t, first.ID, ops[1].ID)

	// operations are scoped to their repository
	assert.Empty(t, f.executor.ListOperations("bar"))
	_, err = f.executor.GetOperation("bar", first.ID)
	require.Error(t, err)
	assert.True(t, model.IsNoSuchObject(err))
}

func TestProgressSince(t *testing.T) {
	f, cleanup := setup(t)
	defer cleanup()

	f.driver.On("ExportCommit", mock.Anything, f.vs, "hash").
		Return(io.NopCloser(bytes.NewReader([]byte("data"))), nil)

	op, err := f.executor.StartPush(context.Background(), "foo", "origin", "hash")
	require.NoError(t, err)
	waitTerminal(t, f, op.ID)

	all, err := f.executor.GetProgress("foo", op.ID, 0)
	require.NoError(t, err)
	require.NotEmpty(t, all)
	for i, entry := range all {
		assert.Equal(t, i+1, entry.ID)
	}

	tail, err := f.executor.GetProgress("foo", op.ID, all[len(all)-1].ID-1)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, model.ProgressComplete, tail[0].Type)
}

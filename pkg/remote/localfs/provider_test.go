package localfs

import (
	"bytes"
	"context"
	"io"
	"os"
	"path"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-data/strata/pkg/errors"
	"github.com/strata-data/strata/pkg/model"
	"github.com/strata-data/strata/pkg/remote"
	"github.com/strata-data/strata/pkg/remote/status"
)

func setupProvider(t *testing.T) (remote.Provider, *model.Remote, func()) {
	td, err := os.MkdirTemp("", "strata-localfs")
	require.NoError(t, err)

	p := New(afero.NewOsFs())
	r := &model.Remote{
		Name:       "origin",
		Provider:   "localfs",
		Properties: map[string]interface{}{"path": td},
	}
	return p, r, func() { _ = os.RemoveAll(td) }
}

func TestValidateParameters(t *testing.T) {
	p := New(nil)

	require.NoError(t, p.ValidateParameters(map[string]interface{}{"path": "/backups"}))

	err := p.ValidateParameters(map[string]interface{}{})
	require.Error(t, err)
	assert.True(t, model.IsInvalidArgument(err))

	err = p.ValidateParameters(map[string]interface{}{"path": "relative/dir"})
	require.Error(t, err)
	assert.True(t, model.IsInvalidArgument(err))
}

func TestPushThenList(t *testing.T) {
	p, r, cleanup := setupProvider(t)
	defer cleanup()
	ctx := context.Background()

	commit := &model.Commit{
		ID:         "hash",
		Properties: map[string]interface{}{"a": "b", "timestamp": "2019-09-20T13:45:38Z"},
	}
	err := p.Push(ctx, r, commit, bytes.NewReader([]byte("volume data")), remote.NopSink())
	require.NoError(t, err)

	commits, err := p.ListCommits(ctx, r, nil)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, "hash", commits[0].ID)
	assert.Equal(t, "b", commits[0].Properties["a"])
}

func TestPushDuplicate(t *testing.T) {
	p, r, cleanup := setupProvider(t)
	defer cleanup()
	ctx := context.Background()

	commit := &model.Commit{ID: "hash"}
	require.NoError(t, p.Push(ctx, r, commit, bytes.NewReader(nil), remote.NopSink()))
	err := p.Push(ctx, r, commit, bytes.NewReader(nil), remote.NopSink())
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrExists))
}

func TestPullRoundTrip(t *testing.T) {
	p, r, cleanup := setupProvider(t)
	defer cleanup()
	ctx := context.Background()

	payload := []byte("opaque driver bytes")
	commit := &model.Commit{ID: "hash", Properties: map[string]interface{}{"a": "b"}}
	require.NoError(t, p.Push(ctx, r, commit, bytes.NewReader(payload), remote.NopSink()))

	got, data, err := p.Pull(ctx, r, "hash", remote.NopSink())
	require.NoError(t, err)
	defer data.Close()
	assert.Equal(t, "hash", got.ID)
	assert.Equal(t, "b", got.Properties["a"])

	read, err := io.ReadAll(data)
	require.NoError(t, err)
	assert.Equal(t, payload, read)
}

func TestPullNotFound(t *testing.T) {
	p, r, cleanup := setupProvider(t)
	defer cleanup()

	_, _, err := p.Pull(context.Background(), r, "missing", remote.NopSink())
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrNotFound))

	_, err = p.GetCommit(context.Background(), r, "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrNotFound))
}

func TestPullTruncatedData(t *testing.T) {
	p, r, cleanup := setupProvider(t)
	defer cleanup()
	ctx := context.Background()

	commit := &model.Commit{ID: "hash"}
	require.NoError(t, p.Push(ctx, r, commit, bytes.NewReader([]byte("full payload")), remote.NopSink()))

	// corrupt the stored data after publish
	root := r.Properties["path"].(string)
	require.NoError(t, os.WriteFile(path.Join(root, "hash", "data"), []byte("short"), 0600))

	_, data, err := p.Pull(ctx, r, "hash", remote.NopSink())
	require.NoError(t, err)
	defer data.Close()
	_, err = io.ReadAll(data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrVerification))
}

func TestListSkipsHalfWritten(t *testing.T) {
	p, r, cleanup := setupProvider(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, p.Push(ctx, r, &model.Commit{ID: "good"}, bytes.NewReader(nil), remote.NopSink()))

	// a directory without a metadata header must not be listed
	root := r.Properties["path"].(string)
	require.NoError(t, os.MkdirAll(path.Join(root, "partial"), 0700))

	commits, err := p.ListCommits(ctx, r, nil)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, "good", commits[0].ID)
}

func TestListFilters(t *testing.T) {
	p, r, cleanup := setupProvider(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, p.Push(ctx, r, &model.Commit{
		ID:         "hash1",
		Properties: map[string]interface{}{"tags": map[string]string{"a": "b"}},
	}, bytes.NewReader(nil), remote.NopSink()))
	require.NoError(t, p.Push(ctx, r, &model.Commit{
		ID:         "hash2",
		Properties: map[string]interface{}{"tags": map[string]string{"c": "d"}},
	}, bytes.NewReader(nil), remote.NopSink()))

	filters, err := model.ParseTagFilters([]string{"a=b"})
	require.NoError(t, err)
	commits, err := p.ListCommits(ctx, r, filters)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, "hash1", commits[0].ID)
}

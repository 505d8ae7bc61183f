package bdgr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-data/strata/pkg/model"
)

func TestCreateAndGetCommit(t *testing.T) {
	st, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	vs := setupRepo(t, st)

	err := st.CreateCommit(ctx, "foo", vs, &model.Commit{
		ID:         "hash",
		Properties: map[string]interface{}{"a": "b"},
	})
	require.NoError(t, err)

	commit, err := st.GetCommit(ctx, "foo", "hash")
	require.NoError(t, err)
	assert.Equal(t, "hash", commit.ID)
	assert.Equal(t, "b", commit.Properties["a"])

	source, err := st.GetCommitSource(ctx, "foo", "hash")
	require.NoError(t, err)
	assert.Equal(t, vs, source)
}

func TestCreateCommitDuplicate(t *testing.T) {
	st, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	vs := setupRepo(t, st)

	require.NoError(t, st.CreateCommit(ctx, "foo", vs, &model.Commit{ID: "hash"}))
	err := st.CreateCommit(ctx, "foo", vs, &model.Commit{ID: "hash"})
	require.Error(t, err)
	assert.True(t, model.IsAlreadyExists(err))
}

func TestCreateCommitInvalidID(t *testing.T) {
	st, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	vs := setupRepo(t, st)

	err := st.CreateCommit(ctx, "foo", vs, &model.Commit{ID: "bad@hash"})
	require.Error(t, err)
	assert.True(t, model.IsInvalidArgument(err))
	assert.Contains(t, err.Error(), "invalid commit id")
}

func TestCommitNoSuchRepository(t *testing.T) {
	st, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()

	_, err := st.GetCommit(ctx, "bar", "hash")
	require.Error(t, err)
	assert.Equal(t, "no such repository 'bar'", err.Error())

	err = st.DeleteCommit(ctx, "bar", "hash")
	require.Error(t, err)
	assert.Equal(t, "no such repository 'bar'", err.Error())
}

func TestGetCommitNotFound(t *testing.T) {
	st, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	setupRepo(t, st)

	_, err := st.GetCommit(ctx, "foo", "hash")
	require.Error(t, err)
	assert.True(t, model.IsNoSuchObject(err))
	assert.Equal(t, "no such commit 'hash' in repository 'foo'", err.Error())
}

func TestUpdateCommitReplacesProperties(t *testing.T) {
	st, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	vs := setupRepo(t, st)

	require.NoError(t, st.CreateCommit(ctx, "foo", vs, &model.Commit{
		ID:         "hash",
		Properties: map[string]interface{}{"a": "b"},
	}))
	require.NoError(t, st.UpdateCommit(ctx, "foo", &model.Commit{
		ID:         "hash",
		Properties: map[string]interface{}{"c": "d"},
	}))

	commit, err := st.GetCommit(ctx, "foo", "hash")
	require.NoError(t, err)
	assert.Equal(t, "hash", commit.ID)
	assert.Equal(t, "d", commit.Properties["c"])
	assert.NotContains(t, commit.Properties, "a")

	source, err := st.GetCommitSource(ctx, "foo", "hash")
	require.NoError(t, err)
	assert.Equal(t, vs, source)
}

func TestDeleteCommit(t *testing.T) {
	st, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	vs := setupRepo(t, st)

	require.NoError(t, st.CreateCommit(ctx, "foo", vs, &model.Commit{ID: "hash"}))
	require.NoError(t, st.DeleteCommit(ctx, "foo", "hash"))

	_, err := st.GetCommit(ctx, "foo", "hash")
	require.Error(t, err)
	assert.Equal(t, "no such commit 'hash' in repository 'foo'", err.Error())

	err = st.DeleteCommit(ctx, "foo", "hash")
	require.Error(t, err)
	assert.True(t, model.IsNoSuchObject(err))
}

func TestListCommitsOrdering(t *testing.T) {
	st, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	vs := setupRepo(t, st)

	require.NoError(t, st.CreateCommit(ctx, "foo", vs, &model.Commit{
		ID:         "older",
		Properties: map[string]interface{}{"timestamp": "2019-09-20T13:45:37Z"},
	}))
	require.NoError(t, st.CreateCommit(ctx, "foo", vs, &model.Commit{
		ID:         "newer",
		Properties: map[string]interface{}{"timestamp": "2019-09-20T13:45:38Z"},
	}))

	commits, err := st.ListCommits(ctx, "foo", nil)
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, "newer", commits[0].ID)
	assert.Equal(t, "older", commits[1].ID)
}

func TestListCommitsTieBreak(t *testing.T) {
	st, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	vs := setupRepo(t, st)

	// identical timestamps: insertion order decides
	for _, id := range []string{"first", "second", "third"} {
		require.NoError(t, st.CreateCommit(ctx, "foo", vs, &model.Commit{
			ID:         id,
			Properties: map[string]interface{}{"timestamp": "2019-09-20T13:45:38Z"},
		}))
	}

	commits, err := st.ListCommits(ctx, "foo", nil)
	require.NoError(t, err)
	require.Len(t, commits, 3)
	assert.Equal(t, "first", commits[0].ID)
	assert.Equal(t, "second", commits[1].ID)
	assert.Equal(t, "third", commits[2].ID)
}

func TestListCommitsFilters(t *testing.T) {
	st, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()
	vs := setupRepo(t, st)

	require.NoError(t, st.CreateCommit(ctx, "foo", vs, &model.Commit{
		ID:         "hash1",
		Properties: map[string]interface{}{"tags": map[string]string{"a": "b", "c": "d"}},
	}))
	require.NoError(t, st.CreateCommit(ctx, "foo", vs, &model.Commit{
		ID:         "hash2",
		Properties: map[string]interface{}{"tags": map[string]string{"c": "d"}},
	}))

	filters, err := model.ParseTagFilters([]string{"a=b"})
	require.NoError(t, err)
	commits, err := st.ListCommits(ctx, "foo", filters)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, "hash1", commits[0].ID)

	filters, err = model.ParseTagFilters([]string{"a"})
	require.NoError(t, err)
	commits, err = st.ListCommits(ctx, "foo", filters)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, "hash1", commits[0].ID)

	filters, err = model.ParseTagFilters([]string{"a=b", "c=d"})
	require.NoError(t, err)
	commits, err = st.ListCommits(ctx, "foo", filters)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, "hash1", commits[0].ID)
}

func TestListCommitsEmpty(t *testing.T) {
	st, cleanup := setupStore(t)
	defer cleanup()
	setupRepo(t, st)

	commits, err := st.ListCommits(context.Background(), "foo", nil)
	require.NoError(t, err)
	assert.Empty(t, commits)
	assert.NotNil(t, commits)
}

package bdgr

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/strata-data/strata/pkg/meta"
	"github.com/strata-data/strata/pkg/model"
)

func setupStore(t *testing.T) (meta.Store, func()) {
	td, err := os.MkdirTemp("", "strata-meta")
	require.NoError(t, err)

	st := New(td)
	require.NoError(t, st.Init())

	return st, func() {
		_ = st.Close()
		_ = os.RemoveAll(td)
	}
}

// setupRepo creates repository "foo" with an empty active volume set
// and returns the volume set id.
func setupRepo(t *testing.T, st meta.Store) string {
	ctx := context.Background()
	require.NoError(t, st.CreateRepository(ctx, &model.Repository{Name: "foo"}))
	vs, err := st.CreateVolumeSet(ctx, "foo", "", true)
	require.NoError(t, err)
	return vs
}

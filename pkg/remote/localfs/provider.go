// Package localfs implements the remote provider protocol against a
// local directory. It doubles as the test fixture for the transfer
// machinery and as a cheap archival target for single-host setups.
//
// Commits are published atomically: metadata and data are written
// under a staging prefix and renamed into place, so a listed commit
// always has a complete metadata header.
package localfs

import (
	"context"
	"io"
	"os"
	"path"

	"github.com/spf13/afero"

	"github.com/strata-data/strata/pkg/model"
	"github.com/strata-data/strata/pkg/remote"
	"github.com/strata-data/strata/pkg/remote/status"
)

const (
	providerType = "localfs"

	metadataName = "metadata.json"
	dataName     = "data"
	stageName    = ".staging"
)

// New creates a localfs provider over the given filesystem; nil uses
// the OS filesystem.
func New(fs afero.Fs) remote.Provider {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &localFS{fs: fs}
}

type localFS struct {
	fs afero.Fs
}

func (l *localFS) Type() string { return providerType }

func (l *localFS) ValidateParameters(properties map[string]interface{}) error {
	root, ok := properties["path"].(string)
	if !ok || root == "" {
		return model.InvalidArgument("localfs remote requires a 'path' parameter")
	}
	if !path.IsAbs(root) {
		return model.InvalidArgument("localfs remote path '%s' must be absolute", root)
	}
	return nil
}

func (l *localFS) root(r *model.Remote) string {
	root, _ := r.Properties["path"].(string)
	return root
}

func (l *localFS) ListCommits(ctx context.Context, r *model.Remote, filters []model.TagFilter) ([]model.Commit, error) {
	root := l.root(r)
	entries, err := afero.ReadDir(l.fs, root)
	if os.IsNotExist(err) {
		return []model.Commit{}, nil
	}
	if err != nil {
		return nil, err
	}
	commits := []model.Commit{}
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == stageName {
			continue
		}
		desc, err := l.readDescriptor(root, entry.Name())
		if err != nil {
			// half-written or foreign directory, not a listable commit
			continue
		}
		commit := desc.Commit()
		if model.MatchTags(commit, filters) {
			commits = append(commits, *commit)
		}
	}
	remote.SortCommits(commits)
	return commits, nil
}

func (l *localFS) readDescriptor(root, id string) (*remote.Descriptor, error) {
	data, err := afero.ReadFile(l.fs, path.Join(root, id, metadataName))
	if err != nil {
		return nil, err
	}
	return remote.DecodeDescriptor(data)
}

func (l *localFS) GetCommit(ctx context.Context, r *model.Remote, commitID string) (*model.Commit, error) {
	desc, err := l.readDescriptor(l.root(r), commitID)
	if os.IsNotExist(err) {
		return nil, status.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return desc.Commit(), nil
}

func (l *localFS) Push(ctx context.Context, r *model.Remote, commit *model.Commit, data io.Reader, progress Sink) error {
	root := l.root(r)
	final := path.Join(root, commit.ID)
	exists, err := afero.DirExists(l.fs, final)
	if err != nil {
		return err
	}
	if exists {
		return status.ErrExists
	}

	stage := path.Join(root, stageName, commit.ID)
	if err := l.fs.MkdirAll(stage, 0700); err != nil {
		return err
	}
	defer func() {
		_ = l.fs.RemoveAll(stage)
	}()

	progress.Message("writing data stream")
	f, err := l.fs.OpenFile(path.Join(stage, dataName), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	size, err := io.Copy(f, data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	desc := &remote.Descriptor{ID: commit.ID, Properties: commit.Properties, Size: size}
	encoded, err := remote.EncodeDescriptor(desc)
	if err != nil {
		return err
	}
	if err := afero.WriteFile(l.fs, path.Join(stage, metadataName), encoded, 0600); err != nil {
		return err
	}

	// publish: the rename makes metadata and data visible together
	progress.Message("publishing commit")
	return l.fs.Rename(stage, final)
}

func (l *localFS) Pull(ctx context.Context, r *model.Remote, commitID string, progress Sink) (*model.Commit, io.ReadCloser, error) {
	root := l.root(r)
	desc, err := l.readDescriptor(root, commitID)
	if os.IsNotExist(err) {
		return nil, nil, status.ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	progress.Message("reading data stream")
	f, err := l.fs.Open(path.Join(root, commitID, dataName))
	if err != nil {
		return nil, nil, err
	}
	rd := remote.NewVerifiedReader(f, desc.Size)
	return desc.Commit(), readCloser{Reader: remote.NewProgressReader(rd, desc.Size, progress), closer: rd}, nil
}

// Sink aliases the provider progress sink for package users
type Sink = remote.Sink

type readCloser struct {
	io.Reader
	closer io.Closer
}

func (r readCloser) Close() error { return r.closer.Close() }

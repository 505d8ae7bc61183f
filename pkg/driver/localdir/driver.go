// Package localdir implements the volume driver over a plain
// directory tree, for single host use and for exercising the full
// stack without a copy-on-write storage backend.
//
// Layout under the base directory:
//
//	sets/<volumeset>/<volume>/...    live volume data
//	commits/<commit>/<volume>/...    snapshotted volume data
//
// Snapshots are full copies, so every commit is self contained and
// sizes report no sharing between commits.
package localdir

import (
	"archive/tar"
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/strata-data/strata/pkg/driver"
	"github.com/strata-data/strata/pkg/errors"
	"github.com/strata-data/strata/pkg/model"
)

const (
	setsDir    = "sets"
	commitsDir = "commits"
)

// ErrCommitNotFound indicates a data plane request for a commit the
// driver never snapshotted or imported
var ErrCommitNotFound = errors.New("commit data not found")

// New creates a localdir driver rooted at baseDir; a nil fs uses the
// OS filesystem.
func New(fs afero.Fs, baseDir string) driver.VolumeDriver {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &localDir{fs: fs, baseDir: baseDir}
}

type localDir struct {
	fs      afero.Fs
	baseDir string
}

func (l *localDir) setPath(volumeSet string) string {
	return filepath.Join(l.baseDir, setsDir, volumeSet)
}

func (l *localDir) commitPath(commitID string) string {
	return filepath.Join(l.baseDir, commitsDir, commitID)
}

func (l *localDir) CreateVolumeSet(ctx context.Context, volumeSet string) error {
	return l.fs.MkdirAll(l.setPath(volumeSet), 0700)
}

func (l *localDir) DeleteVolumeSet(ctx context.Context, volumeSet string) error {
	return l.fs.RemoveAll(l.setPath(volumeSet))
}

func (l *localDir) CreateVolume(ctx context.Context, volumeSet, volume string, properties map[string]interface{}) (string, error) {
	mountpoint := filepath.Join(l.setPath(volumeSet), volume)
	if err := l.fs.MkdirAll(mountpoint, 0700); err != nil {
		return "", err
	}
	return mountpoint, nil
}

func (l *localDir) DeleteVolume(ctx context.Context, volumeSet, volume string) error {
	return l.fs.RemoveAll(filepath.Join(l.setPath(volumeSet), volume))
}

func (l *localDir) CommitVolumeSet(ctx context.Context, volumeSet, commitID string) error {
	return l.fs.MkdirAll(l.commitPath(commitID), 0700)
}

func (l *localDir) CommitVolume(ctx context.Context, volumeSet, volume, commitID string, properties map[string]interface{}) error {
	src := filepath.Join(l.setPath(volumeSet), volume)
	dst := filepath.Join(l.commitPath(commitID), volume)
	return l.copyTree(src, dst)
}

func (l *localDir) CloneVolumeSet(ctx context.Context, sourceVolumeSet, commitID, newVolumeSet string) error {
	if exists, err := afero.DirExists(l.fs, l.commitPath(commitID)); err != nil {
		return err
	} else if !exists {
		return ErrCommitNotFound
	}
	return l.fs.MkdirAll(l.setPath(newVolumeSet), 0700)
}

func (l *localDir) CloneVolume(ctx context.Context, sourceVolumeSet, commitID, newVolumeSet, volume string) (map[string]string, error) {
	src := filepath.Join(l.commitPath(commitID), volume)
	dst := filepath.Join(l.setPath(newVolumeSet), volume)
	if err := l.copyTree(src, dst); err != nil {
		return nil, err
	}
	return map[string]string{volume: dst}, nil
}

func (l *localDir) GetCommitStatus(ctx context.Context, volumeSet, volume, commitID string) (model.CommitStatus, error) {
	root := filepath.Join(l.commitPath(commitID), volume)
	if exists, err := afero.DirExists(l.fs, root); err != nil {
		return model.CommitStatus{}, err
	} else if !exists {
		return model.CommitStatus{}, ErrCommitNotFound
	}

	var size int64
	err := afero.Walk(l.fs, root, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	if err != nil {
		return model.CommitStatus{}, err
	}
	// full copies: nothing is shared, everything is unique
	return model.CommitStatus{
		LogicalSize: size,
		ActualSize:  size,
		UniqueSize:  size,
		Ready:       true,
	}, nil
}

// ExportCommit streams the commit's snapshot directory as a tar
// archive. Entries are named relative to the commit directory.
func (l *localDir) ExportCommit(ctx context.Context, volumeSet, commitID string) (io.ReadCloser, error) {
	root := l.commitPath(commitID)
	if exists, err := afero.DirExists(l.fs, root); err != nil {
		return nil, err
	} else if !exists {
		return nil, ErrCommitNotFound
	}

	pr, pw := io.Pipe()
	go func() {
		tw := tar.NewWriter(pw)
		err := afero.Walk(l.fs, root, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			if rel == "." {
				return nil
			}
			hdr, err := tar.FileInfoHeader(info, "")
			if err != nil {
				return err
			}
			hdr.Name = filepath.ToSlash(rel)
			if err := tw.WriteHeader(hdr); err != nil {
				return err
			}
			if info.IsDir() {
				return nil
			}
			f, err := l.fs.Open(p)
			if err != nil {
				return err
			}
			_, err = io.Copy(tw, f)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			return err
		})
		if err == nil {
			err = tw.Close()
		}
		pw.CloseWithError(err)
	}()
	return pr, nil
}

// ImportCommit materializes a tar data stream as the commit's
// snapshot directory.
func (l *localDir) ImportCommit(ctx context.Context, volumeSet, commitID string, data io.Reader) error {
	root := l.commitPath(commitID)
	if err := l.fs.MkdirAll(root, 0700); err != nil {
		return err
	}

	tr := tar.NewReader(data)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		name := path.Clean(hdr.Name)
		if name == ".." || strings.HasPrefix(name, "../") || path.IsAbs(name) {
			return errors.New("tar entry escapes the commit directory")
		}
		target := filepath.Join(root, filepath.FromSlash(name))
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := l.fs.MkdirAll(target, 0700); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := l.fs.MkdirAll(filepath.Dir(target), 0700); err != nil {
				return err
			}
			f, err := l.fs.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
			if err != nil {
				return err
			}
			_, err = io.Copy(f, tr)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
		}
	}
}

func (l *localDir) copyTree(src, dst string) error {
	return afero.Walk(l.fs, src, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return l.fs.MkdirAll(target, 0700)
		}
		in, err := l.fs.Open(p)
		if err != nil {
			return err
		}
		defer in.Close()
		out, err := l.fs.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return err
		}
		_, err = io.Copy(out, in)
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		return err
	})
}

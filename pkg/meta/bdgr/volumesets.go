package bdgr

import (
	"context"
	"sort"
	"time"

	"github.com/dgraph-io/badger"
	jsoniter "github.com/json-iterator/go"
	"github.com/segmentio/ksuid"

	"github.com/strata-data/strata/pkg/meta/status"
	"github.com/strata-data/strata/pkg/model"
)

// CreateVolumeSet allocates a new volume set. When sourceCommit is
// set, the volume records of the commit's source set are copied over
// (mountpoints cleared, the driver reports new ones on clone). When
// makeActive is set the repository pointer moves in the same
// transaction.
func (s *kvStore) CreateVolumeSet(ctx context.Context, repository, sourceCommit string, makeActive bool) (string, error) {
	id := ksuid.New().String()
	err := s.update(func(txn *badger.Txn) error {
		repo, err := requireRepo(txn, repository)
		if err != nil {
			return err
		}
		rec := volumeSetRecord{
			ID:           id,
			SourceCommit: sourceCommit,
			Created:      time.Now().UTC(),
		}
		if sourceCommit != "" {
			commit, err := requireCommit(txn, repository, sourceCommit)
			if err != nil {
				return err
			}
			if err := copyVolumes(txn, repository, commit.VolumeSet, id); err != nil {
				return err
			}
		}
		if err := putJSON(txn, vsetKey(repository, id), &rec); err != nil {
			return err
		}
		if makeActive {
			repo.ActiveVolumeSet = id
			return putJSON(txn, repoKey(repository), repo)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func copyVolumes(txn *badger.Txn, repository, fromSet, toSet string) error {
	type pending struct {
		name string
		rec  volumeRecord
	}
	var copies []pending
	err := forPrefix(txn, volPrefix(repository, fromSet), func(key string, data []byte) error {
		var rec volumeRecord
		if err := jsoniter.Unmarshal(data, &rec); err != nil {
			return err
		}
		rec.Volume.Mountpoint = ""
		copies = append(copies, pending{name: rec.Volume.Name, rec: rec})
		return nil
	})
	if err != nil {
		return err
	}
	for _, c := range copies {
		if err := putJSON(txn, volKey(repository, toSet, c.name), &c.rec); err != nil {
			return err
		}
	}
	return nil
}

func (s *kvStore) GetVolumeSet(ctx context.Context, repository, id string) (*model.VolumeSet, error) {
	var vs model.VolumeSet
	err := s.view(func(txn *badger.Txn) error {
		if _, err := requireRepo(txn, repository); err != nil {
			return err
		}
		rec, err := requireVolumeSet(txn, repository, id)
		if err != nil {
			return err
		}
		vs = model.VolumeSet{ID: rec.ID, SourceCommit: rec.SourceCommit, Created: rec.Created}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &vs, nil
}

func (s *kvStore) ListVolumeSets(ctx context.Context, repository string) ([]model.VolumeSet, error) {
	sets := []model.VolumeSet{}
	err := s.view(func(txn *badger.Txn) error {
		if _, err := requireRepo(txn, repository); err != nil {
			return err
		}
		return forPrefix(txn, vsetPrefix(repository), func(_ string, data []byte) error {
			var rec volumeSetRecord
			if err := jsoniter.Unmarshal(data, &rec); err != nil {
				return err
			}
			sets = append(sets, model.VolumeSet{ID: rec.ID, SourceCommit: rec.SourceCommit, Created: rec.Created})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(sets, func(i, j int) bool { return sets[i].Created.Before(sets[j].Created) })
	return sets, nil
}

func (s *kvStore) GetActiveVolumeSet(ctx context.Context, repository string) (string, error) {
	var active string
	err := s.view(func(txn *badger.Txn) error {
		rec, err := requireRepo(txn, repository)
		if err != nil {
			return err
		}
		active = rec.ActiveVolumeSet
		return nil
	})
	if err != nil {
		return "", err
	}
	return active, nil
}

// ActivateVolumeSet is the checkout pointer swap: it succeeds only if
// the active pointer still equals oldID, so exactly one of two racing
// checkouts wins.
func (s *kvStore) ActivateVolumeSet(ctx context.Context, repository, oldID, newID string) error {
	return s.update(func(txn *badger.Txn) error {
		repo, err := requireRepo(txn, repository)
		if err != nil {
			return err
		}
		if _, err := requireVolumeSet(txn, repository, newID); err != nil {
			return err
		}
		if repo.ActiveVolumeSet != oldID {
			return status.ErrStalePointer
		}
		repo.ActiveVolumeSet = newID
		return putJSON(txn, repoKey(repository), repo)
	})
}

// DeleteVolumeSet refuses while the set is active or still referenced
// by commits; the caller is expected to have the driver's confirmation
// that no physical references remain.
func (s *kvStore) DeleteVolumeSet(ctx context.Context, repository, id string) error {
	return s.update(func(txn *badger.Txn) error {
		repo, err := requireRepo(txn, repository)
		if err != nil {
			return err
		}
		if _, err := requireVolumeSet(txn, repository, id); err != nil {
			return err
		}
		if repo.ActiveVolumeSet == id {
			return status.ErrVolumeSetInUse
		}
		referenced, err := volumeSetHasCommits(txn, repository, id)
		if err != nil {
			return err
		}
		if referenced {
			return status.ErrVolumeSetInUse
		}
		if err := deletePrefix(txn, volPrefix(repository, id)); err != nil {
			return err
		}
		return txn.Delete(vsetKey(repository, id))
	})
}

func volumeSetHasCommits(txn *badger.Txn, repository, volumeSet string) (bool, error) {
	found := false
	err := forPrefix(txn, commitPrefix(repository), func(key string, data []byte) error {
		if found {
			return nil
		}
		var rec commitRecord
		if err := jsoniter.Unmarshal(data, &rec); err != nil {
			return err
		}
		if rec.VolumeSet == volumeSet {
			found = true
		}
		return nil
	})
	return found, err
}

func (s *kvStore) VolumeSetHasCommits(ctx context.Context, repository, volumeSet string) (bool, error) {
	var referenced bool
	err := s.view(func(txn *badger.Txn) error {
		if _, err := requireRepo(txn, repository); err != nil {
			return err
		}
		var verr error
		referenced, verr = volumeSetHasCommits(txn, repository, volumeSet)
		return verr
	})
	return referenced, err
}

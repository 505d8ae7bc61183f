package bdgr

import (
	"context"
	"sort"
	"time"

	"github.com/dgraph-io/badger"
	jsoniter "github.com/json-iterator/go"

	"github.com/strata-data/strata/pkg/model"
)

func (s *kvStore) CreateCommit(ctx context.Context, repository, volumeSet string, commit *model.Commit) error {
	if err := model.ValidateCommitID(commit.ID); err != nil {
		return err
	}
	now := time.Now().UTC()
	return s.update(func(txn *badger.Txn) error {
		if _, err := requireRepo(txn, repository); err != nil {
			return err
		}
		if _, err := requireVolumeSet(txn, repository, volumeSet); err != nil {
			return err
		}
		exists, err := has(txn, commitKey(repository, commit.ID))
		if err != nil {
			return err
		}
		if exists {
			return model.CommitExists(repository, commit.ID)
		}
		seq, err := nextSeq(txn)
		if err != nil {
			return err
		}
		rec := commitRecord{
			Commit:    *commit,
			VolumeSet: volumeSet,
			Created:   model.CommitTimestamp(commit, now),
			Seq:       seq,
		}
		return putJSON(txn, commitKey(repository, commit.ID), &rec)
	})
}

func (s *kvStore) GetCommit(ctx context.Context, repository, id string) (*model.Commit, error) {
	var commit model.Commit
	err := s.view(func(txn *badger.Txn) error {
		if _, err := requireRepo(txn, repository); err != nil {
			return err
		}
		rec, err := requireCommit(txn, repository, id)
		if err != nil {
			return err
		}
		commit = rec.Commit
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &commit, nil
}

// GetCommitSource returns the id of the volume set the commit was
// taken from.
func (s *kvStore) GetCommitSource(ctx context.Context, repository, id string) (string, error) {
	var source string
	err := s.view(func(txn *badger.Txn) error {
		if _, err := requireRepo(txn, repository); err != nil {
			return err
		}
		rec, err := requireCommit(txn, repository, id)
		if err != nil {
			return err
		}
		source = rec.VolumeSet
		return nil
	})
	if err != nil {
		return "", err
	}
	return source, nil
}

// ListCommits returns commits matching every tag filter, most recent
// first, ties broken by insertion order.
func (s *kvStore) ListCommits(ctx context.Context, repository string, filters []model.TagFilter) ([]model.Commit, error) {
	var recs []commitRecord
	err := s.view(func(txn *badger.Txn) error {
		if _, err := requireRepo(txn, repository); err != nil {
			return err
		}
		return forPrefix(txn, commitPrefix(repository), func(_ string, data []byte) error {
			var rec commitRecord
			if err := jsoniter.Unmarshal(data, &rec); err != nil {
				return err
			}
			if model.MatchTags(&rec.Commit, filters) {
				recs = append(recs, rec)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].Created.Equal(recs[j].Created) {
			return recs[i].Created.After(recs[j].Created)
		}
		return recs[i].Seq < recs[j].Seq
	})
	commits := make([]model.Commit, len(recs))
	for i := range recs {
		commits[i] = recs[i].Commit
	}
	return commits, nil
}

// UpdateCommit replaces the property map wholesale; id and source
// volume set never change. Ordering follows the new timestamp
// property when present.
func (s *kvStore) UpdateCommit(ctx context.Context, repository string, commit *model.Commit) error {
	return s.update(func(txn *badger.Txn) error {
		if _, err := requireRepo(txn, repository); err != nil {
			return err
		}
		rec, err := requireCommit(txn, repository, commit.ID)
		if err != nil {
			return err
		}
		rec.Commit.Properties = commit.Properties
		rec.Created = model.CommitTimestamp(&rec.Commit, rec.Created)
		return putJSON(txn, commitKey(repository, commit.ID), rec)
	})
}

func (s *kvStore) DeleteCommit(ctx context.Context, repository, id string) error {
	return s.update(func(txn *badger.Txn) error {
		if _, err := requireRepo(txn, repository); err != nil {
			return err
		}
		if _, err := requireCommit(txn, repository, id); err != nil {
			return err
		}
		return txn.Delete(commitKey(repository, id))
	})
}

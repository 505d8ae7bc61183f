package bdgr

import (
	"context"
	"sort"

	"github.com/dgraph-io/badger"
	jsoniter "github.com/json-iterator/go"

	"github.com/strata-data/strata/pkg/model"
)

func (s *kvStore) CreateRemote(ctx context.Context, repository string, remote *model.Remote) error {
	if err := model.ValidateRemoteName(remote.Name); err != nil {
		return err
	}
	if remote.Provider == "" {
		return model.InvalidArgument("remote '%s' has no provider", remote.Name)
	}
	return s.update(func(txn *badger.Txn) error {
		if _, err := requireRepo(txn, repository); err != nil {
			return err
		}
		exists, err := has(txn, remoteKey(repository, remote.Name))
		if err != nil {
			return err
		}
		if exists {
			return model.RemoteExists(repository, remote.Name)
		}
		seq, err := nextSeq(txn)
		if err != nil {
			return err
		}
		return putJSON(txn, remoteKey(repository, remote.Name), &remoteRecord{Remote: *remote, Seq: seq})
	})
}

func (s *kvStore) GetRemote(ctx context.Context, repository, name string) (*model.Remote, error) {
	var remote model.Remote
	err := s.view(func(txn *badger.Txn) error {
		if _, err := requireRepo(txn, repository); err != nil {
			return err
		}
		rec, err := requireRemote(txn, repository, name)
		if err != nil {
			return err
		}
		remote = rec.Remote
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &remote, nil
}

// ListRemotes returns remotes in creation order.
func (s *kvStore) ListRemotes(ctx context.Context, repository string) ([]model.Remote, error) {
	var recs []remoteRecord
	err := s.view(func(txn *badger.Txn) error {
		if _, err := requireRepo(txn, repository); err != nil {
			return err
		}
		return forPrefix(txn, remotePrefix(repository), func(_ string, data []byte) error {
			var rec remoteRecord
			if err := jsoniter.Unmarshal(data, &rec); err != nil {
				return err
			}
			recs = append(recs, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Seq < recs[j].Seq })
	remotes := make([]model.Remote, len(recs))
	for i := range recs {
		remotes[i] = recs[i].Remote
	}
	return remotes, nil
}

func (s *kvStore) DeleteRemote(ctx context.Context, repository, name string) error {
	return s.update(func(txn *badger.Txn) error {
		if _, err := requireRepo(txn, repository); err != nil {
			return err
		}
		if _, err := requireRemote(txn, repository, name); err != nil {
			return err
		}
		return txn.Delete(remoteKey(repository, name))
	})
}

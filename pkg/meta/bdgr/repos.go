package bdgr

import (
	"context"
	"sort"
	"time"

	"github.com/dgraph-io/badger"
	jsoniter "github.com/json-iterator/go"

	"github.com/strata-data/strata/pkg/model"
)

func (s *kvStore) CreateRepository(ctx context.Context, repo *model.Repository) error {
	if err := model.ValidateRepositoryName(repo.Name); err != nil {
		return err
	}
	return s.update(func(txn *badger.Txn) error {
		exists, err := has(txn, repoKey(repo.Name))
		if err != nil {
			return err
		}
		if exists {
			return model.RepositoryExists(repo.Name)
		}
		rec := repoRecord{
			Repository: *repo,
			Created:    time.Now().UTC(),
		}
		return putJSON(txn, repoKey(repo.Name), &rec)
	})
}

func (s *kvStore) GetRepository(ctx context.Context, name string) (*model.Repository, error) {
	var repo model.Repository
	err := s.view(func(txn *badger.Txn) error {
		rec, err := requireRepo(txn, name)
		if err != nil {
			return err
		}
		repo = rec.Repository
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &repo, nil
}

func (s *kvStore) ListRepositories(ctx context.Context) ([]model.Repository, error) {
	repos := []model.Repository{}
	err := s.view(func(txn *badger.Txn) error {
		return forPrefix(txn, []byte(repoPref), func(_ string, data []byte) error {
			var rec repoRecord
			if err := jsoniter.Unmarshal(data, &rec); err != nil {
				return err
			}
			repos = append(repos, rec.Repository)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(repos, func(i, j int) bool { return repos[i].Name < repos[j].Name })
	return repos, nil
}

func (s *kvStore) UpdateRepository(ctx context.Context, repo *model.Repository) error {
	return s.update(func(txn *badger.Txn) error {
		rec, err := requireRepo(txn, repo.Name)
		if err != nil {
			return err
		}
		rec.Repository.Properties = repo.Properties
		return putJSON(txn, repoKey(repo.Name), rec)
	})
}

// DeleteRepository removes the repository and everything it owns:
// volume sets, volumes, commits and remotes.
func (s *kvStore) DeleteRepository(ctx context.Context, name string) error {
	return s.update(func(txn *badger.Txn) error {
		if _, err := requireRepo(txn, name); err != nil {
			return err
		}
		for _, prefix := range [][]byte{
			vsetPrefix(name),
			[]byte(volPref + name + ":"),
			commitPrefix(name),
			remotePrefix(name),
		} {
			if err := deletePrefix(txn, prefix); err != nil {
				return err
			}
		}
		return txn.Delete(repoKey(name))
	})
}

package bdgr

import (
	"context"
	"sort"

	"github.com/dgraph-io/badger"
	jsoniter "github.com/json-iterator/go"

	"github.com/strata-data/strata/pkg/model"
)

func (s *kvStore) CreateVolume(ctx context.Context, repository, volumeSet string, volume *model.Volume) error {
	if err := model.ValidateVolumeName(volume.Name); err != nil {
		return err
	}
	return s.update(func(txn *badger.Txn) error {
		if _, err := requireRepo(txn, repository); err != nil {
			return err
		}
		if _, err := requireVolumeSet(txn, repository, volumeSet); err != nil {
			return err
		}
		exists, err := has(txn, volKey(repository, volumeSet, volume.Name))
		if err != nil {
			return err
		}
		if exists {
			return model.VolumeExists(repository, volume.Name)
		}
		return putJSON(txn, volKey(repository, volumeSet, volume.Name), &volumeRecord{Volume: *volume})
	})
}

func (s *kvStore) GetVolume(ctx context.Context, repository, volumeSet, name string) (*model.Volume, error) {
	var vol model.Volume
	err := s.view(func(txn *badger.Txn) error {
		if _, err := requireRepo(txn, repository); err != nil {
			return err
		}
		rec, err := requireVolume(txn, repository, volumeSet, name)
		if err != nil {
			return err
		}
		vol = rec.Volume
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &vol, nil
}

func (s *kvStore) ListVolumes(ctx context.Context, repository, volumeSet string) ([]model.Volume, error) {
	volumes := []model.Volume{}
	err := s.view(func(txn *badger.Txn) error {
		if _, err := requireRepo(txn, repository); err != nil {
			return err
		}
		if _, err := requireVolumeSet(txn, repository, volumeSet); err != nil {
			return err
		}
		return forPrefix(txn, volPrefix(repository, volumeSet), func(_ string, data []byte) error {
			var rec volumeRecord
			if err := jsoniter.Unmarshal(data, &rec); err != nil {
				return err
			}
			volumes = append(volumes, rec.Volume)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(volumes, func(i, j int) bool { return volumes[i].Name < volumes[j].Name })
	return volumes, nil
}

func (s *kvStore) UpdateVolume(ctx context.Context, repository, volumeSet string, volume *model.Volume) error {
	return s.update(func(txn *badger.Txn) error {
		if _, err := requireRepo(txn, repository); err != nil {
			return err
		}
		if _, err := requireVolume(txn, repository, volumeSet, volume.Name); err != nil {
			return err
		}
		return putJSON(txn, volKey(repository, volumeSet, volume.Name), &volumeRecord{Volume: *volume})
	})
}

func (s *kvStore) DeleteVolume(ctx context.Context, repository, volumeSet, name string) error {
	return s.update(func(txn *badger.Txn) error {
		if _, err := requireRepo(txn, repository); err != nil {
			return err
		}
		if _, err := requireVolume(txn, repository, volumeSet, name); err != nil {
			return err
		}
		return txn.Delete(volKey(repository, volumeSet, name))
	})
}

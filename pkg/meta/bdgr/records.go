package bdgr

import (
	"time"

	"github.com/dgraph-io/badger"

	"github.com/strata-data/strata/pkg/model"
)

// Persisted record shapes. Wire types from pkg/model are embedded so
// internal bookkeeping (active pointer, insertion sequence) never
// leaks onto the API surface.

type repoRecord struct {
	Repository      model.Repository `json:"repository"`
	ActiveVolumeSet string           `json:"activeVolumeSet"`
	Created         time.Time        `json:"created"`
}

type volumeSetRecord struct {
	ID           string    `json:"id"`
	SourceCommit string    `json:"sourceCommit,omitempty"`
	Created      time.Time `json:"created"`
}

type volumeRecord struct {
	Volume model.Volume `json:"volume"`
}

type commitRecord struct {
	Commit    model.Commit `json:"commit"`
	VolumeSet string       `json:"volumeSet"`
	Created   time.Time    `json:"created"`
	Seq       uint64       `json:"seq"`
}

type remoteRecord struct {
	Remote model.Remote `json:"remote"`
	Seq    uint64       `json:"seq"`
}

// requireRepo loads a repository record, rewriting a missing key into
// the canonical taxonomy error.
func requireRepo(txn *badger.Txn, name string) (*repoRecord, error) {
	var rec repoRecord
	err := getJSON(txn, repoKey(name), &rec)
	if err == badger.ErrKeyNotFound {
		return nil, model.NoSuchRepository(name)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func requireVolumeSet(txn *badger.Txn, repository, id string) (*volumeSetRecord, error) {
	var rec volumeSetRecord
	err := getJSON(txn, vsetKey(repository, id), &rec)
	if err == badger.ErrKeyNotFound {
		return nil, model.NoSuchVolumeSet(repository, id)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func requireCommit(txn *badger.Txn, repository, id string) (*commitRecord, error) {
	var rec commitRecord
	err := getJSON(txn, commitKey(repository, id), &rec)
	if err == badger.ErrKeyNotFound {
		return nil, model.NoSuchCommit(repository, id)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func requireRemote(txn *badger.Txn, repository, name string) (*remoteRecord, error) {
	var rec remoteRecord
	err := getJSON(txn, remoteKey(repository, name), &rec)
	if err == badger.ErrKeyNotFound {
		return nil, model.NoSuchRemote(repository, name)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func requireVolume(txn *badger.Txn, repository, volumeSet, name string) (*volumeRecord, error) {
	var rec volumeRecord
	err := getJSON(txn, volKey(repository, volumeSet, name), &rec)
	if err == badger.ErrKeyNotFound {
		return nil, model.NoSuchVolume(repository, name)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Package bdgr implements the metadata Store on top of badger.
//
// Each mutation runs inside a single badger update transaction, which
// provides the atomicity contract of pkg/meta: a multi-entity
// mutation either commits entirely or not at all, and readers only
// ever observe committed snapshots.
package bdgr

import (
	"log"
	"os"
	"sync"

	"github.com/dgraph-io/badger"
	jsoniter "github.com/json-iterator/go"

	"github.com/strata-data/strata/pkg/meta"
	"github.com/strata-data/strata/pkg/meta/status"
)

const defaultBaseDir = ".strata/metadata"

func makeBadgerDb(dir string) (*badger.DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		log.Println("mkdir -p", dir, err)
	}
	bopts := badger.DefaultOptions
	bopts.Dir = dir
	bopts.ValueDir = dir

	return badger.Open(bopts)
}

// New creates a badger backed metadata store rooted at baseDir
func New(baseDir string) meta.Store {
	if baseDir == "" {
		baseDir = defaultBaseDir
	}
	return &kvStore{
		baseDir: baseDir,
	}
}

type kvStore struct {
	baseDir string
	db      *badger.DB

	// serializes update transactions. Writers here are short
	// read-modify-write sequences; without the lock badger would
	// surface ErrConflict to one of two concurrent writers touching
	// the same repository record.
	mu sync.Mutex

	init  sync.Once
	close sync.Once
}

func (s *kvStore) Init() error {
	var err error
	s.init.Do(func() {
		var db *badger.DB
		db, err = makeBadgerDb(s.baseDir)
		if err != nil {
			return
		}
		s.db = db
	})

	return err
}

func (s *kvStore) Close() error {
	var err error
	s.close.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.db != nil {
			err = s.db.Close()
			if err == nil {
				s.db = nil
			}
		}
	})
	return err
}

func (s *kvStore) update(fn func(txn *badger.Txn) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return status.ErrStoreClosed
	}
	err := s.db.Update(fn)
	if err == badger.ErrConflict {
		return status.ErrConcurrentUpdate.Wrap(err)
	}
	return err
}

func (s *kvStore) view(fn func(txn *badger.Txn) error) error {
	if s.db == nil {
		return status.ErrStoreClosed
	}
	return s.db.View(fn)
}

// getJSON fetches and decodes a record. badger.ErrKeyNotFound passes
// through for the caller to rewrite into the right taxonomy error.
func getJSON(txn *badger.Txn, key []byte, out interface{}) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	data, err := item.Value()
	if err != nil {
		return err
	}
	return jsoniter.Unmarshal(data, out)
}

func putJSON(txn *badger.Txn, key []byte, v interface{}) error {
	data, err := jsoniter.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, data)
}

func has(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// forPrefix decodes every record under a key prefix.
func forPrefix(txn *badger.Txn, prefix []byte, each func(key string, data []byte) error) error {
	opts := badger.DefaultIteratorOptions
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		data, err := item.Value()
		if err != nil {
			return err
		}
		if err := each(string(item.Key()), data); err != nil {
			return err
		}
	}
	return nil
}

// deletePrefix removes every key under a prefix. Keys are collected
// first: badger does not allow deleting under an open iterator.
func deletePrefix(txn *badger.Txn, prefix []byte) error {
	var keys [][]byte
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		k := it.Item().Key()
		kc := make([]byte, len(k))
		copy(kc, k)
		keys = append(keys, kc)
	}
	it.Close()
	for _, k := range keys {
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// nextSeq increments the persisted insertion counter within the
// enclosing transaction.
func nextSeq(txn *badger.Txn) (uint64, error) {
	var n uint64
	err := getJSON(txn, seqKey(), &n)
	if err != nil && err != badger.ErrKeyNotFound {
		return 0, err
	}
	n++
	if err := putJSON(txn, seqKey(), n); err != nil {
		return 0, err
	}
	return n, nil
}

// Package status declares error constants returned by
// implementations of the metadata Store interface.
//
// NOTE: such constants are located in a separate package to avoid
// creating undue cyclical dependencies between pkg/meta and one
// of its implementations.
package status

import "github.com/strata-data/strata/pkg/errors"

var (
	// ErrStalePointer indicates a compare-and-swap of the active
	// volume set pointer lost against a concurrent checkout
	ErrStalePointer = errors.New("active volume set pointer moved")

	// ErrVolumeSetInUse indicates a volume set deletion was attempted
	// while the set is still active or referenced by commits
	ErrVolumeSetInUse = errors.New("volume set still referenced")

	// ErrConcurrentUpdate indicates the storage engine detected a
	// write conflict between concurrent transactions
	ErrConcurrentUpdate = errors.New("concurrent metadata update")

	// ErrStoreClosed indicates use of a store after Close
	ErrStoreClosed = errors.New("metadata store is closed")
)

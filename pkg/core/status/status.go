// Package status declares error constants returned by the commit
// graph engine.
//
// NOTE: such constants are located in a separate package to avoid
// creating undue cyclical dependencies between pkg/core and its
// consumers.
package status

import "github.com/strata-data/strata/pkg/errors"

var (
	// ErrCheckoutConflict indicates a checkout lost the active pointer
	// swap against a concurrent checkout. The losing clone is reaped;
	// callers retry against the new active state.
	ErrCheckoutConflict = errors.New("checkout conflicts with a concurrent checkout")

	// ErrRepositoryBusy indicates a repository deletion was refused
	// because push or pull operations are still running against it
	ErrRepositoryBusy = errors.New("repository has running operations")
)

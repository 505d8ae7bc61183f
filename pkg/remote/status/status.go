// Package status declares error constants returned by remote
// provider implementations.
package status

import "github.com/strata-data/strata/pkg/errors"

var (
	// ErrNotFound indicates the target commit does not exist on the
	// remote backend
	ErrNotFound = errors.New("not found")

	// ErrBadMetadata indicates a remote commit's metadata header is
	// missing or corrupt
	ErrBadMetadata = errors.New("corrupt commit metadata on remote")

	// ErrVerification indicates the transferred data stream did not
	// match its recorded length
	ErrVerification = errors.New("data stream verification failed")

	// ErrExists indicates the commit is already archived on the
	// remote backend
	ErrExists = errors.New("commit exists already on remote")

	// ErrForbidden indicates the backend rejected the provided
	// credentials
	ErrForbidden = errors.New("forbidden")
)

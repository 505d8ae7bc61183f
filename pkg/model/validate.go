package model

import (
	"unicode"
)

// Identifier rule shared by commit ids, repository, remote and volume
// names: non-empty, letters, digits, '.', '-' and '_' only. This in
// particular rejects '@', '=' and whitespace, which are reserved by
// the tag filter syntax.
func validName(name string) bool {
	if name == "" {
		return false
	}
	for _, c := range name {
		if unicode.IsLetter(c) || unicode.IsDigit(c) {
			continue
		}
		switch c {
		case '.', '-', '_':
		default:
			return false
		}
	}
	return true
}

// ValidateCommitID rejects malformed commit ids with InvalidArgument
func ValidateCommitID(id string) error {
	if !validName(id) {
		return InvalidArgument("invalid commit id '%s', can only contain letters, digits, '.', '-' or '_'", id)
	}
	return nil
}

// ValidateRepositoryName rejects malformed repository names
func ValidateRepositoryName(name string) error {
	if !validName(name) {
		return InvalidArgument("invalid repository name '%s', can only contain letters, digits, '.', '-' or '_'", name)
	}
	return nil
}

// ValidateRemoteName rejects malformed remote names
func ValidateRemoteName(name string) error {
	if !validName(name) {
		return InvalidArgument("invalid remote name '%s', can only contain letters, digits, '.', '-' or '_'", name)
	}
	return nil
}

// ValidateVolumeName rejects malformed volume names
func ValidateVolumeName(name string) error {
	if !validName(name) {
		return InvalidArgument("invalid volume name '%s', can only contain letters, digits, '.', '-' or '_'", name)
	}
	return nil
}

package model

import (
	"time"
)

// Repository is a named container for the version history of one
// logical dataset. The active volume set pointer is part of the
// repository metadata but is not exposed on the wire.
type Repository struct {
	Name       string                 `json:"name" yaml:"name"`
	Properties map[string]interface{} `json:"properties" yaml:"properties"`
}

// VolumeSet groups the volumes that make up one mutable working state
// of a repository. Exactly one volume set is active per repository at
// any time.
type VolumeSet struct {
	ID           string    `json:"id" yaml:"id"`
	SourceCommit string    `json:"sourceCommit,omitempty" yaml:"sourceCommit,omitempty"`
	Created      time.Time `json:"created" yaml:"created"`
}

// Volume is a named member of a volume set. The mountpoint is
// reported by the volume driver and carried opaquely.
type Volume struct {
	Name       string                 `json:"name" yaml:"name"`
	Properties map[string]interface{} `json:"properties" yaml:"properties"`
	Mountpoint string                 `json:"mountpoint,omitempty" yaml:"mountpoint,omitempty"`
}

// Commit is an immutable named snapshot of a volume set plus a
// free-form property map. The id is caller-supplied and unique within
// its repository.
type Commit struct {
	ID         string                 `json:"id" yaml:"id"`
	Properties map[string]interface{} `json:"properties" yaml:"properties"`
}

// CommitStatus reports space accounting for a commit. It is computed
// on demand by the volume driver and never persisted.
type CommitStatus struct {
	LogicalSize int64  `json:"logicalSize" yaml:"logicalSize"`
	ActualSize  int64  `json:"actualSize" yaml:"actualSize"`
	UniqueSize  int64  `json:"uniqueSize" yaml:"uniqueSize"`
	Ready       bool   `json:"ready" yaml:"ready"`
	Error       string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Remote is a named per-repository configuration pointing at an
// external backend. Provider selects the backend implementation;
// Properties are backend-specific and treated opaquely by the core,
// credentials included.
type Remote struct {
	Provider   string                 `json:"provider" yaml:"provider"`
	Name       string                 `json:"name" yaml:"name"`
	Properties map[string]interface{} `json:"properties" yaml:"properties"`
}

// OperationType is the direction of a transfer.
type OperationType string

// OperationState is the lifecycle state of a transfer. RUNNING is the
// only non-terminal state.
type OperationState string

const (
	// OperationPush transfers a local commit to a remote
	OperationPush OperationType = "PUSH"
	// OperationPull materializes a remote commit locally
	OperationPull OperationType = "PULL"

	// OperationRunning means the transfer is in flight
	OperationRunning OperationState = "RUNNING"
	// OperationComplete means the transfer finished successfully
	OperationComplete OperationState = "COMPLETE"
	// OperationFailed means the transfer hit an unrecoverable error
	OperationFailed OperationState = "FAILED"
	// OperationAborted means the transfer was cancelled
	OperationAborted OperationState = "ABORTED"
)

// Operation is a transient record of an in-flight or finished
// push/pull. Operations do not survive a process restart.
type Operation struct {
	ID       string         `json:"id" yaml:"id"`
	Type     OperationType  `json:"type" yaml:"type"`
	State    OperationState `json:"state" yaml:"state"`
	Remote   string         `json:"remote" yaml:"remote"`
	CommitID string         `json:"commitId" yaml:"commitId"`
}

// ProgressType classifies a progress entry.
type ProgressType string

const (
	ProgressMessage  ProgressType = "MESSAGE"
	ProgressStart    ProgressType = "START"
	ProgressEnd      ProgressType = "END"
	ProgressPercent  ProgressType = "PROGRESS"
	ProgressError    ProgressType = "ERROR"
	ProgressAbort    ProgressType = "ABORT"
	ProgressComplete ProgressType = "COMPLETE"
)

// ProgressEntry is one element of an operation's append-only progress
// log. The id increments per operation.
type ProgressEntry struct {
	ID      int          `json:"id" yaml:"id"`
	Type    ProgressType `json:"type" yaml:"type"`
	Message string       `json:"message,omitempty" yaml:"message,omitempty"`
	Percent int          `json:"percent,omitempty" yaml:"percent,omitempty"`
}

// CommitTimestamp is the creation time used for list ordering: the
// commit's "timestamp" property when it parses as RFC3339, else
// fallback.
func CommitTimestamp(c *Commit, fallback time.Time) time.Time {
	if c == nil || c.Properties == nil {
		return fallback
	}
	raw, ok := c.Properties["timestamp"].(string)
	if !ok {
		return fallback
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return fallback
	}
	return ts
}

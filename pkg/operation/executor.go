// Package operation runs push and pull transfers asynchronously and
// tracks their lifecycle. Operations are process-local: they do not
// survive a restart, and a restarted daemon starts with an empty
// operation list.
//
// State machine: RUNNING is the only non-terminal state and moves to
// exactly one of COMPLETE, FAILED or ABORTED. The progress log of an
// operation is append-only while it runs and frozen once terminal.
package operation

import (
	"context"
	"sort"
	"sync"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/strata-data/strata/pkg/driver"
	"github.com/strata-data/strata/pkg/errors"
	"github.com/strata-data/strata/pkg/meta"
	"github.com/strata-data/strata/pkg/model"
	"github.com/strata-data/strata/pkg/remote"
	"github.com/strata-data/strata/pkg/remote/status"
)

const defaultMaxRetries = 3

// Option tunes the executor
type Option func(*Executor)

// WithLogger sets the zap logger
func WithLogger(l *zap.Logger) Option {
	return func(e *Executor) {
		e.l = l
	}
}

// WithMaxRetries bounds the retry attempts per transfer
func WithMaxRetries(n uint64) Option {
	return func(e *Executor) {
		e.maxRetries = n
	}
}

// Executor owns the in-flight and finished operations of one daemon
// process.
type Executor struct {
	store      meta.Store
	driver     driver.VolumeDriver
	registry   *remote.Registry
	l          *zap.Logger
	maxRetries uint64

	mu  sync.Mutex
	seq int
	ops map[string]*operation
}

// New builds an executor over a metadata store, a volume driver and a
// provider registry.
func New(store meta.Store, drv driver.VolumeDriver, registry *remote.Registry, options ...Option) *Executor {
	e := &Executor{
		store:      store,
		driver:     drv,
		registry:   registry,
		l:          zap.NewNop(),
		maxRetries: defaultMaxRetries,
		ops:        map[string]*operation{},
	}
	for _, apply := range options {
		apply(e)
	}
	return e
}

// operation pairs the public record with its runtime handles.
type operation struct {
	mu         sync.Mutex
	op         model.Operation
	repository string
	seq        int
	progress   []model.ProgressEntry
	runCtx     context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

func (o *operation) snapshot() *model.Operation {
	o.mu.Lock()
	defer o.mu.Unlock()
	op := o.op
	return &op
}

func (o *operation) append(entryType model.ProgressType, message string, percent int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.op.State != model.OperationRunning {
		return
	}
	o.progress = append(o.progress, model.ProgressEntry{
		ID:      len(o.progress) + 1,
		Type:    entryType,
		Message: message,
		Percent: percent,
	})
}

// finish records the terminal state along with its closing progress
// entry in one step, so no entry can slip in after the state change.
func (o *operation) finish(state model.OperationState, entryType model.ProgressType, message string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.op.State != model.OperationRunning {
		return
	}
	o.progress = append(o.progress, model.ProgressEntry{
		ID:      len(o.progress) + 1,
		Type:    entryType,
		Message: message,
	})
	o.op.State = state
}

// opSink adapts the provider progress callbacks onto the operation's
// progress log.
type opSink struct {
	o *operation
}

func (s opSink) Message(msg string) {
	s.o.append(model.ProgressMessage, msg, 0)
}

func (s opSink) Progress(percent int) {
	s.o.append(model.ProgressPercent, "", percent)
}

// StartPush submits an asynchronous transfer of a local commit to a
// remote. It validates synchronously that the repository, remote and
// commit exist, then returns the RUNNING operation record.
func (e *Executor) StartPush(ctx context.Context, repository, remoteName, commitID string) (*model.Operation, error) {
	rem, err := e.store.GetRemote(ctx, repository, remoteName)
	if err != nil {
		return nil, err
	}
	provider, err := e.registry.Resolve(rem)
	if err != nil {
		return nil, err
	}
	commit, err := e.store.GetCommit(ctx, repository, commitID)
	if err != nil {
		return nil, err
	}
	volumeSet, err := e.store.GetCommitSource(ctx, repository, commitID)
	if err != nil {
		return nil, err
	}

	o := e.register(repository, model.OperationPush, remoteName, commitID)
	e.l.Info("push submitted",
		zap.String("repository", repository),
		zap.String("remote", remoteName),
		zap.String("commit", commitID),
		zap.String("operation", o.op.ID))

	go e.run(o, func(runCtx context.Context) error {
		return e.withRetry(runCtx, func() error {
			data, err := e.driver.ExportCommit(runCtx, volumeSet, commitID)
			if err != nil {
				return model.DriverFailure("export", err)
			}
			defer data.Close()
			return provider.Push(runCtx, rem, commit, data, opSink{o})
		})
	})
	return o.snapshot(), nil
}

// StartPull submits an asynchronous transfer of a remote commit into
// the repository's active volume set. The local commit record is
// written only after the data stream was imported and verified.
func (e *Executor) StartPull(ctx context.Context, repository, remoteName, commitID string) (*model.Operation, error) {
	if err := model.ValidateCommitID(commitID); err != nil {
		return nil, err
	}
	rem, err := e.store.GetRemote(ctx, repository, remoteName)
	if err != nil {
		return nil, err
	}
	provider, err := e.registry.Resolve(rem)
	if err != nil {
		return nil, err
	}
	if _, err := e.store.GetCommit(ctx, repository, commitID); err == nil {
		return nil, model.CommitExists(repository, commitID)
	} else if !model.IsNoSuchObject(err) {
		return nil, err
	}
	volumeSet, err := e.store.GetActiveVolumeSet(ctx, repository)
	if err != nil {
		return nil, err
	}

	o := e.register(repository, model.OperationPull, remoteName, commitID)
	e.l.Info("pull submitted",
		zap.String("repository", repository),
		zap.String("remote", remoteName),
		zap.String("commit", commitID),
		zap.String("operation", o.op.ID))

	go e.run(o, func(runCtx context.Context) error {
		return e.withRetry(runCtx, func() error {
			commit, data, err := provider.Pull(runCtx, rem, commitID, opSink{o})
			if err != nil {
				return err
			}
			defer data.Close()
			if err := e.driver.ImportCommit(runCtx, volumeSet, commitID, data); err != nil {
				if errors.Is(err, status.ErrVerification) {
					return err
				}
				return model.DriverFailure("import", err)
			}
			return e.store.CreateCommit(runCtx, repository, volumeSet, commit)
		})
	})
	return o.snapshot(), nil
}

func (e *Executor) register(repository string, opType model.OperationType, remoteName, commitID string) *operation {
	runCtx, cancel := context.WithCancel(context.Background())
	o := &operation{
		op: model.Operation{
			ID:       ksuid.New().String(),
			Type:     opType,
			State:    model.OperationRunning,
			Remote:   remoteName,
			CommitID: commitID,
		},
		repository: repository,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	o.runCtx = runCtx

	e.mu.Lock()
	e.seq++
	o.seq = e.seq
	e.ops[o.op.ID] = o
	e.mu.Unlock()
	return o
}

func (e *Executor) run(o *operation, transfer func(ctx context.Context) error) {
	defer close(o.done)
	defer o.cancel()

	o.append(model.ProgressStart, string(o.op.Type)+" "+o.op.CommitID+" to remote '"+o.op.Remote+"'", 0)
	err := transfer(o.runCtx)
	switch {
	case err == nil:
		o.finish(model.OperationComplete, model.ProgressComplete, "")
		e.l.Info("operation complete", zap.String("operation", o.op.ID))
	case o.runCtx.Err() != nil:
		o.finish(model.OperationAborted, model.ProgressAbort, "operation aborted")
		e.l.Info("operation aborted", zap.String("operation", o.op.ID))
	default:
		o.finish(model.OperationFailed, model.ProgressError, err.Error())
		e.l.Warn("operation failed", zap.String("operation", o.op.ID), zap.Error(err))
	}
}

// withRetry runs one transfer attempt under exponential backoff.
// Errors in the taxonomy and provider sentinels are final: retrying a
// duplicate push or an invalid remote cannot succeed.
func (e *Executor) withRetry(ctx context.Context, attempt func() error) error {
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), e.maxRetries), ctx)
	return backoff.Retry(func() error {
		err := attempt()
		switch {
		case err == nil:
			return nil
		case ctx.Err() != nil:
			return backoff.Permanent(err)
		case permanent(err):
			return backoff.Permanent(err)
		}
		e.l.Debug("transfer attempt failed, retrying", zap.Error(err))
		return err
	}, bo)
}

func permanent(err error) bool {
	switch {
	case errors.Is(err, status.ErrExists),
		errors.Is(err, status.ErrNotFound),
		errors.Is(err, status.ErrBadMetadata),
		errors.Is(err, status.ErrForbidden):
		return true
	case model.IsInvalidArgument(err), model.IsNoSuchObject(err), model.IsAlreadyExists(err):
		return true
	}
	var derr *model.DriverFailureError
	return errors.As(err, &derr)
}

func (e *Executor) find(repository, id string) (*operation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	o, ok := e.ops[id]
	if !ok || o.repository != repository {
		return nil, &model.NoSuchObjectError{Kind: "operation", Name: id, Repository: repository}
	}
	return o, nil
}

// GetOperation returns the current record of an operation
func (e *Executor) GetOperation(repository, id string) (*model.Operation, error) {
	o, err := e.find(repository, id)
	if err != nil {
		return nil, err
	}
	return o.snapshot(), nil
}

// ListOperations returns the repository's operations, most recently
// submitted first.
func (e *Executor) ListOperations(repository string) []model.Operation {
	e.mu.Lock()
	all := make([]*operation, 0, len(e.ops))
	for _, o := range e.ops {
		if o.repository == repository {
			all = append(all, o)
		}
	}
	e.mu.Unlock()

	sort.Slice(all, func(i, j int) bool { return all[i].seq > all[j].seq })
	ops := make([]model.Operation, 0, len(all))
	for _, o := range all {
		ops = append(ops, *o.snapshot())
	}
	return ops
}

// GetProgress returns the progress entries with id greater than since
func (e *Executor) GetProgress(repository, id string, since int) ([]model.ProgressEntry, error) {
	o, err := e.find(repository, id)
	if err != nil {
		return nil, err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	entries := []model.ProgressEntry{}
	for _, entry := range o.progress {
		if entry.ID > since {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// Abort requests cancellation of a running operation. Aborting an
// operation that already reached a terminal state is a no-op.
func (e *Executor) Abort(repository, id string) error {
	o, err := e.find(repository, id)
	if err != nil {
		return err
	}
	o.cancel()
	return nil
}

// Wait blocks until the operation reaches a terminal state, for
// callers that need synchronous semantics on top of the async API.
func (e *Executor) Wait(ctx context.Context, repository, id string) (*model.Operation, error) {
	o, err := e.find(repository, id)
	if err != nil {
		return nil, err
	}
	select {
	case <-o.done:
		return o.snapshot(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// HasRunning tells whether the repository has operations in flight,
// used to refuse repository deletion mid-transfer.
func (e *Executor) HasRunning(repository string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, o := range e.ops {
		if o.repository != repository {
			continue
		}
		if o.snapshot().State == model.OperationRunning {
			return true
		}
	}
	return false
}

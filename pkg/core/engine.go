// Package core implements the commit graph engine: validation and
// orchestration above the metadata store and the volume driver.
//
// The ordering discipline throughout is read state, call the driver,
// persist metadata only on driver success. A crash between a driver
// call and its metadata commit leaves an orphaned physical object, to
// be found by reconciliation, never inconsistent metadata.
package core

import (
	"go.uber.org/zap"

	"github.com/strata-data/strata/pkg/driver"
	"github.com/strata-data/strata/pkg/meta"
	"github.com/strata-data/strata/pkg/remote"
)

// OperationChecker reports whether a repository has transfers in
// flight. The push/pull executor implements it.
type OperationChecker interface {
	HasRunning(repository string) bool
}

// Option tunes the engine
type Option func(*Engine)

// WithLogger sets the zap logger
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		e.l = l
	}
}

// WithOperations wires the transfer executor so repository deletion
// can be refused while operations run.
func WithOperations(ops OperationChecker) Option {
	return func(e *Engine) {
		e.ops = ops
	}
}

// Engine is the commit graph manager for all repositories behind one
// metadata store and one volume driver.
type Engine struct {
	store    meta.Store
	driver   driver.VolumeDriver
	registry *remote.Registry
	ops      OperationChecker
	l        *zap.Logger
}

// New builds an engine over a metadata store, a volume driver and a
// remote provider registry.
func New(store meta.Store, drv driver.VolumeDriver, registry *remote.Registry, options ...Option) *Engine {
	e := &Engine{
		store:    store,
		driver:   drv,
		registry: registry,
		l:        zap.NewNop(),
	}
	for _, apply := range options {
		apply(e)
	}
	return e
}

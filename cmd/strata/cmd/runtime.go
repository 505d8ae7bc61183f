package cmd

import (
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/strata-data/strata/pkg/core"
	"github.com/strata-data/strata/pkg/dlogger"
	"github.com/strata-data/strata/pkg/driver/localdir"
	"github.com/strata-data/strata/pkg/meta"
	"github.com/strata-data/strata/pkg/meta/bdgr"
	"github.com/strata-data/strata/pkg/operation"
	"github.com/strata-data/strata/pkg/remote"
	"github.com/strata-data/strata/pkg/remote/engine"
	"github.com/strata-data/strata/pkg/remote/localfs"
	"github.com/strata-data/strata/pkg/remote/s3"
)

// runtime wires the engine and executor from the resolved
// configuration. One runtime lives for the duration of one command.
type runtime struct {
	engine   *core.Engine
	executor *operation.Executor
	store    meta.Store
	l        *zap.Logger
}

func newRuntime() (*runtime, error) {
	l, err := dlogger.GetLogger(viper.GetString("loglevel"))
	if err != nil {
		return nil, err
	}

	store := bdgr.New(viper.GetString("metadata"))
	if err := store.Init(); err != nil {
		return nil, err
	}
	drv := localdir.New(nil, viper.GetString("volumes"))

	registry := remote.NewRegistry()
	registry.Register(localfs.New(nil))
	registry.Register(s3.New())
	registry.Register(engine.New())

	executor := operation.New(store, drv, registry, operation.WithLogger(l))
	eng := core.New(store, drv, registry,
		core.WithLogger(l),
		core.WithOperations(executor),
	)
	return &runtime{
		engine:   eng,
		executor: executor,
		store:    store,
		l:        l,
	}, nil
}

func (r *runtime) close() {
	if err := r.store.Close(); err != nil {
		r.l.Warn("failed to close metadata store", zap.Error(err))
	}
}

// mustRuntime builds the runtime or exits
func mustRuntime() *runtime {
	r, err := newRuntime()
	if err != nil {
		wrapFatalln("initialize", err)
	}
	return r
}

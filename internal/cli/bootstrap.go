package cli

import (
	"context"

	"github.com/re-cinq/taskforge/internal/config"
	"github.com/re-cinq/taskforge/internal/dispatch"
	"github.com/re-cinq/taskforge/internal/gitdriver"
	"github.com/re-cinq/taskforge/internal/store"
	"github.com/re-cinq/taskforge/internal/supervisor"
	"github.com/re-cinq/taskforge/internal/workflow"
)

// buildDispatcher wires the Storage Adapter, Git Driver, and Process
// Supervisor into a Workflow Engine and Action Dispatcher, per cfg. The
// caller owns closing the returned store.
func buildDispatcher(cfg *config.Config) (*dispatch.Dispatcher, *store.Store, error) {
	st, err := store.Open(store.Config{
		Path:            cfg.Storage.Path,
		MaxOpenConns:    cfg.Storage.MaxOpenConns,
		ConnMaxIdleTime: cfg.Storage.ConnMaxIdleTime.Duration(),
	})
	if err != nil {
		return nil, nil, err
	}
	if err := st.RunMigrations(context.Background()); err != nil {
		st.Close()
		return nil, nil, err
	}

	git := gitdriver.New(cfg.Git.Binary)

	proc := supervisor.New(supervisor.Config{
		BaseDir:         cfg.Supervisor.BaseDir,
		AllowedCwds:     cfg.Supervisor.AllowedCwds,
		BlockedEnv:      cfg.Supervisor.BlockedEnv,
		MaxLogSizeBytes: cfg.Supervisor.MaxLogSizeBytes,
		StopTimeout:     cfg.Supervisor.StopTimeout.Duration(),
	})
	if err := proc.Init(); err != nil {
		st.Close()
		return nil, nil, err
	}

	engine := workflow.New(st, git, proc)
	return dispatch.New(engine, proc), st, nil
}

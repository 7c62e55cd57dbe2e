// Package app wires the pipeline together and runs the interactive query
// shell that fronts it.
package app

import (
	"context"

	"github.com/zhenzou/executors"
	"go.uber.org/fx"

	"github.com/neuraform/neuraform/conf"
	"github.com/neuraform/neuraform/internal/audit"
	"github.com/neuraform/neuraform/internal/authz"
	"github.com/neuraform/neuraform/internal/log"
	"github.com/neuraform/neuraform/internal/orchestrator"
	"github.com/neuraform/neuraform/internal/pii"
	"github.com/neuraform/neuraform/internal/pkg/httpclient"
	"github.com/neuraform/neuraform/internal/policy"
	"github.com/neuraform/neuraform/internal/router"
	"github.com/neuraform/neuraform/internal/tracing"
)

// Module assembles the full application graph.
var Module = fx.Module("app",
	fx.Provide(
		func(cfg conf.Config) policy.Config { return cfg.Policy },
		func(cfg conf.Config) router.Config { return cfg.Router },
		func(cfg conf.Config) audit.Config { return cfg.Audit },
		func(cfg conf.Config) orchestrator.Config { return cfg.Orchestrator },
	),
	fx.Provide(
		httpclient.NewHttpClient,
		NewExecutors,
	),
	fx.Provide(
		func(store *policy.Store) authz.RoleProvider { return store },
		func(store *policy.Store) pii.PolicyProvider { return store },
		func(store *policy.Store) router.CatalogProvider { return store },
		func(store *policy.Store) router.PersonaProvider { return store },
		func(emitter *audit.Emitter) orchestrator.AuditEmitter { return emitter },
	),
	fx.Provide(
		authz.NewChecker,
		pii.NewScanner,
		NewShell,
	),
	fx.Invoke(func(cfg conf.Config) error {
		if err := log.SetGlobalConfig(cfg.Log); err != nil {
			return err
		}

		tracing.SetupLogger(log.GetGlobalLogger())

		return nil
	}),
	fx.Invoke(func(lc fx.Lifecycle, executor executors.ScheduledExecutor) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return executor.Shutdown(ctx)
			},
		})
	}),
	policy.Module,
	router.Module,
	audit.Module,
	orchestrator.Module,
)

// Run starts the fx application with the app module plus the given
// options and blocks until shutdown.
func Run(opts ...fx.Option) {
	options := append([]fx.Option{Module}, opts...)

	app := fx.New(options...)
	app.Run()
}

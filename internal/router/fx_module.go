package router

import (
	"context"

	"github.com/zhenzou/executors"
	"go.uber.org/fx"

	"github.com/neuraform/neuraform/internal/pkg/httpclient"
)

var Module = fx.Module("router",
	fx.Provide(func(config Config, catalog CatalogProvider, client *httpclient.HttpClient) *Registry {
		return NewRegistry(context.Background(), config, catalog, client)
	}),
	fx.Provide(NewRouter),
	fx.Invoke(func(registry *Registry, executor executors.ScheduledExecutor) error {
		return registry.ScheduleProbes(executor)
	}),
)

package policy

import (
	"context"
	"errors"

	"go.uber.org/fx"

	"github.com/neuraform/neuraform/internal/log"
)

var Module = fx.Module("policy",
	fx.Provide(NewStore),
	fx.Invoke(func(lc fx.Lifecycle, store *Store, config Config) {
		if !config.Watch {
			return
		}

		watchCtx, cancel := context.WithCancel(context.Background())

		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				go func() {
					err := store.Watch(watchCtx)
					if err != nil && !errors.Is(err, context.Canceled) {
						log.Error(watchCtx, "policy watcher stopped", log.Cause(err))
					}
				}()

				return nil
			},
			OnStop: func(ctx context.Context) error {
				cancel()
				return nil
			},
		})
	}),
)

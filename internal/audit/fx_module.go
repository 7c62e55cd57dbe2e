package audit

import (
	"go.uber.org/fx"
)

var Module = fx.Module("audit",
	fx.Provide(func() Sink {
		return NewLogSink()
	}),
	fx.Provide(NewEmitter),
	fx.Invoke(func(lc fx.Lifecycle, emitter *Emitter) {
		lc.Append(fx.Hook{
			OnStart: emitter.Start,
			OnStop:  emitter.Stop,
		})
	}),
)

package app

import (
	"context"
	"reflect"

	"github.com/zhenzou/executors"

	"github.com/neuraform/neuraform/internal/log"
)

type ErrorHandler struct{}

func (h *ErrorHandler) CatchError(runnable executors.Runnable, err error) {
	log.Error(context.Background(), "run runnable error", log.Cause(err))
}

type RejectionHandler struct{}

func (h *RejectionHandler) RejectExecution(runnable executors.Runnable, e executors.Executor) error {
	log.Error(context.Background(), "runnable rejection by executor", log.String("runnable", reflect.ValueOf(runnable).String()))
	return nil
}

func NewExecutors() executors.ScheduledExecutor {
	return executors.NewPoolScheduleExecutor(
		executors.WithMaxConcurrent(8),
		executors.WithMaxBlockingTasks(64),
		executors.WithErrorHandler(&ErrorHandler{}),
		executors.WithRejectionHandler(&RejectionHandler{}),
	)
}

package cron_adapter

import (
	"context"
	"fmt"
	"time"

	"search-service/internal/contextkeys"
	"search-service/internal/core/port"
	"search-service/internal/core/port/usecases_port"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// TickTrigger периодически запускает проход планировщика по cron-расписанию.
// Это локальная альтернатива внешним командам из очереди: оба пути безопасно
// сосуществуют благодаря блокировке на каждый поиск.
type TickTrigger struct {
	cron    *cron.Cron
	useCase usecases_port.RunNotificationTickUseCasePort
	logger  port.LoggerPort
	spec    string
}

func NewTickTrigger(spec string, useCase usecases_port.RunNotificationTickUseCasePort, logger port.LoggerPort) (*TickTrigger, error) {
	if spec == "" {
		return nil, fmt.Errorf("cron adapter: spec cannot be empty")
	}
	return &TickTrigger{
		cron:    cron.New(),
		useCase: useCase,
		logger:  logger,
		spec:    spec,
	}, nil
}

// Start регистрирует задание и запускает планировщик.
func (t *TickTrigger) Start(ctx context.Context) error {
	_, err := t.cron.AddFunc(t.spec, func() {
		traceID := uuid.New().String()
		tickLogger := t.logger.WithFields(port.Fields{
			"trace_id":     traceID,
			"adapter_name": "CronTickTrigger",
		})

		runCtx := context.Background()
		runCtx = contextkeys.ContextWithLogger(runCtx, tickLogger)
		runCtx = contextkeys.ContextWithTraceID(runCtx, traceID)

		stats, err := t.useCase.Execute(runCtx, time.Now().UTC())
		if err != nil {
			tickLogger.Error("Scheduled notification tick failed", err, nil)
			return
		}

		tickLogger.Info("Scheduled notification tick finished", port.Fields{
			"due":     stats.Due,
			"fired":   stats.Fired,
			"skipped": stats.Skipped,
			"failed":  stats.Failed,
		})
	})
	if err != nil {
		return fmt.Errorf("cron adapter: failed to register tick job: %w", err)
	}

	t.cron.Start()
	t.logger.Info("Cron tick trigger started", port.Fields{"spec": t.spec})
	return nil
}

// Close останавливает планировщик, дожидаясь завершения активного прохода.
func (t *TickTrigger) Close() error {
	stopCtx := t.cron.Stop()
	<-stopCtx.Done()
	return nil
}

var _ port.EventListenerPort = (*TickTrigger)(nil)

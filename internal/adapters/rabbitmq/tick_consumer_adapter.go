package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"search-service/internal/constants"
	"search-service/internal/contextkeys"
	"search-service/internal/contracts"
	"search-service/internal/core/port"
	"search-service/internal/core/port/usecases_port"
	"search-service/pkg/rabbitmq/rabbitmq_common"
	"search-service/pkg/rabbitmq/rabbitmq_consumer"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// TickConsumerAdapter - входящий адаптер, который слушает очередь команд
// планировщика и запускает проход по due-поискам. Перекрывающиеся команды
// безопасны: взаимное исключение по каждому поиску обеспечивает tick lock.
type TickConsumerAdapter struct {
	consumer rabbitmq_consumer.Consumer
	useCase  usecases_port.RunNotificationTickUseCasePort
	logger   port.LoggerPort
}

// NewTickConsumerAdapter создает новый адаптер
func NewTickConsumerAdapter(
	consumerCfg rabbitmq_consumer.ConsumerConfig,
	useCase usecases_port.RunNotificationTickUseCasePort,
	logger port.LoggerPort,
	connManager *rabbitmq_common.ConnectionManager,
) (*TickConsumerAdapter, error) {

	adapter := &TickConsumerAdapter{
		useCase: useCase,
		logger:  logger,
	}

	// Создаем логгер для pkg-уровня с контекстом нашего компонента
	pkgLogger := logger.WithFields(port.Fields{"component": "rabbitmq_tick_consumer", "consumer_tag": consumerCfg.ConsumerTag})
	consumerCfg.Logger = NewPkgLoggerBridge(pkgLogger)

	consumer, err := rabbitmq_consumer.NewDistributingConsumer(consumerCfg, adapter.messageHandler, connManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create RabbitMQ consumer for scheduler ticks: %w", err)
	}
	adapter.consumer = consumer

	return adapter, nil
}

// Start запускает прослушивание очереди.
func (a *TickConsumerAdapter) Start(ctx context.Context) error {
	return a.consumer.StartConsuming(ctx)
}

// Close корректно останавливает консьюмера.
func (a *TickConsumerAdapter) Close() error {
	return a.consumer.Close()
}

// messageHandler обрабатывает одну команду тика. Возврат ошибки вернет
// сообщение в очередь (и после исчерпания ретраев отправит в DLQ).
func (a *TickConsumerAdapter) messageHandler(d amqp.Delivery) error {
	traceID, _ := d.Headers["x-trace-id"].(string)
	if traceID == "" {
		traceID = uuid.New().String()
	}

	msgLogger := a.logger.WithFields(port.Fields{
		"trace_id":     traceID,
		"message_id":   d.MessageId,
		"adapter_name": "TickConsumerAdapter",
	})

	ctx := context.Background()
	ctx = contextkeys.ContextWithLogger(ctx, msgLogger)
	ctx = contextkeys.ContextWithTraceID(ctx, traceID)

	msgLogger.Info("Received scheduler tick command.", nil)

	eventType, _ := d.Headers["event-type"].(string)
	eventVersion, _ := d.Headers["event-version"].(string)

	// В эту очередь должны попадать только команды тика
	if eventType != constants.EventTypeSchedulerTick {
		err := fmt.Errorf("unexpected event type %q in scheduler ticks queue", eventType)
		msgLogger.Error("Tick command has wrong event type. Rejecting.", err, nil)
		return err
	}

	// Валидация по схеме
	if err := contracts.ValidateEvent(eventType, eventVersion, d.Body); err != nil {
		msgLogger.Error("Tick command failed schema validation. Rejecting.", err, nil)
		return err
	}

	var dto SchedulerTickDTO
	if err := json.Unmarshal(d.Body, &dto); err != nil {
		msgLogger.Error("Failed to unmarshal tick command", err, nil)
		return fmt.Errorf("failed to unmarshal tick command: %w", err)
	}

	asOf := dto.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	stats, err := a.useCase.Execute(ctx, asOf)
	if err != nil {
		msgLogger.Error("Notification tick failed.", err, port.Fields{"tick_id": dto.TickID.String()})
		return err
	}

	msgLogger.Info("Scheduler tick processed.", port.Fields{
		"tick_id": dto.TickID.String(),
		"due":     stats.Due,
		"fired":   stats.Fired,
		"skipped": stats.Skipped,
		"failed":  stats.Failed,
	})
	return nil
}

// проверка соответствия порту на этапе компиляции
var _ port.EventListenerPort = (*TickConsumerAdapter)(nil)

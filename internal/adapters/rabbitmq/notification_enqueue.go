package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"search-service/internal/constants"
	"search-service/internal/contextkeys"
	"search-service/internal/core/port"
	"search-service/pkg/rabbitmq/rabbitmq_producer"

	amqp "github.com/rabbitmq/amqp091-go"
)

// NotificationEnqueueAdapter реализует NotificationDeliveryPort для RabbitMQ.
// "Доставка" здесь означает передачу события сервису уведомлений: успешная
// публикация в обменник - это и есть принятие к доставке.
type NotificationEnqueueAdapter struct {
	producer *rabbitmq_producer.Publisher
}

func NewNotificationEnqueueAdapter(producer *rabbitmq_producer.Publisher) (*NotificationEnqueueAdapter, error) {
	if producer == nil {
		return nil, fmt.Errorf("rabbitmq adapter: producer cannot be nil")
	}
	return &NotificationEnqueueAdapter{producer: producer}, nil
}

func (a *NotificationEnqueueAdapter) Deliver(ctx context.Context, notification port.Notification) error {
	logger := contextkeys.LoggerFromContext(ctx)
	adapterLogger := logger.WithFields(port.Fields{
		"component":    "NotificationEnqueueAdapter",
		"routing_key":  constants.RoutingKeySearchNotification,
		"recipient_id": notification.RecipientID.String(),
	})

	dto := SearchNotificationDTO{
		RecipientID: notification.RecipientID,
		Subject:     notification.Subject,
		Body:        notification.Body,
		Metadata:    notification.Metadata,
	}

	eventJSON, err := json.Marshal(dto)
	if err != nil {
		adapterLogger.Error("Failed to marshal notification to JSON", err, nil)
		return fmt.Errorf("rabbitmq adapter: failed to marshal notification: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         eventJSON,
		DeliveryMode: amqp.Persistent, // Для сохранения сообщений при перезапуске брокера
		Timestamp:    time.Now(),
		Headers: amqp.Table{
			"event-type":    constants.EventTypeSearchNotification,
			"event-version": constants.EventVersionV1,
		},
	}

	if traceID, ok := contextkeys.TraceIDFromContext(ctx); ok && traceID != "" {
		msg.Headers["x-trace-id"] = traceID
	}

	// Устанавливаем таймаут на операцию публикации, если контекст его не предоставляет
	publishCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	adapterLogger.Info("Publishing search notification", nil)
	err = a.producer.Publish(publishCtx, constants.RoutingKeySearchNotification, msg)
	if err != nil {
		adapterLogger.Error("Failed to publish search notification", err, nil)
		return fmt.Errorf("rabbitmq adapter: failed to publish notification: %w", err)
	}

	adapterLogger.Info("Successfully published search notification", nil)
	return nil
}

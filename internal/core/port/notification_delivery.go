package port

import (
	"context"

	"github.com/google/uuid"
)

// Notification - то, что мы передаем внешней доставке (email/очередь).
type Notification struct {
	RecipientID uuid.UUID              `json:"recipient_id"`
	Subject     string                 `json:"subject"`
	Body        string                 `json:"body"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// NotificationDeliveryPort - контракт внешней доставки уведомлений.
// Успех означает только "принято к доставке", подтверждения вручения
// мы не ждем. Ошибка трактуется как транзиентная: поиск остается due.
type NotificationDeliveryPort interface {
	Deliver(ctx context.Context, notification Notification) error
}

package rabbitmq

import (
	"time"

	"github.com/google/uuid"
)

// SchedulerTickDTO - входящая команда "выполни проход планировщика".
type SchedulerTickDTO struct {
	TickID      uuid.UUID `json:"tick_id"`
	AsOf        time.Time `json:"as_of"`
	RequestedBy string    `json:"requested_by,omitempty"`
}

// SearchNotificationDTO - исходящее событие уведомления для внешней доставки.
type SearchNotificationDTO struct {
	RecipientID uuid.UUID              `json:"recipient_id"`
	Subject     string                 `json:"subject"`
	Body        string                 `json:"body"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

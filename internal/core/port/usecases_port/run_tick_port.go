package usecases_port

import (
	"context"
	"time"

	"search-service/internal/core/domain"
)

type RunNotificationTickUseCasePort interface {
	Execute(ctx context.Context, now time.Time) (*domain.TickStats, error)
}

package port

import (
	"context"
	"time"

	"search-service/internal/core/domain"

	"github.com/google/uuid"
)

// SavedSearchRepositoryPort - хранилище сохраненных поисков.
// Проверка владельца (ownerID) обязательна в КАЖДОМ чтении/записи;
// несовпадение дает domain.ErrSavedSearchNotFound, а не "forbidden" -
// чтобы не раскрывать факт существования чужой записи.
type SavedSearchRepositoryPort interface {
	Create(ctx context.Context, search *domain.SavedSearch) error

	FindByID(ctx context.Context, id, ownerID uuid.UUID) (*domain.SavedSearch, error)

	FindAllByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]domain.SavedSearch, int64, error)

	// Update применяет частичное обновление и возвращает новое состояние.
	Update(ctx context.Context, id, ownerID uuid.UUID, upd domain.SavedSearchUpdate) (*domain.SavedSearch, error)

	Delete(ctx context.Context, id, ownerID uuid.UUID) error

	// ListDueForNotification возвращает включенные поиски, чье окно каденции
	// истекло к моменту asOf (или которые еще ни разу не отправлялись).
	ListDueForNotification(ctx context.Context, asOf time.Time) ([]domain.SavedSearch, error)

	// MarkFired - атомарный compare-and-set: продвигает last_fired_at и
	// базовую сводку, только если last_fired_at все еще равен prevFiredAt.
	// false без ошибки означает проигранную гонку с параллельным тиком.
	MarkFired(ctx context.Context, id uuid.UUID, prevFiredAt *time.Time, firedAt time.Time, summary *domain.AggregateSummary) (bool, error)
}

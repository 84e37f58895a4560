package port

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TickLockPort - взаимное исключение по id сохраненного поиска между
// перекрывающимися тиками планировщика. Обработка одного поиска
// (due-check -> execute -> deliver -> mark-fired) не должна идти
// параллельно в двух тиках.
type TickLockPort interface {
	// Acquire пытается захватить блокировку на время ttl.
	// false без ошибки - блокировку уже держит другой тик.
	Acquire(ctx context.Context, searchID uuid.UUID, ttl time.Duration) (bool, error)

	// Release снимает блокировку, если она все еще наша
	// (чужую, перехваченную по истечении ttl, не трогает).
	Release(ctx context.Context, searchID uuid.UUID) error
}

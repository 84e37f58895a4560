package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"search-service/internal/contextkeys"
	"search-service/internal/core/domain"
	"search-service/internal/core/port"

	"golang.org/x/sync/errgroup"
)

// RunNotificationTickUseCase - один проход планировщика уведомлений.
// Гарантия доставки - at-least-once: last_fired_at продвигается ТОЛЬКО
// после успешной передачи уведомления в доставку. Упавшая доставка
// оставляет поиск "due", и следующий тик попробует снова.
type RunNotificationTickUseCase struct {
	repo     port.SavedSearchRepositoryPort
	engine   *filterEngine
	delivery port.NotificationDeliveryPort
	lock     port.TickLockPort

	concurrency   int
	searchTimeout time.Duration
	lockTTL       time.Duration
}

func NewRunNotificationTickUseCase(
	repo port.SavedSearchRepositoryPort,
	recordStore port.RecordStorePort,
	delivery port.NotificationDeliveryPort,
	lock port.TickLockPort,
	concurrency int,
	searchTimeout time.Duration,
) *RunNotificationTickUseCase {
	if concurrency < 1 {
		concurrency = 1
	}
	if searchTimeout <= 0 {
		searchTimeout = 30 * time.Second
	}
	return &RunNotificationTickUseCase{
		repo:          repo,
		engine:        newFilterEngine(recordStore),
		delivery:      delivery,
		lock:          lock,
		concurrency:   concurrency,
		searchTimeout: searchTimeout,
		// TTL блокировки с запасом перекрывает таймаут одного поиска,
		// чтобы блокировка не истекла под живым обработчиком.
		lockTTL: 2 * searchTimeout,
	}
}

// Execute обрабатывает все сохраненные поиски, чье окно каденции истекло
// к моменту now. Ошибка одного поиска не прерывает остальные: каждый
// поиск обрабатывается изолированно, итог сводится в TickStats.
func (uc *RunNotificationTickUseCase) Execute(ctx context.Context, now time.Time) (*domain.TickStats, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	tickLogger := logger.WithFields(port.Fields{
		"use_case": "RunNotificationTick",
		"as_of":    now.UTC().Format(time.RFC3339),
	})

	tickLogger.Info("Notification tick started", nil)

	dueSearches, err := uc.repo.ListDueForNotification(ctx, now)
	if err != nil {
		tickLogger.Error("Failed to list due searches", err, nil)
		return nil, fmt.Errorf("failed to list due searches: %w", err)
	}

	stats := &domain.TickStats{Due: len(dueSearches)}
	if len(dueSearches) == 0 {
		tickLogger.Info("Notification tick finished: nothing due", nil)
		return stats, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.concurrency)

	for _, search := range dueSearches {
		search := search
		g.Go(func() error {
			outcome := uc.processSearch(gctx, &search, now)
			mu.Lock()
			switch outcome {
			case tickFired:
				stats.Fired++
			case tickSkipped:
				stats.Skipped++
			case tickFailed:
				stats.Failed++
			}
			mu.Unlock()
			// Ошибки поиска в статистике; группу не роняем.
			return nil
		})
	}

	// processSearch ошибок не возвращает, Wait здесь только для синхронизации.
	_ = g.Wait()

	tickLogger.Info("Notification tick finished", port.Fields{
		"due":     stats.Due,
		"fired":   stats.Fired,
		"skipped": stats.Skipped,
		"failed":  stats.Failed,
	})
	return stats, nil
}

type tickOutcome int

const (
	tickFired tickOutcome = iota
	tickSkipped
	tickFailed
)

// processSearch обрабатывает один due-поиск под распределенной блокировкой.
// Порядок шагов фиксирован: lock -> повторная проверка due -> выполнение
// фильтра -> доставка -> compare-and-set отметки last_fired_at.
func (uc *RunNotificationTickUseCase) processSearch(ctx context.Context, search *domain.SavedSearch, now time.Time) tickOutcome {
	logger := contextkeys.LoggerFromContext(ctx)
	searchLogger := logger.WithFields(port.Fields{
		"use_case":        "RunNotificationTick.search",
		"saved_search_id": search.ID,
		"owner_id":        search.OwnerID,
		"cadence":         search.Cadence,
	})

	acquired, err := uc.lock.Acquire(ctx, search.ID, uc.lockTTL)
	if err != nil {
		searchLogger.Error("Failed to acquire tick lock", err, nil)
		return tickFailed
	}
	if !acquired {
		// Поиск уже обрабатывает перекрывающийся тик.
		searchLogger.Debug("Search is locked by another tick, skipping", nil)
		return tickSkipped
	}
	defer func() {
		if releaseErr := uc.lock.Release(context.WithoutCancel(ctx), search.ID); releaseErr != nil {
			searchLogger.Warn("Failed to release tick lock", port.Fields{"error": releaseErr.Error()})
		}
	}()

	// Повторная проверка под блокировкой: параллельный тик мог успеть
	// отправить уведомление между ListDueForNotification и Acquire.
	fresh, err := uc.repo.FindByID(ctx, search.ID, search.OwnerID)
	if err != nil {
		searchLogger.Error("Failed to re-read search under lock", err, nil)
		return tickFailed
	}
	if !fresh.IsDue(now) {
		searchLogger.Debug("Search already fired by another tick, skipping", nil)
		return tickSkipped
	}

	searchCtx, cancel := context.WithTimeout(ctx, uc.searchTimeout)
	defer cancel()

	vf, err := domain.ValidateFilterDocument(fresh.Filter)
	if err != nil {
		// Хранимый фильтр перестал проходить валидацию. Ретраить бессмысленно,
		// но и молча помечать отправленным нельзя - считаем неуспехом.
		searchLogger.Error("Stored filter no longer valid", err, nil)
		return tickFailed
	}

	resultSet, err := uc.engine.execute(searchCtx, vf)
	if err != nil {
		searchLogger.Error("Failed to execute saved search filter", err, nil)
		return tickFailed
	}

	currentSummary := resultSet.PrimarySummary(vf.DataType)
	delta := domain.BuildDeltaSummary(currentSummary, fresh.LastSummary)
	notification := uc.buildNotification(fresh, resultSet, delta)

	if err := uc.delivery.Deliver(searchCtx, notification); err != nil {
		// Доставка не удалась: last_fired_at НЕ продвигаем, поиск остается due.
		searchLogger.Error("Notification delivery failed, search stays due", err, nil)
		return tickFailed
	}

	// Отметку пишем вне searchCtx: таймаут выполнения не должен
	// оборвать фиксацию уже доставленного уведомления.
	marked, err := uc.repo.MarkFired(ctx, fresh.ID, fresh.LastFiredAt, now, &currentSummary)
	if err != nil {
		// Уведомление ушло, а отметка не записалась: следующий тик отправит
		// повторно. Это цена at-least-once, дубликат допустим.
		searchLogger.Error("Failed to mark search as fired after delivery", err, nil)
		return tickFailed
	}
	if !marked {
		searchLogger.Warn("Lost mark-fired race after delivery, duplicate notification possible", nil)
		return tickSkipped
	}

	searchLogger.Info("Notification fired", port.Fields{
		"total_matched": resultSet.TotalMatched(),
		"has_baseline":  delta.HasBaseline,
	})
	return tickFired
}

// buildNotification собирает человекочитаемое уведомление и метаданные
// для внешней доставки.
func (uc *RunNotificationTickUseCase) buildNotification(search *domain.SavedSearch, resultSet *domain.SearchResultSet, delta domain.DeltaSummary) port.Notification {
	subject := fmt.Sprintf("Saved search %q: %d matching records", search.Name, resultSet.TotalMatched())

	body := fmt.Sprintf("Your saved search %q matched %d records.", search.Name, resultSet.TotalMatched())
	if delta.HasBaseline {
		body += fmt.Sprintf(" Average changed by %+.2f since the last notification.", delta.Avg.Absolute)
	} else {
		body += " No prior baseline to compare against."
	}

	return port.Notification{
		RecipientID: search.OwnerID,
		Subject:     subject,
		Body:        body,
		Metadata: map[string]interface{}{
			"saved_search_id":   search.ID.String(),
			"saved_search_name": search.Name,
			"cadence":           string(search.Cadence),
			"total_matched":     resultSet.TotalMatched(),
			"delta":             delta,
		},
	}
}

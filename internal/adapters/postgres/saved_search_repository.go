package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"search-service/internal/contextkeys"
	"search-service/internal/core/domain"
	"search-service/internal/core/port"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SavedSearchRepository - реализация порта сохраненных поисков для PostgreSQL.
// owner_id входит в WHERE каждого запроса по id: чужая запись неотличима
// от несуществующей и дает domain.ErrSavedSearchNotFound.
type SavedSearchRepository struct {
	pool *pgxpool.Pool
}

func NewSavedSearchRepository(pool *pgxpool.Pool) (*SavedSearchRepository, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgxpool.Pool cannot be nil")
	}
	return &SavedSearchRepository{pool: pool}, nil
}

const savedSearchColumns = `id, owner_id, name, description, filter, notifications_enabled,
	cadence, last_fired_at, last_summary, created_at, updated_at`

// Create вставляет новый сохраненный поиск.
func (r *SavedSearchRepository) Create(ctx context.Context, search *domain.SavedSearch) error {
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component":       "SavedSearchRepository",
		"method":          "Create",
		"saved_search_id": search.ID,
	})

	filterJSON, err := json.Marshal(search.Filter)
	if err != nil {
		repoLogger.Error("Failed to marshal filter document", err, nil)
		return fmt.Errorf("failed to marshal filter document: %w", err)
	}

	query := `
		INSERT INTO saved_searches
			(id, owner_id, name, description, filter, notifications_enabled, cadence, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = r.pool.Exec(ctx, query,
		search.ID, search.OwnerID, search.Name, search.Description, filterJSON,
		search.NotificationsEnabled, string(search.Cadence), search.CreatedAt, search.UpdatedAt,
	)
	if err != nil {
		repoLogger.Error("Failed to insert saved search", err, nil)
		return fmt.Errorf("failed to insert saved search: %w", err)
	}

	repoLogger.Debug("Saved search created.", nil)
	return nil
}

// FindByID возвращает поиск по id и владельцу.
func (r *SavedSearchRepository) FindByID(ctx context.Context, id, ownerID uuid.UUID) (*domain.SavedSearch, error) {
	query := fmt.Sprintf(`SELECT %s FROM saved_searches WHERE id = $1 AND owner_id = $2`, savedSearchColumns)

	row := r.pool.QueryRow(ctx, query, id, ownerID)
	search, err := scanSavedSearch(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSavedSearchNotFound
		}
		return nil, fmt.Errorf("failed to find saved search: %w", err)
	}
	return search, nil
}

// FindAllByOwner возвращает страницу поисков владельца и общее количество.
func (r *SavedSearchRepository) FindAllByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]domain.SavedSearch, int64, error) {
	var totalCount int64
	countQuery := `SELECT COUNT(*) FROM saved_searches WHERE owner_id = $1`
	if err := r.pool.QueryRow(ctx, countQuery, ownerID).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count saved searches: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM saved_searches
		WHERE owner_id = $1
		ORDER BY created_at DESC, id ASC
		LIMIT $2 OFFSET $3`, savedSearchColumns)

	rows, err := r.pool.Query(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query saved searches: %w", err)
	}
	defer rows.Close()

	searches := make([]domain.SavedSearch, 0, limit)
	for rows.Next() {
		search, err := scanSavedSearch(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan saved search row: %w", err)
		}
		searches = append(searches, *search)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating saved search rows: %w", err)
	}

	return searches, totalCount, nil
}

// Update применяет частичное обновление. SET-часть строится динамически
// только из заданных полей; last_fired_at и last_summary сюда не входят
// намеренно - их продвигает только MarkFired.
func (r *SavedSearchRepository) Update(ctx context.Context, id, ownerID uuid.UUID, upd domain.SavedSearchUpdate) (*domain.SavedSearch, error) {
	setParts := make([]string, 0, 6)
	args := make([]interface{}, 0, 8)
	argId := 1

	addSet := func(column string, value interface{}) {
		setParts = append(setParts, fmt.Sprintf("%s = $%d", column, argId))
		args = append(args, value)
		argId++
	}

	if upd.Name != nil {
		addSet("name", *upd.Name)
	}
	if upd.Description != nil {
		addSet("description", *upd.Description)
	}
	if upd.Filter != nil {
		filterJSON, err := json.Marshal(*upd.Filter)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal filter document: %w", err)
		}
		addSet("filter", filterJSON)
	}
	if upd.NotificationsEnabled != nil {
		addSet("notifications_enabled", *upd.NotificationsEnabled)
	}
	if upd.Cadence != nil {
		addSet("cadence", string(*upd.Cadence))
	}

	if len(setParts) == 0 {
		// Нечего менять - возвращаем текущее состояние.
		return r.FindByID(ctx, id, ownerID)
	}

	addSet("updated_at", time.Now().UTC())

	query := fmt.Sprintf(`
		UPDATE saved_searches
		SET %s
		WHERE id = $%d AND owner_id = $%d
		RETURNING %s`,
		strings.Join(setParts, ", "), argId, argId+1, savedSearchColumns,
	)
	args = append(args, id, ownerID)

	row := r.pool.QueryRow(ctx, query, args...)
	search, err := scanSavedSearch(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSavedSearchNotFound
		}
		return nil, fmt.Errorf("failed to update saved search: %w", err)
	}
	return search, nil
}

// Delete удаляет поиск владельца.
func (r *SavedSearchRepository) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	query := `DELETE FROM saved_searches WHERE id = $1 AND owner_id = $2`

	cmdTag, err := r.pool.Exec(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete saved search: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrSavedSearchNotFound
	}
	return nil
}

// ListDueForNotification возвращает включенные поиски, чье окно каденции
// истекло к asOf. Окна фиксированной длины: daily = 24h, weekly = 7d,
// monthly = 30d, без учета календаря.
func (r *SavedSearchRepository) ListDueForNotification(ctx context.Context, asOf time.Time) ([]domain.SavedSearch, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM saved_searches
		WHERE notifications_enabled = true
		  AND (
			last_fired_at IS NULL
			OR (cadence = 'daily'   AND last_fired_at <= $1::timestamptz - INTERVAL '24 hours')
			OR (cadence = 'weekly'  AND last_fired_at <= $1::timestamptz - INTERVAL '7 days')
			OR (cadence = 'monthly' AND last_fired_at <= $1::timestamptz - INTERVAL '30 days')
		  )
		ORDER BY last_fired_at ASC NULLS FIRST, id ASC`, savedSearchColumns)

	rows, err := r.pool.Query(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to query due searches: %w", err)
	}
	defer rows.Close()

	searches := make([]domain.SavedSearch, 0)
	for rows.Next() {
		search, err := scanSavedSearch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan due search row: %w", err)
		}
		searches = append(searches, *search)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating due search rows: %w", err)
	}

	return searches, nil
}

// MarkFired - атомарный compare-and-set отметки последней отправки.
// IS NOT DISTINCT FROM корректно сравнивает и NULL-значения: первая
// отправка (prevFiredAt == nil) проходит по той же ветке.
// false без ошибки - отметку уже продвинул параллельный тик.
func (r *SavedSearchRepository) MarkFired(ctx context.Context, id uuid.UUID, prevFiredAt *time.Time, firedAt time.Time, summary *domain.AggregateSummary) (bool, error) {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return false, fmt.Errorf("failed to marshal aggregate summary: %w", err)
	}

	query := `
		UPDATE saved_searches
		SET last_fired_at = $1, last_summary = $2, updated_at = $3
		WHERE id = $4 AND last_fired_at IS NOT DISTINCT FROM $5`

	cmdTag, err := r.pool.Exec(ctx, query, firedAt, summaryJSON, time.Now().UTC(), id, prevFiredAt)
	if err != nil {
		return false, fmt.Errorf("failed to mark search as fired: %w", err)
	}
	return cmdTag.RowsAffected() > 0, nil
}

// rowScanner покрывает и pgx.Row, и pgx.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSavedSearch(row rowScanner) (*domain.SavedSearch, error) {
	var search domain.SavedSearch
	var cadence string
	var filterJSON []byte
	var summaryJSON []byte

	err := row.Scan(
		&search.ID, &search.OwnerID, &search.Name, &search.Description, &filterJSON,
		&search.NotificationsEnabled, &cadence, &search.LastFiredAt, &summaryJSON,
		&search.CreatedAt, &search.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	search.Cadence = domain.Cadence(cadence)

	if err := json.Unmarshal(filterJSON, &search.Filter); err != nil {
		return nil, fmt.Errorf("failed to unmarshal filter document: %w", err)
	}
	if len(summaryJSON) > 0 && string(summaryJSON) != "null" {
		var summary domain.AggregateSummary
		if err := json.Unmarshal(summaryJSON, &summary); err != nil {
			return nil, fmt.Errorf("failed to unmarshal last summary: %w", err)
		}
		search.LastSummary = &summary
	}

	return &search, nil
}

package postgres

import (
	"context"
	"fmt"

	"search-service/internal/core/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RecordRepository - read-only доступ к таблице records.
// Таблица наполняется пайплайном другого сервиса; здесь только чтение.
type RecordRepository struct {
	pool *pgxpool.Pool
}

func NewRecordRepository(pool *pgxpool.Pool) (*RecordRepository, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgxpool.Pool cannot be nil")
	}
	return &RecordRepository{pool: pool}, nil
}

// FindByPredicate возвращает страницу записей. LIMIT/OFFSET применяются
// после ORDER BY, так что страницы одного предиката на неизменных данных
// не пересекаются.
func (r *RecordRepository) FindByPredicate(ctx context.Context, p domain.RecordPredicate, limit, offset int) ([]domain.Record, error) {
	whereClause, args := applyPredicate(p)

	query := fmt.Sprintf(`
		SELECT r.id, r.kind, r.region, r.price, r.rent,
		       r.price_change_pct, r.rent_change_pct, r.affordability_index, r.recorded_at
		FROM records r
		%s
		%s
		LIMIT $%d OFFSET $%d`,
		whereClause, orderByClause(p), len(args)+1, len(args)+2,
	)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	records := make([]domain.Record, 0, limit)
	for rows.Next() {
		var rec domain.Record
		err := rows.Scan(
			&rec.ID, &rec.Kind, &rec.Region, &rec.Price, &rec.Rent,
			&rec.PriceChangePct, &rec.RentChangePct, &rec.AffordabilityIndex, &rec.RecordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating record rows: %w", err)
	}

	return records, nil
}

// Count - размер полного совпавшего набора, без пагинации.
func (r *RecordRepository) Count(ctx context.Context, p domain.RecordPredicate) (int64, error) {
	whereClause, args := applyPredicate(p)

	query := fmt.Sprintf(`SELECT COUNT(*) FROM records r %s`, whereClause)

	var count int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// Aggregate считает сводку по полному совпавшему набору. Агрегируемое
// поле зависит от вида: аренда для rent-записей, цена для остальных.
// COALESCE дает нулевые значения на пустом наборе вместо NULL.
func (r *RecordRepository) Aggregate(ctx context.Context, p domain.RecordPredicate) (*domain.AggregateSummary, error) {
	whereClause, args := applyPredicate(p)

	field := "r.price"
	if p.Kind == domain.KindRent {
		field = "r.rent"
	}

	query := fmt.Sprintf(`
		SELECT COUNT(*),
		       COALESCE(MIN(%s), 0),
		       COALESCE(MAX(%s), 0),
		       COALESCE(AVG(%s), 0)
		FROM records r
		%s`,
		field, field, field, whereClause,
	)

	var summary domain.AggregateSummary
	err := r.pool.QueryRow(ctx, query, args...).Scan(&summary.Count, &summary.Min, &summary.Max, &summary.Avg)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate records: %w", err)
	}
	return &summary, nil
}

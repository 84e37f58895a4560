package postgres

import (
	"testing"

	"search-service/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestApplyPredicate_KindOnly(t *testing.T) {
	where, args := applyPredicate(domain.RecordPredicate{Kind: domain.KindHousing})

	assert.Equal(t, "WHERE r.kind = $1", where)
	require.Len(t, args, 1)
	assert.Equal(t, "housing", args[0])
}

func TestApplyPredicate_NilBoundsProduceNoConditions(t *testing.T) {
	where, args := applyPredicate(domain.RecordPredicate{
		Kind:     domain.KindHousing,
		PriceMin: f(100000),
		// PriceMax nil - "не ограничено", в запрос не попадает
	})

	assert.Equal(t, "WHERE r.kind = $1 AND r.price >= $2", where)
	assert.Len(t, args, 2)
}

func TestApplyPredicate_ChangeColumnDependsOnKind(t *testing.T) {
	where, _ := applyPredicate(domain.RecordPredicate{
		Kind:      domain.KindRent,
		ChangeMin: f(-5),
	})
	assert.Contains(t, where, "r.rent_change_pct >= $2")

	where, _ = applyPredicate(domain.RecordPredicate{
		Kind:      domain.KindTrends,
		ChangeMin: f(-5),
	})
	assert.Contains(t, where, "r.price_change_pct >= $2")
}

func TestApplyPredicate_RegionsUseAny(t *testing.T) {
	where, args := applyPredicate(domain.RecordPredicate{
		Kind:    domain.KindRent,
		Regions: []string{"CA", "NY"},
	})

	assert.Contains(t, where, "r.region = ANY($2)")
	require.Len(t, args, 2)
	assert.Equal(t, []string{"CA", "NY"}, args[1])
}

func TestApplyPredicate_ArgNumberingIsSequential(t *testing.T) {
	where, args := applyPredicate(domain.RecordPredicate{
		Kind:             domain.KindRent,
		Regions:          []string{"CA"},
		RentMin:          f(1000),
		RentMax:          f(3000),
		AffordabilityMin: f(60),
	})

	assert.Equal(t,
		"WHERE r.kind = $1 AND r.region = ANY($2) AND r.rent >= $3 AND r.rent <= $4 AND r.affordability_index >= $5",
		where,
	)
	assert.Len(t, args, 5)
}

func TestOrderByClause_StableTiebreak(t *testing.T) {
	clause := orderByClause(domain.RecordPredicate{
		SortKey:       domain.SortByRent,
		SortDirection: domain.SortDesc,
	})
	assert.Equal(t, "ORDER BY r.rent DESC, r.id ASC", clause)

	clause = orderByClause(domain.RecordPredicate{
		SortKey:       domain.SortByDate,
		SortDirection: domain.SortAsc,
	})
	assert.Equal(t, "ORDER BY r.recorded_at ASC, r.id ASC", clause)
}

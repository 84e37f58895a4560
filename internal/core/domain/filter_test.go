package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }
func i(v int) *int         { return &v }

func TestValidateFilterDocument_Defaults(t *testing.T) {
	vf, err := ValidateFilterDocument(FilterDocument{})
	require.NoError(t, err)

	assert.Equal(t, SortByDate, vf.SortKey)
	assert.Equal(t, SortDesc, vf.SortDirection)
	assert.Equal(t, DefaultPageSize, vf.PageSize)
	assert.Equal(t, 0, vf.PageOffset)
	assert.Nil(t, vf.Regions)
	assert.Empty(t, vf.DataType)
}

func TestValidateFilterDocument_InvertedRangeRejected(t *testing.T) {
	// Инвертированный диапазон отклоняется, а не переставляется
	_, err := ValidateFilterDocument(FilterDocument{
		PriceRange: &Range{Min: f(500000), Max: f(100000)},
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	_, err = ValidateFilterDocument(FilterDocument{
		RentRange: &Range{Min: f(3000), Max: f(1000)},
	})
	require.Error(t, err)

	_, err = ValidateFilterDocument(FilterDocument{
		ChangeRange: &Range{Min: f(10), Max: f(-10)},
	})
	require.Error(t, err)
}

func TestValidateFilterDocument_HalfOpenRangeAllowed(t *testing.T) {
	vf, err := ValidateFilterDocument(FilterDocument{
		PriceRange: &Range{Min: f(100000)},
	})
	require.NoError(t, err)
	require.NotNil(t, vf.PriceRange.Min)
	assert.Equal(t, 100000.0, *vf.PriceRange.Min)
	assert.Nil(t, vf.PriceRange.Max)
}

func TestValidateFilterDocument_ChangeRangeBounds(t *testing.T) {
	_, err := ValidateFilterDocument(FilterDocument{
		ChangeRange: &Range{Min: f(-150)},
	})
	require.Error(t, err)

	_, err = ValidateFilterDocument(FilterDocument{
		ChangeRange: &Range{Max: f(101)},
	})
	require.Error(t, err)

	vf, err := ValidateFilterDocument(FilterDocument{
		ChangeRange: &Range{Min: f(-100), Max: f(100)},
	})
	require.NoError(t, err)
	assert.Equal(t, -100.0, *vf.ChangeRange.Min)
}

func TestValidateFilterDocument_AffordabilityBounds(t *testing.T) {
	_, err := ValidateFilterDocument(FilterDocument{AffordabilityThreshold: f(-1)})
	require.Error(t, err)

	_, err = ValidateFilterDocument(FilterDocument{AffordabilityThreshold: f(100.5)})
	require.Error(t, err)

	vf, err := ValidateFilterDocument(FilterDocument{AffordabilityThreshold: f(60)})
	require.NoError(t, err)
	require.NotNil(t, vf.AffordabilityThreshold)
	assert.Equal(t, 60.0, *vf.AffordabilityThreshold)
}

func TestValidateFilterDocument_PageSizeBounds(t *testing.T) {
	_, err := ValidateFilterDocument(FilterDocument{PageSize: i(0)})
	require.Error(t, err)

	_, err = ValidateFilterDocument(FilterDocument{PageSize: i(101)})
	require.Error(t, err)

	vf, err := ValidateFilterDocument(FilterDocument{PageSize: i(100)})
	require.NoError(t, err)
	assert.Equal(t, 100, vf.PageSize)

	_, err = ValidateFilterDocument(FilterDocument{PageOffset: i(-1)})
	require.Error(t, err)
}

func TestValidateFilterDocument_UnknownEnumsRejected(t *testing.T) {
	_, err := ValidateFilterDocument(FilterDocument{DataType: "land"})
	require.Error(t, err)

	_, err = ValidateFilterDocument(FilterDocument{SortKey: "popularity"})
	require.Error(t, err)

	_, err = ValidateFilterDocument(FilterDocument{SortDirection: "up"})
	require.Error(t, err)
}

func TestValidateFilterDocument_RegionNormalization(t *testing.T) {
	vf, err := ValidateFilterDocument(FilterDocument{
		Regions: []string{"ca", "CA", " ny ", "", "Ca"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"CA", "NY"}, vf.Regions)
}

func TestValidateFilterDocument_EmptyRegionsMeansUnbounded(t *testing.T) {
	vf, err := ValidateFilterDocument(FilterDocument{Regions: []string{"", "  "}})
	require.NoError(t, err)
	assert.Nil(t, vf.Regions)
}

func TestValidatedFilter_Kinds(t *testing.T) {
	vf, err := ValidateFilterDocument(FilterDocument{DataType: "rent"})
	require.NoError(t, err)
	assert.Equal(t, []RecordKind{KindRent}, vf.Kinds())

	vf, err = ValidateFilterDocument(FilterDocument{})
	require.NoError(t, err)
	assert.Equal(t, []RecordKind{KindHousing, KindRent, KindTrends}, vf.Kinds())
}

func TestPredicateForKind_NarrowsRangesPerKind(t *testing.T) {
	vf, err := ValidateFilterDocument(FilterDocument{
		PriceRange:  &Range{Min: f(100000), Max: f(500000)},
		RentRange:   &Range{Min: f(1000), Max: f(3000)},
		ChangeRange: &Range{Min: f(-5), Max: f(5)},
	})
	require.NoError(t, err)

	// Ценовой диапазон действует только на housing
	housing := vf.PredicateForKind(KindHousing)
	assert.NotNil(t, housing.PriceMin)
	assert.Nil(t, housing.RentMin)
	assert.NotNil(t, housing.ChangeMin)

	// Арендный диапазон действует только на rent
	rent := vf.PredicateForKind(KindRent)
	assert.Nil(t, rent.PriceMin)
	assert.NotNil(t, rent.RentMin)
	assert.NotNil(t, rent.ChangeMax)

	// Тренды фильтруются только по изменению
	trends := vf.PredicateForKind(KindTrends)
	assert.Nil(t, trends.PriceMin)
	assert.Nil(t, trends.RentMin)
	assert.NotNil(t, trends.ChangeMin)
}

package usecase

import (
	"context"
	"testing"

	"search-service/internal/core/domain"
	"search-service/internal/core/port/usecases_port"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveSearch_CreatesWithValidInput(t *testing.T) {
	repo := newMemSavedSearchRepo()
	uc := NewSaveSearchUseCase(repo)
	ownerID := uuid.New()

	search, err := uc.Execute(context.Background(), ownerID, usecases_port.SaveSearchInput{
		Name:                 "cheap CA rentals",
		Filter:               domain.FilterDocument{Regions: []string{"CA"}, DataType: "rent"},
		NotificationsEnabled: true,
		Cadence:              domain.CadenceWeekly,
	})
	require.NoError(t, err)
	assert.Equal(t, ownerID, search.OwnerID)
	assert.Nil(t, search.LastFiredAt)

	stored, err := repo.FindByID(context.Background(), search.ID, ownerID)
	require.NoError(t, err)
	assert.Equal(t, "cheap CA rentals", stored.Name)
}

func TestSaveSearch_RejectsInvalidInput(t *testing.T) {
	uc := NewSaveSearchUseCase(newMemSavedSearchRepo())
	ownerID := uuid.New()

	_, err := uc.Execute(context.Background(), ownerID, usecases_port.SaveSearchInput{
		Name:    "",
		Cadence: domain.CadenceDaily,
	})
	require.Error(t, err)

	_, err = uc.Execute(context.Background(), ownerID, usecases_port.SaveSearchInput{
		Name:    "bad cadence",
		Cadence: "hourly",
	})
	require.Error(t, err)

	// Невалидный фильтр в хранилище попасть не должен
	_, err = uc.Execute(context.Background(), ownerID, usecases_port.SaveSearchInput{
		Name:    "inverted range",
		Cadence: domain.CadenceDaily,
		Filter:  domain.FilterDocument{PriceRange: &domain.Range{Min: f(500000), Max: f(100000)}},
	})
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))
}

func TestGetSavedSearch_OtherOwnerGetsNotFound(t *testing.T) {
	repo := newMemSavedSearchRepo()
	ownerID := uuid.New()
	search := domain.NewSavedSearch(ownerID, "mine", "", domain.FilterDocument{}, false, domain.CadenceDaily)
	require.NoError(t, repo.Create(context.Background(), search))

	uc := NewGetSavedSearchUseCase(repo)

	// Чужой пользователь получает тот же not found, что и для несуществующего id
	_, err := uc.Execute(context.Background(), search.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrSavedSearchNotFound)

	_, err = uc.Execute(context.Background(), uuid.New(), ownerID)
	assert.ErrorIs(t, err, domain.ErrSavedSearchNotFound)

	got, err := uc.Execute(context.Background(), search.ID, ownerID)
	require.NoError(t, err)
	assert.Equal(t, search.ID, got.ID)
}

func TestUpdateSavedSearch_ValidatesNewFilterAndCadence(t *testing.T) {
	repo := newMemSavedSearchRepo()
	ownerID := uuid.New()
	search := domain.NewSavedSearch(ownerID, "mine", "", domain.FilterDocument{}, false, domain.CadenceDaily)
	require.NoError(t, repo.Create(context.Background(), search))

	uc := NewUpdateSavedSearchUseCase(repo)

	badCadence := domain.Cadence("hourly")
	_, err := uc.Execute(context.Background(), search.ID, ownerID, domain.SavedSearchUpdate{Cadence: &badCadence})
	require.Error(t, err)

	badFilter := domain.FilterDocument{RentRange: &domain.Range{Min: f(3000), Max: f(1000)}}
	_, err = uc.Execute(context.Background(), search.ID, ownerID, domain.SavedSearchUpdate{Filter: &badFilter})
	require.Error(t, err)

	newName := "renamed"
	enabled := true
	updated, err := uc.Execute(context.Background(), search.ID, ownerID, domain.SavedSearchUpdate{
		Name:                 &newName,
		NotificationsEnabled: &enabled,
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	assert.True(t, updated.NotificationsEnabled)
	// Отметка последней отправки частичным обновлением не затрагивается
	assert.Nil(t, updated.LastFiredAt)
}

func TestDeleteSavedSearch(t *testing.T) {
	repo := newMemSavedSearchRepo()
	ownerID := uuid.New()
	search := domain.NewSavedSearch(ownerID, "mine", "", domain.FilterDocument{}, false, domain.CadenceDaily)
	require.NoError(t, repo.Create(context.Background(), search))

	uc := NewDeleteSavedSearchUseCase(repo)

	require.ErrorIs(t, uc.Execute(context.Background(), search.ID, uuid.New()), domain.ErrSavedSearchNotFound)
	require.NoError(t, uc.Execute(context.Background(), search.ID, ownerID))
	require.ErrorIs(t, uc.Execute(context.Background(), search.ID, ownerID), domain.ErrSavedSearchNotFound)
}

func TestListSavedSearches_Pagination(t *testing.T) {
	repo := newMemSavedSearchRepo()
	ownerID := uuid.New()
	for i := 0; i < 5; i++ {
		s := domain.NewSavedSearch(ownerID, "search", "", domain.FilterDocument{}, false, domain.CadenceDaily)
		require.NoError(t, repo.Create(context.Background(), s))
	}
	// Чужие поиски в выдачу не попадают
	other := domain.NewSavedSearch(uuid.New(), "other", "", domain.FilterDocument{}, false, domain.CadenceDaily)
	require.NoError(t, repo.Create(context.Background(), other))

	uc := NewListSavedSearchesUseCase(repo)

	page, err := uc.Execute(context.Background(), ownerID, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.TotalCount)
	assert.Len(t, page.Searches, 2)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 2, page.ItemsPerPage)
}

func TestListSavedSearches_ClampsBadPagination(t *testing.T) {
	repo := newMemSavedSearchRepo()
	ownerID := uuid.New()
	for i := 0; i < 3; i++ {
		s := domain.NewSavedSearch(ownerID, "search", "", domain.FilterDocument{}, false, domain.CadenceDaily)
		require.NoError(t, repo.Create(context.Background(), s))
	}

	uc := NewListSavedSearchesUseCase(repo)

	// Нулевой limit не должен ронять деление на ноль - применяется дефолт
	page, err := uc.Execute(context.Background(), ownerID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 20, page.ItemsPerPage)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Len(t, page.Searches, 3)

	page, err = uc.Execute(context.Background(), ownerID, 500, -10)
	require.NoError(t, err)
	assert.Equal(t, 20, page.ItemsPerPage)
	assert.Equal(t, 1, page.CurrentPage)
}

func TestExecuteSavedSearch_RunsStoredFilter(t *testing.T) {
	repo := newMemSavedSearchRepo()
	ownerID := uuid.New()
	search := domain.NewSavedSearch(ownerID, "CA rents", "", domain.FilterDocument{
		Regions:   []string{"CA"},
		RentRange: &domain.Range{Min: f(1000), Max: f(3000)},
		DataType:  "rent",
	}, true, domain.CadenceWeekly)
	require.NoError(t, repo.Create(context.Background(), search))

	uc := NewExecuteSavedSearchUseCase(repo, caRentStore())

	result, err := uc.Execute(context.Background(), search.ID, ownerID)
	require.NoError(t, err)
	require.Len(t, result.Kinds, 1)
	assert.Equal(t, int64(3), result.Kinds[0].TotalCount)

	_, err = uc.Execute(context.Background(), search.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrSavedSearchNotFound)
}

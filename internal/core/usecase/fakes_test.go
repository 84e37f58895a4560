package usecase

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"search-service/internal/core/domain"
	"search-service/internal/core/port"

	"github.com/google/uuid"
)

// memRecordStore - хранилище записей в памяти с честной реализацией
// предикатов, сортировки и пагинации.
type memRecordStore struct {
	records []domain.Record
}

func (s *memRecordStore) matching(p domain.RecordPredicate) []domain.Record {
	matched := make([]domain.Record, 0)
	for _, rec := range s.records {
		if rec.Kind != p.Kind {
			continue
		}
		if len(p.Regions) > 0 && !containsRegion(p.Regions, rec.Region) {
			continue
		}
		if p.PriceMin != nil && rec.Price < *p.PriceMin {
			continue
		}
		if p.PriceMax != nil && rec.Price > *p.PriceMax {
			continue
		}
		if p.RentMin != nil && rec.Rent < *p.RentMin {
			continue
		}
		if p.RentMax != nil && rec.Rent > *p.RentMax {
			continue
		}
		change := rec.PriceChangePct
		if p.Kind == domain.KindRent {
			change = rec.RentChangePct
		}
		if p.ChangeMin != nil && change < *p.ChangeMin {
			continue
		}
		if p.ChangeMax != nil && change > *p.ChangeMax {
			continue
		}
		if p.AffordabilityMin != nil && rec.AffordabilityIndex < *p.AffordabilityMin {
			continue
		}
		matched = append(matched, rec)
	}
	return matched
}

func containsRegion(regions []string, region string) bool {
	for _, r := range regions {
		if r == region {
			return true
		}
	}
	return false
}

func sortValue(rec domain.Record, key domain.SortKey) float64 {
	switch key {
	case domain.SortByPrice:
		return rec.Price
	case domain.SortByRent:
		return rec.Rent
	case domain.SortByPriceChange:
		return rec.PriceChangePct
	case domain.SortByRentChange:
		return rec.RentChangePct
	}
	return float64(rec.RecordedAt.UnixNano())
}

func (s *memRecordStore) FindByPredicate(ctx context.Context, p domain.RecordPredicate, limit, offset int) ([]domain.Record, error) {
	matched := s.matching(p)

	sort.SliceStable(matched, func(i, j int) bool {
		vi, vj := sortValue(matched[i], p.SortKey), sortValue(matched[j], p.SortKey)
		if vi != vj {
			if p.SortDirection == domain.SortDesc {
				return vi > vj
			}
			return vi < vj
		}
		// Равные значения добиваются по id ASC
		return bytes.Compare(matched[i].ID[:], matched[j].ID[:]) < 0
	})

	if offset >= len(matched) {
		return []domain.Record{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (s *memRecordStore) Count(ctx context.Context, p domain.RecordPredicate) (int64, error) {
	return int64(len(s.matching(p))), nil
}

func (s *memRecordStore) Aggregate(ctx context.Context, p domain.RecordPredicate) (*domain.AggregateSummary, error) {
	matched := s.matching(p)
	summary := &domain.AggregateSummary{Count: int64(len(matched))}
	if len(matched) == 0 {
		return summary, nil
	}

	var sum float64
	for i, rec := range matched {
		v := rec.Price
		if p.Kind == domain.KindRent {
			v = rec.Rent
		}
		if i == 0 || v < summary.Min {
			summary.Min = v
		}
		if i == 0 || v > summary.Max {
			summary.Max = v
		}
		sum += v
	}
	summary.Avg = sum / float64(len(matched))
	return summary, nil
}

var _ port.RecordStorePort = (*memRecordStore)(nil)

// memSavedSearchRepo - хранилище сохраненных поисков в памяти.
// MarkFired повторяет compare-and-set семантику SQL-реализации.
type memSavedSearchRepo struct {
	mu       sync.Mutex
	searches map[uuid.UUID]*domain.SavedSearch

	markFiredCalls int
}

func newMemSavedSearchRepo() *memSavedSearchRepo {
	return &memSavedSearchRepo{searches: make(map[uuid.UUID]*domain.SavedSearch)}
}

func (r *memSavedSearchRepo) Create(ctx context.Context, search *domain.SavedSearch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *search
	r.searches[search.ID] = &cp
	return nil
}

func (r *memSavedSearchRepo) FindByID(ctx context.Context, id, ownerID uuid.UUID) (*domain.SavedSearch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.searches[id]
	if !ok || s.OwnerID != ownerID {
		return nil, domain.ErrSavedSearchNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *memSavedSearchRepo) FindAllByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]domain.SavedSearch, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	owned := make([]domain.SavedSearch, 0)
	for _, s := range r.searches {
		if s.OwnerID == ownerID {
			owned = append(owned, *s)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		return owned[i].CreatedAt.After(owned[j].CreatedAt)
	})
	total := int64(len(owned))
	if offset >= len(owned) {
		return []domain.SavedSearch{}, total, nil
	}
	end := offset + limit
	if end > len(owned) {
		end = len(owned)
	}
	return owned[offset:end], total, nil
}

func (r *memSavedSearchRepo) Update(ctx context.Context, id, ownerID uuid.UUID, upd domain.SavedSearchUpdate) (*domain.SavedSearch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.searches[id]
	if !ok || s.OwnerID != ownerID {
		return nil, domain.ErrSavedSearchNotFound
	}
	if upd.Name != nil {
		s.Name = *upd.Name
	}
	if upd.Description != nil {
		s.Description = *upd.Description
	}
	if upd.Filter != nil {
		s.Filter = *upd.Filter
	}
	if upd.NotificationsEnabled != nil {
		s.NotificationsEnabled = *upd.NotificationsEnabled
	}
	if upd.Cadence != nil {
		s.Cadence = *upd.Cadence
	}
	s.UpdatedAt = time.Now().UTC()
	cp := *s
	return &cp, nil
}

func (r *memSavedSearchRepo) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.searches[id]
	if !ok || s.OwnerID != ownerID {
		return domain.ErrSavedSearchNotFound
	}
	delete(r.searches, id)
	return nil
}

func (r *memSavedSearchRepo) ListDueForNotification(ctx context.Context, asOf time.Time) ([]domain.SavedSearch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	due := make([]domain.SavedSearch, 0)
	for _, s := range r.searches {
		if s.IsDue(asOf) {
			due = append(due, *s)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		return bytes.Compare(due[i].ID[:], due[j].ID[:]) < 0
	})
	return due, nil
}

func (r *memSavedSearchRepo) MarkFired(ctx context.Context, id uuid.UUID, prevFiredAt *time.Time, firedAt time.Time, summary *domain.AggregateSummary) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markFiredCalls++
	s, ok := r.searches[id]
	if !ok {
		return false, nil
	}
	// IS NOT DISTINCT FROM: оба nil или оба равны
	switch {
	case s.LastFiredAt == nil && prevFiredAt == nil:
	case s.LastFiredAt != nil && prevFiredAt != nil && s.LastFiredAt.Equal(*prevFiredAt):
	default:
		return false, nil
	}
	ts := firedAt
	s.LastFiredAt = &ts
	if summary != nil {
		cp := *summary
		s.LastSummary = &cp
	}
	s.UpdatedAt = time.Now().UTC()
	return true, nil
}

var _ port.SavedSearchRepositoryPort = (*memSavedSearchRepo)(nil)

// fakeDelivery собирает переданные уведомления; может отказывать
// выборочно по получателю.
type fakeDelivery struct {
	mu        sync.Mutex
	delivered []port.Notification
	failFor   map[uuid.UUID]error
}

func newFakeDelivery() *fakeDelivery {
	return &fakeDelivery{failFor: make(map[uuid.UUID]error)}
}

func (d *fakeDelivery) Deliver(ctx context.Context, n port.Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err, ok := d.failFor[n.RecipientID]; ok {
		return err
	}
	d.delivered = append(d.delivered, n)
	return nil
}

func (d *fakeDelivery) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.delivered)
}

var _ port.NotificationDeliveryPort = (*fakeDelivery)(nil)

// memTickLock - локальная блокировка по id поиска.
type memTickLock struct {
	mu   sync.Mutex
	held map[uuid.UUID]bool
}

func newMemTickLock() *memTickLock {
	return &memTickLock{held: make(map[uuid.UUID]bool)}
}

func (l *memTickLock) Acquire(ctx context.Context, searchID uuid.UUID, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[searchID] {
		return false, nil
	}
	l.held[searchID] = true
	return true, nil
}

func (l *memTickLock) Release(ctx context.Context, searchID uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, searchID)
	return nil
}

var _ port.TickLockPort = (*memTickLock)(nil)

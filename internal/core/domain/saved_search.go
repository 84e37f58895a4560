package domain

import (
	"time"

	"github.com/google/uuid"
)

// Cadence - класс частоты уведомлений.
type Cadence string

const (
	CadenceDaily   Cadence = "daily"
	CadenceWeekly  Cadence = "weekly"
	CadenceMonthly Cadence = "monthly"
)

// IsValid проверяет, что значение каденции известно.
func (c Cadence) IsValid() bool {
	switch c {
	case CadenceDaily, CadenceWeekly, CadenceMonthly:
		return true
	}
	return false
}

// Window возвращает окно каденции фиксированной длины:
// daily = 24h, weekly = 7d, monthly = 30d. Месяц здесь - намеренное
// упрощение (ровно 30 суток), без учета календаря и DST.
func (c Cadence) Window() time.Duration {
	switch c {
	case CadenceDaily:
		return 24 * time.Hour
	case CadenceWeekly:
		return 7 * 24 * time.Hour
	case CadenceMonthly:
		return 30 * 24 * time.Hour
	}
	return 0
}

// SavedSearch - сохраненный поиск. Принадлежит ровно одному пользователю:
// читать/изменять/удалять его может только владелец.
type SavedSearch struct {
	ID                   uuid.UUID      `json:"id"`
	OwnerID              uuid.UUID      `json:"owner_id"`
	Name                 string         `json:"name"`
	Description          string         `json:"description,omitempty"`
	Filter               FilterDocument `json:"filter"`
	NotificationsEnabled bool           `json:"notifications_enabled"`
	Cadence              Cadence        `json:"cadence"`
	// LastFiredAt изменяется ТОЛЬКО планировщиком уведомлений,
	// никогда - прямым редактированием пользователя.
	LastFiredAt *time.Time `json:"last_fired_at,omitempty"`
	// LastSummary - сводка, зафиксированная при последней успешной
	// отправке; база для дельты следующего уведомления.
	LastSummary *AggregateSummary `json:"last_summary,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// NewSavedSearch - конструктор для создания нового сохраненного поиска
func NewSavedSearch(ownerID uuid.UUID, name, description string, filter FilterDocument, notificationsEnabled bool, cadence Cadence) *SavedSearch {
	now := time.Now().UTC()
	return &SavedSearch{
		ID:                   uuid.New(),
		OwnerID:              ownerID,
		Name:                 name,
		Description:          description,
		Filter:               filter,
		NotificationsEnabled: notificationsEnabled,
		Cadence:              cadence,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// IsDue - true, когда поиску пора отправлять уведомление: уведомления
// включены и (еще ни разу не отправляли ИЛИ окно каденции истекло).
// Сравнение строго ">= окна": lastFiredAt = now - 7d при weekly уже due.
func (s *SavedSearch) IsDue(now time.Time) bool {
	if !s.NotificationsEnabled {
		return false
	}
	if s.LastFiredAt == nil {
		return true
	}
	return now.Sub(*s.LastFiredAt) >= s.Cadence.Window()
}

// SavedSearchUpdate - частичное обновление полей сохраненного поиска.
// nil-поле означает "не менять". LastFiredAt здесь отсутствует намеренно.
type SavedSearchUpdate struct {
	Name                 *string
	Description          *string
	Filter               *FilterDocument
	NotificationsEnabled *bool
	Cadence              *Cadence
}

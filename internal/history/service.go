package history

import (
	"errors"
	"fmt"
	"time"

	"github.com/sahilm/fuzzy"
	"gorm.io/gorm"
)

// Service provides history management functionality
type Service struct {
	db *gorm.DB
}

// NewService creates a new history service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Progress describes one observation of playback progress.
type Progress struct {
	SourceKind string
	Locator    string
	Title      string
	Position   time.Duration
	Total      time.Duration
	Completed  bool
}

// Record upserts the progress for a source. An incomplete entry for
// the same locator is updated in place; completion replaces any
// incomplete entry.
func (s *Service) Record(p Progress) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	if p.Locator == "" {
		return fmt.Errorf("progress locator is empty")
	}

	percent := 0.0
	if p.Total > 0 {
		percent = p.Position.Seconds() / p.Total.Seconds() * 100
	}

	if !p.Completed {
		var existing Entry
		err := s.db.Where("locator = ? AND completed = false", p.Locator).
			Order("watched_at DESC").
			First(&existing).Error
		if err == nil {
			existing.PositionSeconds = int(p.Position.Seconds())
			existing.TotalSeconds = int(p.Total.Seconds())
			existing.ProgressPercent = percent
			existing.WatchedAt = time.Now()
			return s.db.Save(&existing).Error
		}
	} else {
		s.db.Where("locator = ? AND completed = false", p.Locator).Delete(&Entry{})
	}

	entry := Entry{
		SourceKind:      p.SourceKind,
		Locator:         p.Locator,
		Title:           p.Title,
		PositionSeconds: int(p.Position.Seconds()),
		TotalSeconds:    int(p.Total.Seconds()),
		ProgressPercent: percent,
		WatchedAt:       time.Now(),
		Completed:       p.Completed,
	}
	return s.db.Create(&entry).Error
}

// Recent returns the most recently watched entries, newest first.
// A limit of 0 means no limit.
func (s *Service) Recent(limit int) ([]Entry, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	query := s.db.Order("watched_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var entries []Entry
	if err := query.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	return entries, nil
}

// Resume returns the last incomplete entry for a locator, or nil when
// there is nothing to resume.
func (s *Service) Resume(locator string) (*Entry, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	var entry Entry
	err := s.db.Where("locator = ? AND completed = false", locator).
		Order("watched_at DESC").
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	return &entry, nil
}

// Search fuzzy-matches the query against entry titles and locators,
// best matches first.
func (s *Service) Search(query string) ([]Entry, error) {
	entries, err := s.Recent(0)
	if err != nil {
		return nil, err
	}
	if query == "" {
		return entries, nil
	}

	haystack := make([]string, len(entries))
	for i, e := range entries {
		haystack[i] = e.Title + " " + e.Locator
	}
	matches := fuzzy.Find(query, haystack)

	results := make([]Entry, 0, len(matches))
	for _, m := range matches {
		results = append(results, entries[m.Index])
	}
	return results, nil
}

// Clear removes all history entries.
func (s *Service) Clear() error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	return s.db.Where("1 = 1").Delete(&Entry{}).Error
}

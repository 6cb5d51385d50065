package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"armonia.dev/intercom/internal/models"
)

// IntercomStats summarizes engine activity for the operations dashboard.
type IntercomStats struct {
	VisitsByStatus         map[string]int64 `json:"visits_by_status"`
	NotificationsByStatus  map[string]int64 `json:"notifications_by_status"`
	NotificationsByChannel map[string]int64 `json:"notifications_by_channel"`
	TotalVisits            int64            `json:"total_visits"`
	TotalNotifications     int64            `json:"total_notifications"`
}

// StatsRange bounds counters to [From, To); nil bounds are open.
type StatsRange struct {
	From *time.Time
	To   *time.Time
}

func (r StatsRange) apply(query *gorm.DB) *gorm.DB {
	if r.From != nil {
		query = query.Where("created_at >= ?", *r.From)
	}
	if r.To != nil {
		query = query.Where("created_at < ?", *r.To)
	}
	return query
}

// StatsService aggregates visit and notification counters.
type StatsService struct {
	db *gorm.DB
}

// NewStatsService creates a StatsService.
func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db}
}

type statusCount struct {
	Key   string
	Count int64
}

// GetStats computes the counters within the given range.
func (s *StatsService) GetStats(ctx context.Context, window StatsRange) (*IntercomStats, error) {
	stats := &IntercomStats{
		VisitsByStatus:         make(map[string]int64),
		NotificationsByStatus:  make(map[string]int64),
		NotificationsByChannel: make(map[string]int64),
	}

	var rows []statusCount
	err := window.apply(s.db.WithContext(ctx).Model(&models.Visit{})).
		Select("status AS key, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count visits by status: %w", err)
	}
	for _, row := range rows {
		stats.VisitsByStatus[row.Key] = row.Count
		stats.TotalVisits += row.Count
	}

	rows = rows[:0]
	err = window.apply(s.db.WithContext(ctx).Model(&models.Notification{})).
		Select("status AS key, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count notifications by status: %w", err)
	}
	for _, row := range rows {
		stats.NotificationsByStatus[row.Key] = row.Count
		stats.TotalNotifications += row.Count
	}

	rows = rows[:0]
	err = window.apply(s.db.WithContext(ctx).Model(&models.Notification{})).
		Select("channel AS key, COUNT(*) AS count").
		Group("channel").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count notifications by channel: %w", err)
	}
	for _, row := range rows {
		stats.NotificationsByChannel[row.Key] = row.Count
	}

	return stats, nil
}

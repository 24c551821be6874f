package history

import "time"

// Entry is one watch-history row: the furthest observed progress for
// a media source.
type Entry struct {
	ID              uint      `gorm:"primaryKey"`
	SourceKind      string    `gorm:"not null;index"` // asset, network, file
	Locator         string    `gorm:"not null;index"`
	Title           string    `gorm:"not null"`
	PositionSeconds int       `gorm:"not null"`
	TotalSeconds    int       `gorm:"not null"`
	ProgressPercent float64   `gorm:"not null"`
	WatchedAt       time.Time `gorm:"index;default:CURRENT_TIMESTAMP"`
	Completed       bool      `gorm:"default:false"`
}

// TableName overrides the table name
func (Entry) TableName() string {
	return "history"
}

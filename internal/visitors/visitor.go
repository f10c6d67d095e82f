package visitors

import (
	"strings"
	"time"
)

// Visitor is an anonymous browser identity holding a visitor token.
type Visitor struct {
	VisitorID   string    `gorm:"column:visitor_id;primaryKey;size:190;not null" json:"visitorId"`
	FirstSeenAt time.Time `gorm:"column:first_seen_at;not null" json:"firstSeenAt"`
	LastSeenAt  time.Time `gorm:"column:last_seen_at;not null" json:"lastSeenAt"`
}

// TableName exposes the table backing visitors.
func (Visitor) TableName() string {
	return "visitors"
}

func normalize(value string) string {
	return strings.TrimSpace(value)
}

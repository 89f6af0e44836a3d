package models

import "time"

// Click is one resolve of a short link, stored for analytics.
// The authoritative counter is Link.ClickCount; these rows are best-effort detail.
type Click struct {
	ID uint `gorm:"primaryKey"`

	// LinkID is indexed to count clicks per link.
	LinkID uint `gorm:"index"`
	Link   Link `gorm:"foreignKey:LinkID"`

	Timestamp time.Time
	UserAgent string `gorm:"size:255"`
	Referrer  string `gorm:"size:255"`

	// IPHash is the SHA-256 of the client address; raw IPs are not stored.
	IPHash string `gorm:"size:64"`
}

// ClickEvent represents a raw click event intended to be passed through channels.
// It contains only the essential data needed to create a Click record later.
type ClickEvent struct {
	LinkID    uint
	Timestamp time.Time
	UserAgent string
	Referrer  string
	IPHash    string
}

// AllModels lists every table managed by AutoMigrate, in dependency order.
func AllModels() []any {
	return []any{&User{}, &Link{}, &Click{}}
}

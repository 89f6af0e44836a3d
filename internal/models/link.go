package models

import "time"

// Link représente un lien raccourci dans la base de données.
// Code and CustomSlug share one namespace: a custom slug is stored as the code itself.
type Link struct {
	ID             uint      `gorm:"primaryKey"`
	Code           string    `gorm:"uniqueIndex;size:64;not null"`
	DestinationURL string    `gorm:"type:text;not null"`
	CustomSlug     *string   `gorm:"uniqueIndex;size:64"`
	OwnerUsername  string    `gorm:"index;size:64;not null"`
	Owner          User      `gorm:"foreignKey:OwnerUsername;references:Username"`
	ClickCount     int64     `gorm:"not null;default:0"`
	QRCode         string    `gorm:"type:text"` // PNG data URL of the short link, rendered once
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

// HasCustomSlug reports whether the code was chosen by the owner.
func (l *Link) HasCustomSlug() bool {
	return l.CustomSlug != nil && *l.CustomSlug != ""
}

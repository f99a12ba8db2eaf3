package model

import "time"

// Announcement is a portal-wide notice shown on the landing page.
type Announcement struct {
	ID        uint64    // announcements.id
	Title     string    // announcements.title
	Content   string    // announcements.content
	Author    string    // announcements.author – admin email
	CreatedAt time.Time // announcements.created_at
	UpdatedAt time.Time // announcements.updated_at
}

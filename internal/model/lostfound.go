package model

import "time"

// Lost & found listing states.
const (
	LostFoundOpen     = "OPEN"
	LostFoundClaimed  = "CLAIMED"
	LostFoundReturned = "RETURNED"
)

// LostFound is a lost-or-found item listing.  Kind distinguishes whether
// the submitter lost the item or found someone else's.
type LostFound struct {
	ID          uint64    // lost_found.id
	Kind        string    // lost_found.kind – "lost" or "found"
	ItemName    string    // lost_found.item_name
	Description string    // lost_found.description
	Location    string    // lost_found.location
	Email       string    // lost_found.email – submitter contact
	Status      string    // lost_found.status
	CreatedAt   time.Time // lost_found.created_at
	UpdatedAt   time.Time // lost_found.updated_at
}

// Clue is a volunteer tip attached to a lost & found listing.
type Clue struct {
	ID        uint64    // lost_found_clues.id
	ListingID uint64    // lost_found_clues.listing_id
	Content   string    // lost_found_clues.content
	Contact   string    // lost_found_clues.contact – optional reporter contact
	CreatedAt time.Time // lost_found_clues.created_at
}

package models

import "time"

// Venue-Typen, wie sie vom Klassifikator vergeben werden.
const (
	VenueJournal    = "journal"
	VenueConference = "conference"
	VenueOther      = "other"
)

// Work repräsentiert eine Publikation. Dieselbe Publikation kann über mehrere
// Autoren gesehen werden (Fan-in) und wird dann per Upsert zusammengeführt.
type Work struct {
	WorkID          string  `json:"work_id" gorm:"column:work_id;primaryKey"`
	Title           string  `json:"title"`
	PublicationYear *int    `json:"publication_year,omitempty" gorm:"index"`
	DOI             *string `json:"doi,omitempty" gorm:"column:doi"`

	// VenueType ist 'journal', 'conference' oder 'other'.
	VenueType string `json:"venue_type" gorm:"index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName legt den Tabellennamen für Work fest.
func (Work) TableName() string {
	return "works"
}

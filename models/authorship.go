package models

import "time"

// Authorship ist die Faktzeile "dieser Autor hat an diesem Werk mitgewirkt".
// Jahr und Venue-Typ sind denormalisiert, damit die Aggregatsicht ohne Join
// auf works auskommt. Pro (author_id, work_id) existiert genau eine Zeile,
// egal wie oft das Paar über Seiten oder Co-Autoren beobachtet wird.
type Authorship struct {
	AuthorID string `json:"author_id" gorm:"column:author_id;uniqueIndex:idx_fact_author_work;not null"`
	WorkID   string `json:"work_id" gorm:"column:work_id;uniqueIndex:idx_fact_author_work;not null"`

	Year      *int   `json:"year,omitempty" gorm:"index:idx_fact_author_year"`
	VenueType string `json:"venue_type" gorm:"index"`

	// Position in der Autorenliste (first/middle/last) laut API.
	AuthorPosition string `json:"author_position,omitempty"`

	// Mindestens eine Affiliation des Autors auf diesem Werk gehört zur
	// konfigurierten Institution.
	IsHomeAffiliation bool `json:"is_home_affiliation" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName legt den Tabellennamen für Authorship fest.
func (Authorship) TableName() string {
	return "fact_authorships"
}

package models

import "time"

// Author repräsentiert eine Forscherin oder einen Forscher der Institution.
// Primärschlüssel ist die externe OpenAlex-ID; Autoren werden bei jedem
// Erntelauf aktualisiert, aber nie gelöscht.
type Author struct {
	AuthorID    string `json:"author_id" gorm:"column:author_id;primaryKey"`
	DisplayName string `json:"display_name" gorm:"not null"`

	// ORCID ohne Schema-Präfix (https://orcid.org/ wird beim Mapping entfernt).
	ORCID string `json:"orcid,omitempty" gorm:"column:orcid;index"`

	WorksCount int `json:"works_count" gorm:"default:0"`

	LastKnownInstitutionID   *string `json:"last_known_institution_id,omitempty" gorm:"column:last_known_institution_id"`
	LastKnownInstitutionName *string `json:"last_known_institution_name,omitempty" gorm:"column:last_known_institution_name"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName legt den Tabellennamen für Author fest.
func (Author) TableName() string {
	return "authors"
}

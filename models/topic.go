package models

import "time"

// Topic repräsentiert ein Forschungsthema mit seiner Hierarchie
// (Subfield → Field → Domain). Die Hierarchiefelder sind einzeln nullable
// und werden monoton angereichert: ein einmal bekannter Wert wird nie wieder
// durch NULL ersetzt.
type Topic struct {
	TopicID     string `json:"topic_id" gorm:"column:topic_id;primaryKey"`
	DisplayName string `json:"display_name" gorm:"not null"`

	SubfieldID *string `json:"subfield_id,omitempty"`
	Subfield   *string `json:"subfield,omitempty"`
	FieldID    *string `json:"field_id,omitempty"`
	Field      *string `json:"field,omitempty"`
	DomainID   *string `json:"domain_id,omitempty"`
	Domain     *string `json:"domain,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName legt den Tabellennamen für Topic fest.
func (Topic) TableName() string {
	return "topics"
}

// Complete meldet, ob die Hierarchie vollständig aufgelöst ist
// (mindestens Field und Domain bekannt).
func (t *Topic) Complete() bool {
	return t.FieldID != nil && t.DomainID != nil
}

// Enrich füllt fehlende Felder aus other auf. Vorhandene Werte gewinnen
// immer; NULL aus other überschreibt nie einen bekannten Wert.
func (t *Topic) Enrich(other *Topic) {
	if other == nil {
		return
	}
	if t.DisplayName == "" {
		t.DisplayName = other.DisplayName
	}
	if t.SubfieldID == nil {
		t.SubfieldID = other.SubfieldID
	}
	if t.Subfield == nil {
		t.Subfield = other.Subfield
	}
	if t.FieldID == nil {
		t.FieldID = other.FieldID
	}
	if t.Field == nil {
		t.Field = other.Field
	}
	if t.DomainID == nil {
		t.DomainID = other.DomainID
	}
	if t.Domain == nil {
		t.Domain = other.Domain
	}
}

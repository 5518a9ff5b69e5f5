package models

// AuthorYearOutput ist eine Zeile der Aggregatsicht v_author_year_outputs:
// Publikationszahlen pro Autor und Jahr, aufgeschlüsselt nach Venue-Typ.
// Die Sicht wird in storage angelegt, nicht migriert.
type AuthorYearOutput struct {
	AuthorID        string `json:"author_id" gorm:"column:author_id"`
	DisplayName     string `json:"display_name" gorm:"column:display_name"`
	Year            int    `json:"year" gorm:"column:year"`
	JournalCount    int    `json:"journal_count" gorm:"column:journal_count"`
	ConferenceCount int    `json:"conference_count" gorm:"column:conference_count"`
	TotalOutputs    int    `json:"total_outputs" gorm:"column:total_outputs"`
}

// TableName verweist auf die Aggregatsicht.
func (AuthorYearOutput) TableName() string {
	return "v_author_year_outputs"
}

package services

import (
	"strings"

	"pubharvest/models"
	"pubharvest/providers/openalex"
)

// ClassifyVenue bestimmt den Venue-Typ eines Werks. Die Reihenfolge ist
// fix und entscheidet Widersprüche zwischen strukturiertem und freiem
// Signal: erst source.type der Primary Location (exakt "journal" oder
// "conference"), dann Substring-Fallback über type/type_crossref, sonst
// "other".
func ClassifyVenue(w openalex.Work) string {
	if w.PrimaryLocation != nil && w.PrimaryLocation.Source != nil {
		t := strings.ToLower(strings.TrimSpace(w.PrimaryLocation.Source.Type))
		if t == models.VenueJournal || t == models.VenueConference {
			return t
		}
	}

	wt := strings.ToLower(w.Type)
	tcr := strings.ToLower(w.TypeCrossref)
	if strings.Contains(tcr, "proceedings") || strings.Contains(wt, "proceedings") ||
		strings.Contains(tcr, "conference") || strings.Contains(wt, "conference") {
		return models.VenueConference
	}
	if strings.Contains(tcr, "journal") || strings.Contains(wt, "journal") {
		return models.VenueJournal
	}
	return models.VenueOther
}

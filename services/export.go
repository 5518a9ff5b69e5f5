package services

import (
	"encoding/csv"
	"os"
	"strconv"

	"pubharvest/models"
)

// ExportAuthorYearCSV schreibt die Zeilen der Aggregatsicht als CSV-Datei,
// eine Zeile pro (Autor, Jahr) mit Journal-, Konferenz- und Gesamtzahl.
func ExportAuthorYearCSV(rows []models.AuthorYearOutput, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"author_id", "display_name", "year", "journal_count", "conference_count", "total_outputs"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.AuthorID,
			row.DisplayName,
			strconv.Itoa(row.Year),
			strconv.Itoa(row.JournalCount),
			strconv.Itoa(row.ConferenceCount),
			strconv.Itoa(row.TotalOutputs),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

package storage

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"pubharvest/config"
	"pubharvest/models"
)

// StorageError kennzeichnet eine Constraint-Verletzung außerhalb des
// beabsichtigten Konfliktziels eines Upserts. Sie ist immer fatal: ein
// Schema- oder Invariantenfehler darf nicht stillschweigend absorbiert
// werden.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// createOutputsView legt die Aggregatsicht für Publikationszahlen pro Autor
// und Jahr an, aufgeschlüsselt nach Venue-Typ.
const createOutputsView = `
CREATE OR REPLACE VIEW v_author_year_outputs AS
SELECT
  a.author_id,
  a.display_name,
  f.year,
  SUM(CASE WHEN f.venue_type = 'journal'    THEN 1 ELSE 0 END) AS journal_count,
  SUM(CASE WHEN f.venue_type = 'conference' THEN 1 ELSE 0 END) AS conference_count,
  COUNT(*)                                                     AS total_outputs
FROM fact_authorships f
JOIN authors a ON a.author_id = f.author_id
WHERE f.year IS NOT NULL
GROUP BY a.author_id, a.display_name, f.year`

// Store kapselt die GORM-Verbindung und die laufende Batch-Transaktion.
// Alle Schreibzugriffe laufen über die Transaktion; Flush committet sie und
// öffnet die nächste. Der Store wird nur vom orchestrierenden Thread benutzt.
type Store struct {
	db     *gorm.DB
	tx     *gorm.DB
	logger *zap.Logger
}

// Open verbindet sich mit PostgreSQL, migriert das Schema, legt die
// Aggregatsicht an und startet die erste Batch-Transaktion.
func Open(cfg *config.Config, log *zap.Logger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("database connect failed: %w", err)
	}

	if err := db.AutoMigrate(
		&models.Author{},
		&models.Work{},
		&models.Topic{},
		&models.Authorship{},
		&models.WorkTopic{},
	); err != nil {
		return nil, fmt.Errorf("auto-migration failed: %w", err)
	}
	if err := db.Exec(createOutputsView).Error; err != nil {
		return nil, fmt.Errorf("view creation failed: %w", err)
	}

	return &Store{db: db, tx: db.Begin(), logger: log}, nil
}

// Flush committet die laufende Batch-Transaktion und beginnt die nächste.
func (s *Store) Flush() error {
	if err := s.tx.Commit().Error; err != nil {
		return &StorageError{Op: "commit", Err: err}
	}
	s.tx = s.db.Begin()
	return nil
}

// Close committet ausstehende Schreibzugriffe und schließt die Verbindung.
func (s *Store) Close() error {
	if err := s.tx.Commit().Error; err != nil {
		return &StorageError{Op: "final commit", Err: err}
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// UpsertAuthor schreibt einen Autor; bei Konflikt auf author_id gewinnen die
// neu beobachteten Werte.
func (s *Store) UpsertAuthor(a *models.Author) error {
	err := s.tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "author_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"display_name", "orcid", "works_count",
			"last_known_institution_id", "last_known_institution_name",
			"updated_at",
		}),
	}).Create(a).Error
	if err != nil {
		return &StorageError{Op: "upsert author", Err: err}
	}
	return nil
}

// UpsertWork schreibt ein Werk; bei Konflikt auf work_id gewinnen die neu
// beobachteten Werte.
func (s *Store) UpsertWork(w *models.Work) error {
	err := s.tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "work_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "publication_year", "doi", "venue_type", "updated_at",
		}),
	}).Create(w).Error
	if err != nil {
		return &StorageError{Op: "upsert work", Err: err}
	}
	return nil
}

// UpsertTopic schreibt ein Topic. Die Hierarchiefelder werden monoton
// angereichert: ein bekannter Wert bleibt stehen, nur Lücken werden gefüllt.
func (s *Store) UpsertTopic(t *models.Topic) error {
	err := s.tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "topic_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"display_name": gorm.Expr("COALESCE(NULLIF(excluded.display_name, ''), topics.display_name)"),
			"subfield_id":  gorm.Expr("COALESCE(topics.subfield_id, excluded.subfield_id)"),
			"subfield":     gorm.Expr("COALESCE(topics.subfield, excluded.subfield)"),
			"field_id":     gorm.Expr("COALESCE(topics.field_id, excluded.field_id)"),
			"field":        gorm.Expr("COALESCE(topics.field, excluded.field)"),
			"domain_id":    gorm.Expr("COALESCE(topics.domain_id, excluded.domain_id)"),
			"domain":       gorm.Expr("COALESCE(topics.domain, excluded.domain)"),
			"updated_at":   gorm.Expr("excluded.updated_at"),
		}),
	}).Create(t).Error
	if err != nil {
		return &StorageError{Op: "upsert topic", Err: err}
	}
	return nil
}

// UpsertAuthorship schreibt eine Faktzeile; ein bereits beobachtetes
// (author, work)-Paar wird stillschweigend absorbiert — Mehrfachbeobachtung
// trägt keine Information.
func (s *Store) UpsertAuthorship(f *models.Authorship) error {
	err := s.tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "author_id"}, {Name: "work_id"}},
		DoNothing: true,
	}).Create(f).Error
	if err != nil {
		return &StorageError{Op: "upsert authorship", Err: err}
	}
	return nil
}

// UpsertWorkTopic schreibt eine Werk-Topic-Verknüpfung; die erste
// Beobachtung eines Paares gewinnt.
func (s *Store) UpsertWorkTopic(wt *models.WorkTopic) error {
	err := s.tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "work_id"}, {Name: "topic_id"}},
		DoNothing: true,
	}).Create(wt).Error
	if err != nil {
		return &StorageError{Op: "upsert work topic", Err: err}
	}
	return nil
}

// FactCounts liefert die Zeilenzahlen der Fakt- und Verknüpfungstabellen.
func (s *Store) FactCounts() (authorships int64, workTopics int64, err error) {
	if err = s.db.Model(&models.Authorship{}).Count(&authorships).Error; err != nil {
		return 0, 0, &StorageError{Op: "count authorships", Err: err}
	}
	if err = s.db.Model(&models.WorkTopic{}).Count(&workTopics).Error; err != nil {
		return 0, 0, &StorageError{Op: "count work topics", Err: err}
	}
	return authorships, workTopics, nil
}

// Authors liefert alle gespeicherten Autoren, sortiert nach Werkanzahl.
func (s *Store) Authors() ([]models.Author, error) {
	var authors []models.Author
	if err := s.db.Order("works_count desc").Find(&authors).Error; err != nil {
		return nil, &StorageError{Op: "list authors", Err: err}
	}
	return authors, nil
}

// AuthorYearOutputs liest die Aggregatsicht.
func (s *Store) AuthorYearOutputs() ([]models.AuthorYearOutput, error) {
	var rows []models.AuthorYearOutput
	if err := s.db.Order("display_name, year").Find(&rows).Error; err != nil {
		return nil, &StorageError{Op: "read outputs view", Err: err}
	}
	return rows, nil
}

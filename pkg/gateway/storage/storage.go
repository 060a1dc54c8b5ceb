// Package storage persists rosters, settings and saved reports in a
// local sqlite database.
package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/centaurus-ai/roundtable/pkg/core/session"
)

// Well-known setting keys.
const (
	SettingTheme = "theme"
	SettingProxy = "proxy"
)

// agentRecord stores one roster participant as a JSON blob. Rows are
// replaced whole, never field-patched, mirroring the in-memory store's
// semantics.
type agentRecord struct {
	ID        string `gorm:"primaryKey"`
	Name      string
	Payload   string
	UpdatedAt time.Time
}

func (agentRecord) TableName() string { return "agents" }

type settingRecord struct {
	Key       string `gorm:"primaryKey"`
	Value     string
	UpdatedAt time.Time
}

func (settingRecord) TableName() string { return "settings" }

type reportRecord struct {
	SessionID string `gorm:"primaryKey"`
	Topic     string
	Payload   string
	CreatedAt time.Time
}

func (reportRecord) TableName() string { return "saved_reports" }

// Store wraps the sqlite database.
type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the database at path and migrates the schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&agentRecord{}, &settingRecord{}, &reportRecord{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveAgents replaces the persisted roster.
func (s *Store) SaveAgents(agents []session.Participant) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&agentRecord{}).Error; err != nil {
			return err
		}
		for _, a := range agents {
			payload, err := json.Marshal(a)
			if err != nil {
				return fmt.Errorf("marshal agent %s: %w", a.ID, err)
			}
			rec := agentRecord{ID: a.ID, Name: a.Name, Payload: string(payload), UpdatedAt: time.Now()}
			if err := tx.Create(&rec).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Agents returns the persisted roster.
func (s *Store) Agents() ([]session.Participant, error) {
	var recs []agentRecord
	if err := s.db.Order("name").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]session.Participant, 0, len(recs))
	for _, rec := range recs {
		var a session.Participant
		if err := json.Unmarshal([]byte(rec.Payload), &a); err != nil {
			return nil, fmt.Errorf("unmarshal agent %s: %w", rec.ID, err)
		}
		out = append(out, a)
	}
	return out, nil
}

// SetSetting upserts a settings key (theme, proxy endpoint, ...).
func (s *Store) SetSetting(key, value string) error {
	rec := settingRecord{Key: key, Value: value, UpdatedAt: time.Now()}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rec).Error
}

// Setting returns a settings value; ok is false when unset.
func (s *Store) Setting(key string) (string, bool, error) {
	var rec settingRecord
	err := s.db.First(&rec, "key = ?", key).Error
	if err == gorm.ErrRecordNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return rec.Value, true, nil
}

// SaveReport persists a final session report, keyed by session ID.
func (s *Store) SaveReport(r *session.Report) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	rec := reportRecord{SessionID: r.SessionID, Topic: r.Topic, Payload: string(payload), CreatedAt: time.Now()}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"topic", "payload"}),
	}).Create(&rec).Error
}

// Report returns a saved report; ok is false when absent.
func (s *Store) Report(sessionID string) (*session.Report, bool, error) {
	var rec reportRecord
	err := s.db.First(&rec, "session_id = ?", sessionID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var r session.Report
	if err := json.Unmarshal([]byte(rec.Payload), &r); err != nil {
		return nil, false, fmt.Errorf("unmarshal report: %w", err)
	}
	return &r, true, nil
}

// Reports returns all saved reports, newest first.
func (s *Store) Reports() ([]*session.Report, error) {
	var recs []reportRecord
	if err := s.db.Order("created_at desc").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]*session.Report, 0, len(recs))
	for _, rec := range recs {
		var r session.Report
		if err := json.Unmarshal([]byte(rec.Payload), &r); err != nil {
			return nil, fmt.Errorf("unmarshal report %s: %w", rec.SessionID, err)
		}
		out = append(out, &r)
	}
	return out, nil
}

package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// sessionRow is the sqlite representation: one row per user, draft kept as a
// JSON blob so schema churn in Draft never needs a migration.
type sessionRow struct {
	TelegramID int64 `gorm:"primaryKey"`
	State      string
	Draft      []byte
}

func (sessionRow) TableName() string { return "sessions" }

// SQLite persists sessions in a local sqlite file so in-flight flows survive
// a process restart.
type SQLite struct {
	db *gorm.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open sessions db: %w", err)
	}
	if err := db.AutoMigrate(&sessionRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate sessions db: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Get(userID int64) (*Session, error) {
	row := &sessionRow{}
	err := s.db.Where("telegram_id = ?", userID).First(row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sess := &Session{State: State(row.State)}
	if len(row.Draft) > 0 {
		if err := json.Unmarshal(row.Draft, &sess.Draft); err != nil {
			// A draft we can no longer decode is as good as no session.
			return nil, nil
		}
	}
	return sess, nil
}

func (s *SQLite) Set(userID int64, sess *Session) error {
	draft, err := json.Marshal(sess.Draft)
	if err != nil {
		return err
	}
	row := sessionRow{TelegramID: userID, State: string(sess.State), Draft: draft}
	return s.db.Save(&row).Error
}

func (s *SQLite) Clear(userID int64) error {
	return s.db.Where("telegram_id = ?", userID).Delete(&sessionRow{}).Error
}

package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/DoyleJ11/couch-lobby/internal/engine"
)

type RosterPick struct {
	RunID      string `gorm:"primaryKey;size:36"`
	Slot       int    `gorm:"primaryKey"`
	Choice     int    `gorm:"not null"`
	RecordedAt time.Time
}

type MapChoice struct {
	RunID      string `gorm:"primaryKey;size:36"`
	Choice     int    `gorm:"not null"`
	RecordedAt time.Time
}

// Gorm stores results in any database gorm can talk to. OpenPostgres is the
// one the server wires.
type Gorm struct {
	db *gorm.DB
}

func OpenPostgres(dsn string) (*Gorm, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	return NewGorm(db)
}

// NewGorm migrates the result tables on db.
func NewGorm(db *gorm.DB) (*Gorm, error) {
	if err := db.AutoMigrate(&RosterPick{}, &MapChoice{}); err != nil {
		return nil, err
	}
	return &Gorm{db: db}, nil
}

func (g *Gorm) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func rosterRows(runID string, picks []engine.Pick, at time.Time) []RosterPick {
	rows := make([]RosterPick, len(picks))
	for i, p := range picks {
		rows[i] = RosterPick{RunID: runID, Slot: p.Slot, Choice: p.Choice, RecordedAt: at}
	}
	return rows
}

func (g *Gorm) SaveRoster(ctx context.Context, runID string, picks []engine.Pick) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", runID).Delete(&RosterPick{}).Error; err != nil {
			return err
		}
		if len(picks) == 0 {
			return nil
		}
		return tx.Create(rosterRows(runID, picks, time.Now().UTC())).Error
	})
}

func (g *Gorm) SaveMap(ctx context.Context, runID string, choice int) error {
	row := MapChoice{RunID: runID, Choice: choice, RecordedAt: time.Now().UTC()}
	return g.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

func (g *Gorm) Roster(ctx context.Context, runID string) ([]engine.Pick, error) {
	var rows []RosterPick
	if err := g.db.WithContext(ctx).Where("run_id = ?", runID).Order("slot").Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	picks := make([]engine.Pick, len(rows))
	for i, r := range rows {
		picks[i] = engine.Pick{Slot: r.Slot, Choice: r.Choice}
	}
	return picks, nil
}

func (g *Gorm) Map(ctx context.Context, runID string) (int, error) {
	var row MapChoice
	err := g.db.WithContext(ctx).First(&row, "run_id = ?", runID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return engine.NoChoice, ErrNotFound
	}
	if err != nil {
		return engine.NoChoice, err
	}
	return row.Choice, nil
}

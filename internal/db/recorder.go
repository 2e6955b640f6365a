// Package db adapts blackholedex's internal/db MySQLRecorder — a GORM
// model plus CRUD for periodic asset snapshots — into a recorder for
// bundle/submission observability (spec §3.2's "owned by H; stored for
// observability until a bounded retention window elapses").
package db

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jitbot/jitliquidity/jit"
)

// BundleRecord is the persisted form of an assembled jit.Bundle.
type BundleRecord struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	BundleID    string    `gorm:"index;not null;size:128"`
	Kind        string    `gorm:"not null;size:16"`
	TargetBlock uint64    `gorm:"index;not null"`
	GasLimitSum uint64    `gorm:"not null"`
	AssembledAt time.Time `gorm:"index;not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (BundleRecord) TableName() string { return "bundles" }

// SubmissionRecord is the persisted form of a jit.SubmissionResult,
// including a flattened one-row-per-relay-outcome breakdown.
type SubmissionRecord struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	BundleID    string    `gorm:"index;not null;size:128"`
	DryRun      bool      `gorm:"not null"`
	Succeeded   bool      `gorm:"not null"`
	PrimaryHash string    `gorm:"size:128"`
	SimGasUsed  uint64    `gorm:"not null"`
	SimReverted bool      `gorm:"not null"`
	SimReason   string    `gorm:"size:512"`
	SubmittedAt time.Time `gorm:"index;not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (SubmissionRecord) TableName() string { return "submissions" }

// RelayOutcomeRecord is one relay's outcome for a submission.
type RelayOutcomeRecord struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	SubmissionID   uint   `gorm:"index;not null"`
	RelayURL       string `gorm:"size:256;not null"`
	Success        bool   `gorm:"not null"`
	BundleHash     string `gorm:"size:128"`
	Reason         string `gorm:"size:512"`
	Attempts       int    `gorm:"not null"`
}

func (RelayOutcomeRecord) TableName() string { return "relay_outcomes" }

// Recorder persists bundles and submission outcomes for observability.
type Recorder struct {
	db *gorm.DB
}

// NewRecorder opens a MySQL connection and migrates the observability
// schema. dsn format: "user:password@tcp(host:port)/dbname?parseTime=True".
func NewRecorder(dsn string) (*Recorder, error) {
	gdb, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to mysql: %w", err)
	}
	return NewRecorderWithDB(gdb)
}

// NewRecorderWithDB builds a Recorder over an already-open GORM DB,
// migrating the observability schema.
func NewRecorderWithDB(gdb *gorm.DB) (*Recorder, error) {
	if err := gdb.AutoMigrate(&BundleRecord{}, &SubmissionRecord{}, &RelayOutcomeRecord{}); err != nil {
		return nil, fmt.Errorf("migrate observability schema: %w", err)
	}
	return &Recorder{db: gdb}, nil
}

// RecordBundle persists an assembled bundle.
func (r *Recorder) RecordBundle(b *jit.Bundle) error {
	record := BundleRecord{
		BundleID:    b.BundleID,
		Kind:        string(b.Kind),
		TargetBlock: b.TargetBlock,
		GasLimitSum: b.GasLimitSum,
		AssembledAt: b.AssembledAt,
	}
	if result := r.db.Create(&record); result.Error != nil {
		return fmt.Errorf("record bundle %s: %w", b.BundleID, result.Error)
	}
	return nil
}

// RecordSubmission persists a submission result and its per-relay
// outcomes.
func (r *Recorder) RecordSubmission(res *jit.SubmissionResult) error {
	record := SubmissionRecord{
		BundleID:    res.BundleID,
		DryRun:      res.DryRun,
		Succeeded:   res.Succeeded,
		PrimaryHash: res.PrimaryHash,
		SimGasUsed:  res.SimGasUsed,
		SimReverted: res.SimReverted,
		SimReason:   res.SimReason,
		SubmittedAt: res.SubmittedAt,
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if result := tx.Create(&record); result.Error != nil {
			return fmt.Errorf("record submission %s: %w", res.BundleID, result.Error)
		}
		for _, outcome := range res.RelayOutcomes {
			outcomeRecord := RelayOutcomeRecord{
				SubmissionID: record.ID,
				RelayURL:     outcome.RelayURL,
				Success:      outcome.Success,
				BundleHash:   outcome.BundleHash,
				Reason:       outcome.Reason,
				Attempts:     outcome.Attempts,
			}
			if result := tx.Create(&outcomeRecord); result.Error != nil {
				return fmt.Errorf("record relay outcome for %s: %w", res.BundleID, result.Error)
			}
		}
		return nil
	})
}

// PruneOlderThan deletes bundle/submission records whose timestamps
// precede the retention cutoff (spec §3.2's "bounded retention window").
func (r *Recorder) PruneOlderThan(cutoff time.Time) error {
	if result := r.db.Where("assembled_at < ?", cutoff).Delete(&BundleRecord{}); result.Error != nil {
		return fmt.Errorf("prune bundles: %w", result.Error)
	}
	if result := r.db.Where("submitted_at < ?", cutoff).Delete(&SubmissionRecord{}); result.Error != nil {
		return fmt.Errorf("prune submissions: %w", result.Error)
	}
	return nil
}

// RecentSubmissions returns the most recent n submission records,
// newest first.
func (r *Recorder) RecentSubmissions(n int) ([]SubmissionRecord, error) {
	var records []SubmissionRecord
	result := r.db.Order("submitted_at DESC").Limit(n).Find(&records)
	if result.Error != nil {
		return nil, fmt.Errorf("query recent submissions: %w", result.Error)
	}
	return records, nil
}

// Close releases the underlying database connection.
func (r *Recorder) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("underlying db handle: %w", err)
	}
	return sqlDB.Close()
}

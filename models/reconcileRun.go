package models

import (
	"context"
	"time"

	"github.com/PedroPPVM/Intelectus-Api/config"
)

const (
	ReconcileRunStatusQueued  = "queued"
	ReconcileRunStatusRunning = "running"
	ReconcileRunStatusSuccess = "success"
	ReconcileRunStatusFailed  = "failed"
	ReconcileRunStatusPartial = "partial"
)

const (
	ReconcileTriggeredManual = "manual"
	ReconcileTriggeredSystem = "system"
)

// ReconcileRun records one execution of the gazette reconcile engine for a
// company, with per-category stats kept as JSON.
type ReconcileRun struct {
	ID           string     `gorm:"type:char(36);primaryKey" json:"id"`
	CompanyId    string     `gorm:"type:char(36);index;not null" json:"company_id"`
	Status       string     `gorm:"size:20;not null" json:"status"`
	TriggeredBy  string     `gorm:"size:20" json:"triggered_by"`
	TypesJSON    []byte     `gorm:"type:json" json:"types"`
	StatsJSON    []byte     `gorm:"type:json" json:"stats"`
	Updated      int        `json:"updated"`
	Skipped      int        `json:"skipped"`
	NotFound     int        `json:"not_found"`
	ErrorCount   int        `json:"error_count"`
	ErrorMessage string     `gorm:"type:text" json:"error_message"`
	StartedAt    *time.Time `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at"`
	DurationMs   int64      `json:"duration_ms"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func CreateReconcileRun(ctx context.Context, run *ReconcileRun) error {
	if run.ID == "" {
		run.ID = NewId()
	}
	db := config.GetDB()
	return db.WithContext(ctx).Create(run).Error
}

func UpdateReconcileRun(ctx context.Context, run *ReconcileRun, updates map[string]interface{}) error {
	db := config.GetDB()
	return db.WithContext(ctx).Model(run).Updates(updates).Error
}

func GetReconcileRun(ctx context.Context, id string) (*ReconcileRun, error) {
	return GetResource[ReconcileRun](ctx, id)
}

func GetReconcileRuns(ctx context.Context, companyId string, limit int) ([]*ReconcileRun, error) {
	if limit <= 0 {
		limit = 20
	}
	db := config.GetDB()
	var results []*ReconcileRun
	err := db.WithContext(ctx).
		Where("company_id = ?", companyId).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

package models

import (
	"context"
	"time"

	"github.com/PedroPPVM/Intelectus-Api/config"
	"gorm.io/gorm"
)

// RPIMagazine tracks gazette issues that were located and, eventually,
// processed. One row per (process_type, magazine_identifier).
type RPIMagazine struct {
	ID                 string      `gorm:"type:char(36);primaryKey" json:"id"`
	ProcessType        ProcessType `gorm:"size:20;not null;uniqueIndex:ix_rpi_magazine_type_identifier" json:"process_type"`
	MagazineIdentifier string      `gorm:"size:255;not null;uniqueIndex:ix_rpi_magazine_type_identifier" json:"magazine_identifier"`
	Url                string      `gorm:"size:1000;not null" json:"url"`
	PublicationDate    *time.Time  `json:"publication_date"`
	LastCheckedAt      *time.Time  `json:"last_checked_at"`
	ProcessedAt        *time.Time  `json:"processed_at"`
	CreatedAt          time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsProcessed reports whether the issue has already been used to update processes.
func (m *RPIMagazine) IsProcessed() bool {
	return m.ProcessedAt != nil
}

func GetMagazine(ctx context.Context, processType ProcessType, identifier string) (*RPIMagazine, error) {
	db := config.GetDB()
	var magazine RPIMagazine
	err := db.WithContext(ctx).
		Where("process_type = ? AND magazine_identifier = ?", processType, identifier).
		First(&magazine).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &magazine, nil
}

// GetOrCreateMagazine returns the existing issue row for the identifier or
// creates one. An existing row only gets its last_checked_at refreshed; the
// stored url stays as it was first located.
func GetOrCreateMagazine(ctx context.Context, processType ProcessType, identifier string, url string) (*RPIMagazine, error) {

	db := config.GetDB()
	now := time.Now()

	magazine, err := GetMagazine(ctx, processType, identifier)
	if err != nil {
		return nil, err
	}
	if magazine != nil {
		err := db.WithContext(ctx).Model(magazine).Update("last_checked_at", &now).Error
		if err != nil {
			return nil, err
		}
		return magazine, nil
	}

	created := RPIMagazine{
		ID:                 NewId(),
		ProcessType:        processType,
		MagazineIdentifier: identifier,
		Url:                url,
		LastCheckedAt:      &now,
	}
	if err := db.WithContext(ctx).Create(&created).Error; err != nil {
		return nil, err
	}
	return &created, nil
}

// MarkMagazineProcessed stamps processed_at after a successful reconcile.
func MarkMagazineProcessed(ctx context.Context, id string) error {
	db := config.GetDB()
	now := time.Now()
	return db.WithContext(ctx).Model(&RPIMagazine{}).
		Where("id = ?", id).
		Update("processed_at", &now).Error
}

func GetMagazines(ctx context.Context, processType *ProcessType) ([]*RPIMagazine, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&RPIMagazine{})
	if processType != nil {
		dbCtx = dbCtx.Where("process_type = ?", *processType)
	}
	var results []*RPIMagazine
	if err := dbCtx.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

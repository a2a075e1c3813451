package models

import (
	"context"
	"errors"
	"time"

	"github.com/PedroPPVM/Intelectus-Api/config"
	"github.com/PedroPPVM/Intelectus-Api/utils"
)

// Alert is a notification delivered to a user, optionally tied to a process.
type Alert struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	Title     string    `gorm:"size:500;not null" json:"title"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	AlertType AlertType `gorm:"size:30;not null" json:"alert_type"`

	IsRead      *bool `gorm:"not null;default:false" json:"is_read"`
	IsDismissed *bool `gorm:"not null;default:false" json:"is_dismissed"`

	UserId    string  `gorm:"type:char(36);not null;index" json:"user_id"`
	ProcessId *string `gorm:"type:char(36);index" json:"process_id"`

	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	ReadAt    *time.Time `json:"read_at"`
}

type NewAlert struct {
	Title     string    `json:"title" binding:"required,min=5,max=500"`
	Message   string    `json:"message" binding:"required,min=10"`
	AlertType AlertType `json:"alert_type" binding:"required"`
	UserId    string    `json:"user_id" binding:"required"`
	ProcessId *string   `json:"process_id"`
}

func CreateAlert(ctx context.Context, input *NewAlert) (*Alert, error) {

	if !input.AlertType.IsValid() {
		return nil, errors.New("invalid alert type")
	}

	alert := Alert{
		ID:          NewId(),
		Title:       input.Title,
		Message:     input.Message,
		AlertType:   input.AlertType,
		IsRead:      utils.NewFalse(),
		IsDismissed: utils.NewFalse(),
		UserId:      input.UserId,
		ProcessId:   input.ProcessId,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&alert).Error; err != nil {
		return nil, err
	}
	return &alert, nil
}

type AlertFilter struct {
	UnreadOnly bool `form:"unread_only"`
	Limit      int  `form:"limit"`
	Offset     int  `form:"offset"`
}

// GetAlerts lists the caller's alerts, newest first. Dismissed alerts are
// always hidden.
func GetAlerts(ctx context.Context, filter *AlertFilter) ([]*Alert, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).
		Where("user_id = ? AND is_dismissed = ?", userId, false)

	if filter != nil {
		if filter.UnreadOnly {
			dbCtx = dbCtx.Where("is_read = ?", false)
		}
		if filter.Limit > 0 {
			dbCtx = dbCtx.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			dbCtx = dbCtx.Offset(filter.Offset)
		}
	}

	var results []*Alert
	if err := dbCtx.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func getOwnAlert(ctx context.Context, id string) (*Alert, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}
	db := config.GetDB()
	var alert Alert
	err := db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userId).First(&alert).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &alert, nil
}

func MarkAlertRead(ctx context.Context, id string) (*Alert, error) {
	alert, err := getOwnAlert(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	db := config.GetDB()
	err = db.WithContext(ctx).Model(alert).Updates(map[string]interface{}{
		"IsRead": true,
		"ReadAt": &now,
	}).Error
	if err != nil {
		return nil, err
	}
	return alert, nil
}

func DismissAlert(ctx context.Context, id string) (*Alert, error) {
	alert, err := getOwnAlert(ctx, id)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	err = db.WithContext(ctx).Model(alert).Updates(map[string]interface{}{
		"IsDismissed": true,
	}).Error
	if err != nil {
		return nil, err
	}
	return alert, nil
}

// CountUnreadAlerts returns the caller's unread, not-dismissed alert count.
func CountUnreadAlerts(ctx context.Context) (int64, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return 0, errors.New("user id is required")
	}
	db := config.GetDB()
	var count int64
	err := db.WithContext(ctx).Model(&Alert{}).
		Where("user_id = ? AND is_read = ? AND is_dismissed = ?", userId, false, false).
		Count(&count).Error
	return count, err
}

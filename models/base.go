package models

import (
	"context"
	"errors"

	"github.com/PedroPPVM/Intelectus-Api/config"
	"github.com/PedroPPVM/Intelectus-Api/utils"
	"github.com/google/uuid"
)

// NewId returns a fresh UUID string for primary keys.
func NewId() string {
	return uuid.NewString()
}

// GetResource fetches a single record scoped by the ctx's company_id.
// Superusers bypass the company scope.
func GetResource[T any](ctx context.Context, id string) (*T, error) {
	if isSuperuser, _ := utils.GetIsSuperuserFromContext(ctx); isSuperuser {
		return utils.FetchSingleModel[T](ctx, id)
	}
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}
	return utils.FetchModel[T](ctx, companyId, id)
}

// DeleteResource deletes a record after fetching it under the company scope.
func DeleteResource[T any](ctx context.Context, id string) (*T, error) {
	result, err := GetResource[T](ctx, id)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

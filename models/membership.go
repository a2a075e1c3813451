package models

import (
	"context"
	"errors"
	"time"

	"github.com/PedroPPVM/Intelectus-Api/config"
	"github.com/PedroPPVM/Intelectus-Api/utils"
)

// UserCompanyMembership links users to companies with a role.
// Composite primary key (user_id, company_id).
type UserCompanyMembership struct {
	UserId    string         `gorm:"type:char(36);primaryKey" json:"user_id" binding:"required"`
	CompanyId string         `gorm:"type:char(36);primaryKey" json:"company_id" binding:"required"`
	Role      MembershipRole `gorm:"size:20;not null;default:member" json:"role"`
	IsActive  *bool          `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewMembership struct {
	UserId    string         `json:"user_id" binding:"required"`
	CompanyId string         `json:"company_id" binding:"required"`
	Role      MembershipRole `json:"role"`
}

// IsCompanyMember reports whether the user has an active membership.
func IsCompanyMember(ctx context.Context, companyId string, userId string) (bool, error) {
	db := config.GetDB()
	var count int64
	err := db.WithContext(ctx).Model(&UserCompanyMembership{}).
		Where("company_id = ? AND user_id = ? AND is_active = ?", companyId, userId, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetMembershipRole returns the caller's role in the company
// (RecordNotFound when not a member).
func GetMembershipRole(ctx context.Context, companyId string, userId string) (MembershipRole, error) {
	db := config.GetDB()
	var membership UserCompanyMembership
	err := db.WithContext(ctx).
		Where("company_id = ? AND user_id = ? AND is_active = ?", companyId, userId, true).
		First(&membership).Error
	if err != nil {
		return "", utils.ErrorRecordNotFound
	}
	return membership.Role, nil
}

func CreateMembership(ctx context.Context, input *NewMembership) (*UserCompanyMembership, error) {

	callerId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || callerId == "" {
		return nil, errors.New("user id is required")
	}
	isSuperuser, _ := utils.GetIsSuperuserFromContext(ctx)
	if !isSuperuser {
		role, err := GetMembershipRole(ctx, input.CompanyId, callerId)
		if err != nil {
			return nil, err
		}
		if !role.CanManage() {
			return nil, errors.New("only owners and admins can manage members")
		}
	}

	role := input.Role
	if role == "" {
		role = MembershipRoleMember
	}
	if !role.IsValid() {
		return nil, errors.New("invalid role")
	}

	db := config.GetDB()
	var count int64
	if err := db.WithContext(ctx).Model(&UserCompanyMembership{}).
		Where("company_id = ? AND user_id = ?", input.CompanyId, input.UserId).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("user is already a member")
	}

	membership := UserCompanyMembership{
		UserId:    input.UserId,
		CompanyId: input.CompanyId,
		Role:      role,
		IsActive:  utils.NewTrue(),
	}

	if err := db.WithContext(ctx).Create(&membership).Error; err != nil {
		return nil, err
	}
	return &membership, nil
}

type UpdateMembershipInput struct {
	Role     *MembershipRole `json:"role"`
	IsActive *bool           `json:"is_active"`
}

func UpdateMembership(ctx context.Context, companyId string, userId string, input *UpdateMembershipInput) (*UserCompanyMembership, error) {

	callerId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || callerId == "" {
		return nil, errors.New("user id is required")
	}
	isSuperuser, _ := utils.GetIsSuperuserFromContext(ctx)
	if !isSuperuser {
		role, err := GetMembershipRole(ctx, companyId, callerId)
		if err != nil {
			return nil, err
		}
		if !role.CanManage() {
			return nil, errors.New("only owners and admins can manage members")
		}
	}

	db := config.GetDB()
	var membership UserCompanyMembership
	err := db.WithContext(ctx).
		Where("company_id = ? AND user_id = ?", companyId, userId).
		First(&membership).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	updates := map[string]interface{}{}
	if input.Role != nil {
		if !input.Role.IsValid() {
			return nil, errors.New("invalid role")
		}
		if membership.Role == MembershipRoleOwner && *input.Role != MembershipRoleOwner {
			return nil, errors.New("cannot demote the company owner")
		}
		updates["Role"] = *input.Role
	}
	if input.IsActive != nil {
		updates["IsActive"] = *input.IsActive
	}
	if len(updates) == 0 {
		return &membership, nil
	}

	if err := db.WithContext(ctx).Model(&membership).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &membership, nil
}

func GetCompanyMembers(ctx context.Context, companyId string) ([]*UserCompanyMembership, error) {

	callerId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || callerId == "" {
		return nil, errors.New("user id is required")
	}
	isSuperuser, _ := utils.GetIsSuperuserFromContext(ctx)
	if !isSuperuser {
		member, err := IsCompanyMember(ctx, companyId, callerId)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, utils.ErrorRecordNotFound
		}
	}

	db := config.GetDB()
	var results []*UserCompanyMembership
	err := db.WithContext(ctx).
		Where("company_id = ?", companyId).
		Order("created_at").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

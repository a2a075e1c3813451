package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/PedroPPVM/Intelectus-Api/config"
	"github.com/PedroPPVM/Intelectus-Api/utils"
	"gorm.io/gorm"
)

type Company struct {
	ID       string `gorm:"type:char(36);primaryKey" json:"id"`
	Name     string `gorm:"size:255;not null;index" json:"name" binding:"required"`
	Document string `gorm:"size:20;not null;unique" json:"document" binding:"required"`
	Email    string `gorm:"size:255" json:"email"`
	Phone    string `gorm:"size:20" json:"phone"`

	Address string `gorm:"type:text" json:"address"`
	City    string `gorm:"size:100" json:"city"`
	State   string `gorm:"size:2" json:"state"`
	ZipCode string `gorm:"size:10" json:"zip_code"`
	Country string `gorm:"size:50;default:Brasil" json:"country"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCompany struct {
	Name     string `json:"name" binding:"required"`
	Document string `json:"document" binding:"required"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zip_code"`
	Country  string `json:"country"`
}

// CreateCompany registers a company and makes the creator its owner.
func CreateCompany(ctx context.Context, input *NewCompany) (*Company, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}

	document := strings.TrimSpace(input.Document)
	if document == "" {
		return nil, errors.New("document is required")
	}

	db := config.GetDB()
	var count int64
	if err := db.WithContext(ctx).Model(&Company{}).Where("document = ?", document).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("duplicate document")
	}

	country := input.Country
	if country == "" {
		country = "Brasil"
	}

	company := Company{
		ID:       NewId(),
		Name:     input.Name,
		Document: document,
		Email:    input.Email,
		Phone:    input.Phone,
		Address:  input.Address,
		City:     input.City,
		State:    input.State,
		ZipCode:  input.ZipCode,
		Country:  country,
	}

	// company + owner membership in one transaction
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&company).Error; err != nil {
			return err
		}
		membership := UserCompanyMembership{
			UserId:    userId,
			CompanyId: company.ID,
			Role:      MembershipRoleOwner,
			IsActive:  utils.NewTrue(),
		}
		return tx.Create(&membership).Error
	})
	if err != nil {
		return nil, err
	}

	return &company, nil
}

func GetCompany(ctx context.Context, id string) (*Company, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}
	isSuperuser, _ := utils.GetIsSuperuserFromContext(ctx)
	if !isSuperuser {
		member, err := IsCompanyMember(ctx, id, userId)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, utils.ErrorRecordNotFound
		}
	}

	return utils.FetchSingleModel[Company](ctx, id)
}

// GetUserCompanies lists companies the user is an active member of.
func GetUserCompanies(ctx context.Context, userId string) ([]*Company, error) {

	db := config.GetDB()
	var results []*Company
	err := db.WithContext(ctx).
		Joins("JOIN user_company_memberships m ON m.company_id = companies.id").
		Where("m.user_id = ? AND m.is_active = ?", userId, true).
		Order("companies.name").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func UpdateCompany(ctx context.Context, id string, input *NewCompany) (*Company, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}
	isSuperuser, _ := utils.GetIsSuperuserFromContext(ctx)
	if !isSuperuser {
		role, err := GetMembershipRole(ctx, id, userId)
		if err != nil {
			return nil, err
		}
		if !role.CanManage() {
			return nil, errors.New("only owners and admins can update the company")
		}
	}

	company, err := utils.FetchSingleModel[Company](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(company).Updates(map[string]interface{}{
		"Name":    input.Name,
		"Email":   input.Email,
		"Phone":   input.Phone,
		"Address": input.Address,
		"City":    input.City,
		"State":   input.State,
		"ZipCode": input.ZipCode,
		"Country": input.Country,
	}).Error
	if err != nil {
		return nil, err
	}

	return company, nil
}

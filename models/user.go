package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/PedroPPVM/Intelectus-Api/config"
	"github.com/PedroPPVM/Intelectus-Api/utils"
)

type User struct {
	ID             string    `gorm:"type:char(36);primaryKey" json:"id"`
	Email          string    `gorm:"size:255;not null;unique;index" json:"email" binding:"required"`
	FullName       string    `gorm:"size:255;not null" json:"full_name" binding:"required"`
	HashedPassword string    `gorm:"size:255;not null" json:"-"`
	IsActive       *bool     `gorm:"not null;default:true" json:"is_active"`
	IsSuperuser    *bool     `gorm:"not null;default:false" json:"is_superuser"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"full_name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

type Login struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginInfo struct {
	Token     string     `json:"token"`
	UserId    string     `json:"user_id"`
	FullName  string     `json:"full_name"`
	Email     string     `json:"email"`
	Companies []*Company `json:"companies"`
}

func (result *User) PrepareGive() {
	result.HashedPassword = ""
}

func CreateUser(ctx context.Context, input *NewUser) (*User, error) {

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if !utils.IsValidEmail(email) {
		return nil, errors.New("invalid email")
	}

	db := config.GetDB()
	var count int64
	if err := db.WithContext(ctx).Model(&User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("email already registered")
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := User{
		ID:             NewId(),
		Email:          email,
		FullName:       input.FullName,
		HashedPassword: string(hashed),
		IsActive:       utils.NewTrue(),
		IsSuperuser:    utils.NewFalse(),
	}

	// db action
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}

	user.PrepareGive()
	return &user, nil
}

// Authenticate verifies credentials and issues a signed token.
func Authenticate(ctx context.Context, input *Login) (*LoginInfo, error) {

	email := strings.ToLower(strings.TrimSpace(input.Email))

	db := config.GetDB()
	var user User
	if err := db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, errors.New("invalid email or password")
	}
	if user.IsActive != nil && !*user.IsActive {
		return nil, errors.New("user is inactive")
	}
	if err := utils.ComparePassword(user.HashedPassword, input.Password); err != nil {
		return nil, errors.New("invalid email or password")
	}

	token, err := utils.JwtGenerate(user.ID, user.Email, utils.DereferencePtr(user.IsSuperuser))
	if err != nil {
		return nil, err
	}

	// session cache, used by logout-based revocation
	_ = config.SetRedisValue("Token:"+token, user.Email, utils.GetCacheLifespan())

	companies, err := GetUserCompanies(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &LoginInfo{
		Token:     token,
		UserId:    user.ID,
		FullName:  user.FullName,
		Email:     user.Email,
		Companies: companies,
	}, nil
}

// destroy current session
func Logout(ctx context.Context) (bool, error) {
	token, ok := utils.GetTokenFromContext(ctx)
	if !ok || token == "" {
		return false, errors.New("token is required")
	}
	if err := config.RemoveRedisKey("Token:" + token); err != nil {
		return false, nil
	}
	return true, nil
}

func GetUser(ctx context.Context, id string) (*User, error) {
	result, err := utils.FetchSingleModel[User](ctx, id)
	if err != nil {
		return nil, err
	}
	result.PrepareGive()
	return result, nil
}

func GetUserByEmail(ctx context.Context, email string) (*User, error) {
	db := config.GetDB()
	var user User
	err := db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &user, nil
}

type UpdateUserInput struct {
	FullName string `json:"full_name" binding:"required"`
}

func UpdateUser(ctx context.Context, id string, input *UpdateUserInput) (*User, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}
	isSuperuser, _ := utils.GetIsSuperuserFromContext(ctx)
	if userId != id && !isSuperuser {
		return nil, errors.New("cannot update another user")
	}

	user, err := utils.FetchSingleModel[User](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(user).Updates(map[string]interface{}{
		"FullName": input.FullName,
	}).Error
	if err != nil {
		return nil, err
	}

	user.PrepareGive()
	return user, nil
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

func ChangePassword(ctx context.Context, input *ChangePasswordInput) (bool, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return false, errors.New("user id is required")
	}

	user, err := utils.FetchSingleModel[User](ctx, userId)
	if err != nil {
		return false, err
	}
	if err := utils.ComparePassword(user.HashedPassword, input.CurrentPassword); err != nil {
		return false, errors.New("current password does not match")
	}

	hashed, err := utils.HashPassword(input.NewPassword)
	if err != nil {
		return false, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(user).Updates(map[string]interface{}{
		"HashedPassword": string(hashed),
	}).Error
	if err != nil {
		return false, err
	}

	return true, nil
}

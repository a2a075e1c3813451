package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/PedroPPVM/Intelectus-Api/config"
	"github.com/PedroPPVM/Intelectus-Api/utils"
)

// Process is an intellectual-property process tracked for a company.
//
// is_edited marks rows changed by hand since the last reconcile; the
// reconcile engine never skips an edited row and clears the flag after
// writing gazette data back.
type Process struct {
	ID        string      `gorm:"type:char(36);primaryKey" json:"id"`
	CompanyId string      `gorm:"type:char(36);not null;uniqueIndex:ix_process_company_number" json:"company_id"`

	ProcessType   ProcessType `gorm:"size:20;not null" json:"process_type" binding:"required"`
	ProcessNumber string      `gorm:"size:50;not null;uniqueIndex:ix_process_company_number" json:"process_number" binding:"required"`
	Title         string      `gorm:"size:1000;not null" json:"title" binding:"required"`

	Depositor     string `gorm:"size:500" json:"depositor"`
	CnpjDepositor string `gorm:"size:20" json:"cnpj_depositor"`
	CpfDepositor  string `gorm:"size:15" json:"cpf_depositor"`
	Attorney      string `gorm:"size:500" json:"attorney"`

	DepositDate    *time.Time `json:"deposit_date"`
	ConcessionDate *time.Time `json:"concession_date"`
	ValidityDate   *time.Time `json:"validity_date"`

	Status    string            `gorm:"size:1000;not null" json:"status"`
	Situation *ProcessSituation `gorm:"size:30" json:"situation"`

	IsEdited      *bool      `gorm:"not null;default:false" json:"is_edited"`
	MagazineId    *string    `gorm:"type:char(36);index" json:"magazine_id"`
	LastScrapedAt *time.Time `json:"last_scraped_at"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProcess struct {
	ProcessType   ProcessType `json:"process_type" binding:"required"`
	ProcessNumber string      `json:"process_number" binding:"required,min=5,max=50"`
	Title         string      `json:"title" binding:"required,min=5,max=1000"`

	Depositor     string `json:"depositor"`
	CnpjDepositor string `json:"cnpj_depositor"`
	CpfDepositor  string `json:"cpf_depositor"`
	Attorney      string `json:"attorney"`

	DepositDate    *time.Time `json:"deposit_date"`
	ConcessionDate *time.Time `json:"concession_date"`
	ValidityDate   *time.Time `json:"validity_date"`

	Status    string            `json:"status"`
	Situation *ProcessSituation `json:"situation"`
}

func (input *NewProcess) validate(ctx context.Context, companyId string, id string) error {
	if !input.ProcessType.IsValid() {
		return errors.New("invalid process type")
	}
	if id != "" {
		if err := utils.ValidateResourceId[Process](ctx, companyId, id); err != nil {
			return err
		}
	}
	// process numbers are unique within a company
	if err := utils.ValidateUnique[Process](ctx, companyId, "process_number", input.ProcessNumber, id); err != nil {
		return err
	}
	return nil
}

func CreateProcess(ctx context.Context, input *NewProcess) (*Process, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	input.ProcessNumber = strings.TrimSpace(input.ProcessNumber)
	if err := input.validate(ctx, companyId, ""); err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = "PENDING"
	}

	process := Process{
		ID:             NewId(),
		CompanyId:      companyId,
		ProcessType:    input.ProcessType,
		ProcessNumber:  input.ProcessNumber,
		Title:          input.Title,
		Depositor:      input.Depositor,
		CnpjDepositor:  input.CnpjDepositor,
		CpfDepositor:   input.CpfDepositor,
		Attorney:       input.Attorney,
		DepositDate:    input.DepositDate,
		ConcessionDate: input.ConcessionDate,
		ValidityDate:   input.ValidityDate,
		Status:         status,
		Situation:      input.Situation,
		IsEdited:       utils.NewFalse(),
	}

	// db action
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&process).Error; err != nil {
		return nil, err
	}

	return &process, nil
}

// UpdateProcess applies a manual edit. Manual edits mark the row edited so
// the next reconcile re-reads the gazette for it even when the issue was
// already processed.
func UpdateProcess(ctx context.Context, id string, input *NewProcess) (*Process, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	input.ProcessNumber = strings.TrimSpace(input.ProcessNumber)
	if err := input.validate(ctx, companyId, id); err != nil {
		return nil, err
	}

	process, err := utils.FetchModel[Process](ctx, companyId, id)
	if err != nil {
		return nil, err
	}

	// db action
	db := config.GetDB()
	err = db.WithContext(ctx).Model(process).Updates(map[string]interface{}{
		"ProcessType":    input.ProcessType,
		"ProcessNumber":  input.ProcessNumber,
		"Title":          input.Title,
		"Depositor":      input.Depositor,
		"CnpjDepositor":  input.CnpjDepositor,
		"CpfDepositor":   input.CpfDepositor,
		"Attorney":       input.Attorney,
		"DepositDate":    input.DepositDate,
		"ConcessionDate": input.ConcessionDate,
		"ValidityDate":   input.ValidityDate,
		"Status":         input.Status,
		"Situation":      input.Situation,
		"IsEdited":       true,
	}).Error
	if err != nil {
		return nil, err
	}

	return process, nil
}

func DeleteProcess(ctx context.Context, id string) (*Process, error) {
	return DeleteResource[Process](ctx, id)
}

func GetProcess(ctx context.Context, id string) (*Process, error) {
	return GetResource[Process](ctx, id)
}

type ProcessFilter struct {
	ProcessType *ProcessType `form:"process_type"`
	Status      *string      `form:"status"`
	Search      *string      `form:"search"`
	Limit       int          `form:"limit"`
	Offset      int          `form:"offset"`
}

func GetProcesses(ctx context.Context, filter *ProcessFilter) ([]*Process, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("company_id = ?", companyId)

	if filter != nil {
		if filter.ProcessType != nil {
			dbCtx = dbCtx.Where("process_type = ?", *filter.ProcessType)
		}
		if filter.Status != nil && *filter.Status != "" {
			dbCtx = dbCtx.Where("status = ?", *filter.Status)
		}
		if filter.Search != nil && *filter.Search != "" {
			search := "%" + *filter.Search + "%"
			dbCtx = dbCtx.Where("process_number LIKE ? OR title LIKE ? OR depositor LIKE ?", search, search, search)
		}
		if filter.Limit > 0 {
			dbCtx = dbCtx.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			dbCtx = dbCtx.Offset(filter.Offset)
		}
	}

	var results []*Process
	if err := dbCtx.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetProcessesByType lists a company's processes of one category, for reconcile runs.
func GetProcessesByType(ctx context.Context, companyId string, processType ProcessType) ([]*Process, error) {
	db := config.GetDB()
	var results []*Process
	err := db.WithContext(ctx).
		Where("company_id = ? AND process_type = ?", companyId, processType).
		Order("process_number").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ApplyGazetteUpdate writes gazette-derived fields in one statement and
// clears the edited flag. Used only by the reconcile engine.
func ApplyGazetteUpdate(ctx context.Context, id string, status string, magazineId string) error {
	now := time.Now()
	db := config.GetDB()
	return db.WithContext(ctx).Model(&Process{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"Status":        status,
			"MagazineId":    magazineId,
			"IsEdited":      false,
			"LastScrapedAt": &now,
		}).Error
}

// GetProcessByNumber looks a process up by its registry number within the
// acting company.
func GetProcessByNumber(ctx context.Context, processNumber string) (*Process, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId == "" {
		return nil, errors.New("company id is required")
	}

	db := config.GetDB()
	var process Process
	err := db.WithContext(ctx).
		Where("company_id = ? AND process_number = ?", companyId, strings.TrimSpace(processNumber)).
		First(&process).Error
	if err != nil {
		return nil, err
	}
	return &process, nil
}

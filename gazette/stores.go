package gazette

import (
	"context"
	"fmt"
	"time"

	"github.com/PedroPPVM/Intelectus-Api/config"
	"github.com/PedroPPVM/Intelectus-Api/models"
	"gorm.io/gorm"
)

// DbProcessStore backs ProcessStore with the relational models.
type DbProcessStore struct{}

func NewDbProcessStore() *DbProcessStore { return &DbProcessStore{} }

func (s *DbProcessStore) Get(ctx context.Context, companyId string, processNumber string) (*models.Process, error) {
	db := config.GetDB()
	var process models.Process
	err := db.WithContext(ctx).
		Where("company_id = ? AND process_number = ?", companyId, processNumber).
		First(&process).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &process, nil
}

func (s *DbProcessStore) List(ctx context.Context, companyId string, processType *models.ProcessType) ([]*models.Process, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("company_id = ?", companyId)
	if processType != nil {
		dbCtx = dbCtx.Where("process_type = ?", *processType)
	}
	var results []*models.Process
	if err := dbCtx.Order("process_number").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *DbProcessStore) ApplyGazetteUpdate(ctx context.Context, processId string, status string, magazineId string) error {
	return models.ApplyGazetteUpdate(ctx, processId, status, magazineId)
}

// DbIssueStore backs IssueStore with the rpi_magazines table.
type DbIssueStore struct{}

func NewDbIssueStore() *DbIssueStore { return &DbIssueStore{} }

func (s *DbIssueStore) Get(ctx context.Context, processType models.ProcessType, identifier string) (*models.RPIMagazine, error) {
	return models.GetMagazine(ctx, processType, identifier)
}

func (s *DbIssueStore) GetOrCreate(ctx context.Context, ref IssueRef) (*models.RPIMagazine, bool, error) {
	existing, err := models.GetMagazine(ctx, ref.ProcessType, ref.Identifier)
	if err != nil {
		return nil, false, err
	}
	magazine, err := models.GetOrCreateMagazine(ctx, ref.ProcessType, ref.Identifier, ref.Url)
	if err != nil {
		// concurrent get-or-create may race on the unique index; fall back
		// to re-reading the winner's row
		if retry, retryErr := models.GetMagazine(ctx, ref.ProcessType, ref.Identifier); retryErr == nil && retry != nil {
			return retry, false, nil
		}
		return nil, false, err
	}
	created := existing == nil
	if created && ref.PublicationDate != nil {
		db := config.GetDB()
		_ = db.WithContext(ctx).Model(magazine).
			Update("publication_date", ref.PublicationDate).Error
		magazine.PublicationDate = ref.PublicationDate
	}
	return magazine, created, nil
}

func (s *DbIssueStore) MarkProcessed(ctx context.Context, issueId string) error {
	return models.MarkMagazineProcessed(ctx, issueId)
}

// AlertNotifier fans a status transition out as alerts to every active
// member of the process's company.
type AlertNotifier struct{}

func NewAlertNotifier() *AlertNotifier { return &AlertNotifier{} }

func (n *AlertNotifier) Notify(ctx context.Context, process *models.Process, oldStatus string, newStatus string, issueIdentifier string) error {

	// direct membership read: access control was already checked before the
	// engine ran, and async runs carry no user identity in ctx
	db := config.GetDB()
	var members []*models.UserCompanyMembership
	err := db.WithContext(ctx).
		Where("company_id = ? AND is_active = ?", process.CompanyId, true).
		Find(&members).Error
	if err != nil {
		return err
	}

	title := fmt.Sprintf("Processo %s mudou de status", process.ProcessNumber)
	message := fmt.Sprintf(
		"O processo %s passou de %q para %q na revista %s, verificada em %s.",
		process.ProcessNumber, oldStatus, newStatus, issueIdentifier,
		time.Now().Format("02/01/2006"),
	)

	var lastErr error
	for _, member := range members {
		_, err := models.CreateAlert(ctx, &models.NewAlert{
			Title:     title,
			Message:   message,
			AlertType: models.AlertTypeStatusChange,
			UserId:    member.UserId,
			ProcessId: &process.ID,
		})
		if err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// NewDefaultEngine wires the engine with its production collaborators.
func NewDefaultEngine() *Engine {
	return NewEngine(
		NewHttpLocator(),
		NewHttpFetcher(),
		NewDbProcessStore(),
		NewDbIssueStore(),
		NewAlertNotifier(),
	)
}

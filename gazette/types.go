package gazette

import (
	"context"
	"encoding/json"
	"time"

	"github.com/PedroPPVM/Intelectus-Api/models"
)

// StatusRecord is one process entry extracted from a gazette issue.
type StatusRecord struct {
	ProcessNumber string `json:"process_number"`
	Status        string `json:"status"`
	Title         string `json:"title,omitempty"`
}

// IssueRef points at the currently published issue for one category.
type IssueRef struct {
	ProcessType     models.ProcessType `json:"process_type"`
	Url             string             `json:"url"`
	Identifier      string             `json:"identifier"`
	PublicationDate *time.Time         `json:"publication_date,omitempty"`
}

// Document is a downloaded gazette rendered as pages of text lines.
// Documents live for a single reconcile invocation and are never cached.
type Document interface {
	NumPages() int
	PageLines(page int) []string
}

// Locator discovers the latest issue per category from the published index page.
type Locator interface {
	LatestIssues(ctx context.Context) (map[models.ProcessType]IssueRef, error)
	LatestIssue(ctx context.Context, processType models.ProcessType) (IssueRef, error)
}

// Fetcher downloads a gazette document.
type Fetcher interface {
	FetchDocument(ctx context.Context, url string) (Document, error)
}

// ProcessStore is the engine's view of tracked processes.
type ProcessStore interface {
	// Get returns nil when the number is not registered for the company.
	Get(ctx context.Context, companyId string, processNumber string) (*models.Process, error)
	List(ctx context.Context, companyId string, processType *models.ProcessType) ([]*models.Process, error)
	// ApplyGazetteUpdate atomically sets status + magazine link and clears is_edited.
	ApplyGazetteUpdate(ctx context.Context, processId string, status string, magazineId string) error
}

// IssueStore tracks gazette issues with get-or-create semantics.
type IssueStore interface {
	// Get returns nil when the issue has never been seen.
	Get(ctx context.Context, processType models.ProcessType, identifier string) (*models.RPIMagazine, error)
	GetOrCreate(ctx context.Context, ref IssueRef) (*models.RPIMagazine, bool, error)
	MarkProcessed(ctx context.Context, issueId string) error
}

// Notifier fans a status transition out to entitled users. Failures are the
// caller's to log; they never roll back the reconcile write.
type Notifier interface {
	Notify(ctx context.Context, process *models.Process, oldStatus string, newStatus string, issueIdentifier string) error
}

// ReconcileResult is the outcome of a single-process reconcile.
type ReconcileResult struct {
	ProcessNumber      string `json:"process_number"`
	Status             string `json:"status"`
	MagazineIdentifier string `json:"magazine_identifier"`
	Skipped            bool   `json:"skipped"`
	FoundInIssue       bool   `json:"found_in_issue"`
	Updated            bool   `json:"updated"`
}

// CategorySummary is the per-category slice of a bulk reconcile summary.
type CategorySummary struct {
	ProcessType models.ProcessType `json:"process_type"`
	Total       int                `json:"total"`
	Updated     int                `json:"updated"`
	NotFound    int                `json:"not_found"`
	NewIssue    bool               `json:"new_issue"`
	Identifier  string             `json:"identifier,omitempty"`
	Skipped     bool               `json:"skipped"`
	Message     string             `json:"message,omitempty"`
	Error       string             `json:"error,omitempty"`
}

// Summary aggregates a bulk reconcile across categories.
type Summary struct {
	CompanyId      string             `json:"company_id"`
	TotalProcesses int                `json:"total_processes"`
	TotalUpdated   int                `json:"total_updated"`
	TotalNotFound  int                `json:"total_not_found"`
	NewIssues      int                `json:"new_issues"`
	ErrorCount     int                `json:"error_count"`
	Categories     []*CategorySummary `json:"categories"`
}

func EncodeSummary(s *Summary) []byte {
	b, _ := json.Marshal(s)
	return b
}

func DecodeSummary(raw []byte) *Summary {
	if len(raw) == 0 {
		return nil
	}
	var s Summary
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return &s
}

// ReconcileTypes restricts an async run to a set of categories; empty means all.
type ReconcileTypes []models.ProcessType

func DecodeTypes(raw []byte) ReconcileTypes {
	if len(raw) == 0 {
		return nil
	}
	var types ReconcileTypes
	if err := json.Unmarshal(raw, &types); err != nil {
		return nil
	}
	return types
}

func EncodeTypes(types ReconcileTypes) []byte {
	b, _ := json.Marshal(types)
	return b
}

type PubSubPushEnvelope struct {
	Message struct {
		Data []byte `json:"data"`
		ID   string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

type ReconcilePubSubPayload struct {
	RunId     string `json:"run_id"`
	CompanyId string `json:"company_id"`
}

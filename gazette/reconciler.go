package gazette

import (
	"context"
	"fmt"

	"github.com/PedroPPVM/Intelectus-Api/config"
	"github.com/PedroPPVM/Intelectus-Api/models"
	"github.com/sirupsen/logrus"
)

const moduleName = "Gazette"

// Engine reconciles stored process records against the latest gazette issue
// per category. All collaborators are injected so the engine itself stays
// free of persistence and transport concerns.
type Engine struct {
	locator   Locator
	fetcher   Fetcher
	processes ProcessStore
	issues    IssueStore
	notifier  Notifier
	logger    *logrus.Logger
}

func NewEngine(locator Locator, fetcher Fetcher, processes ProcessStore, issues IssueStore, notifier Notifier) *Engine {
	return &Engine{
		locator:   locator,
		fetcher:   fetcher,
		processes: processes,
		issues:    issues,
		notifier:  notifier,
		logger:    config.GetLogger(),
	}
}

// ReconcileOne synchronizes a single process against the latest issue of its
// category.
//
// Skip rule: when the latest issue is already processed, the process is
// linked to it, and no human has edited the record, the call returns without
// downloading anything. That rule is the central performance optimization;
// an is_edited flag always defeats it.
func (e *Engine) ReconcileOne(ctx context.Context, companyId string, processNumber string, processType models.ProcessType) (*ReconcileResult, error) {

	ref, err := e.locator.LatestIssue(ctx, processType)
	if err != nil {
		return nil, err
	}

	process, err := e.processes.Get(ctx, companyId, processNumber)
	if err != nil {
		return nil, err
	}
	if process == nil {
		return nil, fmt.Errorf("%w: %s", ErrProcessNotFound, processNumber)
	}

	// read-only lookup; creation is deferred until we know work is needed
	issue, err := e.issues.Get(ctx, processType, ref.Identifier)
	if err != nil {
		return nil, err
	}
	if issue != nil && e.isSynced(process, issue) {
		return &ReconcileResult{
			ProcessNumber:      process.ProcessNumber,
			Status:             process.Status,
			MagazineIdentifier: issue.MagazineIdentifier,
			Skipped:            true,
		}, nil
	}

	issue, _, err = e.issues.GetOrCreate(ctx, ref)
	if err != nil {
		return nil, err
	}

	doc, err := e.fetcher.FetchDocument(ctx, ref.Url)
	if err != nil {
		return nil, err
	}

	result, err := e.reconcileAgainstDocument(ctx, process, issue, doc)
	if err != nil {
		return nil, err
	}
	if !result.FoundInIssue {
		// not in this issue: leave processed_at untouched so the next call
		// re-checks once the record does appear
		return result, nil
	}

	if err := e.issues.MarkProcessed(ctx, issue.ID); err != nil {
		return nil, err
	}
	return result, nil
}

// ReconcileCompany synchronizes every process of a company, grouped by
// category, downloading each category's gazette at most once. A nil
// processType covers all categories.
//
// Failures are isolated: a broken category or a single bad record never
// aborts the rest of the run.
func (e *Engine) ReconcileCompany(ctx context.Context, companyId string, processType *models.ProcessType) (*Summary, error) {

	processes, err := e.processes.List(ctx, companyId, processType)
	if err != nil {
		return nil, err
	}

	groups := make(map[models.ProcessType][]*models.Process)
	for _, p := range processes {
		groups[p.ProcessType] = append(groups[p.ProcessType], p)
	}

	summary := &Summary{CompanyId: companyId}
	for _, t := range models.AllProcessTypes {
		group, ok := groups[t]
		if !ok {
			continue
		}
		catSummary := e.reconcileCategory(ctx, companyId, t, group)
		summary.Categories = append(summary.Categories, catSummary)
		summary.TotalProcesses += catSummary.Total
		summary.TotalUpdated += catSummary.Updated
		summary.TotalNotFound += catSummary.NotFound
		if catSummary.NewIssue {
			summary.NewIssues++
		}
		if catSummary.Error != "" {
			summary.ErrorCount++
		}
	}
	return summary, nil
}

// ReconcileCompanyTypes runs a bulk reconcile restricted to the given
// categories, merging the per-category results into one summary. An empty
// set covers every category.
func (e *Engine) ReconcileCompanyTypes(ctx context.Context, companyId string, types []models.ProcessType) (*Summary, error) {

	if len(types) == 0 {
		return e.ReconcileCompany(ctx, companyId, nil)
	}

	requested := make(map[models.ProcessType]bool, len(types))
	for _, t := range types {
		requested[t] = true
	}

	summary := &Summary{CompanyId: companyId}
	for _, t := range models.AllProcessTypes {
		if !requested[t] {
			continue
		}
		part, err := e.ReconcileCompany(ctx, companyId, &t)
		if err != nil {
			return nil, err
		}
		summary.Categories = append(summary.Categories, part.Categories...)
		summary.TotalProcesses += part.TotalProcesses
		summary.TotalUpdated += part.TotalUpdated
		summary.TotalNotFound += part.TotalNotFound
		summary.NewIssues += part.NewIssues
		summary.ErrorCount += part.ErrorCount
	}
	return summary, nil
}

func (e *Engine) reconcileCategory(ctx context.Context, companyId string, processType models.ProcessType, group []*models.Process) *CategorySummary {

	catSummary := &CategorySummary{
		ProcessType: processType,
		Total:       len(group),
	}

	ref, err := e.locator.LatestIssue(ctx, processType)
	if err != nil {
		catSummary.Error = err.Error()
		return catSummary
	}
	catSummary.Identifier = ref.Identifier

	issue, err := e.issues.Get(ctx, processType, ref.Identifier)
	if err != nil {
		catSummary.Error = err.Error()
		return catSummary
	}

	// group-level skip: every record synced to a processed issue, none edited
	if issue != nil && e.allSynced(group, issue) {
		catSummary.Skipped = true
		catSummary.Message = "all processes already synced to issue " + issue.MagazineIdentifier
		return catSummary
	}

	issue, created, err := e.issues.GetOrCreate(ctx, ref)
	if err != nil {
		catSummary.Error = err.Error()
		return catSummary
	}
	catSummary.NewIssue = created

	// one download shared by every process in the category
	doc, err := e.fetcher.FetchDocument(ctx, ref.Url)
	if err != nil {
		catSummary.Error = err.Error()
		return catSummary
	}

	for _, process := range group {
		if e.isSynced(process, issue) {
			continue
		}
		result, err := e.reconcileAgainstDocument(ctx, process, issue, doc)
		if err != nil {
			config.LogError(e.logger, moduleName, "reconcileCategory", "process reconcile failed", process.ProcessNumber, err)
			continue
		}
		if result.Updated {
			catSummary.Updated++
		}
		if !result.FoundInIssue {
			catSummary.NotFound++
		}
	}

	if err := e.issues.MarkProcessed(ctx, issue.ID); err != nil {
		catSummary.Error = err.Error()
	}
	return catSummary
}

// reconcileAgainstDocument extracts one process's record from an already
// downloaded document and applies any needed update.
func (e *Engine) reconcileAgainstDocument(ctx context.Context, process *models.Process, issue *models.RPIMagazine, doc Document) (*ReconcileResult, error) {

	record, err := Extract(process.ProcessNumber, process.ProcessType, doc)
	if err != nil {
		return nil, err
	}
	if record == nil {
		// absent from this issue: expected, no mutation
		return &ReconcileResult{
			ProcessNumber:      process.ProcessNumber,
			Status:             process.Status,
			MagazineIdentifier: issue.MagazineIdentifier,
		}, nil
	}

	oldStatus := process.Status
	newStatus := record.Status
	changed := newStatus != "" && newStatus != oldStatus

	// single atomic write: status, issue link, and edited-flag reset
	if err := e.processes.ApplyGazetteUpdate(ctx, process.ID, statusOrKeep(newStatus, oldStatus), issue.ID); err != nil {
		return nil, err
	}

	if changed {
		// notification failures never roll back the applied update
		if err := e.notifier.Notify(ctx, process, oldStatus, newStatus, issue.MagazineIdentifier); err != nil {
			config.LogError(e.logger, moduleName, "reconcileAgainstDocument", "notification fan-out failed", process.ProcessNumber, err)
		}
	}

	status := oldStatus
	if changed {
		status = newStatus
	}
	return &ReconcileResult{
		ProcessNumber:      process.ProcessNumber,
		Status:             status,
		MagazineIdentifier: issue.MagazineIdentifier,
		FoundInIssue:       true,
		Updated:            changed,
	}, nil
}

// isSynced applies the skip rule for one record: the issue was fully
// processed, the record already points at it, and no human edited it since.
func (e *Engine) isSynced(process *models.Process, issue *models.RPIMagazine) bool {
	if !issue.IsProcessed() {
		return false
	}
	if process.MagazineId == nil || *process.MagazineId != issue.ID {
		return false
	}
	return process.IsEdited == nil || !*process.IsEdited
}

func (e *Engine) allSynced(group []*models.Process, issue *models.RPIMagazine) bool {
	for _, process := range group {
		if !e.isSynced(process, issue) {
			return false
		}
	}
	return true
}

func statusOrKeep(newStatus string, oldStatus string) string {
	if newStatus == "" {
		return oldStatus
	}
	return newStatus
}

package gazette

import (
	"context"
	"time"

	"github.com/PedroPPVM/Intelectus-Api/config"
	"github.com/PedroPPVM/Intelectus-Api/models"
	"github.com/PedroPPVM/Intelectus-Api/utils"
)

// ProcessReconcileRun executes a queued reconcile run end to end and stamps
// the run row with the outcome. Re-delivered messages for finished runs are
// no-ops.
func ProcessReconcileRun(ctx context.Context, payload ReconcilePubSubPayload) error {
	logger := config.GetLogger()

	db := config.GetDB()
	var run models.ReconcileRun
	if err := db.WithContext(ctx).
		Where("id = ? AND company_id = ?", payload.RunId, payload.CompanyId).
		Take(&run).Error; err != nil {
		return err
	}

	if run.Status == models.ReconcileRunStatusSuccess ||
		run.Status == models.ReconcileRunStatusFailed ||
		run.Status == models.ReconcileRunStatusPartial {
		return nil
	}

	// one run at a time per company
	release, err := utils.CompanyLock(ctx, payload.CompanyId, "reconcile", moduleName, "ProcessReconcileRun")
	if err != nil {
		return err
	}
	defer release()

	now := time.Now()
	startedAt := run.StartedAt
	if startedAt == nil {
		startedAt = &now
	}

	if err := models.UpdateReconcileRun(ctx, &run, map[string]interface{}{
		"status":     models.ReconcileRunStatusRunning,
		"started_at": startedAt,
	}); err != nil {
		return err
	}

	engine := NewDefaultEngine()

	summary, runErr := engine.ReconcileCompanyTypes(ctx, payload.CompanyId, DecodeTypes(run.TypesJSON))

	finishedAt := time.Now()
	durationMs := finishedAt.Sub(*startedAt).Milliseconds()

	if runErr != nil {
		config.LogError(logger, moduleName, "ProcessReconcileRun", "reconcile run failed", payload.RunId, runErr)
		return models.UpdateReconcileRun(ctx, &run, map[string]interface{}{
			"status":        models.ReconcileRunStatusFailed,
			"finished_at":   finishedAt,
			"duration_ms":   durationMs,
			"error_count":   1,
			"error_message": runErr.Error(),
		})
	}

	status := models.ReconcileRunStatusSuccess
	if summary.ErrorCount > 0 && summary.TotalUpdated == 0 {
		status = models.ReconcileRunStatusFailed
	} else if summary.ErrorCount > 0 {
		status = models.ReconcileRunStatusPartial
	}

	return models.UpdateReconcileRun(ctx, &run, map[string]interface{}{
		"status":      status,
		"finished_at": finishedAt,
		"duration_ms": durationMs,
		"updated":     summary.TotalUpdated,
		"skipped":     countSkipped(summary),
		"not_found":   summary.TotalNotFound,
		"error_count": summary.ErrorCount,
		"stats_json":  EncodeSummary(summary),
	})
}

func countSkipped(summary *Summary) int {
	skipped := 0
	for _, cat := range summary.Categories {
		if cat.Skipped {
			skipped += cat.Total
		}
	}
	return skipped
}

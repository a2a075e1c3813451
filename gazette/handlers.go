package gazette

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/PedroPPVM/Intelectus-Api/models"
	"github.com/PedroPPVM/Intelectus-Api/utils"
	"github.com/gin-gonic/gin"
)

type reconcileOneRequest struct {
	ProcessNumber string             `json:"process_number" binding:"required"`
	ProcessType   models.ProcessType `json:"process_type" binding:"required"`
}

// ReconcileProcessHandler runs a synchronous single-process reconcile.
func ReconcileProcessHandler(engine *Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		companyId, ok := utils.GetCompanyIdFromContext(c.Request.Context())
		if !ok || companyId == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "company id is required"})
			return
		}

		var req reconcileOneRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if !req.ProcessType.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid process type"})
			return
		}

		result, err := engine.ReconcileOne(c.Request.Context(), companyId, strings.TrimSpace(req.ProcessNumber), req.ProcessType)
		if err != nil {
			status := http.StatusInternalServerError
			switch {
			case errors.Is(err, ErrProcessNotFound):
				status = http.StatusNotFound
			case errors.Is(err, ErrCategoryNotSupported):
				status = http.StatusBadRequest
			case errors.Is(err, ErrSourceUnavailable):
				status = http.StatusBadGateway
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// ReconcileCompanyHandler runs a synchronous bulk reconcile for the acting
// company, optionally restricted to ?process_type=.
func ReconcileCompanyHandler(engine *Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		companyId, ok := utils.GetCompanyIdFromContext(c.Request.Context())
		if !ok || companyId == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "company id is required"})
			return
		}

		var processType *models.ProcessType
		if raw := strings.TrimSpace(c.Query("process_type")); raw != "" {
			t := models.ProcessType(strings.ToUpper(raw))
			if !t.IsValid() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid process type"})
				return
			}
			processType = &t
		}

		summary, err := engine.ReconcileCompany(c.Request.Context(), companyId, processType)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

type triggerRunRequest struct {
	Types ReconcileTypes `json:"types"`
}

// TriggerReconcileRunHandler queues an async reconcile run and publishes it.
// When publishing is disabled or fails, the run executes inline so callers
// still get progress without a broker.
func TriggerReconcileRunHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		companyId, ok := utils.GetCompanyIdFromContext(c.Request.Context())
		if !ok || companyId == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "company id is required"})
			return
		}

		var req triggerRunRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
				return
			}
		}
		for _, t := range req.Types {
			if !t.IsValid() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid process type"})
				return
			}
		}

		run := models.ReconcileRun{
			CompanyId:   companyId,
			Status:      models.ReconcileRunStatusQueued,
			TriggeredBy: models.ReconcileTriggeredManual,
			TypesJSON:   EncodeTypes(req.Types),
		}
		if err := models.CreateReconcileRun(c.Request.Context(), &run); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		payload := ReconcilePubSubPayload{RunId: run.ID, CompanyId: companyId}
		if envBoolDefault("RECONCILE_PUBLISH_ENABLED", true) {
			if err := PublishReconcileRun(c.Request.Context(), run.ID, companyId); err == nil {
				c.JSON(http.StatusAccepted, gin.H{"id": run.ID, "status": run.Status})
				return
			}
		}

		_ = ProcessReconcileRun(c.Request.Context(), payload)
		c.JSON(http.StatusOK, gin.H{"id": run.ID})
	}
}

// ReconcileRunsHandler lists recent runs for the acting company.
func ReconcileRunsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		companyId, ok := utils.GetCompanyIdFromContext(c.Request.Context())
		if !ok || companyId == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "company id is required"})
			return
		}

		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		runs, err := models.GetReconcileRuns(c.Request.Context(), companyId, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": runs})
	}
}

// ReconcileRunDetailHandler returns one run with its decoded summary.
func ReconcileRunDetailHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		companyId, ok := utils.GetCompanyIdFromContext(c.Request.Context())
		if !ok || companyId == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "company id is required"})
			return
		}

		run, err := models.GetReconcileRun(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		if run.CompanyId != companyId {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"run":     run,
			"summary": DecodeSummary(run.StatsJSON),
		})
	}
}

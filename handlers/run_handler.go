package handlers

import (
	"context"
	"errors"
	"net/http"

	"lexai-backend/logger"
	"lexai-backend/models"
	"lexai-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RunHandler starts background ingestion and embedding runs and reports on them
type RunHandler struct {
	runService *service.RunService
}

// NewRunHandler creates a new run handler
func NewRunHandler(runService *service.RunService) *RunHandler {
	return &RunHandler{runService: runService}
}

// StartIngestion handles POST /api/ingestion
func (h *RunHandler) StartIngestion(c *gin.Context) {
	h.startRun(c, models.RunKindIngest)
}

// StartBackfill handles POST /api/embeddings/backfill
func (h *RunHandler) StartBackfill(c *gin.Context) {
	h.startRun(c, models.RunKindEmbed)
}

func (h *RunHandler) startRun(c *gin.Context, kind models.RunKind) {
	result, err := h.runService.StartRun(c.Request.Context(), service.StartRunRequest{Kind: kind})
	if err != nil {
		if errors.Is(err, service.ErrRunInProgress) {
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "RUN_IN_PROGRESS",
					"message": err.Error(),
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "START_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	// The run outlives the request, so it gets a fresh context carrying only the logger
	log := logger.FromContext(c.Request.Context())
	go func() {
		bgCtx := logger.ContextWithLogger(context.Background(), log)
		if err := h.runService.ProcessRun(bgCtx, result.RunID, kind); err != nil {
			log.Error("Run failed", "run_id", result.RunID, "kind", kind, "error", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"data": gin.H{
			"run_id":  result.RunID,
			"kind":    kind,
			"status":  models.RunStatusPending,
			"message": "Run started. Poll /api/runs/:id for updates.",
		},
	})
}

// GetRun handles GET /api/runs/:id
func (h *RunHandler) GetRun(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid run ID format",
			},
		})
		return
	}

	run, err := h.runService.GetRun(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Run not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RETRIEVAL_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    run,
	})
}

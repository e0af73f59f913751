package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	model2 "github.com/ankitarsangwan-bit/misrecon/api/model"
	"github.com/ankitarsangwan-bit/misrecon/internal/apierror"
	"github.com/ankitarsangwan-bit/misrecon/model"
)

// StartReconciliation initiates a new reconciliation run over an upload.
func (a Api) StartReconciliation(c *gin.Context) {
	var req model2.StartReconciliation
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.ValidateStartReconciliation(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	runID, err := a.misrecon.StartReconciliation(c.Request.Context(), req.UploadID, req.DryRun)
	if err != nil {
		logrus.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start reconciliation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"run_id": runID})
}

// PreviewReconciliation computes the change-set for an upload without
// persisting anything.
func (a Api) PreviewReconciliation(c *gin.Context) {
	var req model2.StartReconciliation
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.ValidateStartReconciliation(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	changeSet, err := a.misrecon.PreviewReconciliation(c.Request.Context(), req.UploadID)
	if err != nil {
		logrus.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to preview reconciliation"})
		return
	}

	c.JSON(http.StatusOK, changeSet)
}

// GetReconciliationRun returns the persisted state of one run.
func (a Api) GetReconciliationRun(c *gin.Context) {
	runID, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /reconciliations/:id"})
		return
	}

	run, err := a.misrecon.GetReconciliationRun(c.Request.Context(), runID)
	if err != nil {
		var apiErr apierror.APIError
		if errors.As(err, &apiErr) {
			c.JSON(apierror.MapErrorToHTTPStatus(apiErr), apiErr)
			return
		}
		logrus.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reconciliation run"})
		return
	}

	c.JSON(http.StatusOK, run)
}

// GetPendingConflicts lists conflict-log entries awaiting manual resolution,
// paginated with limit and offset query parameters.
func (a Api) GetPendingConflicts(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}
	offset, err := strconv.ParseInt(c.DefaultQuery("offset", "0"), 10, 64)
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be a non-negative integer"})
		return
	}

	entries, err := a.misrecon.GetPendingConflicts(c.Request.Context(), limit, offset)
	if err != nil {
		logrus.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch pending conflicts"})
		return
	}
	if entries == nil {
		entries = []*model.ConflictEntry{}
	}

	c.JSON(http.StatusOK, gin.H{"conflicts": entries})
}

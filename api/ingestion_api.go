package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	model2 "github.com/ankitarsangwan-bit/misrecon/api/model"
	"github.com/ankitarsangwan-bit/misrecon/internal/apierror"
	"github.com/ankitarsangwan-bit/misrecon/model"
)

// UploadMISData handles the upload of one MIS extract file. An optional
// "mapping" form field carries a JSON object of source column to target
// field; when absent the mapping is auto-derived from the file headers.
func (a Api) UploadMISData(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File upload failed"})
		return
	}
	defer file.Close()

	var mapping model.ColumnMapping
	if raw := c.PostForm("mapping"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid mapping JSON"})
			return
		}
	}

	uploadID, total, rowErrors, err := a.misrecon.UploadMISData(c.Request.Context(), file, header.Filename, mapping)
	if err != nil {
		var apiErr apierror.APIError
		if errors.As(err, &apiErr) {
			c.JSON(apierror.MapErrorToHTTPStatus(apiErr), apiErr)
			return
		}
		logrus.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process upload"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"upload_id":    uploadID,
		"record_count": total,
		"row_errors":   rowErrors,
	})
}

// SuggestMapping derives a column mapping from posted source headers.
func (a Api) SuggestMapping(c *gin.Context) {
	var req model2.SuggestMapping
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.ValidateSuggestMapping(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	mapping := a.misrecon.SuggestColumnMapping(req.Headers)
	c.JSON(http.StatusOK, gin.H{
		"mapping":          mapping,
		"missing_required": mapping.MissingRequired(),
	})
}

package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ankitarsangwan-bit/misrecon/internal/apierror"
)

// GetApplicationRecord returns one stored application record.
func (a Api) GetApplicationRecord(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /records/:id"})
		return
	}

	record, err := a.misrecon.GetApplicationRecord(c.Request.Context(), id)
	if err != nil {
		var apiErr apierror.APIError
		if errors.As(err, &apiErr) {
			c.JSON(apierror.MapErrorToHTTPStatus(apiErr), apiErr)
			return
		}
		logrus.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch record"})
		return
	}

	c.JSON(http.StatusOK, record)
}

// GetLeadQualityReport returns the lead quality distribution.
func (a Api) GetLeadQualityReport(c *gin.Context) {
	report, err := a.misrecon.GetLeadQualityReport(c.Request.Context())
	if err != nil {
		logrus.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute lead quality report"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetKYCReport returns the KYC completion summary.
func (a Api) GetKYCReport(c *gin.Context) {
	report, err := a.misrecon.GetKYCReport(c.Request.Context())
	if err != nil {
		logrus.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute KYC report"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetStageFunnelReport returns the journey stage funnel.
func (a Api) GetStageFunnelReport(c *gin.Context) {
	report, err := a.misrecon.GetStageFunnelReport(c.Request.Context())
	if err != nil {
		logrus.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute funnel report"})
		return
	}
	c.JSON(http.StatusOK, report)
}

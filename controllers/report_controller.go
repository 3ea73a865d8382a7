package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"stylefit/services"
)

type ReportController struct {
	Sessions *services.SessionService
}

func NewReportController(svc *services.SessionService) *ReportController {
	return &ReportController{Sessions: svc}
}

func (rc *ReportController) Results(c *gin.Context) {
	r, err := rc.Sessions.Results(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// Download returns the plain-text report as an attachment.
func (rc *ReportController) Download(c *gin.Context) {
	text, err := rc.Sessions.Report(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", services.ReportFilename))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}

func (rc *ReportController) Email(c *gin.Context) {
	var body struct {
		To string `json:"to" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recipient address is required", "field": "to"})
		return
	}
	if err := rc.Sessions.EmailReport(c.Request.Context(), c.Param("id"), body.To); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "report sent"})
}

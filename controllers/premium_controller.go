package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"stylefit/models"
	"stylefit/services"
)

type PremiumController struct {
	Sessions *services.SessionService
}

func NewPremiumController(svc *services.SessionService) *PremiumController {
	return &PremiumController{Sessions: svc}
}

func (pc *PremiumController) Status(c *gin.Context) {
	st, err := pc.Sessions.Premium(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// Checkout takes an optional buyer; missing fields fall back to the configured test buyer.
func (pc *PremiumController) Checkout(c *gin.Context) {
	var buyer models.Buyer
	if err := c.ShouldBindJSON(&buyer); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid buyer"})
		return
	}
	st, err := pc.Sessions.Checkout(c.Request.Context(), c.Param("id"), buyer)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (pc *PremiumController) Skip(c *gin.Context) {
	st, err := pc.Sessions.Skip(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/apexgas/commerce/internal/intake"
	purchasedomain "github.com/apexgas/commerce/internal/purchase/domain"
)

func (s *Server) SubmitInquiry(c *gin.Context) {
	var req intake.Fields
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	info, err := intake.Validate(req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	submission, err := s.purchaseSvc.SubmitForm(c.Request.Context(), purchasedomain.CreateFormSubmissionRequest{
		Info:    info,
		Message: req.Message,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":     submission.ID.String(),
		"status": "received",
	})
}

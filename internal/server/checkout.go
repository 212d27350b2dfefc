package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	checkoutdomain "github.com/apexgas/commerce/internal/checkout/domain"
	"github.com/apexgas/commerce/internal/intake"
)

type checkoutSessionRequest struct {
	PriceType       string                  `json:"priceType"`
	BusinessInfo    intake.Fields           `json:"businessInfo"`
	DeliveryAddress *intake.DeliveryAddress `json:"deliveryAddress,omitempty"`
	SuccessURL      string                  `json:"successUrl,omitempty"`
	CancelURL       string                  `json:"cancelUrl,omitempty"`
}

func (s *Server) CreateCheckoutSession(c *gin.Context) {
	var req checkoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	info, err := intake.Validate(req.BusinessInfo)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	session, err := s.checkoutSvc.CreateSession(c.Request.Context(), checkoutdomain.CreateSessionRequest{
		TierCode:        req.PriceType,
		Buyer:           info,
		DeliveryAddress: req.DeliveryAddress,
		SuccessURL:      req.SuccessURL,
		CancelURL:       req.CancelURL,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

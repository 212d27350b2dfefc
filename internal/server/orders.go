package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/apexgas/commerce/internal/intake"
	orderdomain "github.com/apexgas/commerce/internal/order/domain"
)

type orderIntentRequest struct {
	Tier            string                  `json:"tier"`
	BusinessInfo    intake.Fields           `json:"businessInfo"`
	DeliveryAddress *intake.DeliveryAddress `json:"deliveryAddress,omitempty"`
}

type captureRequest struct {
	Kind           string `json:"kind"`
	OrderID        string `json:"orderId"`
	SubscriptionID string `json:"subscriptionId"`
	PayerEmail     string `json:"payerEmail"`
	Status         string `json:"status"`
	Amount         string `json:"amount"`
	Currency       string `json:"currency"`
	PlanID         string `json:"planId"`
	StartTime      string `json:"startTime"`
	CustomID       string `json:"customId"`
}

func (s *Server) CreateOrderIntent(c *gin.Context) {
	var req orderIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	info, err := intake.Validate(req.BusinessInfo)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	tier, err := s.catalog.Resolve(req.Tier)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	intent, err := s.orderSvc.BuildIntent(c.Request.Context(), orderdomain.BuildIntentRequest{
		TierCode:        tier.Code,
		PriceCents:      tier.AmountCents,
		Buyer:           info,
		DeliveryAddress: req.DeliveryAddress,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, intent)
}

func (s *Server) CaptureOrder(c *gin.Context) {
	var req captureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.orderSvc.HandleApproval(c.Request.Context(), orderdomain.ApprovalDetails{
		Kind:           orderdomain.ApprovalKind(req.Kind),
		PayerEmail:     req.PayerEmail,
		OrderID:        req.OrderID,
		SubscriptionID: req.SubscriptionID,
		Status:         req.Status,
		AmountValue:    req.Amount,
		CurrencyCode:   req.Currency,
		PlanID:         req.PlanID,
		StartTime:      req.StartTime,
		Correlation:    req.CustomID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

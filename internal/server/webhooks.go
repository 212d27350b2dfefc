package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	checkoutdomain "github.com/apexgas/commerce/internal/checkout/domain"
)

// HandleStripeWebhook hands the raw body to the checkout service.
// Redelivered events are acknowledged so the provider stops retrying.
func (s *Server) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	signature := c.GetHeader("Stripe-Signature")

	err = s.checkoutSvc.HandleWebhook(c.Request.Context(), payload, signature)
	if err != nil {
		if errors.Is(err, checkoutdomain.ErrEventAlreadyProcessed) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

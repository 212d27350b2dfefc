package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	purchasedomain "github.com/apexgas/commerce/internal/purchase/domain"
)

func (s *Server) ListPurchases(c *gin.Context) {
	pageSize := int32(0)
	if raw := c.Query("page_size"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || parsed < 0 {
			AbortWithError(c, newValidationError("page_size", "invalid_page_size", "page_size must be a non-negative integer"))
			return
		}
		pageSize = int32(parsed)
	}

	resp, err := s.purchaseSvc.List(c.Request.Context(), purchasedomain.ListRecordsRequest{
		PageToken: c.Query("page_token"),
		PageSize:  pageSize,
		Type:      purchasedomain.RecordType(c.Query("type")),
		Email:     c.Query("email"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetPurchase(c *gin.Context) {
	record, err := s.purchaseSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

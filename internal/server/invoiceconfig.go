package server

import (
	"net/http"

	invoiceconfigdomain "github.com/Gustavo653/Snarf-sub000/internal/invoiceconfig/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) GetInvoiceConfiguration(c *gin.Context) {
	resp, err := s.invoiceConfigSvc.Get(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateInvoiceConfiguration(c *gin.Context) {
	var req invoiceconfigdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.invoiceConfigSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

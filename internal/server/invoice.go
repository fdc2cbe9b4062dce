package server

import (
	"net/http"
	"strings"

	invoicedomain "github.com/Gustavo653/Snarf-sub000/internal/invoice/domain"
	"github.com/Gustavo653/Snarf-sub000/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

func (s *Server) CreateInvoice(c *gin.Context) {
	var req invoicedomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.invoiceSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListInvoices(c *gin.Context) {
	var query struct {
		pagination.Pagination
		CustomerID string `form:"customer_id"`
		Status     string `form:"status"`
		SortBy     string `form:"sort_by"`
		OrderBy    string `form:"order_by"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, pageInfo, err := s.invoiceSvc.List(c.Request.Context(), invoicedomain.ListRequest{
		CustomerID: strings.TrimSpace(query.CustomerID),
		Status:     strings.ToUpper(strings.TrimSpace(query.Status)),
		SortBy:     query.SortBy,
		OrderBy:    query.OrderBy,
		PageToken:  query.PageToken,
		PageSize:   query.PageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp, "page_info": pageInfo})
}

func (s *Server) GetInvoice(c *gin.Context) {
	resp, err := s.invoiceSvc.Get(c.Request.Context(), c.Param("invoiceId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// SaveInvoice replaces the line items of an OPEN invoice.
func (s *Server) SaveInvoice(c *gin.Context) {
	var req invoicedomain.SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.ID = c.Param("invoiceId")

	resp, err := s.invoiceSvc.Save(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// BillInvoice starts the billing pipeline. The response carries the
// invoice already in BILLING status; slip creation and notification
// run in the background.
func (s *Server) BillInvoice(c *gin.Context) {
	id := c.Param("invoiceId")
	if err := s.billingSvc.BillInvoice(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.invoiceSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CancelInvoice(c *gin.Context) {
	id := c.Param("invoiceId")
	if err := s.billingSvc.CancelInvoice(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.invoiceSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DownloadInvoicePdf(c *gin.Context) {
	document, err := s.billingSvc.RenderInvoicePdf(c.Request.Context(), c.Param("invoiceId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/pdf", document)
}

func (s *Server) DownloadBankSlip(c *gin.Context) {
	invoiceID, err := snowflake.ParseString(strings.TrimSpace(c.Param("invoiceId")))
	if err != nil {
		AbortWithError(c, invoicedomain.ErrInvalidID)
		return
	}

	document, err := s.gateway.GetBankSlipPdf(c.Request.Context(), invoiceID.Int64())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/pdf", document)
}

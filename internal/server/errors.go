package server

import (
	"errors"
	"net/http"

	boletodomain "github.com/Gustavo653/Snarf-sub000/internal/boleto/domain"
	customerdomain "github.com/Gustavo653/Snarf-sub000/internal/customer/domain"
	invoicedomain "github.com/Gustavo653/Snarf-sub000/internal/invoice/domain"
	invoiceconfigdomain "github.com/Gustavo653/Snarf-sub000/internal/invoiceconfig/domain"
	productdomain "github.com/Gustavo653/Snarf-sub000/internal/product/domain"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var ErrInvalidRequest = errors.New("invalid_request")

// ErrorHandlingMiddleware converts handler errors into a uniform JSON
// payload. Handlers never write error bodies themselves.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func isBadInputError(err error) bool {
	for _, sentinel := range []error{
		ErrInvalidRequest,
		customerdomain.ErrInvalidID,
		customerdomain.ErrInvalidName,
		customerdomain.ErrInvalidDocument,
		customerdomain.ErrInvalidBillingStatus,
		customerdomain.ErrInvalidGeneration,
		customerdomain.ErrInvalidInvoiceDate,
		customerdomain.ErrInvalidQuantity,
		productdomain.ErrInvalidID,
		productdomain.ErrInvalidName,
		productdomain.ErrInvalidPrice,
		invoicedomain.ErrInvalidID,
		invoicedomain.ErrInvalidTransition,
		invoicedomain.ErrNotOpen,
		invoicedomain.ErrInvalidReference,
		invoicedomain.ErrInvalidQuantity,
		invoicedomain.ErrEmptyItems,
		invoicedomain.ErrInvalidPageToken,
		invoiceconfigdomain.ErrConfigurationMissing,
		invoiceconfigdomain.ErrInvalidNumber,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func isNotFoundError(err error) bool {
	return errors.Is(err, customerdomain.ErrNotFound) ||
		errors.Is(err, productdomain.ErrNotFound) ||
		errors.Is(err, invoicedomain.ErrNotFound) ||
		errors.Is(err, boletodomain.ErrInvoiceNotFound) ||
		errors.Is(err, gorm.ErrRecordNotFound)
}

func isGatewayError(err error) bool {
	var gatewayErr *boletodomain.GatewayError
	return errors.As(err, &gatewayErr) ||
		errors.Is(err, boletodomain.ErrGatewayDisabled) ||
		errors.Is(err, boletodomain.ErrNoWorkspace)
}

func mapError(err error) (int, errorPayload) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	case isBadInputError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "bad_input",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, customerdomain.ErrDuplicateDocument):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: customerdomain.ErrDuplicateDocument.Error(),
		}
	case isGatewayError(err):
		// Provider bodies stay in the logs; clients get a generic error.
		return http.StatusBadGateway, errorPayload{
			Type:    "gateway_error",
			Message: "upstream gateway error",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := ""
	if err != nil {
		code = err.Error()
	}
	return payload.Type, code
}

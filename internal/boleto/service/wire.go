package service

import "github.com/Gustavo653/Snarf-sub000/internal/boleto/domain"

// Wire shapes for the provider's REST endpoints. Decoding fails closed:
// a response missing required fields is a GatewayError, never a silent
// default.

type listWorkspacesResponse struct {
	Workspaces []domain.Workspace `json:"workspaces"`
}

type createWorkspaceRequest struct {
	Type      string   `json:"type"`
	Covenants []string `json:"covenants"`
}

type slipPayer struct {
	Name         string `json:"name"`
	Document     string `json:"document"`
	DocumentType string `json:"documentType"`
	Address      string `json:"address"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zipCode"`
}

type slipBeneficiary struct {
	Name     string `json:"name"`
	Document string `json:"document"`
}

type createSlipRequest struct {
	Covenant     string          `json:"covenant"`
	NsuCode      string          `json:"nsuCode"`
	BankNumber   string          `json:"bankNumber"`
	ClientNumber string          `json:"clientNumber"`
	DueDate      string          `json:"dueDate"`
	Amount       string          `json:"amount"`
	Beneficiary  slipBeneficiary `json:"beneficiary"`
	Payer        slipPayer       `json:"payer"`
}

type slipResponse struct {
	OurNumber     string `json:"ourNumber"`
	Barcode       string `json:"barcode"`
	DigitableLine string `json:"digitableLine"`
}

type writeOffRequest struct {
	Covenant string `json:"covenant"`
}

type slipStatusResponse struct {
	Status string `json:"status"`
}

type slipPdfLinkResponse struct {
	URL string `json:"url"`
}

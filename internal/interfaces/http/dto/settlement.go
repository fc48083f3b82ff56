package dto

import "time"

// PaymentRequest asks for a lump payment to be allocated across a
// payer's outstanding obligations. Amount is in minor currency units.
type PaymentRequest struct {
	PayerID               string   `json:"payer_id" binding:"required,uuid"`
	Amount                int64    `json:"amount" binding:"required,gt=0"`
	SelectedObligationIDs []string `json:"selected_obligation_ids" binding:"omitempty,dive,uuid"`
	PaymentMethod         string   `json:"payment_method" binding:"omitempty,max=50"`
	Note                  string   `json:"note" binding:"omitempty,max=500"`
}

// SinglePaymentRequest pays one obligation directly. A missing or zero
// amount settles the full outstanding remainder.
type SinglePaymentRequest struct {
	Amount        int64  `json:"amount" binding:"omitempty,gte=0"`
	PaymentMethod string `json:"payment_method" binding:"omitempty,max=50"`
	Note          string `json:"note" binding:"omitempty,max=500"`
}

// CreateObligationRequest opens a new obligation for a payer
type CreateObligationRequest struct {
	Kind       string     `json:"kind" binding:"required,oneof=RECEIVABLE PAYABLE"`
	PayerID    string     `json:"payer_id" binding:"required,uuid"`
	Reference  string     `json:"reference" binding:"omitempty,max=100"`
	SourceID   string     `json:"source_id" binding:"omitempty,uuid"`
	Amount     int64      `json:"amount" binding:"required,gt=0"`
	IncurredAt *time.Time `json:"incurred_at" binding:"omitempty"`
	Note       string     `json:"note" binding:"omitempty,max=500"`
}

// IDRequest represents a request with an ID path parameter
type IDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// ObligationListQuery carries the query parameters of the obligation
// list endpoint
type ObligationListQuery struct {
	Kind     string `form:"kind" binding:"omitempty"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/domain/ledger"
	"github.com/hasapchy/back-sub001/internal/domain/transfer"
)

// --- Cash registers ---

type CreateCashRegisterRequest struct {
	Name       string   `json:"name" binding:"required"`
	CurrencyID id.ID    `json:"currencyId" binding:"required"`
	UserIDs    []string `json:"userIds"`
}

type UpdateCashRegisterRequest struct {
	Name    string   `json:"name" binding:"required"`
	UserIDs []string `json:"userIds"`
	Version int      `json:"version" binding:"omitempty,min=1"`
}

// --- Manual transactions ---

// TransactionRequest is the body of POST and PUT /transactions.
type TransactionRequest struct {
	Type           ledger.EntryType `json:"type" binding:"required,oneof=income expense"`
	Amount         decimal.Decimal  `json:"amount" binding:"decimal_non_negative"`
	CurrencyID     id.ID            `json:"currencyId" binding:"required"`
	CashRegisterID *id.ID           `json:"cashRegisterId"`
	CategoryID     *id.ID           `json:"categoryId"`
	ClientID       *id.ID           `json:"clientId"`
	ProjectID      *id.ID           `json:"projectId"`
	IsDebt         bool             `json:"isDebt"`
	Date           *time.Time       `json:"date"`
	Note           string           `json:"note"`
}

func (r TransactionRequest) ToDraft() ledger.Draft {
	d := ledger.Draft{
		Type:           r.Type,
		OrigAmount:     r.Amount,
		OrigCurrencyID: r.CurrencyID,
		CashRegisterID: r.CashRegisterID,
		CategoryID:     r.CategoryID,
		ClientID:       r.ClientID,
		ProjectID:      r.ProjectID,
		IsDebt:         r.IsDebt,
		Note:           r.Note,
		Source:         ledger.Manual(),
	}
	if r.Date != nil {
		d.Date = *r.Date
	}
	return d
}

// TransactionQuery filters GET /transactions.
type TransactionQuery struct {
	PageQuery
	CashRegisterID string `form:"cashRegisterId" binding:"omitempty,uuid"`
	ClientID       string `form:"clientId" binding:"omitempty,uuid"`
	SourceType     string `form:"sourceType"`
	SourceID       string `form:"sourceId" binding:"omitempty,uuid"`
	DateFrom       string `form:"dateFrom"`
	DateTo         string `form:"dateTo"`
	IncludeVoided  bool   `form:"includeVoided"`
}

// --- Transfers ---

// TransferRequest is the body of POST and PUT /transfers.
type TransferRequest struct {
	FromRegisterID id.ID           `json:"fromRegisterId" binding:"required"`
	ToRegisterID   id.ID           `json:"toRegisterId" binding:"required"`
	Amount         decimal.Decimal `json:"amount" binding:"decimal_positive"`
	Date           *time.Time      `json:"date"`
	Note           string          `json:"note"`
	// Version is checked on update when set.
	Version int `json:"version" binding:"omitempty,min=1"`
}

func (r TransferRequest) ToInput() transfer.Input {
	in := transfer.Input{
		FromRegisterID: r.FromRegisterID,
		ToRegisterID:   r.ToRegisterID,
		Amount:         r.Amount,
		Note:           r.Note,
	}
	if r.Date != nil {
		in.Date = *r.Date
	}
	return in
}

// --- Client balances ---

// AdjustBalanceRequest is a signed manual change of a client balance.
type AdjustBalanceRequest struct {
	Delta decimal.Decimal `json:"delta" binding:"decimal_nonzero"`
	Note  string          `json:"note"`
}

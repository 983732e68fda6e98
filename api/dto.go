/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal ledger records from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  decimal.Decimal fields are written as JSON strings ("1474.5") and accept
  either strings or numbers on input, so no float rounding happens on the
  way in or out.

DATES:
  transaction_date accepts RFC3339 ("2025-03-10T14:00:00-03:00") or a plain
  date ("2025-03-10", read as UTC midnight). Responses use RFC3339.

TAGS:
  Tags arrive as json.RawMessage and go through ledger.ParseTags, which
  rejects anything that is not an array of strings.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ana-biscalchin/finances/ledger"
)

// =============================================================================
// RESPONSE TYPES
// =============================================================================

type AccountDTO struct {
	ID               string          `json:"id"`
	UserID           string          `json:"user_id"`
	InstitutionName  string          `json:"institution_name"`
	InitialBalance   decimal.Decimal `json:"initial_balance"`
	Currency         string          `json:"currency"`
	AccountType      string          `json:"account_type"`
	PaymentMethodIDs []string        `json:"payment_method_ids"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type PaymentMethodDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CategoryDTO struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Color     *string   `json:"color,omitempty"`
	Icon      *string   `json:"icon,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TransactionDTO struct {
	ID              string          `json:"id"`
	AccountID       string          `json:"account_id"`
	CategoryID      *string         `json:"category_id"`
	PaymentMethodID *string         `json:"payment_method_id"`
	Name            string          `json:"name"`
	Amount          decimal.Decimal `json:"amount"`
	Type            string          `json:"type"`
	TransactionDate time.Time       `json:"transaction_date"`
	Description     *string         `json:"description,omitempty"`
	Payee           *string         `json:"payee,omitempty"`
	ReferenceNumber *string         `json:"reference_number,omitempty"`
	RecurringID     *string         `json:"recurring_id,omitempty"`
	Tags            []string        `json:"tags"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type BalanceDTO struct {
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
}

type BalanceDetailsDTO struct {
	AccountID      string          `json:"account_id"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	TotalIncome    decimal.Decimal `json:"total_income"`
	TotalExpense   decimal.Decimal `json:"total_expense"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	Start          *time.Time      `json:"start,omitempty"`
	End            *time.Time      `json:"end,omitempty"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

type CreateAccountRequest struct {
	UserID           string          `json:"user_id"`
	InstitutionName  string          `json:"institution_name"`
	InitialBalance   decimal.Decimal `json:"initial_balance"`
	Currency         string          `json:"currency"`
	AccountType      string          `json:"account_type"`
	PaymentMethodIDs []string        `json:"payment_method_ids"`
}

// UpdateAccountRequest is a partial update. A present payment_method_ids
// (even empty) replaces the association set.
type UpdateAccountRequest struct {
	InstitutionName  *string          `json:"institution_name"`
	InitialBalance   *decimal.Decimal `json:"initial_balance"`
	Currency         *string          `json:"currency"`
	AccountType      *string          `json:"account_type"`
	PaymentMethodIDs *[]string        `json:"payment_method_ids"`
}

type PaymentMethodRequest struct {
	Name string `json:"name"`
}

type AssociatePaymentMethodRequest struct {
	PaymentMethodID string `json:"payment_method_id"`
}

type CreateCategoryRequest struct {
	UserID string  `json:"user_id"`
	Name   string  `json:"name"`
	Type   string  `json:"type"`
	Color  *string `json:"color"`
	Icon   *string `json:"icon"`
}

type UpdateCategoryRequest struct {
	Name  *string `json:"name"`
	Type  *string `json:"type"`
	Color *string `json:"color"`
	Icon  *string `json:"icon"`
}

type CreateTransactionRequest struct {
	AccountID       string          `json:"account_id"`
	CategoryID      *string         `json:"category_id"`
	CategoryName    *string         `json:"category_name"`
	PaymentMethodID *string         `json:"payment_method_id"`
	Name            string          `json:"name"`
	Amount          decimal.Decimal `json:"amount"`
	Type            string          `json:"type"`
	TransactionDate string          `json:"transaction_date"`
	Description     *string         `json:"description"`
	Payee           *string         `json:"payee"`
	ReferenceNumber *string         `json:"reference_number"`
	RecurringID     *string         `json:"recurring_id"`
	Tags            json.RawMessage `json:"tags"`
}

type UpdateTransactionRequest struct {
	CategoryID      *string          `json:"category_id"`
	CategoryName    *string          `json:"category_name"`
	PaymentMethodID *string          `json:"payment_method_id"`
	Name            *string          `json:"name"`
	Amount          *decimal.Decimal `json:"amount"`
	Type            *string          `json:"type"`
	TransactionDate *string          `json:"transaction_date"`
	Description     *string          `json:"description"`
	Payee           *string          `json:"payee"`
	ReferenceNumber *string          `json:"reference_number"`
	RecurringID     *string          `json:"recurring_id"`
	Tags            json.RawMessage  `json:"tags"`
}

// =============================================================================
// REQUEST -> PARAMS
// =============================================================================

func (req CreateAccountRequest) params() ledger.CreateAccountParams {
	return ledger.CreateAccountParams{
		UserID:           req.UserID,
		InstitutionName:  req.InstitutionName,
		InitialBalance:   req.InitialBalance,
		Currency:         req.Currency,
		AccountType:      ledger.AccountType(req.AccountType),
		PaymentMethodIDs: req.PaymentMethodIDs,
	}
}

func (req UpdateAccountRequest) params() ledger.UpdateAccountParams {
	p := ledger.UpdateAccountParams{
		InstitutionName: req.InstitutionName,
		InitialBalance:  req.InitialBalance,
		Currency:        req.Currency,
	}
	if req.AccountType != nil {
		t := ledger.AccountType(*req.AccountType)
		p.AccountType = &t
	}
	if req.PaymentMethodIDs != nil {
		p.PaymentMethodIDs = *req.PaymentMethodIDs
		if p.PaymentMethodIDs == nil {
			p.PaymentMethodIDs = []string{}
		}
	}
	return p
}

func (req CreateCategoryRequest) params() ledger.CreateCategoryParams {
	return ledger.CreateCategoryParams{
		UserID: req.UserID,
		Name:   req.Name,
		Type:   ledger.TransactionType(req.Type),
		Color:  req.Color,
		Icon:   req.Icon,
	}
}

func (req UpdateCategoryRequest) params() ledger.UpdateCategoryParams {
	p := ledger.UpdateCategoryParams{
		Name:  req.Name,
		Color: req.Color,
		Icon:  req.Icon,
	}
	if req.Type != nil {
		t := ledger.TransactionType(*req.Type)
		p.Type = &t
	}
	return p
}

func (req CreateTransactionRequest) params() (ledger.CreateTransactionParams, error) {
	date, err := parseTime("transaction_date", req.TransactionDate)
	if err != nil {
		return ledger.CreateTransactionParams{}, err
	}
	tags, err := ledger.ParseTags(req.Tags)
	if err != nil {
		return ledger.CreateTransactionParams{}, err
	}
	return ledger.CreateTransactionParams{
		AccountID:       req.AccountID,
		CategoryID:      req.CategoryID,
		CategoryName:    req.CategoryName,
		PaymentMethodID: req.PaymentMethodID,
		Name:            req.Name,
		Amount:          req.Amount,
		Type:            ledger.TransactionType(req.Type),
		TransactionDate: date,
		Description:     req.Description,
		Payee:           req.Payee,
		ReferenceNumber: req.ReferenceNumber,
		RecurringID:     req.RecurringID,
		Tags:            tags,
	}, nil
}

func (req UpdateTransactionRequest) params() (ledger.UpdateTransactionParams, error) {
	p := ledger.UpdateTransactionParams{
		CategoryID:      req.CategoryID,
		CategoryName:    req.CategoryName,
		PaymentMethodID: req.PaymentMethodID,
		Name:            req.Name,
		Amount:          req.Amount,
		Description:     req.Description,
		Payee:           req.Payee,
		ReferenceNumber: req.ReferenceNumber,
		RecurringID:     req.RecurringID,
	}
	if req.Type != nil {
		t := ledger.TransactionType(*req.Type)
		p.Type = &t
	}
	if req.TransactionDate != nil {
		date, err := parseTime("transaction_date", *req.TransactionDate)
		if err != nil {
			return p, err
		}
		p.TransactionDate = &date
	}
	if req.Tags != nil {
		tags, err := ledger.ParseTags(req.Tags)
		if err != nil {
			return p, err
		}
		if tags == nil {
			tags = []string{}
		}
		p.Tags = &tags
	}
	return p, nil
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toAccountDTO(a ledger.Account) AccountDTO {
	ids := a.PaymentMethodIDs
	if ids == nil {
		ids = []string{}
	}
	return AccountDTO{
		ID:               a.ID,
		UserID:           a.UserID,
		InstitutionName:  a.InstitutionName,
		InitialBalance:   a.InitialBalance,
		Currency:         a.Currency,
		AccountType:      string(a.AccountType),
		PaymentMethodIDs: ids,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func toAccountDTOs(accounts []ledger.Account) []AccountDTO {
	dtos := make([]AccountDTO, len(accounts))
	for i, a := range accounts {
		dtos[i] = toAccountDTO(a)
	}
	return dtos
}

func toPaymentMethodDTO(pm ledger.PaymentMethod) PaymentMethodDTO {
	return PaymentMethodDTO{ID: pm.ID, Name: pm.Name, CreatedAt: pm.CreatedAt, UpdatedAt: pm.UpdatedAt}
}

func toPaymentMethodDTOs(methods []ledger.PaymentMethod) []PaymentMethodDTO {
	dtos := make([]PaymentMethodDTO, len(methods))
	for i, pm := range methods {
		dtos[i] = toPaymentMethodDTO(pm)
	}
	return dtos
}

func toCategoryDTO(c ledger.Category) CategoryDTO {
	return CategoryDTO{
		ID:        c.ID,
		UserID:    c.UserID,
		Name:      c.Name,
		Type:      string(c.Type),
		Color:     c.Color,
		Icon:      c.Icon,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toCategoryDTOs(categories []ledger.Category) []CategoryDTO {
	dtos := make([]CategoryDTO, len(categories))
	for i, c := range categories {
		dtos[i] = toCategoryDTO(c)
	}
	return dtos
}

func toTransactionDTO(tx ledger.Transaction) TransactionDTO {
	tags := tx.Tags
	if tags == nil {
		tags = []string{}
	}
	return TransactionDTO{
		ID:              tx.ID,
		AccountID:       tx.AccountID,
		CategoryID:      tx.CategoryID,
		PaymentMethodID: tx.PaymentMethodID,
		Name:            tx.Name,
		Amount:          tx.Amount,
		Type:            string(tx.Type),
		TransactionDate: tx.TransactionDate,
		Description:     tx.Description,
		Payee:           tx.Payee,
		ReferenceNumber: tx.ReferenceNumber,
		RecurringID:     tx.RecurringID,
		Tags:            tags,
		CreatedAt:       tx.CreatedAt,
		UpdatedAt:       tx.UpdatedAt,
	}
}

func toTransactionDTOs(txs []ledger.Transaction) []TransactionDTO {
	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = toTransactionDTO(tx)
	}
	return dtos
}

func toBalanceDetailsDTO(accountID string, b ledger.BalanceDetails) BalanceDetailsDTO {
	return BalanceDetailsDTO{
		AccountID:      accountID,
		InitialBalance: b.InitialBalance,
		TotalIncome:    b.TotalIncome,
		TotalExpense:   b.TotalExpense,
		CurrentBalance: b.CurrentBalance,
	}
}

// parseTime accepts RFC3339 or a plain YYYY-MM-DD date (UTC midnight).
func parseTime(field, s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.UTC)
	if err != nil {
		return time.Time{}, &ledger.ValidationError{
			Field:  field,
			Reason: "must be RFC3339 or YYYY-MM-DD",
		}
	}
	return t, nil
}

// isDateOnly reports whether s is a plain date without a time part.
func isDateOnly(s string) bool {
	_, err := time.ParseInLocation(time.DateOnly, s, time.UTC)
	return err == nil
}

// Package finance implements the financial handler: budgets, transactions,
// invoices and reports, persisted as records in the financial category.
package finance

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rcliao/site-assistant/internal/apperr"
	"github.com/rcliao/site-assistant/internal/logging"
	"github.com/rcliao/site-assistant/internal/model"
	"github.com/rcliao/site-assistant/internal/store"
)

// Record type discriminators stored under metadata "type".
const (
	MetaType = "type"

	TypeBudget      = "budget"
	TypeTransaction = "transaction"
	TypeInvoice     = "invoice"
	TypeReport      = "financial_report"
)

const (
	historyLimit        = 100
	defaultCategory     = "Uncategorized"
	vendorPayment       = "Vendor Payment"
	entityTimestampMeta = "transaction_timestamp"
)

// Store is the slice of the memory store the handler uses.
type Store interface {
	Add(ctx context.Context, p store.AddParams) (string, error)
	Search(ctx context.Context, p store.SearchParams) ([]model.Record, error)
}

// Service is the financial handler.
type Service struct {
	store  Store
	logger logging.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Service) { s.logger = logging.OrNop(l) }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService returns a financial handler writing to s.
func NewService(s Store, opts ...Option) *Service {
	svc := &Service{store: s, logger: logging.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *Service) isoNow() string {
	return s.now().UTC().Format(time.RFC3339)
}

// CreateBudget validates and stores a new budget.
func (s *Service) CreateBudget(ctx context.Context, b model.Budget) (*model.Budget, error) {
	const op = "finance.CreateBudget"
	if strings.TrimSpace(b.ProjectID) == "" {
		return nil, apperr.Required(op, "project_id")
	}
	if b.TotalAmount <= 0 {
		return nil, apperr.Validation(op, "total_amount", "total_amount must be positive")
	}
	if err := validateCategories(op, b.Categories); err != nil {
		return nil, err
	}
	if b.BudgetID == "" {
		b.BudgetID = uuid.NewString()
	}
	if b.CreatedAt == "" {
		b.CreatedAt = s.isoNow()
	}

	text := fmt.Sprintf("Budget for project '%s' created with total amount %s", b.ProjectID, amount(b.TotalAmount))
	if err := s.save(ctx, text, TypeBudget, b); err != nil {
		return nil, err
	}
	s.logger.Info("budget created", "budget_id", b.BudgetID, "project_id", b.ProjectID)
	return &b, nil
}

// BudgetUpdate holds replacement budget fields. Nil fields are kept.
type BudgetUpdate struct {
	BudgetID    string                 `json:"budget_id"`
	ProjectID   *string                `json:"project_id,omitempty"`
	TotalAmount *float64               `json:"total_amount,omitempty"`
	Categories  []model.BudgetCategory `json:"categories,omitempty"`
}

// UpdateBudget merges u over the latest record of the budget and stores
// the result as a new record. Concurrent updates are last-write-wins.
func (s *Service) UpdateBudget(ctx context.Context, u BudgetUpdate) (*model.Budget, error) {
	const op = "finance.UpdateBudget"
	if strings.TrimSpace(u.BudgetID) == "" {
		return nil, apperr.Required(op, "budget_id")
	}
	recs, err := s.latest(ctx, TypeBudget, map[string]any{"budget_id": u.BudgetID}, 1)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, apperr.NotFound(op, "budget", u.BudgetID)
	}
	var b model.Budget
	if err := decode(recs[0], &b); err != nil {
		return nil, err
	}

	if u.ProjectID != nil {
		if strings.TrimSpace(*u.ProjectID) == "" {
			return nil, apperr.Required(op, "project_id")
		}
		b.ProjectID = *u.ProjectID
	}
	if u.TotalAmount != nil {
		if *u.TotalAmount <= 0 {
			return nil, apperr.Validation(op, "total_amount", "total_amount must be positive")
		}
		b.TotalAmount = *u.TotalAmount
	}
	if u.Categories != nil {
		if err := validateCategories(op, u.Categories); err != nil {
			return nil, err
		}
		b.Categories = u.Categories
	}
	b.UpdatedAt = s.isoNow()

	text := fmt.Sprintf("Budget %s updated for project '%s' with total amount %s", b.BudgetID, b.ProjectID, amount(b.TotalAmount))
	if err := s.save(ctx, text, TypeBudget, b); err != nil {
		return nil, err
	}
	return &b, nil
}

// GetBudget returns the latest budget of a project.
func (s *Service) GetBudget(ctx context.Context, projectID string) (*model.Budget, error) {
	const op = "finance.GetBudget"
	if strings.TrimSpace(projectID) == "" {
		return nil, apperr.Required(op, "project_id")
	}
	b, err := s.budget(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, apperr.NotFound(op, "budget for project", projectID)
	}
	return b, nil
}

// RecordTransaction validates and stores an expense or income entry.
func (s *Service) RecordTransaction(ctx context.Context, t model.Transaction) (*model.Transaction, error) {
	const op = "finance.RecordTransaction"
	if strings.TrimSpace(t.ProjectID) == "" {
		return nil, apperr.Required(op, "project_id")
	}
	if t.Amount <= 0 {
		return nil, apperr.Validation(op, "amount", "amount must be positive")
	}
	switch t.TransactionType {
	case model.TransactionExpense, model.TransactionIncome:
	case "":
		return nil, apperr.Required(op, "transaction_type")
	default:
		return nil, apperr.Validation(op, "transaction_type",
			fmt.Sprintf("transaction_type must be %q or %q, got %q", model.TransactionExpense, model.TransactionIncome, t.TransactionType))
	}
	if t.TransactionID == "" {
		t.TransactionID = uuid.NewString()
	}
	if t.Timestamp == "" {
		t.Timestamp = s.isoNow()
	}

	text := fmt.Sprintf("Financial transaction recorded: %s for %s", amount(t.Amount), t.Description)
	if err := s.save(ctx, text, TypeTransaction, t); err != nil {
		return nil, err
	}
	return &t, nil
}

// InvoiceResult is a processed invoice and, for approved invoices, the
// expense recorded against it.
type InvoiceResult struct {
	Invoice     model.Invoice      `json:"invoice"`
	Transaction *model.Transaction `json:"transaction,omitempty"`
}

// ProcessInvoice stores an invoice. An invoice submitted as approved also
// records a linked expense transaction.
func (s *Service) ProcessInvoice(ctx context.Context, inv model.Invoice) (*InvoiceResult, error) {
	const op = "finance.ProcessInvoice"
	switch {
	case strings.TrimSpace(inv.ProjectID) == "":
		return nil, apperr.Required(op, "project_id")
	case inv.Amount == 0:
		return nil, apperr.Required(op, "amount")
	case inv.Amount < 0:
		return nil, apperr.Validation(op, "amount", "amount must be positive")
	case strings.TrimSpace(inv.Vendor) == "":
		return nil, apperr.Required(op, "vendor")
	case strings.TrimSpace(inv.InvoiceNumber) == "":
		return nil, apperr.Required(op, "invoice_number")
	}
	switch inv.Status {
	case "":
		inv.Status = model.InvoicePending
	case model.InvoicePending, model.InvoiceApproved, model.InvoicePaid, model.InvoiceRejected:
	default:
		return nil, apperr.Validation(op, "status", "unknown invoice status: "+inv.Status)
	}
	if inv.InvoiceID == "" {
		inv.InvoiceID = uuid.NewString()
	}
	if inv.InvoiceDate == "" {
		inv.InvoiceDate = s.isoNow()
	}

	text := fmt.Sprintf("Invoice %s from %s processed for $%s", inv.InvoiceNumber, inv.Vendor, amount(inv.Amount))
	if err := s.save(ctx, text, TypeInvoice, inv); err != nil {
		return nil, err
	}
	res := &InvoiceResult{Invoice: inv}

	if inv.Status == model.InvoiceApproved {
		category := inv.Category
		if category == "" {
			category = vendorPayment
		}
		t, err := s.RecordTransaction(ctx, model.Transaction{
			ProjectID:       inv.ProjectID,
			Amount:          inv.Amount,
			TransactionType: model.TransactionExpense,
			Category:        category,
			Description:     fmt.Sprintf("Payment for invoice %s to %s", inv.InvoiceNumber, inv.Vendor),
			Reference:       inv.InvoiceID,
		})
		if err != nil {
			return nil, fmt.Errorf("record invoice payment: %w", err)
		}
		res.Transaction = t
	}
	return res, nil
}

// Finances is everything recorded for one project.
type Finances struct {
	ProjectID    string              `json:"project_id"`
	Budget       *model.Budget       `json:"budget"`
	Transactions []model.Transaction `json:"transactions"`
	Invoices     []model.Invoice     `json:"invoices"`
}

// ProjectFinances returns the latest budget and up to 100 of the most
// recent transactions and invoices of a project.
func (s *Service) ProjectFinances(ctx context.Context, projectID string) (*Finances, error) {
	const op = "finance.ProjectFinances"
	if strings.TrimSpace(projectID) == "" {
		return nil, apperr.Required(op, "project_id")
	}
	f := &Finances{ProjectID: projectID, Transactions: []model.Transaction{}, Invoices: []model.Invoice{}}

	b, err := s.budget(ctx, projectID)
	if err != nil {
		return nil, err
	}
	f.Budget = b

	filter := map[string]any{"project_id": projectID}
	txRecs, err := s.latest(ctx, TypeTransaction, filter, historyLimit)
	if err != nil {
		return nil, err
	}
	for _, r := range txRecs {
		var t model.Transaction
		if err := decode(r, &t); err != nil {
			return nil, err
		}
		f.Transactions = append(f.Transactions, t)
	}

	invRecs, err := s.latest(ctx, TypeInvoice, filter, historyLimit)
	if err != nil {
		return nil, err
	}
	for _, r := range invRecs {
		var inv model.Invoice
		if err := decode(r, &inv); err != nil {
			return nil, err
		}
		f.Invoices = append(f.Invoices, inv)
	}
	return f, nil
}

// GenerateReport aggregates a project's finances and stores the report.
func (s *Service) GenerateReport(ctx context.Context, projectID string) (*model.FinancialReport, error) {
	const op = "finance.GenerateReport"
	f, err := s.ProjectFinances(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if f.Budget == nil {
		return nil, apperr.NotFound(op, "budget for project", projectID)
	}

	r := Summarize(f)
	r.ReportDate = s.isoNow()

	text := fmt.Sprintf("Financial report for project '%s' generated on %s", projectID, r.ReportDate)
	if _, err := s.store.Add(ctx, store.AddParams{
		Text:     text,
		Category: model.CategoryFinancial,
		Metadata: map[string]any{
			MetaType:     TypeReport,
			"project_id": projectID,
			"report":     r,
		},
	}); err != nil {
		return nil, err
	}
	s.logger.Info("financial report generated", "project_id", projectID, "transactions", r.TransactionCount)
	return r, nil
}

// Summarize computes report totals. f.Budget must be set.
func Summarize(f *Finances) *model.FinancialReport {
	r := &model.FinancialReport{
		ProjectID:         f.ProjectID,
		TotalBudget:       f.Budget.TotalAmount,
		ExpenseByCategory: map[string]float64{},
		TransactionCount:  len(f.Transactions),
		InvoiceCount:      len(f.Invoices),
	}
	for _, t := range f.Transactions {
		switch t.TransactionType {
		case model.TransactionExpense:
			r.TotalExpenses += t.Amount
			category := t.Category
			if category == "" {
				category = defaultCategory
			}
			r.ExpenseByCategory[category] += t.Amount
		case model.TransactionIncome:
			r.TotalIncome += t.Amount
		}
	}
	for _, inv := range f.Invoices {
		if inv.Status == model.InvoicePending {
			r.PendingInvoiceTotal += inv.Amount
		}
	}
	r.Balance = r.TotalIncome - r.TotalExpenses
	r.BudgetRemaining = r.TotalBudget - r.TotalExpenses
	if r.TotalBudget > 0 {
		r.BudgetUtilization = r.TotalExpenses / r.TotalBudget * 100
	}
	return r
}

func (s *Service) budget(ctx context.Context, projectID string) (*model.Budget, error) {
	recs, err := s.latest(ctx, TypeBudget, map[string]any{"project_id": projectID}, 1)
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	var b model.Budget
	if err := decode(recs[0], &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Service) latest(ctx context.Context, typ string, filter map[string]any, limit int) ([]model.Record, error) {
	f := map[string]any{MetaType: typ}
	for k, v := range filter {
		f[k] = v
	}
	return s.store.Search(ctx, store.SearchParams{
		Category:   model.CategoryFinancial,
		Filter:     f,
		Limit:      limit,
		SortByTime: true,
	})
}

// save stores entity as the metadata of a financial record. The store owns
// metadata.timestamp, so an entity timestamp is kept under another key.
func (s *Service) save(ctx context.Context, text, typ string, entity any) error {
	meta, err := toMetadata(entity)
	if err != nil {
		return err
	}
	meta[MetaType] = typ
	_, err = s.store.Add(ctx, store.AddParams{Text: text, Category: model.CategoryFinancial, Metadata: meta})
	return err
}

func toMetadata(entity any) (map[string]any, error) {
	b, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("encode entity: %w", err)
	}
	var meta map[string]any
	if err := json.Unmarshal(b, &meta); err != nil {
		return nil, fmt.Errorf("encode entity: %w", err)
	}
	if ts, ok := meta[model.MetaTimestamp]; ok {
		meta[entityTimestampMeta] = ts
		delete(meta, model.MetaTimestamp)
	}
	return meta, nil
}

func decode(r model.Record, out any) error {
	meta := make(map[string]any, len(r.Metadata))
	for k, v := range r.Metadata {
		if k == model.MetaTimestamp {
			continue
		}
		meta[k] = v
	}
	if ts, ok := meta[entityTimestampMeta]; ok {
		meta[model.MetaTimestamp] = ts
		delete(meta, entityTimestampMeta)
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("decode record %s: %w", r.ID, err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode record %s: %w", r.ID, err)
	}
	return nil
}

func validateCategories(op string, cats []model.BudgetCategory) error {
	for i, c := range cats {
		if strings.TrimSpace(c.Name) == "" {
			return apperr.Validation(op, fmt.Sprintf("categories[%d].name", i), "category name is required")
		}
		if c.Allocation <= 0 {
			return apperr.Validation(op, fmt.Sprintf("categories[%d].allocation", i), "allocation must be positive")
		}
	}
	return nil
}

func amount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

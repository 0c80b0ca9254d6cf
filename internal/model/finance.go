package model

// Transaction types.
const (
	TransactionExpense = "expense"
	TransactionIncome  = "income"
)

// Invoice statuses.
const (
	InvoicePending  = "pending"
	InvoiceApproved = "approved"
	InvoicePaid     = "paid"
	InvoiceRejected = "rejected"
)

// BudgetCategory is one allocation line of a budget.
type BudgetCategory struct {
	Name       string  `json:"name"`
	Allocation float64 `json:"allocation"`
}

// Budget is a project budget.
type Budget struct {
	BudgetID    string           `json:"budget_id"`
	ProjectID   string           `json:"project_id"`
	TotalAmount float64          `json:"total_amount"`
	Categories  []BudgetCategory `json:"categories,omitempty"`
	CreatedAt   string           `json:"created_at"`
	UpdatedAt   string           `json:"updated_at,omitempty"`
}

// Transaction is a single expense or income entry.
type Transaction struct {
	TransactionID   string  `json:"transaction_id"`
	ProjectID       string  `json:"project_id"`
	Amount          float64 `json:"amount"`
	TransactionType string  `json:"transaction_type"`
	Category        string  `json:"category,omitempty"`
	Description     string  `json:"description,omitempty"`
	Reference       string  `json:"reference,omitempty"`
	Timestamp       string  `json:"timestamp"`
}

// Invoice is a vendor invoice.
type Invoice struct {
	InvoiceID     string  `json:"invoice_id"`
	ProjectID     string  `json:"project_id"`
	Amount        float64 `json:"amount"`
	Vendor        string  `json:"vendor"`
	InvoiceNumber string  `json:"invoice_number"`
	Status        string  `json:"status"`
	Category      string  `json:"category,omitempty"`
	Description   string  `json:"description,omitempty"`
	InvoiceDate   string  `json:"invoice_date"`
	DueDate       string  `json:"due_date,omitempty"`
}

// FinancialReport summarizes a project's budget position.
type FinancialReport struct {
	ProjectID           string             `json:"project_id"`
	ReportDate          string             `json:"report_date"`
	TotalBudget         float64            `json:"total_budget"`
	TotalExpenses       float64            `json:"total_expenses"`
	TotalIncome         float64            `json:"total_income"`
	Balance             float64            `json:"balance"`
	BudgetRemaining     float64            `json:"budget_remaining"`
	BudgetUtilization   float64            `json:"budget_utilization_percentage"`
	ExpenseByCategory   map[string]float64 `json:"expense_by_category"`
	TransactionCount    int                `json:"transaction_count"`
	InvoiceCount        int                `json:"invoice_count"`
	PendingInvoiceTotal float64            `json:"pending_invoice_total"`
}

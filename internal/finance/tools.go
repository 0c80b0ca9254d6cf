package finance

import (
	"context"
	"fmt"

	"github.com/rcliao/site-assistant/internal/model"
	"github.com/rcliao/site-assistant/internal/tool"
)

// Handler descriptors used when delegating to this domain.
const (
	Name        = "Financial Management"
	Description = "financial planning, budgeting, expense tracking, invoice management, and financial reporting for construction projects"
)

type projectArgs struct {
	ProjectID string `json:"project_id"`
}

var projectSchema = tool.Object(map[string]any{
	"project_id": tool.String("Project identifier"),
}, "project_id")

var categoriesSchema = tool.Array("Budget allocation lines", tool.Object(map[string]any{
	"name":       tool.String("Cost category name"),
	"allocation": tool.Number("Allocated amount"),
}, "name", "allocation"))

// Tools exposes the handler operations as tools.
func (s *Service) Tools() []tool.Tool {
	return []tool.Tool{
		tool.Typed("create_budget", "Create a new budget for a project",
			tool.Object(map[string]any{
				"project_id":   tool.String("Project identifier"),
				"total_amount": tool.Number("Total budget amount, must be positive"),
				"categories":   categoriesSchema,
				"budget_id":    tool.String("Optional budget identifier"),
			}, "project_id", "total_amount"),
			func(ctx context.Context, b model.Budget) (any, error) {
				created, err := s.CreateBudget(ctx, b)
				if err != nil {
					return nil, err
				}
				return map[string]any{
					"budget_id":  created.BudgetID,
					"project_id": created.ProjectID,
					"message":    fmt.Sprintf("Budget created for project %s", created.ProjectID),
				}, nil
			}),

		tool.Typed("update_budget", "Update an existing project budget",
			tool.Object(map[string]any{
				"budget_id":    tool.String("Budget identifier"),
				"project_id":   tool.String("New project identifier"),
				"total_amount": tool.Number("New total amount"),
				"categories":   categoriesSchema,
			}, "budget_id"),
			func(ctx context.Context, u BudgetUpdate) (any, error) {
				b, err := s.UpdateBudget(ctx, u)
				if err != nil {
					return nil, err
				}
				return map[string]any{
					"budget_id": b.BudgetID,
					"budget":    b,
					"message":   "Budget updated successfully",
				}, nil
			}),

		tool.Typed("get_budget", "Get budget information for a project", projectSchema,
			func(ctx context.Context, a projectArgs) (any, error) {
				b, err := s.GetBudget(ctx, a.ProjectID)
				if err != nil {
					return nil, err
				}
				return map[string]any{"budget": b}, nil
			}),

		tool.Typed("record_transaction", "Record a financial transaction (expense or income)",
			tool.Object(map[string]any{
				"project_id":       tool.String("Project identifier"),
				"amount":           tool.Number("Amount, must be positive"),
				"transaction_type": tool.Enum("Transaction type", model.TransactionExpense, model.TransactionIncome),
				"category":         tool.String("Cost category"),
				"description":      tool.String("What the transaction was for"),
				"reference":        tool.String("Related document, e.g. an invoice id"),
			}, "project_id", "amount", "transaction_type"),
			func(ctx context.Context, t model.Transaction) (any, error) {
				rec, err := s.RecordTransaction(ctx, t)
				if err != nil {
					return nil, err
				}
				return map[string]any{
					"transaction_id": rec.TransactionID,
					"message":        "Transaction recorded successfully",
				}, nil
			}),

		tool.Typed("generate_financial_report", "Generate a financial report for a project", projectSchema,
			func(ctx context.Context, a projectArgs) (any, error) {
				r, err := s.GenerateReport(ctx, a.ProjectID)
				if err != nil {
					return nil, err
				}
				return map[string]any{"report": r}, nil
			}),

		tool.Typed("process_invoice", "Process an invoice for payment",
			tool.Object(map[string]any{
				"project_id":     tool.String("Project identifier"),
				"amount":         tool.Number("Invoice amount"),
				"vendor":         tool.String("Vendor name"),
				"invoice_number": tool.String("Vendor invoice number"),
				"status": tool.Enum("Invoice status, defaults to pending",
					model.InvoicePending, model.InvoiceApproved, model.InvoicePaid, model.InvoiceRejected),
				"category":    tool.String("Cost category for the payment"),
				"description": tool.String("Invoice description"),
				"due_date":    tool.String("Due date, ISO-8601"),
			}, "project_id", "amount", "vendor", "invoice_number"),
			func(ctx context.Context, inv model.Invoice) (any, error) {
				res, err := s.ProcessInvoice(ctx, inv)
				if err != nil {
					return nil, err
				}
				out := map[string]any{
					"invoice_id": res.Invoice.InvoiceID,
					"status":     res.Invoice.Status,
					"message":    fmt.Sprintf("Invoice %s processed successfully", res.Invoice.InvoiceNumber),
				}
				if res.Transaction != nil {
					out["transaction_id"] = res.Transaction.TransactionID
				}
				return out, nil
			}),

		tool.Typed("get_project_finances", "Get complete financial information for a project", projectSchema,
			func(ctx context.Context, a projectArgs) (any, error) {
				f, err := s.ProjectFinances(ctx, a.ProjectID)
				if err != nil {
					return nil, err
				}
				return map[string]any{"finances": f}, nil
			}),
	}
}

package orchestrator

import (
	"fmt"
	"strings"

	"github.com/rcliao/site-assistant/internal/document"
	"github.com/rcliao/site-assistant/internal/finance"
	"github.com/rcliao/site-assistant/internal/project"
	"github.com/rcliao/site-assistant/internal/tool"
)

// NotImplemented is the reply of a placeholder domain.
const NotImplemented = "This specialized agent is not yet implemented. The system is being developed incrementally, and this capability will be added in a future update."

// Domain is a specialist the orchestrator can delegate to. A domain with no
// tools is a placeholder.
type Domain struct {
	// Agent is the short name used in delegation records, e.g. "Financial".
	Agent string
	// Title is the handler name, e.g. "Financial Management".
	Title string
	// Routing tells the router when to pick this domain.
	Routing string
	// Specialty describes the domain in the specialist's system prompt.
	Specialty string
	Tools     []tool.Tool
}

// Placeholder reports whether the domain has no handler yet.
func (d Domain) Placeholder() bool { return len(d.Tools) == 0 }

// ToolName is the delegation tool name, e.g. "financial_management".
func (d Domain) ToolName() string {
	return strings.ReplaceAll(strings.ToLower(d.Title), " ", "_")
}

// Owns reports whether name is one of the domain's tools.
func (d Domain) Owns(name string) bool {
	for _, t := range d.Tools {
		if t.Name() == name {
			return true
		}
	}
	return false
}

func (d Domain) systemPrompt() string {
	return fmt.Sprintf("You are the %s agent specializing in %s.\n"+
		"You are an expert in your domain and provide detailed, accurate information.\n"+
		"Use the available tools to read and record data; never invent identifiers or amounts.\n"+
		"Provide your response in a clear, professional manner.", d.Title, d.Specialty)
}

// FinancialDomain delegates to the financial handler.
func FinancialDomain(s *finance.Service) Domain {
	return Domain{
		Agent:     "Financial",
		Title:     finance.Name,
		Routing:   "For financial tasks like budgets, expenses, invoices, and financial reporting",
		Specialty: finance.Description,
		Tools:     s.Tools(),
	}
}

// ProjectDomain delegates to the project handler.
func ProjectDomain(s *project.Service) Domain {
	return Domain{
		Agent:     "Project",
		Title:     project.Name,
		Routing:   "For project management tasks like creating projects, tasks, and timelines",
		Specialty: project.Description,
		Tools:     s.Tools(),
	}
}

// DocumentDomain delegates to the document handler.
func DocumentDomain(s *document.Service) Domain {
	return Domain{
		Agent:     "Document",
		Title:     document.Name,
		Routing:   "For document processing tasks like OCR, information extraction, and document search",
		Specialty: document.Description,
		Tools:     s.Tools(),
	}
}

// PlaceholderDomains are the specialists that are not built yet.
func PlaceholderDomains() []Domain {
	return []Domain{
		{Agent: "Client", Title: "Client Relations", Routing: "For client relation tasks like contact management (not yet implemented)"},
		{Agent: "Resource", Title: "Resource Management", Routing: "For resource management tasks like equipment tracking (not yet implemented)"},
		{Agent: "Compliance", Title: "Compliance Management", Routing: "For compliance tasks like regulation checking (not yet implemented)"},
		{Agent: "Analytics", Title: "Analytics", Routing: "For analytics tasks like performance metrics (not yet implemented)"},
	}
}

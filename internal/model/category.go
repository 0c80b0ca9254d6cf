package model

// Category is a named partition of the memory store.
type Category string

const (
	CategoryProjects      Category = "projects"
	CategoryClients       Category = "clients"
	CategoryTasks         Category = "tasks"
	CategoryDocuments     Category = "documents"
	CategoryConversations Category = "conversations"
	CategoryCompliance    Category = "compliance"
	CategoryResources     Category = "resources"
	CategoryFinancial     Category = "financial"
)

// CategoryInfo pairs a category with its description.
type CategoryInfo struct {
	Name        Category `json:"name"`
	Description string   `json:"description"`
}

// Taxonomy is an ordered set of registered categories.
type Taxonomy []CategoryInfo

// DefaultTaxonomy returns the eight construction-management categories.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		{CategoryProjects, "Information about construction projects, including timelines, status, and general details."},
		{CategoryClients, "Client information, including contact details, preferences, and communication history."},
		{CategoryTasks, "Construction tasks, to-dos, and action items for different projects."},
		{CategoryDocuments, "Content and metadata from construction documents, plans, permits, and contracts."},
		{CategoryConversations, "History of conversations with clients, team members, and other stakeholders."},
		{CategoryCompliance, "Information about permits, codes, regulations, and compliance requirements."},
		{CategoryResources, "Data about materials, equipment, and labor resources."},
		{CategoryFinancial, "Financial information, including budgets, expenses, invoices, and cost estimates."},
	}
}

// Has reports whether c is registered.
func (t Taxonomy) Has(c Category) bool {
	for _, info := range t {
		if info.Name == c {
			return true
		}
	}
	return false
}

// Describe returns the description for c.
func (t Taxonomy) Describe(c Category) (string, bool) {
	for _, info := range t {
		if info.Name == c {
			return info.Description, true
		}
	}
	return "", false
}

// Names returns the category names in order.
func (t Taxonomy) Names() []Category {
	names := make([]Category, len(t))
	for i, info := range t {
		names[i] = info.Name
	}
	return names
}

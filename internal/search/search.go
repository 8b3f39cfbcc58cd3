package search

import "context"

// EmployeeDocument is the denormalized shape pushed to the search index on
// every employee write.
type EmployeeDocument struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Position   string `json:"position"`
	Department string `json:"department"`
	Active     bool   `json:"active"`
}

// Indexer is the write-through search index collaborator. Upserts are
// fire-and-forget from the caller's perspective: an indexing failure must
// never fail the employee write.
type Indexer interface {
	UpsertEmployeeDocument(ctx context.Context, doc EmployeeDocument) error
	QueryEmployees(ctx context.Context, query string, limit int) ([]EmployeeDocument, error)
}

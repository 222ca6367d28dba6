package review

// Issue is a single finding inside a review result.
type Issue struct {
	ID         string `json:"id"`
	Type       string `json:"type"` // error, warning or suggestion
	Line       int    `json:"line"`
	Message    string `json:"message"`
	Severity   string `json:"severity"` // high, medium or low
	Suggestion string `json:"suggestion,omitempty"`
}

// Result is the normalized review shape returned for any code submission.
type Result struct {
	Issues         []Issue `json:"issues"`
	RefactoredCode string  `json:"refactoredCode"`
}

// Languages the review endpoint accepts, matching the client's editor modes.
var Languages = map[string]bool{
	"javascript": true,
	"typescript": true,
	"python":     true,
	"java":       true,
	"c++":        true,
	"ruby":       true,
	"go":         true,
}

package review

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// Normalize coerces the raw text output of the completion provider into a
// well-formed Result. Strategies in strict priority order: parse the whole
// text as JSON, parse the first fenced JSON block, and finally synthesize a
// fallback that echoes the submitted code. It never fails; a provider that
// returns garbage degrades the result, it does not break the request.
func Normalize(raw, code string) Result {
	if res, ok := tryParse(raw); ok {
		return finalize(res)
	}
	if m := fencedJSON.FindStringSubmatch(raw); m != nil {
		if res, ok := tryParse(m[1]); ok {
			return finalize(res)
		}
	}
	return finalize(fallback(code))
}

func tryParse(s string) (Result, bool) {
	var res Result
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &res); err != nil {
		return Result{}, false
	}
	// A document only counts as a review if it actually carries the shape;
	// a bare {} falls through to the next strategy.
	if res.Issues == nil && res.RefactoredCode == "" {
		return Result{}, false
	}
	return res, true
}

func fallback(code string) Result {
	return Result{
		Issues: []Issue{{
			Type:       "suggestion",
			Line:       1,
			Message:    "Unable to parse AI response. Manual code review recommended.",
			Severity:   "low",
			Suggestion: "Re-run the review; the provider returned an unexpected format.",
		}},
		RefactoredCode: code,
	}
}

// finalize guarantees every issue carries an id and a line >= 1 no matter
// which strategy produced it.
func finalize(res Result) Result {
	if res.Issues == nil {
		res.Issues = []Issue{}
	}
	for i := range res.Issues {
		if res.Issues[i].ID == "" {
			res.Issues[i].ID = fmt.Sprintf("issue-%d", i+1)
		}
		if res.Issues[i].Line < 1 {
			res.Issues[i].Line = 1
		}
	}
	return res
}

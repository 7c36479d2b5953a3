package shared

import (
	"net/http"
	"strings"

	"upr360/internal/transport/http/api"
)

type ValidationIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Validator collects field-level issues so a request fails before any store
// call is made.
type Validator struct {
	issues []ValidationIssue
}

func NewValidator() *Validator {
	return &Validator{issues: make([]ValidationIssue, 0, 4)}
}

func (v *Validator) Add(field, reason string) {
	field = strings.TrimSpace(field)
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return
	}
	v.issues = append(v.issues, ValidationIssue{Field: field, Reason: reason})
}

func (v *Validator) Required(field, value, reason string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, reason)
	}
}

func (v *Validator) MinLength(field, value string, min int, reason string) {
	if len(value) < min {
		v.Add(field, reason)
	}
}

func (v *Validator) Valid() bool {
	return len(v.issues) == 0
}

// Respond writes a validation failure if any issue was collected and reports
// whether it did so.
func (v *Validator) Respond(w http.ResponseWriter, requestID string) bool {
	if v.Valid() {
		return false
	}
	reasons := make([]string, 0, len(v.issues))
	for _, issue := range v.issues {
		if issue.Field != "" {
			reasons = append(reasons, issue.Field+": "+issue.Reason)
			continue
		}
		reasons = append(reasons, issue.Reason)
	}
	api.Fail(w, http.StatusBadRequest, "validation_failed", strings.Join(reasons, "; "), requestID)
	return true
}

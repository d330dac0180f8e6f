// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound   = errors.New("resource not found")
	ErrDuplicate  = errors.New("duplicate entry")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
)

// Rule maps a target error to a problem status and title.
type Rule struct {
	Target error
	Status int
	Title  string
}

var defaultRules = []Rule{
	{Target: ErrNotFound, Status: http.StatusNotFound, Title: "Not Found"},
	{Target: ErrDuplicate, Status: http.StatusConflict, Title: "Duplicate"},
	{Target: ErrValidation, Status: http.StatusBadRequest, Title: "Validation Failed"},
	{Target: ErrConflict, Status: http.StatusConflict, Title: "Conflict"},
}

// RespondError maps domain errors to HTTP responses using RFC7807. Extra rules
// are checked before the package sentinels; unmatched errors become a 500
// without detail.
func RespondError(w http.ResponseWriter, err error, rules ...Rule) {
	for _, set := range [][]Rule{rules, defaultRules} {
		for _, rule := range set {
			if errors.Is(err, rule.Target) {
				Problem(w, rule.Status, rule.Title, err.Error())
				return
			}
		}
	}
	Problem(w, http.StatusInternalServerError, "Internal Error", "")
}

// Package http provides the HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request
// data, in particular the multi-row allocation form posted by the entry page.

package http

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/Atanda1/dca-experiment/internal/core"
)

// ParseAllocations extracts the allocation rows from the posted form.
// The entry form submits parallel arrays: category[], amount[] and notes[].
// Rows are paired by index; a short notes array just leaves notes empty.
func ParseAllocations(form url.Values) core.DraftList {
	categories := form["category[]"]
	amounts := form["amount[]"]
	notes := form["notes[]"]

	n := len(categories)
	if len(amounts) > n {
		n = len(amounts)
	}

	drafts := make(core.DraftList, 0, n)
	for i := 0; i < n; i++ {
		d := core.AllocationDraft{}
		if i < len(categories) {
			d.Category = sanitizeInput(categories[i])
		}
		if i < len(amounts) {
			d.Amount = strings.TrimSpace(amounts[i])
		}
		if i < len(notes) {
			d.Notes = sanitizeInput(notes[i])
		}
		drafts = append(drafts, d)
	}
	return drafts
}

// ParseDateField reads the shared investment date from the form,
// defaulting to today when the field is blank.
func ParseDateField(form url.Values) (core.Date, error) {
	v := strings.TrimSpace(form.Get("date"))
	if v == "" {
		return core.Today(), nil
	}
	return core.ParseDate(v)
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

// RequireDeleteOrPOST is a convenience function for DELETE/POST handlers.
func RequireDeleteOrPOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodDelete, http.MethodPost)
}

// ParseFormOrFail parses the request form and returns an error response on failure.
// Returns nil on success.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Invalid request format")
	}
	return nil
}

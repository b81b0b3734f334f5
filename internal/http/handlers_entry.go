package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Atanda1/dca-experiment/internal/core"
	"github.com/Atanda1/dca-experiment/internal/data"
	"github.com/Atanda1/dca-experiment/internal/log"
)

type entryFormData struct {
	Date       string
	Categories []core.Category
	Rows       allocationRowsData
}

type allocationRowsData struct {
	Drafts     core.DraftList
	Categories []core.Category
	Total      string
}

// handleEntryForm renders the multi-allocation entry page with a single
// empty row and today's date preselected.
func (s *Server) handleEntryForm(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}

	drafts := core.NewDraftList()
	s.render(w, r, "entry.html", entryFormData{
		Date:       core.Today().String(),
		Categories: categoryOptions(),
		Rows:       s.buildRowsData(drafts),
	})
}

// handleAllocationRows re-renders the allocation rows partial after the
// user adds or removes a row. The posted form carries the current drafts
// so nothing is lost between swaps.
func (s *Server) handleAllocationRows(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	drafts := ParseAllocations(r.Form)
	if len(drafts) == 0 {
		drafts = core.NewDraftList()
	}

	switch strings.TrimSpace(r.Form.Get("action")) {
	case "add":
		drafts = drafts.Add()
	case "remove":
		idx, err := strconv.Atoi(strings.TrimSpace(r.Form.Get("index")))
		if err != nil {
			BadRequestError("Invalid row index").Write(w)
			return
		}
		drafts = drafts.Remove(idx)
	default:
		BadRequestError("Unknown action").Write(w)
		return
	}

	s.render(w, r, "allocation_rows.html", s.buildRowsData(drafts))
}

// handleSubmitBatch validates and persists all allocation rows as
// independent investments sharing the form's date.
func (s *Server) handleSubmitBatch(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	date, err := ParseDateField(r.Form)
	if err != nil {
		UnprocessableEntityError("Invalid date").Write(w)
		return
	}

	drafts := ParseAllocations(r.Form)
	if err := s.investments.SubmitBatch(r.Context(), date, drafts); err != nil {
		switch {
		case errors.Is(err, core.ErrMissingUser), errors.Is(err, data.ErrSessionExpired):
			w.Header().Set("HX-Redirect", "/login")
			w.WriteHeader(http.StatusUnauthorized)
		case errors.Is(err, core.ErrInvalidAmount):
			UnprocessableEntityError("Every allocation needs an amount greater than zero").Write(w)
		case errors.Is(err, core.ErrEmptyCategory), errors.Is(err, core.ErrUnknownCategory):
			UnprocessableEntityError("Every allocation needs a category").Write(w)
		default:
			s.logger.ErrorContext(r.Context(), "Batch submission error",
				log.FieldError, err,
				log.FieldOperation, log.OpInsert,
				"rows", len(drafts))
			InternalServerError("Some allocations could not be saved. Check the list before retrying.").Write(w)
		}
		return
	}

	if isHTMX(r) {
		NewHTMXResponse().
			TriggerInvestmentsCreated(len(drafts)).
			TriggerSuccessNotification(fmt.Sprintf("%d investments recorded", len(drafts))).
			Header("HX-Redirect", "/").
			Write(w)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) buildRowsData(drafts core.DraftList) allocationRowsData {
	return allocationRowsData{
		Drafts:     drafts,
		Categories: categoryOptions(),
		Total:      formatAmount(drafts.Total()),
	}
}

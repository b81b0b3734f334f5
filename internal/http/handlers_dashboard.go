package http

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Atanda1/dca-experiment/internal/core"
	"github.com/Atanda1/dca-experiment/internal/data"
	"github.com/Atanda1/dca-experiment/internal/log"
)

type investmentRow struct {
	ID       string
	Category string
	Amount   string
	Date     string
	Notes    string
}

type listData struct {
	Rows    []investmentRow
	Count   int
	Total   string
	Newest  string
	Oldest  string
	HasRows bool
	Error   string
}

type dashboardData struct {
	Email string
	List  listData
}

// handleDashboard renders the investment overview page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}

	user, _ := s.sessions.CurrentUser()
	data := dashboardData{
		Email: user.Email,
		List:  s.buildListData(r),
	}
	s.render(w, r, "dashboard.html", data)
}

// handleInvestmentList renders the list partial, used by HTMX refreshes
// after a batch submission or a delete.
func (s *Server) handleInvestmentList(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	s.render(w, r, "investment_list.html", s.buildListData(r))
}

func (s *Server) buildListData(r *http.Request) listData {
	list, err := s.investments.List(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Investment list error",
			log.FieldError, err,
			log.FieldOperation, log.OpList)
		return listData{Error: "Could not load investments"}
	}

	summary := core.Summarize(list)
	data := listData{
		Count:   summary.Count,
		Total:   formatAmount(summary.Total),
		HasRows: len(list) > 0,
	}
	if data.HasRows {
		data.Newest = summary.Newest.String()
		data.Oldest = summary.Oldest.String()
	}
	for _, inv := range list {
		data.Rows = append(data.Rows, investmentRow{
			ID:       inv.ID,
			Category: string(inv.Category),
			Amount:   formatAmount(inv.Amount),
			Date:     inv.Date.String(),
			Notes:    template.HTMLEscapeString(inv.Notes),
		})
	}
	return data
}

// handleDeleteInvestment removes one row. The row disappears from the
// page only after the remote service confirmed the delete.
func (s *Server) handleDeleteInvestment(w http.ResponseWriter, r *http.Request) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}

	id := r.PathValue("id")
	if id == "" {
		BadRequestError("Missing investment id").Write(w)
		return
	}

	if err := s.investments.Delete(r.Context(), id); err != nil {
		if errors.Is(err, data.ErrNotFound) {
			NotFoundError("Investment not found").Write(w)
			return
		}
		if errors.Is(err, data.ErrSessionExpired) {
			w.Header().Set("HX-Redirect", "/login")
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		s.logger.ErrorContext(r.Context(), "Delete investment error",
			log.FieldError, err,
			log.FieldInvestment, id,
			log.FieldOperation, log.OpDelete)
		InternalServerError("Could not delete investment").Write(w)
		return
	}

	NewHTMXResponse().
		TriggerInvestmentDeleted(id).
		TriggerListRefresh().
		TriggerSuccessNotification("Investment deleted").
		Write(w)
}

// formatAmount renders a decimal as a Euro currency string.
func formatAmount(d decimal.Decimal) string {
	return "€" + d.StringFixed(2)
}

package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Atanda1/dca-experiment/internal/core"
	"github.com/Atanda1/dca-experiment/internal/data/memory"
	"github.com/Atanda1/dca-experiment/internal/localstate"
	"github.com/Atanda1/dca-experiment/internal/services"
	"github.com/Atanda1/dca-experiment/internal/session"
)

func newTestServer(t *testing.T, signedIn bool) *Server {
	t.Helper()
	remote := memory.New()
	remote.SeedUser("me@example.com", "secret")

	state, err := localstate.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open state: %v", err)
	}
	t.Cleanup(func() { _ = state.Close() })

	sessions := session.New(session.Config{Auth: remote, State: state})
	if signedIn {
		if err := sessions.SignIn(context.Background(), "me@example.com", "secret"); err != nil {
			t.Fatalf("sign in: %v", err)
		}
	}

	svc := services.NewInvestmentService(remote, sessions, nil, nil)
	srv := NewServer(":0", svc, sessions, nil)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func postForm(srv *Server, path string, form url.Values) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, false)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		srv.Handler.ServeHTTP(rr, req)
		if rr.Code != 200 {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestGuardRedirectsWhenSignedOut(t *testing.T) {
	srv := newTestServer(t, false)
	for _, path := range []string{"/", "/invest"} {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		srv.Handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusSeeOther {
			t.Fatalf("%s expected 303, got %d", path, rr.Code)
		}
		if loc := rr.Header().Get("Location"); loc != "/login" {
			t.Fatalf("%s expected redirect to /login, got %q", path, loc)
		}
	}
}

func TestGuardHTMXGetsRedirectHeader(t *testing.T) {
	srv := newTestServer(t, false)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ui/investments", nil)
	req.Header.Set("HX-Request", "true")
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if rr.Header().Get("HX-Redirect") != "/login" {
		t.Fatalf("expected HX-Redirect header, got %q", rr.Header().Get("HX-Redirect"))
	}
}

func TestLoginPageRedirectsWhenSignedIn(t *testing.T) {
	srv := newTestServer(t, true)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/" {
		t.Fatalf("expected redirect to /, got %q", loc)
	}
}

func TestSignInFlow(t *testing.T) {
	srv := newTestServer(t, false)

	// Wrong credentials keep the user on the login page
	rr := postForm(srv, "/login", url.Values{"email": {"me@example.com"}, "password": {"wrong"}})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Invalid email or password") {
		t.Fatalf("expected error message in body")
	}

	// Missing fields
	rr = postForm(srv, "/login", url.Values{"email": {"me@example.com"}})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}

	// Correct credentials redirect to the dashboard
	rr = postForm(srv, "/login", url.Values{"email": {"me@example.com"}, "password": {"secret"}})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/" {
		t.Fatalf("expected redirect to /, got %q", loc)
	}
}

func TestDashboardEmptyState(t *testing.T) {
	srv := newTestServer(t, true)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != 200 {
		t.Fatalf("dashboard status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "No investments yet") {
		t.Fatalf("expected empty state in body")
	}
	if !strings.Contains(rr.Body.String(), "me@example.com") {
		t.Fatalf("expected user email in body")
	}
}

func TestSubmitBatchAndDashboardList(t *testing.T) {
	srv := newTestServer(t, true)

	rr := postForm(srv, "/investments", url.Values{
		"date":       {"2024-06-01"},
		"category[]": {"stocks", "etf"},
		"amount[]":   {"100", "50.25"},
		"notes[]":    {"index fund", ""},
	})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	srv.Handler.ServeHTTP(rr, req)
	body := rr.Body.String()
	if !strings.Contains(body, "2024-06-01") {
		t.Fatalf("expected investment date in dashboard")
	}
	if !strings.Contains(body, "€150.25") {
		t.Fatalf("expected total in dashboard, body: %s", body)
	}
}

func TestSubmitBatchRejectsInvalidRows(t *testing.T) {
	srv := newTestServer(t, true)

	rr := postForm(srv, "/investments", url.Values{
		"category[]": {"stocks", ""},
		"amount[]":   {"100", "50"},
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}

	// nothing was persisted
	rrList := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	srv.Handler.ServeHTTP(rrList, req)
	if !strings.Contains(rrList.Body.String(), "No investments yet") {
		t.Fatalf("expected no rows after rejected batch")
	}
}

func TestSubmitBatchHTMXRedirect(t *testing.T) {
	srv := newTestServer(t, true)

	rr := httptest.NewRecorder()
	form := url.Values{"category[]": {"cash"}, "amount[]": {"10"}}
	req := httptest.NewRequest(http.MethodPost, "/investments", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != 200 {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Header().Get("HX-Redirect") != "/" {
		t.Fatalf("expected HX-Redirect to /")
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), "investments:created") {
		t.Fatalf("expected investments:created trigger, got %q", rr.Header().Get("HX-Trigger"))
	}
}

func TestDeleteInvestment(t *testing.T) {
	srv := newTestServer(t, true)

	if rr := postForm(srv, "/investments", url.Values{"category[]": {"etf"}, "amount[]": {"10"}}); rr.Code != http.StatusSeeOther {
		t.Fatalf("seed insert failed: %d", rr.Code)
	}

	rrList := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rrList, httptest.NewRequest(http.MethodGet, "/ui/investments", nil))
	body := rrList.Body.String()
	start := strings.Index(body, "/investments/")
	if start < 0 {
		t.Fatalf("expected delete URL in list partial")
	}
	id := body[start+len("/investments/"):]
	id = id[:strings.IndexAny(id, `"`)]

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/investments/"+id, nil)
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != 200 {
		t.Fatalf("delete status=%d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), "investment:deleted") {
		t.Fatalf("expected investment:deleted trigger")
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), "show-notification") {
		t.Fatalf("expected show-notification trigger, got %q", rr.Header().Get("HX-Trigger"))
	}

	// unknown row returns 404
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/investments/nope", nil)
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestAllocationRowsAddAndRemove(t *testing.T) {
	srv := newTestServer(t, true)

	rr := postForm(srv, "/ui/allocations", url.Values{
		"action":     {"add"},
		"category[]": {"stocks"},
		"amount[]":   {"100"},
	})
	if rr.Code != 200 {
		t.Fatalf("add row status=%d", rr.Code)
	}
	if got := strings.Count(rr.Body.String(), "allocation-row"); got != 2 {
		t.Fatalf("expected 2 rows after add, got %d", got)
	}
	if !strings.Contains(rr.Body.String(), "€100.00") {
		t.Fatalf("expected running total in body")
	}

	rr = postForm(srv, "/ui/allocations", url.Values{
		"action":     {"remove"},
		"index":      {"0"},
		"category[]": {"stocks", "etf"},
		"amount[]":   {"100", "50"},
	})
	if rr.Code != 200 {
		t.Fatalf("remove row status=%d", rr.Code)
	}
	body := rr.Body.String()
	if got := strings.Count(body, "allocation-row"); got != 1 {
		t.Fatalf("expected 1 row after remove, got %d", got)
	}
	if !strings.Contains(body, "€50.00") {
		t.Fatalf("expected remaining total, body: %s", body)
	}
}

func TestEntryFormRenders(t *testing.T) {
	srv := newTestServer(t, true)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/invest", nil)
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != 200 {
		t.Fatalf("entry form status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, core.Today().String()) {
		t.Fatalf("expected today's date preselected")
	}
	for _, cat := range core.Categories() {
		if !strings.Contains(body, string(cat)) {
			t.Fatalf("expected category %s in form", cat)
		}
	}
}

func TestLogoutClearsSessionAndRedirects(t *testing.T) {
	srv := newTestServer(t, true)

	rr := postForm(srv, "/logout", url.Values{})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/login" {
		t.Fatalf("expected redirect to /login, got %q", loc)
	}

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected guard redirect after logout, got %d", rr.Code)
	}
}

func TestEntryFormDisablesSubmitDuringRequest(t *testing.T) {
	srv := newTestServer(t, true)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/invest", nil))
	if rr.Code != 200 {
		t.Fatalf("entry form status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "hx-disabled-elt") {
		t.Fatalf("expected submit button to be disabled while a submission is in flight")
	}
}

func TestPagesLoadClientScript(t *testing.T) {
	srv := newTestServer(t, true)

	for _, path := range []string{"/", "/invest"} {
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != 200 {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "/static/app.js") {
			t.Fatalf("%s does not load the client script", path)
		}
	}

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/static/app.js", nil))
	if rr.Code != 200 {
		t.Fatalf("app.js status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "htmx:beforeSwap") {
		t.Fatalf("expected error fragments to be swapped on 4xx/5xx responses")
	}
	if !strings.Contains(body, "show-notification") {
		t.Fatalf("expected a show-notification listener in app.js")
	}
}

func TestDeleteButtonTargetsFeedbackSlot(t *testing.T) {
	srv := newTestServer(t, true)

	if rr := postForm(srv, "/investments", url.Values{"category[]": {"bonds"}, "amount[]": {"25"}}); rr.Code != http.StatusSeeOther {
		t.Fatalf("seed insert failed: %d", rr.Code)
	}

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ui/investments", nil))
	body := rr.Body.String()
	if !strings.Contains(body, `id="list-feedback"`) {
		t.Fatalf("expected a feedback slot in the list partial")
	}
	if !strings.Contains(body, `hx-target="#list-feedback"`) {
		t.Fatalf("expected delete buttons to render failures into the feedback slot")
	}
	if strings.Contains(body, `hx-swap="none"`) {
		t.Fatalf("delete button must not discard the response body")
	}
}

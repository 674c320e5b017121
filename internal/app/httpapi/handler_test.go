package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	app "github.com/credittrack/credittrack/internal/app"
	"github.com/credittrack/credittrack/internal/app/domain/user"
	"github.com/credittrack/credittrack/internal/app/services/usage"
)

const testAdminToken = "super_admin"

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	application := app.New(app.Stores{}, nil)
	return NewHandler(application, Options{AdminToken: testAdminToken}, nil)
}

func do(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *strings.Reader
	if body == "" {
		rdr = strings.NewReader("{}")
	} else {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if token != "" {
		req.Header.Set(tokenHeader, token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func msgOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode message body %q: %v", rec.Body.String(), err)
	}
	return body["msg"]
}

func createUserReq(t *testing.T, h http.Handler, username string, credits int) *httptest.ResponseRecorder {
	t.Helper()
	payload := fmt.Sprintf(`{"username":%q,"password":%q,"credits":%d}`, username, username, credits)
	return do(t, h, http.MethodPost, "/users", testAdminToken, payload)
}

func TestCreateUser(t *testing.T) {
	h := newTestHandler(t)

	rec := createUserReq(t, h, "raphael", 1)
	if rec.Code != http.StatusOK {
		t.Fatalf("create: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var created user.User
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created user: %v", err)
	}
	if created.Username != "raphael" || created.Credits != 1 {
		t.Fatalf("unexpected created user: %+v", created)
	}

	rec = createUserReq(t, h, "raphael", 1)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate: expected 400, got %d", rec.Code)
	}
	if got := msgOf(t, rec); got != "already_exists" {
		t.Fatalf("duplicate: expected already_exists, got %q", got)
	}

	rec = createUserReq(t, h, strings.Repeat("x", user.MaxUsernameLength+1), 1)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("long username: expected 400, got %d", rec.Code)
	}
	if got := msgOf(t, rec); got != "length of username is higher than max length" {
		t.Fatalf("long username: unexpected message %q", got)
	}
}

func TestAdminEndpointsRejectNonAdmin(t *testing.T) {
	h := newTestHandler(t)

	calls := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/users"},
		{http.MethodGet, "/users"},
		{http.MethodGet, "/users/raphael"},
		{http.MethodPatch, "/users/raphael"},
		{http.MethodDelete, "/users/raphael"},
		{http.MethodGet, "/global_metrics"},
		{http.MethodGet, "/top_metrics"},
	}
	for _, call := range calls {
		rec := do(t, h, call.method, call.path, "wrong-token", "")
		if rec.Code != http.StatusForbidden {
			t.Fatalf("%s %s: expected 403, got %d", call.method, call.path, rec.Code)
		}
		if got := msgOf(t, rec); got != msgNoPermission {
			t.Fatalf("%s %s: unexpected message %q", call.method, call.path, got)
		}
	}
}

func TestTaskCreditExhaustion(t *testing.T) {
	h := newTestHandler(t)

	if rec := createUserReq(t, h, "bar", 10); rec.Code != http.StatusOK {
		t.Fatalf("create bar: %d (%s)", rec.Code, rec.Body.String())
	}

	for i := 0; i < 10; i++ {
		rec := do(t, h, http.MethodPost, "/tasks", "bar", `{"completed":false}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("task %d: expected 200, got %d (%s)", i+1, rec.Code, rec.Body.String())
		}
	}

	rec := do(t, h, http.MethodPost, "/tasks", "bar", `{"completed":false}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("exhausted: expected 400, got %d", rec.Code)
	}
	if got := msgOf(t, rec); got != "Credits Exhausted" {
		t.Fatalf("exhausted: unexpected message %q", got)
	}
}

func TestTaskRejectsUnknownToken(t *testing.T) {
	h := newTestHandler(t)

	rec := do(t, h, http.MethodPost, "/tasks", "nobody", `{"completed":true}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if got := msgOf(t, rec); got != msgInvalidToken {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestUserMetrics(t *testing.T) {
	h := newTestHandler(t)

	if rec := createUserReq(t, h, "bar", 10); rec.Code != http.StatusOK {
		t.Fatalf("create bar: %d", rec.Code)
	}
	for i := 0; i < 4; i++ {
		if rec := do(t, h, http.MethodPost, "/tasks", "bar", "{}"); rec.Code != http.StatusOK {
			t.Fatalf("task %d: %d", i+1, rec.Code)
		}
	}

	// A user reads its own usage through the "me" alias.
	rec := do(t, h, http.MethodGet, "/metrics/me", "bar", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("self metrics: expected 200, got %d", rec.Code)
	}
	var report usage.UserUsage
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Credits != 10 || report.RemainingCredits != 6 {
		t.Fatalf("unexpected report: %+v", report)
	}

	// The admin reads anyone's usage by name.
	rec = do(t, h, http.MethodGet, "/metrics/bar", testAdminToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("admin metrics: expected 200, got %d", rec.Code)
	}

	// A plain user may not read another user's usage.
	rec = do(t, h, http.MethodGet, "/metrics/bar", "bar", "")
	if rec.Code != http.StatusForbidden || msgOf(t, rec) != msgNoPermission {
		t.Fatalf("cross-user metrics: expected 403 %q, got %d %q", msgNoPermission, rec.Code, rec.Body.String())
	}

	// An unknown token on the "me" alias is a permission failure too.
	rec = do(t, h, http.MethodGet, "/metrics/me", "nobody", "")
	if rec.Code != http.StatusForbidden || msgOf(t, rec) != msgNoPermission {
		t.Fatalf("unknown me: expected 403 %q, got %d %q", msgNoPermission, rec.Code, rec.Body.String())
	}
}

func TestGlobalMetrics(t *testing.T) {
	h := newTestHandler(t)

	if rec := createUserReq(t, h, "bar", 10); rec.Code != http.StatusOK {
		t.Fatalf("create bar: %d", rec.Code)
	}
	for i := 0; i < 10; i++ {
		if rec := do(t, h, http.MethodPost, "/tasks", "bar", "{}"); rec.Code != http.StatusOK {
			t.Fatalf("task %d: %d", i+1, rec.Code)
		}
	}

	rec := do(t, h, http.MethodGet, "/global_metrics", testAdminToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var totals struct {
		Users   int `json:"nb_of_users"`
		Objects int `json:"nb_of_objects"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &totals); err != nil {
		t.Fatalf("decode totals: %v", err)
	}
	if totals.Users != 1 || totals.Objects != 11 {
		t.Fatalf("expected 1 user / 11 objects, got %+v", totals)
	}
}

func TestTopMetrics(t *testing.T) {
	h := newTestHandler(t)

	addTasks := func(username string, n int) {
		for i := 0; i < n; i++ {
			if rec := do(t, h, http.MethodPost, "/tasks", username, "{}"); rec.Code != http.StatusOK {
				t.Fatalf("task for %s: %d (%s)", username, rec.Code, rec.Body.String())
			}
		}
	}

	if rec := createUserReq(t, h, "bar", 20); rec.Code != http.StatusOK {
		t.Fatalf("create bar: %d", rec.Code)
	}
	addTasks("bar", 10)
	for i := 1; i <= 11; i++ {
		name := fmt.Sprintf("u%d", i)
		if rec := createUserReq(t, h, name, 20); rec.Code != http.StatusOK {
			t.Fatalf("create %s: %d", name, rec.Code)
		}
		addTasks(name, i)
	}

	rec := do(t, h, http.MethodGet, "/top_metrics", testAdminToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var top []string
	if err := json.Unmarshal(rec.Body.Bytes(), &top); err != nil {
		t.Fatalf("decode top: %v", err)
	}

	// bar and u10 tie at ten tasks; bar was created first and wins.
	want := []string{"u11", "bar", "u10", "u9", "u8", "u7", "u6", "u5", "u4", "u3"}
	if len(top) != len(want) {
		t.Fatalf("expected %d entries, got %d: %v", len(want), len(top), top)
	}
	for i := range want {
		if top[i] != want[i] {
			t.Fatalf("position %d: expected %s, got %s (full: %v)", i, want[i], top[i], top)
		}
	}
}

func TestUpdateUser(t *testing.T) {
	h := newTestHandler(t)

	if rec := createUserReq(t, h, "bar", 10); rec.Code != http.StatusOK {
		t.Fatalf("create bar: %d", rec.Code)
	}

	rec := do(t, h, http.MethodPatch, "/users/bar", testAdminToken, `{"credits":42}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var updated user.User
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode updated: %v", err)
	}
	if updated.Credits != 42 {
		t.Fatalf("credits not updated: %+v", updated)
	}

	rec = do(t, h, http.MethodPatch, "/users/bar", testAdminToken, `{"username":"baz"}`)
	if rec.Code != http.StatusBadRequest || msgOf(t, rec) != "username is immutable" {
		t.Fatalf("rename: expected 400 username is immutable, got %d %q", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodPatch, "/users/ghost", testAdminToken, `{"credits":1}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("absent user: expected 404, got %d", rec.Code)
	}
}

func TestDeleteUser(t *testing.T) {
	h := newTestHandler(t)

	if rec := createUserReq(t, h, "bar", 10); rec.Code != http.StatusOK {
		t.Fatalf("create bar: %d", rec.Code)
	}

	rec := do(t, h, http.MethodDelete, "/users/bar", testAdminToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}
	if got := msgOf(t, rec); got != "user bar deleted" {
		t.Fatalf("delete: unexpected message %q", got)
	}

	rec = do(t, h, http.MethodGet, "/users/bar", testAdminToken, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", rec.Code)
	}

	rec = do(t, h, http.MethodDelete, "/users/bar", testAdminToken, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", rec.Code)
	}
}

func TestListUsersSnapshot(t *testing.T) {
	h := newTestHandler(t)

	if rec := createUserReq(t, h, "bar", 10); rec.Code != http.StatusOK {
		t.Fatalf("create bar: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/tasks", "bar", `{"completed":true}`); rec.Code != http.StatusOK {
		t.Fatalf("task: %d", rec.Code)
	}

	rec := do(t, h, http.MethodGet, "/users", testAdminToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var snapshot map[string]struct {
		User  user.User         `json:"user"`
		Tasks []json.RawMessage `json:"tasks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &snapshot); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	rec2, ok := snapshot["bar"]
	if !ok {
		t.Fatalf("bar missing from snapshot: %v", snapshot)
	}
	if rec2.User.Username != "bar" || len(rec2.Tasks) != 1 {
		t.Fatalf("unexpected snapshot entry: %+v", rec2)
	}
}

func TestHealthzAndPrometheusEndpoint(t *testing.T) {
	h := newTestHandler(t)

	rec := do(t, h, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Fatalf("metrics: expected a non-empty exposition body")
	}
}

package httpapi

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	app "github.com/credittrack/credittrack/internal/app"
	"github.com/credittrack/credittrack/internal/app/metrics"
	"github.com/credittrack/credittrack/internal/app/services/users"
	"github.com/credittrack/credittrack/internal/errors"
	"github.com/credittrack/credittrack/pkg/logger"
)

// Client-visible message bodies. These are a wire contract; the
// misspelling in the permission message is intentional.
const (
	msgNoPermission = "You do not have the permission to access this ressource"
	msgInvalidToken = "Invalid Token"
)

// tokenHeader carries either the shared admin secret or, for task
// creation and self metrics, the caller's username acting as its own
// credential. No password check happens anywhere; insecure by design.
const tokenHeader = "X-Token"

// Options tunes the handler.
type Options struct {
	// AdminToken is the shared secret granting admin access.
	AdminToken string
	// AuditPath, when set, appends audit entries to a JSONL file.
	AuditPath string
}

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app        *app.Application
	adminToken string
	audit      *auditLog
	log        *logger.Logger
}

// NewHandler returns a router exposing the task-credit REST API.
func NewHandler(application *app.Application, opts Options, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}

	var sink auditSink
	if opts.AuditPath != "" {
		fileSink, err := newFileAuditSink(opts.AuditPath)
		if err != nil {
			log.WithError(err).Warn("audit file sink disabled")
		} else {
			sink = fileSink
		}
	}

	h := &handler{
		app:        application,
		adminToken: opts.AdminToken,
		audit:      newAuditLog(0, sink),
		log:        log,
	}

	r := mux.NewRouter()
	r.HandleFunc("/users", h.createUser).Methods(http.MethodPost)
	r.HandleFunc("/users", h.listUsers).Methods(http.MethodGet)
	r.HandleFunc("/users/{username}", h.getUser).Methods(http.MethodGet)
	r.HandleFunc("/users/{username}", h.updateUser).Methods(http.MethodPatch)
	r.HandleFunc("/users/{username}", h.deleteUser).Methods(http.MethodDelete)
	r.HandleFunc("/tasks", h.createTask).Methods(http.MethodPost)
	r.HandleFunc("/metrics/{username}", h.userMetrics).Methods(http.MethodGet)
	r.HandleFunc("/global_metrics", h.globalMetrics).Methods(http.MethodGet)
	r.HandleFunc("/top_metrics", h.topMetrics).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)
	return r
}

// requireAdmin enforces the shared admin secret. Writes the 403 body and
// returns false when the check fails.
func (h *handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get(tokenHeader) != h.adminToken {
		writeMsg(w, http.StatusForbidden, msgNoPermission)
		return false
	}
	return true
}

func (h *handler) createUser(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Credits  int    `json:"credits"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeMsg(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.app.Users.Create(r.Context(), payload.Username, payload.Password, payload.Credits)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.recordAudit(r, http.StatusOK)
	writeJSON(w, http.StatusOK, created)
}

func (h *handler) listUsers(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	snapshot, err := h.app.Users.Snapshot(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *handler) getUser(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	u, err := h.app.Users.Get(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *handler) updateUser(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	username := mux.Vars(r)["username"]

	var payload struct {
		Username *string `json:"username"`
		Password *string `json:"password"`
		Credits  *int    `json:"credits"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeMsg(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.Username != nil && *payload.Username != username {
		writeMsg(w, http.StatusBadRequest, "username is immutable")
		return
	}

	updated, err := h.app.Users.Update(r.Context(), username, users.Update{
		Password: payload.Password,
		Credits:  payload.Credits,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.recordAudit(r, http.StatusOK)
	writeJSON(w, http.StatusOK, updated)
}

func (h *handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	username := mux.Vars(r)["username"]

	if err := h.app.Users.Delete(r.Context(), username); err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.recordAudit(r, http.StatusOK)
	writeMsg(w, http.StatusOK, "user "+username+" deleted")
}

func (h *handler) createTask(w http.ResponseWriter, r *http.Request) {
	// The token is the caller's username; whoever presents a username
	// string authenticates as that user.
	username := r.Header.Get(tokenHeader)
	if _, err := h.app.Users.Get(r.Context(), username); err != nil {
		writeMsg(w, http.StatusBadRequest, msgInvalidToken)
		return
	}

	var payload struct {
		Completed *bool `json:"completed"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeMsg(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.app.Tasks.Create(r.Context(), username, payload.Completed)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, created)
}

func (h *handler) userMetrics(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	token := r.Header.Get(tokenHeader)

	// "me" resolves to the caller's own token; anyone else's metrics
	// require the admin secret.
	if username == "me" {
		username = token
	} else if token != h.adminToken {
		writeMsg(w, http.StatusForbidden, msgNoPermission)
		return
	}

	report, err := h.app.Usage.ForUser(r.Context(), username)
	if err != nil {
		// An unresolvable identity reads as a permission failure, not a
		// lookup failure.
		writeMsg(w, http.StatusForbidden, msgNoPermission)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *handler) globalMetrics(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	totals, err := h.app.Usage.Global(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func (h *handler) topMetrics(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	top, err := h.app.Usage.Top(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, top)
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeServiceError maps a domain error to its client response.
func (h *handler) writeServiceError(w http.ResponseWriter, err error) {
	e := errors.GetServiceError(err)
	if e == nil {
		h.log.WithError(err).Warn("unexpected error reached the transport layer")
		writeMsg(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeMsg(w, e.HTTPStatus, e.Message)
}

func (h *handler) recordAudit(r *http.Request, status int) {
	h.audit.add(auditEntry{
		Actor:      "admin",
		Path:       r.URL.Path,
		Method:     r.Method,
		Status:     status,
		RemoteAddr: r.RemoteAddr,
	})
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"msg": msg})
}

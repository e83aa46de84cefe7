// Package server exposes the dashboard aggregations over HTTP.
//
// All data endpoints answer from the TTL cache; a stale cache triggers
// a reload through the model, and if that fails the stale snapshot is
// served anyway so the dashboard degrades to old numbers instead of
// errors while the source is unreachable.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"golang-ar-analytics-service/internal/access"
	"golang-ar-analytics-service/internal/analytics"
	"golang-ar-analytics-service/internal/ardata"
	"golang-ar-analytics-service/internal/cache"
	"golang-ar-analytics-service/internal/models"
	"golang-ar-analytics-service/pkg/errors"
	"golang-ar-analytics-service/pkg/logger"

	"github.com/gorilla/mux"
)

// UserHeader carries the authenticated caller's email, set by the
// SSO proxy in front of the service.
const UserHeader = "X-User-Email"

// Config holds the server settings.
type Config struct {
	Addr         string
	CacheTTL     time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// AuthDisabled turns off the access middleware, for local use.
	AuthDisabled bool
}

// DefaultConfig returns server settings suitable for local use.
func DefaultConfig() *Config {
	return &Config{
		Addr:         ":8080",
		CacheTTL:     5 * time.Minute,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server wires the model, engine, cache, and access store into an HTTP
// handler.
type Server struct {
	config *Config
	model  *ardata.Model
	engine *analytics.Engine
	cache  *cache.Cache
	store  *access.Store
	router *mux.Router
	logger logger.Logger
}

// New assembles a Server. The access store may be nil only when auth is
// disabled.
func New(config *Config, model *ardata.Model, engine *analytics.Engine, store *access.Store) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	s := &Server{
		config: config,
		model:  model,
		engine: engine,
		cache:  cache.New(config.CacheTTL),
		store:  store,
		logger: logger.GetGlobalLogger().WithComponent("server"),
	}
	s.routes()
	return s
}

// Router returns the HTTP handler for mounting or testing.
func (s *Server) Router() http.Handler {
	return s.router
}

// ListenAndServe runs the HTTP server until it fails.
func (s *Server) ListenAndServe() error {
	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	s.logger.WithField("addr", s.config.Addr).Info("HTTP server listening")
	return srv.ListenAndServe()
}

func (s *Server) routes() {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.requireViewer)
	api.HandleFunc("/meta", s.handleMeta).Methods(http.MethodGet)
	api.HandleFunc("/totals", s.handleTotals).Methods(http.MethodGet)
	api.HandleFunc("/summary/weekly", s.handleWeeklySummary).Methods(http.MethodGet)
	api.HandleFunc("/outstanding/{view}", s.handleOutstanding).Methods(http.MethodGet)
	api.HandleFunc("/detail/projection", s.handleProjectionDetail).Methods(http.MethodGet)
	api.HandleFunc("/detail/due", s.handleDueDetail).Methods(http.MethodGet)
	api.HandleFunc("/detail/customer", s.handleCustomerDetail).Methods(http.MethodGet)
	api.HandleFunc("/detail/business", s.handleBusinessDetail).Methods(http.MethodGet)
	api.HandleFunc("/detail/allocation", s.handleAllocationDetail).Methods(http.MethodGet)
	api.HandleFunc("/detail/status", s.handleStatusDetail).Methods(http.MethodGet)

	admin := r.PathPrefix("/api").Subrouter()
	admin.Use(s.requireAdmin)
	admin.HandleFunc("/refresh", s.handleRefresh).Methods(http.MethodPost)
	admin.HandleFunc("/users", s.handleListUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users", s.handleGrantUser).Methods(http.MethodPost)
	admin.HandleFunc("/users/{email}", s.handleRevokeUser).Methods(http.MethodDelete)
	admin.HandleFunc("/users/{email}/role", s.handleUpdateRole).Methods(http.MethodPut)
	admin.HandleFunc("/users/{email}/reactivate", s.handleReactivateUser).Methods(http.MethodPost)

	s.router = r
}

// ---------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------

func (s *Server) requireViewer(next http.Handler) http.Handler {
	return s.authMiddleware(next, false)
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return s.authMiddleware(next, true)
}

func (s *Server) authMiddleware(next http.Handler, admin bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.AuthDisabled {
			next.ServeHTTP(w, r)
			return
		}
		email := r.Header.Get(UserHeader)
		if email == "" || s.store == nil || !s.store.IsAuthorized(email) {
			s.writeError(w, http.StatusUnauthorized, "not authorized")
			return
		}
		if admin && !s.store.IsAdmin(email) {
			s.writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ---------------------------------------------------------------------
// Snapshot access
// ---------------------------------------------------------------------

// snapshot returns the dataset to serve, refreshing through the model
// when the cache is stale. A failed refresh falls back to stale data.
func (s *Server) snapshot(r *http.Request) (*cache.Snapshot, error) {
	snap, fresh := s.cache.Get()
	if fresh {
		return snap, nil
	}

	if err := s.model.Load(r.Context()); err != nil {
		if snap != nil {
			s.logger.WithError(err).Warn("Refresh failed, serving stale snapshot")
			return snap, nil
		}
		return nil, err
	}

	s.cache.Put(s.model.Dataset(), s.model.FileInfo())
	snap, _ = s.cache.Get()
	return snap, nil
}

func (s *Server) dataset(w http.ResponseWriter, r *http.Request) (*cache.Snapshot, bool) {
	snap, err := s.snapshot(r)
	if err != nil {
		s.writeDashboardError(w, err)
		return nil, false
	}
	return snap, true
}

// ---------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.dataset(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"file":          snap.Info.Name,
		"last_modified": snap.Info.LastModified,
		"modified_by":   snap.Info.ModifiedBy,
		"rows":          snap.Dataset.Len(),
		"cached_at":     snap.CachedAt,
	})
}

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.dataset(w, r)
	if !ok {
		return
	}
	ds := snap.Dataset
	s.writeJSON(w, http.StatusOK, map[string]float64{
		"grand_total":           s.engine.GrandTotal(ds),
		"expected_inflow_total": s.engine.ExpectedInflowTotal(ds),
		"dispute_total":         s.engine.DisputeTotal(ds),
		"credit_memo_total":     s.engine.CreditMemoTotal(ds),
		"unapplied_total":       s.engine.UnappliedTotal(ds),
	})
}

func (s *Server) handleWeeklySummary(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.dataset(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, s.engine.WeeklyInflowSummary(snap.Dataset))
}

func (s *Server) handleOutstanding(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.dataset(w, r)
	if !ok {
		return
	}
	ds := snap.Dataset

	var table *analytics.Table
	switch mux.Vars(r)["view"] {
	case "due":
		table = s.engine.DueWiseOutstanding(ds)
	case "customer":
		table = s.engine.CustomerWiseOutstanding(ds)
	case "business":
		table = s.engine.BusinessWiseOutstanding(ds)
	case "allocation":
		table = s.engine.AllocationWiseOutstanding(ds)
	case "entities":
		table = s.engine.EntitiesWiseOutstanding(ds)
	case "status":
		table = s.engine.ARStatusWiseOutstanding(ds)
	default:
		s.writeError(w, http.StatusNotFound, "unknown outstanding view")
		return
	}
	s.writeJSON(w, http.StatusOK, table)
}

func (s *Server) handleProjectionDetail(w http.ResponseWriter, r *http.Request) {
	s.detailHandler(w, r, "label", func(ds *models.Dataset, label string) *analytics.Table {
		return s.engine.ProjectionDetail(ds, label)
	})
}

func (s *Server) handleDueDetail(w http.ResponseWriter, r *http.Request) {
	s.detailHandler(w, r, "remark", func(ds *models.Dataset, remark string) *analytics.Table {
		return s.engine.DueWiseDetail(ds, remark)
	})
}

func (s *Server) handleCustomerDetail(w http.ResponseWriter, r *http.Request) {
	s.detailHandler(w, r, "name", func(ds *models.Dataset, name string) *analytics.Table {
		return s.engine.CustomerDetail(ds, name)
	})
}

func (s *Server) handleBusinessDetail(w http.ResponseWriter, r *http.Request) {
	s.detailHandler(w, r, "org", func(ds *models.Dataset, org string) *analytics.Table {
		return s.engine.BusinessDetail(ds, org)
	})
}

func (s *Server) detailHandler(w http.ResponseWriter, r *http.Request, param string,
	build func(*models.Dataset, string) *analytics.Table) {

	value := r.URL.Query().Get(param)
	if value == "" {
		s.writeError(w, http.StatusBadRequest, "missing query parameter: "+param)
		return
	}
	snap, ok := s.dataset(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, build(snap.Dataset, value))
}

func (s *Server) handleAllocationDetail(w http.ResponseWriter, r *http.Request) {
	allocation := r.URL.Query().Get("allocation")
	remark := r.URL.Query().Get("remark")
	if allocation == "" || remark == "" {
		s.writeError(w, http.StatusBadRequest, "missing query parameters: allocation, remark")
		return
	}
	snap, ok := s.dataset(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, s.engine.AllocationRemarkDetail(snap.Dataset, allocation, remark))
}

func (s *Server) handleStatusDetail(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	remark := r.URL.Query().Get("remark")
	if status == "" || remark == "" {
		s.writeError(w, http.StatusBadRequest, "missing query parameters: status, remark")
		return
	}
	snap, ok := s.dataset(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, s.engine.StatusRemarkDetail(snap.Dataset, status, remark))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.model.Load(r.Context()); err != nil {
		s.writeDashboardError(w, err)
		return
	}
	s.cache.Put(s.model.Dataset(), s.model.FileInfo())
	info := s.model.FileInfo()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"file":          info.Name,
		"last_modified": info.LastModified,
		"rows":          s.model.Dataset().Len(),
	})
}

// ---------------------------------------------------------------------
// User administration
// ---------------------------------------------------------------------

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.ListUsers())
}

func (s *Server) handleGrantUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
		Role        string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Role == "" {
		body.Role = access.RoleViewer
	}
	user, err := s.store.Grant(body.Email, body.DisplayName, body.Role, r.Header.Get(UserHeader))
	if err != nil {
		s.writeDashboardError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleRevokeUser(w http.ResponseWriter, r *http.Request) {
	found, err := s.store.Revoke(mux.Vars(r)["email"], r.Header.Get(UserHeader))
	if err != nil {
		s.writeDashboardError(w, err)
		return
	}
	if !found {
		s.writeError(w, http.StatusNotFound, "user not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}

func (s *Server) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	found, err := s.store.UpdateRole(mux.Vars(r)["email"], body.Role, r.Header.Get(UserHeader))
	if err != nil {
		s.writeDashboardError(w, err)
		return
	}
	if !found {
		s.writeError(w, http.StatusNotFound, "user not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleReactivateUser(w http.ResponseWriter, r *http.Request) {
	found, err := s.store.Reactivate(mux.Vars(r)["email"], r.Header.Get(UserHeader))
	if err != nil {
		s.writeDashboardError(w, err)
		return
	}
	if !found {
		s.writeError(w, http.StatusNotFound, "user not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "reactivated"})
}

// ---------------------------------------------------------------------
// Responses
// ---------------------------------------------------------------------

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) writeDashboardError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if de, ok := errors.AsDashboardError(err); ok {
		switch de.Category {
		case errors.CategoryValidation:
			status = http.StatusBadRequest
		case errors.CategoryFetch:
			status = http.StatusBadGateway
		}
		s.writeJSON(w, status, map[string]interface{}{
			"error": de.Message,
			"code":  de.Code,
		})
		return
	}
	s.writeError(w, status, err.Error())
}

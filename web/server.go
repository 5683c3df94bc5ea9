// ABOUTME: Web UI server with an embedded kanban board page and JSON API
// ABOUTME: Drag and drop requests drive the pipeline stage transition controller
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-graphviz"
	"github.com/google/uuid"
	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/pipeline"
	"github.com/harperreed/dealflow/services"
	"github.com/harperreed/dealflow/state"
	"github.com/harperreed/dealflow/views"
	"github.com/harperreed/dealflow/viz"
	"github.com/sirupsen/logrus"
)

//go:embed templates/*
var templatesFS embed.FS

type Server struct {
	svc        views.Services
	board      *pipeline.Board
	controller *pipeline.Controller
	tasks      *state.Collection[models.Task]
	generator  *viz.GraphGenerator
	templates  *template.Template
	log        *logrus.Entry
	router     *chi.Mux
	srv        *http.Server
}

// NewServer loads the board from svc and wires every route.
func NewServer(ctx context.Context, addr string, svc views.Services, log *logrus.Entry) (*Server, error) {
	const (
		defaultIdleTimeout  = 120 * time.Second
		defaultReadTimeout  = 5 * time.Second
		defaultWriteTimeout = 60 * time.Second
	)

	if log == nil {
		log = logrus.WithField("component", "web")
	}

	tmpl, err := template.New("").Funcs(template.FuncMap{
		"stageName": models.StageName,
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	board := pipeline.NewBoard(svc.Deals.List(ctx))
	s := &Server{
		svc:        svc,
		board:      board,
		controller: pipeline.NewController(board, svc.Deals, log),
		tasks:      state.NewCollection[models.Task](nil),
		generator:  viz.NewGraphGenerator(log),
		templates:  tmpl,
		log:        log,
		router:     chi.NewRouter(),
	}
	s.routes()

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		IdleTimeout:  defaultIdleTimeout,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	}
	return s, nil
}

func (s *Server) routes() {
	s.router.Use(s.requestID)

	s.router.Get("/", s.handleBoard)
	s.router.Get("/pipeline.svg", s.handlePipelineSVG)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/deals", s.handleDeals)
		r.Get("/pipeline", s.handlePipeline)
		r.Post("/reload", s.handleReload)
		r.Get("/drag", s.handleDragState)
		r.Post("/deals/{id}/drag", s.handleStartDrag)
		r.Delete("/drag", s.handleCancelDrag)
		r.Post("/drop", s.handleDrop)
		r.Get("/tasks/grouped", s.handleTasks)
		r.Post("/tasks/{id}/complete", s.handleCompleteTask)
		r.Get("/activities/grouped", s.handleActivities)
		r.Get("/dashboard", s.handleDashboard)
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) ListenAndServe() error {
	s.log.WithField("addr", s.srv.Addr).Info("starting web server")
	return s.srv.ListenAndServe()
}

// Shutdown stops the server and detaches the board so in-flight drops
// are discarded instead of applied.
func (s *Server) Shutdown(ctx context.Context) error {
	s.board.Detach()
	return s.srv.Shutdown(ctx)
}

type ctxKey struct{}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
		s.log.WithFields(logrus.Fields{
			"request_id": id,
			"method":     r.Method,
			"path":       r.URL.Path,
			"duration":   time.Since(start).String(),
		}).Debug("request")
	})
}

// RequestID returns the id the middleware assigned to ctx's request.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{
		"Title":   "Pipeline",
		"Summary": s.board.Summary(),
		"State":   s.controller.State(),
	}
	if err := s.templates.ExecuteTemplate(w, "board.html", data); err != nil {
		s.log.WithError(err).Error("template error rendering board.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handlePipelineSVG(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	if err := s.generator.RenderPipeline(r.Context(), s.board.Summary(), graphviz.SVG, w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleDeals(w http.ResponseWriter, r *http.Request) {
	deals := s.board.Deals()
	if stage := r.URL.Query().Get("stage"); stage != "" {
		deals = services.DealsByStage(deals, stage)
	}
	writeJSON(w, http.StatusOK, deals)
}

func (s *Server) handlePipeline(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.board.Summary())
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	deals, err := s.svc.Deals.Fetch(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	s.board.Reload(deals)
	writeJSON(w, http.StatusOK, s.board.Summary())
}

type dragResponse struct {
	Phase   string `json:"phase"`
	DealID  int64  `json:"deal_id,omitempty"`
	Target  string `json:"target,omitempty"`
	Gesture string `json:"gesture,omitempty"`
}

func toDragResponse(st pipeline.State) dragResponse {
	return dragResponse{Phase: st.Phase.String(), DealID: st.DealID, Target: st.Target, Gesture: st.Gesture}
}

func (s *Server) handleDragState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toDragResponse(s.controller.State()))
}

func (s *Server) handleStartDrag(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid deal id: %w", err))
		return
	}
	if err := s.controller.StartDrag(id); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, toDragResponse(s.controller.State()))
}

func (s *Server) handleCancelDrag(w http.ResponseWriter, r *http.Request) {
	s.controller.CancelDrag()
	writeJSON(w, http.StatusOK, toDragResponse(s.controller.State()))
}

type dropRequest struct {
	Stage string `json:"stage"`
}

type dropResponse struct {
	Outcome  string           `json:"outcome"`
	Error    string           `json:"error,omitempty"`
	Pipeline pipeline.Summary `json:"pipeline"`
}

func (s *Server) handleDrop(w http.ResponseWriter, r *http.Request) {
	var req dropRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid body: %w", err))
		return
	}

	outcome, err := s.controller.Drop(r.Context(), req.Stage)
	switch {
	case outcome == pipeline.OutcomeRolledBack:
		// The board is already restored; report the failure with it.
		writeJSON(w, http.StatusConflict, dropResponse{Outcome: outcome.String(), Error: err.Error(), Pipeline: s.board.Summary()})
	case err != nil:
		writeError(w, statusFor(err), err)
	default:
		writeJSON(w, http.StatusOK, dropResponse{Outcome: outcome.String(), Pipeline: s.board.Summary()})
	}
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := s.svc.TaskPageInto(r.Context(), s.tasks, views.TaskFilter{
		Search:   q.Get("search"),
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid task id: %w", err))
		return
	}

	if _, ok := s.tasks.Find(id); !ok {
		s.tasks.Set(s.svc.Tasks.List(r.Context()))
	}

	task, err := views.CompleteTask(r.Context(), s.tasks, s.svc.Tasks, id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleActivities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := s.svc.ActivityPage(r.Context(), views.ActivityFilter{
		Type:    q.Get("type"),
		Outcome: q.Get("outcome"),
	}, s.svc.Activities.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Dashboard(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrUnknownDeal), errors.Is(err, state.ErrMissing), errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, pipeline.ErrTransitionInFlight), errors.Is(err, pipeline.ErrNotDragging):
		return http.StatusConflict
	case errors.Is(err, pipeline.ErrInvalidStage), errors.Is(err, services.ErrInvalid):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrRemoteFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// Package httpapi provides the REST HTTP adapter for the task board.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	charmLog "github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/taskopia/taskopia/internal/adapters/server/authtoken"
	"github.com/taskopia/taskopia/internal/adapters/server/common"
	"github.com/taskopia/taskopia/internal/app"
	"github.com/taskopia/taskopia/internal/domain"
)

// maxRequestBodyBytes limits decoded JSON payload size for fail-closed request handling.
const maxRequestBodyBytes int64 = 1 << 20

// defaultActivityLimit is the page size when no limit is given.
const defaultActivityLimit = 50

// APIError represents one structured API failure response.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Hint    string         `json:"hint,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// ErrorEnvelope wraps one structured API error.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// AuthResponse is returned by login, signup and join.
type AuthResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	User      common.Member `json:"user"`
}

// Handler serves the versioned API subrouter mounted under `/api/v1`.
type Handler struct {
	board    common.BoardService
	accounts common.AccountService
	tokens   *authtoken.Issuer
	logger   *charmLog.Logger
	router   chi.Router
}

type identityKey struct{}

// NewHandler constructs the HTTP API over board and account services.
func NewHandler(board common.BoardService, accounts common.AccountService, tokens *authtoken.Issuer, logger *charmLog.Logger) *Handler {
	if logger == nil {
		logger = charmLog.New(io.Discard)
	}
	h := &Handler{
		board:    board,
		accounts: accounts,
		tokens:   tokens,
		logger:   logger,
	}
	h.router = h.routes()
	return h
}

// ServeHTTP routes one versioned API request to the matching handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(h.logRequests)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusNotFound, APIError{Code: "not_found", Message: "endpoint not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, APIError{Code: "method_not_allowed", Message: "method not allowed"})
	})

	r.Get("/board", h.handleBoard)
	r.Get("/tasks", h.handleListTasks)
	r.Get("/tasks/{taskID}", h.handleGetTask)
	r.Get("/progress", h.handleProgress)
	r.Get("/users", h.handleUsers)
	r.Get("/activity", h.handleActivity)
	r.Get("/join", h.handleJoinLink)

	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/signup", h.handleSignup)
	r.Post("/auth/join", h.handleJoin)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Get("/auth/me", h.handleMe)
		r.Post("/auth/invite", h.handleInvite)
		r.Post("/tasks", h.handleCreateTask)
		r.Put("/tasks/{taskID}", h.handleUpdateTask)
		r.Delete("/tasks/{taskID}", h.handleDeleteTask)
		r.Post("/tasks/{taskID}/move", h.handleMoveTask)
	})
	return r
}

// logRequests logs one line per request with its status and latency.
func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// requireAuth verifies the bearer token and marks its user as the acting user.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.tokens == nil {
			writeJSONError(w, http.StatusUnauthorized, APIError{Code: "unauthorized", Message: "authentication is not configured"})
			return
		}
		id, err := h.tokens.FromAuthHeader(r.Header.Get("Authorization"))
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, APIError{
				Code:    "unauthorized",
				Message: err.Error(),
				Hint:    "Sign in through /auth/login and send the token as a Bearer header.",
			})
			return
		}
		ctx := context.WithValue(r.Context(), identityKey{}, id)
		ctx = app.WithActor(ctx, id.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func identityFrom(ctx context.Context) authtoken.Identity {
	id, _ := ctx.Value(identityKey{}).(authtoken.Identity)
	return id
}

// handleBoard serves GET `/board`.
func (h *Handler) handleBoard(w http.ResponseWriter, r *http.Request) {
	board, err := h.board.Board(r.Context(), filtersFromQuery(r))
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// handleListTasks serves GET `/tasks` as a flat list in board order.
func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	board, err := h.board.Board(r.Context(), filtersFromQuery(r))
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	tasks := []common.Task{}
	for _, column := range board.Columns {
		tasks = append(tasks, column.Tasks...)
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

// handleGetTask serves GET `/tasks/{id}`.
func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	detail, err := h.board.Task(r.Context(), chi.URLParam(r, "taskID"))
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// handleCreateTask serves POST `/tasks`.
func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req common.TaskRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	task, err := h.board.CreateTask(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// handleUpdateTask serves PUT `/tasks/{id}`.
func (h *Handler) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var req common.TaskRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	task, err := h.board.UpdateTask(r.Context(), chi.URLParam(r, "taskID"), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// handleDeleteTask serves DELETE `/tasks/{id}`.
func (h *Handler) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.board.DeleteTask(r.Context(), chi.URLParam(r, "taskID")); err != nil {
		writeErrorFrom(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMoveTask serves POST `/tasks/{id}/move`.
func (h *Handler) handleMoveTask(w http.ResponseWriter, r *http.Request) {
	var req common.MoveTaskRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	req.TaskID = chi.URLParam(r, "taskID")
	task, err := h.board.MoveTask(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// handleProgress serves GET `/progress`.
func (h *Handler) handleProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.board.Progress(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

// handleUsers serves GET `/users`.
func (h *Handler) handleUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.board.Users(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

// handleActivity serves GET `/activity`.
func (h *Handler) handleActivity(w http.ResponseWriter, r *http.Request) {
	limit := defaultActivityLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSONError(w, http.StatusBadRequest, APIError{Code: "invalid_request", Message: "limit must be a positive integer"})
			return
		}
		limit = parsed
	}
	events, err := h.board.Activity(r.Context(), limit)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

// handleJoinLink serves GET `/join?code=` so deep links can prefill the join form.
func (h *Handler) handleJoinLink(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.URL.Query().Get("code"))
	if code == "" {
		writeJSONError(w, http.StatusBadRequest, APIError{Code: "invalid_request", Message: "code is required"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"team_code": code})
}

// handleLogin serves POST `/auth/login`.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req common.LoginRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	member, err := h.accounts.Login(r.Context(), req)
	h.writeAuth(w, http.StatusOK, member, err)
}

// handleSignup serves POST `/auth/signup`.
func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req common.SignupRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	member, err := h.accounts.Signup(r.Context(), req)
	h.writeAuth(w, http.StatusCreated, member, err)
}

// handleJoin serves POST `/auth/join`.
func (h *Handler) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req common.JoinRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	member, err := h.accounts.Join(r.Context(), req)
	h.writeAuth(w, http.StatusCreated, member, err)
}

// handleMe serves GET `/auth/me`.
func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"id":        id.UserID,
		"name":      id.Name,
		"email":     id.Email,
		"team_code": id.TeamCode,
		"is_admin":  id.IsAdmin,
	})
}

// handleInvite serves POST `/auth/invite`.
func (h *Handler) handleInvite(w http.ResponseWriter, r *http.Request) {
	var req common.InviteRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	inv, err := h.accounts.Invite(r.Context(), identityFrom(r.Context()).UserID, req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (h *Handler) writeAuth(w http.ResponseWriter, status int, member common.Member, err error) {
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	if h.tokens == nil {
		writeJSONError(w, http.StatusInternalServerError, APIError{Code: "internal_error", Message: "authentication is not configured"})
		return
	}
	token, expires, err := h.tokens.Issue(authtoken.Identity{
		UserID:   member.ID,
		Name:     member.Name,
		Email:    member.Email,
		TeamCode: member.TeamCode,
		IsAdmin:  member.IsAdmin,
	})
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, status, AuthResponse{Token: token, ExpiresAt: expires, User: member})
}

func filtersFromQuery(r *http.Request) common.Filters {
	q := r.URL.Query()
	return common.Filters{
		Search:     q.Get("search"),
		Priority:   q.Get("priority"),
		AssigneeID: q.Get("assignee_id"),
		Status:     q.Get("status"),
	}
}

// writeErrorFrom maps adapter errors into structured HTTP responses.
func writeErrorFrom(w http.ResponseWriter, err error) {
	var validation domain.ValidationErrors
	switch {
	case err == nil:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: "unknown error",
		})
	case errors.As(err, &validation):
		fields := make(map[string]any, len(validation))
		for field, msg := range validation {
			fields[field] = msg
		}
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: err.Error(),
			Context: fields,
		})
	case errors.Is(err, common.ErrInvalidRequest):
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: app.UserMessage(err),
		})
	case errors.Is(err, common.ErrUnauthorized):
		writeJSONError(w, http.StatusUnauthorized, APIError{
			Code:    "unauthorized",
			Message: app.UserMessage(err),
		})
	case errors.Is(err, common.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrConflict):
		writeJSONError(w, http.StatusConflict, APIError{
			Code:    "conflict",
			Message: app.UserMessage(err),
		})
	default:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: err.Error(),
		})
	}
}

// writeJSONError writes one structured error envelope.
func writeJSONError(w http.ResponseWriter, statusCode int, apiErr APIError) {
	writeJSON(w, statusCode, ErrorEnvelope{Error: apiErr})
}

// writeJSON writes one JSON response envelope.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":{"code":"encode_error","message":"%s"}}`, err.Error()), http.StatusInternalServerError)
	}
}

// decodeJSONBody decodes one required JSON request body with strict shape checks.
func decodeJSONBody(ctx context.Context, w http.ResponseWriter, r *http.Request, out any) error {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer reader.Close()

	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode request body: %w", errors.Join(common.ErrInvalidRequest, err))
	}
	// Reject trailing payloads so malformed JSON bodies fail closed.
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode request body: trailing content: %w", common.ErrInvalidRequest)
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	default:
		return nil
	}
}

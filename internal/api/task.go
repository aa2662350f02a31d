package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/seantiz/warden/internal/model"
	"github.com/seantiz/warden/internal/schedule"
	"github.com/seantiz/warden/internal/store"
)

const maxBodySize = 1 << 20 // 1 MB

// taskNamePattern restricts names to something safe in URLs and log lines.
var taskNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

// createTaskRequest is the JSON body for POST /v1/tasks.
type createTaskRequest struct {
	Name            string       `json:"name"`
	CronSpec        string       `json:"cron_spec"`
	Command         string       `json:"command"`
	Retries         *int         `json:"retries"`
	RetryDelayMS    *int64       `json:"retry_delay_ms"`
	Backoff         string       `json:"backoff"`
	MaxRetryDelayMS *int64       `json:"max_retry_delay_ms"`
	PreventOverlap  bool         `json:"prevent_overlap"`
	TimeoutMS       *int64       `json:"timeout_ms"`
	HistoryLimit    *int         `json:"history_limit"`
	WebhookURL      string       `json:"webhook_url"`
	NotifyOn        *notifyOnReq `json:"notify_on"`
}

type notifyOnReq struct {
	Success     *bool `json:"success"`
	Error       *bool `json:"error"`
	Timeout     *bool `json:"timeout"`
	OverlapSkip *bool `json:"overlap_skip"`
}

// taskResponse pairs a stored definition with its runtime status.
type taskResponse struct {
	model.Task
	Status string `json:"status"`
}

// runResponse is returned by POST /v1/tasks/{name}/run.
type runResponse struct {
	Run    model.RunRecord `json:"run"`
	Result any             `json:"result,omitempty"`
}

type listTasksResponse struct {
	Tasks []taskResponse `json:"tasks"`
	Total int            `json:"total"`
}

type historyResponse struct {
	TaskName string            `json:"task_name"`
	History  []model.RunRecord `json:"history"`
	Count    int               `json:"count"`
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	def, errMsg := taskFromRequest(&req)
	if errMsg != "" {
		s.writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	if _, ok := s.sched.Lookup(def.Name); ok {
		s.writeError(w, http.StatusConflict, "task already exists")
		return
	}

	if err := s.store.CreateTask(r.Context(), def); err != nil {
		s.logger.Error("create task", "task", def.Name, "error", err)
		s.writeError(w, http.StatusConflict, "failed to create task")
		return
	}

	runner := schedule.BuildRunner(def, s.cmd, s.logger)
	if err := s.sched.Register(def.CronSpec, runner); err != nil {
		// Keep the store and schedule consistent.
		if derr := s.store.DeleteTask(r.Context(), def.Name); derr != nil {
			s.logger.Error("rollback task", "task", def.Name, "error", derr)
		}
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.writeJSON(w, http.StatusCreated, taskResponse{Task: *def, Status: runner.Status()})
}

// taskFromRequest validates the request and applies policy defaults. It
// returns a non-empty message describing the first validation failure.
func taskFromRequest(req *createTaskRequest) (*model.Task, string) {
	if req.Name == "" {
		return nil, "name is required"
	}
	if !taskNamePattern.MatchString(req.Name) {
		return nil, "name must match " + taskNamePattern.String()
	}
	if req.CronSpec == "" {
		return nil, "cron_spec is required"
	}
	if err := schedule.ValidateSpec(req.CronSpec); err != nil {
		return nil, "invalid cron_spec: " + err.Error()
	}
	if req.Command == "" {
		return nil, "command is required"
	}

	def := &model.Task{
		Name:           req.Name,
		CronSpec:       req.CronSpec,
		Command:        req.Command,
		Backoff:        model.BackoffFixed,
		PreventOverlap: req.PreventOverlap,
		HistoryLimit:   10,
		WebhookURL:     req.WebhookURL,
		NotifySuccess:  true,
		NotifyError:    true,
		NotifyTimeout:  true,
		CreatedAt:      time.Now().UTC(),
	}

	if req.Retries != nil {
		if *req.Retries < 0 {
			return nil, "retries must be >= 0"
		}
		def.Retries = *req.Retries
	}
	if req.RetryDelayMS != nil {
		if *req.RetryDelayMS < 0 {
			return nil, "retry_delay_ms must be >= 0"
		}
		def.RetryDelayMS = *req.RetryDelayMS
	}
	if req.Backoff != "" {
		if !model.ValidBackoff(req.Backoff) {
			return nil, "backoff must be one of fixed, linear, exponential"
		}
		def.Backoff = req.Backoff
	}
	if req.MaxRetryDelayMS != nil {
		if *req.MaxRetryDelayMS <= 0 {
			return nil, "max_retry_delay_ms must be > 0"
		}
		def.MaxRetryDelayMS = req.MaxRetryDelayMS
	}
	if req.TimeoutMS != nil {
		if *req.TimeoutMS <= 0 {
			return nil, "timeout_ms must be > 0"
		}
		def.TimeoutMS = req.TimeoutMS
	}
	if req.HistoryLimit != nil {
		if *req.HistoryLimit < 1 {
			return nil, "history_limit must be >= 1"
		}
		def.HistoryLimit = *req.HistoryLimit
	}
	if req.NotifyOn != nil {
		if req.NotifyOn.Success != nil {
			def.NotifySuccess = *req.NotifyOn.Success
		}
		if req.NotifyOn.Error != nil {
			def.NotifyError = *req.NotifyOn.Error
		}
		if req.NotifyOn.Timeout != nil {
			def.NotifyTimeout = *req.NotifyOn.Timeout
		}
		if req.NotifyOn.OverlapSkip != nil {
			def.NotifyOverlapSkip = *req.NotifyOn.OverlapSkip
		}
	}

	return def, ""
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	defs, err := s.store.ListTasks(r.Context())
	if err != nil {
		s.logger.Error("list tasks", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}

	tasks := make([]taskResponse, 0, len(defs))
	for _, def := range defs {
		status := model.TaskStopped
		if runner, ok := s.sched.Lookup(def.Name); ok {
			status = runner.Status()
		}
		tasks = append(tasks, taskResponse{Task: *def, Status: status})
	}

	s.writeJSON(w, http.StatusOK, listTasksResponse{Tasks: tasks, Total: len(tasks)})
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	def, err := s.store.GetTask(r.Context(), name)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		s.logger.Error("get task", "task", name, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get task")
		return
	}

	status := model.TaskStopped
	if runner, ok := s.sched.Lookup(name); ok {
		status = runner.Status()
	}

	s.writeJSON(w, http.StatusOK, taskResponse{Task: *def, Status: status})
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := s.store.DeleteTask(r.Context(), name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "task not found")
			return
		}
		s.logger.Error("delete task", "task", name, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to delete task")
		return
	}
	s.sched.Deregister(name)

	s.writeJSON(w, http.StatusOK, map[string]string{
		"name":   name,
		"status": model.TaskStopped,
	})
}

func (s *Server) handleRunTask(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	runner, ok := s.sched.Lookup(name)
	if !ok {
		s.writeError(w, http.StatusNotFound, "task not found")
		return
	}

	// Detached from the request context: a manual run settles on its own
	// terms even if the client goes away mid-invocation.
	result, rec := runner.Invoke(context.Background(), model.TriggerManual)
	if rec == nil {
		s.writeError(w, http.StatusConflict, "task is already running")
		return
	}

	s.writeJSON(w, http.StatusOK, runResponse{Run: *rec, Result: result})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	runner, ok := s.sched.Lookup(name)
	if !ok {
		s.writeError(w, http.StatusNotFound, "task not found")
		return
	}

	hist := runner.History()
	if limit := parseIntQuery(r, "limit", len(hist)); limit >= 0 && limit < len(hist) {
		hist = hist[:limit]
	}

	s.writeJSON(w, http.StatusOK, historyResponse{
		TaskName: name,
		History:  hist,
		Count:    len(hist),
	})
}

func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	runner, ok := s.sched.Lookup(name)
	if !ok {
		s.writeError(w, http.StatusNotFound, "task not found")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"name":   name,
		"status": runner.Status(),
	})
}

// writeJSON writes a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	q := r.URL.Query().Get(key)
	if q == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(q)
	if err != nil {
		return defaultVal
	}
	return v
}

// Package api exposes the queue registry and job submission over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/danielpodrazka/wakaq/internal/domain"
	"github.com/danielpodrazka/wakaq/internal/logging"
	"github.com/danielpodrazka/wakaq/internal/queue"
	"github.com/danielpodrazka/wakaq/internal/storage"
)

type JobStore interface {
	InsertJob(ctx context.Context, p *storage.InsertJobParams) (domain.Job, error)
	GetJob(ctx context.Context, id string) (domain.Job, error)
}

type Broker interface {
	Enqueue(ctx context.Context, q queue.Definition, jobID string, eta time.Time) error
	Depth(ctx context.Context, q queue.Definition) (ready, scheduled int64, err error)
}

type Server struct {
	queues *queue.Registry
	store  JobStore
	broker Broker
	log    *zap.Logger
}

func New(queues *queue.Registry, store JobStore, broker Broker, log *zap.Logger) *Server {
	return &Server{queues: queues, store: store, broker: broker, log: log}
}

func (s *Server) Routes() http.Handler {
	rtr := chi.NewRouter()
	rtr.Use(middleware.RequestID, middleware.Recoverer)

	rtr.Get("/v1/queues", s.listQueues)
	rtr.Get("/v1/queues/{name}", s.getQueue)
	rtr.Post("/v1/jobs", s.enqueue)
	rtr.Get("/v1/jobs/{id}", s.getJob)
	return rtr
}

type queueView struct {
	Name           string   `json:"name"`
	Prefix         string   `json:"prefix"`
	Priority       int      `json:"priority"`
	BrokerKey      string   `json:"broker_key"`
	BrokerEtaKey   string   `json:"broker_eta_key"`
	SoftTimeoutSec *float64 `json:"soft_timeout_sec,omitempty"`
	HardTimeoutSec *float64 `json:"hard_timeout_sec,omitempty"`
	MaxRetries     *int     `json:"max_retries,omitempty"`
	Ready          *int64   `json:"ready,omitempty"`
	Scheduled      *int64   `json:"scheduled,omitempty"`
}

func viewOf(q queue.Definition) queueView {
	v := queueView{
		Name:         q.Name(),
		Prefix:       q.Prefix(),
		Priority:     q.Priority(),
		BrokerKey:    q.BrokerKey(),
		BrokerEtaKey: q.BrokerEtaKey(),
	}
	if d, ok := q.SoftTimeout(); ok {
		secs := d.Seconds()
		v.SoftTimeoutSec = &secs
	}
	if d, ok := q.HardTimeout(); ok {
		secs := d.Seconds()
		v.HardTimeoutSec = &secs
	}
	if n, ok := q.MaxRetries(); ok {
		v.MaxRetries = &n
	}
	return v
}

func (s *Server) listQueues(w http.ResponseWriter, r *http.Request) {
	defs := s.queues.Definitions()
	out := make([]queueView, 0, len(defs))
	for _, q := range defs {
		out = append(out, viewOf(q))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getQueue(w http.ResponseWriter, r *http.Request) {
	q, err := s.lookup(queue.BareName(chi.URLParam(r, "name")))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	v := viewOf(q)
	ready, scheduled, err := s.broker.Depth(r.Context(), q)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	v.Ready, v.Scheduled = &ready, &scheduled
	writeJSON(w, http.StatusOK, v)
}

type enqueueRequest struct {
	Queue   queue.Ref       `json:"queue"`
	Payload json.RawMessage `json:"payload"`
	ETA     *time.Time      `json:"eta"`
}

type jobView struct {
	ID       string        `json:"id"`
	Queue    string        `json:"queue"`
	Priority int           `json:"priority"`
	Status   domain.Status `json:"status"`
	ETA      time.Time     `json:"eta"`
	Attempt  int           `json:"attempt"`
	Error    *string       `json:"error,omitempty"`
}

func (s *Server) enqueue(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, r, errBadRequest{err})
		return
	}
	q, err := s.lookup(req.Queue.Input)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var eta time.Time
	if req.ETA != nil {
		eta = *req.ETA
	}

	job, err := s.store.InsertJob(r.Context(), &storage.InsertJobParams{Queue: q, Payload: req.Payload, ETA: eta})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.broker.Enqueue(r.Context(), q, job.ID, job.ETA); err != nil {
		s.fail(w, r, err)
		return
	}
	s.log.Debug("job enqueued", zap.String("job_id", job.ID), logging.Queue(q))
	writeJSON(w, http.StatusAccepted, jobViewOf(job))
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.store.GetJob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jobViewOf(job))
}

// lookup validates the reference against the registry and returns the
// registered definition, whose prefix and limits govern the job.
func (s *Server) lookup(in queue.Input) (queue.Definition, error) {
	ref, err := s.queues.Resolve(in)
	if err != nil {
		return queue.Definition{}, err
	}
	q, _ := s.queues.Get(ref.Name())
	return q, nil
}

func jobViewOf(j domain.Job) jobView {
	return jobView{
		ID:       j.ID,
		Queue:    j.Queue,
		Priority: j.Priority,
		Status:   j.Status,
		ETA:      j.ETA,
		Attempt:  j.Attempt,
		Error:    j.Error,
	}
}

type errBadRequest struct{ error }

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		invalid *queue.InvalidDefinitionError
		bad     errBadRequest
	)
	switch {
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: invalid.Error(), Field: invalid.Field})
	case errors.As(err, &bad):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: bad.Error()})
	case errors.Is(err, queue.ErrUnknownQueue), errors.Is(err, storage.ErrJobNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	default:
		s.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

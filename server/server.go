// Package server exposes the simulation manager over HTTP: a JSON control
// API, a server-sent-events snapshot stream, and Prometheus metrics.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/bioplant-sim/bioplant-sim/plant"
)

// streamInterval paces the SSE snapshot stream.
const streamInterval = time.Second

// Server routes HTTP requests onto a plant.Manager.
type Server struct {
	mgr     *plant.Manager
	metrics *metrics
	log     *logrus.Entry
}

// NewHandler builds the HTTP handler for the given manager.
func NewHandler(mgr *plant.Manager) http.Handler {
	s := &Server{
		mgr:     mgr,
		metrics: newMetrics(mgr),
		log:     logrus.WithField("component", "server"),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.instrument)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	r.Route("/simulations", func(r chi.Router) {
		r.Post("/", s.handleStart)
		r.Get("/", s.handleList)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleSnapshot)
			r.Delete("/", s.handleStop)
			r.Post("/control", s.handleControl)
			r.Post("/pause", s.handlePause)
			r.Post("/resume", s.handleResume)
			r.Get("/stream", s.handleStream)

			r.Route("/sensors/{vessel}/{variable}", func(r chi.Router) {
				r.Post("/fault", s.handleInjectFault)
				r.Delete("/fault", s.handleClearFault)
				r.Post("/recalibrate", s.handleRecalibrate)
			})
		})
	})

	return r
}

// writeJSON encodes v with a status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).Warn("response encode failed")
	}
}

// writeError maps manager errors onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, plant.ErrNotFound),
		errors.Is(err, plant.ErrUnknownVessel),
		errors.Is(err, plant.ErrSensorNotFound):
		status = http.StatusNotFound
	case errors.Is(err, plant.ErrCapacityExceeded):
		status = http.StatusTooManyRequests
	case errors.Is(err, plant.ErrInvalidConfig):
		status = http.StatusBadRequest
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// decodeStrict decodes a JSON body, rejecting unknown fields.
func decodeStrict(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var cfg plant.StartConfig
	if err := decodeStrict(r, &cfg); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	id, err := s.mgr.Start(cfg)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.metrics.simulationsStarted.WithLabelValues(string(cfg.Kind)).Inc()

	info, err := s.mgr.Info(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, info)
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.mgr.List())
}

// snapshotResponse pairs lifecycle info with the physics snapshot.
type snapshotResponse struct {
	Info     plant.SimulationInfo `json:"info"`
	Snapshot *plant.Snapshot      `json:"snapshot"`
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	info, err := s.mgr.Info(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	snap, err := s.mgr.Snapshot(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snapshotResponse{Info: info, Snapshot: snap})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if err := s.mgr.Stop(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	s.metrics.simulationsStopped.Inc()
	w.WriteHeader(http.StatusNoContent)
}

// controlRequest is the body of POST /simulations/{id}/control. Unknown
// setpoint fields fail the decode, so typos surface instead of silently
// doing nothing.
type controlRequest struct {
	Vessel    string          `json:"vessel"`
	Setpoints plant.Setpoints `json:"setpoints"`
}

func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	var req controlRequest
	if err := decodeStrict(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if err := s.mgr.ApplyControl(chi.URLParam(r, "id"), req.Vessel, req.Setpoints); err != nil {
		s.writeError(w, err)
		return
	}
	s.metrics.controlsApplied.Inc()
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if err := s.mgr.Pause(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "paused"})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	if err := s.mgr.Resume(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "running"})
}

// handleStream serves snapshots as server-sent events at a fixed cadence
// until the simulation reaches a terminal state or the client disconnects.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.mgr.Info(id); err != nil {
		s.writeError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeJSON(w, http.StatusInternalServerError,
			map[string]string{"error": "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	s.metrics.streamClients.Inc()
	defer s.metrics.streamClients.Dec()

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	enc := json.NewEncoder(w)
	for {
		info, err := s.mgr.Info(id)
		if err != nil {
			return // stopped and removed
		}
		snap, err := s.mgr.Snapshot(id)
		if err != nil {
			return
		}

		if _, err := w.Write([]byte("data: ")); err != nil {
			return
		}
		if err := enc.Encode(snapshotResponse{Info: info, Snapshot: snap}); err != nil {
			return
		}
		if _, err := w.Write([]byte("\n")); err != nil {
			return
		}
		flusher.Flush()

		if info.Status == plant.StatusCompleted || info.Status == plant.StatusFailed {
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) handleInjectFault(w http.ResponseWriter, r *http.Request) {
	var spec plant.FaultSpec
	if err := decodeStrict(r, &spec); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	err := s.mgr.InjectSensorFault(
		chi.URLParam(r, "id"), chi.URLParam(r, "vessel"), chi.URLParam(r, "variable"), spec)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "injected"})
}

func (s *Server) handleClearFault(w http.ResponseWriter, r *http.Request) {
	err := s.mgr.ClearSensorFault(
		chi.URLParam(r, "id"), chi.URLParam(r, "vessel"), chi.URLParam(r, "variable"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleRecalibrate(w http.ResponseWriter, r *http.Request) {
	err := s.mgr.ResetSensorDrift(
		chi.URLParam(r, "id"), chi.URLParam(r, "vessel"), chi.URLParam(r, "variable"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "recalibrated"})
}

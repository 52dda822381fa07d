// Package api exposes the dedupe engine over HTTP: start a job, poll its
// status, cancel it. Jobs run asynchronously; every response beyond the
// initial accept is a progress snapshot.
package api

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/adamcutting/tidy-data-pal-sub001/internal/engine"
	"github.com/adamcutting/tidy-data-pal-sub001/internal/job"
	"github.com/adamcutting/tidy-data-pal-sub001/internal/types"
)

// Handler serves the dedupe endpoints. Local jobs run in-process on the
// engine; delegated jobs go through the matching service when one is wired.
type Handler struct {
	eng *engine.Engine
	svc job.MatchingService // nil disables delegated mode
	log *zap.Logger

	mu   sync.Mutex
	jobs map[string]job.Handle
}

// NewHandler builds the endpoint set. svc may be nil.
func NewHandler(eng *engine.Engine, svc job.MatchingService, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{eng: eng, svc: svc, log: log, jobs: make(map[string]job.Handle)}
}

// Register mounts the routes on a router group.
func (h *Handler) Register(g *gin.RouterGroup) {
	g.POST("/dedupe", h.StartDedupe)
	g.GET("/jobs/:id/status", h.GetJobStatus)
	g.POST("/jobs/:id/cancel", h.CancelJob)
}

// StartDedupeRequest is the wire shape for starting a job.
type StartDedupeRequest struct {
	Records []types.Record       `json:"records" binding:"required"`
	Columns []types.MappedColumn `json:"columns" binding:"required"`
	Config  types.DedupeConfig   `json:"config"`
	// UseRemoteService delegates the run to the external matching service.
	UseRemoteService bool `json:"use_remote_service"`
}

// StartDedupeResponse acknowledges an accepted job.
type StartDedupeResponse struct {
	JobID  string       `json:"job_id"`
	Status types.Status `json:"status"`
	Mode   string       `json:"mode"`
}

// StartDedupe accepts a dataset and starts a job. Malformed configurations
// are rejected here with 400; everything after acceptance is reported
// through status snapshots only.
func (h *Handler) StartDedupe(c *gin.Context) {
	var body StartDedupeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req := types.DedupeRequest{Records: body.Records, Columns: body.Columns, Config: body.Config}

	var (
		handle job.Handle
		mode   string
		err    error
	)
	if body.UseRemoteService {
		if h.svc == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "remote matching service not configured"})
			return
		}
		mode = "delegated"
		handle, err = job.StartDelegated(c.Request.Context(), h.svc, h.log, req, job.DelegatedOptions{})
	} else {
		mode = "local"
		handle, err = job.StartLocal(h.eng, h.log, req)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.mu.Lock()
	h.jobs[handle.ID()] = handle
	h.mu.Unlock()
	h.log.Info("job accepted", zap.String("jobID", handle.ID()), zap.String("mode", mode), zap.Int("records", len(body.Records)))

	c.JSON(http.StatusAccepted, StartDedupeResponse{JobID: handle.ID(), Status: handle.Status().Status, Mode: mode})
}

// GetJobStatus returns the latest progress snapshot for a job.
func (h *Handler) GetJobStatus(c *gin.Context) {
	handle, ok := h.lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, handle.Status())
}

// CancelJob requests cooperative cancellation. The response acknowledges the
// request only; callers keep polling until a terminal status appears, which
// may still be completed if the job finished first.
func (h *Handler) CancelJob(c *gin.Context) {
	handle, ok := h.lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	handle.Cancel()
	c.JSON(http.StatusAccepted, types.CancelAck{Accepted: true, Message: "cancellation requested"})
}

func (h *Handler) lookup(id string) (job.Handle, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	handle, ok := h.jobs[id]
	return handle, ok
}

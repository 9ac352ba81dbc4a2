package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dshills/acra/internal/logging"
	"github.com/dshills/acra/internal/pipeline"
	"github.com/dshills/acra/internal/submission"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// DefaultListLimit caps GET /api/submissions when no limit is configured.
const DefaultListLimit = 50

// Submitter accepts new submissions. *pipeline.Dispatcher satisfies it.
type Submitter interface {
	Submit(ctx context.Context, code string, language *string) (submission.Submission, error)
}

// Reprocessor drains pending submissions. *pipeline.Runner satisfies it.
type Reprocessor interface {
	ReprocessPending(ctx context.Context) (pipeline.Summary, error)
}

// API wraps the submission pipeline and provides HTTP handlers.
type API struct {
	store       submission.Store
	submitter   Submitter
	reprocessor Reprocessor
	listLimit   int
	log         *slog.Logger
	upgrader    websocket.Upgrader
	frameLimit  int64
}

// APIOption customizes an API.
type APIOption func(*API)

// WithAPILogger sets the logger used for handler errors.
func WithAPILogger(l *slog.Logger) APIOption {
	return func(a *API) {
		if l != nil {
			a.log = l
		}
	}
}

// WithListLimit caps the submission list. Non-positive values keep the default.
func WithListLimit(n int) APIOption {
	return func(a *API) {
		if n > 0 {
			a.listLimit = n
		}
	}
}

// WithAllowedOrigins restricts which browser origins may open the live
// channel. Requests without an Origin header are always accepted.
func WithAllowedOrigins(origins []string) APIOption {
	return func(a *API) {
		a.upgrader.CheckOrigin = originChecker(origins)
	}
}

// WithLiveFrameLimit sets the largest live-review message that is reviewed.
// Larger messages get an error reply. Non-positive values keep the default.
func WithLiveFrameLimit(n int64) APIOption {
	return func(a *API) {
		if n > 0 {
			a.frameLimit = n
		}
	}
}

// NewAPI creates a new API instance.
func NewAPI(store submission.Store, submitter Submitter, reprocessor Reprocessor, opts ...APIOption) *API {
	a := &API{
		store:       store,
		submitter:   submitter,
		reprocessor: reprocessor,
		listLimit:   DefaultListLimit,
		log:         logging.Discard(),
		frameLimit:  maxLiveFrame,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// SetupRoutes configures all API routes.
func (a *API) SetupRoutes(router *gin.Engine) {
	router.GET("/", a.root)
	router.GET("/health", a.healthCheck)

	subs := router.Group("/api/submissions")
	subs.POST("", a.createSubmission)
	subs.GET("", a.listSubmissions)
	subs.POST("/reprocess-pending", a.reprocessPending)
	subs.GET("/:id", a.getSubmission)

	router.GET("/ws/review", a.liveReview)
}

// SubmissionRequest is the payload for POST /api/submissions.
type SubmissionRequest struct {
	Code     *string `json:"code"`
	Language *string `json:"language"`
}

func (a *API) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "ACRA Backend is running!"})
}

func (a *API) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// createSubmission handles POST /api/submissions
func (a *API) createSubmission(c *gin.Context) {
	var req SubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// Empty code is a valid submission; only a missing field is rejected.
	if req.Code == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}

	sub, err := a.submitter.Submit(c.Request.Context(), *req.Code, req.Language)
	if err != nil {
		if sub.ID == 0 {
			a.log.Error("creating submission", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create submission"})
			return
		}
		a.log.Warn("returning submission without re-read", "submission_id", sub.ID, "error", err)
	}
	c.JSON(http.StatusOK, sub)
}

// listSubmissions handles GET /api/submissions
func (a *API) listSubmissions(c *gin.Context) {
	subs, err := a.store.List(c.Request.Context(), a.listLimit)
	if err != nil {
		a.log.Error("listing submissions", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list submissions"})
		return
	}
	if subs == nil {
		subs = []submission.Submission{}
	}
	c.JSON(http.StatusOK, subs)
}

// getSubmission handles GET /api/submissions/:id
func (a *API) getSubmission(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid submission id"})
		return
	}

	sub, err := a.store.Get(c.Request.Context(), id)
	if errors.Is(err, submission.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "submission not found"})
		return
	}
	if err != nil {
		a.log.Error("reading submission", "submission_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not read submission"})
		return
	}
	c.JSON(http.StatusOK, sub)
}

// reprocessPending handles POST /api/submissions/reprocess-pending
func (a *API) reprocessPending(c *gin.Context) {
	summary, err := a.reprocessor.ReprocessPending(c.Request.Context())
	if err != nil {
		a.log.Error("reprocessing pending submissions", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

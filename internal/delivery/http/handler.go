package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopmate/backend/internal/domain"
	"github.com/shopmate/backend/internal/usecase"
	"github.com/sirupsen/logrus"
)

// SessionHeader carries the price index session between calls.
const SessionHeader = "X-Session-ID"

// Services bundles the use cases the handlers drive.
type Services struct {
	Catalog   *domain.Catalog
	Search    *usecase.SearchService
	Optimizer *usecase.TripOptimizer
	Resolver  *usecase.ItemResolver
	Planner   *usecase.PlanService
	Sessions  domain.SessionRepository
	Metrics   domain.SearchMetrics
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	catalog   *domain.Catalog
	search    *usecase.SearchService
	optimizer *usecase.TripOptimizer
	resolver  *usecase.ItemResolver
	planner   *usecase.PlanService
	sessions  domain.SessionRepository
	metrics   domain.SearchMetrics
	log       logrus.FieldLogger
}

// NewHandler creates a new HTTP handler
func NewHandler(s Services, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		catalog:   s.Catalog,
		search:    s.Search,
		optimizer: s.Optimizer,
		resolver:  s.Resolver,
		planner:   s.Planner,
		sessions:  s.Sessions,
		metrics:   s.Metrics,
		log:       log,
	}
}

type searchRequest struct {
	Query    string   `json:"query"`
	StoreIDs []string `json:"storeIds"`
}

type optimizeRequest struct {
	Items              []domain.PlanItem    `json:"items"`
	PriceIndexSnapshot domain.PriceSnapshot `json:"priceIndexSnapshot"`
	StoreIDs           []string             `json:"storeIds"`
}

type resolveRequest struct {
	Items    []usecase.GenericItem `json:"items"`
	StoreIDs []string              `json:"storeIds"`
}

type planRequest struct {
	Items    []domain.ListItem `json:"items"`
	StoreIDs []string          `json:"storeIds"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "shopmate-backend",
		"version": "1.0.0",
	})
}

// ListStores returns the static store catalog
func (h *Handler) ListStores(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Stores())
}

// Search handles multi-retailer product search. Quotes are written into the
// caller's session, which is created when the request carries none.
func (h *Handler) Search(c *gin.Context) {
	var req searchRequest
	if !h.bind(c, &req) {
		return
	}

	storeIDs, err := h.catalog.ParseStoreIDs("storeIds", req.StoreIDs)
	if err != nil {
		h.respondError(c, err)
		return
	}

	_, index, err := h.session(c, true)
	if err != nil {
		h.respondError(c, err)
		return
	}

	results, err := h.search.Search(c.Request.Context(), req.Query, storeIDs, index)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

// Optimize computes a trip plan from a supplied price snapshot, or from the
// session index when no snapshot is sent.
func (h *Handler) Optimize(c *gin.Context) {
	var req optimizeRequest
	if !h.bind(c, &req) {
		return
	}

	storeIDs, err := h.catalog.ParseStoreIDs("storeIds", req.StoreIDs)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var index *domain.PriceIndex
	if req.PriceIndexSnapshot != nil {
		index, err = domain.PriceIndexFromSnapshot(h.catalog, req.PriceIndexSnapshot)
	} else if c.GetHeader(SessionHeader) != "" {
		_, index, err = h.session(c, false)
	} else {
		err = domain.NewValidationError("priceIndexSnapshot", "required when no %s header is sent", SessionHeader)
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	plan, err := h.optimizer.Optimize(req.Items, index, storeIDs)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, plan)
}

// Resolve binds generic list item names to concrete products
func (h *Handler) Resolve(c *gin.Context) {
	var req resolveRequest
	if !h.bind(c, &req) {
		return
	}

	storeIDs, err := h.catalog.ParseStoreIDs("storeIds", req.StoreIDs)
	if err != nil {
		h.respondError(c, err)
		return
	}

	_, index, err := h.session(c, true)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resolutions, err := h.resolver.Resolve(c.Request.Context(), req.Items, storeIDs, index)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resolutions)
}

// PlanTrip resolves and optimizes a whole shopping list in one call
func (h *Handler) PlanTrip(c *gin.Context) {
	var req planRequest
	if !h.bind(c, &req) {
		return
	}

	storeIDs, err := h.catalog.ParseStoreIDs("storeIds", req.StoreIDs)
	if err != nil {
		h.respondError(c, err)
		return
	}

	_, index, err := h.session(c, true)
	if err != nil {
		h.respondError(c, err)
		return
	}

	result, err := h.planner.Plan(c.Request.Context(), req.Items, storeIDs, index)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// SessionPrices returns the session's price index snapshot
func (h *Handler) SessionPrices(c *gin.Context) {
	index, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, index.Snapshot())
}

// DeleteSession drops a session and its quotes
func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.sessions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Metrics returns per-retailer search outcome totals
func (h *Handler) Metrics(c *gin.Context) {
	stats, err := h.metrics.Summary(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	if stats == nil {
		stats = []domain.RetailerStats{}
	}
	c.JSON(http.StatusOK, stats)
}

// session returns the session named by the request header. With create, a
// missing or expired session is replaced by a new one. The session id is
// always echoed back in the response header.
func (h *Handler) session(c *gin.Context, create bool) (string, *domain.PriceIndex, error) {
	ctx := c.Request.Context()

	if id := c.GetHeader(SessionHeader); id != "" {
		index, err := h.sessions.Get(ctx, id)
		if err == nil {
			c.Header(SessionHeader, id)
			return id, index, nil
		}
		if !errors.Is(err, domain.ErrSessionNotFound) || !create {
			return "", nil, err
		}
		h.log.WithField("session", id).Info("Session expired, starting a new one")
	}

	if !create {
		return "", nil, domain.ErrSessionNotFound
	}

	id, index, err := h.sessions.Create(ctx)
	if err != nil {
		return "", nil, err
	}
	c.Header(SessionHeader, id)
	return id, index, nil
}

func (h *Handler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.respondError(c, domain.NewValidationError("body", "malformed JSON: %v", err))
		return false
	}
	return true
}

// respondError maps domain errors onto HTTP status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	var (
		verr *domain.ValidationError
		uerr *domain.UnresolvableError
	)

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "field": verr.Field})
	case errors.As(err, &uerr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "unresolvable", "reason": uerr.Reason})
	case errors.Is(err, domain.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "request timed out"})
	default:
		h.log.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

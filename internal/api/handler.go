package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lab-inventory-backend/internal/model"
	"lab-inventory-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store           store.Store
	logger          *zap.Logger
	loc             *time.Location
	historyMaxLimit int
	now             func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, loc *time.Location, historyMaxLimit int, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Handler{
		store:           s,
		logger:          logger,
		loc:             loc,
		historyMaxLimit: historyMaxLimit,
		now:             time.Now,
	}
}

// labQuery reads the lab query parameter. An empty result selects every lab.
func labQuery(c *gin.Context) model.Lab {
	lab, ok := model.ParseLabFilter(c.Query("lab"))
	if !ok {
		return ""
	}
	return lab
}

// intQuery reads a non-negative integer query parameter, returning def when it is absent.
func intQuery(c *gin.Context, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid '" + key + "' parameter"})
		return 0, false
	}
	return n, true
}

// timeQuery reads an RFC 3339 timestamp query parameter, returning the zero time when it is absent.
func timeQuery(c *gin.Context, key string) (time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid '" + key + "' parameter"})
		return time.Time{}, false
	}
	return t, true
}

func (h *Handler) internalError(c *gin.Context, msg string, err error) {
	h.logger.Error(msg, zap.Error(err), zap.String("path", c.FullPath()))
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": msg})
}

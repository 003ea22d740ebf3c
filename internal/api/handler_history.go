package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lab-inventory-backend/internal/metrics"
	"lab-inventory-backend/internal/model"
	"lab-inventory-backend/internal/store"
	"lab-inventory-backend/internal/wire"
)

const defaultHistoryLimit = 500

// ListHistory handles GET /api/history?lab=&limit=&since=&until=&before=&beforeId=.
// Events are returned newest first. before and beforeId continue from the last event of a previous page.
func (h *Handler) ListHistory(c *gin.Context) {
	limit, ok := intQuery(c, "limit", defaultHistoryLimit)
	if !ok {
		return
	}
	if limit == 0 || (h.historyMaxLimit > 0 && limit > h.historyMaxLimit) {
		limit = h.historyMaxLimit
	}

	filter := store.HistoryFilter{Lab: labQuery(c), Limit: limit, BeforeID: c.Query("beforeId")}
	for key, dst := range map[string]*time.Time{"since": &filter.Since, "until": &filter.Until, "before": &filter.Before} {
		if *dst, ok = timeQuery(c, key); !ok {
			return
		}
	}

	events, err := h.store.ListHistory(c.Request.Context(), filter)
	if err != nil {
		h.internalError(c, "Failed to retrieve history", err)
		return
	}
	if events == nil {
		events = []model.HistoryEvent{}
	}
	c.JSON(http.StatusOK, events)
}

// RecordHistory handles POST /api/history. The client timestamp is kept.
func (h *Handler) RecordHistory(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	ev := wire.HistoryEvent(body)
	if ev.Action == "" || ev.EntityType == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "action and entityType are required"})
		return
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = h.now().UTC()
	}

	if err := h.store.RecordHistory(c.Request.Context(), &ev); err != nil {
		h.internalError(c, "Failed to record history event", err)
		return
	}
	metrics.HistoryEventsRecorded.WithLabelValues(ev.Action).Inc()
	c.JSON(http.StatusOK, gin.H{"ok": true, "id": ev.ID})
}

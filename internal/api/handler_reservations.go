package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lab-inventory-backend/internal/collision"
	"lab-inventory-backend/internal/metrics"
	"lab-inventory-backend/internal/model"
	"lab-inventory-backend/internal/store"
	"lab-inventory-backend/internal/wire"
)

// ListReservations handles GET /api/reservations?lab=.
func (h *Handler) ListReservations(c *gin.Context) {
	rs, err := h.store.ListReservations(c.Request.Context(), labQuery(c))
	if err != nil {
		h.internalError(c, "Failed to retrieve reservations", err)
		return
	}
	if rs == nil {
		rs = []model.Reservation{}
	}
	c.JSON(http.StatusOK, rs)
}

// CreateReservation handles POST /api/reservations. Overlapping bookings are refused with 409; the
// check and the insert are separate statements.
func (h *Handler) CreateReservation(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	r := wire.Reservation(body)
	r.ID = ""
	if r.Lab == model.LabUnknown {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown lab"})
		return
	}
	if _, err := time.Parse(model.DateLayout, r.DateKey()); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	ctx := c.Request.Context()
	existing, err := h.store.ListReservationsOn(ctx, r.Lab, r.DateKey())
	if err != nil {
		h.internalError(c, "Failed to check reservations", err)
		return
	}
	if err := collision.Check(r, existing); err != nil {
		metrics.ReservationCollisions.WithLabelValues(string(r.Lab)).Inc()
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.CreateReservation(ctx, &r); err != nil {
		h.internalError(c, "Failed to create reservation", err)
		return
	}
	metrics.ReservationsCreated.WithLabelValues(string(r.Lab)).Inc()
	c.JSON(http.StatusCreated, r)
}

// DeleteReservation handles DELETE /api/reservations/:id.
func (h *Handler) DeleteReservation(c *gin.Context) {
	err := h.store.DeleteReservation(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "reservation not found"})
		return
	}
	if err != nil {
		h.internalError(c, "Failed to delete reservation", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

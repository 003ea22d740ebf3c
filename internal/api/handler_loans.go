package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"lab-inventory-backend/internal/metrics"
	"lab-inventory-backend/internal/model"
	"lab-inventory-backend/internal/store"
)

type loanRequest struct {
	Lab      string `json:"lab"`
	Item     string `json:"item"`
	Borrower string `json:"borrower"`
	Room     string `json:"room"`
	DueDate  string `json:"dueDate"`
	Notes    string `json:"notes"`
}

// ListLoans handles GET /api/loans?lab=.
func (h *Handler) ListLoans(c *gin.Context) {
	loans, err := h.store.ListLoans(c.Request.Context(), labQuery(c))
	if err != nil {
		h.internalError(c, "Failed to retrieve loans", err)
		return
	}
	if loans == nil {
		loans = []model.Loan{}
	}
	c.JSON(http.StatusOK, loans)
}

// CreateLoan handles POST /api/loans.
func (h *Handler) CreateLoan(c *gin.Context) {
	var req loanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	loan := model.Loan{
		Lab:      model.NormalizeLab(req.Lab),
		Item:     strings.TrimSpace(req.Item),
		Borrower: strings.TrimSpace(req.Borrower),
		Room:     strings.TrimSpace(req.Room),
		DueDate:  strings.TrimSpace(req.DueDate),
		Notes:    strings.TrimSpace(req.Notes),
	}
	if loan.Item == "" || loan.Borrower == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "item and borrower are required"})
		return
	}

	if err := h.store.CreateLoan(c.Request.Context(), &loan); err != nil {
		h.internalError(c, "Failed to create loan", err)
		return
	}
	metrics.LoansChanged.WithLabelValues(string(loan.Lab), string(loan.Status)).Inc()
	c.JSON(http.StatusCreated, loan)
}

// ReturnLoan handles POST /api/loans/:id/return.
func (h *Handler) ReturnLoan(c *gin.Context) {
	loan, err := h.store.ReturnLoan(c.Request.Context(), c.Param("id"), h.now().UTC())
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "loan not found"})
		return
	case errors.Is(err, store.ErrAlreadyReturned):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "loan already returned"})
		return
	case err != nil:
		h.internalError(c, "Failed to return loan", err)
		return
	}
	metrics.LoansChanged.WithLabelValues(string(loan.Lab), string(loan.Status)).Inc()
	c.JSON(http.StatusOK, loan)
}

package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"lab-inventory-backend/internal/report"
	"lab-inventory-backend/internal/store"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// window aggregates every stored event inside the lab/from/to query.
func (h *Handler) window(c *gin.Context) (report.Window, bool) {
	filter, err := report.NewFilter(c.Query("lab"), c.Query("from"), c.Query("to"), h.loc)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return report.Window{}, false
	}

	events, err := h.store.ListHistory(c.Request.Context(), store.HistoryFilter{Lab: filter.Lab, Since: filter.From, Until: filter.To})
	if err != nil {
		h.internalError(c, "Failed to retrieve history", err)
		return report.Window{}, false
	}
	return report.Aggregate(events, filter), true
}

// GetReport handles GET /api/reports?lab=&from=&to=.
func (h *Handler) GetReport(c *gin.Context) {
	w, ok := h.window(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, w)
}

// ExportReport handles GET /api/reports/export?lab=&from=&to= with an xlsx body.
func (h *Handler) ExportReport(c *gin.Context) {
	w, ok := h.window(c)
	if !ok {
		return
	}
	data, err := report.Workbook(w)
	if err != nil {
		h.internalError(c, "Failed to build report workbook", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exportName(w)))
	c.Data(http.StatusOK, xlsxContentType, data)
}

func exportName(w report.Window) string {
	name := "report-" + w.Lab
	if w.From != "" {
		name += "-" + w.From
	}
	if w.To != "" {
		name += "-" + w.To
	}
	return name + ".xlsx"
}

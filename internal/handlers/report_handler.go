package handlers

import (
	"net/http"
	"strconv"

	"go-coffee-pos/internal/auth"
	"go-coffee-pos/internal/middleware"

	"github.com/gin-gonic/gin"
)

// --- GET: /api/reports/summary ---
// Revenue, order count and average for ?from&to (default today).
func (h *Handler) SalesSummary(c *gin.Context) {
	branchID, err := branchScope(c)
	if err != nil {
		respondError(c, err)
		return
	}
	p, err := period(c, h.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	sum, err := h.Reports.SalesSummary(c.Request.Context(), branchID, p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// --- GET: /api/reports/sales ---
// Recent transactions, newest first, ?page=&size=.
func (h *Handler) SalesList(c *gin.Context) {
	branchID, err := branchScope(c)
	if err != nil {
		respondError(c, err)
		return
	}
	p, err := period(c, h.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	out, err := h.Reports.SalesPage(c.Request.Context(), branchID, p, page, size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// --- GET: /api/reports/products ---
func (h *Handler) ProductReport(c *gin.Context) {
	branchID, err := branchScope(c)
	if err != nil {
		respondError(c, err)
		return
	}
	p, err := period(c, h.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	out, err := h.Reports.ProductReport(c.Request.Context(), branchID, p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// --- GET: /api/reports/stock ---
func (h *Handler) StockReport(c *gin.Context) {
	branchID, err := branchScope(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if branchID == 0 {
		respondError(c, errNoBranch)
		return
	}
	out, err := h.Reports.StockReport(c.Request.Context(), branchID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// --- GET: /api/dashboard ---
func (h *Handler) Dashboard(c *gin.Context) {
	branchID, err := branchScope(c)
	if err != nil {
		respondError(c, err)
		return
	}
	out, err := h.Reports.Dashboard(c.Request.Context(), branchID, h.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// --- GET: /ws/sales ---
// Streams completed sales. Admins get every branch unless they pass
// ?branch_id=; managers get their own branch.
func (h *Handler) LiveSales(c *gin.Context) {
	p := middleware.CurrentPrincipal(c)
	branchID := p.BranchID
	if p.Role == auth.RoleAdmin {
		branchID = 0
		if s := c.Query("branch_id"); s != "" {
			id, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid branch_id"})
				return
			}
			branchID = uint(id)
		}
	}
	h.Hub.Serve(c.Writer, c.Request, branchID)
}

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"openpo/internal/store"
)

// StatusResponse 系统状态
type StatusResponse struct {
	Transport     string     `json:"transport"`
	OrdersFile    string     `json:"ordersFile"`
	DirectoryFile string     `json:"directoryFile"`
	AttachmentDir string     `json:"attachmentDir"`
	LastRun       *store.Run `json:"lastRun,omitempty"`
}

// GetStatus 系统状态与最近一次运行
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	resp := StatusResponse{
		Transport:     h.cfg.Mail.Transport,
		OrdersFile:    h.cfg.Input.OrdersPath,
		DirectoryFile: h.cfg.Input.DirectoryPath,
		AttachmentDir: h.cfg.Attachments.Dir,
	}
	runs, err := h.store.ListRuns(1)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(runs) > 0 {
		resp.LastRun = &runs[0]
	}
	c.JSON(http.StatusOK, resp)
}

// ListRuns 运行记录列表
// GET /api/runs?limit=20
func (h *Handler) ListRuns(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	runs, err := h.store.ListRuns(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": runs, "total": len(runs)})
}

// GetRun 单次运行及其发送记录
// GET /api/runs/:id
func (h *Handler) GetRun(c *gin.Context) {
	id := c.Param("id")
	run, err := h.store.GetRun(id)
	if errors.Is(err, store.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	dispatches, err := h.store.ListDispatches(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	inputs, err := h.store.ListInputs(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": run, "inputs": inputs, "dispatches": dispatches})
}

// ListSuppliers 按供应商汇总的发送历史
// GET /api/suppliers
func (h *Handler) ListSuppliers(c *gin.Context) {
	stats, err := h.store.ListSupplierStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": stats, "total": len(stats)})
}

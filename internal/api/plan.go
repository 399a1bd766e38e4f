package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetPlan 按当前输入文件生成发送计划
// GET /api/plan?only=Acme%20Inc&only=...
func (h *Handler) GetPlan(c *gin.Context) {
	if h.planner == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "planner not configured"})
		return
	}

	plan, issues, err := h.planner.Preview(c.QueryArray("only"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"plan": plan, "issues": issues})
}

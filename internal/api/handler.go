package api

import (
	"github.com/gin-gonic/gin"

	"openpo/internal/config"
	"openpo/internal/model"
	"openpo/internal/store"
)

// Planner 生成发送计划（不发送）
type Planner interface {
	Preview(only []string) (*model.Plan, []model.Issue, error)
}

// Handler 运行台账查询 API
type Handler struct {
	cfg     *config.AppConfig
	store   *store.Store
	planner Planner
}

// NewHandler 创建 API 处理器
func NewHandler(cfg *config.AppConfig, store *store.Store, planner Planner) *Handler {
	return &Handler{cfg: cfg, store: store, planner: planner}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/status", h.GetStatus)
	router.GET("/runs", h.ListRuns)
	router.GET("/runs/:id", h.GetRun)
	router.GET("/suppliers", h.ListSuppliers)
	router.GET("/plan", h.GetPlan)
}

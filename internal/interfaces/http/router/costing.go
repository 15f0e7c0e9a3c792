package router

import (
	"github.com/erp/costing/internal/interfaces/http/handler"
)

// NewCostingRoutes groups the process cost and process stage endpoints
func NewCostingRoutes(costs *handler.ProcessCostHandler, stages *handler.ProcessStageHandler) *DomainGroup {
	costing := NewDomainGroup("costing", "")

	orders := costing.Group("manufacturing-orders", "/manufacturing-orders/:orderId")
	orders.GET("/process-cost", costs.Calculate)
	orders.POST("/process-cost/variance", costs.Variance)
	orders.GET("/stages", stages.List)
	orders.POST("/stages", stages.Create)
	orders.GET("/stages/summary", stages.Summary)

	stage := costing.Group("process-stages", "/process-stages/:id")
	stage.GET("", stages.Get)
	stage.POST("/start", stages.Start)
	stage.POST("/complete", stages.Complete)
	stage.POST("/hold", stages.Hold)
	stage.POST("/resume", stages.Resume)
	stage.PUT("/progress", stages.RecordProgress)
	stage.PUT("/units-started", stages.SetUnitsStarted)
	stage.POST("/costs", stages.AddCost)

	return costing
}

// NewSystemRoutes groups the health and system information endpoints
func NewSystemRoutes(system *handler.SystemHandler) *DomainGroup {
	sys := NewDomainGroup("system", "")
	sys.GET("/health", system.Health)
	sys.GET("/system/ping", system.Ping)
	sys.GET("/system/info", system.GetSystemInfo)
	return sys
}

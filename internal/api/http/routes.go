package http

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all HTTP routes for the production service
func SetupRoutes(router *gin.Engine, handlers *Handlers) {
	v1 := router.Group("/api/v1")
	{
		v1.POST("/operators/authenticate", handlers.Authenticate())

		jobs := v1.Group("/jobs")
		{
			jobs.POST("", handlers.CreateJob())
			jobs.GET("", handlers.ListJobs())
			jobs.GET("/:jobId", handlers.GetJob())
			jobs.GET("/:jobId/line-items", handlers.GetLineItems())

			jobs.POST("/:jobId/test-print", handlers.RequestTestPrint())
			jobs.POST("/:jobId/start", handlers.StartProduction())
			jobs.POST("/:jobId/pause", handlers.Pause())
			jobs.POST("/:jobId/resume", handlers.Resume())
			jobs.POST("/:jobId/complete", handlers.Complete())
			jobs.POST("/:jobId/hold", handlers.Hold())
			jobs.POST("/:jobId/release", handlers.ReleaseHold())

			jobs.POST("/:jobId/qc/request", handlers.RequestQC())
			jobs.POST("/:jobId/qc/inspections", handlers.RecordInspection())
			jobs.GET("/:jobId/qc/inspections", handlers.ListInspections())

			jobs.GET("/:jobId/shipment/estimate", handlers.EstimatePacking())
			jobs.POST("/:jobId/shipment/confirm", handlers.ConfirmShipment())
		}

		testPrints := v1.Group("/test-prints")
		{
			testPrints.GET("", handlers.ListTestPrints())
			testPrints.POST("/:approvalId/decision", handlers.DecideTestPrint())
		}
	}
}

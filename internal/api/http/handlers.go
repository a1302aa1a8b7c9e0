package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/decoflow/production-service/internal/application"
	"github.com/decoflow/production-service/internal/domain"
	apperrors "github.com/decoflow/production-service/pkg/errors"
	"github.com/decoflow/production-service/pkg/logging"
	"github.com/decoflow/production-service/pkg/middleware"
)

// Handlers contains HTTP handlers for the production endpoints
type Handlers struct {
	services *application.Services
	logger   *logging.Logger
}

// NewHandlers creates new HTTP handlers
func NewHandlers(services *application.Services, logger *logging.Logger) *Handlers {
	return &Handlers{
		services: services,
		logger:   logger,
	}
}

// bindOptional binds a JSON body only when one was sent
func (h *Handlers) bindOptional(c *gin.Context, obj any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if appErr := middleware.BindAndValidate(c, obj); appErr != nil {
		middleware.NewErrorResponder(c, h.logger.Logger).RespondWithAppError(appErr)
		return false
	}
	return true
}

// ifMatchVersion reads the job version the client acted on from If-Match.
// The header is optional; a value that is not a version is a 400.
func (h *Handlers) ifMatchVersion(c *gin.Context) (*int64, bool) {
	raw := strings.Trim(strings.TrimPrefix(strings.TrimSpace(c.GetHeader("If-Match")), "W/"), `"`)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 1 {
		middleware.NewErrorResponder(c, h.logger.Logger).
			RespondWithAppError(apperrors.ErrValidation("If-Match must carry a job version"))
		return nil, false
	}
	return &v, true
}

// writeJob responds with job and its version as ETag
func writeJob(c *gin.Context, status int, job *application.JobDTO) {
	c.Header("ETag", strconv.Quote(strconv.FormatInt(job.Version, 10)))
	c.JSON(status, job)
}

// Authenticate handles POST /api/v1/operators/authenticate
func (h *Handlers) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, h.logger.Logger)

		var req AuthenticateRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		session, err := h.services.Production.Authenticate(c.Request.Context(), application.AuthenticateCommand{
			PIN:       req.PIN,
			MachineID: req.MachineID,
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, application.ToOperatorSessionDTO(session))
	}
}

// CreateJob handles POST /api/v1/jobs
func (h *Handlers) CreateJob() gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, h.logger.Logger)

		var req CreateJobRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		job, err := h.services.Jobs.CreateJob(c.Request.Context(), req.toCommand())
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusCreated, job)
	}
}

// ListJobs handles GET /api/v1/jobs
func (h *Handlers) ListJobs() gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, h.logger.Logger)

		var req ListJobsRequest
		if appErr := middleware.BindQuery(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		statuses := make([]domain.Status, 0, len(req.Status))
		for _, s := range req.Status {
			statuses = append(statuses, domain.Status(s))
		}

		jobs, err := h.services.Jobs.ListJobs(c.Request.Context(), application.ListJobsQuery{
			Statuses:   statuses,
			Department: domain.Department(req.Department),
			Priority:   req.Priority,
			OperatorID: req.OperatorID,
			Limit:      req.Limit,
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"jobs": jobs, "count": len(jobs)})
	}
}

// GetJob handles GET /api/v1/jobs/:jobId
func (h *Handlers) GetJob() gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, h.logger.Logger)

		job, err := h.services.Jobs.GetJob(c.Request.Context(), c.Param("jobId"))
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		writeJob(c, http.StatusOK, job)
	}
}

// GetLineItems handles GET /api/v1/jobs/:jobId/line-items
func (h *Handlers) GetLineItems() gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, h.logger.Logger)

		items, err := h.services.Jobs.GetLineItems(c.Request.Context(), c.Param("jobId"))
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"lineItems": items})
	}
}

// operatorSession authenticates the operator named in an action request
func (h *Handlers) operatorSession(c *gin.Context, req OperatorActionRequest) (*domain.OperatorSession, bool) {
	session, err := h.services.Production.Authenticate(c.Request.Context(), application.AuthenticateCommand{
		PIN:       req.PIN,
		MachineID: req.MachineID,
	})
	if err != nil {
		middleware.NewErrorResponder(c, h.logger.Logger).RespondWithError(err)
		return nil, false
	}
	return session, true
}

func (r OperatorActionRequest) photo() *application.Photo {
	if r.Photo == nil {
		return nil
	}
	p := r.Photo.toPhoto()
	return &p
}

// RequestTestPrint handles POST /api/v1/jobs/:jobId/test-print
func (h *Handlers) RequestTestPrint() gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, h.logger.Logger)
		jobID := c.Param("jobId")

		var req OperatorActionRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		middleware.AddSpanAttributes(c, map[string]any{
			"job.id":     jobID,
			"machine.id": req.MachineID,
		})

		session, ok := h.operatorSession(c, req)
		if !ok {
			return
		}

		result, err := h.services.Production.RequestTestPrint(c.Request.Context(), application.RequestTestPrintCommand{
			JobID:   jobID,
			Session: *session,
			Photo:   req.photo(),
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusCreated, result)
	}
}

// StartProduction handles POST /api/v1/jobs/:jobId/start. A NEW job answers
// 202 with the test print approval it is now waiting for.
func (h *Handlers) StartProduction() gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, h.logger.Logger)
		jobID := c.Param("jobId")

		var req OperatorActionRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		middleware.AddSpanAttributes(c, map[string]any{
			"job.id":     jobID,
			"machine.id": req.MachineID,
		})

		session, ok := h.operatorSession(c, req)
		if !ok {
			return
		}

		result, err := h.services.Production.StartProduction(c.Request.Context(), application.StartProductionCommand{
			JobID:   jobID,
			Session: *session,
			Photo:   req.photo(),
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		status := http.StatusOK
		if result.PendingApproval != nil {
			status = http.StatusAccepted
		}
		c.JSON(status, result)
	}
}

func (h *Handlers) report(pause bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, h.logger.Logger)

		var req ProductionReportRequest
		if !h.bindOptional(c, &req) {
			return
		}
		expected, ok := h.ifMatchVersion(c)
		if !ok {
			return
		}

		cmd := application.ReportProductionCommand{
			JobID:           c.Param("jobId"),
			Actor:           req.Actor,
			Notes:           req.Notes,
			Photos:          toPhotos(req.Photos),
			Spoilage:        toSpoilage(req.Spoilage),
			ExpectedVersion: expected,
		}

		var (
			job *application.JobDTO
			err error
		)
		if pause {
			job, err = h.services.Production.Pause(c.Request.Context(), cmd)
		} else {
			job, err = h.services.Production.Complete(c.Request.Context(), cmd)
		}
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		writeJob(c, http.StatusOK, job)
	}
}

// Pause handles POST /api/v1/jobs/:jobId/pause
func (h *Handlers) Pause() gin.HandlerFunc {
	return h.report(true)
}

// Complete handles POST /api/v1/jobs/:jobId/complete
func (h *Handlers) Complete() gin.HandlerFunc {
	return h.report(false)
}

// Resume handles POST /api/v1/jobs/:jobId/resume
func (h *Handlers) Resume() gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, h.logger.Logger)

		var req ActorRequest
		if !h.bindOptional(c, &req) {
			return
		}

		expected, ok := h.ifMatchVersion(c)
		if !ok {
			return
		}

		job, err := h.services.Production.Resume(c.Request.Context(), application.ResumeCommand{
			JobID:           c.Param("jobId"),
			Actor:           req.Actor,
			ExpectedVersion: expected,
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		writeJob(c, http.StatusOK, job)
	}
}

// Hold handles POST /api/v1/jobs/:jobId/hold
func (h *Handlers) Hold() gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, h.logger.Logger)

		var req HoldRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		job, err := h.services.Production.Hold(c.Request.Context(), application.HoldCommand{
			JobID:    c.Param("jobId"),
			Reason:   domain.HoldReason(req.Reason),
			Notes:    req.Notes,
			Photos:   toPhotos(req.Photos),
			PlacedBy: req.PlacedBy,
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, job)
	}
}

// ReleaseHold handles POST /api/v1/jobs/:jobId/release
func (h *Handlers) ReleaseHold() gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, h.logger.Logger)

		var req ReleaseHoldRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		job, err := h.services.Production.ReleaseHold(c.Request.Context(), application.ReleaseHoldCommand{
			JobID:        c.Param("jobId"),
			OverrideCode: req.OverrideCode,
			Actor:        req.Actor,
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, job)
	}
}

// RequestQC handles POST /api/v1/jobs/:jobId/qc/request
func (h *Handlers) RequestQC() gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, h.logger.Logger)

		var req ActorRequest
		if !h.bindOptional(c, &req) {
			return
		}

		job, err := h.services.Production.RequestQC(c.Request.Context(), application.RequestQCCommand{
			JobID: c.Param("jobId"),
			Actor: req.Actor,
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, job)
	}
}

// RecordInspection handles POST /api/v1/jobs/:jobId/qc/inspections
func (h *Handlers) RecordInspection() gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, h.logger.Logger)
		jobID := c.Param("jobId")

		var req InspectionRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		middleware.AddSpanAttributes(c, map[string]any{
			"job.id":      jobID,
			"qc.decision": req.Decision,
		})

		result, err := h.services.QC.RecordInspection(c.Request.Context(), req.toCommand(jobID))
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusCreated, result)
	}
}

// ListInspections handles GET /api/v1/jobs/:jobId/qc/inspections
func (h *Handlers) ListInspections() gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, h.logger.Logger)

		records, err := h.services.Jobs.ListInspections(c.Request.Context(), c.Param("jobId"))
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"inspections": records})
	}
}

// EstimatePacking handles GET /api/v1/jobs/:jobId/shipment/estimate
func (h *Handlers) EstimatePacking() gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, h.logger.Logger)

		estimate, err := h.services.Shipping.EstimatePacking(c.Request.Context(), c.Param("jobId"))
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, estimate)
	}
}

// ConfirmShipment handles POST /api/v1/jobs/:jobId/shipment/confirm
func (h *Handlers) ConfirmShipment() gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, h.logger.Logger)
		jobID := c.Param("jobId")

		var req ShipmentRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		middleware.AddSpanAttributes(c, map[string]any{
			"job.id":   jobID,
			"carrier":  req.Carrier,
			"boxCount": len(req.Boxes),
		})

		job, err := h.services.Shipping.ValidateAndConfirmShipment(c.Request.Context(), req.toCommand(jobID))
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, job)
	}
}

// ListTestPrints handles GET /api/v1/test-prints
func (h *Handlers) ListTestPrints() gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, h.logger.Logger)

		var req ListTestPrintsRequest
		if appErr := middleware.BindQuery(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		approvals, err := h.services.Jobs.ListTestPrints(c.Request.Context(), domain.TestPrintStatus(req.Status), req.Limit)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"testPrints": approvals})
	}
}

// DecideTestPrint handles POST /api/v1/test-prints/:approvalId/decision
func (h *Handlers) DecideTestPrint() gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, h.logger.Logger)

		var req TestPrintDecisionRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		result, err := h.services.Production.DecideTestPrint(c.Request.Context(), application.DecideTestPrintCommand{
			ApprovalID:   c.Param("approvalId"),
			Approve:      *req.Approve,
			SupervisorID: req.SupervisorID,
			Notes:        req.Notes,
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decoflow/production-service/api"
	"github.com/decoflow/production-service/internal/domain"
	"github.com/decoflow/production-service/internal/infrastructure/outboxevents"
	"github.com/decoflow/production-service/pkg/cloudevents"
	"github.com/decoflow/production-service/pkg/contracts/asyncapi"
	"github.com/decoflow/production-service/pkg/contracts/openapi"
)

func TestOpenAPI_DocumentsRoutes(t *testing.T) {
	v, err := openapi.NewValidatorFromBytes(api.OpenAPISpec)
	require.NoError(t, err)

	assert.Contains(t, v.Paths(), "/api/v1/jobs/{jobId}/shipment/confirm")
	assert.Contains(t, v.Paths(), "/api/v1/test-prints/{approvalId}/decision")

	tests := []struct {
		method, path, operation string
	}{
		{http.MethodPost, "/api/v1/operators/authenticate", "authenticate"},
		{http.MethodPost, "/api/v1/jobs", "createJob"},
		{http.MethodGet, "/api/v1/jobs", "listJobs"},
		{http.MethodGet, "/api/v1/jobs/job-1", "getJob"},
		{http.MethodGet, "/api/v1/jobs/job-1/line-items", "getLineItems"},
		{http.MethodPost, "/api/v1/jobs/job-1/test-print", "requestTestPrint"},
		{http.MethodPost, "/api/v1/jobs/job-1/start", "startProduction"},
		{http.MethodPost, "/api/v1/jobs/job-1/pause", "pause"},
		{http.MethodPost, "/api/v1/jobs/job-1/resume", "resume"},
		{http.MethodPost, "/api/v1/jobs/job-1/complete", "complete"},
		{http.MethodPost, "/api/v1/jobs/job-1/hold", "hold"},
		{http.MethodPost, "/api/v1/jobs/job-1/release", "releaseHold"},
		{http.MethodPost, "/api/v1/jobs/job-1/qc/request", "requestQC"},
		{http.MethodPost, "/api/v1/jobs/job-1/qc/inspections", "recordInspection"},
		{http.MethodGet, "/api/v1/jobs/job-1/qc/inspections", "listInspections"},
		{http.MethodGet, "/api/v1/jobs/job-1/shipment/estimate", "estimatePacking"},
		{http.MethodPost, "/api/v1/jobs/job-1/shipment/confirm", "validateAndConfirmShipment"},
		{http.MethodGet, "/api/v1/test-prints", "listTestPrints"},
		{http.MethodPost, "/api/v1/test-prints/tp-1/decision", "decideTestPrint"},
	}
	for _, tt := range tests {
		t.Run(tt.operation, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			op, err := v.OperationID(req)
			require.NoError(t, err)
			assert.Equal(t, tt.operation, op)
		})
	}
}

func TestOpenAPI_ValidatesBodies(t *testing.T) {
	v, err := openapi.NewValidatorFromBytes(api.OpenAPISpec)
	require.NoError(t, err)

	validate := func(body string) error {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/job-1/hold", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return v.ValidateRequest(context.Background(), req)
	}

	assert.NoError(t, validate(`{"reason":"Artwork","notes":"logo too small"}`))
	assert.Error(t, validate(`{"reason":"Lunch","notes":"x"}`))
	assert.Error(t, validate(`{"reason":"Artwork"}`))
}

// lifecycleEvents drives a job from creation to shipment and returns every
// CloudEvent it raised along the way
func lifecycleEvents(t *testing.T) []*cloudevents.Event {
	t.Helper()

	items := []domain.LineItem{
		{SKU: "G500", Size: "L", Color: "Black", Quantity: 48},
		{SKU: "G185", Size: "M", Color: "Navy", Quantity: 12, Description: "Pullover Hoodie"},
	}
	job, err := domain.NewJob(domain.NewJobParams{
		ID:           "job-1",
		OrderNumber:  "PV-10452",
		CustomerName: "Riverside Rowing Club",
		Department:   domain.DepartmentScreenPrint,
		Quantity:     60,
		Source:       domain.SourcePrintavo,
		LineItems:    items,
	})
	require.NoError(t, err)

	session := domain.OperatorSession{OperatorID: "op-7", MachineID: "press-2", Role: domain.RoleOperator}
	require.NoError(t, job.PlaceHold(domain.HoldRequest{Reason: domain.HoldMaterial, Notes: "blanks on backorder"}))
	require.NoError(t, job.ReleaseHold("4242", "4242", "mgr-1"))
	require.NoError(t, job.RequestTestPrint(session))
	require.NoError(t, job.ApproveTestPrint("sup-1", ""))
	require.NoError(t, job.StartProduction(session))
	require.NoError(t, job.Complete(domain.ProductionReport{
		Actor:    "op-7",
		Spoilage: []domain.SpoilageEntry{{SKU: "G500", Size: "L", Color: "Black", Quantity: 2, Reason: domain.SpoilageMisprint}},
	}, items))
	require.NoError(t, job.RequestQC("op-7"))

	rec, err := domain.NewQCInspectionRecord("qc-1", job, domain.InspectionInput{
		InspectorID:     "qc-3",
		ServicesChecked: []string{"Screen Printing"},
		Decision:        domain.QCPass,
	})
	require.NoError(t, err)
	require.NoError(t, job.RecordInspection(rec))

	require.NoError(t, job.ConfirmShipment(domain.ShipmentPlan{
		Carrier: domain.CarrierUPS,
		Boxes: []domain.Box{
			{Type: domain.BoxLarge, Weight: 22.5, ServiceLevel: "ups_ground", TrackingNumber: "1Z999AA10123456784", LabelGenerated: true},
			{Type: domain.BoxSmall, Weight: 9, ServiceLevel: "ups_ground", TrackingNumber: "1Z999AA10123456791", LabelGenerated: true},
		},
	}, items, "clerk-1"))

	records, err := outboxevents.FromJob(context.Background(), cloudevents.NewEventFactory("/production-service"), job)
	require.NoError(t, err)

	events := make([]*cloudevents.Event, 0, len(records))
	for _, r := range records {
		ce, err := r.ToCloudEvent()
		require.NoError(t, err)
		events = append(events, ce)
	}
	return events
}

func TestAsyncAPI_AcceptsPublishedEvents(t *testing.T) {
	v, err := asyncapi.NewEventValidatorFromBytes(api.AsyncAPISpec)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		domain.EventTypeJobCreated,
		domain.EventTypeJobStatusChanged,
		domain.EventTypeJobHeld,
		domain.EventTypeSpoilageRecorded,
		domain.EventTypeInspectionRecorded,
		domain.EventTypeJobShipped,
		"production.job.import",
		"production.testprint.decided",
	}, v.SupportedEventTypes())

	seen := make(map[string]bool)
	for _, ce := range lifecycleEvents(t) {
		assert.NoError(t, v.Validate(ce), ce.Type)
		seen[ce.Type] = true
	}
	for _, eventType := range []string{
		domain.EventTypeJobCreated,
		domain.EventTypeJobStatusChanged,
		domain.EventTypeJobHeld,
		domain.EventTypeSpoilageRecorded,
		domain.EventTypeInspectionRecorded,
		domain.EventTypeJobShipped,
	} {
		assert.True(t, seen[eventType], "lifecycle did not raise %s", eventType)
	}
}

func TestAsyncAPI_RejectsBadPayloads(t *testing.T) {
	v, err := asyncapi.NewEventValidatorFromBytes(api.AsyncAPISpec)
	require.NoError(t, err)

	event := func(eventType string, data any) *cloudevents.Event {
		raw, err := json.Marshal(data)
		require.NoError(t, err)
		return &cloudevents.Event{Type: eventType, Data: raw}
	}

	assert.Error(t, v.Validate(event(domain.EventTypeJobStatusChanged, map[string]any{
		"jobId": "job-1", "orderNumber": "PV-1", "event": "Pause",
		"fromStatus": "IN_PRODUCTION", "toStatus": "SLEEPING",
		"productionState": "Paused", "changedAt": "2026-03-04T10:00:00Z",
	})), "unknown status")

	assert.Error(t, v.Validate(event("production.testprint.decided", map[string]any{
		"approvalId": "tp-1", "decision": "maybe", "supervisorId": "sup-1",
	})))

	assert.Error(t, v.Validate(event("production.unknown", map[string]any{"x": 1})))
	assert.Error(t, v.Validate(&cloudevents.Event{Type: domain.EventTypeJobShipped}))
}

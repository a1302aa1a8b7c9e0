package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decoflow/production-service/internal/application"
	"github.com/decoflow/production-service/internal/infrastructure/badgerstore"
	"github.com/decoflow/production-service/internal/infrastructure/directory"
	"github.com/decoflow/production-service/pkg/logging"
	"github.com/decoflow/production-service/pkg/middleware"
)

const operators = `
operators:
  - id: op-1
    name: Dana Ruiz
    role: operator
    pin: "1234"
    machineIds: [press-1]
`

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := badgerstore.Open(badgerstore.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	dir, err := directory.Parse([]byte(operators))
	require.NoError(t, err)

	logger := logging.NewNop()
	jobs := badgerstore.NewJobRepository(store, badgerstore.NewOutboxRepository(store))
	services := application.NewServices(application.Dependencies{
		Jobs:                jobs,
		LineItems:           jobs,
		TestPrints:          badgerstore.NewTestPrintRepository(store),
		Inspections:         badgerstore.NewInspectionRepository(store),
		Transactor:          store,
		Photos:              badgerstore.NewPhotoStore(store),
		Directory:           dir,
		Logger:              logger,
		ManagerOverrideCode: "4242",
	})

	router := gin.New()
	middleware.Setup(router, middleware.DefaultConfig("production-test", logger.Logger))
	require.NoError(t, RegisterValidators())
	SetupRoutes(router, NewHandlers(services, logger))
	return router
}

func do(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequestWithContext(context.Background(), method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[middleware.APIErrorResponse](t, w).Code
}

func createJob(t *testing.T, router *gin.Engine, id string) {
	t.Helper()
	w := do(t, router, http.MethodPost, "/api/v1/jobs", gin.H{
		"id":           id,
		"orderNumber":  "PV-1001",
		"customerName": "Harbor Coffee",
		"department":   "Screen Print",
		"quantity":     80,
		"source":       "Printavo",
		"lineItems": []gin.H{
			{"sku": "G500", "size": "L", "color": "Black", "quantity": 80, "description": "Gildan tee"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

var photo = gin.H{"contentType": "image/jpeg", "data": []byte{0xff, 0xd8, 0xff}}

func TestHandlers_FullLifecycle(t *testing.T) {
	router := setupRouter(t)
	createJob(t, router, "job-1")

	w := do(t, router, http.MethodPost, "/api/v1/jobs/job-1/start", gin.H{"pin": "1234", "machineId": "press-1", "photo": photo})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	pending := decode[application.StartProductionResult](t, w)
	require.NotNil(t, pending.PendingApproval)
	assert.Equal(t, "TEST_PRINT_PENDING", pending.Job.Status)

	w = do(t, router, http.MethodGet, "/api/v1/test-prints?status=pending", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[map[string][]application.TestPrintDTO](t, w)
	require.Len(t, list["testPrints"], 1)

	w = do(t, router, http.MethodPost, "/api/v1/test-prints/"+pending.PendingApproval.ID+"/decision",
		gin.H{"approve": true, "supervisorId": "sup-1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "TEST_PRINT_APPROVED", decode[application.TestPrintDecisionResult](t, w).Job.Status)

	w = do(t, router, http.MethodPost, "/api/v1/jobs/job-1/start", gin.H{"pin": "1234", "machineId": "press-1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "IN_PRODUCTION", decode[application.StartProductionResult](t, w).Job.Status)

	w = do(t, router, http.MethodPost, "/api/v1/jobs/job-1/complete", gin.H{
		"actor":    "op-1",
		"spoilage": []gin.H{{"sku": "G500", "size": "L", "color": "Black", "quantity": 1, "reason": "Misprint"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, decode[application.JobDTO](t, w).TotalSpoiled)

	w = do(t, router, http.MethodPost, "/api/v1/jobs/job-1/qc/request", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, router, http.MethodPost, "/api/v1/jobs/job-1/qc/inspections", gin.H{
		"inspectorId": "qc-1",
		"decision":    "pass",
		"photos":      []gin.H{{"phase": "Good Piece", "contentType": "image/jpeg", "data": []byte{1, 2, 3}}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "READY_TO_SHIP", decode[application.InspectionResult](t, w).Job.Status)

	w = do(t, router, http.MethodGet, "/api/v1/jobs/job-1/shipment/estimate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decode[application.PackingEstimateDTO](t, w).EstimatedBoxesNeeded)

	w = do(t, router, http.MethodPost, "/api/v1/jobs/job-1/shipment/confirm", gin.H{
		"carrier": "UPS",
		"boxes":   []gin.H{{"type": "Small", "weight": 12, "trackingNumber": "1Z001", "labelGenerated": true}},
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	assert.Equal(t, "PACKING_MISMATCH", errorCode(t, w))

	w = do(t, router, http.MethodPost, "/api/v1/jobs/job-1/shipment/confirm", gin.H{
		"carrier": "UPS",
		"boxes": []gin.H{
			{"type": "Large", "weight": 20, "trackingNumber": "1Z001", "labelGenerated": true},
			{"type": "Large", "weight": 18, "trackingNumber": "1Z002", "labelGenerated": true},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	shipped := decode[application.JobDTO](t, w)
	assert.Equal(t, "SHIPPED", shipped.Status)
	assert.Equal(t, "1Z001", shipped.TrackingNumber)

	w = do(t, router, http.MethodGet, "/api/v1/jobs/job-1/qc/inspections", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[map[string][]application.InspectionDTO](t, w)["inspections"], 1)
}

func TestHandlers_Rejections(t *testing.T) {
	router := setupRouter(t)
	createJob(t, router, "job-1")

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"wrong pin", http.MethodPost, "/api/v1/jobs/job-1/start", gin.H{"pin": "9999", "machineId": "press-1"}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"wrong machine", http.MethodPost, "/api/v1/jobs/job-1/start", gin.H{"pin": "1234", "machineId": "press-9"}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"malformed pin", http.MethodPost, "/api/v1/jobs/job-1/start", gin.H{"pin": "12", "machineId": "press-1"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"test print without photo", http.MethodPost, "/api/v1/jobs/job-1/test-print", gin.H{"pin": "1234", "machineId": "press-1"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"pause new job", http.MethodPost, "/api/v1/jobs/job-1/pause", nil, http.StatusConflict, "INVALID_TRANSITION"},
		{"release without hold", http.MethodPost, "/api/v1/jobs/job-1/release", gin.H{"overrideCode": "4242"}, http.StatusConflict, "INVALID_TRANSITION"},
		{"hold without notes", http.MethodPost, "/api/v1/jobs/job-1/hold", gin.H{"reason": "Material"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown hold reason", http.MethodPost, "/api/v1/jobs/job-1/hold", gin.H{"reason": "Vibes", "notes": "?"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown carrier", http.MethodPost, "/api/v1/jobs/job-1/shipment/confirm", gin.H{"carrier": "Pony Express"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown job", http.MethodGet, "/api/v1/jobs/missing", nil, http.StatusNotFound, "RESOURCE_NOT_FOUND"},
		{"unknown status filter", http.MethodGet, "/api/v1/jobs?status=LOST", nil, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"inspection before qc", http.MethodPost, "/api/v1/jobs/job-1/qc/inspections", gin.H{"inspectorId": "qc-1", "decision": "pass"}, http.StatusNotFound, "RESOURCE_NOT_FOUND"},
		{"unknown decision", http.MethodPost, "/api/v1/jobs/job-1/qc/inspections", gin.H{"inspectorId": "qc-1", "decision": "maybe"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"duplicate job", http.MethodPost, "/api/v1/jobs", gin.H{
			"id": "job-1", "orderNumber": "PV-1001", "customerName": "Harbor Coffee",
			"department": "Screen Print", "quantity": 1, "source": "Printavo",
		}, http.StatusConflict, "CONFLICT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}

	w := do(t, router, http.MethodGet, "/api/v1/jobs/job-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "NEW", decode[application.JobDTO](t, w).Status)
}

func TestHandlers_HoldAndRelease(t *testing.T) {
	router := setupRouter(t)
	createJob(t, router, "job-1")

	w := do(t, router, http.MethodPost, "/api/v1/jobs/job-1/hold", gin.H{"reason": "Material", "notes": "blanks back-ordered", "placedBy": "sup-1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	held := decode[application.JobDTO](t, w)
	assert.Equal(t, "ON_HOLD", held.Status)
	assert.Equal(t, []string{"ReleaseHold"}, held.AllowedEvents)

	w = do(t, router, http.MethodPost, "/api/v1/jobs/job-1/release", gin.H{"overrideCode": "0000", "actor": "mgr-1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, router, http.MethodPost, "/api/v1/jobs/job-1/release", gin.H{"overrideCode": "4242", "actor": "mgr-1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "NEW", decode[application.JobDTO](t, w).Status)

	w = do(t, router, http.MethodGet, "/api/v1/jobs?status=NEW", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Jobs  []application.JobDTO `json:"jobs"`
		Count int                  `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
}

func TestHandlers_Authenticate(t *testing.T) {
	router := setupRouter(t)

	w := do(t, router, http.MethodPost, "/api/v1/operators/authenticate", gin.H{"pin": "1234", "machineId": "press-1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	session := decode[application.OperatorSessionDTO](t, w)
	assert.Equal(t, "op-1", session.OperatorID)
	assert.Equal(t, "operator", session.Role)

	w = do(t, router, http.MethodPost, "/api/v1/operators/authenticate", gin.H{"pin": "4321", "machineId": "press-1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func doIfMatch(t *testing.T, router *gin.Engine, method, path, ifMatch string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequestWithContext(context.Background(), method, path, bytes.NewReader(nil))
	req.Header.Set("If-Match", ifMatch)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandlers_IfMatchRejectsStaleReports(t *testing.T) {
	router := setupRouter(t)
	createJob(t, router, "job-1")

	w := do(t, router, http.MethodPost, "/api/v1/jobs/job-1/start", gin.H{"pin": "1234", "machineId": "press-1", "photo": photo})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	approvalID := decode[application.StartProductionResult](t, w).PendingApproval.ID
	w = do(t, router, http.MethodPost, "/api/v1/test-prints/"+approvalID+"/decision", gin.H{"approve": true, "supervisorId": "sup-1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = do(t, router, http.MethodPost, "/api/v1/jobs/job-1/start", gin.H{"pin": "1234", "machineId": "press-1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, router, http.MethodGet, "/api/v1/jobs/job-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	etag := w.Header().Get("ETag")
	assert.Equal(t, fmt.Sprintf("%q", fmt.Sprint(decode[application.JobDTO](t, w).Version)), etag)

	w = doIfMatch(t, router, http.MethodPost, "/api/v1/jobs/job-1/pause", etag)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "PAUSED", decode[application.JobDTO](t, w).Status)
	assert.NotEqual(t, etag, w.Header().Get("ETag"))

	// the complete was decided on the running job the pause replaced
	w = doIfMatch(t, router, http.MethodPost, "/api/v1/jobs/job-1/complete", etag)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_TRANSITION", errorCode(t, w))

	w = doIfMatch(t, router, http.MethodPost, "/api/v1/jobs/job-1/complete", "latest")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))

	w = do(t, router, http.MethodGet, "/api/v1/jobs/job-1", nil)
	assert.Equal(t, "PAUSED", decode[application.JobDTO](t, w).Status)
}

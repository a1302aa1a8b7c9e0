package application

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decoflow/production-service/internal/domain"
	"github.com/decoflow/production-service/internal/infrastructure/badgerstore"
	apperrors "github.com/decoflow/production-service/pkg/errors"
	"github.com/decoflow/production-service/pkg/logging"
	"github.com/decoflow/production-service/pkg/metrics"
)

const managerCode = "4242"

type staticDirectory map[string]domain.OperatorSession

func (d staticDirectory) Verify(_ context.Context, pin, machineID string) (*domain.OperatorSession, error) {
	s, ok := d[pin]
	if !ok {
		return nil, domain.ErrAuth
	}
	s.MachineID = machineID
	return &s, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, msg domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return nil
}

func (n *recordingNotifier) all() []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.Notification(nil), n.sent...)
}

type fixture struct {
	svc        *Services
	jobs       *badgerstore.JobRepository
	testPrints *badgerstore.TestPrintRepository
	notifier   *recordingNotifier
	dispatcher *Dispatcher
	metrics    *metrics.Metrics
	operator   domain.OperatorSession
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := badgerstore.Open(badgerstore.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logger := logging.NewNop()
	m := metrics.New(&metrics.Config{ServiceName: "production-test", Namespace: "test"})
	notifier := &recordingNotifier{}
	dispatcher := NewDispatcher(notifier, 0, logger, m)

	jobs := badgerstore.NewJobRepository(store, badgerstore.NewOutboxRepository(store))
	testPrints := badgerstore.NewTestPrintRepository(store)

	svc := NewServices(Dependencies{
		Jobs:        jobs,
		LineItems:   jobs,
		TestPrints:  testPrints,
		Inspections: badgerstore.NewInspectionRepository(store),
		Transactor:  store,
		Photos:      badgerstore.NewPhotoStore(store),
		Directory: staticDirectory{
			"1234": {OperatorID: "op-1", Name: "Dana Ruiz", Role: domain.RoleOperator},
		},
		Dispatcher:          dispatcher,
		Logger:              logger,
		Metrics:             m,
		ManagerOverrideCode: managerCode,
	})

	return &fixture{
		svc:        svc,
		jobs:       jobs,
		testPrints: testPrints,
		notifier:   notifier,
		dispatcher: dispatcher,
		metrics:    m,
		operator:   domain.OperatorSession{OperatorID: "op-1", MachineID: "press-1", Role: domain.RoleOperator},
	}
}

func (f *fixture) createJob(t *testing.T, id string, items ...domain.LineItem) {
	t.Helper()
	if len(items) == 0 {
		items = []domain.LineItem{{SKU: "G500", Size: "L", Color: "Black", Quantity: 24, Description: "Gildan tee"}}
	}
	_, err := f.svc.Jobs.CreateJob(context.Background(), CreateJobCommand{
		JobID:        id,
		OrderNumber:  "PV-" + id,
		CustomerName: "Harbor Coffee",
		Department:   domain.DepartmentScreenPrint,
		Quantity:     24,
		Source:       domain.SourcePrintavo,
		LineItems:    items,
	})
	require.NoError(t, err)
}

func testPhoto() *Photo {
	return &Photo{ContentType: "image/jpeg", Data: []byte{0xff, 0xd8, 0xff}}
}

// startRunning takes a NEW job through the test print gate into IN_PRODUCTION
func (f *fixture) startRunning(t *testing.T, id string) {
	t.Helper()
	ctx := context.Background()

	res, err := f.svc.Production.StartProduction(ctx, StartProductionCommand{JobID: id, Session: f.operator, Photo: testPhoto()})
	require.NoError(t, err)
	require.NotNil(t, res.PendingApproval)

	_, err = f.svc.Production.DecideTestPrint(ctx, DecideTestPrintCommand{
		ApprovalID:   res.PendingApproval.ID,
		Approve:      true,
		SupervisorID: "sup-1",
	})
	require.NoError(t, err)

	res, err = f.svc.Production.StartProduction(ctx, StartProductionCommand{JobID: id, Session: f.operator})
	require.NoError(t, err)
	require.Equal(t, string(domain.StatusInProduction), res.Job.Status)
}

func (f *fixture) readyToShip(t *testing.T, id string) {
	t.Helper()
	ctx := context.Background()

	f.startRunning(t, id)
	_, err := f.svc.Production.Complete(ctx, ReportProductionCommand{JobID: id, Actor: "op-1"})
	require.NoError(t, err)
	_, err = f.svc.Production.RequestQC(ctx, RequestQCCommand{JobID: id, Actor: "op-1"})
	require.NoError(t, err)
	res, err := f.svc.QC.RecordInspection(ctx, RecordInspectionCommand{
		JobID:       id,
		InspectorID: "qc-1",
		Decision:    domain.QCPass,
	})
	require.NoError(t, err)
	require.Equal(t, string(domain.StatusReadyToShip), res.Job.Status)
}

func requireAppError(t *testing.T, err error, code string, status int) {
	t.Helper()
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
	assert.Equal(t, status, appErr.HTTPStatus)
}

func TestProduction_TestPrintGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createJob(t, "job-1")

	_, err := f.svc.Production.StartProduction(ctx, StartProductionCommand{JobID: "job-1", Session: f.operator})
	requireAppError(t, err, apperrors.CodeValidationError, http.StatusBadRequest)

	res, err := f.svc.Production.StartProduction(ctx, StartProductionCommand{JobID: "job-1", Session: f.operator, Photo: testPhoto()})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusTestPrintPending), res.Job.Status)
	require.NotNil(t, res.PendingApproval)
	assert.Equal(t, "pending", res.PendingApproval.Status)
	assert.Contains(t, res.PendingApproval.PhotoURI, "badger://photos/")

	_, err = f.svc.Production.StartProduction(ctx, StartProductionCommand{JobID: "job-1", Session: f.operator})
	requireAppError(t, err, apperrors.CodeInvalidTransition, http.StatusConflict)

	decided, err := f.svc.Production.DecideTestPrint(ctx, DecideTestPrintCommand{
		ApprovalID:   res.PendingApproval.ID,
		Approve:      false,
		SupervisorID: "sup-1",
		Notes:        "ink too light",
	})
	require.NoError(t, err)
	assert.Equal(t, "denied", decided.Approval.Status)
	assert.Equal(t, string(domain.StatusNew), decided.Job.Status)

	_, err = f.svc.Production.DecideTestPrint(ctx, DecideTestPrintCommand{
		ApprovalID:   res.PendingApproval.ID,
		Approve:      true,
		SupervisorID: "sup-1",
	})
	requireAppError(t, err, apperrors.CodeInvalidTransition, http.StatusConflict)

	f.startRunning(t, "job-1")
}

func TestProduction_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createJob(t, "job-1")
	f.startRunning(t, "job-1")

	paused, err := f.svc.Production.Pause(ctx, ReportProductionCommand{
		JobID: "job-1",
		Actor: "op-1",
		Notes: "lunch",
		Spoilage: []domain.SpoilageEntry{
			{SKU: "G500", Size: "L", Color: "Black", Quantity: 2, Reason: domain.SpoilageMisprint},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusPaused), paused.Status)
	assert.Equal(t, 2, paused.TotalSpoiled)

	resumed, err := f.svc.Production.Resume(ctx, ResumeCommand{JobID: "job-1", Actor: "op-1"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusInProduction), resumed.Status)

	done, err := f.svc.Production.Complete(ctx, ReportProductionCommand{JobID: "job-1", Actor: "op-1", Photos: []Photo{*testPhoto()}})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCompleted), done.Status)
	assert.Len(t, done.Activity[len(done.Activity)-1].Photos, 1)

	queued, err := f.svc.Production.RequestQC(ctx, RequestQCCommand{JobID: "job-1", Actor: "op-1"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusQCPending), queued.Status)

	for i := 1; i < len(done.Activity); i++ {
		assert.True(t, done.Activity[i].At.After(done.Activity[i-1].At))
	}

	stored, err := f.jobs.FindByID(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, queued.Version, stored.Version)
}

func TestProduction_SpoilageMustMatchLineItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createJob(t, "job-1")
	f.startRunning(t, "job-1")

	_, err := f.svc.Production.Pause(ctx, ReportProductionCommand{
		JobID: "job-1",
		Spoilage: []domain.SpoilageEntry{
			{SKU: "G500", Size: "XL", Color: "Black", Quantity: 1, Reason: domain.SpoilageDamaged},
		},
	})
	requireAppError(t, err, apperrors.CodeValidationError, http.StatusBadRequest)

	job, err := f.svc.Jobs.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusInProduction), job.Status)
}

func TestProduction_ConcurrentCompleteHasOneWinner(t *testing.T) {
	f := newFixture(t)
	f.createJob(t, "job-1")
	f.startRunning(t, "job-1")

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		rejected  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Production.Complete(context.Background(), ReportProductionCommand{JobID: "job-1", Actor: "op-1"})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			if appErr, ok := apperrors.AsAppError(err); ok && appErr.Code == apperrors.CodeInvalidTransition {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, rejected)

	job, err := f.jobs.FindByID(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, job.Status)
	completions := 0
	for _, a := range job.Activity {
		if a.Event == domain.EventComplete {
			completions++
		}
	}
	assert.Equal(t, 1, completions)
}

func TestProduction_PauseAndCompleteRaceHasOneWinner(t *testing.T) {
	for round := 0; round < 10; round++ {
		f := newFixture(t)
		f.createJob(t, "job-1")
		f.startRunning(t, "job-1")

		seen, err := f.svc.Jobs.GetJob(context.Background(), "job-1")
		require.NoError(t, err)
		version := seen.Version

		ops := []func(context.Context, ReportProductionCommand) (*JobDTO, error){
			f.svc.Production.Pause,
			f.svc.Production.Complete,
		}
		errs := make([]error, len(ops))
		var wg sync.WaitGroup
		for i, op := range ops {
			wg.Add(1)
			go func(i int, op func(context.Context, ReportProductionCommand) (*JobDTO, error)) {
				defer wg.Done()
				_, errs[i] = op(context.Background(), ReportProductionCommand{
					JobID:           "job-1",
					Actor:           "op-1",
					ExpectedVersion: &version,
				})
			}(i, op)
		}
		wg.Wait()

		successes := 0
		for _, err := range errs {
			if err == nil {
				successes++
				continue
			}
			requireAppError(t, err, apperrors.CodeInvalidTransition, http.StatusConflict)
		}
		require.Equal(t, 1, successes, "round %d", round)

		job, err := f.jobs.FindByID(context.Background(), "job-1")
		require.NoError(t, err)
		assert.Equal(t, version+1, job.Version)
		if errs[0] == nil {
			assert.Equal(t, domain.StatusPaused, job.Status)
		} else {
			assert.Equal(t, domain.StatusCompleted, job.Status)
		}
	}
}

func TestProduction_StaleVersionIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createJob(t, "job-1")
	f.startRunning(t, "job-1")

	seen, err := f.svc.Jobs.GetJob(ctx, "job-1")
	require.NoError(t, err)
	stale := seen.Version

	paused, err := f.svc.Production.Pause(ctx, ReportProductionCommand{JobID: "job-1", Actor: "op-1", ExpectedVersion: &stale})
	require.NoError(t, err)

	_, err = f.svc.Production.Resume(ctx, ResumeCommand{JobID: "job-1", Actor: "op-1", ExpectedVersion: &stale})
	requireAppError(t, err, apperrors.CodeInvalidTransition, http.StatusConflict)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	current := paused.Version
	resumed, err := f.svc.Production.Resume(ctx, ResumeCommand{JobID: "job-1", Actor: "op-1", ExpectedVersion: &current})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusInProduction), resumed.Status)
}

func TestProduction_HoldDeniesPendingTestPrintAndNotifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createJob(t, "job-1")

	res, err := f.svc.Production.RequestTestPrint(ctx, RequestTestPrintCommand{JobID: "job-1", Session: f.operator, Photo: testPhoto()})
	require.NoError(t, err)

	_, err = f.svc.Production.Hold(ctx, HoldCommand{JobID: "job-1", Reason: domain.HoldArtwork})
	requireAppError(t, err, apperrors.CodeValidationError, http.StatusBadRequest)

	held, err := f.svc.Production.Hold(ctx, HoldCommand{
		JobID:    "job-1",
		Reason:   domain.HoldArtwork,
		Notes:    "customer sent new art",
		PlacedBy: "sup-1",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusOnHold), held.Status)
	require.NotNil(t, held.Hold)
	assert.Equal(t, string(domain.StatusTestPrintPending), held.Hold.PreviousStatus)

	approval, err := f.testPrints.FindByID(ctx, res.PendingApproval.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TestPrintDenied, approval.Status)

	f.dispatcher.Wait()
	sent := f.notifier.all()
	require.Len(t, sent, 1)
	assert.Equal(t, domain.NotificationJobHeld, sent[0].Kind)
	assert.Equal(t, "job-1", sent[0].JobID)
	assert.Equal(t, "customer sent new art", sent[0].Fields["Notes"])
}

func TestProduction_ReleaseHoldRequiresOverrideCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createJob(t, "job-1")
	f.startRunning(t, "job-1")

	held, err := f.svc.Production.Hold(ctx, HoldCommand{JobID: "job-1", Reason: domain.HoldEquipment, Notes: "press jammed"})
	require.NoError(t, err)

	_, err = f.svc.Production.ReleaseHold(ctx, ReleaseHoldCommand{JobID: "job-1", OverrideCode: "0000", Actor: "mgr-1"})
	requireAppError(t, err, apperrors.CodeUnauthorized, http.StatusUnauthorized)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.OverrideFailures))

	unchanged, err := f.svc.Jobs.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, held.Version, unchanged.Version)
	assert.Equal(t, string(domain.StatusOnHold), unchanged.Status)

	released, err := f.svc.Production.ReleaseHold(ctx, ReleaseHoldCommand{JobID: "job-1", OverrideCode: managerCode, Actor: "mgr-1"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusNew), released.Status)
	assert.Nil(t, released.Hold)
}

func TestProduction_Authenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, err := f.svc.Production.Authenticate(ctx, AuthenticateCommand{PIN: "1234", MachineID: "press-2"})
	require.NoError(t, err)
	assert.Equal(t, "op-1", session.OperatorID)
	assert.Equal(t, "press-2", session.MachineID)

	_, err = f.svc.Production.Authenticate(ctx, AuthenticateCommand{PIN: "9999", MachineID: "press-2"})
	requireAppError(t, err, apperrors.CodeUnauthorized, http.StatusUnauthorized)
}

func TestQC_Decisions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createJob(t, "job-1")
	f.startRunning(t, "job-1")

	_, err := f.svc.QC.RecordInspection(ctx, RecordInspectionCommand{JobID: "job-1", InspectorID: "qc-1", Decision: domain.QCPass})
	requireAppError(t, err, apperrors.CodeNotFound, http.StatusNotFound)

	_, err = f.svc.Production.Complete(ctx, ReportProductionCommand{JobID: "job-1"})
	require.NoError(t, err)
	_, err = f.svc.Production.RequestQC(ctx, RequestQCCommand{JobID: "job-1"})
	require.NoError(t, err)

	onHold, err := f.svc.QC.RecordInspection(ctx, RecordInspectionCommand{
		JobID:       "job-1",
		InspectorID: "qc-1",
		Decision:    domain.QCHold,
		Notes:       "waiting on customer",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusQCPending), onHold.Job.Status)

	failed, err := f.svc.QC.RecordInspection(ctx, RecordInspectionCommand{
		JobID:           "job-1",
		InspectorID:     "qc-1",
		Mode:            domain.InspectionRecheck,
		ServicesChecked: []string{"Screen Printing"},
		SpoilageEntries: []domain.SpoilageEntry{
			{SKU: "G500", Size: "L", Color: "Black", Quantity: 3, Reason: domain.SpoilageHoleSpotted},
		},
		FailReasons: []string{"registration off"},
		Decision:    domain.QCFail,
		Photos:      []QCPhoto{{Phase: domain.PhaseFailedPieces, Photo: *testPhoto()}},
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusQCFailed), failed.Job.Status)
	assert.Equal(t, 3, failed.Inspection.TotalSpoiled)
	assert.Equal(t, 3, failed.Job.TotalSpoiled)
	require.Len(t, failed.Inspection.PhotoRefs, 1)
	assert.Equal(t, string(domain.PhaseFailedPieces), failed.Inspection.PhotoRefs[0].Phase)

	records, err := f.svc.Jobs.ListInspections(ctx, "job-1")
	require.NoError(t, err)
	assert.Len(t, records, 2)

	f.dispatcher.Wait()
	sent := f.notifier.all()
	require.Len(t, sent, 2)
	decisions := map[string]domain.Notification{}
	for _, n := range sent {
		assert.Equal(t, domain.NotificationQCDecision, n.Kind)
		decisions[n.Fields["Decision"]] = n
	}
	assert.Equal(t, "3", decisions["fail"].Fields["Spoiled Units"])
	assert.Equal(t, "0", decisions["hold"].Fields["Spoiled Units"])
}

func TestShipping_PackingValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createJob(t, "job-1",
		domain.LineItem{SKU: "G500", Size: "L", Color: "Black", Quantity: 100, Description: "Gildan tee"},
		domain.LineItem{SKU: "G185", Size: "M", Color: "Navy", Quantity: 20, Description: "Pullover Hoodie"},
	)

	est, err := f.svc.Shipping.EstimatePacking(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, 100, est.ShirtUnits)
	assert.Equal(t, 20, est.HoodieUnits)
	assert.Equal(t, 4, est.EstimatedBoxesNeeded)

	f.readyToShip(t, "job-1")

	labelled := func(n int) []domain.Box {
		boxes := make([]domain.Box, n)
		for i := range boxes {
			boxes[i] = domain.Box{Type: domain.BoxLarge, Weight: 20, TrackingNumber: "1Z00" + string(rune('A'+i)), LabelGenerated: true}
		}
		return boxes
	}

	tests := []struct {
		name   string
		plan   domain.ShipmentPlan
		code   string
		status int
	}{
		{"no boxes", domain.ShipmentPlan{Carrier: domain.CarrierUPS}, apperrors.CodeNoBoxes, http.StatusUnprocessableEntity},
		{"missing label", domain.ShipmentPlan{Carrier: domain.CarrierUPS, Boxes: []domain.Box{{Type: domain.BoxLarge}}}, apperrors.CodeLabelsMissing, http.StatusUnprocessableEntity},
		{"too few boxes", domain.ShipmentPlan{Carrier: domain.CarrierUPS, Boxes: labelled(3)}, apperrors.CodePackingMismatch, http.StatusUnprocessableEntity},
		{"pickup without signature", domain.ShipmentPlan{Carrier: domain.CarrierPickup}, apperrors.CodeSignatureRequired, http.StatusUnprocessableEntity},
		{"other job", domain.ShipmentPlan{JobID: "job-2", Carrier: domain.CarrierUPS, Boxes: labelled(4)}, apperrors.CodeValidationError, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Shipping.ValidateAndConfirmShipment(ctx, ConfirmShipmentCommand{JobID: "job-1", Plan: tt.plan})
			requireAppError(t, err, tt.code, tt.status)

			job, err := f.svc.Jobs.GetJob(ctx, "job-1")
			require.NoError(t, err)
			assert.Equal(t, string(domain.StatusReadyToShip), job.Status)
		})
	}

	shipped, err := f.svc.Shipping.ValidateAndConfirmShipment(ctx, ConfirmShipmentCommand{
		JobID: "job-1",
		Plan:  domain.ShipmentPlan{Carrier: domain.CarrierUPS, Boxes: labelled(4)},
		Actor: "ship-1",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusShipped), shipped.Status)
	assert.Equal(t, "1Z00A", shipped.TrackingNumber)
	assert.Equal(t, 4, shipped.BoxCount)
	assert.InDelta(t, 80.0, shipped.Weight, 0.001)
	assert.Empty(t, shipped.AllowedEvents)
}

func TestShipping_Pickup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createJob(t, "job-1")
	f.readyToShip(t, "job-1")

	shipped, err := f.svc.Shipping.ValidateAndConfirmShipment(ctx, ConfirmShipmentCommand{
		JobID: "job-1",
		Plan: domain.ShipmentPlan{
			Carrier:         domain.CarrierPickup,
			PickupSignature: &domain.PickupSignature{FirstName: "Sam", LastName: "Ortiz", Strokes: "M10,10 L20,20"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusShipped), shipped.Status)
	assert.Equal(t, string(domain.CarrierPickup), shipped.ShippingCarrier)
}

func TestJobs_ListAndMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createJob(t, "job-1")
	f.createJob(t, "job-2")
	f.startRunning(t, "job-2")

	running, err := f.svc.Jobs.ListJobs(ctx, ListJobsQuery{Statuses: []domain.Status{domain.StatusInProduction}})
	require.NoError(t, err)
	require.Len(t, running, 1)
	assert.Equal(t, "job-2", running[0].ID)

	_, err = f.svc.Jobs.ListJobs(ctx, ListJobsQuery{Statuses: []domain.Status{"SHRUG"}})
	requireAppError(t, err, apperrors.CodeValidationError, http.StatusBadRequest)

	_, err = f.svc.Jobs.GetJob(ctx, "missing")
	requireAppError(t, err, apperrors.CodeNotFound, http.StatusNotFound)

	_, err = f.svc.Production.Resume(ctx, ResumeCommand{JobID: "missing"})
	requireAppError(t, err, apperrors.CodeNotFound, http.StatusNotFound)

	approved, err := f.svc.Jobs.ListTestPrints(ctx, domain.TestPrintApproved, 0)
	require.NoError(t, err)
	assert.Len(t, approved, 1)
}

package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test fixtures
func createTestLineItems() []LineItem {
	return []LineItem{
		{SKU: "G500", Size: "L", Color: "Black", Quantity: 48, Description: "Gildan Heavy Cotton Tee"},
		{SKU: "G185", Size: "M", Color: "Navy", Quantity: 12, Description: "Gildan Pullover Hoodie"},
	}
}

func createTestJob(t *testing.T) *Job {
	t.Helper()
	job, err := NewJob(NewJobParams{
		ID:           "job-1",
		OrderNumber:  "PV-10452",
		CustomerName: "Riverside Rowing Club",
		Department:   DepartmentScreenPrint,
		Quantity:     60,
		Source:       SourcePrintavo,
		LineItems:    createTestLineItems(),
	})
	require.NoError(t, err)
	return job
}

func testSession() OperatorSession {
	return OperatorSession{OperatorID: "op-7", MachineID: "press-2", Role: RoleOperator}
}

// freezeClock pins the aggregate clock so timestamps only advance through
// the strictly increasing rule
func freezeClock(t *testing.T) {
	t.Helper()
	fixed := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	clock = func() time.Time { return fixed }
	t.Cleanup(func() { clock = time.Now })
}

func TestNewJob(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(p *NewJobParams)
		wantField string
	}{
		{"valid", func(p *NewJobParams) {}, ""},
		{"missing order number", func(p *NewJobParams) { p.OrderNumber = " " }, "orderNumber"},
		{"missing customer", func(p *NewJobParams) { p.CustomerName = "" }, "customerName"},
		{"unknown department", func(p *NewJobParams) { p.Department = "DTG" }, "department"},
		{"zero quantity", func(p *NewJobParams) { p.Quantity = 0 }, "quantity"},
		{"unknown source", func(p *NewJobParams) { p.Source = "Shopify" }, "source"},
		{"bad line item", func(p *NewJobParams) { p.LineItems = []LineItem{{SKU: "X"}} }, "lineItems.quantity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewJobParams{
				ID:           "job-1",
				OrderNumber:  "PV-1",
				CustomerName: "Acme",
				Department:   DepartmentEmbroidery,
				Quantity:     10,
				Source:       SourceCustomInk,
			}
			tt.mutate(&p)

			job, err := NewJob(p)
			if tt.wantField == "" {
				require.NoError(t, err)
				assert.Equal(t, StatusNew, job.Status)
				assert.Equal(t, ProductionStopped, job.ProductionState)
				require.Len(t, job.GetDomainEvents(), 1)
				assert.Equal(t, EventTypeJobCreated, job.GetDomainEvents()[0].EventType())
				return
			}

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantField, ve.Field)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestJob_RoundTrip(t *testing.T) {
	freezeClock(t)
	job := createTestJob(t)
	items := createTestLineItems()

	last := job.UpdatedAt
	step := func(name string, fn func() error, want Status) {
		t.Helper()
		require.NoError(t, fn(), name)
		assert.Equal(t, want, job.Status, name)
		assert.True(t, job.UpdatedAt.After(last), "%s: updatedAt must advance", name)
		last = job.UpdatedAt
	}

	step("request test print", func() error { return job.RequestTestPrint(testSession()) }, StatusTestPrintPending)
	step("approve", func() error { return job.ApproveTestPrint("sup-1", "colors match") }, StatusTestPrintApproved)
	step("start", func() error { return job.StartProduction(testSession()) }, StatusInProduction)
	assert.Equal(t, ProductionRunning, job.ProductionState)
	step("complete", func() error { return job.Complete(ProductionReport{Actor: "op-7"}, items) }, StatusCompleted)
	assert.Equal(t, ProductionStopped, job.ProductionState)
	step("request qc", func() error { return job.RequestQC("op-7") }, StatusQCPending)

	rec, err := NewQCInspectionRecord("qc-1", job, InspectionInput{InspectorID: "qc-3", Decision: QCPass})
	require.NoError(t, err)
	step("record qc", func() error { return job.RecordInspection(rec) }, StatusReadyToShip)

	plan := ShipmentPlan{
		Carrier: CarrierUPS,
		Boxes: []Box{
			{Type: BoxLarge, Weight: 22.5, ServiceLevel: "ups_ground", TrackingNumber: "1Z999AA10123456784", LabelGenerated: true},
			{Type: BoxSmall, Weight: 9, ServiceLevel: "ups_ground", TrackingNumber: "1Z999AA10123456791", LabelGenerated: true},
		},
	}
	step("ship", func() error { return job.ConfirmShipment(plan, items, "clerk-1") }, StatusShipped)

	assert.Equal(t, CarrierUPS, job.ShippingCarrier)
	assert.Equal(t, "1Z999AA10123456784", job.TrackingNumber)
	assert.Equal(t, 2, job.BoxCount)
	assert.Equal(t, 31.5, job.Weight)
	require.NotNil(t, job.ShippedAt)
	assert.Equal(t, "op-7", job.OperatorID)
	assert.Equal(t, "press-2", job.MachineID)
	assert.Equal(t, "qc-3", job.QCInspectorID)
	assert.Len(t, job.Activity, 7)
}

func TestJob_RejectedTransitionLeavesJobUntouched(t *testing.T) {
	job := createTestJob(t)
	before := *job
	events := len(job.GetDomainEvents())

	err := job.Resume("op-7")

	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, before.Status, job.Status)
	assert.Equal(t, before.UpdatedAt, job.UpdatedAt)
	assert.Empty(t, job.Activity)
	assert.Len(t, job.GetDomainEvents(), events)
}

func TestJob_PauseWithSpoilage(t *testing.T) {
	job := createTestJob(t)
	items := createTestLineItems()
	require.NoError(t, job.StartProduction(testSession()))
	job.ClearDomainEvents()

	t.Run("unknown variant is rejected", func(t *testing.T) {
		err := job.Pause(ProductionReport{
			Notes:    "misprint on sleeve",
			Spoilage: []SpoilageEntry{{SKU: "G500", Size: "XL", Color: "Black", Quantity: 2, Reason: SpoilageMisprint}},
		}, items)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, StatusInProduction, job.Status)
		assert.Empty(t, job.Spoilage)
	})

	t.Run("matching variant is recorded", func(t *testing.T) {
		err := job.Pause(ProductionReport{
			Notes:    "misprint on sleeve",
			Photos:   []string{"badger://photos/p1"},
			Spoilage: []SpoilageEntry{{SKU: "G500", Size: "L", Color: "Black", Quantity: 2, Reason: SpoilageMisprint}},
		}, items)
		require.NoError(t, err)
		assert.Equal(t, StatusPaused, job.Status)
		assert.Equal(t, ProductionPaused, job.ProductionState)
		require.Len(t, job.Spoilage, 1)
		assert.Equal(t, SpoilageSourceProduction, job.Spoilage[0].Source)

		types := []string{}
		for _, ev := range job.GetDomainEvents() {
			types = append(types, ev.EventType())
		}
		assert.Equal(t, []string{EventTypeJobStatusChanged, EventTypeSpoilageRecorded}, types)
	})

	t.Run("resume only from paused", func(t *testing.T) {
		require.NoError(t, job.Resume("op-7"))
		assert.ErrorIs(t, job.Resume("op-7"), ErrInvalidTransition)
	})
}

func TestJob_Hold(t *testing.T) {
	t.Run("notes are mandatory", func(t *testing.T) {
		job := createTestJob(t)
		err := job.PlaceHold(HoldRequest{Reason: HoldEquipment, Notes: "  "})
		assert.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, StatusNew, job.Status)
	})

	t.Run("from every active state", func(t *testing.T) {
		for _, s := range []Status{StatusNew, StatusTestPrintPending, StatusTestPrintApproved, StatusInProduction, StatusPaused} {
			job := createTestJob(t)
			job.Status = s
			require.NoError(t, job.PlaceHold(HoldRequest{Reason: HoldMaterial, Notes: "out of ink", PlacedBy: "op-7"}), s)
			assert.Equal(t, StatusOnHold, job.Status)
			require.NotNil(t, job.Hold)
			assert.Equal(t, s, job.Hold.PreviousStatus)
		}
	})

	t.Run("not from completed", func(t *testing.T) {
		job := createTestJob(t)
		job.Status = StatusCompleted
		assert.ErrorIs(t, job.PlaceHold(HoldRequest{Reason: HoldOther, Notes: "x"}), ErrInvalidTransition)
	})

	t.Run("wrong override keeps the job on hold", func(t *testing.T) {
		job := createTestJob(t)
		require.NoError(t, job.PlaceHold(HoldRequest{Reason: HoldArtwork, Notes: "wrong proof"}))
		updated := job.UpdatedAt

		for i := 0; i < 5; i++ {
			err := job.ReleaseHold("0000", "4321", "mgr-1")
			assert.ErrorIs(t, err, ErrAuth)
			assert.Equal(t, StatusOnHold, job.Status)
			assert.Equal(t, updated, job.UpdatedAt)
		}

		require.NoError(t, job.ReleaseHold("4321", "4321", "mgr-1"))
		assert.Equal(t, StatusNew, job.Status)
		assert.Nil(t, job.Hold)
	})
}

func TestJob_RecordInspection(t *testing.T) {
	qcJob := func(t *testing.T) *Job {
		job := createTestJob(t)
		job.Status = StatusQCPending
		return job
	}

	t.Run("fail goes to QC_FAILED", func(t *testing.T) {
		job := qcJob(t)
		rec, err := NewQCInspectionRecord("qc-1", job, InspectionInput{
			InspectorID: "qc-3",
			Decision:    QCFail,
			FailReasons: []string{"registration off"},
			SpoilageEntries: []SpoilageEntry{
				{SKU: "G500", Size: "L", Color: "Black", Quantity: 3, Reason: SpoilageMisprint},
				{SKU: "G185", Size: "M", Color: "Navy", Quantity: 1, Reason: SpoilageHoleSpotted},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, 4, rec.TotalSpoiled)

		require.NoError(t, job.RecordInspection(rec))
		assert.Equal(t, StatusQCFailed, job.Status)
		assert.NotEqual(t, StatusReadyToShip, job.Status)
		assert.Len(t, job.Spoilage, 2)
	})

	t.Run("hold re-queues and advances updatedAt", func(t *testing.T) {
		freezeClock(t)
		job := qcJob(t)
		before := job.UpdatedAt
		job.ClearDomainEvents()

		rec, err := NewQCInspectionRecord("qc-2", job, InspectionInput{InspectorID: "qc-3", Decision: QCHold})
		require.NoError(t, err)
		require.NoError(t, job.RecordInspection(rec))

		assert.Equal(t, StatusQCPending, job.Status)
		assert.True(t, job.UpdatedAt.After(before))
		require.Len(t, job.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeInspectionRecorded, job.GetDomainEvents()[0].EventType())
	})

	t.Run("invalid records are rejected", func(t *testing.T) {
		job := qcJob(t)
		_, err := NewQCInspectionRecord("qc-3", job, InspectionInput{Decision: QCPass})
		assert.ErrorIs(t, err, ErrValidation)
		_, err = NewQCInspectionRecord("qc-3", job, InspectionInput{InspectorID: "qc-3", Decision: "Recheck Needed"})
		assert.ErrorIs(t, err, ErrValidation)
		_, err = NewQCInspectionRecord("qc-3", job, InspectionInput{
			InspectorID:     "qc-3",
			Decision:        QCFail,
			SpoilageEntries: []SpoilageEntry{{SKU: "G500", Quantity: 0, Reason: SpoilageOther}},
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("services must be known", func(t *testing.T) {
		job := qcJob(t)
		_, err := NewQCInspectionRecord("qc-4", job, InspectionInput{
			InspectorID:     "qc-3",
			Decision:        QCPass,
			ServicesChecked: []string{"Screen Printing", "Screen Print"},
		})
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "servicesChecked", vErr.Field)

		rec, err := NewQCInspectionRecord("qc-4", job, InspectionInput{
			InspectorID:     "qc-3",
			Decision:        QCPass,
			ServicesChecked: []string{"Screen Printing", "DTG", "Full Order"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"Screen Printing", "DTG", "Full Order"}, rec.ServicesChecked)
	})
}

func TestTestPrintApproval(t *testing.T) {
	job := createTestJob(t)

	_, err := NewTestPrintApproval("tp-1", job, testSession(), "")
	assert.ErrorIs(t, err, ErrValidation)

	approval, err := NewTestPrintApproval("tp-1", job, testSession(), "gridfs://photos/abc")
	require.NoError(t, err)
	assert.True(t, approval.IsPending())
	assert.Equal(t, "press-2", approval.MachineID)

	assert.ErrorIs(t, approval.Approve("", "ok"), ErrValidation)
	require.NoError(t, approval.Approve("sup-1", "ok"))
	assert.Equal(t, TestPrintApproved, approval.Status)
	require.NotNil(t, approval.ReviewedAt)

	assert.ErrorIs(t, approval.Deny("sup-1", "changed my mind"), ErrInvalidTransition)
}

func TestJob_ExpectVersion(t *testing.T) {
	job := &Job{ID: "job-1", Status: StatusInProduction, Version: 4}

	assert.NoError(t, job.ExpectVersion(nil))

	current := int64(4)
	assert.NoError(t, job.ExpectVersion(&current))

	older := int64(3)
	err := job.ExpectVersion(&older)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	var stale *StaleStateError
	require.ErrorAs(t, err, &stale)
	assert.Equal(t, int64(3), stale.Expected)
	assert.Equal(t, int64(4), stale.Actual)
}

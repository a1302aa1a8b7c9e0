package application

import "time"

// JobDTO is the API representation of a job
type JobDTO struct {
	ID              string             `json:"id"`
	OrderNumber     string             `json:"orderNumber"`
	CustomerName    string             `json:"customerName"`
	Department      string             `json:"department"`
	Status          string             `json:"status"`
	ProductionState string             `json:"productionState"`
	Quantity        int                `json:"quantity"`
	Priority        bool               `json:"priority"`
	Source          string             `json:"source"`
	DueDate         *time.Time         `json:"dueDate,omitempty"`
	MachineID       string             `json:"machineId,omitempty"`
	OperatorID      string             `json:"operatorId,omitempty"`
	QCInspectorID   string             `json:"qcInspectorId,omitempty"`
	BoxCount        int                `json:"boxCount,omitempty"`
	Weight          float64            `json:"weight,omitempty"`
	Notes           string             `json:"notes,omitempty"`
	ShippingCarrier string             `json:"shippingCarrier,omitempty"`
	TrackingNumber  string             `json:"trackingNumber,omitempty"`
	ShippedAt       *time.Time         `json:"shippedAt,omitempty"`
	Hold            *HoldDTO           `json:"hold,omitempty"`
	Spoilage        []SpoilageEntryDTO `json:"spoilage"`
	TotalSpoiled    int                `json:"totalSpoiled"`
	Activity        []ActivityDTO      `json:"activity"`
	AllowedEvents   []string           `json:"allowedEvents"`
	Version         int64              `json:"version"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

// HoldDTO describes an active hold
type HoldDTO struct {
	Reason         string    `json:"reason"`
	Notes          string    `json:"notes"`
	Photos         []string  `json:"photos,omitempty"`
	PlacedBy       string    `json:"placedBy,omitempty"`
	PreviousStatus string    `json:"previousStatus"`
	PlacedAt       time.Time `json:"placedAt"`
}

// SpoilageEntryDTO is one spoilage line
type SpoilageEntryDTO struct {
	SKU        string    `json:"sku"`
	Size       string    `json:"size"`
	Color      string    `json:"color"`
	Quantity   int       `json:"quantity"`
	Reason     string    `json:"reason"`
	Notes      string    `json:"notes,omitempty"`
	Source     string    `json:"source,omitempty"`
	RecordedAt time.Time `json:"recordedAt"`
}

// ActivityDTO is one line of the activity log
type ActivityDTO struct {
	Event  string    `json:"event"`
	From   string    `json:"from"`
	To     string    `json:"to"`
	Actor  string    `json:"actor,omitempty"`
	Notes  string    `json:"notes,omitempty"`
	Photos []string  `json:"photos,omitempty"`
	At     time.Time `json:"at"`
}

// LineItemDTO is one ordered garment variant
type LineItemDTO struct {
	SKU         string `json:"sku"`
	Size        string `json:"size"`
	Color       string `json:"color"`
	Quantity    int    `json:"quantity"`
	Description string `json:"description,omitempty"`
	Hoodie      bool   `json:"hoodie"`
}

// OperatorSessionDTO is returned by Authenticate
type OperatorSessionDTO struct {
	OperatorID      string    `json:"operatorId"`
	Name            string    `json:"name"`
	Role            string    `json:"role"`
	MachineID       string    `json:"machineId"`
	AuthenticatedAt time.Time `json:"authenticatedAt"`
}

// TestPrintDTO is a test print approval
type TestPrintDTO struct {
	ID              string     `json:"id"`
	JobID           string     `json:"jobId"`
	OrderNumber     string     `json:"orderNumber"`
	OperatorID      string     `json:"operatorId"`
	MachineID       string     `json:"machineId"`
	SupervisorID    string     `json:"supervisorId,omitempty"`
	SupervisorNotes string     `json:"supervisorNotes,omitempty"`
	PhotoURI        string     `json:"photoUri"`
	Status          string     `json:"status"`
	SubmittedAt     time.Time  `json:"submittedAt"`
	ReviewedAt      *time.Time `json:"reviewedAt,omitempty"`
}

// StartProductionResult tells whether production started or a test print
// approval is now pending
type StartProductionResult struct {
	Job             *JobDTO       `json:"job"`
	PendingApproval *TestPrintDTO `json:"pendingApproval,omitempty"`
}

// TestPrintDecisionResult carries both records changed by a decision
type TestPrintDecisionResult struct {
	Approval *TestPrintDTO `json:"approval"`
	Job      *JobDTO       `json:"job"`
}

// PhotoRefDTO points at stored QC evidence
type PhotoRefDTO struct {
	Phase string `json:"phase"`
	URI   string `json:"uri"`
}

// InspectionDTO is a QC inspection record
type InspectionDTO struct {
	ID               string             `json:"id"`
	JobID            string             `json:"jobId"`
	OrderNumber      string             `json:"orderNumber"`
	InspectorID      string             `json:"inspectorId"`
	Mode             string             `json:"mode"`
	ServicesChecked  []string           `json:"servicesChecked"`
	ChecklistResults map[string]bool    `json:"checklistResults"`
	SpoilageEntries  []SpoilageEntryDTO `json:"spoilageEntries"`
	FailReasons      []string           `json:"failReasons"`
	Decision         string             `json:"decision"`
	Notes            string             `json:"notes,omitempty"`
	PhotoRefs        []PhotoRefDTO      `json:"photoRefs"`
	TotalSpoiled     int                `json:"totalSpoiled"`
	CreatedAt        time.Time          `json:"createdAt"`
}

// InspectionResult is returned by RecordInspection
type InspectionResult struct {
	Inspection *InspectionDTO `json:"inspection"`
	Job        *JobDTO        `json:"job"`
}

// PackingEstimateDTO feeds the shipping screen
type PackingEstimateDTO struct {
	JobID                string              `json:"jobId"`
	ShirtUnits           int                 `json:"shirtUnits"`
	HoodieUnits          int                 `json:"hoodieUnits"`
	EstimatedBoxesNeeded int                 `json:"estimatedBoxesNeeded"`
	ShirtsPerBox         int                 `json:"shirtsPerBox"`
	HoodiesPerBox        int                 `json:"hoodiesPerBox"`
	ServiceLevels        map[string][]string `json:"serviceLevels,omitempty"`
}

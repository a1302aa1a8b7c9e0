package application

import (
	"context"
	"fmt"

	"github.com/decoflow/production-service/internal/domain"
	"github.com/decoflow/production-service/pkg/logging"
	"github.com/decoflow/production-service/pkg/metrics"
)

// Dependencies are the collaborators shared by the application services
type Dependencies struct {
	Jobs        domain.JobRepository
	LineItems   domain.LineItemSource
	TestPrints  domain.TestPrintRepository
	Inspections domain.InspectionRepository
	Transactor  domain.Transactor
	Photos      domain.PhotoStore
	Directory   domain.OperatorDirectory
	Dispatcher  *Dispatcher
	Logger      *logging.Logger
	Metrics     *metrics.Metrics

	ManagerOverrideCode string
	ConflictRetries     int
}

// Services groups the application services. They share one job runner so
// that every mutation of a job, whichever service makes it, is serialised.
type Services struct {
	Jobs       *JobService
	Production *ProductionService
	QC         *QCService
	Shipping   *ShippingService
}

// NewServices wires the application services
func NewServices(deps Dependencies) *Services {
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	retries := deps.ConflictRetries
	if retries <= 0 {
		retries = DefaultConflictRetries
	}

	runner := &jobRunner{
		jobs:    deps.Jobs,
		tx:      deps.Transactor,
		locks:   newKeyedMutex(),
		retries: retries,
		logger:  deps.Logger.WithComponent("job-runner"),
		metrics: deps.Metrics,
	}
	photos := &photoUploader{store: deps.Photos}

	return &Services{
		Jobs: &JobService{
			jobs:        deps.Jobs,
			lineItems:   deps.LineItems,
			testPrints:  deps.TestPrints,
			inspections: deps.Inspections,
			runner:      runner,
			logger:      deps.Logger.WithComponent("job-service"),
		},
		Production: &ProductionService{
			runner:      runner,
			lineItems:   deps.LineItems,
			testPrints:  deps.TestPrints,
			directory:   deps.Directory,
			photos:      photos,
			dispatcher:  deps.Dispatcher,
			managerCode: deps.ManagerOverrideCode,
			logger:      deps.Logger.WithComponent("production-service"),
			metrics:     deps.Metrics,
		},
		QC: &QCService{
			runner:      runner,
			inspections: deps.Inspections,
			photos:      photos,
			dispatcher:  deps.Dispatcher,
			logger:      deps.Logger.WithComponent("qc-service"),
		},
		Shipping: &ShippingService{
			runner:    runner,
			jobs:      deps.Jobs,
			lineItems: deps.LineItems,
			logger:    deps.Logger.WithComponent("shipping-service"),
		},
	}
}

// photoUploader stores photos ahead of the critical section
type photoUploader struct {
	store domain.PhotoStore
}

func (p *photoUploader) upload(ctx context.Context, photo Photo) (string, error) {
	if len(photo.Data) == 0 {
		return "", domain.NewValidationError("photo", "photo is empty")
	}
	if p.store == nil {
		return "", fmt.Errorf("no photo store configured")
	}
	return p.store.Store(ctx, photo.Data, photo.ContentType)
}

func (p *photoUploader) uploadAll(ctx context.Context, photos []Photo) ([]string, error) {
	if len(photos) == 0 {
		return nil, nil
	}
	uris := make([]string, 0, len(photos))
	for _, photo := range photos {
		uri, err := p.upload(ctx, photo)
		if err != nil {
			return nil, err
		}
		uris = append(uris, uri)
	}
	return uris, nil
}

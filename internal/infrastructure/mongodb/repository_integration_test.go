//go:build integration

package mongodb

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/decoflow/production-service/internal/domain"
	"github.com/decoflow/production-service/pkg/cloudevents"
	pkgmongo "github.com/decoflow/production-service/pkg/mongodb"
)

type RepositoryIntegrationTestSuite struct {
	suite.Suite
	ctx            context.Context
	mongoContainer *tcmongo.MongoDBContainer
	client         *pkgmongo.Client
	db             *mongo.Database
	jobs           *JobRepository
	testPrints     *TestPrintRepository
	inspections    *InspectionRepository
	photos         *PhotoStore
	transactor     *Transactor
}

func TestRepositoryIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping MongoDB integration tests in short mode")
	}
	suite.Run(t, new(RepositoryIntegrationTestSuite))
}

func (s *RepositoryIntegrationTestSuite) SetupSuite() {
	s.ctx = context.Background()

	// transactions need a replica set
	container, err := tcmongo.Run(s.ctx, "mongo:6", tcmongo.WithReplicaSet("rs"))
	s.Require().NoError(err)
	s.mongoContainer = container

	connStr, err := container.ConnectionString(s.ctx)
	s.Require().NoError(err)
	u, err := url.Parse(connStr)
	s.Require().NoError(err)
	q := u.Query()
	q.Set("directConnection", "true")
	u.RawQuery = q.Encode()
	if u.Path == "" {
		u.Path = "/"
	}

	s.client, err = pkgmongo.NewClient(s.ctx, &pkgmongo.Config{
		URI:            u.String(),
		Database:       "production_test",
		ConnectTimeout: 10 * time.Second,
		MaxPoolSize:    10,
	})
	s.Require().NoError(err)
	s.db = s.client.Database()

	s.transactor = NewTransactor(s.client)
	s.jobs = NewJobRepository(s.db, s.transactor, cloudevents.NewEventFactory("/production-service"))
	s.testPrints = NewTestPrintRepository(s.db)
	s.inspections = NewInspectionRepository(s.db)
	s.photos, err = NewPhotoStore(s.db)
	s.Require().NoError(err)
}

func (s *RepositoryIntegrationTestSuite) TearDownSuite() {
	if s.client != nil {
		_ = s.client.Close(s.ctx)
	}
	if s.mongoContainer != nil {
		s.Require().NoError(testcontainers.TerminateContainer(s.mongoContainer))
	}
}

func (s *RepositoryIntegrationTestSuite) TearDownTest() {
	for _, name := range []string{jobsCollection, lineItemsCollection, testPrintsCollection, inspectionsCollection, "outbox_events"} {
		_, _ = s.db.Collection(name).DeleteMany(s.ctx, map[string]any{})
	}
}

func (s *RepositoryIntegrationTestSuite) newJob(id string, priority bool) *domain.Job {
	job, err := domain.NewJob(domain.NewJobParams{
		ID:           id,
		OrderNumber:  "CI-" + id,
		CustomerName: "Northside Little League",
		Department:   domain.DepartmentEmbroidery,
		Quantity:     18,
		Priority:     priority,
		Source:       domain.SourceCustomInk,
	})
	s.Require().NoError(err)
	return job
}

func (s *RepositoryIntegrationTestSuite) TestCreateFindAndOutbox() {
	job := s.newJob("job-1", false)
	items := []domain.LineItem{{SKU: "G185", Size: "M", Color: "Navy", Quantity: 18, Description: "Hoodie"}}
	s.Require().NoError(s.jobs.Create(s.ctx, job, items))
	s.Equal(int64(1), job.Version)

	found, err := s.jobs.FindByID(s.ctx, "job-1")
	s.Require().NoError(err)
	s.Equal(domain.StatusNew, found.Status)

	gotItems, err := s.jobs.GetLineItems(s.ctx, "job-1")
	s.Require().NoError(err)
	s.Equal(items, gotItems)

	s.ErrorIs(s.jobs.Create(s.ctx, s.newJob("job-1", false), nil), domain.ErrAlreadyExists)

	events, err := s.jobs.OutboxRepository().FindByAggregateID(s.ctx, "job-1")
	s.Require().NoError(err)
	s.Len(events, 1)

	_, err = s.jobs.FindByID(s.ctx, "missing")
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *RepositoryIntegrationTestSuite) TestUpdateIsCompareAndSwap() {
	s.Require().NoError(s.jobs.Create(s.ctx, s.newJob("job-1", false), nil))

	a, err := s.jobs.FindByID(s.ctx, "job-1")
	s.Require().NoError(err)
	b, err := s.jobs.FindByID(s.ctx, "job-1")
	s.Require().NoError(err)

	session := domain.OperatorSession{OperatorID: "op-1", MachineID: "emb-1"}
	s.Require().NoError(a.RequestTestPrint(session))
	s.Require().NoError(s.jobs.Update(s.ctx, a))
	s.Equal(int64(2), a.Version)

	s.Require().NoError(b.RequestTestPrint(session))
	s.ErrorIs(s.jobs.Update(s.ctx, b), domain.ErrVersionConflict)

	stored, err := s.jobs.FindByID(s.ctx, "job-1")
	s.Require().NoError(err)
	s.Equal(int64(2), stored.Version)
	s.Len(stored.Activity, 1)
}

func (s *RepositoryIntegrationTestSuite) TestListOrdersPriorityFirst() {
	s.Require().NoError(s.jobs.Create(s.ctx, s.newJob("a", false), nil))
	time.Sleep(2 * time.Millisecond)
	s.Require().NoError(s.jobs.Create(s.ctx, s.newJob("b", true), nil))

	jobs, err := s.jobs.List(s.ctx, domain.JobFilter{Department: domain.DepartmentEmbroidery})
	s.Require().NoError(err)
	s.Require().Len(jobs, 2)
	s.Equal("b", jobs[0].ID)

	jobs, err = s.jobs.List(s.ctx, domain.JobFilter{Statuses: []domain.Status{domain.StatusOnHold}})
	s.Require().NoError(err)
	s.Empty(jobs)
}

func (s *RepositoryIntegrationTestSuite) TestTestPrintsAndInspections() {
	job := s.newJob("job-1", false)
	approval, err := domain.NewTestPrintApproval("tp-1", job, domain.OperatorSession{OperatorID: "op-1"}, "gridfs://photos/x")
	s.Require().NoError(err)
	s.Require().NoError(s.testPrints.Save(s.ctx, approval))

	pending, err := s.testPrints.FindPendingByJobID(s.ctx, "job-1")
	s.Require().NoError(err)
	s.Require().NoError(pending.Deny("sup-1", "ink too light"))
	s.Require().NoError(s.testPrints.Save(s.ctx, pending))

	stale := *approval
	s.Require().NoError(stale.Approve("sup-2", ""))
	s.ErrorIs(s.testPrints.Save(s.ctx, &stale), domain.ErrVersionConflict)

	denied, err := s.testPrints.List(s.ctx, domain.TestPrintDenied, 10)
	s.Require().NoError(err)
	s.Len(denied, 1)

	rec, err := domain.NewQCInspectionRecord("qc-1", job, domain.InspectionInput{InspectorID: "qc-1", Decision: domain.QCFail})
	s.Require().NoError(err)
	s.Require().NoError(s.inspections.Insert(s.ctx, rec))
	s.ErrorIs(s.inspections.Insert(s.ctx, rec), domain.ErrAlreadyExists)

	records, err := s.inspections.FindByJobID(s.ctx, "job-1")
	s.Require().NoError(err)
	s.Len(records, 1)
}

func (s *RepositoryIntegrationTestSuite) TestPhotoRoundTrip() {
	uri, err := s.photos.Store(s.ctx, []byte("png-bytes"), "image/png")
	s.Require().NoError(err)

	data, contentType, err := s.photos.Load(s.ctx, uri)
	s.Require().NoError(err)
	s.Equal([]byte("png-bytes"), data)
	s.Equal("image/png", contentType)

	_, _, err = s.photos.Load(s.ctx, "gridfs://photos/650000000000000000000000")
	s.ErrorIs(err, domain.ErrNotFound)
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpostbud/postbud/internal/data"
	"github.com/openpostbud/postbud/internal/data/cryptoutil"
	"github.com/openpostbud/postbud/internal/domain/model"
	"github.com/openpostbud/postbud/internal/testutil"
)

func newRegistrationService(t *testing.T) (*RegistrationService, func()) {
	t.Helper()
	db := testutil.SetupTestDB(t)

	svc, err := NewRegistrationService(RegistrationServiceOptions{
		DB:    db,
		Jobs:  data.NewRegistrationJobRepo(db, data.RepoConfig{}),
		Tasks: data.NewRegistrationTaskRepo(db, cryptoutil.NoopEncryptor{}, data.RepoConfig{}),
	})
	require.NoError(t, err)

	return svc, func() { testutil.TeardownTestDB(t, db) }
}

func TestNewRegistrationServiceValidation(t *testing.T) {
	_, err := NewRegistrationService(RegistrationServiceOptions{})
	assert.ErrorContains(t, err, "database connection is required")
}

func TestCreateWithTasks(t *testing.T) {
	svc, teardown := newRegistrationService(t)
	defer teardown()
	ctx := context.Background()

	req := testutil.NewRegistrationJobRequest().WithJobType(model.JobTypeNemSMS).Build()
	registrantList := []byte("0101011234\n0202022345\n\n0303033456\n")

	job, err := svc.CreateWithTasks(ctx, req, registrantList)
	require.NoError(t, err)
	assert.Equal(t, model.JobTypeNemSMS, job.JobType)

	tasks, err := svc.Tasks(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "0101011234", tasks[0].RegistrantID)
	assert.Equal(t, model.TaskStatusWaiting, tasks[0].Status)

	stats, err := svc.Stats(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStats{Waiting: 3}, stats)
}

func TestCreateWithTasksEmptyListCreatesNothing(t *testing.T) {
	svc, teardown := newRegistrationService(t)
	defer teardown()
	ctx := context.Background()

	req := testutil.NewRegistrationJobRequest().Build()
	_, err := svc.CreateWithTasks(ctx, req, []byte("\n\n"))
	require.Error(t, err)

	jobs, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestCreateWithTasksRejectsInvalidRequest(t *testing.T) {
	svc, teardown := newRegistrationService(t)
	defer teardown()
	ctx := context.Background()

	req := testutil.NewRegistrationJobRequest().WithName("").Build()
	_, err := svc.CreateWithTasks(ctx, req, []byte("0101011234\n"))
	require.ErrorContains(t, err, "name is required")

	jobs, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestRequeueTaskOnlyFromFailed(t *testing.T) {
	svc, teardown := newRegistrationService(t)
	defer teardown()
	ctx := context.Background()

	req := testutil.NewRegistrationJobRequest().Build()
	job, err := svc.CreateWithTasks(ctx, req, []byte("0101011234\n"))
	require.NoError(t, err)

	tasks, err := svc.Tasks(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	// Still waiting; nothing to requeue.
	requeued, err := svc.RequeueTask(ctx, tasks[0].ID)
	require.NoError(t, err)
	assert.False(t, requeued)
}

func TestRegistrationPublicIDRoundTrip(t *testing.T) {
	svc, teardown := newRegistrationService(t)
	defer teardown()

	public := svc.PublicID(42)
	assert.Equal(t, "R", public[:1])

	id, err := svc.ResolveID(public)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	// Shipment-prefixed ids never resolve as jobs.
	_, err = svc.ResolveID("S12345")
	assert.Error(t, err)
}

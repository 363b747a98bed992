package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpostbud/postbud/internal/data"
	"github.com/openpostbud/postbud/internal/data/cryptoutil"
	"github.com/openpostbud/postbud/internal/domain/model"
	"github.com/openpostbud/postbud/internal/testutil"
)

func newShipmentService(t *testing.T) (*ShipmentService, *sql.DB, func()) {
	t.Helper()
	db := testutil.SetupTestDB(t)

	svc, err := NewShipmentService(ShipmentServiceOptions{
		DB:        db,
		Shipments: data.NewShipmentRepo(db, data.RepoConfig{}),
		Letters:   data.NewLetterRepo(db, cryptoutil.NoopEncryptor{}, data.RepoConfig{}),
	})
	require.NoError(t, err)

	return svc, db, func() { testutil.TeardownTestDB(t, db) }
}

func storeTemplate(t *testing.T, db *sql.DB) int64 {
	t.Helper()
	id, err := data.NewTemplateRepo(db).Create(
		context.Background(), "brev.html", []byte("Hej «Navn»"), []string{"Navn"})
	require.NoError(t, err)
	return id
}

func TestCreateWithLetters(t *testing.T) {
	svc, db, teardown := newShipmentService(t)
	defer teardown()
	ctx := context.Background()

	templateID := storeTemplate(t, db)
	req := testutil.NewShipmentRequest().WithTemplateID(templateID).Build()
	csvFile := []byte("Modtager,Navn\n0101011234,Jens\n0202022345,Bo\n")

	shipment, err := svc.CreateWithLetters(ctx, req, csvFile, "")
	require.NoError(t, err)
	assert.Equal(t, templateID, shipment.TemplateID)

	letters, err := svc.Letters(ctx, shipment.ID)
	require.NoError(t, err)
	require.Len(t, letters, 2)
	assert.Equal(t, "0101011234", letters[0].RecipientID)
	assert.Equal(t, map[string]string{"Navn": "Jens"}, letters[0].FieldData)
	assert.Equal(t, model.LetterStatusWaiting, letters[0].Status)

	stats, err := svc.Stats(ctx, shipment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LetterStats{Waiting: 2}, stats)
}

func TestCreateWithLettersBadCSVCreatesNothing(t *testing.T) {
	svc, db, teardown := newShipmentService(t)
	defer teardown()
	ctx := context.Background()

	templateID := storeTemplate(t, db)
	req := testutil.NewShipmentRequest().WithTemplateID(templateID).Build()

	// Missing recipient column rejects the whole file before any insert.
	_, err := svc.CreateWithLetters(ctx, req, []byte("Navn\nJens\n"), "")
	require.ErrorContains(t, err, `required column "Modtager" is missing`)

	// An empty recipient on any row does the same.
	req = testutil.NewShipmentRequest().WithTemplateID(templateID).Build()
	_, err = svc.CreateWithLetters(ctx, req, []byte("Modtager,Navn\n0101011234,Jens\n,Bo\n"), "")
	require.Error(t, err)

	shipments, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, shipments)
}

func TestCreateWithLettersMissingTemplateRollsBack(t *testing.T) {
	svc, _, teardown := newShipmentService(t)
	defer teardown()
	ctx := context.Background()

	req := testutil.NewShipmentRequest().WithTemplateID(999999).Build()
	_, err := svc.CreateWithLetters(ctx, req, []byte("Modtager,Navn\n0101011234,Jens\n"), "")
	require.ErrorIs(t, err, data.ErrTemplateNotFound)

	shipments, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, shipments)
}

func TestMarkLetterReceived(t *testing.T) {
	svc, db, teardown := newShipmentService(t)
	defer teardown()
	ctx := context.Background()

	templateID := storeTemplate(t, db)
	req := testutil.NewShipmentRequest().WithTemplateID(templateID).Build()
	shipment, err := svc.CreateWithLetters(ctx, req, []byte("Modtager\n0101011234\n"), "")
	require.NoError(t, err)

	letters := data.NewLetterRepo(db, cryptoutil.NoopEncryptor{}, data.RepoConfig{})
	letter, err := letters.ClaimNext(ctx)
	require.NoError(t, err)
	_, err = letters.MarkSent(ctx, letter.ID, "txn-1")
	require.NoError(t, err)

	received, err := svc.MarkLetterReceived(ctx, letter.ID)
	require.NoError(t, err)
	assert.True(t, received)

	stats, err := svc.Stats(ctx, shipment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LetterStats{Received: 1}, stats)
}

func TestShipmentPublicIDRoundTrip(t *testing.T) {
	svc, _, teardown := newShipmentService(t)
	defer teardown()

	public := svc.PublicID(7)
	assert.Equal(t, "S", public[:1])

	id, err := svc.ResolveID(public)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
}

package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/recall-outreach/internal/errors"
)

var contactCols = []string{"id", "campaign_id", "phone", "first_name", "last_name", "vin", "year",
	"make", "model", "recall_code", "recall_desc", "language", "opt_out"}

func TestContactGetByIDMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	const id = "0b7e3f52-8d1c-4a6e-b2f9-6c5d4e3a2b10"
	mock.ExpectQuery(regexp.QuoteMeta(`FROM contacts WHERE id = $1`)).WithArgs(id).
		WillReturnRows(sqlmock.NewRows(contactCols))

	c, err := (&ContactRepository{DB: db}).GetByID(context.Background(), id)
	require.NoError(t, err)
	require.Nil(t, c)
}

func TestContactSearchLowercasesTerm(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`lower(first_name || ' ' || last_name) LIKE $1`)).WithArgs("%ana diaz%", 50).
		WillReturnRows(sqlmock.NewRows(contactCols).
			AddRow("k1", "c1", "+15550001", "Ana", "Diaz", "VIN1", 2019, "Honda", "Civic", "20V-123", "Airbag", "Spanish", false))

	contacts, err := (&ContactRepository{DB: db}).Search(context.Background(), " Ana Diaz ", 50)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	require.Equal(t, 2019, contacts[0].Year)
	require.Equal(t, "Civic", contacts[0].Model)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContactSetOptOutUnknown(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	const id = "9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE contacts SET opt_out`)).WithArgs(true, id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = (&ContactRepository{DB: db}).SetOptOut(context.Background(), id, true)
	require.True(t, appErrors.IsNotFound(err))
}

func TestMalformedContactIDSkipsQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := &ContactRepository{DB: db}
	c, err := repo.GetByID(context.Background(), "abc")
	require.NoError(t, err)
	require.Nil(t, c)
	require.True(t, appErrors.IsNotFound(repo.SetOptOut(context.Background(), "abc", true)))
	require.NoError(t, mock.ExpectationsWereMet())
}

package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/recall-outreach/internal/errors"
)

func TestFunnelStatsSplitsStages(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT`)).WithArgs("camp").
		WillReturnRows(sqlmock.NewRows([]string{"total", "messaged", "scheduled"}).AddRow(10, 4, 1))

	repo := &CampaignRepository{DB: db}
	stats, err := repo.FunnelStats(context.Background(), "camp")
	require.NoError(t, err)
	require.Equal(t, 6, stats.Sent)
	require.Equal(t, 3, stats.Delivered)
	require.Equal(t, 1, stats.Scheduled)
}

func TestDeleteUnknownCampaign(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	const id = "5f0c6a7e-3b2d-4c1a-9e8f-0a1b2c3d4e5f"
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM campaigns`)).WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := &CampaignRepository{DB: db}
	err = repo.Delete(context.Background(), id)
	require.True(t, appErrors.IsNotFound(err))
}

func TestMalformedCampaignIDIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := &CampaignRepository{DB: db}
	_, err = repo.GetByID(context.Background(), "abc")
	require.True(t, appErrors.IsNotFound(err))
	require.True(t, appErrors.IsNotFound(repo.Delete(context.Background(), "abc")))
	require.NoError(t, mock.ExpectationsWereMet())
}

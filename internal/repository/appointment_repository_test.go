package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/recall-outreach/internal/errors"
	"github.com/unclebandit/recall-outreach/internal/model"
)

var (
	selectInWindow    = regexp.QuoteMeta(`SELECT id FROM appointments`)
	insertAppointment = regexp.QuoteMeta(`INSERT INTO appointments`)
)

func hourWindow() (time.Time, time.Time) {
	start := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	return start, start.Add(time.Hour - time.Millisecond)
}

func newMock(t *testing.T) (*AppointmentRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &AppointmentRepository{DB: db}, mock
}

func TestBookInsertsInsideTransaction(t *testing.T) {
	repo, mock := newMock(t)
	from, to := hourWindow()

	mock.ExpectBegin()
	mock.ExpectQuery(selectInWindow).WithArgs(from, to).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(insertAppointment).
		WithArgs("appt-1", nil, "contact-1", from).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("appt-1"))
	mock.ExpectCommit()

	appt := &model.Appointment{ID: "appt-1", ContactID: "contact-1", ScheduledAt: from}
	require.NoError(t, repo.Book(context.Background(), appt, from, to))
	require.Equal(t, "appt-1", appt.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRejectsOccupiedWindow(t *testing.T) {
	repo, mock := newMock(t)
	from, to := hourWindow()

	mock.ExpectBegin()
	mock.ExpectQuery(selectInWindow).WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("other"))
	mock.ExpectRollback()

	err := repo.Book(context.Background(), &model.Appointment{ID: "x", ContactID: "c", ScheduledAt: from}, from, to)
	require.ErrorIs(t, err, appErrors.ErrSlotTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookMapsUniqueViolationToSlotTaken(t *testing.T) {
	repo, mock := newMock(t)
	from, to := hourWindow()

	mock.ExpectBegin()
	mock.ExpectQuery(selectInWindow).WithArgs(from, to).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(insertAppointment).WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := repo.Book(context.Background(), &model.Appointment{ID: "x", ContactID: "c", ScheduledAt: from}, from, to)
	require.ErrorIs(t, err, appErrors.ErrSlotTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookMapsMissingRowToNotCreated(t *testing.T) {
	repo, mock := newMock(t)
	from, to := hourWindow()

	mock.ExpectBegin()
	mock.ExpectQuery(selectInWindow).WithArgs(from, to).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(insertAppointment).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := repo.Book(context.Background(), &model.Appointment{ID: "x", ContactID: "c", ScheduledAt: from}, from, to)
	require.ErrorIs(t, err, appErrors.ErrAppointmentNotCreated)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListBetweenScansNullableCampaign(t *testing.T) {
	repo, mock := newMock(t)
	from, to := hourWindow()

	rows := sqlmock.NewRows([]string{"id", "campaign_id", "contact_id", "scheduled_at"}).
		AddRow("a1", nil, "c1", from).
		AddRow("a2", "camp", "c2", from.Add(2*time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM appointments`)).WithArgs(from, to).WillReturnRows(rows)

	items, err := repo.ListBetween(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Nil(t, items[0].CampaignID)
	require.Equal(t, "camp", *items[1].CampaignID)
}

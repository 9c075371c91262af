package orders

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

var orderColumns = []string{
	"id", "code", "name", "origin", "destination", "user", "status",
	"dispatch_date", "volume", "weight", "number_of_bags",
}

func TestFindByStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db)

	dispatch := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(orderColumns).
		AddRow(1, "ORD-001", "Block North", "Madrid", "Valencia", "operator1", "APPROVED", dispatch, 12.5, 340.0, 4).
		AddRow(2, "ORD-002", "Block South", "Sevilla", "Cadiz", "operator2", "APPROVED", nil, nil, nil, 0)

	mock.ExpectQuery(`SELECT (.+) FROM orders o LEFT JOIN blocks b ON b.id = o.block_id WHERE o.status = \$1`).
		WithArgs(StatusApproved).
		WillReturnRows(rows)

	ctx := context.Background()
	result, err := repo.FindByStatus(ctx, StatusApproved)
	assert.NoError(t, err)
	assert.Len(t, result, 2)
	assert.Equal(t, int64(1), result[0].ID)
	assert.Equal(t, "Block North", result[0].BlockName)
	assert.Equal(t, StatusApproved, result[0].Status)
	assert.NotNil(t, result[0].DispatchDate)
	assert.Equal(t, dispatch, *result[0].DispatchDate)
	assert.Nil(t, result[1].DispatchDate)
	assert.Nil(t, result[1].Volume)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByStatus_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM orders`).
		WithArgs(StatusApproved).
		WillReturnRows(sqlmock.NewRows(orderColumns))

	ctx := context.Background()
	result, err := repo.FindByStatus(ctx, StatusApproved)
	assert.NoError(t, err)
	assert.Empty(t, result)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFind(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db)

	rows := sqlmock.NewRows(orderColumns).
		AddRow(42, "ORD-042", "Block East", "A", "B", "operator1", "APPROVED", nil, nil, nil, 2)

	mock.ExpectQuery(`SELECT (.+) FROM orders o LEFT JOIN blocks b ON b.id = o.block_id WHERE o.id = \$1`).
		WithArgs(int64(42)).
		WillReturnRows(rows)

	ctx := context.Background()
	order, err := repo.Find(ctx, 42)
	assert.NoError(t, err)
	assert.NotNil(t, order)
	assert.Equal(t, int64(42), order.ID)
	assert.Equal(t, "ORD-042", order.Code)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFind_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM orders`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(orderColumns))

	ctx := context.Background()
	order, err := repo.Find(ctx, 99)
	assert.NoError(t, err)
	assert.Nil(t, order)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsolidatedPayload(t *testing.T) {
	volume := 12.5
	order := Order{
		ID:           42,
		Code:         "ORD-042",
		BlockName:    "Block East",
		Origin:       "A",
		Destination:  "B",
		User:         "operator1",
		NumberOfBags: 3,
		Volume:       &volume,
	}

	payload := order.ConsolidatedPayload()
	assert.Equal(t, int64(42), payload["order_id"])
	assert.Equal(t, "ORD-042", payload["code"])
	assert.Equal(t, "Block East", payload["block"])
	assert.Equal(t, "A", payload["origin"])
	assert.Equal(t, "B", payload["destination"])
	assert.Equal(t, 12.5, payload["volume"])
	assert.NotContains(t, payload, "weight")
	assert.NotContains(t, payload, "dispatch_date")
}

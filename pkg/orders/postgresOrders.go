package orders

import (
	"context"
	"database/sql"
	"fmt"

	"go.opentelemetry.io/otel"
)

const selectColumns = `o.id, o.code, COALESCE(b.name, ''), o.origin, o.destination, o."user", o.status, o.dispatch_date, o.volume, o.weight, o.number_of_bags`

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (p *PostgresRepository) FindByStatus(ctx context.Context, status Status) ([]Order, error) {
	tracer := otel.Tracer("dispatch-outbox")
	ctx, span := tracer.Start(ctx, "FindByStatus")
	defer span.End()

	rows, err := p.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s FROM orders o LEFT JOIN blocks b ON b.id = o.block_id WHERE o.status = $1`, selectColumns),
		status)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("find orders by status %s: %w", status, err)
	}
	defer rows.Close()

	var result []Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		result = append(result, *order)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("find orders by status %s: %w", status, err)
	}

	return result, nil
}

func (p *PostgresRepository) Find(ctx context.Context, id int64) (*Order, error) {
	tracer := otel.Tracer("dispatch-outbox")
	ctx, span := tracer.Start(ctx, "Find")
	defer span.End()

	row := p.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM orders o LEFT JOIN blocks b ON b.id = o.block_id WHERE o.id = $1`, selectColumns),
		id)

	order, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return order, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var order Order
	var dispatchDate sql.NullTime
	var volume, weight sql.NullFloat64
	err := row.Scan(
		&order.ID,
		&order.Code,
		&order.BlockName,
		&order.Origin,
		&order.Destination,
		&order.User,
		&order.Status,
		&dispatchDate,
		&volume,
		&weight,
		&order.NumberOfBags,
	)
	if err != nil {
		return nil, err
	}
	if dispatchDate.Valid {
		t := dispatchDate.Time.UTC()
		order.DispatchDate = &t
	}
	if volume.Valid {
		order.Volume = &volume.Float64
	}
	if weight.Valid {
		order.Weight = &weight.Float64
	}
	return &order, nil
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/R3E-Network/orders_service/internal/app/domain/order"
	"github.com/R3E-Network/orders_service/internal/app/storage"
)

// Store implements storage.OrderStore backed by PostgreSQL. Items are kept in a
// JSONB column of the order row.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

var _ storage.OrderStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// NewFromSQL wraps a database/sql handle opened with the "postgres" driver.
func NewFromSQL(db *sql.DB) *Store {
	return New(sqlx.NewDb(db, "postgres"))
}

type orderRow struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	OrderDate time.Time `db:"order_date"`
	TotalBill float64   `db:"total_bill"`
	Items     []byte    `db:"items"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r orderRow) toOrder() (order.Order, error) {
	o := order.Order{
		ID:        r.ID,
		UserID:    r.UserID,
		OrderDate: r.OrderDate.UTC(),
		TotalBill: r.TotalBill,
	}
	if len(r.Items) > 0 {
		if err := json.Unmarshal(r.Items, &o.Items); err != nil {
			return order.Order{}, fmt.Errorf("decode items of order %s: %w", r.ID, err)
		}
	}
	return o, nil
}

const selectOrders = `
	SELECT id, user_id, order_date, total_bill, items, created_at, updated_at
	FROM orders`

// --- OrderStore -------------------------------------------------------------

func (s *Store) AddOrder(ctx context.Context, o order.Order) (order.Order, error) {
	o = o.Clone()
	storage.AssignIDs(&o)

	itemsJSON, err := json.Marshal(itemsOrEmpty(o.Items))
	if err != nil {
		return order.Order{}, err
	}
	now := s.now()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, order_date, total_bill, items, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, o.ID, o.UserID, o.OrderDate.UTC(), o.TotalBill, itemsJSON, now, now)
	if err != nil {
		return order.Order{}, fmt.Errorf("insert order %s: %w", o.ID, err)
	}
	return o, nil
}

func (s *Store) UpdateOrder(ctx context.Context, o order.Order) (order.Order, error) {
	o = o.Clone()
	storage.AssignIDs(&o)

	itemsJSON, err := json.Marshal(itemsOrEmpty(o.Items))
	if err != nil {
		return order.Order{}, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET user_id = $2, order_date = $3, total_bill = $4, items = $5, updated_at = $6
		WHERE id = $1
	`, o.ID, o.UserID, o.OrderDate.UTC(), o.TotalBill, itemsJSON, s.now())
	if err != nil {
		return order.Order{}, fmt.Errorf("update order %s: %w", o.ID, err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return order.Order{}, storage.ErrNotFound
	}
	return o, nil
}

func (s *Store) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order %s: %w", id, err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) GetOrder(ctx context.Context, filter order.Filter) (order.Order, error) {
	where, args, err := buildWhere(filter)
	if err != nil {
		return order.Order{}, err
	}

	var row orderRow
	query := selectOrders + where + ` ORDER BY order_date, id LIMIT 1`
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return order.Order{}, storage.ErrNotFound
		}
		return order.Order{}, fmt.Errorf("get order: %w", err)
	}
	return row.toOrder()
}

func (s *Store) ListOrders(ctx context.Context, filter order.Filter) ([]order.Order, error) {
	where, args, err := buildWhere(filter)
	if err != nil {
		return nil, err
	}

	var rows []orderRow
	query := selectOrders + where + ` ORDER BY order_date, id`
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	result := make([]order.Order, 0, len(rows))
	for _, row := range rows {
		o, err := row.toOrder()
		if err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	return result, nil
}

// buildWhere renders filter as a WHERE clause with positional arguments.
func buildWhere(filter order.Filter) (string, []any, error) {
	var (
		clauses []string
		args    []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if filter.OrderID != uuid.Nil {
		add("id = $%d", filter.OrderID)
	}
	if filter.UserID != uuid.Nil {
		add("user_id = $%d", filter.UserID)
	}
	if filter.ProductID != uuid.Nil {
		contains, err := json.Marshal([]map[string]string{{"productID": filter.ProductID.String()}})
		if err != nil {
			return "", nil, err
		}
		add("items @> $%d::jsonb", string(contains))
	}
	if !filter.OrderDate.IsZero() {
		start, end := filter.DayBounds()
		add("order_date >= $%d", start)
		add("order_date < $%d", end)
	}

	if len(clauses) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func itemsOrEmpty(items []order.Item) []order.Item {
	if items == nil {
		return []order.Item{}
	}
	return items
}

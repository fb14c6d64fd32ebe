// Package repository contains the PostgreSQL data access layer.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/monkeystudio/gfx-order-system/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrOrderNotFound is returned when no order exists with the requested id.
var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrAdminNotFound is returned when no admin account matches the lookup.
	ErrAdminNotFound = errors.New("admin not found")
	// ErrAdminExists is returned when an admin with the same username or email already exists.
	ErrAdminExists = errors.New("admin already exists")
	// ErrPaymentNotUnpaid is returned when a customer self-report hits an order that is not Unpaid.
	ErrPaymentNotUnpaid = errors.New("order payment is not unpaid")
)

const orderColumns = `id, email, discord_user, roblox_user, gfx_type, details, image_url,
	 status, payment_status, price_robux, created_at`

// PostgresRepository provides access to the PostgreSQL backing store.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a repository and initializes the schema via migrations.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	var err error
	delays := []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

	for i := 0; i <= len(delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected {
				if i < len(delays) {
					time.Sleep(delays[i])
					continue
				}
			}
		}

		if isConnectionError(err) {
			if i < len(delays) {
				time.Sleep(delays[i])
				continue
			}
		}

		break
	}
	return err
}

func isConnectionError(err error) bool {
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close closes the database connection pool.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(&o.ID, &o.Email, &o.DiscordUser, &o.RobloxUser, &o.GfxType,
		&o.Details, &o.ImageURL, &o.Status, &o.PaymentStatus, &o.PriceRobux, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateOrder inserts a new order and fills in its assigned id and creation time.
func (r *PostgresRepository) CreateOrder(ctx context.Context, o *model.Order) error {
	return r.withRetry(ctx, func() error {
		err := r.pool.QueryRow(ctx,
			`INSERT INTO orders (email, discord_user, roblox_user, gfx_type, details, image_url,
			                     status, payment_status, price_robux)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 RETURNING id, created_at`,
			o.Email, o.DiscordUser, o.RobloxUser, o.GfxType, o.Details, o.ImageURL,
			string(o.Status), string(o.PaymentStatus), o.PriceRobux,
		).Scan(&o.ID, &o.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		return nil
	})
}

// GetOrders returns every order, newest first.
func (r *PostgresRepository) GetOrders(ctx context.Context) ([]model.Order, error) {
	return r.selectOrders(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id DESC`)
}

// GetOrdersByEmail returns the orders whose email field matches exactly.
// The match is case sensitive on purpose.
func (r *PostgresRepository) GetOrdersByEmail(ctx context.Context, email string) ([]model.Order, error) {
	return r.selectOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE email = $1 ORDER BY created_at DESC, id DESC`,
		email)
}

func (r *PostgresRepository) selectOrders(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return orders, nil
}

// GetOrder returns the order with the given id.
func (r *PostgresRepository) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// UpdateOrderStatus overwrites the status of the order with the given id.
// A single conditional update keyed by id; last writer wins.
func (r *PostgresRepository) UpdateOrderStatus(ctx context.Context, id int64, status model.OrderStatus) (*model.Order, error) {
	return r.updateOrder(ctx,
		`UPDATE orders SET status = $2 WHERE id = $1 RETURNING `+orderColumns,
		id, string(status))
}

// UpdateOrderPayment overwrites the payment status of the order with the given id.
func (r *PostgresRepository) UpdateOrderPayment(ctx context.Context, id int64, payment model.PaymentStatus) (*model.Order, error) {
	return r.updateOrder(ctx,
		`UPDATE orders SET payment_status = $2 WHERE id = $1 RETURNING `+orderColumns,
		id, string(payment))
}

// UpdateOrderPrice overwrites the price of the order with the given id.
// The price is an opaque string, stored as supplied.
func (r *PostgresRepository) UpdateOrderPrice(ctx context.Context, id int64, price string) (*model.Order, error) {
	return r.updateOrder(ctx,
		`UPDATE orders SET price_robux = $2 WHERE id = $1 RETURNING `+orderColumns,
		id, price)
}

func (r *PostgresRepository) updateOrder(ctx context.Context, query string, args ...any) (*model.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("update order: %w", err)
	}
	return o, nil
}

// SelfReportOrderPayment moves an order from Unpaid to Pending Verif in one
// conditional update, so a concurrent admin write cannot be clobbered.
func (r *PostgresRepository) SelfReportOrderPayment(ctx context.Context, id int64) (*model.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx,
		`UPDATE orders SET payment_status = $2 WHERE id = $1 AND payment_status = $3 RETURNING `+orderColumns,
		id, string(model.PaymentStatusPendingVerif), string(model.PaymentStatusUnpaid)))
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("self report payment: %w", err)
	}

	var exists bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check order exists: %w", err)
	}
	if !exists {
		return nil, ErrOrderNotFound
	}
	return nil, ErrPaymentNotUnpaid
}

// DeleteOrder permanently removes the order with the given id and reports
// whether a row existed.
func (r *PostgresRepository) DeleteOrder(ctx context.Context, id int64) error {
	cmdTag, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// CreateAdmin inserts a new admin account and fills in its assigned id and creation time.
func (r *PostgresRepository) CreateAdmin(ctx context.Context, a *model.Admin) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO admins (email, username, password_hash, is_admin)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		a.Email, a.Username, a.PasswordHash, a.IsAdmin,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%w: %s", ErrAdminExists, a.Username)
		}
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}

// GetAdminByUsername returns the admin account with the given username.
func (r *PostgresRepository) GetAdminByUsername(ctx context.Context, username string) (*model.Admin, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, email, username, password_hash, is_admin, created_at
		 FROM admins WHERE username = $1`,
		username,
	)

	var a model.Admin
	err := row.Scan(&a.ID, &a.Email, &a.Username, &a.PasswordHash, &a.IsAdmin, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("get admin: %w", err)
	}

	return &a, nil
}

// GetAdmins returns every admin account.
func (r *PostgresRepository) GetAdmins(ctx context.Context) ([]model.Admin, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, email, username, password_hash, is_admin, created_at
		 FROM admins ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select admins: %w", err)
	}
	defer rows.Close()

	var admins []model.Admin
	for rows.Next() {
		var a model.Admin
		if err := rows.Scan(&a.ID, &a.Email, &a.Username, &a.PasswordHash, &a.IsAdmin, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan admin: %w", err)
		}
		admins = append(admins, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return admins, nil
}

// GetMaintenanceMode reads the maintenance flag from the settings singleton.
// A missing row means the flag was never set and reads as false.
func (r *PostgresRepository) GetMaintenanceMode(ctx context.Context) (bool, error) {
	var enabled bool
	err := r.pool.QueryRow(ctx,
		`SELECT maintenance_mode FROM system_settings WHERE id = 1`,
	).Scan(&enabled)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("get maintenance mode: %w", err)
	}
	return enabled, nil
}

// SetMaintenanceMode writes the maintenance flag, creating the settings
// singleton on first use.
func (r *PostgresRepository) SetMaintenanceMode(ctx context.Context, enabled bool) error {
	return r.withRetry(ctx, func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO system_settings (id, maintenance_mode) VALUES (1, $1)
			 ON CONFLICT (id) DO UPDATE SET maintenance_mode = EXCLUDED.maintenance_mode`,
			enabled,
		)
		if err != nil {
			return fmt.Errorf("set maintenance mode: %w", err)
		}
		return nil
	})
}

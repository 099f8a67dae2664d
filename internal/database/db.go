package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/freshmart/grocery-api/internal/config"
	"github.com/freshmart/grocery-api/pkg/logger"
)

// Database wraps the sqlx connection pool.
type Database struct {
	DB     *sqlx.DB
	logger logger.Logger
}

// New opens a connection pool against the configured Postgres instance.
func New(cfg *config.Config, logger logger.Logger) (*Database, error) {
	db, err := sqlx.Connect("postgres", cfg.GetDBConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	logger.Info("Connected to database", "host", cfg.DB.Host, "database", cfg.DB.Name)

	return &Database{DB: db, logger: logger}, nil
}

// Ping checks the connection.
func (d *Database) Ping(ctx context.Context) error {
	return d.DB.PingContext(ctx)
}

// Close closes the pool.
func (d *Database) Close() error {
	return d.DB.Close()
}

// RunMigrations creates the schema. Kept as inline DDL, the same way the
// rest of the tooling expects it for local and CI bootstrap.
func (d *Database) RunMigrations() error {
	schema := `
	CREATE TABLE IF NOT EXISTS customers (
		id VARCHAR(50) PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(100) NOT NULL,
		phone VARCHAR(30),
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS staff (
		id VARCHAR(50) PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		email VARCHAR(255) NOT NULL UNIQUE,
		role VARCHAR(50) NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_staff_role_active ON staff(role, is_active);

	CREATE TABLE IF NOT EXISTS products (
		id VARCHAR(50) PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		category VARCHAR(50),
		price DECIMAL(10, 2) NOT NULL,
		quantity_in_stock INT NOT NULL DEFAULT 0 CHECK (quantity_in_stock >= 0),
		reorder_level INT NOT NULL DEFAULT 10,
		reorder_quantity INT NOT NULL DEFAULT 50,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS orders (
		id VARCHAR(50) PRIMARY KEY,
		customer_id VARCHAR(50) NOT NULL REFERENCES customers(id),
		status VARCHAR(30) NOT NULL,
		total_amount DECIMAL(10, 2) NOT NULL,
		payment_status VARCHAR(20) NOT NULL,
		payment_method VARCHAR(30) NOT NULL,
		delivery_address TEXT NOT NULL,
		special_instructions TEXT,
		ordered_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_orders_customer_id ON orders(customer_id);
	CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);

	CREATE TABLE IF NOT EXISTS order_items (
		id SERIAL PRIMARY KEY,
		order_id VARCHAR(50) NOT NULL REFERENCES orders(id),
		product_id VARCHAR(50) NOT NULL REFERENCES products(id),
		quantity INT NOT NULL CHECK (quantity > 0),
		subtotal DECIMAL(10, 2) NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id);

	CREATE TABLE IF NOT EXISTS deliveries (
		id VARCHAR(50) PRIMARY KEY,
		order_id VARCHAR(50) NOT NULL REFERENCES orders(id),
		staff_id VARCHAR(50) NOT NULL REFERENCES staff(id),
		delivery_date TIMESTAMP NOT NULL,
		estimated_delivery_time TIMESTAMP NOT NULL,
		delivery_status VARCHAR(20) NOT NULL,
		failure_reason TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_deliveries_order_id ON deliveries(order_id);
	CREATE INDEX IF NOT EXISTS idx_deliveries_staff_id ON deliveries(staff_id);

	CREATE TABLE IF NOT EXISTS purchase_orders (
		id VARCHAR(50) PRIMARY KEY,
		product_id VARCHAR(50) NOT NULL REFERENCES products(id),
		quantity_ordered INT NOT NULL CHECK (quantity_ordered > 0),
		status VARCHAR(20) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		received_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_purchase_orders_status ON purchase_orders(status);

	CREATE TABLE IF NOT EXISTS loyalty_transactions (
		id SERIAL PRIMARY KEY,
		customer_id VARCHAR(50) NOT NULL REFERENCES customers(id),
		order_id VARCHAR(50) NOT NULL REFERENCES orders(id),
		points INT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		UNIQUE (customer_id, order_id)
	);

	CREATE TABLE IF NOT EXISTS outbox_messages (
		id SERIAL PRIMARY KEY,
		aggregate_type VARCHAR(50) NOT NULL,
		aggregate_id VARCHAR(50) NOT NULL,
		event_type VARCHAR(50) NOT NULL,
		payload JSONB NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		processed_at TIMESTAMP,
		processing_attempts INT NOT NULL DEFAULT 0,
		last_error TEXT,
		status VARCHAR(20) NOT NULL DEFAULT 'pending'
	);

	CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox_messages(status);
	CREATE INDEX IF NOT EXISTS idx_outbox_aggregate ON outbox_messages(aggregate_type, aggregate_id);
	`

	if _, err := d.DB.Exec(schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.logger.Info("Database migrations completed")
	return nil
}

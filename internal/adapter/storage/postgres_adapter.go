package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rl1809/bookshop/internal/core/domain"
)

const pgUniqueViolation = "23505"

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS member (
		id      BIGSERIAL PRIMARY KEY,
		name    TEXT NOT NULL,
		city    TEXT NOT NULL DEFAULT '',
		street  TEXT NOT NULL DEFAULT '',
		zipcode TEXT NOT NULL DEFAULT '',
		CONSTRAINT uk_member_name UNIQUE (name)
	)`,
	`CREATE TABLE IF NOT EXISTS item (
		id             BIGSERIAL PRIMARY KEY,
		dtype          TEXT    NOT NULL,
		name           TEXT    NOT NULL,
		price          INTEGER NOT NULL,
		stock_quantity INTEGER NOT NULL CHECK (stock_quantity >= 0),
		author         TEXT    NOT NULL DEFAULT '',
		isbn           TEXT    NOT NULL DEFAULT '',
		artist         TEXT    NOT NULL DEFAULT '',
		etc            TEXT    NOT NULL DEFAULT '',
		director       TEXT    NOT NULL DEFAULT '',
		actor          TEXT    NOT NULL DEFAULT '',
		version        INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id               BIGSERIAL PRIMARY KEY,
		member_id        BIGINT      NOT NULL REFERENCES member (id),
		status           TEXT        NOT NULL,
		delivery_city    TEXT        NOT NULL DEFAULT '',
		delivery_street  TEXT        NOT NULL DEFAULT '',
		delivery_zipcode TEXT        NOT NULL DEFAULT '',
		delivery_status  TEXT        NOT NULL,
		order_date       TIMESTAMPTZ NOT NULL,
		updated_at       TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS order_item (
		id          BIGSERIAL PRIMARY KEY,
		order_id    BIGINT  NOT NULL REFERENCES orders (id),
		item_id     BIGINT  NOT NULL REFERENCES item (id),
		order_price INTEGER NOT NULL,
		count       INTEGER NOT NULL
	)`,
}

// PgxExecutor is an interface that matches both *pgxpool.Pool and pgx.Tx
type PgxExecutor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgTxKey struct{}

type PostgresAdapter struct {
	db *pgxpool.Pool
}

func NewPostgresAdapter(db *pgxpool.Pool) *PostgresAdapter {
	return &PostgresAdapter{db: db}
}

func (p *PostgresAdapter) Migrate(ctx context.Context) error {
	for _, stmt := range postgresSchema {
		if _, err := p.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (p *PostgresAdapter) RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(pgTxKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := p.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// rollback is a no-op once commit succeeded
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(context.WithValue(ctx, pgTxKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (p *PostgresAdapter) getExecutor(ctx context.Context) (PgxExecutor, bool) {
	if tx, ok := ctx.Value(pgTxKey{}).(pgx.Tx); ok {
		return tx, true
	}
	return p.db, false
}

func (p *PostgresAdapter) SaveMember(ctx context.Context, member domain.Member) (int64, error) {
	ex, _ := p.getExecutor(ctx)
	var id int64
	err := ex.QueryRow(ctx, `
		INSERT INTO member (name, city, street, zipcode) VALUES ($1, $2, $3, $4) RETURNING id`,
		member.Name, member.Address.City, member.Address.Street, member.Address.Zipcode,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return 0, domain.ErrDuplicateMember
		}
		return 0, fmt.Errorf("failed to insert member: %w", err)
	}
	return id, nil
}

func (p *PostgresAdapter) FindMember(ctx context.Context, id int64) (*domain.Member, error) {
	ex, _ := p.getExecutor(ctx)
	var m domain.Member
	err := ex.QueryRow(ctx, `SELECT id, name, city, street, zipcode FROM member WHERE id = $1`, id).
		Scan(&m.ID, &m.Name, &m.Address.City, &m.Address.Street, &m.Address.Zipcode)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return &m, nil
}

func (p *PostgresAdapter) FindMembersByName(ctx context.Context, name string) ([]domain.Member, error) {
	ex, _ := p.getExecutor(ctx)
	rows, err := ex.Query(ctx, `SELECT id, name, city, street, zipcode FROM member WHERE name = $1 ORDER BY id`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	return collectMembers(rows)
}

func (p *PostgresAdapter) FindMembers(ctx context.Context) ([]domain.Member, error) {
	ex, _ := p.getExecutor(ctx)
	rows, err := ex.Query(ctx, `SELECT id, name, city, street, zipcode FROM member ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	return collectMembers(rows)
}

func collectMembers(rows pgx.Rows) ([]domain.Member, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Member, error) {
		var m domain.Member
		err := row.Scan(&m.ID, &m.Name, &m.Address.City, &m.Address.Street, &m.Address.Zipcode)
		return m, err
	})
}

func (p *PostgresAdapter) SaveItem(ctx context.Context, item domain.Item) (int64, error) {
	ex, _ := p.getExecutor(ctx)
	var id int64
	err := ex.QueryRow(ctx, `
		INSERT INTO item (dtype, name, price, stock_quantity, author, isbn, artist, etc, director, actor, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0) RETURNING id`,
		string(item.Kind), item.Name, item.Price, item.StockQuantity,
		item.Author, item.ISBN, item.Artist, item.Etc, item.Director, item.Actor,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert item: %w", err)
	}
	return id, nil
}

// FindItem locks the item row (FOR UPDATE) when called inside RunAtomic
func (p *PostgresAdapter) FindItem(ctx context.Context, id int64) (*domain.Item, error) {
	ex, inTx := p.getExecutor(ctx)
	query := `SELECT ` + itemColumns + ` FROM item WHERE id = $1`
	if inTx {
		query += ` FOR UPDATE`
	}

	item, err := scanPgItem(ex.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

func (p *PostgresAdapter) FindItems(ctx context.Context) ([]domain.Item, error) {
	ex, _ := p.getExecutor(ctx)
	rows, err := ex.Query(ctx, `SELECT `+itemColumns+` FROM item ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Item, error) {
		item, err := scanPgItem(row)
		if err != nil {
			return domain.Item{}, err
		}
		return *item, nil
	})
}

func (p *PostgresAdapter) UpdateItem(ctx context.Context, item domain.Item) error {
	ex, _ := p.getExecutor(ctx)
	ct, err := ex.Exec(ctx, `
		UPDATE item
		SET name = $1, price = $2, stock_quantity = $3, author = $4, isbn = $5, artist = $6, etc = $7,
			director = $8, actor = $9, version = version + 1
		WHERE id = $10 AND version = $11`,
		item.Name, item.Price, item.StockQuantity, item.Author, item.ISBN, item.Artist, item.Etc,
		item.Director, item.Actor, item.ID, item.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrOptimisticLock
	}
	return nil
}

func (p *PostgresAdapter) SaveOrder(ctx context.Context, order domain.Order) (int64, error) {
	var id int64
	err := p.RunAtomic(ctx, func(ctx context.Context) error {
		ex, _ := p.getExecutor(ctx)
		err := ex.QueryRow(ctx, `
			INSERT INTO orders (member_id, status, delivery_city, delivery_street, delivery_zipcode,
				delivery_status, order_date, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
			order.MemberID, string(order.Status),
			order.Delivery.Address.City, order.Delivery.Address.Street, order.Delivery.Address.Zipcode,
			string(order.Delivery.Status), order.OrderDate, order.UpdatedAt,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		batch := &pgx.Batch{}
		for _, line := range order.Lines {
			batch.Queue(`INSERT INTO order_item (order_id, item_id, order_price, count) VALUES ($1, $2, $3, $4)`,
				id, line.ItemID, line.OrderPrice, line.Count)
		}
		tx := ctx.Value(pgTxKey{}).(pgx.Tx)
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert order items: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// FindOrder locks the order row (FOR UPDATE) when called inside RunAtomic
func (p *PostgresAdapter) FindOrder(ctx context.Context, id int64) (*domain.Order, error) {
	ex, inTx := p.getExecutor(ctx)
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.id = $1`
	if inTx {
		query += ` FOR UPDATE`
	}

	order, err := scanPgOrder(ex.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	orders := []domain.Order{*order}
	if err := p.loadLines(ctx, ex, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (p *PostgresAdapter) UpdateOrderStatus(ctx context.Context, order domain.Order) error {
	ex, _ := p.getExecutor(ctx)
	ct, err := ex.Exec(ctx, `UPDATE orders SET status = $1, delivery_status = $2, updated_at = $3 WHERE id = $4`,
		string(order.Status), string(order.Delivery.Status), order.UpdatedAt, order.ID)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresAdapter) SearchOrders(ctx context.Context, search domain.OrderSearch) ([]domain.Order, error) {
	ex, _ := p.getExecutor(ctx)
	rows, err := ex.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders o JOIN member m ON m.id = o.member_id
		WHERE ($1::text = '' OR o.status = $1) AND ($2::text = '' OR m.name = $2)
		ORDER BY o.id
		LIMIT $3`,
		string(search.Status), search.MemberName, maxSearchResults,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Order, error) {
		o, err := scanPgOrder(row)
		if err != nil {
			return domain.Order{}, err
		}
		return *o, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan orders: %w", err)
	}

	if err := p.loadLines(ctx, ex, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (p *PostgresAdapter) loadLines(ctx context.Context, ex PgxExecutor, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(orders))
	index := make(map[int64]int, len(orders))
	for i, o := range orders {
		ids = append(ids, o.ID)
		index[o.ID] = i
	}

	rows, err := ex.Query(ctx, `
		SELECT order_id, item_id, order_price, count FROM order_item
		WHERE order_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID int64
			line    domain.OrderLine
		)
		if err := rows.Scan(&orderID, &line.ItemID, &line.OrderPrice, &line.Count); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		i := index[orderID]
		orders[i].Lines = append(orders[i].Lines, line)
	}
	return rows.Err()
}

func scanPgItem(row pgx.Row) (*domain.Item, error) {
	var (
		item domain.Item
		kind string
	)
	err := row.Scan(&item.ID, &kind, &item.Name, &item.Price, &item.StockQuantity,
		&item.Author, &item.ISBN, &item.Artist, &item.Etc, &item.Director, &item.Actor, &item.Version)
	if err != nil {
		return nil, err
	}
	item.Kind = domain.ItemKind(kind)
	return &item, nil
}

func scanPgOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o              domain.Order
		status, dlvSts string
	)
	err := row.Scan(&o.ID, &o.MemberID, &status,
		&o.Delivery.Address.City, &o.Delivery.Address.Street, &o.Delivery.Address.Zipcode,
		&dlvSts, &o.OrderDate, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	o.Delivery.Status = domain.DeliveryStatus(dlvSts)
	return &o, nil
}

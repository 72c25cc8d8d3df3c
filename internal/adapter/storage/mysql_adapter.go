package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/rl1809/bookshop/internal/core/domain"
)

const mysqlDuplicateEntry = 1062

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS member (
		id      BIGINT AUTO_INCREMENT PRIMARY KEY,
		name    VARCHAR(255) NOT NULL,
		city    VARCHAR(255) NOT NULL DEFAULT '',
		street  VARCHAR(255) NOT NULL DEFAULT '',
		zipcode VARCHAR(32)  NOT NULL DEFAULT '',
		UNIQUE KEY uk_member_name (name)
	)`,
	`CREATE TABLE IF NOT EXISTS item (
		id             BIGINT AUTO_INCREMENT PRIMARY KEY,
		dtype          VARCHAR(16)  NOT NULL,
		name           VARCHAR(255) NOT NULL,
		price          INT          NOT NULL,
		stock_quantity INT          NOT NULL,
		author         VARCHAR(255) NOT NULL DEFAULT '',
		isbn           VARCHAR(64)  NOT NULL DEFAULT '',
		artist         VARCHAR(255) NOT NULL DEFAULT '',
		etc            VARCHAR(255) NOT NULL DEFAULT '',
		director       VARCHAR(255) NOT NULL DEFAULT '',
		actor          VARCHAR(255) NOT NULL DEFAULT '',
		version        INT          NOT NULL DEFAULT 0,
		CONSTRAINT ck_item_stock CHECK (stock_quantity >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id               BIGINT AUTO_INCREMENT PRIMARY KEY,
		member_id        BIGINT       NOT NULL,
		status           VARCHAR(16)  NOT NULL,
		delivery_city    VARCHAR(255) NOT NULL DEFAULT '',
		delivery_street  VARCHAR(255) NOT NULL DEFAULT '',
		delivery_zipcode VARCHAR(32)  NOT NULL DEFAULT '',
		delivery_status  VARCHAR(16)  NOT NULL,
		order_date       DATETIME(6)  NOT NULL,
		updated_at       DATETIME(6)  NOT NULL,
		CONSTRAINT fk_orders_member FOREIGN KEY (member_id) REFERENCES member (id)
	)`,
	`CREATE TABLE IF NOT EXISTS order_item (
		id          BIGINT AUTO_INCREMENT PRIMARY KEY,
		order_id    BIGINT NOT NULL,
		item_id     BIGINT NOT NULL,
		order_price INT    NOT NULL,
		count       INT    NOT NULL,
		CONSTRAINT fk_order_item_order FOREIGN KEY (order_id) REFERENCES orders (id),
		CONSTRAINT fk_order_item_item FOREIGN KEY (item_id) REFERENCES item (id)
	)`,
}

const (
	itemColumns  = `id, dtype, name, price, stock_quantity, author, isbn, artist, etc, director, actor, version`
	orderColumns = `o.id, o.member_id, o.status, o.delivery_city, o.delivery_street, o.delivery_zipcode,
		o.delivery_status, o.order_date, o.updated_at`
)

type mysqlTxKey struct{}

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// Migrate creates the tables when they do not exist yet.
func (m *MySQLAdapter) Migrate(ctx context.Context) error {
	for _, stmt := range mysqlSchema {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (m *MySQLAdapter) RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(mysqlTxKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(context.WithValue(ctx, mysqlTxKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) exec(ctx context.Context) (sqlExecutor, bool) {
	if tx, ok := ctx.Value(mysqlTxKey{}).(*sql.Tx); ok {
		return tx, true
	}
	return m.db, false
}

func (m *MySQLAdapter) SaveMember(ctx context.Context, member domain.Member) (int64, error) {
	ex, _ := m.exec(ctx)
	result, err := ex.ExecContext(ctx, `
		INSERT INTO member (name, city, street, zipcode) VALUES (?, ?, ?, ?)`,
		member.Name, member.Address.City, member.Address.Street, member.Address.Zipcode,
	)
	if err != nil {
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
			return 0, domain.ErrDuplicateMember
		}
		return 0, fmt.Errorf("insert member: %w", err)
	}
	return result.LastInsertId()
}

func (m *MySQLAdapter) FindMember(ctx context.Context, id int64) (*domain.Member, error) {
	ex, _ := m.exec(ctx)
	var mem domain.Member
	err := ex.QueryRowContext(ctx, `
		SELECT id, name, city, street, zipcode FROM member WHERE id = ?`, id,
	).Scan(&mem.ID, &mem.Name, &mem.Address.City, &mem.Address.Street, &mem.Address.Zipcode)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query member: %w", err)
	}
	return &mem, nil
}

func (m *MySQLAdapter) FindMembersByName(ctx context.Context, name string) ([]domain.Member, error) {
	ex, _ := m.exec(ctx)
	rows, err := ex.QueryContext(ctx, `
		SELECT id, name, city, street, zipcode FROM member WHERE name = ? ORDER BY id`, name)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	return scanMembers(rows)
}

func (m *MySQLAdapter) FindMembers(ctx context.Context) ([]domain.Member, error) {
	ex, _ := m.exec(ctx)
	rows, err := ex.QueryContext(ctx, `SELECT id, name, city, street, zipcode FROM member ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	return scanMembers(rows)
}

func scanMembers(rows *sql.Rows) ([]domain.Member, error) {
	defer rows.Close()

	var out []domain.Member
	for rows.Next() {
		var mem domain.Member
		if err := rows.Scan(&mem.ID, &mem.Name, &mem.Address.City, &mem.Address.Street, &mem.Address.Zipcode); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		out = append(out, mem)
	}
	return out, rows.Err()
}

func (m *MySQLAdapter) SaveItem(ctx context.Context, item domain.Item) (int64, error) {
	ex, _ := m.exec(ctx)
	result, err := ex.ExecContext(ctx, `
		INSERT INTO item (dtype, name, price, stock_quantity, author, isbn, artist, etc, director, actor, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		item.Kind, item.Name, item.Price, item.StockQuantity,
		item.Author, item.ISBN, item.Artist, item.Etc, item.Director, item.Actor,
	)
	if err != nil {
		return 0, fmt.Errorf("insert item: %w", err)
	}
	return result.LastInsertId()
}

// FindItem locks the row with FOR UPDATE when called inside RunAtomic.
func (m *MySQLAdapter) FindItem(ctx context.Context, id int64) (*domain.Item, error) {
	ex, inTx := m.exec(ctx)
	query := `SELECT ` + itemColumns + ` FROM item WHERE id = ?`
	if inTx {
		query += ` FOR UPDATE`
	}

	item, err := scanItem(ex.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query item: %w", err)
	}
	return item, nil
}

func (m *MySQLAdapter) FindItems(ctx context.Context) ([]domain.Item, error) {
	ex, _ := m.exec(ctx)
	rows, err := ex.QueryContext(ctx, `SELECT `+itemColumns+` FROM item ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var out []domain.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, *item)
	}
	return out, rows.Err()
}

func (m *MySQLAdapter) UpdateItem(ctx context.Context, item domain.Item) error {
	ex, _ := m.exec(ctx)
	result, err := ex.ExecContext(ctx, `
		UPDATE item
		SET name = ?, price = ?, stock_quantity = ?, author = ?, isbn = ?, artist = ?, etc = ?,
			director = ?, actor = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		item.Name, item.Price, item.StockQuantity, item.Author, item.ISBN, item.Artist, item.Etc,
		item.Director, item.Actor, item.ID, item.Version,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrOptimisticLock
	}

	return nil
}

func (m *MySQLAdapter) SaveOrder(ctx context.Context, order domain.Order) (int64, error) {
	var id int64
	err := m.RunAtomic(ctx, func(ctx context.Context) error {
		ex, _ := m.exec(ctx)
		result, err := ex.ExecContext(ctx, `
			INSERT INTO orders (member_id, status, delivery_city, delivery_street, delivery_zipcode,
				delivery_status, order_date, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			order.MemberID, order.Status,
			order.Delivery.Address.City, order.Delivery.Address.Street, order.Delivery.Address.Zipcode,
			order.Delivery.Status, order.OrderDate, order.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		if id, err = result.LastInsertId(); err != nil {
			return err
		}

		for _, line := range order.Lines {
			if _, err := ex.ExecContext(ctx, `
				INSERT INTO order_item (order_id, item_id, order_price, count) VALUES (?, ?, ?, ?)`,
				id, line.ItemID, line.OrderPrice, line.Count,
			); err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// FindOrder locks the order row with FOR UPDATE when called inside RunAtomic.
func (m *MySQLAdapter) FindOrder(ctx context.Context, id int64) (*domain.Order, error) {
	ex, inTx := m.exec(ctx)
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.id = ?`
	if inTx {
		query += ` FOR UPDATE`
	}

	order, err := scanOrder(ex.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}

	orders := []domain.Order{*order}
	if err := m.loadLines(ctx, ex, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (m *MySQLAdapter) UpdateOrderStatus(ctx context.Context, order domain.Order) error {
	ex, _ := m.exec(ctx)
	result, err := ex.ExecContext(ctx, `
		UPDATE orders SET status = ?, delivery_status = ?, updated_at = ? WHERE id = ?`,
		order.Status, order.Delivery.Status, order.UpdatedAt, order.ID,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MySQLAdapter) SearchOrders(ctx context.Context, search domain.OrderSearch) ([]domain.Order, error) {
	ex, _ := m.exec(ctx)
	rows, err := ex.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders o JOIN member m ON m.id = o.member_id
		WHERE (? = '' OR o.status = ?) AND (? = '' OR m.name = ?)
		ORDER BY o.id
		LIMIT ?`,
		search.Status, search.Status, search.MemberName, search.MemberName, maxSearchResults,
	)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := m.loadLines(ctx, ex, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *MySQLAdapter) loadLines(ctx context.Context, ex sqlExecutor, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]any, 0, len(orders))
	index := make(map[int64]int, len(orders))
	for i, o := range orders {
		ids = append(ids, o.ID)
		index[o.ID] = i
	}

	rows, err := ex.QueryContext(ctx, `
		SELECT order_id, item_id, order_price, count FROM order_item
		WHERE order_id IN (`+placeholders(len(ids))+`) ORDER BY id`, ids...)
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID int64
			line    domain.OrderLine
		)
		if err := rows.Scan(&orderID, &line.ItemID, &line.OrderPrice, &line.Count); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		i := index[orderID]
		orders[i].Lines = append(orders[i].Lines, line)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*domain.Item, error) {
	var item domain.Item
	err := row.Scan(&item.ID, &item.Kind, &item.Name, &item.Price, &item.StockQuantity,
		&item.Author, &item.ISBN, &item.Artist, &item.Etc, &item.Director, &item.Actor, &item.Version)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.MemberID, &o.Status,
		&o.Delivery.Address.City, &o.Delivery.Address.Street, &o.Delivery.Address.Zipcode,
		&o.Delivery.Status, &o.OrderDate, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

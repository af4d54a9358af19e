package sqlite

import (
	"context"
	"database/sql"
)

// schema creates every table and view in RequiredTables.
// Tables must be created before the views that read them.
// Bit 0 of transactions.flags marks a removed transaction; removed
// transactions count towards neither balances nor stock.
const schema = `
CREATE TABLE IF NOT EXISTS groups (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    external_id TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    external_id TEXT NOT NULL UNIQUE,
    group_id INTEGER NOT NULL,
    FOREIGN KEY (group_id) REFERENCES groups(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS items (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    group_id INTEGER NOT NULL,
    display_name TEXT NOT NULL,
    icon_url TEXT,
    created_time INTEGER NOT NULL,
    flags INTEGER,
    UNIQUE (group_id, display_name),
    FOREIGN KEY (group_id) REFERENCES groups(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS prices (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    item_id INTEGER NOT NULL,
    amount NUMERIC NOT NULL,
    label TEXT NOT NULL,
    FOREIGN KEY (item_id) REFERENCES items(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS transactions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    group_id INTEGER NOT NULL,
    created_by INTEGER NOT NULL,
    created_time INTEGER NOT NULL,
    comment TEXT,
    flags INTEGER,
    FOREIGN KEY (group_id) REFERENCES groups(id) ON DELETE CASCADE,
    FOREIGN KEY (created_by) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS purchases (
    transaction_id INTEGER PRIMARY KEY,
    created_for INTEGER NOT NULL,
    FOREIGN KEY (transaction_id) REFERENCES transactions(id) ON DELETE CASCADE,
    FOREIGN KEY (created_for) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS purchased_items (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    transaction_id INTEGER NOT NULL,
    item_id INTEGER NOT NULL,
    display_name TEXT NOT NULL,
    icon_url TEXT,
    purchase_price NUMERIC NOT NULL,
    purchase_price_label TEXT NOT NULL,
    quantity INTEGER NOT NULL CHECK (quantity > 0),
    FOREIGN KEY (transaction_id) REFERENCES purchases(transaction_id) ON DELETE CASCADE,
    FOREIGN KEY (item_id) REFERENCES items(id) ON DELETE RESTRICT
);

CREATE TABLE IF NOT EXISTS deposits (
    transaction_id INTEGER PRIMARY KEY,
    created_for INTEGER NOT NULL,
    total NUMERIC NOT NULL,
    FOREIGN KEY (transaction_id) REFERENCES transactions(id) ON DELETE CASCADE,
    FOREIGN KEY (created_for) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS item_stock_updates (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    transaction_id INTEGER NOT NULL,
    item_id INTEGER NOT NULL,
    before_stock INTEGER NOT NULL,
    after_stock INTEGER NOT NULL,
    FOREIGN KEY (transaction_id) REFERENCES transactions(id) ON DELETE CASCADE,
    FOREIGN KEY (item_id) REFERENCES items(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS favorite_items (
    user_id INTEGER NOT NULL,
    item_id INTEGER NOT NULL,
    PRIMARY KEY (user_id, item_id),
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
    FOREIGN KEY (item_id) REFERENCES items(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_users_group_id ON users(group_id);
CREATE INDEX IF NOT EXISTS idx_items_group_id ON items(group_id);
CREATE INDEX IF NOT EXISTS idx_prices_item_id ON prices(item_id);
CREATE INDEX IF NOT EXISTS idx_transactions_group_time ON transactions(group_id, created_time);
CREATE INDEX IF NOT EXISTS idx_purchased_items_transaction_id ON purchased_items(transaction_id);
CREATE INDEX IF NOT EXISTS idx_purchased_items_item_id ON purchased_items(item_id);
CREATE INDEX IF NOT EXISTS idx_item_stock_updates_transaction_id ON item_stock_updates(transaction_id);
CREATE INDEX IF NOT EXISTS idx_item_stock_updates_item_id ON item_stock_updates(item_id);
CREATE INDEX IF NOT EXISTS idx_favorite_items_item_id ON favorite_items(item_id);

CREATE VIEW IF NOT EXISTS user_balances AS
SELECT
    u.id AS user_id,
    ROUND(
        COALESCE((
            SELECT SUM(d.total)
            FROM deposits d
            JOIN transactions t ON t.id = d.transaction_id
            WHERE d.created_for = u.id AND (COALESCE(t.flags, 0) & 1) = 0
        ), 0)
        - COALESCE((
            SELECT SUM(pi.quantity * pi.purchase_price)
            FROM purchased_items pi
            JOIN purchases p ON p.transaction_id = pi.transaction_id
            JOIN transactions t ON t.id = p.transaction_id
            WHERE p.created_for = u.id AND (COALESCE(t.flags, 0) & 1) = 0
        ), 0),
    2) AS balance
FROM users u;

CREATE VIEW IF NOT EXISTS full_users AS
SELECT
    u.id AS id,
    u.external_id AS external_id,
    u.group_id AS group_id,
    g.external_id AS group_external_id,
    b.balance AS balance
FROM users u
JOIN groups g ON g.id = u.group_id
JOIN user_balances b ON b.user_id = u.id;

CREATE VIEW IF NOT EXISTS full_items AS
SELECT
    i.id AS id,
    i.group_id AS group_id,
    i.display_name AS display_name,
    i.icon_url AS icon_url,
    i.created_time AS created_time,
    i.flags AS flags,
    COALESCE((
        SELECT SUM(su.after_stock - su.before_stock)
        FROM item_stock_updates su
        JOIN transactions t ON t.id = su.transaction_id
        WHERE su.item_id = i.id AND (COALESCE(t.flags, 0) & 1) = 0
    ), 0)
    - COALESCE((
        SELECT SUM(pi.quantity)
        FROM purchased_items pi
        JOIN transactions t ON t.id = pi.transaction_id
        WHERE pi.item_id = i.id AND (COALESCE(t.flags, 0) & 1) = 0
    ), 0) AS stock,
    COALESCE((
        SELECT SUM(pi.quantity)
        FROM purchased_items pi
        JOIN transactions t ON t.id = pi.transaction_id
        WHERE pi.item_id = i.id AND (COALESCE(t.flags, 0) & 1) = 0
    ), 0) AS times_purchased
FROM items i;

CREATE VIEW IF NOT EXISTS full_transactions AS
SELECT
    t.id AS id,
    t.group_id AS group_id,
    t.created_by AS created_by,
    t.created_time AS created_time,
    t.comment AS comment,
    t.flags AS flags,
    COALESCE(p.created_for, d.created_for) AS created_for,
    d.total AS total,
    pi.item_id AS item_id,
    pi.display_name AS display_name,
    pi.icon_url AS icon_url,
    pi.purchase_price AS purchase_price,
    pi.purchase_price_label AS purchase_price_label,
    pi.quantity AS quantity,
    su.item_id AS stock_item_id,
    su.before_stock AS before_stock,
    su.after_stock AS after_stock,
    COALESCE(pi.id, su.id, 0) AS line_id
FROM transactions t
LEFT JOIN deposits d ON d.transaction_id = t.id
LEFT JOIN purchases p ON p.transaction_id = t.id
LEFT JOIN purchased_items pi ON pi.transaction_id = t.id
LEFT JOIN item_stock_updates su ON su.transaction_id = t.id;
`

// runMigrations executes the schema setup.
func runMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

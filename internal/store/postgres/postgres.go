// Package postgres implements the Repository on PostgreSQL via database/sql
// with the pgx driver. Sale creation and deletion run in serializable
// transactions; monetary columns are NUMERIC and scanned into exact decimals.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"lumapos/backend/internal/domain"
	"lumapos/backend/internal/money"
	"lumapos/backend/internal/payment"
	"lumapos/backend/internal/pricing"
	"lumapos/backend/internal/receipt"
	"lumapos/backend/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, code, name, price, stock, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, product.ID, product.Code, product.Name, product.Price, product.Stock, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: product code already exists", store.ErrConflict)
		}
		return nil, err
	}
	created := product
	return &created, nil
}

func (s *Store) ListProducts(ctx context.Context, q domain.ProductListQuery) ([]domain.Product, int, error) {
	page, limit := normalizePage(q.Page, q.Limit)

	where := "WHERE 1=1"
	args := make([]any, 0, 4)
	if needle := strings.TrimSpace(q.Search); needle != "" {
		args = append(args, "%"+needle+"%")
		where += fmt.Sprintf(" AND (name ILIKE $%d OR code ILIKE $%d)", len(args), len(args))
	}
	if q.LowStock {
		args = append(args, domain.LowStockThreshold)
		where += fmt.Sprintf(" AND stock <= $%d", len(args))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM products "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, (page-1)*limit)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, code, name, price, stock, created_at, updated_at
		FROM products %s
		ORDER BY name ASC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, limit)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

func (s *Store) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	return s.getProduct(ctx, "id", id)
}

func (s *Store) GetProductByCode(ctx context.Context, code string) (*domain.Product, error) {
	return s.getProduct(ctx, "code", code)
}

func (s *Store) getProduct(ctx context.Context, column string, value string) (*domain.Product, error) {
	var p domain.Product
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT id, code, name, price, stock, created_at, updated_at
		FROM products
		WHERE %s = $1
	`, column), value).Scan(&p.ID, &p.Code, &p.Name, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: product %s", store.ErrNotFound, value)
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (*domain.Product, error) {
	sets := make([]string, 0, 4)
	args := []any{id}
	if req.Code != nil {
		args = append(args, *req.Code)
		sets = append(sets, fmt.Sprintf("code = $%d", len(args)))
	}
	if req.Name != nil {
		args = append(args, *req.Name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	if req.Price != nil {
		args = append(args, *req.Price)
		sets = append(sets, fmt.Sprintf("price = $%d", len(args)))
	}
	if req.Stock != nil {
		args = append(args, *req.Stock)
		sets = append(sets, fmt.Sprintf("stock = $%d", len(args)))
	}
	if len(sets) == 0 {
		return s.GetProductByID(ctx, id)
	}
	sets = append(sets, "updated_at = now()")

	var p domain.Product
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		UPDATE products SET %s
		WHERE id = $1
		RETURNING id, code, name, price, stock, created_at, updated_at
	`, strings.Join(sets, ", ")), args...).Scan(&p.ID, &p.Code, &p.Name, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: product %s", store.ErrNotFound, id)
		}
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: product code already exists", store.ErrConflict)
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: product has sales and cannot be deleted", store.ErrConflict)
		}
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: product %s", store.ErrNotFound, id)
	}
	return nil
}

// CreateSale runs the full sale pipeline in one serializable transaction.
// The stock decrement is conditional on sufficient stock in the same
// statement, so concurrent sales can never drive stock negative. The
// receipt counter row is created lazily and incremented atomically; a
// rollback after the increment simply skips that number.
func (s *Store) CreateSale(ctx context.Context, input store.SaleInput) (*domain.Sale, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	ids := make([]string, 0, len(input.Lines))
	required := make(map[string]int, len(input.Lines))
	for _, line := range input.Lines {
		if _, seen := required[line.ProductID]; !seen {
			ids = append(ids, line.ProductID)
		}
		required[line.ProductID] += line.Qty
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT id, code, name, price, stock, created_at, updated_at
		FROM products
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	productMap := make(map[string]domain.Product, len(ids))
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			_ = rows.Close()
			return nil, err
		}
		productMap[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	for _, id := range ids {
		if _, ok := productMap[id]; !ok {
			return nil, fmt.Errorf("%w: product %s", store.ErrNotFound, id)
		}
	}

	for _, id := range ids {
		res, err := tx.ExecContext(ctx, `
			UPDATE products
			SET stock = stock - $1, updated_at = now()
			WHERE id = $2 AND stock >= $1
		`, required[id], id)
		if err != nil {
			return nil, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, fmt.Errorf("%w for %s", store.ErrInsufficientStock, productMap[id].Name)
		}
	}

	lines := make([]pricing.Line, 0, len(input.Lines))
	for _, line := range input.Lines {
		lines = append(lines, pricing.PriceLine(productMap[line.ProductID], line.Qty, line.UnitPriceOverride))
	}
	subtotal := pricing.Subtotal(lines)
	discount, taxAmount, total, err := pricing.Totals(subtotal, input.Discount)
	if err != nil {
		return nil, err
	}

	breakdown, err := payment.Reconcile(input.Method, input.Tender, total)
	if err != nil {
		return nil, err
	}

	var seq int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO receipt_counters (id, last_number)
		VALUES (1, 1)
		ON CONFLICT (id)
		DO UPDATE SET last_number = receipt_counters.last_number + 1
		RETURNING last_number
	`).Scan(&seq)
	if err != nil {
		return nil, err
	}

	paid, cash, card, change := breakdown.Amounts()
	sale := &domain.Sale{
		ID:            uuid.NewString(),
		ReceiptSeq:    seq,
		ReceiptNo:     receipt.FormatNumber(seq),
		CashierID:     input.CashierID,
		CashierName:   input.CashierName,
		Subtotal:      subtotal,
		Discount:      discount,
		Tax:           taxAmount,
		Total:         total,
		PaymentMethod: breakdown.Method(),
		PaidAmount:    paid,
		CashAmount:    cash,
		CardAmount:    card,
		ChangeAmount:  change,
		CreatedAt:     time.Now().UTC(),
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sales (
			id, receipt_seq, cashier_id, subtotal, discount, tax, total,
			payment_method, paid_amount, cash_amount, card_amount, change_amount, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, sale.ID, sale.ReceiptSeq, sale.CashierID, sale.Subtotal, sale.Discount, sale.Tax, sale.Total,
		string(sale.PaymentMethod), nullMoney(sale.PaidAmount), nullMoney(sale.CashAmount),
		nullMoney(sale.CardAmount), nullMoney(sale.ChangeAmount), sale.CreatedAt)
	if err != nil {
		return nil, err
	}

	for _, l := range lines {
		item := domain.SaleItem{
			ID:          uuid.NewString(),
			ProductID:   l.Product.ID,
			ProductCode: l.Product.Code,
			ProductName: l.Product.Name,
			Qty:         l.Qty,
			UnitPrice:   l.UnitPrice,
			LineTotal:   l.LineTotal,
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sale_items (id, sale_id, product_id, product_code, product_name, qty, unit_price, line_total)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`, item.ID, sale.ID, item.ProductID, item.ProductCode, item.ProductName, item.Qty, item.UnitPrice, item.LineTotal)
		if err != nil {
			return nil, err
		}
		sale.Items = append(sale.Items, item)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *Store) GetSaleByID(ctx context.Context, id string) (*domain.Sale, error) {
	sales, err := s.querySales(ctx, s.db, "WHERE s.id = $1", id)
	if err != nil {
		return nil, err
	}
	if len(sales) == 0 {
		return nil, fmt.Errorf("%w: sale %s", store.ErrNotFound, id)
	}
	return &sales[0], nil
}

func (s *Store) ListSalesBetween(ctx context.Context, from time.Time, to time.Time) ([]domain.Sale, error) {
	return s.querySales(ctx, s.db, "WHERE s.created_at >= $1 AND s.created_at <= $2", from, to)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) querySales(ctx context.Context, q querier, where string, args ...any) ([]domain.Sale, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT s.id, s.receipt_seq, s.cashier_id, COALESCE(u.full_name, ''),
			s.subtotal, s.discount, s.tax, s.total, s.payment_method,
			s.paid_amount, s.cash_amount, s.card_amount, s.change_amount, s.created_at
		FROM sales s
		LEFT JOIN users u ON u.id = s.cashier_id
		`+where+`
		ORDER BY s.created_at DESC, s.id DESC
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, 16)
	index := make(map[string]int)
	saleIDs := make([]string, 0, 16)
	for rows.Next() {
		var sale domain.Sale
		var method string
		var paid, cash, card, change sql.NullString
		if err := rows.Scan(&sale.ID, &sale.ReceiptSeq, &sale.CashierID, &sale.CashierName,
			&sale.Subtotal, &sale.Discount, &sale.Tax, &sale.Total, &method,
			&paid, &cash, &card, &change, &sale.CreatedAt); err != nil {
			return nil, err
		}
		sale.PaymentMethod = payment.Method(method)
		sale.ReceiptNo = receipt.FormatNumber(sale.ReceiptSeq)
		sale.CreatedAt = sale.CreatedAt.UTC()
		if sale.PaidAmount, err = scanMoney(paid); err != nil {
			return nil, err
		}
		if sale.CashAmount, err = scanMoney(cash); err != nil {
			return nil, err
		}
		if sale.CardAmount, err = scanMoney(card); err != nil {
			return nil, err
		}
		if sale.ChangeAmount, err = scanMoney(change); err != nil {
			return nil, err
		}
		index[sale.ID] = len(sales)
		saleIDs = append(saleIDs, sale.ID)
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(sales) == 0 {
		return sales, nil
	}

	itemRows, err := q.QueryContext(ctx, `
		SELECT id, sale_id, product_id, product_code, product_name, qty, unit_price, line_total
		FROM sale_items
		WHERE sale_id = ANY($1)
		ORDER BY id ASC
	`, saleIDs)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item domain.SaleItem
		var saleID string
		if err := itemRows.Scan(&item.ID, &saleID, &item.ProductID, &item.ProductCode,
			&item.ProductName, &item.Qty, &item.UnitPrice, &item.LineTotal); err != nil {
			return nil, err
		}
		i := index[saleID]
		sales[i].Items = append(sales[i].Items, item)
	}
	if err := itemRows.Err(); err != nil {
		return nil, err
	}
	return sales, nil
}

// DeleteSale restores stock for every item, then removes the sale and its
// items. The receipt counter stays where it is so the deleted sale's number
// is never reissued. Items whose product no longer exists are skipped with
// a warning.
func (s *Store) DeleteSale(ctx context.Context, id string) (*domain.Sale, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err := tx.QueryRowContext(ctx, `
		SELECT true FROM sales WHERE id = $1 FOR UPDATE
	`, id).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: sale %s", store.ErrNotFound, id)
		}
		return nil, err
	}

	sales, err := s.querySales(ctx, tx, "WHERE s.id = $1", id)
	if err != nil {
		return nil, err
	}
	sale := sales[0]

	for _, item := range sale.Items {
		res, err := tx.ExecContext(ctx, `
			UPDATE products
			SET stock = stock + $1, updated_at = now()
			WHERE id = $2
		`, item.Qty, item.ProductID)
		if err != nil {
			return nil, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			log.Printf("[postgres-store] WARN: sale %s references deleted product %s, stock not restored", id, item.ProductID)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM sale_items WHERE sale_id = $1`, id); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sales WHERE id = $1`, id); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &sale, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.User) (*domain.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password, full_name, role, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, user.ID, user.Email, user.PasswordHash, user.FullName, user.Role, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: email already registered", store.ErrConflict)
		}
		return nil, err
	}
	created := user
	return &created, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getUser(ctx, "email", email)
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.getUser(ctx, "id", id)
}

func (s *Store) getUser(ctx context.Context, column string, value string) (*domain.User, error) {
	var user domain.User
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT id, email, password, full_name, role, created_at
		FROM users
		WHERE %s = $1
	`, column), value).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.FullName, &user.Role, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: user %s", store.ErrNotFound, value)
		}
		return nil, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}

func (s *Store) CreateRefreshToken(ctx context.Context, token domain.RefreshToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, token.ID, token.UserID, token.TokenHash, token.ExpiresAt, token.CreatedAt)
	return err
}

func (s *Store) GetRefreshToken(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	var token domain.RefreshToken
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, token_hash, expires_at, created_at
		FROM refresh_tokens
		WHERE token_hash = $1
	`, tokenHash).Scan(&token.ID, &token.UserID, &token.TokenHash, &token.ExpiresAt, &token.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: refresh token", store.ErrNotFound)
		}
		return nil, err
	}
	return &token, nil
}

func (s *Store) DeleteRefreshToken(ctx context.Context, tokenHash string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: refresh token", store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteRefreshTokensForUser(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	return err
}

func (s *Store) UpsertWorkDay(ctx context.Context, day domain.WorkDay) (*domain.WorkDay, error) {
	if day.ID == "" {
		day.ID = uuid.NewString()
	}
	var saved domain.WorkDay
	var s1s, s1e, s2s, s2e sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO work_days (id, user_id, work_date, shift1_start, shift1_end, shift2_start, shift2_end, total_minutes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (user_id, work_date)
		DO UPDATE SET shift1_start = EXCLUDED.shift1_start, shift1_end = EXCLUDED.shift1_end,
			shift2_start = EXCLUDED.shift2_start, shift2_end = EXCLUDED.shift2_end,
			total_minutes = EXCLUDED.total_minutes
		RETURNING id, user_id, to_char(work_date, 'YYYY-MM-DD'), shift1_start, shift1_end, shift2_start, shift2_end, total_minutes
	`, day.ID, day.UserID, day.Date, nullTime(day.Shift1Start), nullTime(day.Shift1End),
		nullTime(day.Shift2Start), nullTime(day.Shift2End), day.TotalMinutes).
		Scan(&saved.ID, &saved.UserID, &saved.Date, &s1s, &s1e, &s2s, &s2e, &saved.TotalMinutes)
	if err != nil {
		return nil, err
	}
	saved.Shift1Start = timePtr(s1s)
	saved.Shift1End = timePtr(s1e)
	saved.Shift2Start = timePtr(s2s)
	saved.Shift2End = timePtr(s2e)
	return &saved, nil
}

func (s *Store) GetWorkDay(ctx context.Context, userID string, date string) (*domain.WorkDay, error) {
	days, err := s.queryWorkDays(ctx, `WHERE user_id = $1 AND work_date = $2::date`, userID, date)
	if err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("%w: work day", store.ErrNotFound)
	}
	return &days[0], nil
}

func (s *Store) ListWorkDays(ctx context.Context, userID string, fromDate string, toDate string) ([]domain.WorkDay, error) {
	return s.queryWorkDays(ctx, `WHERE user_id = $1 AND work_date >= $2::date AND work_date <= $3::date`, userID, fromDate, toDate)
}

func (s *Store) queryWorkDays(ctx context.Context, where string, args ...any) ([]domain.WorkDay, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, to_char(work_date, 'YYYY-MM-DD'), shift1_start, shift1_end, shift2_start, shift2_end, total_minutes
		FROM work_days
		`+where+`
		ORDER BY work_date ASC
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	days := make([]domain.WorkDay, 0, 8)
	for rows.Next() {
		var day domain.WorkDay
		var s1s, s1e, s2s, s2e sql.NullTime
		if err := rows.Scan(&day.ID, &day.UserID, &day.Date, &s1s, &s1e, &s2s, &s2e, &day.TotalMinutes); err != nil {
			return nil, err
		}
		day.Shift1Start = timePtr(s1s)
		day.Shift1End = timePtr(s1e)
		day.Shift2Start = timePtr(s2s)
		day.Shift2End = timePtr(s2e)
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return days, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

func scanMoney(v sql.NullString) (*money.Money, error) {
	if !v.Valid {
		return nil, nil
	}
	m, err := money.FromString(v.String)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func nullMoney(m *money.Money) any {
	if m == nil {
		return nil
	}
	return *m
}

func nullTime(val *time.Time) any {
	if val == nil {
		return nil
	}
	return *val
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time.UTC()
	return &t
}

// Package memory is an in-memory Repository for development and tests. It
// mirrors the postgres store's semantics, including the conditional stock
// decrement and the receipt counter, under a single mutex.
package memory

import (
	"context"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"lumapos/backend/internal/domain"
	"lumapos/backend/internal/money"
	"lumapos/backend/internal/payment"
	"lumapos/backend/internal/pricing"
	"lumapos/backend/internal/receipt"
	"lumapos/backend/internal/store"
)

type Store struct {
	mu              sync.RWMutex
	products        map[string]domain.Product
	productIDByCode map[string]string
	sales           map[string]*domain.Sale
	receiptCounter  int64
	usersByID       map[string]domain.User
	userIDByEmail   map[string]string
	refreshByHash   map[string]domain.RefreshToken
	workDays        map[string]domain.WorkDay
}

func New() *Store {
	return &Store{
		products:        make(map[string]domain.Product),
		productIDByCode: make(map[string]string),
		sales:           make(map[string]*domain.Sale),
		usersByID:       make(map[string]domain.User),
		userIDByEmail:   make(map[string]string),
		refreshByHash:   make(map[string]domain.RefreshToken),
		workDays:        make(map[string]domain.WorkDay),
	}
}

// NewSeeded returns a store preloaded with demo products and users for
// dev mode. Seed credentials come from SEED_OWNER_PASSWORD and
// SEED_CASHIER_PASSWORD; hardcoded dev defaults are used with a warning
// when unset. The backend uses PostgreSQL when DATABASE_URL is set.
func NewSeeded() *Store {
	s := New()

	now := time.Now().UTC()
	products := []domain.Product{
		{Code: "ESP-01", Name: "Espresso Single", Price: money.MustParse("24.00"), Stock: 120},
		{Code: "LAT-01", Name: "Latte Medium", Price: money.MustParse("38.50"), Stock: 120},
		{Code: "CRS-01", Name: "Butter Croissant", Price: money.MustParse("27.00"), Stock: 60},
		{Code: "SNDW-01", Name: "Halloumi Sandwich", Price: money.MustParse("55.00"), Stock: 40},
		{Code: "WTR-01", Name: "Mineral Water 600ml", Price: money.MustParse("8.00"), Stock: 200},
		{Code: "JCE-01", Name: "Fresh Orange Juice", Price: money.MustParse("32.00"), Stock: 50},
		{Code: "CKE-01", Name: "Date Cake Slice", Price: money.MustParse("29.50"), Stock: 30},
		{Code: "TEA-01", Name: "Mint Tea", Price: money.MustParse("18.00"), Stock: 90},
	}
	for _, p := range products {
		p.ID = uuid.NewString()
		p.CreatedAt = now
		p.UpdatedAt = now
		s.products[p.ID] = p
		s.productIDByCode[p.Code] = p.ID
	}

	ownerPwd := envOr("SEED_OWNER_PASSWORD", "owner123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_OWNER_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_OWNER_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	for _, u := range []struct {
		email    string
		password string
		fullName string
		role     string
	}{
		{"owner@lumapos.local", ownerPwd, "Store Owner", domain.RoleOwner},
		{"cashier@lumapos.local", cashierPwd, "Front Cashier", domain.RoleCashier},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.email, err)
		}
		user := domain.User{
			ID:           uuid.NewString(),
			Email:        u.email,
			PasswordHash: string(hash),
			FullName:     u.fullName,
			Role:         u.role,
			CreatedAt:    now,
		}
		s.usersByID[user.ID] = user
		s.userIDByEmail[user.Email] = user.ID
	}

	return s
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.productIDByCode[product.Code]; exists {
		return nil, fmt.Errorf("%w: product code already exists", store.ErrConflict)
	}

	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	s.products[product.ID] = product
	s.productIDByCode[product.Code] = product.ID
	created := product
	return &created, nil
}

func (s *Store) ListProducts(_ context.Context, q domain.ProductListQuery) ([]domain.Product, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]domain.Product, 0, len(s.products))
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	for _, p := range s.products {
		if needle != "" && !strings.Contains(strings.ToLower(p.Name), needle) &&
			!strings.Contains(strings.ToLower(p.Code), needle) {
			continue
		}
		if q.LowStock && p.Stock > domain.LowStockThreshold {
			continue
		}
		matched = append(matched, p)
	}

	slices.SortFunc(matched, func(a, b domain.Product) int {
		return strings.Compare(a.Name, b.Name)
	})

	total := len(matched)
	page, limit := normalizePage(q.Page, q.Limit)
	start := (page - 1) * limit
	if start >= total {
		return []domain.Product{}, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
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

func (s *Store) GetProductByID(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: product %s", store.ErrNotFound, id)
	}
	cp := p
	return &cp, nil
}

func (s *Store) GetProductByCode(_ context.Context, code string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.productIDByCode[code]
	if !ok {
		return nil, fmt.Errorf("%w: product code %s", store.ErrNotFound, code)
	}
	p := s.products[id]
	return &p, nil
}

func (s *Store) UpdateProduct(_ context.Context, id string, req domain.ProductUpdateRequest) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: product %s", store.ErrNotFound, id)
	}

	if req.Code != nil && *req.Code != p.Code {
		if _, taken := s.productIDByCode[*req.Code]; taken {
			return nil, fmt.Errorf("%w: product code already exists", store.ErrConflict)
		}
		delete(s.productIDByCode, p.Code)
		p.Code = *req.Code
		s.productIDByCode[p.Code] = p.ID
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	p.UpdatedAt = time.Now().UTC()

	s.products[id] = p
	updated := p
	return &updated, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return fmt.Errorf("%w: product %s", store.ErrNotFound, id)
	}
	for _, sale := range s.sales {
		for _, item := range sale.Items {
			if item.ProductID == id {
				return fmt.Errorf("%w: product has sales and cannot be deleted", store.ErrConflict)
			}
		}
	}

	delete(s.productIDByCode, p.Code)
	delete(s.products, id)
	return nil
}

// CreateSale runs the whole sale pipeline under the write lock so stock
// checks, the receipt counter and persistence observe one consistent state.
// Any failure leaves the store untouched.
func (s *Store) CreateSale(_ context.Context, input store.SaleInput) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	required := make(map[string]int)
	order := make([]string, 0, len(input.Lines))
	for _, line := range input.Lines {
		if _, seen := required[line.ProductID]; !seen {
			order = append(order, line.ProductID)
		}
		required[line.ProductID] += line.Qty
	}

	productMap := make(map[string]domain.Product, len(order))
	for _, id := range order {
		p, ok := s.products[id]
		if !ok {
			return nil, fmt.Errorf("%w: product %s", store.ErrNotFound, id)
		}
		productMap[id] = p
	}

	for _, id := range order {
		p := productMap[id]
		if p.Stock < required[id] {
			return nil, fmt.Errorf("%w for %s", store.ErrInsufficientStock, p.Name)
		}
	}

	lines := make([]pricing.Line, 0, len(input.Lines))
	for _, line := range input.Lines {
		lines = append(lines, pricing.PriceLine(productMap[line.ProductID], line.Qty, line.UnitPriceOverride))
	}
	subtotal := pricing.Subtotal(lines)
	discount, tax, total, err := pricing.Totals(subtotal, input.Discount)
	if err != nil {
		return nil, err
	}

	breakdown, err := payment.Reconcile(input.Method, input.Tender, total)
	if err != nil {
		return nil, err
	}

	// All validations passed; apply effects.
	for _, id := range order {
		p := s.products[id]
		p.Stock -= required[id]
		p.UpdatedAt = time.Now().UTC()
		s.products[id] = p
	}

	s.receiptCounter++
	seq := s.receiptCounter

	paid, cash, card, change := breakdown.Amounts()
	sale := &domain.Sale{
		ID:            uuid.NewString(),
		ReceiptSeq:    seq,
		ReceiptNo:     receipt.FormatNumber(seq),
		CashierID:     input.CashierID,
		CashierName:   input.CashierName,
		Subtotal:      subtotal,
		Discount:      discount,
		Tax:           tax,
		Total:         total,
		PaymentMethod: breakdown.Method(),
		PaidAmount:    paid,
		CashAmount:    cash,
		CardAmount:    card,
		ChangeAmount:  change,
		CreatedAt:     time.Now().UTC(),
	}
	for _, l := range lines {
		sale.Items = append(sale.Items, domain.SaleItem{
			ID:          uuid.NewString(),
			ProductID:   l.Product.ID,
			ProductCode: l.Product.Code,
			ProductName: l.Product.Name,
			Qty:         l.Qty,
			UnitPrice:   l.UnitPrice,
			LineTotal:   l.LineTotal,
		})
	}

	s.sales[sale.ID] = sale
	created := cloneSale(sale)
	return created, nil
}

func (s *Store) GetSaleByID(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, ok := s.sales[id]
	if !ok {
		return nil, fmt.Errorf("%w: sale %s", store.ErrNotFound, id)
	}
	return cloneSale(sale), nil
}

func (s *Store) ListSalesBetween(_ context.Context, from time.Time, to time.Time) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Sale, 0)
	for _, sale := range s.sales {
		if sale.CreatedAt.Before(from) || sale.CreatedAt.After(to) {
			continue
		}
		result = append(result, *cloneSale(sale))
	}
	slices.SortFunc(result, func(a, b domain.Sale) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return strings.Compare(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	return result, nil
}

// DeleteSale restores stock for every item and removes the sale. The
// receipt counter is never decremented, so a deleted sale's number is
// retired for good. Missing products are skipped with a warning.
func (s *Store) DeleteSale(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, ok := s.sales[id]
	if !ok {
		return nil, fmt.Errorf("%w: sale %s", store.ErrNotFound, id)
	}

	for _, item := range sale.Items {
		p, exists := s.products[item.ProductID]
		if !exists {
			log.Printf("[memory-store] WARN: sale %s references deleted product %s, stock not restored", id, item.ProductID)
			continue
		}
		p.Stock += item.Qty
		p.UpdatedAt = time.Now().UTC()
		s.products[item.ProductID] = p
	}

	deleted := cloneSale(sale)
	delete(s.sales, id)
	return deleted, nil
}

func cloneSale(sale *domain.Sale) *domain.Sale {
	cp := *sale
	cp.Items = make([]domain.SaleItem, len(sale.Items))
	copy(cp.Items, sale.Items)
	return &cp
}

func (s *Store) CreateUser(_ context.Context, user domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.userIDByEmail[user.Email]; exists {
		return nil, fmt.Errorf("%w: email already registered", store.ErrConflict)
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	s.usersByID[user.ID] = user
	s.userIDByEmail[user.Email] = user.ID
	created := user
	return &created, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.userIDByEmail[email]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", store.ErrNotFound, email)
	}
	user := s.usersByID[id]
	return &user, nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.usersByID[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", store.ErrNotFound, id)
	}
	return &user, nil
}

func (s *Store) CreateRefreshToken(_ context.Context, token domain.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	s.refreshByHash[token.TokenHash] = token
	return nil
}

func (s *Store) GetRefreshToken(_ context.Context, tokenHash string) (*domain.RefreshToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.refreshByHash[tokenHash]
	if !ok {
		return nil, fmt.Errorf("%w: refresh token", store.ErrNotFound)
	}
	return &token, nil
}

func (s *Store) DeleteRefreshToken(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.refreshByHash[tokenHash]; !ok {
		return fmt.Errorf("%w: refresh token", store.ErrNotFound)
	}
	delete(s.refreshByHash, tokenHash)
	return nil
}

func (s *Store) DeleteRefreshTokensForUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for hash, token := range s.refreshByHash {
		if token.UserID == userID {
			delete(s.refreshByHash, hash)
		}
	}
	return nil
}

func workDayKey(userID, date string) string {
	return userID + "|" + date
}

func (s *Store) UpsertWorkDay(_ context.Context, day domain.WorkDay) (*domain.WorkDay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := workDayKey(day.UserID, day.Date)
	if existing, ok := s.workDays[key]; ok {
		day.ID = existing.ID
	} else if day.ID == "" {
		day.ID = uuid.NewString()
	}
	s.workDays[key] = day
	saved := day
	return &saved, nil
}

func (s *Store) GetWorkDay(_ context.Context, userID string, date string) (*domain.WorkDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	day, ok := s.workDays[workDayKey(userID, date)]
	if !ok {
		return nil, fmt.Errorf("%w: work day", store.ErrNotFound)
	}
	return &day, nil
}

func (s *Store) ListWorkDays(_ context.Context, userID string, fromDate string, toDate string) ([]domain.WorkDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.WorkDay, 0)
	for _, day := range s.workDays {
		if day.UserID != userID {
			continue
		}
		if day.Date < fromDate || day.Date > toDate {
			continue
		}
		result = append(result, day)
	}
	slices.SortFunc(result, func(a, b domain.WorkDay) int {
		return strings.Compare(a.Date, b.Date)
	})
	return result, nil
}

// Package service orchestrates the sale transaction pipeline and the
// surrounding catalog, reporting and work-hour operations on top of a
// store.Repository.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"
	"time"

	"lumapos/backend/internal/cache"
	"lumapos/backend/internal/domain"
	"lumapos/backend/internal/money"
	"lumapos/backend/internal/payment"
	"lumapos/backend/internal/receipt"
	"lumapos/backend/internal/store"
)

// ErrValidation reports a request that is malformed before it ever reaches
// the store: empty carts, non-positive quantities, bad date strings.
var ErrValidation = errors.New("invalid request")

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo      store.Repository
	receipts  cache.ReceiptCache
	storeInfo domain.ReceiptStore
	cacheTTL  time.Duration
}

func New(repo store.Repository, receipts cache.ReceiptCache, storeInfo domain.ReceiptStore, cacheTTL time.Duration) *Service {
	if receipts == nil {
		receipts = cache.NoopReceiptCache{}
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}

	return &Service{
		repo:      repo,
		receipts:  receipts,
		storeInfo: storeInfo,
		cacheTTL:  cacheTTL,
	}
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	if err := requireRole(ctx, domain.RoleOwner); err != nil {
		return domain.Product{}, err
	}

	req.Code = strings.TrimSpace(req.Code)
	req.Name = strings.TrimSpace(req.Name)
	if req.Code == "" || req.Name == "" {
		return domain.Product{}, fmt.Errorf("%w: code and name are required", ErrValidation)
	}
	if req.Price.IsNegative() || req.Price.IsZero() {
		return domain.Product{}, fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	if req.Stock < 0 {
		return domain.Product{}, fmt.Errorf("%w: stock must be >= 0", ErrValidation)
	}

	created, err := s.repo.CreateProduct(ctx, domain.Product{
		Code:  req.Code,
		Name:  req.Name,
		Price: req.Price,
		Stock: req.Stock,
	})
	if err != nil {
		return domain.Product{}, err
	}
	return *created, nil
}

func (s *Service) ListProducts(ctx context.Context, q domain.ProductListQuery) (domain.ProductListResponse, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 20
	}

	products, total, err := s.repo.ListProducts(ctx, q)
	if err != nil {
		return domain.ProductListResponse{}, err
	}
	return domain.ProductListResponse{
		Products: products,
		Total:    total,
		Page:     q.Page,
		Limit:    q.Limit,
	}, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	p, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	return *p, nil
}

func (s *Service) GetProductByCode(ctx context.Context, code string) (domain.Product, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return domain.Product{}, fmt.Errorf("%w: code is required", ErrValidation)
	}
	p, err := s.repo.GetProductByCode(ctx, code)
	if err != nil {
		return domain.Product{}, err
	}
	return *p, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	if err := requireRole(ctx, domain.RoleOwner); err != nil {
		return domain.Product{}, err
	}

	if req.Price != nil && (req.Price.IsNegative() || req.Price.IsZero()) {
		return domain.Product{}, fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	if req.Stock != nil && *req.Stock < 0 {
		return domain.Product{}, fmt.Errorf("%w: stock must be >= 0", ErrValidation)
	}
	if req.Code != nil {
		trimmed := strings.TrimSpace(*req.Code)
		if trimmed == "" {
			return domain.Product{}, fmt.Errorf("%w: code cannot be blank", ErrValidation)
		}
		req.Code = &trimmed
	}

	updated, err := s.repo.UpdateProduct(ctx, id, req)
	if err != nil {
		return domain.Product{}, err
	}
	return *updated, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := requireRole(ctx, domain.RoleOwner); err != nil {
		return err
	}
	return s.repo.DeleteProduct(ctx, id)
}

// CreateSale runs the whole sale transaction for the acting cashier. The
// repository executes the pipeline atomically; a failure at any stage
// leaves stock, the sales history and issued receipt numbers untouched.
// The committed sale comes back together with its assembled receipt.
func (s *Service) CreateSale(ctx context.Context, req domain.CreateSaleRequest) (domain.CreateSaleResult, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.CreateSaleResult{}, fmt.Errorf("%w: missing actor", ErrValidation)
	}

	lines, err := validateLines(req.Items)
	if err != nil {
		return domain.CreateSaleResult{}, err
	}

	sale, err := s.repo.CreateSale(ctx, store.SaleInput{
		CashierID:   actor.ID,
		CashierName: actor.FullName,
		Lines:       lines,
		Discount:    req.Discount,
		Method:      req.PaymentMethod,
		Tender: payment.Tender{
			Paid: req.PaidAmount,
			Cash: req.CashAmount,
			Card: req.CardAmount,
		},
	})
	if err != nil {
		return domain.CreateSaleResult{}, err
	}

	log.Printf("[service] sale %s (%s) total=%s items=%d cashier=%s", sale.ID, sale.ReceiptNo, sale.Total, len(sale.Items), actor.Email)
	return domain.CreateSaleResult{
		Sale:    *sale,
		Receipt: receipt.Assemble(*sale, s.storeInfo),
	}, nil
}

// CreateSaleByCode resolves a product code to its ID and delegates to the
// same pipeline as CreateSale.
func (s *Service) CreateSaleByCode(ctx context.Context, req domain.CreateSaleByCodeRequest) (domain.CreateSaleResult, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return domain.CreateSaleResult{}, fmt.Errorf("%w: code is required", ErrValidation)
	}

	product, err := s.repo.GetProductByCode(ctx, code)
	if err != nil {
		return domain.CreateSaleResult{}, err
	}

	return s.CreateSale(ctx, domain.CreateSaleRequest{
		Items: []domain.SaleLine{{
			ProductID:         product.ID,
			Qty:               req.Qty,
			UnitPriceOverride: req.UnitPriceOverride,
		}},
		Discount:      req.Discount,
		PaymentMethod: req.PaymentMethod,
		PaidAmount:    req.PaidAmount,
		CashAmount:    req.CashAmount,
		CardAmount:    req.CardAmount,
	})
}

func validateLines(items []domain.SaleLine) ([]store.SaleLineInput, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: sale needs at least one item", ErrValidation)
	}

	lines := make([]store.SaleLineInput, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.ProductID) == "" {
			return nil, fmt.Errorf("%w: item product_id is required", ErrValidation)
		}
		if item.Qty < 1 {
			return nil, fmt.Errorf("%w: item qty must be >= 1", ErrValidation)
		}
		if item.UnitPriceOverride != nil && item.UnitPriceOverride.IsNegative() {
			return nil, fmt.Errorf("%w: unit price override must be >= 0", ErrValidation)
		}
		lines = append(lines, store.SaleLineInput{
			ProductID:         item.ProductID,
			Qty:               item.Qty,
			UnitPriceOverride: item.UnitPriceOverride,
		})
	}
	return lines, nil
}

func (s *Service) GetSale(ctx context.Context, id string) (domain.Sale, error) {
	sale, err := s.repo.GetSaleByID(ctx, id)
	if err != nil {
		return domain.Sale{}, err
	}
	return *sale, nil
}

// GetReceipt assembles the printable receipt for a sale, serving repeat
// lookups from the cache.
func (s *Service) GetReceipt(ctx context.Context, saleID string) (domain.Receipt, error) {
	if cached, ok, err := s.receipts.Get(ctx, saleID); err != nil {
		log.Printf("[service] WARN: receipt cache get %s: %v", saleID, err)
	} else if ok {
		return *cached, nil
	}

	sale, err := s.repo.GetSaleByID(ctx, saleID)
	if err != nil {
		return domain.Receipt{}, err
	}

	doc := receipt.Assemble(*sale, s.storeInfo)
	if err := s.receipts.Set(ctx, saleID, &doc, s.cacheTTL); err != nil {
		log.Printf("[service] WARN: receipt cache set %s: %v", saleID, err)
	}
	return doc, nil
}

func (s *Service) SalesToday(ctx context.Context) (domain.SalesTodayResponse, error) {
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	to := from.Add(24*time.Hour - time.Nanosecond)

	sales, err := s.repo.ListSalesBetween(ctx, from, to)
	if err != nil {
		return domain.SalesTodayResponse{}, err
	}

	total := money.Zero
	itemsSold := 0
	for _, sale := range sales {
		total = total.Add(sale.Total)
		for _, item := range sale.Items {
			itemsSold += item.Qty
		}
	}

	return domain.SalesTodayResponse{
		Sales: sales,
		Summary: domain.SalesTodaySummary{
			Count:       len(sales),
			TotalAmount: total.Float64(),
			ItemsSold:   itemsSold,
		},
	}, nil
}

// DeleteSale restores stock and removes the sale. The receipt number stays
// consumed; the cached receipt, if any, is dropped.
func (s *Service) DeleteSale(ctx context.Context, id string) (domain.Sale, error) {
	if err := requireRole(ctx, domain.RoleOwner); err != nil {
		return domain.Sale{}, err
	}

	sale, err := s.repo.DeleteSale(ctx, id)
	if err != nil {
		return domain.Sale{}, err
	}
	if err := s.receipts.Delete(ctx, id); err != nil {
		log.Printf("[service] WARN: receipt cache delete %s: %v", id, err)
	}

	log.Printf("[service] sale %s (%s) deleted, stock restored", sale.ID, sale.ReceiptNo)
	return *sale, nil
}

var (
	datePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	monthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)
)

func (s *Service) DailyReport(ctx context.Context, date string) (domain.DailyReport, error) {
	if err := requireRole(ctx, domain.RoleOwner); err != nil {
		return domain.DailyReport{}, err
	}

	date = strings.TrimSpace(date)
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}
	if !datePattern.MatchString(date) {
		return domain.DailyReport{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return domain.DailyReport{}, fmt.Errorf("%w: invalid date value", ErrValidation)
	}

	from := day
	to := day.Add(24*time.Hour - time.Nanosecond)
	sales, err := s.repo.ListSalesBetween(ctx, from, to)
	if err != nil {
		return domain.DailyReport{}, err
	}

	report := domain.DailyReport{Date: date, SalesCount: len(sales)}
	total := money.Zero
	type agg struct {
		name   string
		qty    int
		amount money.Money
	}
	byProduct := make(map[string]*agg)
	for _, sale := range sales {
		total = total.Add(sale.Total)
		for _, item := range sale.Items {
			report.ItemsSold += item.Qty
			a, ok := byProduct[item.ProductID]
			if !ok {
				a = &agg{name: item.ProductName}
				byProduct[item.ProductID] = a
			}
			a.qty += item.Qty
			a.amount = a.amount.Add(item.LineTotal)
		}
	}
	report.TotalAmount = total.Float64()

	report.TopProducts = make([]domain.TopProduct, 0, len(byProduct))
	for id, a := range byProduct {
		report.TopProducts = append(report.TopProducts, domain.TopProduct{
			ProductID: id,
			Name:      a.name,
			Qty:       a.qty,
			Amount:    a.amount.Float64(),
		})
	}
	sort.Slice(report.TopProducts, func(i, j int) bool {
		if report.TopProducts[i].Amount == report.TopProducts[j].Amount {
			return report.TopProducts[i].Name < report.TopProducts[j].Name
		}
		return report.TopProducts[i].Amount > report.TopProducts[j].Amount
	})

	return report, nil
}

func (s *Service) MonthlyReport(ctx context.Context, month string) (domain.MonthlyReport, error) {
	if err := requireRole(ctx, domain.RoleOwner); err != nil {
		return domain.MonthlyReport{}, err
	}

	month = strings.TrimSpace(month)
	if month == "" {
		month = time.Now().UTC().Format("2006-01")
	}
	if !monthPattern.MatchString(month) {
		return domain.MonthlyReport{}, fmt.Errorf("%w: month must be YYYY-MM", ErrValidation)
	}
	first, err := time.Parse("2006-01", month)
	if err != nil {
		return domain.MonthlyReport{}, fmt.Errorf("%w: invalid month value", ErrValidation)
	}

	from := first
	to := first.AddDate(0, 1, 0).Add(-time.Nanosecond)
	sales, err := s.repo.ListSalesBetween(ctx, from, to)
	if err != nil {
		return domain.MonthlyReport{}, err
	}

	report := domain.MonthlyReport{Month: month, SalesCount: len(sales)}
	total := money.Zero
	type dayAgg struct {
		count  int
		amount money.Money
	}
	byDay := make(map[string]*dayAgg)
	for _, sale := range sales {
		total = total.Add(sale.Total)
		for _, item := range sale.Items {
			report.ItemsSold += item.Qty
		}
		key := sale.CreatedAt.UTC().Format("2006-01-02")
		d, ok := byDay[key]
		if !ok {
			d = &dayAgg{}
			byDay[key] = d
		}
		d.count++
		d.amount = d.amount.Add(sale.Total)
	}
	report.TotalAmount = total.Float64()

	report.Days = make([]domain.MonthlyReportDay, 0, len(byDay))
	for date, d := range byDay {
		report.Days = append(report.Days, domain.MonthlyReportDay{
			Date:        date,
			SalesCount:  d.count,
			TotalAmount: d.amount.Float64(),
		})
	}
	sort.Slice(report.Days, func(i, j int) bool {
		return report.Days[i].Date < report.Days[j].Date
	})

	return report, nil
}

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

// UpsertWorkDay records a cashier's shifts for one date. Total minutes are
// derived from the shift boundaries. The acting user always writes their
// own record.
func (s *Service) UpsertWorkDay(ctx context.Context, req domain.WorkDayUpsertRequest) (domain.WorkDay, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.WorkDay{}, fmt.Errorf("%w: missing actor", ErrValidation)
	}

	date := strings.TrimSpace(req.Date)
	if !datePattern.MatchString(date) {
		return domain.WorkDay{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return domain.WorkDay{}, fmt.Errorf("%w: invalid date value", ErrValidation)
	}

	s1s, s1e, err := parseShift(day, req.Shift1Start, req.Shift1End, "shift 1")
	if err != nil {
		return domain.WorkDay{}, err
	}
	s2s, s2e, err := parseShift(day, req.Shift2Start, req.Shift2End, "shift 2")
	if err != nil {
		return domain.WorkDay{}, err
	}

	saved, err := s.repo.UpsertWorkDay(ctx, domain.WorkDay{
		UserID:       actor.ID,
		Date:         date,
		Shift1Start:  s1s,
		Shift1End:    s1e,
		Shift2Start:  s2s,
		Shift2End:    s2e,
		TotalMinutes: minutesBetween(s1s, s1e) + minutesBetween(s2s, s2e),
	})
	if err != nil {
		return domain.WorkDay{}, err
	}
	return *saved, nil
}

func parseShift(day time.Time, startStr, endStr, label string) (*time.Time, *time.Time, error) {
	start, err := parseClock(day, startStr)
	if err != nil {
		return nil, nil, err
	}
	end, err := parseClock(day, endStr)
	if err != nil {
		return nil, nil, err
	}
	if (start == nil) != (end == nil) {
		return nil, nil, fmt.Errorf("%w: %s start and end must both be provided", ErrValidation, label)
	}
	if start != nil && !end.After(*start) {
		return nil, nil, fmt.Errorf("%w: %s end must be after start", ErrValidation, label)
	}
	return start, end, nil
}

func parseClock(day time.Time, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	m := clockPattern.FindStringSubmatch(value)
	if m == nil {
		return nil, fmt.Errorf("%w: time must be HH:mm", ErrValidation)
	}
	var hours, minutes int
	if _, err := fmt.Sscanf(value, "%d:%d", &hours, &minutes); err != nil {
		return nil, fmt.Errorf("%w: time must be HH:mm", ErrValidation)
	}
	t := time.Date(day.Year(), day.Month(), day.Day(), hours, minutes, 0, 0, time.UTC)
	return &t, nil
}

func minutesBetween(start, end *time.Time) int {
	if start == nil || end == nil {
		return 0
	}
	return int(end.Sub(*start).Minutes())
}

// GetWorkDay returns one user's record for a date. Cashiers can only read
// their own; owners may pass any user ID.
func (s *Service) GetWorkDay(ctx context.Context, date string, userID string) (domain.WorkDay, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.WorkDay{}, fmt.Errorf("%w: missing actor", ErrValidation)
	}

	date = strings.TrimSpace(date)
	if !datePattern.MatchString(date) {
		return domain.WorkDay{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}

	if actor.Role != domain.RoleOwner || userID == "" {
		userID = actor.ID
	}

	day, err := s.repo.GetWorkDay(ctx, userID, date)
	if err != nil {
		return domain.WorkDay{}, err
	}
	return *day, nil
}

func (s *Service) MonthlyWorkSummary(ctx context.Context, month string, userID string) (domain.WorkMonthSummary, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.WorkMonthSummary{}, fmt.Errorf("%w: missing actor", ErrValidation)
	}

	month = strings.TrimSpace(month)
	if month == "" {
		month = time.Now().UTC().Format("2006-01")
	}
	if !monthPattern.MatchString(month) {
		return domain.WorkMonthSummary{}, fmt.Errorf("%w: month must be YYYY-MM", ErrValidation)
	}
	first, err := time.Parse("2006-01", month)
	if err != nil {
		return domain.WorkMonthSummary{}, fmt.Errorf("%w: invalid month value", ErrValidation)
	}

	if actor.Role != domain.RoleOwner || userID == "" {
		userID = actor.ID
	}

	fromDate := first.Format("2006-01-02")
	toDate := first.AddDate(0, 1, -1).Format("2006-01-02")
	days, err := s.repo.ListWorkDays(ctx, userID, fromDate, toDate)
	if err != nil {
		return domain.WorkMonthSummary{}, err
	}

	summary := domain.WorkMonthSummary{
		UserID:     userID,
		Month:      month,
		DaysWorked: len(days),
		Days:       days,
	}
	for _, day := range days {
		summary.TotalMinutes += day.TotalMinutes
	}
	return summary, nil
}

func requireRole(ctx context.Context, role string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != role {
		return fmt.Errorf("%s role required", strings.ToLower(role))
	}
	return nil
}

package domain

import (
	"time"

	"lumapos/backend/internal/money"
	"lumapos/backend/internal/payment"
)

type Product struct {
	ID        string      `json:"id"`
	Code      string      `json:"code"`
	Name      string      `json:"name"`
	Price     money.Money `json:"price"`
	Stock     int         `json:"stock"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type ProductCreateRequest struct {
	Code  string      `json:"code"`
	Name  string      `json:"name"`
	Price money.Money `json:"price"`
	Stock int         `json:"stock"`
}

type ProductUpdateRequest struct {
	Code  *string      `json:"code,omitempty"`
	Name  *string      `json:"name,omitempty"`
	Price *money.Money `json:"price,omitempty"`
	Stock *int         `json:"stock,omitempty"`
}

type ProductListQuery struct {
	Search   string
	LowStock bool
	Page     int
	Limit    int
}

type ProductListResponse struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
}

type SaleLine struct {
	ProductID         string       `json:"product_id"`
	Qty               int          `json:"qty"`
	UnitPriceOverride *money.Money `json:"unit_price_override,omitempty"`
}

type CreateSaleRequest struct {
	Items         []SaleLine     `json:"items"`
	Discount      *money.Money   `json:"discount,omitempty"`
	PaymentMethod payment.Method `json:"payment_method"`
	PaidAmount    *money.Money   `json:"paid_amount,omitempty"`
	CashAmount    *money.Money   `json:"cash_amount,omitempty"`
	CardAmount    *money.Money   `json:"card_amount,omitempty"`
}

// CreateSaleByCodeRequest rings up a single product by its code, for
// scanner-driven quick sales.
type CreateSaleByCodeRequest struct {
	Code              string         `json:"code"`
	Qty               int            `json:"qty"`
	UnitPriceOverride *money.Money   `json:"unit_price_override,omitempty"`
	Discount          *money.Money   `json:"discount,omitempty"`
	PaymentMethod     payment.Method `json:"payment_method"`
	PaidAmount        *money.Money   `json:"paid_amount,omitempty"`
	CashAmount        *money.Money   `json:"cash_amount,omitempty"`
	CardAmount        *money.Money   `json:"card_amount,omitempty"`
}

type SaleItem struct {
	ID          string      `json:"id"`
	ProductID   string      `json:"product_id"`
	ProductCode string      `json:"product_code"`
	ProductName string      `json:"product_name"`
	Qty         int         `json:"qty"`
	UnitPrice   money.Money `json:"unit_price"`
	LineTotal   money.Money `json:"line_total"`
}

type Sale struct {
	ID            string         `json:"id"`
	ReceiptSeq    int64          `json:"-"`
	ReceiptNo     string         `json:"receipt_no"`
	CashierID     string         `json:"cashier_id"`
	CashierName   string         `json:"cashier_name"`
	Subtotal      money.Money    `json:"subtotal"`
	Discount      money.Money    `json:"discount"`
	Tax           money.Money    `json:"tax"`
	Total         money.Money    `json:"total"`
	PaymentMethod payment.Method `json:"payment_method"`
	PaidAmount    *money.Money   `json:"paid_amount,omitempty"`
	CashAmount    *money.Money   `json:"cash_amount,omitempty"`
	CardAmount    *money.Money   `json:"card_amount,omitempty"`
	ChangeAmount  *money.Money   `json:"change_amount,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	Items         []SaleItem     `json:"items"`
}

type SalesTodayResponse struct {
	Sales   []Sale            `json:"sales"`
	Summary SalesTodaySummary `json:"summary"`
}

type SalesTodaySummary struct {
	Count       int     `json:"count"`
	TotalAmount float64 `json:"total_amount"`
	ItemsSold   int     `json:"items_sold"`
}

type ReceiptStore struct {
	Name      string   `json:"name"`
	Address   string   `json:"address,omitempty"`
	Phone     string   `json:"phone,omitempty"`
	TaxNumber string   `json:"tax_number,omitempty"`
	Currency  string   `json:"currency"`
	Footer    []string `json:"footer,omitempty"`
}

type ReceiptCashier struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ReceiptLine struct {
	ProductID string      `json:"product_id"`
	Name      string      `json:"name"`
	Code      string      `json:"code"`
	Qty       int         `json:"qty"`
	UnitPrice money.Money `json:"unit_price"`
	LineTotal money.Money `json:"line_total"`
}

// ReceiptItemsSummary condenses the item lines into the footer counters a
// printed receipt shows: total units sold and distinct line count.
type ReceiptItemsSummary struct {
	TotalQty      int `json:"total_qty"`
	DistinctItems int `json:"distinct_items"`
}

type ReceiptPayment struct {
	Method payment.Method `json:"method"`
	Paid   *money.Money   `json:"paid,omitempty"`
	Cash   *money.Money   `json:"cash,omitempty"`
	Card   *money.Money   `json:"card,omitempty"`
	Change *money.Money   `json:"change,omitempty"`
}

type Receipt struct {
	ReceiptID    string              `json:"receipt_id"`
	ReceiptNo    string              `json:"receipt_no"`
	IssuedAt     time.Time           `json:"issued_at"`
	DisplayDate  string              `json:"display_date"`
	DisplayTime  string              `json:"display_time"`
	Currency     string              `json:"currency"`
	Store        ReceiptStore        `json:"store"`
	Cashier      ReceiptCashier      `json:"cashier"`
	Items        []ReceiptLine       `json:"items"`
	ItemsSummary ReceiptItemsSummary `json:"items_summary"`
	Subtotal     money.Money         `json:"subtotal"`
	Discount     money.Money         `json:"discount"`
	Tax          money.Money         `json:"tax"`
	Total        money.Money         `json:"total"`
	Payment      ReceiptPayment      `json:"payment"`
}

// CreateSaleResult pairs the persisted sale with its printable receipt so a
// register can show both from a single create call.
type CreateSaleResult struct {
	Sale    Sale    `json:"sale"`
	Receipt Receipt `json:"receipt"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    string `json:"expires_at"`
}

type AuthResponse struct {
	User   PublicUser `json:"user"`
	Tokens TokenPair  `json:"tokens"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type PublicUser struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type Actor struct {
	ID       string
	Email    string
	FullName string
	Role     string
}

// User is an internal persistence model for auth credentials.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FullName     string
	Role         string
	CreatedAt    time.Time
}

// RefreshToken stores a hashed refresh token for rotation and revocation.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

type TopProduct struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Qty       int     `json:"qty"`
	Amount    float64 `json:"amount"`
}

type DailyReport struct {
	Date        string       `json:"date"`
	SalesCount  int          `json:"sales_count"`
	TotalAmount float64      `json:"total_amount"`
	ItemsSold   int          `json:"items_sold"`
	TopProducts []TopProduct `json:"top_products"`
}

type MonthlyReportDay struct {
	Date        string  `json:"date"`
	SalesCount  int     `json:"sales_count"`
	TotalAmount float64 `json:"total_amount"`
}

type MonthlyReport struct {
	Month       string             `json:"month"`
	SalesCount  int                `json:"sales_count"`
	TotalAmount float64            `json:"total_amount"`
	ItemsSold   int                `json:"items_sold"`
	Days        []MonthlyReportDay `json:"days"`
}

type WorkDay struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Date         string     `json:"date"`
	Shift1Start  *time.Time `json:"shift1_start,omitempty"`
	Shift1End    *time.Time `json:"shift1_end,omitempty"`
	Shift2Start  *time.Time `json:"shift2_start,omitempty"`
	Shift2End    *time.Time `json:"shift2_end,omitempty"`
	TotalMinutes int        `json:"total_minutes"`
}

// WorkDayUpsertRequest carries shift boundaries as HH:mm clock strings on
// the given date.
type WorkDayUpsertRequest struct {
	Date        string `json:"date"`
	Shift1Start string `json:"shift1_start,omitempty"`
	Shift1End   string `json:"shift1_end,omitempty"`
	Shift2Start string `json:"shift2_start,omitempty"`
	Shift2End   string `json:"shift2_end,omitempty"`
}

type WorkMonthSummary struct {
	UserID       string    `json:"user_id"`
	Month        string    `json:"month"`
	DaysWorked   int       `json:"days_worked"`
	TotalMinutes int       `json:"total_minutes"`
	Days         []WorkDay `json:"days"`
}

const (
	RoleOwner   = "OWNER"
	RoleCashier = "CASHIER"
)

const LowStockThreshold = 5

package store

import (
	"context"
	"errors"
	"time"

	"lumapos/backend/internal/domain"
	"lumapos/backend/internal/money"
	"lumapos/backend/internal/payment"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrConflict          = errors.New("conflict")
)

// SaleLineInput is one requested line of a new sale. Duplicate product IDs
// are allowed and stay separate lines; quantities are aggregated only for
// the stock check.
type SaleLineInput struct {
	ProductID         string
	Qty               int
	UnitPriceOverride *money.Money
}

// SaleInput is everything a store needs to run the atomic sale pipeline:
// stock decrement, pricing, discount validation, payment reconciliation,
// receipt sequencing and persistence happen in one transaction.
type SaleInput struct {
	CashierID   string
	CashierName string
	Lines       []SaleLineInput
	Discount    *money.Money
	Method      payment.Method
	Tender      payment.Tender
}

type Repository interface {
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	ListProducts(ctx context.Context, q domain.ProductListQuery) ([]domain.Product, int, error)
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	GetProductByCode(ctx context.Context, code string) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	CreateSale(ctx context.Context, input SaleInput) (*domain.Sale, error)
	GetSaleByID(ctx context.Context, id string) (*domain.Sale, error)
	ListSalesBetween(ctx context.Context, from time.Time, to time.Time) ([]domain.Sale, error)
	DeleteSale(ctx context.Context, id string) (*domain.Sale, error)

	CreateUser(ctx context.Context, user domain.User) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)

	CreateRefreshToken(ctx context.Context, token domain.RefreshToken) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, tokenHash string) error
	DeleteRefreshTokensForUser(ctx context.Context, userID string) error

	UpsertWorkDay(ctx context.Context, day domain.WorkDay) (*domain.WorkDay, error)
	GetWorkDay(ctx context.Context, userID string, date string) (*domain.WorkDay, error)
	ListWorkDays(ctx context.Context, userID string, fromDate string, toDate string) ([]domain.WorkDay, error)
}

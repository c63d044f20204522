// Package payment normalizes a raw customer tender into a settled payment
// breakdown for a known sale total. It performs no I/O and holds no state.
package payment

import (
	"errors"
	"fmt"

	"lumapos/backend/internal/money"
)

// Method identifies how a sale is paid.
type Method string

const (
	MethodCash  Method = "CASH"
	MethodCard  Method = "CARD"
	MethodMixed Method = "MIXED"
)

// ErrInvalidPayment reports a tender that cannot settle the sale total.
var ErrInvalidPayment = errors.New("invalid payment")

// Tender is the raw payment input from the caller. Nil fields were not
// supplied; which fields are required depends on the method.
type Tender struct {
	Paid *money.Money
	Cash *money.Money
	Card *money.Money
}

// Breakdown is the settled outcome of reconciling a tender. Exactly one of
// the concrete forms below is returned per method, each carrying only the
// amounts that method produces.
type Breakdown interface {
	Method() Method

	// Amounts reports the settled figures as nullable fields for
	// persistence: paid, cash, card, change.
	Amounts() (paid, cash, card, change *money.Money)
}

// CashBreakdown settles a CASH sale.
type CashBreakdown struct {
	Paid   money.Money
	Change money.Money
}

func (CashBreakdown) Method() Method { return MethodCash }

func (b CashBreakdown) Amounts() (paid, cash, card, change *money.Money) {
	return &b.Paid, &b.Paid, nil, &b.Change
}

// CardBreakdown settles a CARD sale. Change is always zero.
type CardBreakdown struct {
	Paid   money.Money
	Amount money.Money
}

func (CardBreakdown) Method() Method { return MethodCard }

func (b CardBreakdown) Amounts() (paid, cash, card, change *money.Money) {
	zero := money.Zero
	return &b.Paid, nil, &b.Amount, &zero
}

// MixedBreakdown settles a sale split across cash and card. Card is charged
// first up to its stated amount, cash covers the remainder, and change is
// returned from the cash portion.
type MixedBreakdown struct {
	Paid   money.Money
	Cash   money.Money
	Card   money.Money
	Change money.Money
}

func (MixedBreakdown) Method() Method { return MethodMixed }

func (b MixedBreakdown) Amounts() (paid, cash, card, change *money.Money) {
	return &b.Paid, &b.Cash, &b.Card, &b.Change
}

// Reconcile validates a tender against the sale total and produces the
// settled breakdown. All failures wrap ErrInvalidPayment.
func Reconcile(method Method, tender Tender, total money.Money) (Breakdown, error) {
	switch method {
	case MethodCash:
		if tender.Paid == nil {
			return nil, fmt.Errorf("%w: paid amount is required for CASH", ErrInvalidPayment)
		}
		paid := *tender.Paid
		if paid.LessThan(total) {
			return nil, fmt.Errorf("%w: paid amount must be >= total for CASH", ErrInvalidPayment)
		}
		return CashBreakdown{Paid: paid, Change: paid.Sub(total)}, nil

	case MethodCard:
		paid := total
		if tender.Paid != nil {
			paid = *tender.Paid
			if paid.LessThan(total) {
				return nil, fmt.Errorf("%w: paid amount must be >= total for CARD", ErrInvalidPayment)
			}
		}
		return CardBreakdown{Paid: paid, Amount: total}, nil

	case MethodMixed:
		if tender.Cash == nil || tender.Card == nil {
			return nil, fmt.Errorf("%w: cash and card amounts are required for MIXED", ErrInvalidPayment)
		}
		cash, card := *tender.Cash, *tender.Card
		if cash.IsNegative() || card.IsNegative() {
			return nil, fmt.Errorf("%w: cash and card amounts must be >= 0", ErrInvalidPayment)
		}
		if card.GreaterThan(total) {
			return nil, fmt.Errorf("%w: card amount must be <= total for MIXED", ErrInvalidPayment)
		}
		sum := cash.Add(card)
		if sum.LessThan(total) {
			return nil, fmt.Errorf("%w: cash + card must be >= total for MIXED", ErrInvalidPayment)
		}
		cashUsed := total.Sub(card)
		change := cash.Sub(cashUsed)
		if change.IsNegative() {
			return nil, fmt.Errorf("%w: invalid cash/card split for MIXED", ErrInvalidPayment)
		}
		return MixedBreakdown{Paid: sum, Cash: cash, Card: card, Change: change}, nil

	case "":
		return nil, fmt.Errorf("%w: payment method is required", ErrInvalidPayment)
	}
	return nil, fmt.Errorf("%w: unknown payment method %q", ErrInvalidPayment, method)
}

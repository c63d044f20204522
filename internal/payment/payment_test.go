package payment

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumapos/backend/internal/money"
)

func amt(s string) *money.Money {
	m := money.MustParse(s)
	return &m
}

func TestCashRequiresPaid(t *testing.T) {
	_, err := Reconcile(MethodCash, Tender{}, money.MustParse("100"))
	require.ErrorIs(t, err, ErrInvalidPayment)
}

func TestCashUnderpaymentRejected(t *testing.T) {
	_, err := Reconcile(MethodCash, Tender{Paid: amt("99.99")}, money.MustParse("100"))
	require.ErrorIs(t, err, ErrInvalidPayment)
}

func TestCashChange(t *testing.T) {
	b, err := Reconcile(MethodCash, Tender{Paid: amt("120")}, money.MustParse("100"))
	require.NoError(t, err)

	cash, ok := b.(CashBreakdown)
	require.True(t, ok)
	assert.Equal(t, "120.00", cash.Paid.String())
	assert.Equal(t, "20.00", cash.Change.String())

	paid, cashAmt, cardAmt, change := b.Amounts()
	assert.Equal(t, "120.00", paid.String())
	assert.Equal(t, "120.00", cashAmt.String())
	assert.Nil(t, cardAmt)
	assert.Equal(t, "20.00", change.String())
}

func TestCashExactPayment(t *testing.T) {
	b, err := Reconcile(MethodCash, Tender{Paid: amt("100")}, money.MustParse("100"))
	require.NoError(t, err)
	assert.True(t, b.(CashBreakdown).Change.IsZero())
}

func TestCardDefaultsPaidToTotal(t *testing.T) {
	b, err := Reconcile(MethodCard, Tender{}, money.MustParse("100"))
	require.NoError(t, err)

	card, ok := b.(CardBreakdown)
	require.True(t, ok)
	assert.Equal(t, "100.00", card.Paid.String())
	assert.Equal(t, "100.00", card.Amount.String())

	paid, cashAmt, cardAmt, change := b.Amounts()
	assert.Equal(t, "100.00", paid.String())
	assert.Nil(t, cashAmt)
	assert.Equal(t, "100.00", cardAmt.String())
	assert.True(t, change.IsZero())
}

func TestCardRejectsPaidBelowTotal(t *testing.T) {
	_, err := Reconcile(MethodCard, Tender{Paid: amt("90")}, money.MustParse("100"))
	require.ErrorIs(t, err, ErrInvalidPayment)
}

func TestCardAmountPinnedToTotal(t *testing.T) {
	b, err := Reconcile(MethodCard, Tender{Paid: amt("150")}, money.MustParse("100"))
	require.NoError(t, err)
	card := b.(CardBreakdown)
	assert.Equal(t, "150.00", card.Paid.String())
	assert.Equal(t, "100.00", card.Amount.String())
}

func TestMixedRequiresBothAmounts(t *testing.T) {
	total := money.MustParse("100")
	_, err := Reconcile(MethodMixed, Tender{Cash: amt("50")}, total)
	require.ErrorIs(t, err, ErrInvalidPayment)
	_, err = Reconcile(MethodMixed, Tender{Card: amt("50")}, total)
	require.ErrorIs(t, err, ErrInvalidPayment)
}

func TestMixedRejectsNegativeAmounts(t *testing.T) {
	_, err := Reconcile(MethodMixed, Tender{Cash: amt("-1"), Card: amt("50")}, money.MustParse("100"))
	require.ErrorIs(t, err, ErrInvalidPayment)
}

func TestMixedCardCannotExceedTotal(t *testing.T) {
	_, err := Reconcile(MethodMixed, Tender{Cash: amt("0"), Card: amt("101")}, money.MustParse("100"))
	require.ErrorIs(t, err, ErrInvalidPayment)
}

func TestMixedSumMustCoverTotal(t *testing.T) {
	_, err := Reconcile(MethodMixed, Tender{Cash: amt("30"), Card: amt("60")}, money.MustParse("100"))
	require.ErrorIs(t, err, ErrInvalidPayment)
}

func TestMixedChangeFromCashPortion(t *testing.T) {
	b, err := Reconcile(MethodMixed, Tender{Cash: amt("50"), Card: amt("60")}, money.MustParse("100"))
	require.NoError(t, err)

	mixed, ok := b.(MixedBreakdown)
	require.True(t, ok)
	assert.Equal(t, "110.00", mixed.Paid.String())
	assert.Equal(t, "50.00", mixed.Cash.String())
	assert.Equal(t, "60.00", mixed.Card.String())
	assert.Equal(t, "10.00", mixed.Change.String())
}

func TestMixedExactSplit(t *testing.T) {
	b, err := Reconcile(MethodMixed, Tender{Cash: amt("40"), Card: amt("60")}, money.MustParse("100"))
	require.NoError(t, err)
	assert.True(t, b.(MixedBreakdown).Change.IsZero())
}

func TestMissingAndUnknownMethods(t *testing.T) {
	_, err := Reconcile("", Tender{Paid: amt("100")}, money.MustParse("100"))
	require.ErrorIs(t, err, ErrInvalidPayment)

	_, err = Reconcile("CHECK", Tender{Paid: amt("100")}, money.MustParse("100"))
	require.ErrorIs(t, err, ErrInvalidPayment)
	assert.False(t, errors.Is(err, errors.New("other")))
}

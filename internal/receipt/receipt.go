// Package receipt formats receipt numbers and projects persisted sales into
// printable receipt documents. Assembly is a pure read-side projection and
// never writes anything back.
package receipt

import (
	"fmt"

	"lumapos/backend/internal/domain"
	"lumapos/backend/internal/money"
)

// NumberPrefix is the fixed prefix of every receipt number.
const NumberPrefix = "POS-"

// FormatNumber renders a counter value as a receipt number, zero padded to
// eight digits: 1 becomes "POS-00000001".
func FormatNumber(n int64) string {
	return fmt.Sprintf("%s%08d", NumberPrefix, n)
}

// Assemble builds the receipt document for a persisted sale. Totals are
// recomputed from the item lines and rounded to two decimals so the receipt
// is internally consistent even if upstream figures carried more precision.
func Assemble(sale domain.Sale, store domain.ReceiptStore) domain.Receipt {
	items := make([]domain.ReceiptLine, 0, len(sale.Items))
	subtotal := money.Zero
	totalQty := 0
	for _, it := range sale.Items {
		line := it.UnitPrice.MulQty(it.Qty).Round2()
		subtotal = subtotal.Add(line)
		totalQty += it.Qty
		items = append(items, domain.ReceiptLine{
			ProductID: it.ProductID,
			Name:      it.ProductName,
			Code:      it.ProductCode,
			Qty:       it.Qty,
			UnitPrice: it.UnitPrice.Round2(),
			LineTotal: line,
		})
	}

	discount := sale.Discount.Round2()
	tax := sale.Tax.Round2()
	total := subtotal.Sub(discount).Add(tax).Round2()

	no := sale.ReceiptNo
	if no == "" {
		no = sale.ID
	}

	pay := domain.ReceiptPayment{Method: sale.PaymentMethod}
	pay.Paid = rounded(sale.PaidAmount)
	pay.Cash = rounded(sale.CashAmount)
	pay.Card = rounded(sale.CardAmount)
	pay.Change = rounded(sale.ChangeAmount)

	return domain.Receipt{
		ReceiptID:   sale.ID,
		ReceiptNo:   no,
		IssuedAt:    sale.CreatedAt,
		DisplayDate: sale.CreatedAt.Format("2006-01-02"),
		DisplayTime: sale.CreatedAt.Format("15:04"),
		Currency:    store.Currency,
		Store:       store,
		Cashier: domain.ReceiptCashier{
			ID:   sale.CashierID,
			Name: sale.CashierName,
		},
		Items: items,
		ItemsSummary: domain.ReceiptItemsSummary{
			TotalQty:      totalQty,
			DistinctItems: len(items),
		},
		Subtotal: subtotal.Round2(),
		Discount: discount,
		Tax:      tax,
		Total:    total,
		Payment:  pay,
	}
}

func rounded(m *money.Money) *money.Money {
	if m == nil {
		return nil
	}
	r := m.Round2()
	return &r
}

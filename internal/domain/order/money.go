package order

import (
	"github.com/shopspring/decimal"

	"github.com/orderledger/server/internal/model"
)

// MoneyPlaces is the number of decimal places stored for amounts.
const MoneyPlaces = 2

// RoundMoney rounds an amount half away from zero to MoneyPlaces.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// Outstanding returns what is still owed on total after paid, never below zero.
func Outstanding(total, paid decimal.Decimal) decimal.Decimal {
	rest := total.Sub(paid)
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}

// PaymentStateFor derives the payment state of an order.
// A zero-total order counts as paid.
func PaymentStateFor(paid, total decimal.Decimal) model.PaymentState {
	switch {
	case paid.GreaterThanOrEqual(total):
		return model.PaymentStatePaid
	case !paid.IsPositive():
		return model.PaymentStateUnpaid
	default:
		return model.PaymentStatePartial
	}
}

// ApplyPaidAmount sets the paid, outstanding and payment state fields of o.
// paid + outstanding == total holds afterwards.
func ApplyPaidAmount(o *model.Order, paid decimal.Decimal) {
	o.PaidAmount = RoundMoney(paid)
	o.OutstandingAmount = Outstanding(o.Total, o.PaidAmount)
	o.PaymentState = PaymentStateFor(o.PaidAmount, o.Total)
}

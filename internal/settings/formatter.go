package settings

import (
	"strconv"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders monetary amounts in the store's configured currency.
// The zero value is not usable; build one with NewFormatter.
type Formatter struct {
	unit    currency.Unit
	printer *message.Printer
	valid   bool
}

// NewFormatter builds a Formatter for the settings' currency code. Unknown
// codes degrade to plain two-decimal numbers instead of erroring: money
// presentation must never break a report.
func NewFormatter(s Settings) Formatter {
	unit, err := currency.ParseISO(s.Currency)
	if err != nil {
		return Formatter{printer: message.NewPrinter(language.English)}
	}
	return Formatter{
		unit:    unit,
		printer: message.NewPrinter(language.English),
		valid:   true,
	}
}

// Amount renders a value with its currency symbol, e.g. "USD 1,234.50".
func (f Formatter) Amount(v float64) string {
	if !f.valid {
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
	return f.printer.Sprintf("%v", currency.NarrowSymbol(f.unit.Amount(v)))
}

// Plain renders a value as a bare two-decimal number for CSV cells.
func (f Formatter) Plain(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Code returns the active ISO currency code.
func (f Formatter) Code() string {
	if !f.valid {
		return DefaultCurrency
	}
	return f.unit.String()
}

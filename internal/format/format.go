// Package format renders amounts and ratios for display. Locale and
// currency always come from Options; nothing here reads global settings.
package format

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"ebudget/internal/report"
)

const (
	DefaultLocale   = "en"
	DefaultCurrency = "EUR"
)

// Options selects how values are rendered.
type Options struct {
	Locale   string
	Currency string
}

// Formatter renders values for one set of Options.
type Formatter struct {
	printer *message.Printer
	unit    currency.Unit
}

// New returns a Formatter. Unknown locales fall back to DefaultLocale and
// unknown currencies to DefaultCurrency.
func New(opts Options) *Formatter {
	tag, err := language.Parse(opts.Locale)
	if err != nil {
		tag = language.MustParse(DefaultLocale)
	}
	unit, err := currency.ParseISO(opts.Currency)
	if err != nil {
		unit = currency.MustParseISO(DefaultCurrency)
	}
	return &Formatter{printer: message.NewPrinter(tag), unit: unit}
}

// Money renders an amount with the currency symbol, e.g. "€ 1,234.50".
func (f *Formatter) Money(d decimal.Decimal) string {
	return f.printer.Sprint(currency.Symbol(f.unit.Amount(d.InexactFloat64())))
}

// Number renders a decimal with grouping and two fraction digits.
func (f *Formatter) Number(d decimal.Decimal) string {
	return f.printer.Sprint(number.Decimal(d.InexactFloat64(), number.Scale(2)))
}

// Percent renders a ratio in percent rounded to an integer, e.g. "42%".
func (f *Formatter) Percent(pct float64) string {
	return f.printer.Sprintf("%d%%", int(math.Round(pct)))
}

// Delta renders a change with sign and one decimal, e.g. "+12.5%". A
// change without data renders as "-".
func (f *Formatter) Delta(c report.Change) string {
	if !c.OK {
		return "-"
	}
	sign := ""
	if c.Percent >= 0 {
		sign = "+"
	}
	return sign + f.printer.Sprintf("%.1f%%", c.Percent)
}

// Currency returns the ISO code in use.
func (f *Formatter) Currency() string {
	return f.unit.String()
}

// Money is a shortcut for New(opts).Money(d).
func Money(d decimal.Decimal, opts Options) string {
	return New(opts).Money(d)
}

// Percent is a shortcut for New(opts).Percent(pct).
func Percent(pct float64, opts Options) string {
	return New(opts).Percent(pct)
}

// Delta is a shortcut for New(opts).Delta(c).
func Delta(c report.Change, opts Options) string {
	return New(opts).Delta(c)
}

func (o Options) String() string {
	return fmt.Sprintf("%s/%s", o.Locale, o.Currency)
}

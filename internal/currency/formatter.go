package currency

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	DefaultLocale         = "id-ID"
	DefaultCurrency       = "IDR"
	DefaultFractionDigits = 2
)

// Formatter renders monetary amounts for one fixed locale and currency.
type Formatter struct {
	tag     language.Tag
	unit    currency.Unit
	printer *message.Printer
	symbol  string
	decimal string
	scale   int32
}

type Option func(*Formatter)

// WithFractionDigits overrides the number of fraction digits shown. CLDR
// rounds some currencies (IDR among them) to whole units, which would hide
// cents in aggregated revenue, so the default is DefaultFractionDigits.
func WithFractionDigits(n int) Option {
	return func(f *Formatter) {
		if n >= 0 {
			f.scale = int32(n)
		}
	}
}

// NewFormatter accepts BCP 47 locales ("id-ID") as well as POSIX style
// ("id_ID") and an ISO 4217 currency code.
func NewFormatter(locale, currencyCode string, opts ...Option) (*Formatter, error) {
	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		return nil, fmt.Errorf("parse currency %q: %w", currencyCode, err)
	}

	printer := message.NewPrinter(tag)
	f := &Formatter{
		tag:     tag,
		unit:    unit,
		printer: printer,
		symbol:  printer.Sprint(currency.Symbol(unit)),
		decimal: decimalSeparator(printer),
		scale:   DefaultFractionDigits,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// decimalSeparator asks the locale how it renders one half.
func decimalSeparator(p *message.Printer) string {
	s := p.Sprint(number.Decimal(0.5, number.Scale(1)))
	s = strings.TrimSuffix(strings.TrimPrefix(s, "0"), "5")
	if s == "" {
		return "."
	}
	return s
}

func (f *Formatter) Locale() string {
	return f.tag.String()
}

func (f *Formatter) Currency() string {
	return f.unit.String()
}

func (f *Formatter) FractionDigits() int {
	return int(f.scale)
}

// Format renders amount rounded half away from zero to the formatter's
// fraction digits, e.g. "Rp 1.234.567,89" for id-ID/IDR or "$1,234.50" for
// en-US/USD. The amount never passes through float64.
func (f *Formatter) Format(amount decimal.Decimal) string {
	rounded := amount.Round(f.scale)

	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}

	fixed := rounded.StringFixed(f.scale)
	intPart, fracPart, _ := strings.Cut(fixed, ".")

	digits := f.groupInteger(rounded.Truncate(0), intPart)
	if fracPart != "" {
		digits += f.decimal + fracPart
	}

	sep := ""
	if last, _ := utf8.DecodeLastRuneInString(f.symbol); unicode.IsLetter(last) {
		sep = " "
	}
	return sign + f.symbol + sep + digits
}

// groupInteger applies the locale's digit grouping. Integer formatting in
// x/text is exact within int64; anything larger is left ungrouped rather
// than rounded.
func (f *Formatter) groupInteger(whole decimal.Decimal, plain string) string {
	bi := whole.BigInt()
	if !bi.IsInt64() {
		return plain
	}
	return f.printer.Sprint(number.Decimal(bi.Int64()))
}

// Package formatpkg turns raw amounts and dates into locale aware strings
// for the dashboard.
package formatpkg

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter converts ledger values into display strings.
type Formatter interface {
	Money(amount decimal.Decimal, locale, currency string) string
	Date(t time.Time, locale string) string
	DateTime(t time.Time, locale string) string
	MovementDate(t, now time.Time, locale string) string
	Countdown(seconds int) string
}

// Locale formats values with the CLDR data of golang.org/x/text.
type Locale struct{}

// Money returns the amount with two decimals, locale grouping and the
// narrow currency symbol, e.g. "$1,234.50" or "1.234,50 €".
func (Locale) Money(amount decimal.Decimal, locale, cur string) string {
	tag := parseLocale(locale)
	p := message.NewPrinter(tag)

	f, _ := amount.Abs().Round(2).Float64()
	num := p.Sprint(number.Decimal(f, number.MinFractionDigits(2), number.MaxFractionDigits(2)))

	sign := ""
	if amount.Round(2).IsNegative() {
		sign = "-"
	}

	unit, err := currency.ParseISO(cur)
	if err != nil {
		return sign + num + " " + cur
	}

	symbol := p.Sprint(currency.NarrowSymbol(unit))

	if symbolFirst(tag) {
		return sign + symbol + num
	}

	return sign + num + " " + symbol
}

// Date returns the calendar date, month first for US locales.
func (Locale) Date(t time.Time, locale string) string {
	return t.Format(dateLayout(parseLocale(locale)))
}

// DateTime returns the calendar date followed by the 24 hour time.
func (l Locale) DateTime(t time.Time, locale string) string {
	return l.Date(t, locale) + ", " + t.Format("15:04")
}

// MovementDate returns a relative label for recent movements and the
// calendar date for older ones.
func (l Locale) MovementDate(t, now time.Time, locale string) string {
	days := int(math.Round(math.Abs(now.Sub(t).Hours()) / 24))

	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days <= 7:
		return fmt.Sprintf("%d days ago", days)
	}

	return l.Date(t, locale)
}

// Countdown returns the remaining session time as MM:SS.
func (Locale) Countdown(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}

	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// FirstName returns the first word of the owner name.
func FirstName(owner string) string {
	fields := strings.Fields(owner)
	if len(fields) == 0 {
		return ""
	}

	return fields[0]
}

func parseLocale(locale string) language.Tag {
	tag, err := language.Parse(locale)
	if err != nil {
		return language.AmericanEnglish
	}

	return tag
}

func symbolFirst(tag language.Tag) bool {
	base, _ := tag.Base()
	en, _ := language.English.Base()

	return base == en
}

func dateLayout(tag language.Tag) string {
	region, _ := tag.Region()
	base, _ := tag.Base()

	switch {
	case region.String() == "US":
		return "01/02/2006"
	case base.String() == "de":
		return "02.01.2006"
	}

	return "02/01/2006"
}

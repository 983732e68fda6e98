package ledger

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY / DATE VALUE RULES - pure, no state
// =============================================================================

const (
	MaxNameLength = 255
	MaxIconLength = 50
	MinYear       = 1900
	MaxYear       = 2100
)

var (
	hexColor     = regexp.MustCompile(`^#?[0-9A-Fa-f]{6}$`)
	currencyCode = regexp.MustCompile(`^[A-Z]{3}$`)
)

// ValidateAmount fails when amount <= 0.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return invalid("amount", ErrInvalidAmount)
	}
	return nil
}

// ValidateTransactionDate fails when date is after now. Both sides are
// compared at second granularity, so a date equal to now passes.
func ValidateTransactionDate(date, now time.Time) error {
	if date.Truncate(time.Second).After(now.Truncate(time.Second)) {
		return invalid("transaction_date", ErrFutureDate)
	}
	return nil
}

// ValidateDateRange fails when start is after end.
func ValidateDateRange(start, end time.Time) error {
	if start.After(end) {
		return invalid("start_date", ErrInvertedRange)
	}
	return nil
}

func ValidateDays(n int) error {
	if n <= 0 {
		return invalid("days", ErrNonPositiveDuration)
	}
	return nil
}

func ValidateMonth(m int) error {
	if m < 1 || m > 12 {
		return invalid("month", ErrInvalidMonth)
	}
	return nil
}

func ValidateYear(y int) error {
	if y < MinYear || y > MaxYear {
		return invalid("year", ErrInvalidYear)
	}
	return nil
}

// ValidateMonthYear checks a (month, year) pair, month first.
func ValidateMonthYear(month, year int) error {
	if err := ValidateMonth(month); err != nil {
		return err
	}
	return ValidateYear(year)
}

// ValidateName requires a non-blank value of at most MaxNameLength runes.
func ValidateName(field, name string) error {
	if strings.TrimSpace(name) == "" {
		return invalid(field, ErrEmptyName)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return invalid(field, ErrNameTooLong)
	}
	return nil
}

func ValidateCategoryName(name string) error {
	return ValidateName("category_name", name)
}

func ValidateTransactionType(t TransactionType) error {
	if !t.Valid() {
		return invalid("type", ErrInvalidType)
	}
	return nil
}

func ValidateAccountType(t AccountType) error {
	if !t.Valid() {
		return invalid("account_type", ErrInvalidAccountType)
	}
	return nil
}

func ValidateCurrency(code string) error {
	if !currencyCode.MatchString(code) {
		return invalid("currency", ErrInvalidCurrency)
	}
	return nil
}

func ValidateColor(color string) error {
	if !hexColor.MatchString(color) {
		return invalid("color", ErrInvalidColor)
	}
	return nil
}

func ValidateIcon(icon string) error {
	if utf8.RuneCountInString(strings.TrimSpace(icon)) > MaxIconLength {
		return invalid("icon", ErrIconTooLong)
	}
	return nil
}

// NormalizeColor returns the color with a leading '#', upper-cased.
func NormalizeColor(color string) string {
	return "#" + strings.ToUpper(strings.TrimPrefix(color, "#"))
}

// ParseTags decodes a raw tags value. Absent or null means "no tags";
// anything that is not a JSON array of strings is rejected.
func ParseTags(raw json.RawMessage) ([]string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	if !strings.HasPrefix(trimmed, "[") {
		return nil, invalid("tags", ErrTagsNotSequence)
	}
	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil, invalid("tags", ErrTagsNotSequence)
	}
	return tags, nil
}

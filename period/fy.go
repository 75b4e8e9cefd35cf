package period

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/keystone/ledger-engine/ledger"
)

// =============================================================================
// FINANCIAL YEAR - April-to-March labels and range resolution
// =============================================================================

// Range is an inclusive [From, To] date range.
type Range struct {
	From ledger.Date
	To   ledger.Date
}

func (r Range) Contains(d ledger.Date) bool {
	return d.AfterOrEqual(r.From) && d.BeforeOrEqual(r.To)
}

func (r Range) String() string {
	return "[" + r.From.String() + ", " + r.To.String() + "]"
}

var fyLabelPattern = regexp.MustCompile(`^(\d{4})-(\d{4})$`)

// ParseFinancialYear validates a "YYYY-YYYY+1" label (April 1 - March 31)
// and returns the starting calendar year.
func ParseFinancialYear(label string) (int, error) {
	m := fyLabelPattern.FindStringSubmatch(label)
	if m == nil {
		return 0, fmt.Errorf("invalid financial year %q: want YYYY-YYYY", label)
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	if end != start+1 {
		return 0, fmt.Errorf("invalid financial year %q: years must be consecutive", label)
	}
	return start, nil
}

// FinancialYearLabel returns the FY label containing the date.
func FinancialYearLabel(d ledger.Date) string {
	year := d.Year()
	if d.Month() < time.April {
		year--
	}
	return fmt.Sprintf("%d-%d", year, year+1)
}

// FinancialYearRange resolves a FY label to its full [Apr 1, Mar 31] range.
func FinancialYearRange(label string) (Range, error) {
	start, err := ParseFinancialYear(label)
	if err != nil {
		return Range{}, err
	}
	return Range{
		From: ledger.NewDate(start, time.April, 1),
		To:   ledger.NewDate(start+1, time.March, 31),
	}, nil
}

// MonthRange resolves month index 1-12 (April=1 ... March=12) within a FY.
func MonthRange(label string, month int) (Range, error) {
	start, err := ParseFinancialYear(label)
	if err != nil {
		return Range{}, err
	}
	if month < 1 || month > 12 {
		return Range{}, fmt.Errorf("month index %d out of range 1-12", month)
	}
	from := ledger.NewDate(start, time.April, 1).AddMonths(month - 1)
	return Range{From: from, To: from.EndOfMonth()}, nil
}

// QuarterRange resolves quarter index 1-4 (Q1=Apr-Jun) within a FY.
func QuarterRange(label string, quarter int) (Range, error) {
	start, err := ParseFinancialYear(label)
	if err != nil {
		return Range{}, err
	}
	if quarter < 1 || quarter > 4 {
		return Range{}, fmt.Errorf("quarter index %d out of range 1-4", quarter)
	}
	from := ledger.NewDate(start, time.April, 1).AddMonths((quarter - 1) * 3)
	return Range{From: from, To: from.AddMonths(2).EndOfMonth()}, nil
}

// MonthName returns the calendar month for a FY month index (April=1).
func MonthName(month int) time.Month {
	return time.Month((int(time.April)+month-2)%12 + 1)
}

// Package algorithm implements the loan arithmetic: EMI calculation across
// the three industry methods, amortization schedules, late fee accrual and
// tenure derivation.
package algorithm

import (
	"math"
	"time"
)

// EMI calculation methods.
const (
	MethodSimpleInterest  = "simple_interest"
	MethodReducingBalance = "reducing_balance"
	MethodFlatRate        = "flat_rate"
)

// EMIResult summarizes a loan under one calculation method.
type EMIResult struct {
	Method        string  `json:"method"`
	MonthlyEMI    float64 `json:"monthly_emi"`
	TotalAmount   float64 `json:"total_amount"`
	TotalInterest float64 `json:"total_interest"`
	Principal     float64 `json:"principal"`
}

// Round2 rounds a monetary amount to 2 decimals.
func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}

// SimpleInterestEMI calculates EMI using the simple interest formula.
func SimpleInterestEMI(principal, annualRate float64, months int) EMIResult {
	years := float64(months) / 12
	interest := (principal * annualRate * years) / 100
	total := principal + interest

	return EMIResult{
		Method:        "Simple Interest",
		MonthlyEMI:    Round2(total / float64(months)),
		TotalAmount:   Round2(total),
		TotalInterest: Round2(interest),
		Principal:     Round2(principal),
	}
}

// ReducingBalanceEMI calculates EMI on the reducing balance method, the
// industry standard. A zero rate degenerates to equal principal installments.
func ReducingBalanceEMI(principal, annualRate float64, months int) EMIResult {
	monthlyRate := (annualRate / 12) / 100

	var monthlyEMI, totalInterest float64
	if monthlyRate == 0 {
		monthlyEMI = principal / float64(months)
	} else {
		power := math.Pow(1+monthlyRate, float64(months))
		monthlyEMI = (principal * monthlyRate * power) / (power - 1)
		totalInterest = monthlyEMI*float64(months) - principal
	}

	return EMIResult{
		Method:        "Reducing Balance",
		MonthlyEMI:    Round2(monthlyEMI),
		TotalAmount:   Round2(principal + totalInterest),
		TotalInterest: Round2(totalInterest),
		Principal:     Round2(principal),
	}
}

// FlatRateEMI calculates EMI on the flat rate method. Arithmetically it
// matches simple interest; both are reported by the comparison endpoint.
func FlatRateEMI(principal, annualRate float64, months int) EMIResult {
	years := float64(months) / 12
	totalInterest := (principal * annualRate * years) / 100
	total := principal + totalInterest

	return EMIResult{
		Method:        "Flat Rate",
		MonthlyEMI:    Round2(total / float64(months)),
		TotalAmount:   Round2(total),
		TotalInterest: Round2(totalInterest),
		Principal:     Round2(principal),
	}
}

// Comparison holds one loan evaluated under every method.
type Comparison struct {
	SimpleInterest  EMIResult `json:"simple_interest"`
	ReducingBalance EMIResult `json:"reducing_balance"`
	FlatRate        EMIResult `json:"flat_rate"`
}

// CompareAll evaluates a loan under all three methods.
func CompareAll(principal, annualRate float64, months int) Comparison {
	return Comparison{
		SimpleInterest:  SimpleInterestEMI(principal, annualRate, months),
		ReducingBalance: ReducingBalanceEMI(principal, annualRate, months),
		FlatRate:        FlatRateEMI(principal, annualRate, months),
	}
}

// ByMethod evaluates a loan under the named method, defaulting to reducing
// balance for unknown method names.
func ByMethod(method string, principal, annualRate float64, months int) EMIResult {
	switch method {
	case MethodSimpleInterest:
		return SimpleInterestEMI(principal, annualRate, months)
	case MethodFlatRate:
		return FlatRateEMI(principal, annualRate, months)
	default:
		return ReducingBalanceEMI(principal, annualRate, months)
	}
}

// ScheduleEntry is one month of an amortization schedule.
type ScheduleEntry struct {
	Month     int     `json:"month"`
	DueDate   string  `json:"due_date,omitempty"`
	EMI       float64 `json:"emi"`
	Principal float64 `json:"principal"`
	Interest  float64 `json:"interest"`
	Balance   float64 `json:"balance"`
}

// AmortizationSchedule expands an EMI into its monthly principal/interest
// split. The interest share always follows the reducing balance, whichever
// method produced the EMI. When start is non-zero each entry carries its due
// date, one calendar month apart.
func AmortizationSchedule(principal, annualRate float64, months int, monthlyEMI float64, start time.Time) []ScheduleEntry {
	monthlyRate := (annualRate / 12) / 100
	balance := principal

	schedule := make([]ScheduleEntry, 0, months)
	for month := 1; month <= months; month++ {
		interest := balance * monthlyRate
		principalPayment := monthlyEMI - interest
		balance = math.Max(0, balance-principalPayment)

		entry := ScheduleEntry{
			Month:     month,
			EMI:       Round2(monthlyEMI),
			Principal: Round2(principalPayment),
			Interest:  Round2(interest),
			Balance:   Round2(balance),
		}
		if !start.IsZero() {
			entry.DueDate = AddMonths(start, month).Format(time.RFC3339)
		}
		schedule = append(schedule, entry)
	}

	return schedule
}

// AddMonths advances t by the given number of calendar months, clamping to
// the last day of the target month instead of rolling over (Jan 31 + 1 month
// is Feb 28, not Mar 3).
func AddMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// TenureFromDueDate converts a final due date into a tenure in months from
// start: the calendar month difference, rounded up when days remain, never
// below one month.
func TenureFromDueDate(start, due time.Time) int {
	if !due.After(start) {
		return 1
	}

	months := 0
	cursor := AddMonths(start, 1)
	for !cursor.After(due) {
		months++
		cursor = AddMonths(start, months+1)
	}

	// Partial months round up.
	if AddMonths(start, months).Before(due) {
		months++
	}
	if months < 1 {
		months = 1
	}
	return months
}

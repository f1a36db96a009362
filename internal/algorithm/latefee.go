package algorithm

// DefaultLateFeePercent applies when a client has no loan plan.
const DefaultLateFeePercent = 2.0

// LateFee accrues a monthly-rate late fee pro-rated by days overdue:
// due * percent * (days/30) / 100. Not-yet-overdue balances accrue nothing.
func LateFee(principalDue, lateFeePercent float64, daysOverdue int) float64 {
	if daysOverdue <= 0 || principalDue <= 0 {
		return 0
	}

	monthsOverdue := float64(daysOverdue) / 30
	return Round2((principalDue * lateFeePercent * monthsOverdue) / 100)
}

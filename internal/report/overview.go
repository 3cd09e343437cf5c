package report

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"ebudget/internal/core"
)

const (
	// RecentLimit is how many transactions of the selected month the
	// overview lists.
	RecentLimit = 4
	// TrendMonths is how many months the overview trend covers.
	TrendMonths = 6

	maxAlerts     = 4
	maxGoalAlerts = 2
)

const (
	AlertDanger   AlertLevel = "danger"
	AlertWarning  AlertLevel = "warning"
	AlertPositive AlertLevel = "positive"
)

const (
	AlertMonthlyLoss  = "monthly_loss"
	AlertHighSpending = "high_spending"
	AlertProfit       = "profit"
	AlertGoalAlmost   = "goal_almost"
)

const (
	CardIncome    = "income"
	CardExpense   = "expense"
	CardSavings   = "savings"
	CardAvailable = "available"
)

type (
	// MonthKey is a calendar month.
	MonthKey struct {
		Year  int
		Month time.Month
	}

	AlertLevel string

	// Alert is a notice about the selected month or a goal. Amount and
	// Percent are set depending on Code.
	Alert struct {
		Level   AlertLevel      `json:"level"`
		Code    string          `json:"code"`
		Amount  decimal.Decimal `json:"amount"`
		Percent int             `json:"percent,omitempty"`
		Subject string          `json:"subject,omitempty"`
	}

	StatCard struct {
		Kind  string          `json:"kind"`
		Value decimal.Decimal `json:"value"`
		Delta Change          `json:"delta"`
		Trend Trend           `json:"trend"`
	}

	// TopExpense is the category with the largest expense of the month and
	// its share of the month's expense, rounded to an integer percentage.
	TopExpense struct {
		Name    string          `json:"name"`
		Amount  decimal.Decimal `json:"amount"`
		Percent int             `json:"percent"`
	}

	Overview struct {
		Month           MonthKey           `json:"month"`
		Comparison      MonthKey           `json:"comparison"`
		Primary         Stats              `json:"primary"`
		Previous        Stats              `json:"previous"`
		ComparisonStats Stats              `json:"comparisonStats"`
		GoalSavings     decimal.Decimal    `json:"goalSavings"`
		Cards           []StatCard         `json:"cards"`
		TopExpense      *TopExpense        `json:"topExpense"`
		MonthlyNet      decimal.Decimal    `json:"monthlyNet"`
		YearlyNet       decimal.Decimal    `json:"yearlyNet"`
		Alerts          []Alert            `json:"alerts"`
		Recent          []core.Transaction `json:"recent"`
		Trend           Series             `json:"trend"`
	}
)

// MonthOf returns the month t falls in.
func MonthOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// ParseMonthKey parses "2024-05".
func ParseMonthKey(s string) (MonthKey, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return MonthKey{}, fmt.Errorf("invalid month %q: %w", s, err)
	}
	return MonthOf(t), nil
}

func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
}

// Label renders the month as "05/2024".
func (k MonthKey) Label() string {
	return fmt.Sprintf("%02d/%04d", int(k.Month), k.Year)
}

// Prev returns the month before k.
func (k MonthKey) Prev() MonthKey {
	return MonthOf(time.Date(k.Year, k.Month-1, 1, 0, 0, 0, 0, time.UTC))
}

// Contains reports whether t falls in k.
func (k MonthKey) Contains(t time.Time) bool {
	return t.Year() == k.Year && t.Month() == k.Month
}

func (k MonthKey) index() int {
	return k.Year*100 + int(k.Month)
}

func (k MonthKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *MonthKey) UnmarshalText(b []byte) error {
	parsed, err := ParseMonthKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MonthOptions lists the distinct months of txs, latest first. fallback is
// always included.
func MonthOptions(txs []core.Transaction, fallback MonthKey) []MonthKey {
	seen := map[MonthKey]bool{fallback: true}
	out := []MonthKey{fallback}
	for _, tx := range txs {
		t, ok := tx.ParsedDate()
		if !ok {
			continue
		}
		k := MonthOf(t)
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	slices.SortFunc(out, func(a, b MonthKey) int { return b.index() - a.index() })
	return out
}

// InMonth keeps the transactions dated in month k, in order.
func InMonth(txs []core.Transaction, k MonthKey) []core.Transaction {
	return keep(txs, k.Contains)
}

// InYear keeps the transactions dated in year, in order.
func InYear(txs []core.Transaction, year int) []core.Transaction {
	return keep(txs, func(t time.Time) bool { return t.Year() == year })
}

func keep(txs []core.Transaction, match func(time.Time) bool) []core.Transaction {
	var out []core.Transaction
	for _, tx := range txs {
		if t, ok := tx.ParsedDate(); ok && match(t) {
			out = append(out, tx)
		}
	}
	return out
}

// GoalSavings sums what has been put aside for all goals.
func GoalSavings(goals []core.Goal) decimal.Decimal {
	sum := decimal.Zero
	for _, g := range goals {
		sum = sum.Add(g.Saved)
	}
	return sum
}

// BuildOverview computes the dashboard of month primary, comparing it with
// the month before and with month comparison. Money put aside for goals
// counts as expense of the primary month and of its year.
func BuildOverview(txs []core.Transaction, goals []core.Goal, primary, comparison MonthKey) Overview {
	monthTxs := InMonth(txs, primary)
	savings := GoalSavings(goals)

	cur := Totals(monthTxs)
	cur.Expense = cur.Expense.Add(savings)
	cur.Net = cur.Income.Sub(cur.Expense)
	prev := Totals(InMonth(txs, primary.Prev()))
	cmpStats := Totals(InMonth(txs, comparison))

	yearly := Totals(InYear(txs, primary.Year))

	recent := monthTxs
	if len(recent) > RecentLimit {
		recent = recent[:RecentLimit]
	}

	return Overview{
		Month:           primary,
		Comparison:      comparison,
		Primary:         cur,
		Previous:        prev,
		ComparisonStats: cmpStats,
		GoalSavings:     savings,
		Cards:           statCards(cur, prev),
		TopExpense:      topExpense(monthTxs),
		MonthlyNet:      cur.Net,
		YearlyNet:       yearly.Net.Sub(savings),
		Alerts:          Alerts(cur, goals),
		Recent:          recent,
		Trend:           Aggregate(txs, Monthly).Last(TrendMonths),
	}
}

func statCards(cur, prev Stats) []StatCard {
	zero := decimal.Zero
	return []StatCard{
		{
			Kind:  CardIncome,
			Value: cur.Income,
			Delta: PercentChange(cur.Income, prev.Income),
			Trend: TrendOf(cur.Income, prev.Income, false),
		},
		{
			Kind:  CardExpense,
			Value: cur.Expense,
			Delta: PercentChange(cur.Expense, prev.Expense),
			Trend: TrendOf(cur.Expense, prev.Expense, true),
		},
		{
			Kind:  CardSavings,
			Value: decimal.Max(cur.Net, zero),
			Delta: PercentChange(cur.Net, prev.Net),
			Trend: TrendOf(cur.Net, prev.Net, false),
		},
		{
			Kind:  CardAvailable,
			Value: decimal.Max(cur.Income.Sub(cur.Expense), zero),
			Delta: PercentChange(cur.Income.Sub(cur.Expense), prev.Income.Sub(prev.Expense)),
			Trend: TrendOf(cur.Income.Sub(cur.Expense), prev.Income.Sub(prev.Expense), false),
		},
	}
}

func topExpense(monthTxs []core.Transaction) *TopExpense {
	var expenses []core.Transaction
	for _, tx := range monthTxs {
		if tx.Type == core.NatureExpense {
			expenses = append(expenses, tx)
		}
	}
	if len(expenses) == 0 {
		return nil
	}
	total := Totals(expenses).Expense

	var top *TopExpense
	for _, s := range Allocate(expenses, nil) {
		if top == nil || s.Expense.GreaterThan(top.Amount) {
			top = &TopExpense{Name: s.Name, Amount: s.Expense}
		}
	}
	if total.IsPositive() {
		top.Percent = roundPercent(top.Amount, total)
	}
	return top
}

func roundPercent(part, whole decimal.Decimal) int {
	pct, _ := part.Div(whole).Mul(hundred).Float64()
	return int(math.Round(pct))
}

// Alerts derives the notices shown for a month with totals cur.
//
// Spending at or above income is a loss, at or above 80% of income is high
// spending, and otherwise a positive net is a profit. Up to two goals
// between 70% and 100% are reported as almost reached. At most four alerts
// are returned.
func Alerts(cur Stats, goals []core.Goal) []Alert {
	var list []Alert
	profit := Alert{Level: AlertPositive, Code: AlertProfit, Amount: cur.Net}
	if cur.Income.IsPositive() {
		ratio := roundPercent(cur.Expense, cur.Income)
		switch {
		case ratio >= 100:
			list = append(list, Alert{Level: AlertDanger, Code: AlertMonthlyLoss, Amount: cur.Expense.Sub(cur.Income).Abs(), Percent: ratio})
		case ratio >= 80:
			list = append(list, Alert{Level: AlertWarning, Code: AlertHighSpending, Percent: ratio})
		case cur.Net.IsPositive():
			list = append(list, profit)
		}
	} else if cur.Net.IsPositive() {
		list = append(list, profit)
	}

	var goalAlerts int
	for _, g := range goals {
		if goalAlerts == maxGoalAlerts {
			break
		}
		if !g.Target.IsPositive() {
			continue
		}
		p := roundPercent(g.Saved, g.Target)
		if p >= 70 && p < 100 {
			list = append(list, Alert{Level: AlertPositive, Code: AlertGoalAlmost, Percent: p, Subject: g.Title, Amount: g.Remaining()})
			goalAlerts++
		}
	}
	if len(list) > maxAlerts {
		list = list[:maxAlerts]
	}
	return list
}

package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ebudget/internal/core"
)

func tx(id, date string, amount int64, nature core.Nature, category string) core.Transaction {
	return core.Transaction{
		ID:       id,
		Title:    "tx " + id,
		Amount:   decimal.NewFromInt(amount),
		Date:     date,
		Type:     nature,
		TypeKey:  string(nature),
		Category: category,
	}
}

func TestPeriodOf(t *testing.T) {
	day := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		g     Granularity
		key   string
		index int
	}{
		{Daily, "2024-01-15", 20240115},
		// Jan 1st 2024 is a Monday: (14 + 1 + 1) / 7 rounded up.
		{Weekly, "2024-W03", 202403},
		{Monthly, "2024-01", 202401},
		{Quarterly, "2024-Q1", 20241},
		{Yearly, "2024", 2024},
		{Granularity("fortnightly"), "2024-01", 202401},
	}
	for _, tt := range tests {
		t.Run(string(tt.g), func(t *testing.T) {
			p := PeriodOf(day, tt.g)
			if p.Key != tt.key || p.SortIndex != tt.index {
				t.Fatalf("PeriodOf = %+v, want key %s index %d", p, tt.key, tt.index)
			}
		})
	}
}

func TestWeekOfYear(t *testing.T) {
	cases := []struct {
		date time.Time
		week int
	}{
		// 2023-01-01 is a Sunday.
		{time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), 1},
		{time.Date(2023, 1, 7, 0, 0, 0, 0, time.UTC), 1},
		{time.Date(2023, 1, 8, 0, 0, 0, 0, time.UTC), 2},
		// 2022-01-01 is a Saturday.
		{time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), 1},
		{time.Date(2022, 1, 2, 0, 0, 0, 0, time.UTC), 2},
	}
	for _, tc := range cases {
		if got := WeekOfYear(tc.date); got != tc.week {
			t.Fatalf("WeekOfYear(%s) = %d, want %d", tc.date.Format(core.DateLayout), got, tc.week)
		}
	}
}

func TestAggregate(t *testing.T) {
	txs := []core.Transaction{
		tx("1", "2024-03-10", 100, core.NatureIncome, "Salary"),
		tx("2", "2024-01-05", 40, core.NatureExpense, "Food"),
		tx("3", "2024-03-11", 30, core.NatureExpense, "Food"),
		tx("4", "not-a-date", 999, core.NatureExpense, "Food"),
		tx("5", "2024-01-20", 10, core.NatureIncome, ""),
	}
	series := Aggregate(txs, Monthly)
	if series.Len() != 2 {
		t.Fatalf("expected 2 buckets, got %d", series.Len())
	}
	want := []struct {
		key                  string
		income, expense, net int64
	}{
		{"2024-01", 10, 40, -30},
		{"2024-03", 100, 30, 70},
	}
	i := 0
	for b := range series.All() {
		w := want[i]
		if b.Key != w.key || !b.Income.Equal(decimal.NewFromInt(w.income)) || !b.Expense.Equal(decimal.NewFromInt(w.expense)) || !b.Net.Equal(decimal.NewFromInt(w.net)) {
			t.Fatalf("bucket %d = %+v, want %+v", i, b, w)
		}
		if !b.Net.Equal(b.Income.Sub(b.Expense)) {
			t.Fatalf("net drifted in bucket %s", b.Key)
		}
		i++
	}

	// Ranging again yields the same sequence.
	var again int
	for range series.All() {
		again++
	}
	if again != 2 {
		t.Fatalf("series not restartable, got %d on second pass", again)
	}

	rerun := Aggregate(txs, Monthly)
	for j := range rerun.Buckets {
		if rerun.Buckets[j].Key != series.Buckets[j].Key || !rerun.Buckets[j].Net.Equal(series.Buckets[j].Net) {
			t.Fatalf("aggregation not idempotent at %d", j)
		}
	}
}

func TestAggregateInvalidDateOnly(t *testing.T) {
	series := Aggregate([]core.Transaction{tx("1", "not-a-date", 50, core.NatureExpense, "")}, Monthly)
	if series.Len() != 0 {
		t.Fatalf("expected no buckets, got %d", series.Len())
	}
}

func TestTotals(t *testing.T) {
	s := Totals([]core.Transaction{
		tx("1", "2024-01-01", 100, core.NatureIncome, ""),
		tx("2", "bad", 30, core.NatureExpense, ""),
	})
	if s.Count != 2 || s.Net.String() != "70" {
		t.Fatalf("unexpected totals: %+v", s)
	}
}

func TestPercentChange(t *testing.T) {
	d := decimal.NewFromInt
	if c := PercentChange(d(100), d(0)); c.OK {
		t.Fatalf("zero previous should be no data, got %+v", c)
	}
	if c := PercentChange(d(150), d(100)); !c.OK || c.Percent != 50 {
		t.Fatalf("expected +50%%, got %+v", c)
	}
	if c := PercentChange(d(50), d(-100)); !c.OK || c.Percent != -150 {
		t.Fatalf("expected -150%%, got %+v", c)
	}
	if c := PercentChangeFloat(1, 0); c.OK {
		t.Fatalf("float zero previous should be no data")
	}
	b, _ := NoData.MarshalJSON()
	if string(b) != "null" {
		t.Fatalf("NoData should encode as null, got %s", b)
	}
}

type fakeMeta map[string]core.Category

func (m fakeMeta) CategoryColor(name string) string {
	if c, ok := m[name]; ok && c.Color != "" {
		return c.Color
	}
	return core.FallbackColor
}

func (m fakeMeta) CategoryNature(name string) core.Nature {
	return m[name].Type
}

func TestAllocate(t *testing.T) {
	meta := fakeMeta{"Salary": {Name: "Salary", Type: core.NatureIncome, Color: "#0f0"}}
	shares := Allocate([]core.Transaction{
		tx("1", "2024-01-01", 50, core.NatureExpense, "Food"),
		tx("2", "2024-01-02", 1000, core.NatureIncome, "Salary"),
		tx("3", "2024-01-03", 20, core.NatureExpense, ""),
		tx("4", "2024-01-04", 20, core.NatureIncome, ""),
		tx("5", "2024-01-05", 25, core.NatureExpense, "Food"),
	}, meta)

	if len(shares) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(shares))
	}
	names := []string{"Food", "Salary", Uncategorized}
	for i, n := range names {
		if shares[i].Name != n {
			t.Fatalf("group %d = %s, want %s (first-seen order)", i, shares[i].Name, n)
		}
	}
	food := shares[0]
	if food.Type != core.NatureExpense || food.Color != core.FallbackColor || food.ChartValue.String() != "-75" {
		t.Fatalf("unexpected food group: %+v", food)
	}
	salary := shares[1]
	if salary.Type != core.NatureIncome || salary.Color != "#0f0" || salary.ChartValue.String() != "1000" {
		t.Fatalf("unexpected salary group: %+v", salary)
	}
	// Equal income and expense defaults to expense.
	if shares[2].Type != core.NatureExpense || !shares[2].Net.IsZero() {
		t.Fatalf("unexpected uncategorized group: %+v", shares[2])
	}
}

func TestTopNStable(t *testing.T) {
	txs := []core.Transaction{
		tx("a", "2024-01-01", 100, core.NatureExpense, ""),
		tx("b", "2024-01-01", 100, core.NatureIncome, ""),
		tx("c", "2024-01-01", 300, core.NatureExpense, ""),
		tx("d", "2024-01-01", 5, core.NatureExpense, ""),
	}
	got := TopN(txs, 3)
	want := []string{"c", "a", "b"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("TopN[%d] = %s, want %s", i, got[i].ID, id)
		}
	}
	if len(TopN(txs, 0)) != 4 {
		t.Fatalf("default n should cover all 4")
	}
	if txs[0].ID != "a" || txs[2].ID != "c" {
		t.Fatalf("TopN mutated its input")
	}
}

func TestExtract(t *testing.T) {
	txs := []core.Transaction{
		tx("1", "2024-02-01", 80, core.NatureExpense, "Rent"),
		tx("2", "2024-02-02T09:00:00", 80, core.NatureExpense, "Food"),
		tx("3", "2024-02-02", 500, core.NatureIncome, "Salary"),
		tx("4", "2024-02-01T18:30:00", 10, core.NatureExpense, "Food"),
		tx("5", "garbage", 1, core.NatureExpense, "Food"),
	}
	in := Extract(txs, Allocate(txs, nil))
	if in.BiggestExpense == nil || in.BiggestExpense.ID != "1" {
		t.Fatalf("biggest expense should be the first max, got %+v", in.BiggestExpense)
	}
	if in.BiggestIncome == nil || in.BiggestIncome.ID != "3" {
		t.Fatalf("unexpected biggest income %+v", in.BiggestIncome)
	}
	if in.BusiestDay == nil || in.BusiestDay.Day != "2024-02-01" || in.BusiestDay.Count != 2 {
		t.Fatalf("unexpected busiest day %+v", in.BusiestDay)
	}
	if in.TopCategory == nil || in.TopCategory.Name != "Food" || in.TopCategory.Amount.String() != "91" {
		t.Fatalf("unexpected top category %+v", in.TopCategory)
	}

	unknown := []core.Transaction{
		tx("1", "2024-02-01", 30, core.NatureExpense, "Rent"),
		tx("2", "2024-02-03", 45, core.NatureUnknown, "Gift"),
	}
	if got := Extract(unknown, nil).BiggestExpense; got == nil || got.ID != "2" {
		t.Fatalf("unknown nature should count as expense, got %+v", got)
	}

	tied := []core.Transaction{
		tx("1", "2024-03-01", 40, core.NatureExpense, "Travel"),
		tx("2", "2024-03-02", 25, core.NatureExpense, "Food"),
		tx("3", "2024-03-03", 15, core.NatureExpense, "Food"),
		tx("4", "2024-03-04", 40, core.NatureExpense, "Books"),
	}
	top := Extract(tied, Allocate(tied, nil)).TopCategory
	if top == nil || top.Name != "Travel" || top.Amount.String() != "40" {
		t.Fatalf("first category with the highest expense should win a tie, got %+v", top)
	}

	empty := Extract(nil, nil)
	if empty.BiggestExpense != nil || empty.BusiestDay != nil || empty.TopCategory != nil {
		t.Fatalf("expected empty insights, got %+v", empty)
	}
}

func TestStatusBreakdownAndYearly(t *testing.T) {
	a := tx("1", "2023-05-01", 10, core.NatureExpense, "")
	a.Status = "pending"
	txs := []core.Transaction{
		a,
		tx("2", "2024-05-01", 20, core.NatureIncome, ""),
		tx("3", "2023-06-01", 5, core.NatureExpense, ""),
	}
	groups := StatusBreakdown(txs)
	if len(groups) != 2 || groups[0].Status != "pending" || groups[1].Status != DefaultStatus || groups[1].Count != 2 {
		t.Fatalf("unexpected status groups: %+v", groups)
	}
	years := YearlyTotals(txs)
	if len(years) != 2 || years[0].Year != 2023 || years[0].Expense.String() != "15" || years[1].Income.String() != "20" {
		t.Fatalf("unexpected yearly totals: %+v", years)
	}
	net := NetSeries(txs)
	if len(net) != 3 || net[0].Key != "2023-05" || net[0].Net.String() != "-10" {
		t.Fatalf("unexpected net series: %+v", net)
	}
}

func TestSeriesByYear(t *testing.T) {
	txs := []core.Transaction{
		tx("1", "2023-11-02", 10, core.NatureExpense, ""),
		tx("2", "2023-12-30", 5, core.NatureIncome, ""),
		tx("3", "2024-01-03", 7, core.NatureExpense, ""),
	}
	s := Aggregate(txs, Monthly)

	var years []int
	var sizes []int
	for year, part := range s.ByYear() {
		years = append(years, year)
		sizes = append(sizes, part.Len())
	}
	if len(years) != 2 || years[0] != 2023 || years[1] != 2024 {
		t.Fatalf("years = %v", years)
	}
	if sizes[0] != 2 || sizes[1] != 1 {
		t.Fatalf("bucket counts = %v", sizes)
	}

	for range (Series{}).ByYear() {
		t.Fatalf("empty series should yield nothing")
	}
}

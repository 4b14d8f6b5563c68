// Package reports derives read-only summaries from entity snapshots.
// Every function is pure; money is summed in decimal and percentages are
// zero whenever their total is not positive.
package reports

import (
	"cmp"
	"slices"

	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/models"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// PercentOf returns part/total*100 rounded to the nearest integer, or 0 when
// total is not positive.
func PercentOf(part, total decimal.Decimal) int64 {
	if !total.IsPositive() {
		return 0
	}
	return part.Div(total).Mul(hundred).Round(0).IntPart()
}

func sum[T any](items []T, amount func(T) decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(amount(it))
	}
	return total
}

func amt(d decimal.Decimal) models.Amount { return models.Amount{Decimal: d} }

// byAmountDesc sorts rows by amount, largest first. Equal amounts keep the
// order in which their keys were first seen.
func byAmountDesc[T any](rows []T, amount func(T) decimal.Decimal) {
	slices.SortStableFunc(rows, func(a, b T) int {
		return amount(b).Cmp(amount(a))
	})
}

type CategoryTotal struct {
	Category string        `json:"category"`
	Amount   models.Amount `json:"amount"`
	Qty      models.Amount `json:"qty"`
	Items    int           `json:"items"`
}

// CategoryTotals groups materials by category. Materials without a category
// are counted under "Other".
func CategoryTotals(materials []models.Material) []CategoryTotal {
	rows := []CategoryTotal{}
	pos := map[string]int{}
	for _, m := range materials {
		key := m.Category
		if key == "" {
			key = models.UncategorizedMaterial
		}
		i, ok := pos[key]
		if !ok {
			i = len(rows)
			pos[key] = i
			rows = append(rows, CategoryTotal{Category: key})
		}
		rows[i].Amount = amt(rows[i].Amount.Add(m.Price.Decimal))
		rows[i].Qty = amt(rows[i].Qty.Add(m.Qty.Decimal))
		rows[i].Items++
	}
	byAmountDesc(rows, func(r CategoryTotal) decimal.Decimal { return r.Amount.Decimal })
	return rows
}

type WorkerTotal struct {
	WorkerID string        `json:"workerId"`
	Name     string        `json:"name"`
	Amount   models.Amount `json:"amount"`
	Payments int           `json:"payments"`
}

// WorkerPayments sums payments per worker. Payments whose worker no longer
// exists are labelled "Unknown".
func WorkerPayments(payments []models.Payment, workers []models.Worker) []WorkerTotal {
	names := workerNames(workers)
	rows := []WorkerTotal{}
	pos := map[string]int{}
	for _, p := range payments {
		i, ok := pos[p.WorkerID]
		if !ok {
			i = len(rows)
			pos[p.WorkerID] = i
			rows = append(rows, WorkerTotal{WorkerID: p.WorkerID, Name: nameOf(names, p.WorkerID)})
		}
		rows[i].Amount = amt(rows[i].Amount.Add(p.Amount.Decimal))
		rows[i].Payments++
	}
	byAmountDesc(rows, func(r WorkerTotal) decimal.Decimal { return r.Amount.Decimal })
	return rows
}

func workerNames(workers []models.Worker) map[string]string {
	names := make(map[string]string, len(workers))
	for _, w := range workers {
		names[w.ID] = w.Name
	}
	return names
}

func nameOf(names map[string]string, id string) string {
	if n, ok := names[id]; ok && n != "" {
		return n
	}
	return models.UnknownWorker
}

type LedgerSummary struct {
	Credits  models.Amount `json:"credits"`
	Debits   models.Amount `json:"debits"`
	Net      models.Amount `json:"netBalance"`
	Negative bool          `json:"negative"`
}

func LedgerBalance(entries []models.LedgerEntry) LedgerSummary {
	credits, debits := decimal.Zero, decimal.Zero
	for _, e := range entries {
		switch e.Type {
		case models.LedgerCredit:
			credits = credits.Add(e.Amount.Decimal)
		case models.LedgerDebit:
			debits = debits.Add(e.Amount.Decimal)
		}
	}
	net := credits.Sub(debits)
	return LedgerSummary{
		Credits:  amt(credits),
		Debits:   amt(debits),
		Net:      amt(net),
		Negative: net.IsNegative(),
	}
}

type BudgetLine struct {
	Key         string        `json:"key"`
	Allocated   models.Amount `json:"allocated"`
	Actual      models.Amount `json:"actual"`
	Remaining   models.Amount `json:"remaining"`
	PercentUsed int64         `json:"percentUsed"`
	OverBudget  bool          `json:"overBudget"`
}

// BudgetVsActual compares each budget with the material spend in the
// category of the same name.
func BudgetVsActual(budgets []models.Budget, materials []models.Material) []BudgetLine {
	spent := map[string]decimal.Decimal{}
	for _, m := range materials {
		spent[m.Category] = spent[m.Category].Add(m.Price.Decimal)
	}

	lines := make([]BudgetLine, 0, len(budgets))
	for _, b := range budgets {
		actual := spent[b.Key]
		lines = append(lines, BudgetLine{
			Key:         b.Key,
			Allocated:   b.Allocated,
			Actual:      amt(actual),
			Remaining:   amt(b.Allocated.Sub(actual)),
			PercentUsed: PercentOf(actual, b.Allocated.Decimal),
			OverBudget:  actual.GreaterThan(b.Allocated.Decimal),
		})
	}
	return lines
}

type Dashboard struct {
	MaterialSpend models.Amount   `json:"materialSpend"`
	LaborSpend    models.Amount   `json:"laborSpend"`
	TotalSpend    models.Amount   `json:"totalSpend"`
	Categories    []CategoryTotal `json:"categories"`
	Workers       []WorkerTotal   `json:"workers"`
	Ledger        LedgerSummary   `json:"ledger"`
}

func BuildDashboard(materials []models.Material, payments []models.Payment, workers []models.Worker, ledger []models.LedgerEntry) Dashboard {
	materialSpend := sum(materials, func(m models.Material) decimal.Decimal { return m.Price.Decimal })
	laborSpend := sum(payments, func(p models.Payment) decimal.Decimal { return p.Amount.Decimal })
	return Dashboard{
		MaterialSpend: amt(materialSpend),
		LaborSpend:    amt(laborSpend),
		TotalSpend:    amt(materialSpend.Add(laborSpend)),
		Categories:    CategoryTotals(materials),
		Workers:       WorkerPayments(payments, workers),
		Ledger:        LedgerBalance(ledger),
	}
}

type WorkerPerformance struct {
	ID                 string        `json:"id"`
	Name               string        `json:"name"`
	Profession         string        `json:"profession,omitempty"`
	DailyRate          models.Amount `json:"dailyRate"`
	TotalPaid          models.Amount `json:"totalPaid"`
	PaymentCount       int           `json:"paymentCount"`
	AvgPerPayment      models.Amount `json:"avgPerPayment"`
	UtilizationPercent int64         `json:"utilizationPercent"`
}

type RecentPayment struct {
	models.Payment
	WorkerName string `json:"workerName"`
}

type WorkProgress struct {
	TotalPaid         models.Amount       `json:"totalPaid"`
	AvgPayment        models.Amount       `json:"avgPayment"`
	TotalMaterialCost models.Amount       `json:"totalMaterialCost"`
	MaterialItems     int                 `json:"materialItems"`
	TotalSpent        models.Amount       `json:"totalSpent"`
	LaborPercent      int64               `json:"laborPercent"`
	MaterialPercent   int64               `json:"materialPercent"`
	Workers           []WorkerPerformance `json:"workers"`
	Categories        []CategoryTotal     `json:"categories"`
	RecentPayments    []RecentPayment     `json:"recentPayments"`
}

const recentPaymentLimit = 10

func average(total decimal.Decimal, n int) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(n))).Round(0)
}

// BuildWorkProgress reports spend split between labour and materials and
// ranks workers by what they have been paid.
func BuildWorkProgress(workers []models.Worker, payments []models.Payment, materials []models.Material) WorkProgress {
	totalPaid := sum(payments, func(p models.Payment) decimal.Decimal { return p.Amount.Decimal })
	materialCost := sum(materials, func(m models.Material) decimal.Decimal { return m.Price.Decimal })
	totalSpent := totalPaid.Add(materialCost)

	byWorker := map[string][]models.Payment{}
	for _, p := range payments {
		byWorker[p.WorkerID] = append(byWorker[p.WorkerID], p)
	}

	perf := make([]WorkerPerformance, 0, len(workers))
	for _, w := range workers {
		own := byWorker[w.ID]
		paid := sum(own, func(p models.Payment) decimal.Decimal { return p.Amount.Decimal })
		perf = append(perf, WorkerPerformance{
			ID:                 w.ID,
			Name:               w.Name,
			Profession:         w.Profession,
			DailyRate:          w.Rate,
			TotalPaid:          amt(paid),
			PaymentCount:       len(own),
			AvgPerPayment:      amt(average(paid, len(own))),
			UtilizationPercent: PercentOf(paid, totalPaid),
		})
	}
	byAmountDesc(perf, func(r WorkerPerformance) decimal.Decimal { return r.TotalPaid.Decimal })

	names := workerNames(workers)
	recent := slices.Clone(payments)
	slices.SortStableFunc(recent, func(a, b models.Payment) int { return cmp.Compare(b.Date, a.Date) })
	if len(recent) > recentPaymentLimit {
		recent = recent[:recentPaymentLimit]
	}
	recentRows := make([]RecentPayment, 0, len(recent))
	for _, p := range recent {
		recentRows = append(recentRows, RecentPayment{Payment: p, WorkerName: nameOf(names, p.WorkerID)})
	}

	return WorkProgress{
		TotalPaid:         amt(totalPaid),
		AvgPayment:        amt(average(totalPaid, len(payments))),
		TotalMaterialCost: amt(materialCost),
		MaterialItems:     len(materials),
		TotalSpent:        amt(totalSpent),
		LaborPercent:      PercentOf(totalPaid, totalSpent),
		MaterialPercent:   PercentOf(materialCost, totalSpent),
		Workers:           perf,
		Categories:        CategoryTotals(materials),
		RecentPayments:    recentRows,
	}
}

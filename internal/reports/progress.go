package reports

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/models"
	"github.com/shopspring/decimal"
)

type TaskCounts struct {
	Total           int   `json:"total"`
	Pending         int   `json:"pending"`
	InProgress      int   `json:"inProgress"`
	Completed       int   `json:"completed"`
	PercentComplete int64 `json:"percentComplete"`
}

// TaskProgress counts tasks by status. Tasks saved without a status are pending.
func TaskProgress(tasks []models.Task) TaskCounts {
	var c TaskCounts
	for _, t := range tasks {
		switch t.Status {
		case models.TaskCompleted:
			c.Completed++
		case models.TaskInProgress:
			c.InProgress++
		default:
			c.Pending++
		}
	}
	c.Total = len(tasks)
	c.PercentComplete = PercentOf(decimal.NewFromInt(int64(c.Completed)), decimal.NewFromInt(int64(c.Total)))
	return c
}

type ScheduleTotals struct {
	PendingCount  int           `json:"pendingCount"`
	PendingAmount models.Amount `json:"pendingAmount"`
	PaidCount     int           `json:"paidCount"`
	PaidAmount    models.Amount `json:"paidAmount"`
	OverdueCount  int           `json:"overdueCount"`
	OverdueAmount models.Amount `json:"overdueAmount"`
}

// ScheduleSummary totals instalments by status. A pending instalment whose
// due date is before today is overdue.
func ScheduleSummary(schedules []models.Schedule, today time.Time) ScheduleTotals {
	day := today.Format(time.DateOnly)
	var t ScheduleTotals
	pending, paid, overdue := decimal.Zero, decimal.Zero, decimal.Zero
	for _, s := range schedules {
		if s.Status == models.SchedulePaid {
			t.PaidCount++
			paid = paid.Add(s.Amount.Decimal)
			continue
		}
		t.PendingCount++
		pending = pending.Add(s.Amount.Decimal)
		if s.DueDate != "" && s.DueDate < day {
			t.OverdueCount++
			overdue = overdue.Add(s.Amount.Decimal)
		}
	}
	t.PendingAmount = amt(pending)
	t.PaidAmount = amt(paid)
	t.OverdueAmount = amt(overdue)
	return t
}

type WorkerSummaryView struct {
	Worker    models.Worker     `json:"worker"`
	Paid      models.Amount     `json:"paidAmount"`
	Pending   models.Amount     `json:"pendingAmount"`
	Tasks     TaskCounts        `json:"tasks"`
	Schedules ScheduleTotals    `json:"schedules"`
	Payments  []models.Payment  `json:"payments"`
	TaskList  []models.Task     `json:"taskList"`
	Upcoming  []models.Schedule `json:"upcoming"`
}

// WorkerSummary derives a worker's paid and outstanding amounts from the
// payments recorded against them.
func WorkerSummary(w models.Worker, payments []models.Payment, tasks []models.Task, schedules []models.Schedule, today time.Time) WorkerSummaryView {
	own := filter(payments, func(p models.Payment) bool { return p.WorkerID == w.ID })
	ownTasks := filter(tasks, func(t models.Task) bool { return t.WorkerID == w.ID })
	ownSchedules := filter(schedules, func(s models.Schedule) bool { return s.WorkerID == w.ID })
	upcoming := filter(ownSchedules, func(s models.Schedule) bool { return s.Status != models.SchedulePaid })

	paid := sum(own, func(p models.Payment) decimal.Decimal { return p.Amount.Decimal })
	return WorkerSummaryView{
		Worker:    w,
		Paid:      amt(paid),
		Pending:   amt(w.TotalAmount.Sub(paid)),
		Tasks:     TaskProgress(ownTasks),
		Schedules: ScheduleSummary(ownSchedules, today),
		Payments:  own,
		TaskList:  ownTasks,
		Upcoming:  upcoming,
	}
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := []T{}
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

package models

import "time"

// Collection names as stored in the document store.
const (
	CollectionWorkers   = "workers"
	CollectionTasks     = "tasks"
	CollectionMaterials = "materials"
	CollectionPayments  = "payments"
	CollectionInvoices  = "invoices"
	CollectionSchedules = "schedules"
	CollectionLedger    = "ledger"
	CollectionBudgets   = "budgets"
	CollectionDocuments = "documents"
	CollectionMessages  = "messages"
)

const (
	TaskPending    = "pending"
	TaskInProgress = "in-progress"
	TaskCompleted  = "completed"

	SchedulePending = "pending"
	SchedulePaid    = "paid"

	LedgerDebit  = "debit"
	LedgerCredit = "credit"

	// UncategorizedMaterial is the bucket for materials saved without a category.
	UncategorizedMaterial = "Other"
	// UnknownWorker labels rollup rows whose worker record no longer exists.
	UnknownWorker = "Unknown"
)

// Worker does not store a paid-to-date figure; it is derived from payments.
type Worker struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name" validate:"required,max=500"`
	Phone       string `json:"phone" validate:"required,phone10"`
	Profession  string `json:"profession,omitempty" validate:"max=100"`
	Rate        Amount `json:"rate" validate:"gte=0,lte=9999999"`
	TotalAmount Amount `json:"totalAmount" validate:"gte=0,lte=9999999"`
	Notes       string `json:"notes,omitempty" validate:"max=500"`
}

type Task struct {
	ID       string `json:"id,omitempty"`
	Title    string `json:"title" validate:"required,max=500"`
	WorkerID string `json:"workerId,omitempty"`
	Status   string `json:"status" validate:"omitempty,oneof=pending in-progress completed"`
	Deadline string `json:"deadline,omitempty" validate:"omitempty,isodate"`
	Cost     Amount `json:"cost" validate:"gte=0,lte=9999999"`
}

type Material struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name" validate:"required,max=500"`
	Qty      Amount `json:"qty" validate:"gte=0,lte=9999999"`
	Price    Amount `json:"price" validate:"gte=0,lte=9999999"`
	Vendor   string `json:"vendor,omitempty" validate:"max=200"`
	Category string `json:"category,omitempty" validate:"max=100"`
	Date     string `json:"date" validate:"required,isodate"`
}

type Payment struct {
	ID       string `json:"id,omitempty"`
	WorkerID string `json:"workerId" validate:"required"`
	Amount   Amount `json:"amount" validate:"gt=0,lte=9999999"`
	Date     string `json:"date" validate:"required,isodate"`
	Method   string `json:"method,omitempty" validate:"max=50"`
	Phase    string `json:"phase,omitempty" validate:"max=50"`
	Note     string `json:"note,omitempty" validate:"max=500"`
}

type Invoice struct {
	ID        string `json:"id,omitempty"`
	Vendor    string `json:"vendor" validate:"required,max=200"`
	Amount    Amount `json:"amount" validate:"gt=0,lte=9999999"`
	Date      string `json:"date" validate:"required,isodate"`
	Image     string `json:"image,omitempty"`
	ImageType string `json:"imageType,omitempty"`
}

type Schedule struct {
	ID       string `json:"id,omitempty"`
	WorkerID string `json:"workerId" validate:"required"`
	Phase    string `json:"phase" validate:"required,oneof=Advance Mid Completion"`
	DueDate  string `json:"dueDate" validate:"required,isodate"`
	Amount   Amount `json:"amount" validate:"gte=0,lte=9999999"`
	Status   string `json:"status" validate:"omitempty,oneof=pending paid"`
}

type LedgerEntry struct {
	ID     string `json:"id,omitempty"`
	Type   string `json:"type" validate:"required,oneof=debit credit"`
	Amount Amount `json:"amount" validate:"gt=0,lte=9999999"`
	Date   string `json:"date" validate:"required,isodate"`
	Note   string `json:"note,omitempty" validate:"max=500"`
}

// Budget rows are keyed by category; Key doubles as the record id.
type Budget struct {
	ID        string `json:"id,omitempty"`
	Key       string `json:"key" validate:"required,max=100"`
	Allocated Amount `json:"allocated" validate:"gte=0,lte=99999999"`
}

type Document struct {
	ID                  string              `json:"id,omitempty"`
	Name                string              `json:"name" validate:"required,max=255"`
	MimeType            string              `json:"type" validate:"required"`
	FileType            string              `json:"fileType,omitempty"`
	Size                int64               `json:"size" validate:"gte=0"`
	UploadedAt          time.Time           `json:"uploadedAt"`
	DataURL             string              `json:"dataUrl,omitempty"`
	StorageKey          string              `json:"storageKey,omitempty"`
	PreviewTableHeaders []string            `json:"previewTableHeaders,omitempty"`
	PreviewTableRows    []map[string]string `json:"previewTableRows,omitempty"`
	VisibleToWorkers    bool                `json:"visibleToWorkers,omitempty"`
	AssignedWorkers     []string            `json:"assignedWorkers,omitempty"`
}

// VisibleTo reports whether a worker portal may list this document.
// Documents shared with all workers have no assignment list.
func (d Document) VisibleTo(workerID string) bool {
	if !d.VisibleToWorkers {
		return false
	}
	if len(d.AssignedWorkers) == 0 {
		return true
	}
	for _, id := range d.AssignedWorkers {
		if id == workerID {
			return true
		}
	}
	return false
}

// Message replies are written onto the same record.
type Message struct {
	ID        string     `json:"id,omitempty"`
	WorkerID  string     `json:"workerId" validate:"required"`
	Text      string     `json:"text" validate:"required,max=500"`
	Timestamp time.Time  `json:"timestamp"`
	Reply     string     `json:"reply,omitempty" validate:"max=500"`
	RepliedAt *time.Time `json:"repliedAt,omitempty"`
}

package dto

import "github.com/ahmetcoskunkizilkaya/breeza-backend/internal/models"

// UploadResult reports the outcome of one file in a multi-file upload.
// A failed file never aborts the rest of the batch.
type UploadResult struct {
	Name  string `json:"name"`
	ID    string `json:"id,omitempty"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type UploadResponse struct {
	Uploaded int            `json:"uploaded"`
	Failed   int            `json:"failed"`
	Results  []UploadResult `json:"results"`
}

type ReplyRequest struct {
	Reply string `json:"reply" validate:"required,max=500"`
}

// BudgetRequest accepts the allocation as a JSON number or a numeric string.
type BudgetRequest struct {
	Allocated models.Amount `json:"allocated"`
}

type MessageRequest struct {
	Text string `json:"text" validate:"required,max=500"`
}

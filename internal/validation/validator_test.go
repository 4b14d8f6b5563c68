package validation

import (
	"testing"

	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/docstore"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerValidation(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		worker  models.Worker
		wantErr string
	}{
		{"valid", models.Worker{Name: "Raju", Phone: "9876543210", Rate: models.NewAmount(500)}, ""},
		{"missing name", models.Worker{Phone: "9876543210"}, "name is required"},
		{"short phone", models.Worker{Name: "Raju", Phone: "98765"}, "phone must be exactly 10 digits"},
		{"phone with letters", models.Worker{Name: "Raju", Phone: "98765abcde"}, "phone must be exactly 10 digits"},
		{"negative rate", models.Worker{Name: "Raju", Phone: "9876543210", Rate: models.NewAmount(-1)}, "rate must be at least 0"},
		{"rate too large", models.Worker{Name: "Raju", Phone: "9876543210", Rate: models.NewAmount(10000000)}, "rate must be at most 9999999"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.worker)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var verr *Error
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.wantErr)
		})
	}
}

func TestPaymentAndLedgerValidation(t *testing.T) {
	v := New()

	assert.NoError(t, v.Struct(models.Payment{WorkerID: "w1", Amount: models.NewAmount(2000), Date: "2025-01-05"}))
	assert.Error(t, v.Struct(models.Payment{WorkerID: "w1", Amount: models.NewAmount(0), Date: "2025-01-05"}))
	assert.Error(t, v.Struct(models.Payment{WorkerID: "w1", Amount: models.NewAmount(10), Date: "05/01/2025"}))
	assert.Error(t, v.Struct(models.Payment{WorkerID: "w1", Amount: models.NewAmount(10), Date: "2025-02-30"}))

	assert.NoError(t, v.Struct(models.LedgerEntry{Type: "credit", Amount: models.NewAmount(80), Date: "2025-01-05"}))
	err := v.Struct(models.LedgerEntry{Type: "refund", Amount: models.NewAmount(80), Date: "2025-01-05"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "type must be one of: debit credit")
}

func TestParkingRentedNeedsTenant(t *testing.T) {
	v := New()
	assert.Error(t, v.Struct(models.ParkingSlot{ParkingNo: "P1", IsRented: true}))
	assert.NoError(t, v.Struct(models.ParkingSlot{ParkingNo: "P1", IsRented: true, RentedTo: "B-201"}))
}

func TestVar(t *testing.T) {
	v := New()
	assert.True(t, v.Var("1234", "passcode"))
	assert.True(t, v.Var("123456", "passcode"))
	assert.False(t, v.Var("123", "passcode"))
	assert.False(t, v.Var("1234567", "passcode"))
	assert.True(t, v.Var("9876543210", "phone10"))
}

func TestSanitize(t *testing.T) {
	in := docstore.Record{
		"name":    "  <b>Raju</b> ",
		"dataUrl": "data:text/plain;base64,PD4=",
		"qty":     3.0,
	}
	out := Sanitize(in)

	assert.Equal(t, "bRaju/b", out["name"])
	assert.Equal(t, in["dataUrl"], out["dataUrl"])
	assert.Equal(t, 3.0, out["qty"])
	assert.Equal(t, "  <b>Raju</b> ", in["name"], "input is not modified")
}

package reports

import (
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/models"
	"github.com/shopspring/decimal"
)

type MaintenanceTotals struct {
	Billed      models.Amount `json:"billed"`
	Collected   models.Amount `json:"collected"`
	Outstanding models.Amount `json:"outstanding"`
	PercentPaid int64         `json:"percentPaid"`
	UnpaidFlats []string      `json:"unpaidFlats"`
}

func MaintenanceSummary(bills []models.MaintenanceBill) MaintenanceTotals {
	billed, collected := decimal.Zero, decimal.Zero
	unpaid := []string{}
	seen := map[string]bool{}
	for _, b := range bills {
		billed = billed.Add(b.Amount.Decimal)
		if b.Paid {
			collected = collected.Add(b.Amount.Decimal)
			continue
		}
		if !seen[b.Flat] {
			seen[b.Flat] = true
			unpaid = append(unpaid, b.Flat)
		}
	}
	return MaintenanceTotals{
		Billed:      amt(billed),
		Collected:   amt(collected),
		Outstanding: amt(billed.Sub(collected)),
		PercentPaid: PercentOf(collected, billed),
		UnpaidFlats: unpaid,
	}
}

type ParkingTotals struct {
	Total            int           `json:"total"`
	Occupied         int           `json:"occupied"`
	Vacant           int           `json:"vacant"`
	Rented           int           `json:"rented"`
	Vehicles         int           `json:"vehicles"`
	RentIncome       models.Amount `json:"rentIncome"`
	OccupancyPercent int64         `json:"occupancyPercent"`
}

// ParkingOccupancy counts slots by derived status. Rented slots count as in use.
func ParkingOccupancy(slots []models.ParkingSlot) ParkingTotals {
	var t ParkingTotals
	income := decimal.Zero
	for _, s := range slots {
		switch s.Status() {
		case models.ParkingRented:
			t.Rented++
			income = income.Add(s.RentAmount.Decimal)
		case models.ParkingVacant:
			t.Vacant++
		default:
			t.Occupied++
		}
		t.Vehicles += len(s.Vehicles)
	}
	t.Total = len(slots)
	t.RentIncome = amt(income)
	t.OccupancyPercent = PercentOf(decimal.NewFromInt(int64(t.Occupied+t.Rented)), decimal.NewFromInt(int64(t.Total)))
	return t
}

type ComplaintTotals struct {
	Open     int            `json:"open"`
	Resolved int            `json:"resolved"`
	ByType   map[string]int `json:"byType"`
}

// ComplaintCounts treats complaints without a status as open.
func ComplaintCounts(complaints []models.Complaint) ComplaintTotals {
	t := ComplaintTotals{ByType: map[string]int{}}
	for _, c := range complaints {
		if c.Status == models.ComplaintResolved {
			t.Resolved++
		} else {
			t.Open++
		}
		t.ByType[c.Type]++
	}
	return t
}

type SocietySummary struct {
	Members     int               `json:"members"`
	Notices     int               `json:"notices"`
	Vendors     int               `json:"vendors"`
	Parking     ParkingTotals     `json:"parking"`
	Complaints  ComplaintTotals   `json:"complaints"`
	Maintenance MaintenanceTotals `json:"maintenance"`
}

func BuildSocietySummary(members []models.Member, notices []models.Notice, vendors []models.Vendor, slots []models.ParkingSlot, complaints []models.Complaint, bills []models.MaintenanceBill) SocietySummary {
	return SocietySummary{
		Members:     len(members),
		Notices:     len(notices),
		Vendors:     len(vendors),
		Parking:     ParkingOccupancy(slots),
		Complaints:  ComplaintCounts(complaints),
		Maintenance: MaintenanceSummary(bills),
	}
}

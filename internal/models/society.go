package models

const (
	CollectionMembers     = "members"
	CollectionParking     = "parking"
	CollectionNotices     = "notices"
	CollectionComplaints  = "complaints"
	CollectionVendors     = "vendors"
	CollectionMaintenance = "maintenance"
)

const (
	ComplaintOpen     = "open"
	ComplaintResolved = "resolved"

	ParkingOccupied = "occupied"
	ParkingVacant   = "vacant"
	ParkingRented   = "rented"
)

type Member struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name" validate:"required,max=200"`
	Flat   string `json:"flat" validate:"required,max=20"`
	Phone  string `json:"phone" validate:"required,phone10"`
	Role   string `json:"role" validate:"required,max=50"`
	Status string `json:"status,omitempty" validate:"max=20"`
}

type Vehicle struct {
	Type   string `json:"type" validate:"max=30"`
	Number string `json:"number" validate:"max=20"`
}

type ParkingSlot struct {
	ID         string    `json:"id,omitempty"`
	ParkingNo  string    `json:"parkingNo" validate:"required,max=20"`
	Flat       string    `json:"flat,omitempty" validate:"max=20"`
	Owner      string    `json:"owner,omitempty" validate:"max=200"`
	IsRented   bool      `json:"isRented,omitempty"`
	RentedTo   string    `json:"rentedTo,omitempty" validate:"required_if=IsRented true,max=200"`
	RentAmount Amount    `json:"rentAmount" validate:"gte=0,lte=9999999"`
	Vehicles   []Vehicle `json:"vehicles,omitempty" validate:"dive"`
	Notes      string    `json:"notes,omitempty" validate:"max=500"`
}

// Status derives the slot state shown in the parking table.
func (p ParkingSlot) Status() string {
	switch {
	case p.IsRented:
		return ParkingRented
	case p.Flat == "" && p.Owner == "":
		return ParkingVacant
	default:
		return ParkingOccupied
	}
}

type Notice struct {
	ID      string `json:"id,omitempty"`
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content" validate:"required,max=2000"`
	Date    string `json:"date,omitempty" validate:"omitempty,isodate"`
}

type Complaint struct {
	ID       string `json:"id,omitempty"`
	MemberID string `json:"memberId,omitempty"`
	Flat     string `json:"flat" validate:"required,max=20"`
	Type     string `json:"type" validate:"required,max=50"`
	Desc     string `json:"desc" validate:"required,max=1000"`
	Status   string `json:"status" validate:"omitempty,oneof=open resolved"`
}

type Vendor struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name" validate:"required,max=200"`
	Type  string `json:"type" validate:"required,max=50"`
	Phone string `json:"phone" validate:"required,phone10"`
}

type MaintenanceBill struct {
	ID      string `json:"id,omitempty"`
	Flat    string `json:"flat" validate:"required,max=20"`
	Amount  Amount `json:"amount" validate:"gt=0,lte=9999999"`
	DueDate string `json:"dueDate" validate:"required,isodate"`
	Paid    bool   `json:"paid"`
}

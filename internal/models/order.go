package models

import (
	"fmt"
	"time"
)

type OrderStatus string

const (
	OrderNew     OrderStatus = "new"
	OrderDraft   OrderStatus = "draft"
	OrderProcess OrderStatus = "process"
	OrderMinuta  OrderStatus = "minuta"
	OrderDone    OrderStatus = "done"
	OrderCancel  OrderStatus = "cancel"

	// OrderWaitingApproval is accepted on input and stored as OrderMinuta.
	OrderWaitingApproval OrderStatus = "waiting_approval"
)

// ParseOrderStatus validates a user supplied status.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch st := OrderStatus(s); st {
	case OrderNew, OrderDraft, OrderProcess, OrderMinuta, OrderDone, OrderCancel:
		return st, true
	case OrderWaitingApproval:
		return OrderMinuta, true
	}
	return "", false
}

type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

// PaymentStatusFor derives the payment status from what was paid against the total.
func PaymentStatusFor(totalPaid, totalAmount int64) PaymentStatus {
	switch {
	case totalPaid >= totalAmount && totalPaid > 0:
		return PaymentPaid
	case totalPaid > 0:
		return PaymentPartial
	default:
		return PaymentUnpaid
	}
}

// Order is a unit of billable work for a client. Orders are never deleted.
// TotalAmount and PaymentStatus are derived and written by the order services only.
type Order struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time        `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	OrderNumber   string           `gorm:"size:32;uniqueIndex;not null" json:"order_number"`
	ClientID      uint             `gorm:"index;not null" json:"client_id"`
	Client        *Client          `json:"client,omitempty"`
	ServiceID     uint             `gorm:"index;not null" json:"service_id"`
	Service       *Service         `json:"service,omitempty"`
	Description   string           `gorm:"type:text" json:"description,omitempty"`
	DeedDate      *time.Time       `json:"deed_date,omitempty"`
	Status        OrderStatus      `gorm:"size:20;not null;default:new;index" json:"status"`
	ServicePrice  int64            `gorm:"not null;default:0" json:"service_price"`
	TaxDeposit    int64            `gorm:"not null;default:0" json:"tax_deposit"`
	TotalAmount   int64            `gorm:"not null;default:0" json:"total_amount"`
	PaymentStatus PaymentStatus    `gorm:"size:20;not null;default:unpaid;index" json:"payment_status"`
	CreatedByID   *uint            `gorm:"index" json:"created_by_id,omitempty"`
	CreatedBy     *User            `json:"created_by,omitempty"`
	Detail        *OrderTypeDetail `json:"ppat_detail,omitempty"`
	Files         []OrderFile      `json:"files,omitempty"`
	Payments      []Payment        `json:"payments,omitempty"`
}

func (o *Order) AuditSubjectType() string { return "order" }
func (o *Order) AuditSubjectID() uint     { return o.ID }

func (o *Order) AuditDescription(event string) string {
	return fmt.Sprintf("Order %s was %s", o.OrderNumber, event)
}

// OrderTypeDetail holds land-deed fields. It exists only for orders whose
// service belongs to the ppat type.
type OrderTypeDetail struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	OrderID           uint      `gorm:"uniqueIndex;not null" json:"order_id"`
	SellerName        string    `gorm:"size:255" json:"seller_name"`
	BuyerName         string    `gorm:"size:255" json:"buyer_name"`
	CertificateNumber string    `gorm:"size:100" json:"certificate_number"`
	LandArea          float64   `gorm:"not null;default:0" json:"land_area"`
	BuildingArea      float64   `gorm:"not null;default:0" json:"building_area"`
	AssessedValue     int64     `gorm:"not null;default:0" json:"assessed_value"` // NJOP
	TransactionValue  int64     `gorm:"not null;default:0" json:"transaction_value"`
	SellerTax         int64     `gorm:"not null;default:0" json:"seller_tax"` // PPh
	BuyerTax          int64     `gorm:"not null;default:0" json:"buyer_tax"`  // BPHTB
}

func (OrderTypeDetail) TableName() string { return "order_ppat_details" }

type OrderFile struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	OrderID      uint      `gorm:"index;not null" json:"order_id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Path         string    `gorm:"size:500;not null" json:"path"`
	Extension    string    `gorm:"size:20" json:"extension"`
	Category     string    `gorm:"size:50" json:"category,omitempty"`
	Size         int64     `json:"size"`
	UploadedByID *uint     `json:"uploaded_by_id,omitempty"`
}

type Payment struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	OrderID      uint      `gorm:"index;not null" json:"order_id"`
	Amount       int64     `gorm:"not null" json:"amount"`
	PaidAt       time.Time `gorm:"not null" json:"paid_at"`
	Method       string    `gorm:"size:50;not null" json:"method"`
	ProofPath    string    `gorm:"size:500" json:"proof_path,omitempty"`
	Note         string    `gorm:"size:500" json:"note,omitempty"`
	RecordedByID *uint     `json:"recorded_by_id,omitempty"`
	RecordedBy   *User     `json:"recorded_by,omitempty"`
}

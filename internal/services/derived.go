package services

import (
	"github.com/diewo77/go-ppat/internal/models"
	"gorm.io/gorm"
)

// refreshDerived recomputes TotalAmount and PaymentStatus of o from its price
// components and the payment rows currently visible to tx. It is the only code
// that assigns those two fields; callers persist o afterwards.
func refreshDerived(tx *gorm.DB, o *models.Order) error {
	o.TotalAmount = o.ServicePrice + o.TaxDeposit
	var paid int64
	if o.ID != 0 {
		var err error
		if paid, err = totalPaid(tx, o.ID); err != nil {
			return err
		}
	}
	o.PaymentStatus = models.PaymentStatusFor(paid, o.TotalAmount)
	return nil
}

// totalPaid sums the payments of one order.
func totalPaid(tx *gorm.DB, orderID uint) (int64, error) {
	var paid int64
	err := tx.Model(&models.Payment{}).
		Where("order_id = ?", orderID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&paid).Error
	return paid, err
}

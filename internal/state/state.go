package state

type Status string

const (
	StatusOpen      Status = "OPEN"
	StatusHeld      Status = "HELD"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	StatusVoided    Status = "VOIDED"
	StatusRefunded  Status = "REFUNDED"
)

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "UNPAID"
	PaymentPartial  PaymentStatus = "PARTIAL"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

type KitchenStatus string

const (
	KitchenPending   KitchenStatus = "PENDING"
	KitchenPreparing KitchenStatus = "PREPARING"
	KitchenReady     KitchenStatus = "READY"
	KitchenServed    KitchenStatus = "SERVED"
)

// Violation is a state-machine guard failure with a stable wire code.
type Violation struct {
	Code    string
	Message string
}

func (v *Violation) Error() string {
	return v.Message
}

func violation(code string, message string) *Violation {
	return &Violation{Code: code, Message: message}
}

func IsTerminal(s Status) bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusVoided, StatusRefunded:
		return true
	}
	return false
}

// CanModify guards line edits, discounts, tips and service charges.
func CanModify(s Status, p PaymentStatus) *Violation {
	if IsTerminal(s) {
		return violation("INVALID_ORDER_STATUS", "Order is "+string(s)+" and can no longer be modified")
	}
	if p != PaymentUnpaid && p != PaymentPartial {
		return violation("INVALID_ORDER_STATUS", "Order is already settled")
	}
	return nil
}

func CanFire(s Status) *Violation {
	if IsTerminal(s) {
		return violation("INVALID_ORDER_STATUS", "Order is "+string(s)+" and cannot be fired to kitchen")
	}
	return nil
}

func CanPark(s Status, p PaymentStatus, parked bool) *Violation {
	if IsTerminal(s) {
		return violation("INVALID_ORDER_STATUS", "Order is "+string(s)+" and cannot be parked")
	}
	if p == PaymentPaid {
		return violation("INVALID_ORDER_STATUS", "Paid orders cannot be parked")
	}
	if parked {
		return violation("ALREADY_PARKED", "Order is already parked")
	}
	return nil
}

func CanResume(s Status, parked bool) *Violation {
	if !parked || s != StatusHeld {
		return violation("NOT_PARKED", "Order is not parked")
	}
	return nil
}

func CanPay(s Status, p PaymentStatus) *Violation {
	if p == PaymentPaid {
		return violation("INVALID_ORDER_STATUS", "Order is already paid")
	}
	if s == StatusVoided || s == StatusRefunded || s == StatusCancelled {
		return violation("INVALID_ORDER_STATUS", "Order is "+string(s)+" and cannot accept payment")
	}
	return nil
}

func CanVoidOrder(s Status, p PaymentStatus) *Violation {
	if s == StatusVoided || s == StatusRefunded {
		return violation("INVALID_ORDER_STATUS", "Order is already "+string(s))
	}
	if p == PaymentPaid {
		return violation("ORDER_ALREADY_PAID", "Paid orders must go through the refund flow")
	}
	return nil
}

func CanVoidLine(s Status, p PaymentStatus, lineVoided bool) *Violation {
	if lineVoided {
		return violation("INVALID_ORDER_STATUS", "Item is already voided")
	}
	if s == StatusVoided || s == StatusRefunded || s == StatusCancelled {
		return violation("INVALID_ORDER_STATUS", "Order is "+string(s))
	}
	if p == PaymentPaid {
		return violation("ORDER_ALREADY_PAID", "Items on a paid order must go through the refund flow")
	}
	return nil
}

func CanRefund(s Status, p PaymentStatus) *Violation {
	if s == StatusRefunded || p == PaymentRefunded {
		return violation("INVALID_ORDER_STATUS", "Order is already refunded")
	}
	if p != PaymentPaid && p != PaymentPartial {
		return violation("INVALID_ORDER_STATUS", "Order has no settled payment to refund")
	}
	return nil
}

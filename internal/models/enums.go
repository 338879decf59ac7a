package models

// Role identifies which account table a principal belongs to.
type Role string

const (
	RoleUser  Role = "user"
	RoleCook  Role = "cook"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleCook, RoleAdmin:
		return true
	}
	return false
}

// OrderStatus advances pending -> processing -> ready.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusReady      OrderStatus = "ready"
)

var statusRank = map[OrderStatus]int{
	StatusPending:    0,
	StatusProcessing: 1,
	StatusReady:      2,
}

func (s OrderStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanAdvanceTo reports whether next is the same status or a later one.
func (s OrderStatus) CanAdvanceTo(next OrderStatus) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to >= from
}

type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cash on delivery"
	PaymentTransfer       PaymentMethod = "transfer"
)

func (p PaymentMethod) Valid() bool {
	return p == PaymentCashOnDelivery || p == PaymentTransfer
}

type DeliveryMode string

const (
	DeliveryEatIn    DeliveryMode = "eat in house"
	DeliveryDelivery DeliveryMode = "delivery"
)

func (d DeliveryMode) Valid() bool {
	return d == DeliveryEatIn || d == DeliveryDelivery
}

type Rating string

const (
	RatingPoor      Rating = "poor"
	RatingFair      Rating = "fair"
	RatingNice      Rating = "nice"
	RatingExcellent Rating = "excellent"
)

func (r Rating) Valid() bool {
	switch r {
	case RatingPoor, RatingFair, RatingNice, RatingExcellent:
		return true
	}
	return false
}

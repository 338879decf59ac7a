package models

import "github.com/shopspring/decimal"

type Order struct {
	BaseModel
	Reference string          `gorm:"size:32;uniqueIndex;not null" json:"reference"`
	Name      string          `gorm:"not null" json:"name"`
	Amount    decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"amount"`
	Payment   PaymentMethod   `gorm:"size:32;not null" json:"payment"`
	Status    OrderStatus     `gorm:"size:32;not null;index" json:"status"`
	Delivery  DeliveryMode    `gorm:"size:32;not null" json:"delivery"`
	Address   string          `gorm:"size:200" json:"address,omitempty"`
	Comments  string          `gorm:"size:200" json:"comments,omitempty"`
	Phone     string          `gorm:"not null" json:"phone"`
	UserID    uint            `gorm:"not null;index" json:"user_id"`
	User      *User           `json:"user,omitempty"`
	CookID    *uint           `gorm:"index" json:"cook_id"`
	Cook      *Cook           `json:"cook,omitempty"`
	Rating    *Rating         `gorm:"size:16" json:"rating"`
	Details   []OrderDetail   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"details,omitempty"`
}

// OrderDetail is one line of an order; name and cost are captured at order time.
type OrderDetail struct {
	BaseModel
	OrderID  uint            `gorm:"not null;index" json:"order_id"`
	FoodID   uint            `gorm:"not null;index" json:"food_id"`
	Food     *Food           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	FoodName string          `gorm:"not null" json:"food_name"`
	Quantity int             `gorm:"not null" json:"quantity"`
	UnitCost decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_cost"`
}

// LineTotal returns quantity x unit cost.
func (d OrderDetail) LineTotal() decimal.Decimal {
	return d.UnitCost.Mul(decimal.NewFromInt(int64(d.Quantity)))
}

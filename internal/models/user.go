package models

// Account holds the columns shared by users, cooks and admins.
type Account struct {
	BaseModel
	Name         string `gorm:"size:200;not null" json:"name"`
	Email        string `gorm:"size:200;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Phone        string `json:"phone"`
	Image        string `json:"image"`
	IsActive     bool   `gorm:"not null;default:true" json:"is_active"`
}

// User represents a customer placing orders.
type User struct {
	Account
	Orders []Order `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"orders,omitempty"`
}

// Cook prepares orders assigned to them.
type Cook struct {
	Account
	Orders []Order `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"orders,omitempty"`
}

// Admin manages the catalog and orders.
type Admin struct {
	Account
}

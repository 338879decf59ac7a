package models

import "github.com/shopspring/decimal"

type Category struct {
	BaseModel
	Name        string `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string `gorm:"size:200" json:"description"`
	Image       string `json:"image"`
	Foods       []Food `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"foods,omitempty"`
}

type Food struct {
	BaseModel
	Name            string          `gorm:"size:200;not null;uniqueIndex:idx_food_name_category" json:"name"`
	Description     string          `gorm:"size:300" json:"description"`
	UnitCost        decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"unit_cost"`
	CookingDuration int             `gorm:"not null;default:0" json:"cooking_duration"`
	Unit            string          `json:"unit"`
	Images          []string        `gorm:"serializer:json" json:"images"`
	Rating          int             `gorm:"default:0" json:"rating"`
	CategoryID      uint            `gorm:"not null;index;uniqueIndex:idx_food_name_category" json:"category_id"`
	Category        *Category       `json:"category,omitempty"`
}

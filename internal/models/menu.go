package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plato is a recipe.
type Plato struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	Name        string        `gorm:"size:150;not null;uniqueIndex" json:"name"`
	Description string        `gorm:"size:255" json:"description"`
	Insumos     []PlatoInsumo `gorm:"foreignKey:PlatoID;constraint:OnDelete:CASCADE" json:"insumos"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// PlatoInsumo: how much of an insumo one serving of a plato needs, in base unit.
type PlatoInsumo struct {
	ID       uint            `gorm:"primaryKey" json:"id"`
	PlatoID  uint            `gorm:"index;not null" json:"plato_id"`
	InsumoID uint            `gorm:"index;not null" json:"insumo_id"`
	Insumo   Insumo          `json:"-"`
	Quantity decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
}

type Menu struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	Date      time.Time   `gorm:"index;not null" json:"date"`
	Name      string      `gorm:"size:150;not null" json:"name"`
	Notes     string      `gorm:"size:255" json:"notes"`
	Platos    []MenuPlato `gorm:"foreignKey:MenuID;constraint:OnDelete:CASCADE" json:"platos"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// MenuPlato assigns a plato to a meal service of a menu with the number of
// servings to prepare.
type MenuPlato struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	MenuID      uint            `gorm:"index;not null" json:"menu_id"`
	PlatoID     uint            `gorm:"index;not null" json:"plato_id"`
	Plato       Plato           `json:"-"`
	MealService string          `gorm:"size:40;not null" json:"meal_service"` // desayuno, almuerzo, cena
	Servings    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"servings"`
}

// Package menu manages recipes (platos) and the dated menus that schedule them.
package menu

import (
	"errors"
	"fmt"
	"time"

	"catering-backend/internal/apperr"
	"catering-backend/internal/models"
	"catering-backend/internal/stock"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrPlatoNotFound   = apperr.New(apperr.NotFound, "plato not found")
	ErrMenuNotFound    = apperr.New(apperr.NotFound, "menu not found")
	ErrUnknownInsumo   = apperr.New(apperr.Validation, "recipe references an unknown insumo")
	ErrUnknownPlato    = apperr.New(apperr.Validation, "menu references an unknown plato")
	ErrInvalidQuantity = apperr.New(apperr.Validation, "quantities and servings must be greater than zero")
	ErrPlatoInUse      = apperr.New(apperr.Conflict, "plato is scheduled in a menu")
)

type Ingredient struct {
	InsumoID uint
	Quantity decimal.Decimal // base unit per serving
}

type Course struct {
	PlatoID     uint
	MealService string
	Servings    decimal.Decimal
}

func CreatePlato(db *gorm.DB, name, description string, ingredients []Ingredient) (*models.Plato, error) {
	ids := make([]uint, 0, len(ingredients))
	for _, ing := range ingredients {
		if !ing.Quantity.IsPositive() {
			return nil, ErrInvalidQuantity
		}
		if !stock.FitsScale(ing.Quantity) {
			return nil, stock.ErrTooPrecise
		}
		ids = append(ids, ing.InsumoID)
	}

	p := models.Plato{Name: name, Description: description}
	for _, ing := range ingredients {
		p.Insumos = append(p.Insumos, models.PlatoInsumo{InsumoID: ing.InsumoID, Quantity: ing.Quantity})
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := ensureAll(tx, &models.Insumo{}, ids, ErrUnknownInsumo); err != nil {
			return err
		}
		if err := tx.Create(&p).Error; err != nil {
			return fmt.Errorf("plato could not be created: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// DeletePlato removes a plato that no menu schedules; its recipe rows go with it.
func DeletePlato(db *gorm.DB, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.MenuPlato{}).Where("plato_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrPlatoInUse
		}
		if err := tx.Where("plato_id = ?", id).Delete(&models.PlatoInsumo{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Plato{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %d", ErrPlatoNotFound, id)
		}
		return nil
	})
}

func GetPlato(db *gorm.DB, id uint) (*models.Plato, error) {
	var p models.Plato
	if err := db.Preload("Insumos").First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrPlatoNotFound, id)
		}
		return nil, err
	}
	return &p, nil
}

func ListPlatos(db *gorm.DB) ([]models.Plato, error) {
	var out []models.Plato
	err := db.Preload("Insumos").Order("name").Find(&out).Error
	return out, err
}

func CreateMenu(db *gorm.DB, date time.Time, name, notes string, courses []Course) (*models.Menu, error) {
	ids := make([]uint, 0, len(courses))
	for _, co := range courses {
		if !co.Servings.IsPositive() {
			return nil, ErrInvalidQuantity
		}
		if !stock.FitsScale(co.Servings) {
			return nil, stock.ErrTooPrecise
		}
		ids = append(ids, co.PlatoID)
	}

	m := models.Menu{Date: date, Name: name, Notes: notes}
	for _, co := range courses {
		m.Platos = append(m.Platos, models.MenuPlato{PlatoID: co.PlatoID, MealService: co.MealService, Servings: co.Servings})
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := ensureAll(tx, &models.Plato{}, ids, ErrUnknownPlato); err != nil {
			return err
		}
		if err := tx.Create(&m).Error; err != nil {
			return fmt.Errorf("menu could not be created: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func DeleteMenu(db *gorm.DB, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("menu_id = ?", id).Delete(&models.MenuPlato{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Menu{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %d", ErrMenuNotFound, id)
		}
		return nil
	})
}

func GetMenu(db *gorm.DB, id uint) (*models.Menu, error) {
	var m models.Menu
	if err := db.Preload("Platos").First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrMenuNotFound, id)
		}
		return nil, err
	}
	return &m, nil
}

// ListMenus returns menus dated in [from, to]; zero bounds are open.
func ListMenus(db *gorm.DB, from, to time.Time) ([]models.Menu, error) {
	q := db.Preload("Platos")
	if !from.IsZero() {
		q = q.Where("date >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("date < ?", to.AddDate(0, 0, 1))
	}
	var out []models.Menu
	err := q.Order("date, id").Find(&out).Error
	return out, err
}

// ensureAll checks that every id exists in model's table.
func ensureAll(tx *gorm.DB, model interface{}, ids []uint, missing error) error {
	uniq := make(map[uint]bool, len(ids))
	for _, id := range ids {
		uniq[id] = true
	}
	if len(uniq) == 0 {
		return nil
	}
	list := make([]uint, 0, len(uniq))
	for id := range uniq {
		list = append(list, id)
	}
	var n int64
	if err := tx.Model(model).Where("id IN ?", list).Count(&n).Error; err != nil {
		return err
	}
	if int(n) != len(list) {
		return missing
	}
	return nil
}

package needs

import (
	"fmt"
	"time"

	"catering-backend/internal/models"

	"gorm.io/gorm"
)

// LoadLines walks menus -> menu_platos -> plato_insumos for the menus dated
// in [from, to], both days inclusive.
func LoadLines(db *gorm.DB, from, to time.Time) ([]Line, error) {
	var lines []Line
	err := db.Table("menus AS m").
		Select("m.id AS menu_id, mp.meal_service, pi.insumo_id, pi.quantity, mp.servings").
		Joins("JOIN menu_platos AS mp ON mp.menu_id = m.id").
		Joins("JOIN plato_insumos AS pi ON pi.plato_id = mp.plato_id").
		Where("m.date >= ? AND m.date < ?", dayStart(from), dayStart(to).AddDate(0, 0, 1)).
		Order("m.id, mp.id, pi.id").
		Scan(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("menu lines could not be loaded: %w", err)
	}
	return lines, nil
}

// LoadCatalog reads every insumo.
func LoadCatalog(db *gorm.DB) (Catalog, error) {
	var insumos []models.Insumo
	if err := db.Find(&insumos).Error; err != nil {
		return nil, fmt.Errorf("insumos could not be loaded: %w", err)
	}
	return NewCatalog(insumos), nil
}

// LoadCatalogFor reads only the insumos referenced by lines.
func LoadCatalogFor(db *gorm.DB, lines []Line) (Catalog, error) {
	ids := make([]uint, 0, len(lines))
	seen := make(map[uint]bool, len(lines))
	for _, l := range lines {
		if !seen[l.InsumoID] {
			seen[l.InsumoID] = true
			ids = append(ids, l.InsumoID)
		}
	}
	if len(ids) == 0 {
		return Catalog{}, nil
	}
	var insumos []models.Insumo
	if err := db.Where("id IN ?", ids).Find(&insumos).Error; err != nil {
		return nil, fmt.Errorf("insumos could not be loaded: %w", err)
	}
	return NewCatalog(insumos), nil
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

package planning

import (
	"bytes"
	"fmt"
	"time"

	"catering-backend/internal/httpx"
	"catering-backend/internal/needs"

	"github.com/xuri/excelize/v2"
)

const planSheet = "Compras"

var planHeaders = []string{
	"Insumo", "Unidad", "Necesario", "Necesario (exacto)", "Stock", "Stock minimo",
	"Pendiente entrega", "Pendiente recepcion", "Sugerencia", "Motivo",
	"Costo unitario", "Costo estimado", "Proveedor",
}

// WritePlan renders the suggestions as an xlsx workbook.
func WritePlan(from, to time.Time, plan []needs.Suggestion) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", planSheet); err != nil {
		return nil, err
	}

	title := fmt.Sprintf("Plan de compras %s - %s", from.Format(httpx.DateLayout), to.Format(httpx.DateLayout))
	if err := f.SetCellValue(planSheet, "A1", title); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	for i, h := range planHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		if err := f.SetCellValue(planSheet, cell, h); err != nil {
			return nil, err
		}
	}
	if err := f.SetCellStyle(planSheet, "A1", lastHeaderCell(), bold); err != nil {
		return nil, err
	}

	var total float64
	for r, s := range plan {
		row := r + 3
		values := []interface{}{
			s.InsumoName,
			s.PurchaseUnit,
			s.NeededRounded.InexactFloat64(),
			s.NeededRaw.Round(4).InexactFloat64(),
			s.CurrentStock.InexactFloat64(),
			s.MinStockLevel.InexactFloat64(),
			s.PendingDeliveryQuantity.InexactFloat64(),
			s.PendingReceptionQuantity.InexactFloat64(),
			s.SuggestionRounded.InexactFloat64(),
			string(s.Reason),
			s.UnitCost.InexactFloat64(),
			s.EstimatedCost.InexactFloat64(),
			s.SupplierName,
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(planSheet, cell, &values); err != nil {
			return nil, err
		}
		total += s.EstimatedCost.InexactFloat64()
	}

	totalRow := len(plan) + 3
	labelCell, _ := excelize.CoordinatesToCellName(len(planHeaders)-2, totalRow)
	totalCell, _ := excelize.CoordinatesToCellName(len(planHeaders)-1, totalRow)
	if err := f.SetCellValue(planSheet, labelCell, "Total"); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(planSheet, totalCell, total); err != nil {
		return nil, err
	}
	_ = f.SetColWidth(planSheet, "A", "A", 28)
	_ = f.SetColWidth(planSheet, "M", "M", 24)

	return f.WriteToBuffer()
}

func lastHeaderCell() string {
	cell, _ := excelize.CoordinatesToCellName(len(planHeaders), 2)
	return cell
}

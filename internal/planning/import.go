package planning

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"catering-backend/internal/models"
	"catering-backend/internal/purchasing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var ErrEmptySheet = errors.New("the workbook has no rows to import")

// ImportRow is one purchase line read from a supplier sheet. Columns are
// insumo name, quantity, unit cost, supplier, invoice number; only the first
// two are required.
type ImportRow struct {
	Line          int
	Name          string
	Quantity      decimal.Decimal
	UnitCost      *decimal.Decimal
	SupplierName  string
	InvoiceNumber string
}

type RowError struct {
	Line  int    `json:"line"`
	Value string `json:"value"`
	Error string `json:"error"`
}

var (
	accentFolds = strings.NewReplacer(
		"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
		"Á", "a", "É", "e", "Í", "i", "Ó", "o", "Ú", "u", "Ü", "u", "Ñ", "n",
	)
	// "1kg", "500 gr", "2,5lt" and bare numbers or units
	quantityWord = regexp.MustCompile(`^([\d.,]+\s*(kg|gr|g|lt|l|ml|cc|un|u)?|kg|gr|g|lt|l|ml|cc|un)$`)
)

// normalizeName folds accents and case and drops pack sizes, so
// "HARINA 000 1KG" and "Harina" match.
func normalizeName(s string) string {
	folded := strings.ToLower(accentFolds.Replace(s))
	words := strings.Fields(folded)
	kept := words[:0]
	for _, w := range words {
		if quantityWord.MatchString(w) {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// ParseSheet reads the first sheet of an xlsx workbook. A first row whose
// first cell names a column is skipped as header.
func ParseSheet(r io.Reader) ([]ImportRow, []RowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("workbook could not be read: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, ErrEmptySheet
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("sheet could not be read: %w", err)
	}

	start := 0
	if len(rows) > 0 && len(rows[0]) > 0 && isHeader(rows[0][0]) {
		start = 1
	}

	var out []ImportRow
	var bad []RowError
	for i := start; i < len(rows); i++ {
		row := rows[i]
		line := i + 1
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		name := strings.TrimSpace(row[0])

		qty, err := cellDecimal(row, 1)
		if err != nil || !qty.IsPositive() {
			bad = append(bad, RowError{Line: line, Value: name, Error: "quantity must be a number greater than zero"})
			continue
		}
		ir := ImportRow{Line: line, Name: name, Quantity: qty}

		if cell(row, 2) != "" {
			cost, err := cellDecimal(row, 2)
			if err != nil || cost.IsNegative() {
				bad = append(bad, RowError{Line: line, Value: name, Error: "unit cost must be a non-negative number"})
				continue
			}
			ir.UnitCost = &cost
		}
		ir.SupplierName = cell(row, 3)
		ir.InvoiceNumber = cell(row, 4)
		out = append(out, ir)
	}

	if len(out) == 0 && len(bad) == 0 {
		return nil, nil, ErrEmptySheet
	}
	return out, bad, nil
}

// MatchRows resolves row names against the catalog. Rows naming an unknown
// insumo are returned as errors and left out of the batch.
func MatchRows(rows []ImportRow, insumos []models.Insumo, operator string) ([]purchasing.CreateInput, []RowError) {
	byName := make(map[string]uint, len(insumos))
	for _, in := range insumos {
		byName[normalizeName(in.Name)] = in.ID
	}

	var inputs []purchasing.CreateInput
	var unmatched []RowError
	for _, r := range rows {
		id, ok := byName[normalizeName(r.Name)]
		if !ok {
			unmatched = append(unmatched, RowError{Line: r.Line, Value: r.Name, Error: "no insumo with this name"})
			continue
		}
		inputs = append(inputs, purchasing.CreateInput{
			InsumoID:      id,
			Quantity:      r.Quantity,
			UnitCost:      r.UnitCost,
			SupplierName:  r.SupplierName,
			InvoiceNumber: r.InvoiceNumber,
			Notes:         fmt.Sprintf("Imported from sheet, line %d", r.Line),
			CreatedBy:     operator,
		})
	}
	return inputs, unmatched
}

func isHeader(first string) bool {
	h := normalizeName(first)
	return strings.Contains(h, "insumo") || strings.Contains(h, "producto") || strings.Contains(h, "nombre")
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// cellDecimal accepts both "2.5" and "2,5".
func cellDecimal(row []string, i int) (decimal.Decimal, error) {
	raw := cell(row, i)
	if strings.Contains(raw, ",") && !strings.Contains(raw, ".") {
		raw = strings.Replace(raw, ",", ".", 1)
	}
	return decimal.NewFromString(raw)
}

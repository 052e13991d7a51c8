package purchasing

import (
	"catering-backend/internal/apperr"
	"catering-backend/internal/logging"
	"catering-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BatchResult is the outcome of one batch item.
type BatchResult struct {
	Index            int    `json:"index"`
	InsumoID         uint   `json:"insumo_id"`
	PurchaseRecordID uint   `json:"purchase_record_id,omitempty"`
	Error            string `json:"error,omitempty"`
}

type BatchReport struct {
	BatchRef  string        `json:"batch_ref"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Results   []BatchResult `json:"results"`
}

// BatchCreate registers one purchase per item, each as already received by
// the warehouse. Items run sequentially in their own transaction; a failing
// item is reported and the rest still commit.
func BatchCreate(db *gorm.DB, items []CreateInput) BatchReport {
	report := BatchReport{
		BatchRef: uuid.NewString(),
		Results:  make([]BatchResult, 0, len(items)),
	}

	for i, item := range items {
		item.Status = models.PurchaseReceivedByWarehouse
		item.BatchRef = report.BatchRef

		res := BatchResult{Index: i, InsumoID: item.InsumoID}
		rec, err := Create(db, item)
		if err != nil {
			report.Failed++
			res.Error = batchError(err)
			if apperr.KindOf(err) == apperr.Internal {
				logging.LogError("purchasing", "BatchCreate", report.BatchRef, item.InsumoID, err)
			}
		} else {
			report.Succeeded++
			res.PurchaseRecordID = rec.ID
		}
		report.Results = append(report.Results, res)
	}
	return report
}

func batchError(err error) string {
	if apperr.KindOf(err) == apperr.Internal {
		return "unexpected server error"
	}
	return err.Error()
}

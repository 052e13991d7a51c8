package audit

import (
	"encoding/json"
	"fmt"

	"catering-backend/internal/auth"
	"catering-backend/internal/database"
	"catering-backend/internal/logging"
	"catering-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type LogOptions struct {
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// NewLog builds the row; jsonb columns get "null" rather than an empty string.
func NewLog(opts LogOptions) models.AuditLog {
	beforeStr, afterStr := "null", "null"
	if opts.Before != nil {
		if b, err := json.Marshal(opts.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if opts.After != nil {
		if b, err := json.Marshal(opts.After); err == nil {
			afterStr = string(b)
		}
	}

	return models.AuditLog{
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  beforeStr,
		AfterData:   afterStr,
	}
}

func WriteLogTx(tx *gorm.DB, opts LogOptions) error {
	entry := NewLog(opts)
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("audit log could not be saved: %w", err)
	}
	return nil
}

func WriteLog(opts LogOptions) error {
	return WriteLogTx(database.DB, opts)
}

// Record writes an audit row for the request's user. Failures are logged,
// never returned: the audited change has already been committed.
func Record(c *fiber.Ctx, entityType string, entityID uint, action models.AuditAction, description string, before, after any) {
	userID, userName := auth.Operator(c)
	err := WriteLog(LogOptions{
		UserID:      userID,
		UserName:    userName,
		EntityType:  entityType,
		EntityID:    entityID,
		Action:      action,
		Description: description,
		Before:      before,
		After:       after,
	})
	if err != nil {
		logging.LogError("audit", "Record", entityType, entityID, err)
	}
}

package database

import (
	"os"

	"agency-portal/internal/logger"
	"agency-portal/internal/models"

	"go.uber.org/zap"
)

// helper для записи в журнал аудита
func CreateAuditLog(userID uint, entity string, entityID uint, action, details string) {
	if DB == nil || userID == 0 {
		return
	}
	record := models.AuditLog{
		UserID:   userID,
		Entity:   entity,
		EntityID: entityID,
		Action:   action,
		Details:  details,
	}
	if err := DB.Create(&record).Error; err != nil {
		logger.Log.Warn("failed to write audit log",
			zap.String("entity", entity),
			zap.Uint("entity_id", entityID),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

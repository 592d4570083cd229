package services

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/sjperalta/fintera-lending/internal/models"
	"github.com/sjperalta/fintera-lending/internal/repository"
	"github.com/sjperalta/fintera-lending/pkg/logger"
)

type AuditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// Log records an audit entry. details is stored as JSON. A failed write is
// logged and never fails the caller's operation.
func (s *AuditService) Log(ctx context.Context, userID uint, action, entity string, entityID uint, details any) {
	if s == nil || s.repo == nil {
		return
	}

	payload, err := json.Marshal(details)
	if err != nil {
		payload = []byte("{}")
	}

	entry := &models.AuditLog{
		UserID:   userID,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Details:  string(payload),
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		logger.Warn("Failed to write audit log",
			slog.String("action", action),
			slog.String("entity", entity),
			slog.Any("entity_id", entityID),
			slog.String("error", err.Error()))
	}
}

// History lists the audit entries of one record, newest first
func (s *AuditService) History(ctx context.Context, entity string, entityID uint) ([]models.AuditLog, error) {
	return s.repo.FindByEntity(ctx, entity, entityID)
}

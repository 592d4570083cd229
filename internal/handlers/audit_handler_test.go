package handlers

import (
	"net/http"
	"testing"

	"github.com/sjperalta/fintera-lending/internal/models"
	"github.com/sjperalta/fintera-lending/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditHandler_History(t *testing.T) {
	repo := &mockAuditRepo{entries: []models.AuditLog{
		{ID: 1, UserID: 9, Action: models.AuditActionCreate, Entity: "Loan", EntityID: 1},
		{ID: 2, UserID: 9, Action: models.AuditActionRepayment, Entity: "Loan", EntityID: 1},
		{ID: 3, UserID: 9, Action: models.AuditActionCreate, Entity: "Credit", EntityID: 1},
	}}
	handler := NewAuditHandler(services.NewAuditService(repo))

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantCount  int
	}{
		{"loan history", "/audits/loans/1", http.StatusOK, 2},
		{"credit history", "/audits/credits/1", http.StatusOK, 1},
		{"no entries", "/audits/bad_debts/4", http.StatusOK, 0},
		{"unknown entity", "/audits/users/1", http.StatusNotFound, 0},
		{"bad id", "/audits/loans/x", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, http.MethodGet, "/audits/:entity/:entity_id", tt.target, handler.History, nil)

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Len(t, decodeBody(t, w)["audits"].([]any), tt.wantCount)
			}
		})
	}
}

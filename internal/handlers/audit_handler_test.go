package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"spendsight/internal/models"
	"spendsight/internal/services"
	"spendsight/internal/testutil"
)

func setupAuditRouter(t *testing.T) (services.AuditServicer, *gin.Engine) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	svc := services.NewAuditService(db)
	h := NewAuditHandler(svc)
	r := gin.New()
	r.GET("/audit-logs", h.ListAuditLogs)
	r.GET("/audit-logs/stats", h.GetAuditStats)
	return svc, r
}

func TestAuditHandler_ListAuditLogs(t *testing.T) {
	svc, r := setupAuditRouter(t)
	ctx := context.Background()
	svc.Log(ctx, services.AuditEntry{UserID: "usr_a", Action: models.AuditCreate, ResourceType: models.ResourceTransaction, ResourceID: "txn_1"})
	svc.Log(ctx, services.AuditEntry{UserID: "usr_a", Action: models.AuditDelete, ResourceType: models.ResourceTransaction, ResourceID: "txn_1"})
	svc.Log(ctx, services.AuditEntry{UserID: "usr_b", Action: models.AuditLogin, ResourceType: models.ResourceSession})

	t.Run("lists everything", func(t *testing.T) {
		rec := doRequest(r, "GET", "/audit-logs", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if parseJSON(t, rec)["total_items"].(float64) != 3 {
			t.Errorf("expected 3 entries, got %s", rec.Body.String())
		}
	})

	t.Run("filters by user and action", func(t *testing.T) {
		rec := doRequest(r, "GET", "/audit-logs?user_id=usr_a&action=DELETE", "")

		data := parseJSON(t, rec)["data"].([]interface{})
		if len(data) != 1 || data[0].(map[string]interface{})["action"] != "DELETE" {
			t.Errorf("expected the DELETE entry, got %v", data)
		}
	})

	t.Run("rejects an inverted date range", func(t *testing.T) {
		rec := doRequest(r, "GET", "/audit-logs?start_date=2024-02-01&end_date=2024-01-01", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAuditHandler_GetAuditStats(t *testing.T) {
	svc, r := setupAuditRouter(t)
	ctx := context.Background()
	svc.Log(ctx, services.AuditEntry{UserID: "usr_a", Action: models.AuditCreate, ResourceType: models.ResourceCategory})
	svc.Log(ctx, services.AuditEntry{UserID: "usr_a", Action: models.AuditCreate, ResourceType: models.ResourceCategory})
	svc.Log(ctx, services.AuditEntry{UserID: "usr_b", Action: models.AuditImport, ResourceType: models.ResourceTransaction})

	rec := doRequest(r, "GET", "/audit-logs/stats", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	stats := parseJSON(t, rec)["stats"].(map[string]interface{})
	if stats["total_actions"].(float64) != 3 {
		t.Errorf("expected 3, got %v", stats["total_actions"])
	}
	byType := stats["actions_by_type"].(map[string]interface{})
	if byType["CREATE"].(float64) != 2 || byType["IMPORT"].(float64) != 1 {
		t.Errorf("unexpected breakdown %v", byType)
	}
	byUser := stats["changes_by_user"].(map[string]interface{})
	if byUser["usr_a"].(float64) != 2 {
		t.Errorf("unexpected per-user counts %v", byUser)
	}
}

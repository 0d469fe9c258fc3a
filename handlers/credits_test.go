package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"pnodewatch/config"
	"pnodewatch/models"
	"pnodewatch/services"
)

func testCreditsHandlers(t *testing.T) *CreditsHandlers {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.PodCreditsResponse{
			Status: "success",
			PodsCredits: []models.PodCreditsEntry{
				{PodID: "pubkeyA", Credits: 500},
				{PodID: "pubkeyB", Credits: 100},
			},
		})
	}))
	t.Cleanup(upstream.Close)

	cfg := &config.Config{}
	cfg.Credits.MainnetEndpoint = upstream.URL
	cfg.Credits.Timeout = 2

	cs := services.NewCreditsService(cfg)
	cs.RefreshAll()
	return NewCreditsHandlers(cs)
}

func TestGetAllCredits_ContractShape(t *testing.T) {
	ch := testCreditsHandlers(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/credits?network=mainnet", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := ch.GetAllCredits(c); err != nil {
		t.Fatalf("GetAllCredits failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}

	// Response speaks the upstream contract: {status, pods_credits}
	var resp models.PodCreditsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "success" {
		t.Errorf("status field: got %s", resp.Status)
	}
	if len(resp.PodsCredits) != 2 {
		t.Fatalf("pods_credits: got %d entries, want 2", len(resp.PodsCredits))
	}

	// Sorted by credits descending
	if resp.PodsCredits[0].PodID != "pubkeyA" {
		t.Errorf("first entry: got %s, want pubkeyA", resp.PodsCredits[0].PodID)
	}
}

func TestGetNodeCredits_NotFound(t *testing.T) {
	ch := testCreditsHandlers(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/credits/:pubkey")
	c.SetParamNames("pubkey")
	c.SetParamValues("missing")

	if err := ch.GetNodeCredits(c); err != nil {
		t.Fatalf("GetNodeCredits failed: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rec.Code)
	}
}

func TestGetTopCredits_Limit(t *testing.T) {
	ch := testCreditsHandlers(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/credits/top?network=mainnet&limit=1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := ch.GetTopCredits(c); err != nil {
		t.Fatalf("GetTopCredits failed: %v", err)
	}

	var resp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if count, _ := resp["count"].(float64); count != 1 {
		t.Errorf("count: got %v, want 1", resp["count"])
	}
}

package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"agentceo/internal/model"
	"agentceo/pkg/database"
	"agentceo/pkg/jwtutil"

	"github.com/labstack/echo/v4"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupHandlerTest(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&model.Workspace{},
		&model.User{},
		&model.Business{},
		&model.Contact{},
		&model.Ticket{},
		&model.TicketComment{},
		&model.Agent{},
		&model.AgentTask{},
		&model.TaskExecution{},
		&model.EmailProvider{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	database.DB = db
	return db
}

func authedRequest(t *testing.T, method, path, body string, workspaceID, userID uint) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user", &jwtutil.UserClaims{
		Email:       "tester@example.com",
		UserID:      userID,
		WorkspaceID: workspaceID,
	})
	return c, rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return body
}

func TestCreateTicketAutoLinksOnSingleDomainMatch(t *testing.T) {
	db := setupHandlerTest(t)

	business := model.Business{Name: "Acme AS", Email: "post@acme.no", WorkspaceID: 1, Stage: model.StageCustomer}
	if err := db.Create(&business).Error; err != nil {
		t.Fatalf("failed to seed business: %v", err)
	}

	payload := `{"title":"Printer down","submitter_email":"employee@acme.no"}`
	c, rec := authedRequest(t, http.MethodPost, "/tickets", payload, 1, 10)

	if err := CreateTicket(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["requires_review"] != false {
		t.Errorf("expected requires_review false, got %v", body["requires_review"])
	}

	var ticket model.Ticket
	if err := db.First(&ticket).Error; err != nil {
		t.Fatalf("failed to load created ticket: %v", err)
	}
	if ticket.BusinessID == nil || *ticket.BusinessID != business.ID {
		t.Errorf("expected auto-link to business %d, got %v", business.ID, ticket.BusinessID)
	}
	if ticket.Status != model.TicketOpen {
		t.Errorf("linked ticket should open, got %s", ticket.Status)
	}
}

func TestCreateTicketAmbiguousMatchNeedsReview(t *testing.T) {
	db := setupHandlerTest(t)

	for _, name := range []string{"Acme North", "Acme South"} {
		b := model.Business{Name: name, Email: "post@acme.no", WorkspaceID: 1}
		if err := db.Create(&b).Error; err != nil {
			t.Fatalf("failed to seed business: %v", err)
		}
	}

	payload := `{"title":"Question","submitter_email":"who@acme.no"}`
	c, rec := authedRequest(t, http.MethodPost, "/tickets", payload, 1, 10)

	if err := CreateTicket(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["requires_review"] != true {
		t.Errorf("ambiguous match must require review, got %v", body["requires_review"])
	}
	if body["possible_matches"] == nil {
		t.Error("expected candidate matches in the response")
	}

	var ticket model.Ticket
	if err := db.First(&ticket).Error; err != nil {
		t.Fatalf("failed to load created ticket: %v", err)
	}
	if ticket.BusinessID != nil {
		t.Errorf("ambiguous match must not auto-link, got business %d", *ticket.BusinessID)
	}
	if ticket.Status != model.TicketUnassigned {
		t.Errorf("unlinked ticket should stay unassigned, got %s", ticket.Status)
	}
}

func TestCreateTicketRejectsCrossWorkspaceBusiness(t *testing.T) {
	db := setupHandlerTest(t)

	other := model.Business{Name: "Foreign Corp", WorkspaceID: 2}
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("failed to seed business: %v", err)
	}

	payload := fmt.Sprintf(`{"title":"Sneaky","business_id":%d}`, other.ID)
	c, rec := authedRequest(t, http.MethodPost, "/tickets", payload, 1, 10)

	if err := CreateTicket(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for cross-workspace business, got %d", rec.Code)
	}
}

func TestGetTicketWorkspaceIsolation(t *testing.T) {
	db := setupHandlerTest(t)

	ticket := model.Ticket{Title: "Private", CreatorID: 5, WorkspaceID: 2, Status: model.TicketOpen}
	if err := db.Create(&ticket).Error; err != nil {
		t.Fatalf("failed to seed ticket: %v", err)
	}

	c, rec := authedRequest(t, http.MethodGet, "/tickets/1", "", 1, 10)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprintf("%d", ticket.ID))

	if err := GetTicket(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 across workspaces, got %d", rec.Code)
	}
}

func TestUpdateTicketStatusStampsResolvedAt(t *testing.T) {
	db := setupHandlerTest(t)

	ticket := model.Ticket{Title: "Fix me", CreatorID: 10, WorkspaceID: 1, Status: model.TicketInProgress}
	if err := db.Create(&ticket).Error; err != nil {
		t.Fatalf("failed to seed ticket: %v", err)
	}

	c, rec := authedRequest(t, http.MethodPut, "/tickets/1/status", `{"status":"resolved"}`, 1, 10)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprintf("%d", ticket.ID))

	if err := UpdateTicketStatus(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var reloaded model.Ticket
	if err := db.First(&reloaded, ticket.ID).Error; err != nil {
		t.Fatalf("failed to reload ticket: %v", err)
	}
	if reloaded.Status != model.TicketResolved {
		t.Errorf("expected resolved, got %s", reloaded.Status)
	}
	if reloaded.ResolvedAt == nil {
		t.Error("expected ResolvedAt stamped on first resolution")
	}
}

func TestTicketDistributionBuildsStatusPriorityGrid(t *testing.T) {
	db := setupHandlerTest(t)

	seed := []model.Ticket{
		{Title: "A", CreatorID: 10, WorkspaceID: 1, Status: model.TicketOpen, Priority: model.PriorityLow},
		{Title: "B", CreatorID: 10, WorkspaceID: 1, Status: model.TicketOpen, Priority: model.PriorityUrgent},
		{Title: "C", CreatorID: 10, WorkspaceID: 1, Status: model.TicketResolved, Priority: model.PriorityUrgent},
		{Title: "D", CreatorID: 20, WorkspaceID: 2, Status: model.TicketOpen, Priority: model.PriorityHigh},
	}
	for i := range seed {
		if err := db.Create(&seed[i]).Error; err != nil {
			t.Fatalf("failed to seed ticket: %v", err)
		}
	}

	c, rec := authedRequest(t, http.MethodGet, "/tickets/stats/distribution", "", 1, 10)

	if err := TicketDistribution(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["total_tickets"] != float64(3) {
		t.Errorf("expected 3 workspace tickets, got %v", body["total_tickets"])
	}

	rows, ok := body["distribution"].([]interface{})
	if !ok || len(rows) != 2 {
		t.Fatalf("expected 2 grid rows, got %v", body["distribution"])
	}

	grid := map[string]map[string]interface{}{}
	for _, r := range rows {
		row := r.(map[string]interface{})
		grid[row["status"].(string)] = row
	}

	open := grid["open"]
	if open == nil {
		t.Fatal("expected an open row in the grid")
	}
	if open["low"] != float64(1) || open["urgent"] != float64(1) || open["total"] != float64(2) {
		t.Errorf("open row counts wrong: %v", open)
	}
	if open["high"] != float64(0) {
		t.Errorf("foreign workspace ticket leaked into the grid: %v", open)
	}

	resolved := grid["resolved"]
	if resolved == nil {
		t.Fatal("expected a resolved row in the grid")
	}
	if resolved["urgent"] != float64(1) || resolved["total"] != float64(1) {
		t.Errorf("resolved row counts wrong: %v", resolved)
	}
}

func TestBulkDeleteTicketsSkipsForeignIDs(t *testing.T) {
	db := setupHandlerTest(t)

	mine := model.Ticket{Title: "Mine", CreatorID: 10, WorkspaceID: 1}
	theirs := model.Ticket{Title: "Theirs", CreatorID: 20, WorkspaceID: 2}
	for _, tk := range []*model.Ticket{&mine, &theirs} {
		if err := db.Create(tk).Error; err != nil {
			t.Fatalf("failed to seed ticket: %v", err)
		}
	}

	payload := fmt.Sprintf(`{"ids":[%d,%d]}`, mine.ID, theirs.ID)
	c, rec := authedRequest(t, http.MethodPost, "/tickets/bulk-delete", payload, 1, 10)

	if err := BulkDeleteTickets(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["deleted"] != float64(1) {
		t.Errorf("expected 1 deletion, got %v", body["deleted"])
	}
	skipped, ok := body["skipped"].([]interface{})
	if !ok || len(skipped) != 1 {
		t.Fatalf("expected 1 skipped ID, got %v", body["skipped"])
	}

	var count int64
	db.Model(&model.Ticket{}).Where("workspace_id = ?", 2).Count(&count)
	if count != 1 {
		t.Errorf("foreign ticket must survive, found %d", count)
	}
}

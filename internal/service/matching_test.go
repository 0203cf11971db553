package service

import (
	"fmt"
	"testing"

	"agentceo/internal/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
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
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func createBusiness(t *testing.T, db *gorm.DB, workspaceID uint, name, email, website string) *model.Business {
	t.Helper()

	business := model.Business{
		Name:        name,
		Email:       email,
		Website:     website,
		Stage:       model.StageCustomer,
		WorkspaceID: workspaceID,
	}
	if err := db.Create(&business).Error; err != nil {
		t.Fatalf("failed to create business: %v", err)
	}
	return &business
}

func TestResolveBusinessMatchNoInput(t *testing.T) {
	db := newTestDB(t)

	match, err := ResolveBusinessMatch(db, "", "", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match != nil {
		t.Fatalf("expected nil match for empty input, got %+v", match)
	}
}

func TestResolveBusinessMatchSingleDomainHit(t *testing.T) {
	db := newTestDB(t)

	acme := createBusiness(t, db, 1, "Acme AS", "post@acme.no", "https://acme.no")
	createBusiness(t, db, 1, "Globex", "hello@globex.com", "")

	match, err := ResolveBusinessMatch(db, "someone@acme.no", "", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match == nil {
		t.Fatal("expected a match")
	}
	if match.Confidence != MatchHigh {
		t.Errorf("expected high confidence, got %s", match.Confidence)
	}
	if match.BusinessID == nil || *match.BusinessID != acme.ID {
		t.Errorf("expected business %d, got %v", acme.ID, match.BusinessID)
	}
}

func TestResolveBusinessMatchDomainBeatsName(t *testing.T) {
	db := newTestDB(t)

	acme := createBusiness(t, db, 1, "Acme AS", "post@acme.no", "")
	createBusiness(t, db, 1, "Initech", "contact@initech.io", "")

	// The company name points at a different business, but a single domain
	// hit short-circuits before the name is consulted.
	match, err := ResolveBusinessMatch(db, "boss@acme.no", "Initech", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match == nil || match.Confidence != MatchHigh {
		t.Fatalf("expected high confidence match, got %+v", match)
	}
	if *match.BusinessID != acme.ID {
		t.Errorf("expected domain match %d to win, got %d", acme.ID, *match.BusinessID)
	}
}

func TestResolveBusinessMatchNameOnly(t *testing.T) {
	db := newTestDB(t)

	initech := createBusiness(t, db, 1, "Initech Solutions", "contact@initech.io", "")
	createBusiness(t, db, 1, "Globex", "hello@globex.com", "")

	match, err := ResolveBusinessMatch(db, "person@gmail.com", "initech", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match == nil {
		t.Fatal("expected a match")
	}
	if match.Confidence != MatchMedium {
		t.Errorf("expected medium confidence, got %s", match.Confidence)
	}
	if match.BusinessID == nil || *match.BusinessID != initech.ID {
		t.Errorf("expected business %d, got %v", initech.ID, match.BusinessID)
	}
}

func TestResolveBusinessMatchMultipleDomainHits(t *testing.T) {
	db := newTestDB(t)

	createBusiness(t, db, 1, "Acme North", "north@acme.no", "")
	createBusiness(t, db, 1, "Acme South", "south@acme.no", "")

	match, err := ResolveBusinessMatch(db, "x@acme.no", "", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match == nil {
		t.Fatal("expected a match")
	}
	if match.Confidence != MatchMedium {
		t.Errorf("expected medium confidence for ambiguous domain, got %s", match.Confidence)
	}
	if len(match.Matches) != 2 {
		t.Errorf("expected 2 candidates, got %d", len(match.Matches))
	}
	if match.BusinessID == nil {
		t.Error("expected a suggested business for medium confidence")
	}
}

func TestResolveBusinessMatchDeduplicatesCandidates(t *testing.T) {
	db := newTestDB(t)

	// Matches on both domain and name, plus a second domain-only hit,
	// so the merged candidate list must not repeat the first business.
	createBusiness(t, db, 1, "Acme AS", "post@acme.no", "")
	createBusiness(t, db, 1, "Acme Consulting", "hi@acme.no", "")

	match, err := ResolveBusinessMatch(db, "x@acme.no", "acme", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match == nil {
		t.Fatal("expected a match")
	}
	if len(match.Matches) != 2 {
		t.Errorf("expected 2 deduplicated candidates, got %d", len(match.Matches))
	}
}

func TestResolveBusinessMatchMultipleNameHitsStayLow(t *testing.T) {
	db := newTestDB(t)

	createBusiness(t, db, 1, "Acme North", "north@acmenorth.no", "")
	createBusiness(t, db, 1, "Acme South", "south@acmesouth.no", "")

	// Nothing hits on the domain, and the name is ambiguous: candidates are
	// surfaced at low confidence with no suggested business.
	match, err := ResolveBusinessMatch(db, "someone@gmail.com", "acme", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match == nil {
		t.Fatal("expected candidates for review")
	}
	if match.Confidence != MatchLow {
		t.Errorf("expected low confidence, got %s", match.Confidence)
	}
	if match.BusinessID != nil {
		t.Errorf("low confidence must not suggest a business, got %d", *match.BusinessID)
	}
	if len(match.Matches) != 2 {
		t.Errorf("expected 2 candidates, got %d", len(match.Matches))
	}
}

func TestResolveBusinessMatchWorkspaceIsolation(t *testing.T) {
	db := newTestDB(t)

	createBusiness(t, db, 2, "Acme AS", "post@acme.no", "")

	match, err := ResolveBusinessMatch(db, "someone@acme.no", "Acme", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match != nil {
		t.Fatalf("expected no match across workspaces, got %+v", match)
	}
}

func TestResolveBusinessMatchNoHit(t *testing.T) {
	db := newTestDB(t)

	createBusiness(t, db, 1, "Globex", "hello@globex.com", "")

	match, err := ResolveBusinessMatch(db, "someone@unknown.org", "Nothing Here", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match != nil {
		t.Fatalf("expected no match, got %+v", match)
	}
}

package importer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mkravets/leadsync/app/database"
)

type mockLeadRepository struct {
	leads      []database.Lead
	createErrs map[string]error // keyed by email
	getAllErr  error
}

func newMockLeadRepository() *mockLeadRepository {
	return &mockLeadRepository{createErrs: make(map[string]error)}
}

func (m *mockLeadRepository) GetLead(id string) (*database.Lead, error) { return nil, nil }

func (m *mockLeadRepository) GetLeads(filter database.LeadFilter) ([]database.Lead, error) {
	return m.leads, nil
}

func (m *mockLeadRepository) GetAllLeads() ([]database.Lead, error) {
	if m.getAllErr != nil {
		return nil, m.getAllErr
	}
	return m.leads, nil
}

func (m *mockLeadRepository) GetLeadCount() (int, error) { return len(m.leads), nil }

func (m *mockLeadRepository) GetLeadStats() (*database.LeadStats, error) { return nil, nil }

func (m *mockLeadRepository) CreateLead(lead database.Lead) (string, error) {
	if err, ok := m.createErrs[lead.Email]; ok {
		return "", err
	}
	for _, existing := range m.leads {
		if strings.EqualFold(existing.Email, lead.Email) {
			return "", fmt.Errorf("%w: %s", database.ErrDuplicate, lead.Email)
		}
	}
	lead.ID = fmt.Sprintf("lead-%d", len(m.leads)+1)
	m.leads = append(m.leads, lead)
	return lead.ID, nil
}

func (m *mockLeadRepository) UpdateLead(id string, upd database.LeadUpdate) error { return nil }

func (m *mockLeadRepository) DeleteLead(id string) error { return nil }

type mockSpreadsheetRepository struct {
	sheets          []database.Spreadsheet
	lastSyncedCalls map[string]time.Time
}

func newMockSpreadsheetRepository(sheets ...database.Spreadsheet) *mockSpreadsheetRepository {
	return &mockSpreadsheetRepository{
		sheets:          sheets,
		lastSyncedCalls: make(map[string]time.Time),
	}
}

func (m *mockSpreadsheetRepository) GetSpreadsheet(id string) (*database.Spreadsheet, error) {
	for _, sheet := range m.sheets {
		if sheet.ID == id {
			return &sheet, nil
		}
	}
	return nil, nil
}

func (m *mockSpreadsheetRepository) GetSpreadsheets() ([]database.Spreadsheet, error) {
	return m.sheets, nil
}

func (m *mockSpreadsheetRepository) GetActiveSpreadsheets() ([]database.Spreadsheet, error) {
	var active []database.Spreadsheet
	for _, sheet := range m.sheets {
		if sheet.IsActive {
			active = append(active, sheet)
		}
	}
	return active, nil
}

func (m *mockSpreadsheetRepository) CreateSpreadsheet(sheet database.Spreadsheet) (string, error) {
	return sheet.ID, nil
}

func (m *mockSpreadsheetRepository) UpsertSpreadsheet(sheet database.Spreadsheet) (string, error) {
	return sheet.ID, nil
}

func (m *mockSpreadsheetRepository) UpdateSpreadsheet(id string, upd database.SpreadsheetUpdate) error {
	return nil
}

func (m *mockSpreadsheetRepository) UpdateLastSynced(id string, syncedAt time.Time) error {
	m.lastSyncedCalls[id] = syncedAt
	return nil
}

func (m *mockSpreadsheetRepository) DeleteSpreadsheet(id string) error { return nil }

func csvServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		fmt.Fprint(w, body)
	}))
}

// sheetFor wraps a test server URL so the passthrough matcher accepts it.
func sheetFor(server *httptest.Server, id, name string) database.Spreadsheet {
	return database.Spreadsheet{
		ID:       id,
		Name:     name,
		URL:      server.URL + "/pub?output=csv",
		IsActive: true,
	}
}

func newTestImporter(leadRepo database.LeadRepository, sheetRepo database.SpreadsheetRepository) *Importer {
	return NewImporter(leadRepo, sheetRepo, &http.Client{Timeout: 5 * time.Second}, "LeadSync Test/1.0")
}

func TestSyncSuccess(t *testing.T) {
	var body strings.Builder
	body.WriteString("name,email,phone\n")
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&body, "Lead %d,lead%d@example.com,p:+1555000%04d\n", i, i, i)
	}

	server := csvServer(t, body.String())
	defer server.Close()

	leadRepo := newMockLeadRepository()
	sheetRepo := newMockSpreadsheetRepository()
	im := newTestImporter(leadRepo, sheetRepo)

	result := im.Sync(context.Background(), sheetFor(server, "sheet-1", "Leads"))

	if result.Status != StatusSuccess {
		t.Fatalf("Expected status success, got: %s (errors: %v)", result.Status, result.Errors)
	}
	if result.Success != 10 || result.Failed != 0 || result.Duplicates != 0 {
		t.Errorf("Unexpected counts: %+v", result)
	}
	if len(leadRepo.leads) != 10 {
		t.Errorf("Expected 10 leads created, got: %d", len(leadRepo.leads))
	}

	lead := leadRepo.leads[0]
	if lead.Source != "spreadsheet" {
		t.Errorf("Expected default source 'spreadsheet', got: %q", lead.Source)
	}
	if lead.Status != "new" {
		t.Errorf("Expected status 'new', got: %q", lead.Status)
	}
	if lead.Phone != "15550000000" {
		t.Errorf("Expected cleaned phone, got: %q", lead.Phone)
	}

	if _, ok := sheetRepo.lastSyncedCalls["sheet-1"]; !ok {
		t.Error("Expected last synced to be updated")
	}
	if history := im.History(); len(history) != 1 || history[0].RunID != result.RunID {
		t.Errorf("Expected run recorded in history, got: %+v", history)
	}
}

func TestSyncCrossBatchDuplicates(t *testing.T) {
	body := "name,email,phone\n" +
		"John,J@Example.COM,\n" +
		"Jane,jane@example.com,+15551234567\n"

	server := csvServer(t, body)
	defer server.Close()

	leadRepo := newMockLeadRepository()
	leadRepo.leads = []database.Lead{
		{ID: "existing-1", Email: "j@example.com"},
		{ID: "existing-2", Email: "other@example.com", Phone: "p:+15551234567"},
	}
	sheetRepo := newMockSpreadsheetRepository()
	im := newTestImporter(leadRepo, sheetRepo)

	result := im.Sync(context.Background(), sheetFor(server, "sheet-1", "Leads"))

	if result.Status != StatusAllDuplicates {
		t.Fatalf("Expected status all_duplicates, got: %s", result.Status)
	}
	if result.Duplicates != 2 || result.Success != 0 || result.Failed != 0 {
		t.Errorf("Unexpected counts: %+v", result)
	}
	if len(leadRepo.leads) != 2 {
		t.Errorf("Expected no leads created, got: %d", len(leadRepo.leads))
	}
}

func TestSyncIntraBatchDuplicatesDroppedSilently(t *testing.T) {
	body := "name,email\n" +
		"First,dup@example.com\n" +
		"Second,DUP@example.com\n" +
		"Third,unique@example.com\n"

	server := csvServer(t, body)
	defer server.Close()

	leadRepo := newMockLeadRepository()
	im := newTestImporter(leadRepo, newMockSpreadsheetRepository())

	result := im.Sync(context.Background(), sheetFor(server, "sheet-1", "Leads"))

	if result.Status != StatusSuccess {
		t.Fatalf("Expected status success, got: %s", result.Status)
	}
	// The intra-batch repeat is dropped without counting as a duplicate
	if result.Success != 2 || result.Duplicates != 0 {
		t.Errorf("Unexpected counts: %+v", result)
	}
	if leadRepo.leads[0].Name != "First" {
		t.Errorf("Expected first occurrence kept, got: %s", leadRepo.leads[0].Name)
	}
}

func TestSyncPartial(t *testing.T) {
	body := "name,email\n" +
		"Good,good@example.com\n" +
		",missing-name@example.com\n"

	server := csvServer(t, body)
	defer server.Close()

	im := newTestImporter(newMockLeadRepository(), newMockSpreadsheetRepository())
	result := im.Sync(context.Background(), sheetFor(server, "sheet-1", "Leads"))

	if result.Status != StatusPartial {
		t.Fatalf("Expected status partial, got: %s", result.Status)
	}
	if result.Success != 1 || result.Failed != 1 {
		t.Errorf("Unexpected counts: %+v", result)
	}
	if len(result.Errors) != 1 || result.Errors[0] != "row 3: missing required field: name" {
		t.Errorf("Unexpected errors: %v", result.Errors)
	}
}

func TestSyncNoData(t *testing.T) {
	for _, body := range []string{"", "name,email\n"} {
		server := csvServer(t, body)

		im := newTestImporter(newMockLeadRepository(), newMockSpreadsheetRepository())
		result := im.Sync(context.Background(), sheetFor(server, "sheet-1", "Leads"))

		if result.Status != StatusNoData {
			t.Errorf("Expected status no_data for %q, got: %s", body, result.Status)
		}

		server.Close()
	}
}

func TestSyncHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	sheetRepo := newMockSpreadsheetRepository()
	im := newTestImporter(newMockLeadRepository(), sheetRepo)

	result := im.Sync(context.Background(), sheetFor(server, "sheet-1", "Leads"))

	if result.Status != StatusError {
		t.Fatalf("Expected status error, got: %s", result.Status)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "HTTP error: 500") {
		t.Errorf("Unexpected errors: %v", result.Errors)
	}
	// last_synced is still recorded so the run is visible
	if _, ok := sheetRepo.lastSyncedCalls["sheet-1"]; !ok {
		t.Error("Expected last synced updated even on error")
	}
	if history := im.History(); len(history) != 1 {
		t.Errorf("Expected failed run in history, got: %d entries", len(history))
	}
}

func TestSyncUnresolvableURL(t *testing.T) {
	im := newTestImporter(newMockLeadRepository(), newMockSpreadsheetRepository())

	result := im.Sync(context.Background(), database.Spreadsheet{
		ID:   "sheet-1",
		Name: "Bad URL",
		URL:  "https://example.com/not-a-sheet",
	})

	if result.Status != StatusError {
		t.Fatalf("Expected status error, got: %s", result.Status)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "could not extract a sheet identifier") {
		t.Errorf("Unexpected errors: %v", result.Errors)
	}
}

func TestSyncStoreDuplicateReclassified(t *testing.T) {
	body := "name,email\nJohn,racy@example.com\n"

	server := csvServer(t, body)
	defer server.Close()

	leadRepo := newMockLeadRepository()
	leadRepo.createErrs["racy@example.com"] = errors.New("lead already exists: racy@example.com")
	im := newTestImporter(leadRepo, newMockSpreadsheetRepository())

	result := im.Sync(context.Background(), sheetFor(server, "sheet-1", "Leads"))

	if result.Status != StatusAllDuplicates {
		t.Fatalf("Expected status all_duplicates, got: %s", result.Status)
	}
	if result.Duplicates != 1 || result.Failed != 0 {
		t.Errorf("Unexpected counts: %+v", result)
	}
}

func TestSyncStoreErrorCounted(t *testing.T) {
	body := "name,email\nJohn,broken@example.com\n"

	server := csvServer(t, body)
	defer server.Close()

	leadRepo := newMockLeadRepository()
	leadRepo.createErrs["broken@example.com"] = errors.New("disk I/O error")
	im := newTestImporter(leadRepo, newMockSpreadsheetRepository())

	result := im.Sync(context.Background(), sheetFor(server, "sheet-1", "Leads"))

	if result.Status != StatusError {
		t.Fatalf("Expected status error, got: %s", result.Status)
	}
	if result.Failed != 1 || result.Duplicates != 0 {
		t.Errorf("Unexpected counts: %+v", result)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "disk I/O error") {
		t.Errorf("Unexpected errors: %v", result.Errors)
	}
}

func TestSyncErrorLogCapped(t *testing.T) {
	var body strings.Builder
	body.WriteString("name,email\n")
	for i := 0; i < MaxRunErrors+5; i++ {
		fmt.Fprintf(&body, "No Email %d,\n", i)
	}

	server := csvServer(t, body.String())
	defer server.Close()

	im := newTestImporter(newMockLeadRepository(), newMockSpreadsheetRepository())
	result := im.Sync(context.Background(), sheetFor(server, "sheet-1", "Leads"))

	if result.Failed != MaxRunErrors+5 {
		t.Errorf("Expected all failures counted, got: %d", result.Failed)
	}
	if len(result.Errors) != MaxRunErrors {
		t.Errorf("Expected error log capped at %d, got: %d", MaxRunErrors, len(result.Errors))
	}
}

func TestSyncAllSharesIndexAcrossSheets(t *testing.T) {
	serverA := csvServer(t, "name,email\nShared,shared@example.com\nOnly A,a@example.com\n")
	defer serverA.Close()
	serverB := csvServer(t, "name,email\nShared Again,shared@example.com\nOnly B,b@example.com\n")
	defer serverB.Close()

	leadRepo := newMockLeadRepository()
	sheetRepo := newMockSpreadsheetRepository(
		sheetFor(serverA, "sheet-a", "Sheet A"),
		sheetFor(serverB, "sheet-b", "Sheet B"),
		database.Spreadsheet{ID: "sheet-c", Name: "Inactive", URL: serverA.URL, IsActive: false},
	)
	im := newTestImporter(leadRepo, sheetRepo)

	summary, err := im.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if summary.Sheets != 2 {
		t.Errorf("Expected 2 active sheets synced, got: %d", summary.Sheets)
	}
	if summary.Success != 3 {
		t.Errorf("Expected 3 leads created across sheets, got: %d", summary.Success)
	}
	if summary.Duplicates != 1 {
		t.Errorf("Expected shared email caught once as duplicate, got: %d", summary.Duplicates)
	}
	if len(summary.Results) != 2 {
		t.Fatalf("Expected 2 per-sheet results, got: %d", len(summary.Results))
	}
	if summary.Results[0].Status != StatusSuccess {
		t.Errorf("Expected first sheet success, got: %s", summary.Results[0].Status)
	}
	if summary.Results[1].Status != StatusPartial {
		t.Errorf("Expected second sheet partial, got: %s", summary.Results[1].Status)
	}
	if len(leadRepo.leads) != 3 {
		t.Errorf("Expected 3 leads in store, got: %d", len(leadRepo.leads))
	}
}

func TestSyncSkippedWhileInFlight(t *testing.T) {
	server := csvServer(t, "name,email\nJohn,john@example.com\n")
	defer server.Close()

	im := newTestImporter(newMockLeadRepository(), newMockSpreadsheetRepository())
	sheet := sheetFor(server, "sheet-1", "Leads")

	if !im.begin(sheet.ID) {
		t.Fatal("Expected to acquire the in-flight slot")
	}
	defer im.end(sheet.ID)

	result := im.Sync(context.Background(), sheet)

	if result.Status != StatusSkipped {
		t.Fatalf("Expected status skipped, got: %s", result.Status)
	}
	if len(im.History()) != 0 {
		t.Error("Expected skipped run not recorded in history")
	}
}

func TestImportUploadCSV(t *testing.T) {
	leadRepo := newMockLeadRepository()
	im := newTestImporter(leadRepo, newMockSpreadsheetRepository())

	file := strings.NewReader("name,email\nJohn,john@example.com\n")
	result, err := im.ImportUpload("leads.csv", file)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.SpreadsheetID != "upload" || result.SpreadsheetName != "leads.csv" {
		t.Errorf("Unexpected result identity: %+v", result)
	}
	if result.Status != StatusSuccess || result.Success != 1 {
		t.Errorf("Unexpected counts: %+v", result)
	}
	if len(im.History()) != 1 {
		t.Error("Expected upload run recorded in history")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		success, failed, dups int
		expected              Status
	}{
		{0, 0, 0, StatusNoData},
		{5, 0, 0, StatusSuccess},
		{0, 0, 3, StatusAllDuplicates},
		{2, 1, 0, StatusPartial},
		{2, 0, 3, StatusPartial},
		{0, 2, 0, StatusError},
		{0, 2, 1, StatusError},
	}

	for _, tt := range tests {
		result := &Result{Success: tt.success, Failed: tt.failed, Duplicates: tt.dups}
		if got := classify(result); got != tt.expected {
			t.Errorf("classify(success=%d failed=%d dups=%d) = %s, expected %s",
				tt.success, tt.failed, tt.dups, got, tt.expected)
		}
	}
}

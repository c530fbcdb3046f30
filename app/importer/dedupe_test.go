package importer

import (
	"testing"

	"github.com/mkravets/leadsync/app/database"
)

func TestDedupeRowsFirstOccurrenceWins(t *testing.T) {
	rows := []Row{
		{Name: "First", Email: "a@example.com", Phone: "111"},
		{Name: "Second", Email: "a@example.com", Phone: "222"},
		{Name: "Third", Email: "b@example.com", Phone: "111"},
		{Name: "Fourth", Email: "c@example.com", Phone: "333"},
	}

	deduped := DedupeRows(rows)

	if len(deduped) != 2 {
		t.Fatalf("Expected 2 rows after dedupe, got: %d", len(deduped))
	}
	if deduped[0].Name != "First" {
		t.Errorf("Expected first occurrence kept, got: %s", deduped[0].Name)
	}
	if deduped[1].Name != "Fourth" {
		t.Errorf("Expected 'Fourth' kept, got: %s", deduped[1].Name)
	}
}

func TestDedupeRowsEmptyPhonesNeverCollide(t *testing.T) {
	rows := []Row{
		{Name: "A", Email: "a@example.com", Phone: ""},
		{Name: "B", Email: "b@example.com", Phone: ""},
		{Name: "C", Email: "c@example.com", Phone: ""},
	}

	if deduped := DedupeRows(rows); len(deduped) != 3 {
		t.Errorf("Expected all 3 rows kept, got: %d", len(deduped))
	}
}

func TestLeadIndexEmailCaseInsensitive(t *testing.T) {
	index := NewLeadIndex()
	index.Add("J@X.com", "")

	if !index.HasEmail("j@x.com") {
		t.Error("Expected lowercase lookup to match")
	}
	if !index.HasEmail("J@X.COM") {
		t.Error("Expected uppercase lookup to match")
	}
	if index.HasEmail("other@x.com") {
		t.Error("Expected unknown email to miss")
	}
}

func TestLeadIndexPhone(t *testing.T) {
	index := NewLeadIndex()
	index.Add("a@example.com", "15551234567")

	if !index.HasPhone("15551234567") {
		t.Error("Expected phone to match")
	}
	if index.HasPhone("") {
		t.Error("Expected empty phone to miss")
	}
}

func TestBuildLeadIndex(t *testing.T) {
	leads := []database.Lead{
		{Email: "A@Example.com", Phone: "+15551234567"},
		{Email: "b@example.com", Mobile: "p:+15557654321"},
	}

	index := BuildLeadIndex(leads)

	if !index.HasEmail("a@example.com") {
		t.Error("Expected email from phone column lead")
	}
	if !index.HasPhone("15551234567") {
		t.Error("Expected cleaned phone from phone column")
	}
	if !index.HasPhone("15557654321") {
		t.Error("Expected cleaned phone from legacy mobile column")
	}
}

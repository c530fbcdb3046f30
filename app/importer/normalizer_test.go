package importer

import (
	"testing"
)

func TestCleanPhone(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"p:+15551234567", "15551234567"},
		{"P:+15551234567", "15551234567"},
		{"p:15551234567", "15551234567"},
		{"p+15551234567", "15551234567"},
		{"+15551234567", "15551234567"},
		{"15551234567", "15551234567"},
		{"  +15551234567  ", "15551234567"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := CleanPhone(tt.input); got != tt.expected {
			t.Errorf("CleanPhone(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestNormalizerHeaderSynonyms(t *testing.T) {
	records := [][]string{
		{"Full Name", "Email Address", "Phone Number", "Location", "Comments", "Source Page", "Selected Plan"},
		{"John Doe", "John@Example.com", "p:+15551234567", "germany", "Interested", "landing", "premium"},
	}

	rows, rowErrs := NewNormalizer().Run(records)

	if len(rowErrs) != 0 {
		t.Fatalf("Expected no row errors, got: %v", rowErrs)
	}
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got: %d", len(rows))
	}

	row := rows[0]
	if row.Name != "John Doe" {
		t.Errorf("Expected name 'John Doe', got: %q", row.Name)
	}
	if row.Email != "john@example.com" {
		t.Errorf("Expected lowercased email, got: %q", row.Email)
	}
	if row.Phone != "15551234567" {
		t.Errorf("Expected cleaned phone, got: %q", row.Phone)
	}
	if row.Country != "Germany" {
		t.Errorf("Expected title-cased country, got: %q", row.Country)
	}
	if row.Message != "Interested" {
		t.Errorf("Expected message mapped from Comments, got: %q", row.Message)
	}
	if row.Source != "landing" {
		t.Errorf("Expected source mapped from Source Page, got: %q", row.Source)
	}
	if row.Plan != "premium" {
		t.Errorf("Expected plan mapped from Selected Plan, got: %q", row.Plan)
	}
}

func TestNormalizerUnknownHeadersIgnored(t *testing.T) {
	records := [][]string{
		{"name", "email", "favorite color"},
		{"Jane", "jane@example.com", "blue"},
	}

	rows, rowErrs := NewNormalizer().Run(records)

	if len(rowErrs) != 0 {
		t.Fatalf("Expected no row errors, got: %v", rowErrs)
	}
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got: %d", len(rows))
	}
	if rows[0].Name != "Jane" || rows[0].Email != "jane@example.com" {
		t.Errorf("Unexpected row: %+v", rows[0])
	}
}

func TestNormalizerMissingRequiredFields(t *testing.T) {
	records := [][]string{
		{"name", "email"},
		{"", "noname@example.com"},
		{"No Email", ""},
		{"", ""},
		{"Good Row", "good@example.com"},
	}

	rows, rowErrs := NewNormalizer().Run(records)

	if len(rows) != 1 {
		t.Fatalf("Expected 1 valid row, got: %d", len(rows))
	}
	if len(rowErrs) != 3 {
		t.Fatalf("Expected 3 row errors, got: %d", len(rowErrs))
	}

	// Row numbers are 1-based and count the header row
	if rowErrs[0].Index != 2 || rowErrs[0].Reason != "missing required field: name" {
		t.Errorf("Unexpected first error: %+v", rowErrs[0])
	}
	if rowErrs[1].Index != 3 || rowErrs[1].Reason != "missing required field: email" {
		t.Errorf("Unexpected second error: %+v", rowErrs[1])
	}
	if rowErrs[2].Index != 4 || rowErrs[2].Reason != "missing required field: name, email" {
		t.Errorf("Unexpected third error: %+v", rowErrs[2])
	}

	if rowErrs[0].Error() != "row 2: missing required field: name" {
		t.Errorf("Unexpected error string: %s", rowErrs[0].Error())
	}
}

func TestNormalizerCountryCasing(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"germany", "Germany"},
		{"united states", "United States"},
		{"Germany", "Germany"},
		{"USA", "USA"},
		{"", ""},
	}

	n := NewNormalizer()
	for _, tt := range tests {
		if got := n.normalizeCountry(tt.input); got != tt.expected {
			t.Errorf("normalizeCountry(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestNormalizerShortRecords(t *testing.T) {
	// Data rows shorter than the header must not panic
	records := [][]string{
		{"name", "email", "phone"},
		{"Jane", "jane@example.com"},
	}

	rows, rowErrs := NewNormalizer().Run(records)

	if len(rowErrs) != 0 {
		t.Fatalf("Expected no row errors, got: %v", rowErrs)
	}
	if len(rows) != 1 || rows[0].Phone != "" {
		t.Errorf("Unexpected rows: %+v", rows)
	}
}

func TestNormalizerEmptyInput(t *testing.T) {
	rows, rowErrs := NewNormalizer().Run(nil)
	if rows != nil || rowErrs != nil {
		t.Errorf("Expected nil results for nil input, got: %v, %v", rows, rowErrs)
	}
}

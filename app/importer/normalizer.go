package importer

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// headerSynonyms maps lowercased sheet header names to canonical lead fields.
// Headers outside this table are ignored.
var headerSynonyms = map[string]string{
	"name":             "name",
	"full name":        "name",
	"contact name":     "name",
	"customer name":    "name",
	"email":            "email",
	"email address":    "email",
	"customer email":   "email",
	"phone":            "phone",
	"phone number":     "phone",
	"mobile":           "phone",
	"contact number":   "phone",
	"country":          "country",
	"location":         "country",
	"customer country": "country",
	"message":          "message",
	"comments":         "message",
	"notes":            "message",
	"source":           "source",
	"source page":      "source",
	"page":             "source",
	"plan":             "plan",
	"selected plan":    "plan",
	"package":          "plan",
}

// Leading artifacts commonly exported by sheet phone columns: a literal "p"
// optionally followed by ":" and/or "+", or a bare "+".
var phonePrefixRe = regexp.MustCompile(`^[pP][:+]*|^\+`)

// CleanPhone strips sheet-export prefix artifacts from a phone value,
// e.g. "p:+15551234567" becomes "15551234567".
func CleanPhone(phone string) string {
	phone = strings.TrimSpace(phone)
	phone = phonePrefixRe.ReplaceAllString(phone, "")
	return strings.TrimSpace(phone)
}

type Normalizer struct {
	countryCaser cases.Caser
}

func NewNormalizer() *Normalizer {
	return &Normalizer{
		countryCaser: cases.Title(language.English),
	}
}

// Run maps parsed records onto canonical rows using the header record.
// Rows lacking a name or an email are returned as RowErrors, indexed by
// their spreadsheet row number, so callers can count them as failures.
func (n *Normalizer) Run(records [][]string) ([]Row, []RowError) {
	if len(records) == 0 {
		return nil, nil
	}

	columns := make(map[int]string)
	for i, header := range records[0] {
		if field, ok := headerSynonyms[strings.ToLower(strings.TrimSpace(header))]; ok {
			columns[i] = field
		}
	}

	var rows []Row
	var rowErrs []RowError

	for i, record := range records[1:] {
		rowNum := i + 2 // 1-based, counting the header row

		var row Row
		for col, value := range record {
			value = strings.TrimSpace(value)
			switch columns[col] {
			case "name":
				row.Name = value
			case "email":
				row.Email = strings.ToLower(value)
			case "phone":
				row.Phone = CleanPhone(value)
			case "country":
				row.Country = n.normalizeCountry(value)
			case "message":
				row.Message = value
			case "source":
				row.Source = value
			case "plan":
				row.Plan = value
			}
		}

		var missing []string
		if row.Name == "" {
			missing = append(missing, "name")
		}
		if row.Email == "" {
			missing = append(missing, "email")
		}
		if len(missing) > 0 {
			rowErrs = append(rowErrs, RowError{
				Index:  rowNum,
				Reason: "missing required field: " + strings.Join(missing, ", "),
			})
			continue
		}

		rows = append(rows, row)
	}

	return rows, rowErrs
}

// normalizeCountry title-cases all-lowercase country values ("germany" ->
// "Germany") and leaves anything with existing casing untouched.
func (n *Normalizer) normalizeCountry(country string) string {
	if country != "" && country == strings.ToLower(country) {
		return n.countryCaser.String(country)
	}
	return country
}

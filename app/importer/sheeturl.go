package importer

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoSheetID is returned when no matcher can extract a sheet identifier.
var ErrNoSheetID = errors.New("could not extract a sheet identifier from URL")

var (
	publishedRe = regexp.MustCompile(`/spreadsheets/d/e/([a-zA-Z0-9_-]+)`)
	documentRe  = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`)
	legacyIDRe  = regexp.MustCompile(`[?&]id=([a-zA-Z0-9_-]+)`)
	gidRe       = regexp.MustCompile(`[?&#]gid=(\d+)`)
)

// csvURLMatchers are tried in order; the first one that produces a fetchable
// CSV URL wins.
var csvURLMatchers = []func(rawURL string) (string, bool){
	// Already a CSV export URL, pass through untouched.
	func(rawURL string) (string, bool) {
		if strings.Contains(rawURL, "output=csv") || strings.Contains(rawURL, "export?format=csv") {
			return rawURL, true
		}
		return "", false
	},
	// Published sheet: /spreadsheets/d/e/<id>
	func(rawURL string) (string, bool) {
		m := publishedRe.FindStringSubmatch(rawURL)
		if m == nil {
			return "", false
		}
		csvURL := fmt.Sprintf("https://docs.google.com/spreadsheets/d/e/%s/pub?output=csv", m[1])
		if gid, ok := extractGID(rawURL); ok {
			csvURL += "&single=true&gid=" + gid
		}
		return csvURL, true
	},
	// Regular document: /spreadsheets/d/<id>
	func(rawURL string) (string, bool) {
		m := documentRe.FindStringSubmatch(rawURL)
		if m == nil {
			return "", false
		}
		csvURL := fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/export?format=csv", m[1])
		if gid, ok := extractGID(rawURL); ok {
			csvURL += "&gid=" + gid
		}
		return csvURL, true
	},
	// Legacy query form: ?id=<id>
	func(rawURL string) (string, bool) {
		m := legacyIDRe.FindStringSubmatch(rawURL)
		if m == nil {
			return "", false
		}
		return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/export?format=csv", m[1]), true
	},
}

// ResolveCSVURL converts a spreadsheet URL into its CSV export form.
func ResolveCSVURL(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	for _, match := range csvURLMatchers {
		if csvURL, ok := match(rawURL); ok {
			return csvURL, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoSheetID, rawURL)
}

func extractGID(rawURL string) (string, bool) {
	if m := gidRe.FindStringSubmatch(rawURL); m != nil {
		return m[1], true
	}
	return "", false
}

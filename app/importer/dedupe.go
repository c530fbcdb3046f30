package importer

import (
	"cmp"
	"strings"

	"github.com/mkravets/leadsync/app/database"
)

// DedupeRows drops rows whose email or non-empty phone appeared earlier in
// the same batch. First occurrence wins.
func DedupeRows(rows []Row) []Row {
	seenEmails := make(map[string]struct{}, len(rows))
	seenPhones := make(map[string]struct{}, len(rows))

	deduped := make([]Row, 0, len(rows))
	for _, row := range rows {
		if _, ok := seenEmails[row.Email]; ok {
			continue
		}
		if row.Phone != "" {
			if _, ok := seenPhones[row.Phone]; ok {
				continue
			}
		}

		seenEmails[row.Email] = struct{}{}
		if row.Phone != "" {
			seenPhones[row.Phone] = struct{}{}
		}
		deduped = append(deduped, row)
	}

	return deduped
}

// LeadIndex holds the normalized emails and phones already present in the
// lead store. It is built once per run and mutated as leads are created, so
// a sync-all pass never creates the same lead twice across spreadsheets.
type LeadIndex struct {
	emails map[string]struct{}
	phones map[string]struct{}
}

func NewLeadIndex() *LeadIndex {
	return &LeadIndex{
		emails: make(map[string]struct{}),
		phones: make(map[string]struct{}),
	}
}

func BuildLeadIndex(leads []database.Lead) *LeadIndex {
	index := NewLeadIndex()
	for _, lead := range leads {
		phone := CleanPhone(cmp.Or(lead.Phone, lead.Mobile))
		index.Add(lead.Email, phone)
	}
	return index
}

func (ix *LeadIndex) Add(email, phone string) {
	if email != "" {
		ix.emails[strings.ToLower(email)] = struct{}{}
	}
	if phone != "" {
		ix.phones[phone] = struct{}{}
	}
}

func (ix *LeadIndex) HasEmail(email string) bool {
	_, ok := ix.emails[strings.ToLower(email)]
	return ok
}

func (ix *LeadIndex) HasPhone(phone string) bool {
	_, ok := ix.phones[phone]
	return ok
}

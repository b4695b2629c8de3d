// internal/service/csv.go
package service

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	appErrors "github.com/unclebandit/recall-outreach/internal/errors"
	"github.com/unclebandit/recall-outreach/internal/model"
)

var requiredColumns = []string{
	"phone", "first_name", "last_name", "vin", "year", "make", "model",
	"recall_code", "recall_desc", "language", "priority",
}

// ContactRecord is one validated CSV row: the contact to store plus every
// raw column, which templates may reference.
type ContactRecord struct {
	Contact *model.Contact
	Fields  map[string]string
}

// ParseContacts reads a header-led CSV of recall customers. Any missing
// column, empty required value, non-numeric year or repeated phone fails
// the whole file.
func ParseContacts(r io.Reader) ([]ContactRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: file is empty", appErrors.ErrInvalidCSV)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErrors.ErrInvalidCSV, err)
	}

	columns := make([]string, len(header))
	present := make(map[string]bool, len(header))
	for i, h := range header {
		columns[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		present[columns[i]] = true
	}
	for _, c := range requiredColumns {
		if !present[c] {
			return nil, fmt.Errorf("%w: missing column %q", appErrors.ErrInvalidCSV, c)
		}
	}

	var records []ContactRecord
	seen := make(map[string]int)
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", appErrors.ErrInvalidCSV, err)
		}

		fields := make(map[string]string, len(columns))
		for i, v := range row {
			if i < len(columns) {
				fields[columns[i]] = strings.TrimSpace(v)
			}
		}

		rec, err := toRecord(fields)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", appErrors.ErrInvalidCSV, line, err)
		}
		if first, dup := seen[rec.Contact.Phone]; dup {
			return nil, fmt.Errorf("%w: row %d: phone %s already listed on row %d", appErrors.ErrInvalidCSV, line, rec.Contact.Phone, first)
		}
		seen[rec.Contact.Phone] = line
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no contacts", appErrors.ErrInvalidCSV)
	}
	return records, nil
}

func toRecord(fields map[string]string) (ContactRecord, error) {
	for _, c := range requiredColumns {
		if fields[c] == "" {
			return ContactRecord{}, fmt.Errorf("%s is required", c)
		}
	}

	year, err := strconv.Atoi(fields["year"])
	if err != nil {
		return ContactRecord{}, fmt.Errorf("year %q is not a number", fields["year"])
	}

	return ContactRecord{
		Contact: &model.Contact{
			Phone:      fields["phone"],
			FirstName:  fields["first_name"],
			LastName:   fields["last_name"],
			VIN:        fields["vin"],
			Year:       year,
			Make:       fields["make"],
			Model:      fields["model"],
			RecallCode: fields["recall_code"],
			RecallDesc: fields["recall_desc"],
			Language:   fields["language"],
		},
		Fields: fields,
	}, nil
}

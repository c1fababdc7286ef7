package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// companyColumnNames are the header names recognized as the company column,
// in preference order.
var companyColumnNames = []string{
	"company_name", "Company", "company", "CompanyName", "name", "Name",
}

// LoadCompanyList reads company names from a CSV file. The company column is
// found by matching known header names; when none matches, the first column
// is used. Empty values are skipped.
func LoadCompanyList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open company list: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse company list %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("company list %s is empty", path)
	}

	header := records[0]
	col := companyColumn(header)

	var companies []string
	for _, row := range records[1:] {
		if col >= len(row) {
			continue
		}
		name := strings.TrimSpace(row[col])
		if name == "" {
			continue
		}
		companies = append(companies, name)
	}
	return companies, nil
}

// companyColumn returns the index of the company column in the header,
// falling back to the first column.
func companyColumn(header []string) int {
	for _, want := range companyColumnNames {
		for i, got := range header {
			if strings.TrimSpace(got) == want {
				return i
			}
		}
	}
	return 0
}

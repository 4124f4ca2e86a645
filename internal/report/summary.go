package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"
)

// Result is the subset of the Allure result JSON schema the summary
// needs. One *-result.json file is written per executed test.
type Result struct {
	Name     string `json:"name"`
	FullName string `json:"fullName"`
	Status   string `json:"status"`
	Start    int64  `json:"start"`
	Stop     int64  `json:"stop"`
}

func (r Result) duration() time.Duration {
	if r.Stop <= r.Start {
		return 0
	}
	return time.Duration(r.Stop-r.Start) * time.Millisecond
}

// ReadResults loads every *-result.json file in dir.
func ReadResults(dir string) ([]Result, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*-result.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list results in %s: %w", dir, err)
	}
	sort.Strings(matches)

	results := make([]Result, 0, len(matches))
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		var r Result
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		results = append(results, r)
	}
	return results, nil
}

// WriteSummary writes an XLSX workbook with a status breakdown and a
// per-test sheet, built from the raw Allure results in resultsDir.
func WriteSummary(resultsDir, path string) error {
	results, err := ReadResults(resultsDir)
	if err != nil {
		return err
	}

	counts := map[string]int{}
	for _, r := range results {
		counts[r.Status]++
	}

	f := excelize.NewFile()
	defer f.Close()

	const summarySheet = "Summary"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	cells := [][]any{
		{"Status", "Count"},
		{"passed", counts["passed"]},
		{"failed", counts["failed"]},
		{"broken", counts["broken"]},
		{"skipped", counts["skipped"]},
		{"total", len(results)},
	}
	for i, row := range cells {
		for j, v := range row {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+1)
			if err := f.SetCellValue(summarySheet, cell, v); err != nil {
				return fmt.Errorf("failed to write summary cell %s: %w", cell, err)
			}
		}
	}

	const testsSheet = "Tests"
	if _, err := f.NewSheet(testsSheet); err != nil {
		return fmt.Errorf("failed to create tests sheet: %w", err)
	}
	header := []any{"Test", "Status", "Duration"}
	for j, v := range header {
		cell, _ := excelize.CoordinatesToCellName(j+1, 1)
		if err := f.SetCellValue(testsSheet, cell, v); err != nil {
			return fmt.Errorf("failed to write tests header: %w", err)
		}
	}
	for i, r := range results {
		name := r.FullName
		if name == "" {
			name = r.Name
		}
		row := []any{name, r.Status, r.duration().String()}
		for j, v := range row {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			if err := f.SetCellValue(testsSheet, cell, v); err != nil {
				return fmt.Errorf("failed to write tests row %d: %w", i+2, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save summary workbook %s: %w", path, err)
	}
	return nil
}

// Package store persists the canonical project records. The system of record
// is an Excel workbook — the office's monitoring spreadsheet — with POW
// records and the engineers directory in sidecar JSON files next to it.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/xuri/excelize/v2"

	"sitewatch/api/internal/contract"
)

// ErrNotFound is returned when no row matches the requested contract ID.
var ErrNotFound = errors.New("project not found")

const sheetName = "Projects"

// headerRow is the 1-based worksheet row holding the column headers. Rows 1-2
// are title rows in the office template; data starts on row 4.
const headerRow = 3

// WorkbookStore reads and writes the monitoring workbook. All operations
// rewrite the sheet whole; the workbook is small (hundreds of rows) and the
// office treats it as a document, not a database.
type WorkbookStore struct {
	path string
	mu   sync.Mutex
}

func NewWorkbookStore(path string) (*WorkbookStore, error) {
	s := &WorkbookStore{path: path}
	if err := s.ensure(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the workbook location, for status reporting.
func (s *WorkbookStore) Path() string {
	return s.path
}

func (s *WorkbookStore) ensure() error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create workbook dir: %w", err)
	}
	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName(f.GetSheetName(0), sheetName)
	if err := writeHeaderRow(f); err != nil {
		return err
	}
	if err := f.SaveAs(s.path); err != nil {
		return fmt.Errorf("create workbook: %w", err)
	}
	return nil
}

func writeHeaderRow(f *excelize.File) error {
	cell, err := excelize.CoordinatesToCellName(1, headerRow)
	if err != nil {
		return err
	}
	row := make([]any, len(Headers))
	for i, h := range Headers {
		row[i] = h
	}
	if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
		return fmt.Errorf("write header row: %w", err)
	}
	return nil
}

// List returns every project row in sheet order. Rows with neither a contract
// ID nor a description are skipped, matching how the dashboard reads the
// sheet.
func (s *WorkbookStore) List() ([]contract.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked()
}

func (s *WorkbookStore) listLocked() ([]contract.Project, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}
	if len(rows) <= headerRow {
		return []contract.Project{}, nil
	}

	header := rows[headerRow-1]
	projects := make([]contract.Project, 0, len(rows)-headerRow)
	for _, raw := range rows[headerRow:] {
		record := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(raw) {
				record[name] = raw[i]
			} else {
				record[name] = ""
			}
		}
		project := projectFromRecord(record)
		if project.ContractID == "" && project.Description == "" {
			continue
		}
		projects = append(projects, project)
	}
	return projects, nil
}

// ListRows returns every row keyed by the literal header strings, the shape
// the dashboard reads from get-projects.
func (s *WorkbookStore) ListRows() ([]map[string]string, error) {
	projects, err := s.List()
	if err != nil {
		return nil, err
	}
	rows := make([]map[string]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, recordFromProject(p))
	}
	return rows, nil
}

// Get returns the project whose normalized contract ID matches id.
func (s *WorkbookStore) Get(id string) (contract.Project, error) {
	target := contract.NormalizeID(id)
	if target == "" {
		return contract.Project{}, ErrNotFound
	}
	projects, err := s.List()
	if err != nil {
		return contract.Project{}, err
	}
	for _, p := range projects {
		if contract.NormalizeID(p.ContractID) == target {
			return p, nil
		}
	}
	return contract.Project{}, ErrNotFound
}

// Save inserts the project, or replaces the existing row with the same
// normalized contract ID. The admin edit path replaces the base record
// outright; overrides layered on the old record are the caller's business to
// clear.
func (s *WorkbookStore) Save(p contract.Project) error {
	if contract.NormalizeID(p.ContractID) == "" {
		return errors.New("contract ID is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.listLocked()
	if err != nil {
		return err
	}
	target := contract.NormalizeID(p.ContractID)
	replaced := false
	for i, existing := range projects {
		if contract.NormalizeID(existing.ContractID) == target {
			projects[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		projects = append(projects, p)
	}
	return s.rewriteLocked(projects)
}

// Update applies a partial mutation to the row matching id and returns the
// updated project. The apply callback sees the current row and edits it in
// place; fields it leaves alone keep their stored values.
func (s *WorkbookStore) Update(id string, apply func(*contract.Project)) (contract.Project, error) {
	target := contract.NormalizeID(id)
	if target == "" {
		return contract.Project{}, ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.listLocked()
	if err != nil {
		return contract.Project{}, err
	}
	for i := range projects {
		if contract.NormalizeID(projects[i].ContractID) != target {
			continue
		}
		apply(&projects[i])
		if err := s.rewriteLocked(projects); err != nil {
			return contract.Project{}, err
		}
		return projects[i], nil
	}
	return contract.Project{}, ErrNotFound
}

// Delete removes the row matching id.
func (s *WorkbookStore) Delete(id string) error {
	target := contract.NormalizeID(id)
	if target == "" {
		return ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.listLocked()
	if err != nil {
		return err
	}
	kept := projects[:0]
	for _, p := range projects {
		if contract.NormalizeID(p.ContractID) != target {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(projects) {
		return ErrNotFound
	}
	return s.rewriteLocked(kept)
}

func (s *WorkbookStore) rewriteLocked(projects []contract.Project) error {
	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName(f.GetSheetName(0), sheetName)
	if err := writeHeaderRow(f); err != nil {
		return err
	}
	for i, p := range projects {
		cell, err := excelize.CoordinatesToCellName(1, headerRow+1+i)
		if err != nil {
			return err
		}
		record := recordFromProject(p)
		row := make([]any, len(Headers))
		for col, name := range Headers {
			row[col] = record[name]
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	if err := f.SaveAs(s.path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

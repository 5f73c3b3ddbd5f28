package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"sitewatch/api/internal/contract"
	"sitewatch/api/internal/pow"
)

// SidecarStore keeps the data that lives next to the workbook rather than in
// it: POW records per contract and the engineers directory. Both are small
// JSON files rewritten whole, like the workbook itself.
type SidecarStore struct {
	powPath       string
	engineersPath string
	mu            sync.Mutex
}

func NewSidecarStore(dataDir string) (*SidecarStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &SidecarStore{
		powPath:       filepath.Join(dataDir, "pow-records.json"),
		engineersPath: filepath.Join(dataDir, "engineers.json"),
	}, nil
}

func readJSONFile[T any](path string, fallback T) T {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fallback
	}
	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		return fallback
	}
	return value
}

func writeJSONFile(path string, value any) error {
	encoded, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, encoded, 0o644)
}

// GetPow returns the stored POW record for a contract. An unknown contract
// reads as an empty record, not an error.
func (s *SidecarStore) GetPow(id string) pow.Record {
	key := contract.NormalizeID(id)
	if key == "" {
		return pow.Record{ProgramWorks: []pow.Item{}, VariationOrders: [][]pow.Item{}}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	records := readJSONFile(s.powPath, map[string]pow.Record{})
	record, ok := records[key]
	if !ok {
		return pow.Record{ProgramWorks: []pow.Item{}, VariationOrders: [][]pow.Item{}}
	}
	return record.Normalize()
}

// SetPow replaces the POW record for a contract, stamping UpdatedAt.
func (s *SidecarStore) SetPow(id string, record pow.Record) (pow.Record, error) {
	key := contract.NormalizeID(id)
	if key == "" {
		return pow.Record{}, fmt.Errorf("missing contract ID")
	}
	next := record.Normalize()
	next.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	s.mu.Lock()
	defer s.mu.Unlock()
	records := readJSONFile(s.powPath, map[string]pow.Record{})
	records[key] = next
	if err := writeJSONFile(s.powPath, records); err != nil {
		return pow.Record{}, fmt.Errorf("save pow records: %w", err)
	}
	return next, nil
}

// DeletePow drops the POW record for a contract, reporting whether one
// existed. Called when the base project row is deleted.
func (s *SidecarStore) DeletePow(id string) bool {
	key := contract.NormalizeID(id)
	if key == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	records := readJSONFile(s.powPath, map[string]pow.Record{})
	if _, ok := records[key]; !ok {
		return false
	}
	delete(records, key)
	_ = writeJSONFile(s.powPath, records)
	return true
}

// Engineer is one entry of the personnel directory.
type Engineer struct {
	Name          string `json:"name"`
	Role          string `json:"role"`
	Phone         string `json:"phone"`
	Facebook      string `json:"facebook"`
	Accreditation string `json:"accreditation"`
}

func normalizeEngineer(e Engineer) Engineer {
	return Engineer{
		Name:          strings.TrimSpace(e.Name),
		Role:          strings.TrimSpace(e.Role),
		Phone:         strings.TrimSpace(e.Phone),
		Facebook:      strings.TrimSpace(e.Facebook),
		Accreditation: strings.TrimSpace(e.Accreditation),
	}
}

// ListEngineers returns the directory, dropping nameless entries.
func (s *SidecarStore) ListEngineers() []Engineer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listEngineersLocked()
}

func (s *SidecarStore) listEngineersLocked() []Engineer {
	raw := readJSONFile(s.engineersPath, []Engineer{})
	out := make([]Engineer, 0, len(raw))
	for _, e := range raw {
		if normalized := normalizeEngineer(e); normalized.Name != "" {
			out = append(out, normalized)
		}
	}
	return out
}

// UpsertEngineer adds an entry or updates the one matching name and role.
// An existing entry keeps its stored name casing.
func (s *SidecarStore) UpsertEngineer(e Engineer) ([]Engineer, error) {
	entry := normalizeEngineer(e)
	if entry.Name == "" {
		return nil, fmt.Errorf("engineer name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.listEngineersLocked()
	idx := -1
	for i, existing := range list {
		if strings.EqualFold(existing.Name, entry.Name) && strings.EqualFold(existing.Role, entry.Role) {
			idx = i
			break
		}
	}
	if idx >= 0 {
		entry.Name = list[idx].Name
		list[idx] = entry
	} else {
		list = append(list, entry)
	}
	if err := writeJSONFile(s.engineersPath, list); err != nil {
		return nil, fmt.Errorf("save engineers: %w", err)
	}
	return list, nil
}

// DeleteEngineer removes entries by name; with a non-empty role only the
// matching name+role entry goes.
func (s *SidecarStore) DeleteEngineer(name, role string) ([]Engineer, bool, error) {
	name = strings.TrimSpace(name)
	role = strings.TrimSpace(role)
	if name == "" {
		return nil, false, fmt.Errorf("engineer name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.listEngineersLocked()
	kept := make([]Engineer, 0, len(list))
	for _, e := range list {
		match := strings.EqualFold(e.Name, name) && (role == "" || strings.EqualFold(e.Role, role))
		if !match {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(list) {
		return list, false, nil
	}
	if err := writeJSONFile(s.engineersPath, kept); err != nil {
		return nil, false, fmt.Errorf("save engineers: %w", err)
	}
	return kept, true, nil
}

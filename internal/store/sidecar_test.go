package store

import (
	"testing"

	"sitewatch/api/internal/pow"
)

func testSidecar(t *testing.T) *SidecarStore {
	t.Helper()
	s, err := NewSidecarStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewSidecarStore: %v", err)
	}
	return s
}

func TestPowMissingContractReadsEmpty(t *testing.T) {
	s := testSidecar(t)
	record := s.GetPow("NOPE")
	if len(record.ProgramWorks) != 0 || len(record.VariationOrders) != 0 {
		t.Errorf("missing contract record = %+v, want empty", record)
	}
}

func TestPowRoundTrip(t *testing.T) {
	s := testSidecar(t)
	saved, err := s.SetPow(" 26ab0001 ", pow.Record{
		ProgramWorks: []pow.Item{
			{ItemNo: "PART I", Description: "Earthworks", Quantity: "drop", Unit: "me"},
			{ItemNo: "100-1", Description: "Clearing", Quantity: "1.00", Unit: "ls"},
		},
	})
	if err != nil {
		t.Fatalf("SetPow: %v", err)
	}
	if saved.UpdatedAt == "" {
		t.Error("SetPow did not stamp UpdatedAt")
	}
	if saved.ProgramWorks[0].Quantity != "" || saved.ProgramWorks[0].Unit != "" {
		t.Errorf("PART header kept quantity/unit: %+v", saved.ProgramWorks[0])
	}

	got := s.GetPow("26AB0001")
	if len(got.ProgramWorks) != 2 {
		t.Fatalf("got %d items, want 2", len(got.ProgramWorks))
	}
	if got.ProgramWorks[1].Description != "Clearing" {
		t.Errorf("item = %+v", got.ProgramWorks[1])
	}
}

func TestPowDelete(t *testing.T) {
	s := testSidecar(t)
	if _, err := s.SetPow("26AB0001", pow.Record{ProgramWorks: []pow.Item{{ItemNo: "100-1"}}}); err != nil {
		t.Fatalf("SetPow: %v", err)
	}
	if !s.DeletePow("26ab0001") {
		t.Error("DeletePow should report an existing record")
	}
	if s.DeletePow("26AB0001") {
		t.Error("second DeletePow should report nothing to delete")
	}
}

func TestEngineersUpsertAndList(t *testing.T) {
	s := testSidecar(t)
	if _, err := s.UpsertEngineer(Engineer{Name: "Juan Dela Cruz", Role: "Project Engineer", Phone: "0917"}); err != nil {
		t.Fatalf("UpsertEngineer: %v", err)
	}
	// Same name+role updates in place and keeps the stored name casing.
	list, err := s.UpsertEngineer(Engineer{Name: "JUAN DELA CRUZ", Role: "project engineer", Phone: "0918"})
	if err != nil {
		t.Fatalf("UpsertEngineer update: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d engineers, want 1", len(list))
	}
	if list[0].Name != "Juan Dela Cruz" || list[0].Phone != "0918" {
		t.Errorf("entry = %+v", list[0])
	}

	// Same name, different role is a separate entry.
	list, err = s.UpsertEngineer(Engineer{Name: "Juan Dela Cruz", Role: "Materials Engineer"})
	if err != nil {
		t.Fatalf("UpsertEngineer new role: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("got %d engineers, want 2", len(list))
	}
}

func TestEngineersDelete(t *testing.T) {
	s := testSidecar(t)
	_, _ = s.UpsertEngineer(Engineer{Name: "Juan Dela Cruz", Role: "Project Engineer"})
	_, _ = s.UpsertEngineer(Engineer{Name: "Juan Dela Cruz", Role: "Materials Engineer"})

	list, removed, err := s.DeleteEngineer("juan dela cruz", "materials engineer")
	if err != nil {
		t.Fatalf("DeleteEngineer: %v", err)
	}
	if !removed || len(list) != 1 {
		t.Errorf("role-scoped delete: removed=%v list=%+v", removed, list)
	}

	_, removed, err = s.DeleteEngineer("Juan Dela Cruz", "")
	if err != nil {
		t.Fatalf("DeleteEngineer all roles: %v", err)
	}
	if !removed {
		t.Error("name-wide delete should remove remaining entries")
	}

	_, removed, _ = s.DeleteEngineer("Juan Dela Cruz", "")
	if removed {
		t.Error("delete of absent engineer should report false")
	}
}

func TestEngineersRequireName(t *testing.T) {
	s := testSidecar(t)
	if _, err := s.UpsertEngineer(Engineer{Role: "Project Engineer"}); err == nil {
		t.Error("UpsertEngineer without name should fail")
	}
	if _, _, err := s.DeleteEngineer("  ", ""); err == nil {
		t.Error("DeleteEngineer without name should fail")
	}
}

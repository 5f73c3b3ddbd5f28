package ledger

import (
	"reflect"
	"testing"

	"sitewatch/api/internal/contract"
	"sitewatch/api/internal/kv"
)

func TestLedgerRoundTrip(t *testing.T) {
	store := kv.NewMemoryStore()
	l := New[contract.UpdateOverride](store, "projectUpdates")

	l.Set(" ab-1 ", contract.UpdateOverride{Status: "Ongoing", Accomplishment: 40})

	// Raw and normalized IDs address the same entry.
	got, ok := l.Get("AB-1")
	if !ok {
		t.Fatal("override not found under normalized ID")
	}
	if got.Status != "Ongoing" || got.Accomplishment != 40 {
		t.Errorf("Get = %+v, want stored override", got)
	}
}

func TestLedgerMissingEntry(t *testing.T) {
	l := New[contract.UpdateOverride](kv.NewMemoryStore(), "projectUpdates")
	if _, ok := l.Get("NOPE"); ok {
		t.Error("Get on empty ledger should miss")
	}
	if _, ok := l.Get(""); ok {
		t.Error("Get with empty ID should miss")
	}
}

func TestLedgerCorruptBlobReadsEmpty(t *testing.T) {
	store := kv.NewMemoryStore()
	store.Set("projectUpdates", "{not json")
	l := New[contract.UpdateOverride](store, "projectUpdates")

	if _, ok := l.Get("AB-1"); ok {
		t.Error("corrupt blob should read as empty ledger")
	}
	// Writing through a corrupt blob replaces it cleanly.
	l.Set("AB-1", contract.UpdateOverride{Status: "Completed"})
	if got, ok := l.Get("AB-1"); !ok || got.Status != "Completed" {
		t.Errorf("Get after recovery = (%+v, %v)", got, ok)
	}
}

func TestLedgerRemove(t *testing.T) {
	store := kv.NewMemoryStore()
	l := New[contract.UpdateOverride](store, "projectUpdates")

	l.Set("AB-1", contract.UpdateOverride{Status: "Ongoing"})
	l.Remove("ab-1 ")
	if _, ok := l.Get("AB-1"); ok {
		t.Error("override still present after Remove")
	}
	// No-op on absent entry.
	l.Remove("AB-1")
}

func TestLedgerNamespacesIndependent(t *testing.T) {
	store := kv.NewMemoryStore()
	updates := New[contract.UpdateOverride](store, "projectUpdates")
	marks := New[map[string]string](store, "compiledDocsByContractDoc")

	updates.Set("AB-1", contract.UpdateOverride{Status: "Ongoing"})
	marks.Set("AB-1", map[string]string{"by": "Juan"})

	if _, ok := updates.Get("AB-1"); !ok {
		t.Error("updates entry lost")
	}
	if _, ok := marks.Get("AB-1"); !ok {
		t.Error("marks entry lost")
	}

	updates.Remove("AB-1")
	if _, ok := marks.Get("AB-1"); !ok {
		t.Error("removing from one namespace must not touch another")
	}
}

func TestKeyedLedgerPreservesCase(t *testing.T) {
	store := kv.NewMemoryStore()
	l := NewKeyed[CompiledMark](store, "compiledDocsByContractDoc")

	key := CompiledKey("qa", "Punchlist", " 26ab0001 ")
	if key != "qa:Punchlist:26AB0001" {
		t.Fatalf("CompiledKey = %q", key)
	}
	l.Set(key, CompiledMark{By: "Juan", At: "2026-08-30T00:00:00Z"})

	// The stored key keeps section/doc case; only the contract ID is canonical.
	if _, ok := l.Get("QA:PUNCHLIST:26AB0001"); ok {
		t.Error("uppercased key should miss a case-preserving ledger")
	}
	if got, ok := l.Get("qa:Punchlist:26AB0001"); !ok || got.By != "Juan" {
		t.Errorf("Get = (%+v, %v)", got, ok)
	}
}

func TestMergePrecedence(t *testing.T) {
	base := contract.Project{Status: "Ongoing", Accomplishment: 10}
	merged := MergeProjectView(base, &contract.UpdateOverride{Accomplishment: 55})
	if merged.Status != "Ongoing" {
		t.Errorf("Status = %q, want base value to survive", merged.Status)
	}
	if merged.Accomplishment != 55 {
		t.Errorf("Accomplishment = %d, want override value 55", merged.Accomplishment)
	}
}

func TestMergeEmptyOverrideFieldsFallBack(t *testing.T) {
	base := contract.Project{
		Status:         "Ongoing",
		Accomplishment: 25,
		CompletionDate: "2026-01-15",
		Remarks:        "on schedule",
	}
	merged := MergeProjectView(base, &contract.UpdateOverride{Status: "Suspended"})
	if merged.Status != "Suspended" {
		t.Errorf("Status = %q, want override", merged.Status)
	}
	if merged.Accomplishment != 25 || merged.CompletionDate != "2026-01-15" || merged.Remarks != "on schedule" {
		t.Errorf("empty override fields must fall back to base, got %+v", merged)
	}
}

func TestMergeNilOverride(t *testing.T) {
	base := contract.Project{ContractID: "AB-1", Status: "Ongoing"}
	if got := MergeProjectView(base, nil); !reflect.DeepEqual(got, base) {
		t.Errorf("MergeProjectView(base, nil) = %+v, want base unchanged", got)
	}
}

func TestSetThenRemoveRevertsToBase(t *testing.T) {
	store := kv.NewMemoryStore()
	l := New[contract.UpdateOverride](store, "projectUpdates")
	base := contract.Project{ContractID: "AB-1", Status: "Ongoing", Accomplishment: 10}

	pristine := MergeProjectView(base, nil)

	l.Set("AB-1", contract.UpdateOverride{Status: "Suspended", Accomplishment: 55})
	l.Remove("AB-1")

	var override *contract.UpdateOverride
	if value, ok := l.Get("AB-1"); ok {
		override = &value
	}
	after := MergeProjectView(base, override)
	if !reflect.DeepEqual(after, pristine) {
		t.Errorf("view after set+remove = %+v, want %+v", after, pristine)
	}
}

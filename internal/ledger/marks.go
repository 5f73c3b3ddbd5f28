package ledger

import (
	"strings"

	"sitewatch/api/internal/contract"
)

// CompiledMark records who marked a required document as compiled, and when.
// The mark lives independently of the upload entry for the same document slot;
// either can exist without the other.
type CompiledMark struct {
	By string `json:"by"`
	At string `json:"at"`
}

// CompiledKey builds the ledger entry ID for one document slot. Section and
// document name keep their case; only the contract-ID segment is normalized.
func CompiledKey(section, docName, contractID string) string {
	return strings.TrimSpace(section) + ":" + strings.TrimSpace(docName) + ":" + contract.NormalizeID(contractID)
}

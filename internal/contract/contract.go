// Package contract holds the project/contract domain model shared by the
// workbook store, the override ledger, and the HTTP surface.
package contract

import (
	"math"
	"strconv"
	"strings"
)

// NormalizeID canonicalizes a contract ID. Lookups across the workbook, the
// override ledgers, and the HTTP paths all go through this; a raw ID compared
// against a normalized one silently misses.
func NormalizeID(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

// Project is one row of the monitoring workbook. The canonical copy lives in
// the spreadsheet; mutable-state fields may be shadowed by an UpdateOverride.
type Project struct {
	ContractID              string   `json:"contractId"`
	Description             string   `json:"contractDescription"`
	Location                string   `json:"location"`
	Category                string   `json:"category"`
	Appropriation           string   `json:"appropriation"`
	ApprovedBudgetCost      string   `json:"approvedBudgetCost"`
	ContractCost            string   `json:"contractCost"`
	RevisedContractAmount   string   `json:"revisedContractAmount,omitempty"`
	Contractor              string   `json:"contractor"`
	StartDate               string   `json:"startDate"`
	ExpirationDate          string   `json:"expirationDate"`
	RevisedExpirationDates  []string `json:"revisedExpirationDates,omitempty"`
	CompletionDate          string   `json:"completionDate"`
	Status                  string   `json:"status"`
	Accomplishment          int      `json:"accomplishment"`
	Remarks                 string   `json:"remarks"`
	InCharge                InCharge `json:"inCharge"`

	// Extra carries sheet columns not lifted into named fields, so the
	// office's hand-filled tracking columns survive a row rewrite.
	Extra map[string]string `json:"-"`
}

// InCharge is the set of personnel assigned to a contract by role. Values are
// free-text and may list several names in one field.
type InCharge struct {
	ProjectEngineer             string `json:"projectEngineer"`
	MaterialsEngineer           string `json:"materialsEngineer"`
	ProjectInspector            string `json:"projectInspector"`
	ResidentEngineer            string `json:"residentEngineer"`
	QAInCharge                  string `json:"qaInCharge"`
	ContractorMaterialsEngineer string `json:"contractorMaterialsEngineer"`
}

// Values returns the non-empty assignment fields for name matching.
func (c InCharge) Values() []string {
	all := []string{
		c.ProjectEngineer,
		c.MaterialsEngineer,
		c.ProjectInspector,
		c.ResidentEngineer,
		c.QAInCharge,
		c.ContractorMaterialsEngineer,
	}
	out := make([]string, 0, len(all))
	for _, v := range all {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

// UpdateOverride carries only the fields a non-admin "Update" action may
// change. It layers over the workbook row at read time and never replaces it.
type UpdateOverride struct {
	Status                 string   `json:"status"`
	Accomplishment         int      `json:"accomplishment"`
	CompletionDate         string   `json:"completionDate"`
	Remarks                string   `json:"remarks"`
	RevisedContractAmount  string   `json:"revisedContractAmount"`
	RevisedProgramWorks    []any    `json:"revisedProgramWorks"`
	RevisedExpirationDates []string `json:"revisedExpirationDates"`
}

// ParsePercent reads an accomplishment value the way the dashboard does:
// tolerate a trailing %, clamp to [0,100], round to a whole number. Anything
// unparseable reads as zero.
func ParsePercent(value string) int {
	cleaned := strings.TrimSpace(strings.ReplaceAll(value, "%", ""))
	if cleaned == "" {
		return 0
	}
	num, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	rounded := int(math.Round(num))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}

package ledger

import "sitewatch/api/internal/contract"

// MergeProjectView layers an update override over a workbook row. Override
// fields win when present and non-empty; everything else falls back to the
// base. Every render path — list rows, detail panels, exports — must go
// through this one function so the two can never disagree field by field.
func MergeProjectView(base contract.Project, override *contract.UpdateOverride) contract.Project {
	merged := base
	if override == nil {
		return merged
	}
	if override.Status != "" {
		merged.Status = override.Status
	}
	// Accomplishment zero means "not set"; the dashboard treats 0% and absent
	// identically, so zero never shadows a non-zero base value.
	if override.Accomplishment != 0 {
		merged.Accomplishment = override.Accomplishment
	}
	if override.CompletionDate != "" {
		merged.CompletionDate = override.CompletionDate
	}
	if override.Remarks != "" {
		merged.Remarks = override.Remarks
	}
	if override.RevisedContractAmount != "" {
		merged.RevisedContractAmount = override.RevisedContractAmount
	}
	if len(override.RevisedExpirationDates) > 0 {
		merged.RevisedExpirationDates = append([]string(nil), override.RevisedExpirationDates...)
	}
	return merged
}

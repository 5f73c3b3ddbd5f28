package store

import (
	"strconv"
	"strings"

	"sitewatch/api/internal/contract"
)

// Headers are the literal column names of the monitoring sheet, in sheet
// order. Several columns are tracking fields the office fills by hand; the
// store round-trips them untouched through the record map, and only the
// columns named below are lifted into the Project struct.
var Headers = []string{
	"CONTRACT ID",
	"CONTRACT NAME/LOCATION",
	"LOCATION",
	"TYPE OF PROJECT",
	"APPROPRIATION",
	"APPROVED BUDGET COST (ABC)",
	"CONTRACT AMOUNT",
	"REVISED CONTRACT AMOUNT",
	"CONTRACTOR",
	"CONTRACT DURATION",
	"START DATE",
	"EXPIRATION DATE",
	"REVISED EXPIRATION DATE",
	"REMAINING DAYS",
	"STATUS OF PROJECT",
	"INPUT 1ST BILLING",
	"SWA (%) 1ST BILLING",
	"2ND BILLING",
	"QUALITY CONTROL PROGRAM (QCA-01)",
	"CCQA (QCA-02, QCA-03) - WEEKLY",
	"CCQA (QCA-02, QCA-03) - MONTHLY",
	"LATEST DATE UPDATED",
	"STATUS OF LABORATORY TESTS (QCA-04)",
	"STATUS OF TEST RESULTS (QCA-05)",
	"SUMMARY OF FIELD TEST RESULTS (QCA-06)",
	"MATERIALS INSPECTION REPORT (QCA-07)",
	"REPORT ON CONCRETE WORKS (QCA-08)",
	"SITE INSPECTION",
	"DESIGN MIX",
	"TRIAL MIX",
	"GEOTAGGED PHOTOS (INPUT LATEST DATES)",
	"GEOTAGGED TEST REPORTS (INPUT LATEST)",
	"SOURCING PERMIT (INPUT LATEST)",
	"LOGBOOK (INPUT LATEST DATE)",
	"JOB CONTROL FORMS (INPUT LATEST)",
	"ORIGINAL PLAN",
	"AS STAKED PLAN",
	"AS-BUILT PLAN",
	"PROGRAM OF WORKS",
	"VARIATIONS (IF APPLICABLE) V.O.1",
	"VARIATIONS (IF APPLICABLE) V.O.2",
	"VARIATIONS (IF APPLICABLE) V.O.3",
	"VARIATIONS (IF APPLICABLE) V.O.4",
	"TIME SUSPENSION REPORT",
	"TIME EXTENSION REPORT",
	"PROJECT ENGINEER",
	"MATERIALS ENGINEER",
	"PROJECT INSPECTOR",
	"QUALITY ASSURANCE IN-CHARGE",
	"RESIDENT ENGINEER",
	"CONTRACTORS MATERIALS ENGINEER",
}

// revisedDateSeparator joins multiple revised expiration dates into the
// single sheet column.
const revisedDateSeparator = "; "

// liftedColumns are the headers mapped onto named Project fields; everything
// else rides along in Project.Extra.
var liftedColumns = map[string]bool{
	"CONTRACT ID":                    true,
	"CONTRACT NAME/LOCATION":         true,
	"LOCATION":                       true,
	"TYPE OF PROJECT":                true,
	"APPROPRIATION":                  true,
	"APPROVED BUDGET COST (ABC)":     true,
	"CONTRACT AMOUNT":                true,
	"REVISED CONTRACT AMOUNT":        true,
	"CONTRACTOR":                     true,
	"START DATE":                     true,
	"EXPIRATION DATE":                true,
	"REVISED EXPIRATION DATE":        true,
	"LATEST DATE UPDATED":            true,
	"STATUS OF PROJECT":              true,
	"SWA (%) 1ST BILLING":            true,
	"INPUT 1ST BILLING":              true,
	"PROJECT ENGINEER":               true,
	"MATERIALS ENGINEER":             true,
	"PROJECT INSPECTOR":              true,
	"QUALITY ASSURANCE IN-CHARGE":    true,
	"RESIDENT ENGINEER":              true,
	"CONTRACTORS MATERIALS ENGINEER": true,
}

func projectFromRecord(record map[string]string) contract.Project {
	var extra map[string]string
	for name, value := range record {
		if liftedColumns[name] || value == "" {
			continue
		}
		if extra == nil {
			extra = make(map[string]string)
		}
		extra[name] = value
	}
	var revised []string
	for _, part := range strings.Split(record["REVISED EXPIRATION DATE"], revisedDateSeparator) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			revised = append(revised, trimmed)
		}
	}
	return contract.Project{
		ContractID:             contract.NormalizeID(record["CONTRACT ID"]),
		Description:            record["CONTRACT NAME/LOCATION"],
		Location:               record["LOCATION"],
		Category:               record["TYPE OF PROJECT"],
		Appropriation:          record["APPROPRIATION"],
		ApprovedBudgetCost:     record["APPROVED BUDGET COST (ABC)"],
		ContractCost:           record["CONTRACT AMOUNT"],
		RevisedContractAmount:  record["REVISED CONTRACT AMOUNT"],
		Contractor:             record["CONTRACTOR"],
		StartDate:              record["START DATE"],
		ExpirationDate:         record["EXPIRATION DATE"],
		RevisedExpirationDates: revised,
		CompletionDate:         record["LATEST DATE UPDATED"],
		Status:                 record["STATUS OF PROJECT"],
		Accomplishment:         contract.ParsePercent(record["SWA (%) 1ST BILLING"]),
		Remarks:                record["INPUT 1ST BILLING"],
		InCharge: contract.InCharge{
			ProjectEngineer:             record["PROJECT ENGINEER"],
			MaterialsEngineer:           record["MATERIALS ENGINEER"],
			ProjectInspector:            record["PROJECT INSPECTOR"],
			ResidentEngineer:            record["RESIDENT ENGINEER"],
			QAInCharge:                  record["QUALITY ASSURANCE IN-CHARGE"],
			ContractorMaterialsEngineer: record["CONTRACTORS MATERIALS ENGINEER"],
		},
		Extra: extra,
	}
}

func recordFromProject(p contract.Project) map[string]string {
	record := make(map[string]string, len(Headers))
	for _, h := range Headers {
		record[h] = ""
	}
	for name, value := range p.Extra {
		record[name] = value
	}
	record["CONTRACT ID"] = contract.NormalizeID(p.ContractID)
	record["CONTRACT NAME/LOCATION"] = p.Description
	record["LOCATION"] = p.Location
	record["TYPE OF PROJECT"] = p.Category
	record["APPROPRIATION"] = p.Appropriation
	record["APPROVED BUDGET COST (ABC)"] = p.ApprovedBudgetCost
	record["CONTRACT AMOUNT"] = p.ContractCost
	record["REVISED CONTRACT AMOUNT"] = p.RevisedContractAmount
	record["CONTRACTOR"] = p.Contractor
	record["START DATE"] = p.StartDate
	record["EXPIRATION DATE"] = p.ExpirationDate
	record["REVISED EXPIRATION DATE"] = strings.Join(p.RevisedExpirationDates, revisedDateSeparator)
	record["LATEST DATE UPDATED"] = p.CompletionDate
	record["STATUS OF PROJECT"] = p.Status
	if p.Accomplishment != 0 {
		record["SWA (%) 1ST BILLING"] = strconv.Itoa(p.Accomplishment)
	}
	record["INPUT 1ST BILLING"] = p.Remarks
	record["PROJECT ENGINEER"] = p.InCharge.ProjectEngineer
	record["MATERIALS ENGINEER"] = p.InCharge.MaterialsEngineer
	record["PROJECT INSPECTOR"] = p.InCharge.ProjectInspector
	record["QUALITY ASSURANCE IN-CHARGE"] = p.InCharge.QAInCharge
	record["RESIDENT ENGINEER"] = p.InCharge.ResidentEngineer
	record["CONTRACTORS MATERIALS ENGINEER"] = p.InCharge.ContractorMaterialsEngineer
	return record
}

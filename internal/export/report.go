package export

import (
	"bytes"
	"html/template"
	"strings"
	"time"

	"sitewatch/api/internal/contract"
	"sitewatch/api/internal/pow"
)

// ReportData holds everything the status report shows: the merged project
// view plus its program of works and variation orders.
type ReportData struct {
	Project     contract.Project
	Pow         pow.Record
	PreparedBy  string
	GeneratedAt time.Time
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"isPart": pow.IsPartHeader,
	"join":   func(v []string) string { return strings.Join(v, "; ") },
	"add1":   func(i int) int { return i + 1 },
}).Parse(reportHTML))

// RenderReportHTML renders the status report template.
func RenderReportHTML(data ReportData) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const reportHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>Project Status Report - {{.Project.ContractID}}</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.5; max-width: 800px; margin: 2rem auto; color: #222; }
    h1 { border-bottom: 2px solid #333; padding-bottom: 0.5rem; font-size: 1.4rem; }
    h2 { font-size: 1.1rem; margin-top: 2rem; }
    .meta { color: #666; font-size: 0.85em; margin-bottom: 1.5rem; }
    table { width: 100%; border-collapse: collapse; margin: 0.75rem 0; }
    th, td { border: 1px solid #bbb; padding: 0.35rem 0.5rem; text-align: left; font-size: 0.85em; }
    th { background: #f0f0f0; }
    tr.part td { background: #e8eef7; font-weight: bold; }
    .field-name { width: 35%; background: #fafafa; font-weight: bold; }
  </style>
</head>
<body>
  <h1>Project Status Report</h1>
  <div class="meta">{{.Project.ContractID}}{{if .PreparedBy}} &middot; Prepared by {{.PreparedBy}}{{end}} &middot; {{.GeneratedAt.Format "January 2, 2006"}}</div>

  <table>
    <tr><td class="field-name">Contract ID</td><td>{{.Project.ContractID}}</td></tr>
    <tr><td class="field-name">Description</td><td>{{.Project.Description}}</td></tr>
    <tr><td class="field-name">Location</td><td>{{.Project.Location}}</td></tr>
    <tr><td class="field-name">Contractor</td><td>{{.Project.Contractor}}</td></tr>
    <tr><td class="field-name">Contract Cost</td><td>{{.Project.ContractCost}}</td></tr>
    {{if .Project.RevisedContractAmount}}<tr><td class="field-name">Revised Contract Amount</td><td>{{.Project.RevisedContractAmount}}</td></tr>{{end}}
    <tr><td class="field-name">Start Date</td><td>{{.Project.StartDate}}</td></tr>
    <tr><td class="field-name">Expiration Date</td><td>{{.Project.ExpirationDate}}</td></tr>
    {{if .Project.RevisedExpirationDates}}<tr><td class="field-name">Revised Expiration Dates</td><td>{{join .Project.RevisedExpirationDates}}</td></tr>{{end}}
    <tr><td class="field-name">Status</td><td>{{.Project.Status}}</td></tr>
    <tr><td class="field-name">Accomplishment</td><td>{{.Project.Accomplishment}}%</td></tr>
    {{if .Project.CompletionDate}}<tr><td class="field-name">Completion Date</td><td>{{.Project.CompletionDate}}</td></tr>{{end}}
    {{if .Project.Remarks}}<tr><td class="field-name">Remarks</td><td>{{.Project.Remarks}}</td></tr>{{end}}
  </table>

  {{if .Project.InCharge.Values}}
  <h2>Personnel In Charge</h2>
  <table>
    {{if .Project.InCharge.ProjectEngineer}}<tr><td class="field-name">Project Engineer</td><td>{{.Project.InCharge.ProjectEngineer}}</td></tr>{{end}}
    {{if .Project.InCharge.MaterialsEngineer}}<tr><td class="field-name">Materials Engineer</td><td>{{.Project.InCharge.MaterialsEngineer}}</td></tr>{{end}}
    {{if .Project.InCharge.ProjectInspector}}<tr><td class="field-name">Project Inspector</td><td>{{.Project.InCharge.ProjectInspector}}</td></tr>{{end}}
    {{if .Project.InCharge.ResidentEngineer}}<tr><td class="field-name">Resident Engineer</td><td>{{.Project.InCharge.ResidentEngineer}}</td></tr>{{end}}
    {{if .Project.InCharge.QAInCharge}}<tr><td class="field-name">Quality Assurance In-Charge</td><td>{{.Project.InCharge.QAInCharge}}</td></tr>{{end}}
    {{if .Project.InCharge.ContractorMaterialsEngineer}}<tr><td class="field-name">Contractor's Materials Engineer</td><td>{{.Project.InCharge.ContractorMaterialsEngineer}}</td></tr>{{end}}
  </table>
  {{end}}

  {{if .Pow.ProgramWorks}}
  <h2>Program of Works</h2>
  <table>
    <tr><th>Item No.</th><th>Description</th><th>Quantity</th><th>Unit</th></tr>
    {{range .Pow.ProgramWorks}}
    <tr{{if isPart .ItemNo}} class="part"{{end}}><td>{{.ItemNo}}</td><td>{{.Description}}</td><td>{{.Quantity}}</td><td>{{.Unit}}</td></tr>
    {{end}}
  </table>
  {{end}}

  {{range $i, $vo := .Pow.VariationOrders}}
  <h2>Variation Order No. {{add1 $i}}</h2>
  <table>
    <tr><th>Item No.</th><th>Description</th><th>Quantity</th><th>Unit</th></tr>
    {{range $vo}}
    <tr{{if isPart .ItemNo}} class="part"{{end}}><td>{{.ItemNo}}</td><td>{{.Description}}</td><td>{{.Quantity}}</td><td>{{.Unit}}</td></tr>
    {{end}}
  </table>
  {{end}}
</body>
</html>`

package export

import (
	"fmt"
	"time"
)

// Service turns a merged project view into a downloadable PDF report.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// Report renders and prints the status report for one project.
func (s *Service) Report(data ReportData) (*Result, error) {
	if data.GeneratedAt.IsZero() {
		data.GeneratedAt = time.Now()
	}
	html, err := RenderReportHTML(data)
	if err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return printPDF(html, data.Project.ContractID+" status report")
}

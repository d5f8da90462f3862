package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"istas_backend/internal/model"
	"istas_backend/internal/repository"
	"istas_backend/internal/scoring"
	"istas_backend/internal/session"
	"istas_backend/internal/util"
	"math"
	"sort"
	"strconv"
	"time"
)

const topRiskLimit = 10

type RiskLevelCount struct {
	Level scoring.RiskLevel `json:"level"`
	Count int               `json:"count"`
}

type RiskFrequency struct {
	RiskID        uint             `json:"riskId"`
	Description   string           `json:"description"`
	Severity      scoring.Severity `json:"severity"`
	SeverityLabel string           `json:"severityLabel"`
	Count         int              `json:"count"`
}

type ReportRow struct {
	EmployeeID   uint              `json:"employeeId"`
	EmployeeName string            `json:"employeeName"`
	Department   string            `json:"department"`
	EvaluationID string            `json:"evaluationId"`
	CompletedAt  *time.Time        `json:"completedAt"`
	TotalYes     int               `json:"totalYes"`
	TotalNo      int               `json:"totalNo"`
	PercentYes   float64           `json:"percentYes"`
	RiskLevel    scoring.RiskLevel `json:"riskLevel"`
	Severity     scoring.Breakdown `json:"severity"`
}

// CompanyReport summarises the latest completed evaluation of every employee
// of a company for one form, for the company's risk management programme.
type CompanyReport struct {
	CompanyID         uint              `json:"companyId"`
	CompanyName       string            `json:"companyName"`
	FormID            uint              `json:"formId"`
	FormName          string            `json:"formName"`
	Employees         int               `json:"employees"`
	Evaluated         int               `json:"evaluated"`
	RiskLevels        []RiskLevelCount  `json:"riskLevels"`
	Severity          scoring.Breakdown `json:"severity"`
	AveragePercentYes float64           `json:"averagePercentYes"`
	TopRisks          []RiskFrequency   `json:"topRisks"`
	Rows              []ReportRow       `json:"rows"`
	GeneratedAt       time.Time         `json:"generatedAt"`
}

type ReportService struct {
	Forms       FormProvider
	Companies   *repository.CompanyRepository
	Evaluations *repository.EvaluationRepository
	Storage     *StorageService
	now         func() time.Time
}

func NewReportService(forms FormProvider, companies *repository.CompanyRepository, evaluations *repository.EvaluationRepository, storage *StorageService) *ReportService {
	return &ReportService{
		Forms:       forms,
		Companies:   companies,
		Evaluations: evaluations,
		Storage:     storage,
		now:         time.Now,
	}
}

func (s *ReportService) CompanyReport(ctx context.Context, tenantID string, companyID, formID uint) (*CompanyReport, error) {
	company, err := s.Companies.FindCompany(ctx, tenantID, companyID)
	if repository.IsNotFound(err) {
		return nil, util.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	form, err := s.Forms.GetForm(ctx, formID)
	if err != nil {
		return nil, err
	}
	employees, err := s.Companies.ListEmployees(ctx, tenantID, companyID)
	if err != nil {
		return nil, err
	}
	evs, err := s.Evaluations.LatestCompleted(ctx, tenantID, companyID, formID)
	if err != nil {
		return nil, err
	}

	report := buildReport(form, employees, evs)
	report.CompanyID = company.ID
	report.CompanyName = company.Name
	report.GeneratedAt = s.now()
	return report, nil
}

func buildReport(form *session.Form, employees []model.Employee, evs []model.Evaluation) *CompanyReport {
	meta := form.Metadata()
	byID := make(map[uint]model.Employee, len(employees))
	for _, e := range employees {
		byID[e.ID] = e
	}

	report := &CompanyReport{
		FormID:    form.ID,
		FormName:  form.Name,
		Employees: len(employees),
		Evaluated: len(evs),
		Rows:      make([]ReportRow, 0, len(evs)),
	}

	levels := make(map[scoring.RiskLevel]int)
	riskHits := make(map[uint]int)
	var percentSum float64
	for i := range evs {
		ev := fromModel(&evs[i])
		levels[ev.Result.RiskLevel]++
		report.Severity.Light += ev.Result.Severity.Light
		report.Severity.Medium += ev.Result.Severity.Medium
		report.Severity.High += ev.Result.Severity.High
		percentSum += ev.Result.PercentYes

		for id, a := range ev.Answers {
			if a.Response != scoring.Yes {
				continue
			}
			if q, ok := meta.Question(id); ok && q.RiskID != 0 {
				riskHits[q.RiskID]++
			}
		}

		emp := byID[ev.EmployeeID]
		report.Rows = append(report.Rows, ReportRow{
			EmployeeID:   ev.EmployeeID,
			EmployeeName: emp.Name,
			Department:   emp.Department,
			EvaluationID: ev.ID,
			CompletedAt:  evs[i].CompletedAt,
			TotalYes:     ev.Result.TotalYes,
			TotalNo:      ev.Result.TotalNo,
			PercentYes:   ev.Result.PercentYes,
			RiskLevel:    ev.Result.RiskLevel,
			Severity:     ev.Result.Severity,
		})
	}
	sort.SliceStable(report.Rows, func(i, j int) bool {
		return report.Rows[i].EmployeeName < report.Rows[j].EmployeeName
	})

	for _, level := range scoring.RiskLevels {
		report.RiskLevels = append(report.RiskLevels, RiskLevelCount{Level: level, Count: levels[level]})
	}
	if len(evs) > 0 {
		report.AveragePercentYes = math.Round(percentSum/float64(len(evs))*100) / 100
	}

	for riskID, count := range riskHits {
		freq := RiskFrequency{RiskID: riskID, Count: count}
		if risk, ok := meta.Risk(riskID); ok {
			freq.Description = risk.Description
			freq.Severity = risk.Severity
			if risk.Severity.Valid() {
				freq.SeverityLabel = risk.Severity.Label()
			}
		}
		report.TopRisks = append(report.TopRisks, freq)
	}
	sort.Slice(report.TopRisks, func(i, j int) bool {
		a, b := report.TopRisks[i], report.TopRisks[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.RiskID < b.RiskID
	})
	if len(report.TopRisks) > topRiskLimit {
		report.TopRisks = report.TopRisks[:topRiskLimit]
	}
	return report
}

// WriteCSV writes one line per evaluated employee.
func (r *CompanyReport) WriteCSV(buf *bytes.Buffer) error {
	w := csv.NewWriter(buf)
	header := []string{"employee_id", "employee", "department", "evaluation_id", "completed_at",
		"total_yes", "total_no", "percent_yes", "risk_level", "light", "medium", "high"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range r.Rows {
		completed := ""
		if row.CompletedAt != nil {
			completed = row.CompletedAt.Format(util.TimeFormat)
		}
		record := []string{
			strconv.FormatUint(uint64(row.EmployeeID), 10),
			row.EmployeeName,
			row.Department,
			row.EvaluationID,
			completed,
			strconv.Itoa(row.TotalYes),
			strconv.Itoa(row.TotalNo),
			strconv.FormatFloat(row.PercentYes, 'f', 2, 64),
			string(row.RiskLevel),
			strconv.Itoa(row.Severity.Light),
			strconv.Itoa(row.Severity.Medium),
			strconv.Itoa(row.Severity.High),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

type ExportResult struct {
	File string `json:"file"`
	URL  string `json:"url"`
	Rows int    `json:"rows"`
}

// Export renders the company report as CSV and uploads it.
func (s *ReportService) Export(ctx context.Context, tenantID string, companyID, formID uint) (*ExportResult, error) {
	report, err := s.CompanyReport(ctx, tenantID, companyID, formID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf); err != nil {
		return nil, err
	}

	name := fmt.Sprintf("reports/%s/company-%d-form-%d-%s.csv",
		tenantID, companyID, formID, report.GeneratedAt.Format("20060102-150405"))
	size := int64(buf.Len())
	url, err := s.Storage.Upload(ctx, name, &buf, size, util.MimeCSV)
	if err != nil {
		return nil, err
	}
	return &ExportResult{File: name, URL: url, Rows: len(report.Rows)}, nil
}

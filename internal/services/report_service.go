package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"html/template"
	"os"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/strataops/strata-api/internal/models"
	"github.com/strataops/strata-api/internal/repository"
	"github.com/xuri/excelize/v2"
)

type ReportService struct {
	demandRepo   repository.DemandRepository
	buildingRepo repository.BuildingRepository
	ledgerRepo   repository.LedgerRepository
}

func NewReportService(
	demandRepo repository.DemandRepository,
	buildingRepo repository.BuildingRepository,
	ledgerRepo repository.LedgerRepository,
) *ReportService {
	return &ReportService{
		demandRepo:   demandRepo,
		buildingRepo: buildingRepo,
		ledgerRepo:   ledgerRepo,
	}
}

// GenerateArrearsCSV produces a CSV of every unpaid demand for the building,
// with days overdue and outstanding amounts
func (s *ReportService) GenerateArrearsCSV(ctx context.Context, buildingID uint) (*bytes.Buffer, error) {
	demands, err := s.demandRepo.FindByBuildingAndStatus(ctx, buildingID,
		[]string{models.DemandStatusIssued, models.DemandStatusPartiallyPaid, models.DemandStatusOverdue})
	if err != nil {
		return nil, err
	}

	b := &bytes.Buffer{}
	w := csv.NewWriter(b)

	header := []string{"Demand ID", "Flat", "Resident", "Period", "Due Date", "Days Overdue", "Total Due", "Paid", "Outstanding", "Penalty", "Status"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	now := time.Now()
	for _, d := range demands {
		daysOverdue := 0
		if days := d.DaysFromDue(now); days > 0 {
			daysOverdue = days
		}

		record := []string{
			fmt.Sprintf("%d", d.ID),
			d.FlatNumber,
			d.ResidentName,
			d.Period,
			d.DueDate.Format("2006-01-02"),
			fmt.Sprintf("%d", daysOverdue),
			d.TotalAmountDue.StringFixed(2),
			d.AmountPaid.StringFixed(2),
			d.OutstandingAmount.StringFixed(2),
			d.PenaltyAmountApplied.StringFixed(2),
			d.Status,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return b, nil
}

// GenerateArrearsXLSX produces the arrears report as a spreadsheet
func (s *ReportService) GenerateArrearsXLSX(ctx context.Context, buildingID uint) ([]byte, string, error) {
	building, err := s.buildingRepo.FindByID(ctx, buildingID)
	if err != nil {
		return nil, "", err
	}

	demands, err := s.demandRepo.FindByBuildingAndStatus(ctx, buildingID,
		[]string{models.DemandStatusIssued, models.DemandStatusPartiallyPaid, models.DemandStatusOverdue})
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Arrears"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	_ = f.SetCellValue(sheet, "A1", fmt.Sprintf("Arrears Report - %s", building.Name))
	_ = f.SetCellStyle(sheet, "A1", "A1", headerStyle)
	_ = f.SetCellValue(sheet, "A2", time.Now().Format("2006-01-02 15:04"))

	columns := []string{"Flat", "Resident", "Period", "Due Date", "Days Overdue", "Total Due", "Paid", "Outstanding", "Status"}
	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 4)
		_ = f.SetCellValue(sheet, cell, col)
	}

	now := time.Now()
	totalOutstanding := decimal.Zero
	for i, d := range demands {
		row := i + 5
		daysOverdue := 0
		if days := d.DaysFromDue(now); days > 0 {
			daysOverdue = days
		}

		values := []interface{}{
			d.FlatNumber,
			d.ResidentName,
			d.Period,
			d.DueDate.Format("2006-01-02"),
			daysOverdue,
			d.TotalAmountDue.InexactFloat64(),
			d.AmountPaid.InexactFloat64(),
			d.OutstandingAmount.InexactFloat64(),
			d.Status,
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		totalOutstanding = totalOutstanding.Add(d.OutstandingAmount)
	}

	totalRow := len(demands) + 6
	cell, _ := excelize.CoordinatesToCellName(1, totalRow)
	_ = f.SetCellValue(sheet, cell, "Total Outstanding")
	cell, _ = excelize.CoordinatesToCellName(8, totalRow)
	_ = f.SetCellValue(sheet, cell, totalOutstanding.InexactFloat64())

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("arrears_report_%s.xlsx", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// GenerateCollectionsCSV produces a CSV of the building's ledger income
// entries, optionally bounded by entry date
func (s *ReportService) GenerateCollectionsCSV(ctx context.Context, buildingID uint, startDate, endDate string) (*bytes.Buffer, error) {
	query := repository.NewListQuery()
	query.Filters["entry_type"] = models.EntryTypeIncome
	if startDate != "" {
		query.Filters["start_date"] = startDate
	}
	if endDate != "" {
		query.Filters["end_date"] = endDate
	}
	query.PerPage = 0 // full dump

	entries, _, err := s.ledgerRepo.FindByBuilding(ctx, buildingID, query)
	if err != nil {
		return nil, err
	}

	b := &bytes.Buffer{}
	w := csv.NewWriter(b)

	header := []string{"Entry ID", "Date", "Category", "Amount", "Description", "Demand ID"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, e := range entries {
		demandID := ""
		if e.DemandID != nil {
			demandID = fmt.Sprintf("%d", *e.DemandID)
		}
		record := []string{
			fmt.Sprintf("%d", e.ID),
			e.EntryDate.Format("2006-01-02"),
			e.Category,
			e.Amount.StringFixed(2),
			e.Description,
			demandID,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
		total = total.Add(e.Amount)
	}

	_ = w.Write([]string{"", "", "Total", total.StringFixed(2), "", ""})

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return b, nil
}

// GenerateDemandNoticePDF renders the printable notice for a demand
func (s *ReportService) GenerateDemandNoticePDF(ctx context.Context, demandID uint) (*bytes.Buffer, error) {
	demand, err := s.demandRepo.FindByID(ctx, demandID)
	if err != nil {
		return nil, err
	}

	building, err := s.buildingRepo.FindByID(ctx, demand.BuildingID)
	if err != nil {
		return nil, err
	}

	type NoticeData struct {
		BuildingName    string
		BuildingAddress string
		FlatNumber      string
		ResidentName    string
		Period          string
		IssuedDate      string
		DueDate         string
		BaseAmount      string
		GroundRent      string
		Penalty         string
		TotalDue        string
		Paid            string
		Outstanding     string
		Status          string
	}

	data := NoticeData{
		BuildingName:    building.Name,
		BuildingAddress: building.Address,
		FlatNumber:      demand.FlatNumber,
		ResidentName:    demand.ResidentName,
		Period:          demand.Period,
		IssuedDate:      demand.IssuedDate.Format("02/01/2006"),
		DueDate:         demand.DueDate.Format("02/01/2006"),
		BaseAmount:      demand.BaseAmount.StringFixed(2),
		GroundRent:      demand.GroundRentAmount.StringFixed(2),
		Penalty:         demand.PenaltyAmountApplied.StringFixed(2),
		TotalDue:        demand.TotalAmountDue.StringFixed(2),
		Paid:            demand.AmountPaid.StringFixed(2),
		Outstanding:     demand.OutstandingAmount.StringFixed(2),
		Status:          demand.Status,
	}

	return s.generatePDF("demand_notice.html", data)
}

// GenerateReceiptPDF renders a payment receipt for one payment record of a
// demand, matched by reference
func (s *ReportService) GenerateReceiptPDF(ctx context.Context, demandID uint, reference string) (*bytes.Buffer, error) {
	demand, err := s.demandRepo.FindByID(ctx, demandID)
	if err != nil {
		return nil, err
	}

	var record *models.PaymentRecord
	for i := range demand.PaymentHistory {
		if demand.PaymentHistory[i].Reference == reference {
			record = &demand.PaymentHistory[i]
			break
		}
	}
	if record == nil {
		return nil, ErrNotFound
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Payment Receipt")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(60, 10, "Reference:")
	pdf.Cell(40, 10, record.Reference)
	pdf.Ln(6)

	pdf.Cell(60, 10, "Flat:")
	pdf.Cell(40, 10, demand.FlatNumber)
	pdf.Ln(6)

	pdf.Cell(60, 10, "Resident:")
	pdf.Cell(40, 10, demand.ResidentName)
	pdf.Ln(6)

	pdf.Cell(60, 10, "Billing Period:")
	pdf.Cell(40, 10, demand.Period)
	pdf.Ln(6)

	pdf.Cell(60, 10, "Payment Date:")
	pdf.Cell(40, 10, record.Date.Format("02/01/2006"))
	pdf.Ln(6)

	pdf.Cell(60, 10, "Method:")
	pdf.Cell(40, 10, record.Method)
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(60, 10, "Amount Paid:")
	pdf.Cell(40, 10, record.Amount.StringFixed(2))
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(60, 10, "Outstanding Balance:")
	pdf.Cell(40, 10, demand.OutstandingAmount.StringFixed(2))
	pdf.Ln(6)

	b := &bytes.Buffer{}
	if err := pdf.Output(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Helper to generate PDF from HTML template
func (s *ReportService) generatePDF(templateName string, data interface{}) (*bytes.Buffer, error) {
	// Path relative to project root (prod), then relative to package (tests)
	tmplPath := fmt.Sprintf("internal/services/templates/reports/%s", templateName)
	if _, err := os.Stat(tmplPath); os.IsNotExist(err) {
		tmplPath = fmt.Sprintf("templates/reports/%s", templateName)
	}

	tmpl, err := template.ParseFiles(tmplPath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s (path: %s): %w", templateName, tmplPath, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create pdf generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.Grayscale.Set(false)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader(buf.Bytes()))
	page.EnableLocalFileAccess.Set(true)
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create pdf: %w", err)
	}

	return pdfg.Buffer(), nil
}

package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/assetflow/backend/internal/domain/report"
	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/assetflow/backend/internal/infrastructure/telemetry"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// XLSXContentType is the media type of exported workbooks
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const dateLayout = "2006-01-02"

// ExportOutstanding writes every outstanding assignment to an XLSX workbook
func (s *ReportService) ExportOutstanding(ctx context.Context, actor shared.Actor, filter ScopeFilter, w io.Writer) (err error) {
	if err := requireReader(actor); err != nil {
		return err
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "report", "export_outstanding")
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()
	deptID, err := filter.department()
	if err != nil {
		return err
	}
	now := s.now()
	rows, err := s.repo.OutstandingAssignments(ctx, report.AssignmentRowFilter{DepartmentID: deptID})
	if err != nil {
		return err
	}

	headers := []string{"Product", "Category", "Serial", "Employee", "Department", "Quantity", "Unit Cost", "Value", "Assigned", "Due", "Days Overdue", "Return", "Extension"}
	values := make([][]any, len(rows))
	for i, row := range rows {
		due := ""
		if row.DueDate != nil {
			due = row.DueDate.Format(dateLayout)
		}
		unitCost, _ := row.UnitCost.Float64()
		value, _ := row.Value().Float64()
		values[i] = []any{
			row.ProductName,
			row.Category,
			row.SerialNumber,
			row.EmployeeName,
			row.DepartmentName,
			row.Quantity,
			unitCost,
			value,
			row.AssignedAt.Format(dateLayout),
			due,
			row.DaysOverdue(now),
			row.ReturnStatus,
			row.ExtensionStatus,
		}
	}

	if err := writeWorkbook(w, "Outstanding", headers, values); err != nil {
		return err
	}
	telemetry.SetAttributes(span, "rows", len(rows))
	s.logger.Info("Outstanding assignments exported", zap.Int("rows", len(rows)))
	return nil
}

// ExportLedger writes stock history lines to an XLSX workbook
func (s *ReportService) ExportLedger(ctx context.Context, actor shared.Actor, filter LedgerExportFilter, w io.Writer) (err error) {
	if err := requireReader(actor); err != nil {
		return err
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "report", "export_ledger")
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()
	productID, err := shared.ParseOptionalID("product_id", filter.ProductID)
	if err != nil {
		return err
	}
	query := report.LedgerFilter{ProductID: productID}
	if filter.From != nil {
		query.From = *filter.From
	}
	if filter.To != nil {
		// the upper bound is inclusive of the whole day
		query.To = filter.To.Add(24 * time.Hour)
	}
	if !query.From.IsZero() && !query.To.IsZero() && !query.From.Before(query.To) {
		return shared.NewValidationError("from must not be after to")
	}

	rows, err := s.repo.Ledger(ctx, query)
	if err != nil {
		return err
	}

	headers := []string{"Time", "Product", "Action", "Change", "Quantity After", "By", "Note"}
	values := make([][]any, len(rows))
	for i, row := range rows {
		values[i] = []any{
			row.CreatedAt.UTC().Format(time.RFC3339),
			row.ProductName,
			row.Action,
			row.QuantityDelta,
			row.QuantityAfter,
			row.ActorName,
			row.Note,
		}
	}

	if err := writeWorkbook(w, "Stock Ledger", headers, values); err != nil {
		return err
	}
	telemetry.SetAttributes(span, "rows", len(rows))
	s.logger.Info("Stock ledger exported", zap.Int("rows", len(rows)))
	return nil
}

func writeWorkbook(w io.Writer, sheet string, headers []string, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return err
	}

	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 18); err != nil {
		return err
	}
	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}
	return f.Write(w)
}

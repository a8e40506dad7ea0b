// Package report renders a core.ReportModel into an Excel workbook: one
// summary sheet with the ranked risk inventory, one user-permission sheet,
// and one sheet per audited database.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/seclens/dbaudit/core"
)

const (
	sheetNameRisks  = "审计结果"
	sheetNameGrants = "用户权限"
)

// riskColumns is the header row of the 审计结果 sheet.
var riskColumns = []string{
	"风险类型", "风险等级", "检查项", "表名", "字段名",
	"敏感类型", "风险描述", "检测值", "记录总数", "建议",
}

// grantPrivileges are the privilege columns of the 用户权限 sheet.
var grantPrivileges = []string{
	"SELECT", "INSERT", "UPDATE", "DELETE", "CREATE", "DROP",
	"ALTER", "GRANT", "SUPER", "FILE", "PROCESS", "RELOAD", "SHUTDOWN",
}

// tableColumns is the header row of each per-database sheet.
var tableColumns = []string{"表名", "字段名和值", "敏感信息", "敏感信息确认", "总条数"}

// ExcelWriter renders report models to `{datasource}_{timestamp}.xlsx` files
// under its output directory.
type ExcelWriter struct {
	outputDir string
}

// NewExcelWriter creates a writer that saves workbooks into dir.
func NewExcelWriter(dir string) *ExcelWriter {
	return &ExcelWriter{outputDir: dir}
}

// Write renders the model and returns the saved file path.
func (w *ExcelWriter) Write(ctx context.Context, model *core.ReportModel) (string, error) {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	g := &workbookGenerator{
		model:    model,
		workbook: excelize.NewFile(),
		styles:   make(map[string]int),
	}

	if err := g.generate(); err != nil {
		return "", err
	}

	fileName := fmt.Sprintf("%s_%s.xlsx", model.Datasource, model.GeneratedAt.Format("20060102_150405"))
	path := filepath.Join(w.outputDir, fileName)
	if err := g.workbook.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save report workbook: %w", err)
	}
	return path, nil
}

type workbookGenerator struct {
	model    *core.ReportModel
	workbook *excelize.File
	styles   map[string]int
}

func (g *workbookGenerator) generate() error {
	if err := g.createStyles(); err != nil {
		return err
	}
	if err := g.generateRiskSheet(); err != nil {
		return err
	}
	if err := g.generateGrantSheet(); err != nil {
		return err
	}
	for _, database := range g.model.Databases() {
		if err := g.generateDatabaseSheet(database); err != nil {
			return err
		}
	}

	idx, _ := g.workbook.GetSheetIndex(sheetNameRisks)
	g.workbook.SetActiveSheet(idx)
	return nil
}

func (g *workbookGenerator) createStyles() error {
	header, err := g.workbook.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	g.styles["header"] = header

	highRow, err := g.workbook.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFCCCC"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create high-risk style: %w", err)
	}
	g.styles["highRow"] = highRow

	highLevel, err := g.workbook.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#CC0000"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFCCCC"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create high-level style: %w", err)
	}
	g.styles["highLevel"] = highLevel

	mediumRow, err := g.workbook.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFFFCC"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create medium-risk style: %w", err)
	}
	g.styles["mediumRow"] = mediumRow

	mediumLevel, err := g.workbook.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FF6600"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFFFCC"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create medium-level style: %w", err)
	}
	g.styles["mediumLevel"] = mediumLevel

	redBold, err := g.workbook.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FF0000"},
	})
	if err != nil {
		return fmt.Errorf("failed to create red-bold style: %w", err)
	}
	g.styles["redBold"] = redBold

	link, err := g.workbook.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "#0000FF", Underline: "single"},
	})
	if err != nil {
		return fmt.Errorf("failed to create link style: %w", err)
	}
	g.styles["link"] = link

	return nil
}

func (g *workbookGenerator) generateRiskSheet() error {
	g.workbook.SetSheetName("Sheet1", sheetNameRisks)
	g.writeHeader(sheetNameRisks, riskColumns)

	row := 2
	for _, rec := range g.model.Risks {
		subject := rec.Database
		if rec.RiskType == core.RiskPermission {
			subject = rec.Subject
		}
		affected := "-"
		if rec.RiskType == core.RiskSensitiveData {
			affected = fmt.Sprintf("%d", rec.AffectedCount)
		}

		g.writeRow(sheetNameRisks, row, []any{
			rec.RiskType.String(), rec.Severity.String(), subject,
			rec.Table, rec.Field, rec.Category, rec.Description,
			rec.SampleValue, affected, rec.Recommendation,
		})
		g.styleRiskRow(row, rec.Severity)
		g.linkSubjectCell(row, subject, rec.RiskType)
		row++
	}

	// Sampling failures follow the ranked records as informational notes.
	for _, skip := range g.model.Skipped {
		g.writeRow(sheetNameRisks, row, []any{
			"信息", "-", skip.Database, skip.Table, "-", "-",
			fmt.Sprintf("表采样失败，已在报告中省略: %s", skip.Reason),
			"-", "-", "人工确认该表是否可访问",
		})
		row++
	}

	return nil
}

// styleRiskRow colors the whole row by severity and emphasizes the level
// cell.
func (g *workbookGenerator) styleRiskRow(row int, severity core.Severity) {
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(len(riskColumns), row)
	level, _ := excelize.CoordinatesToCellName(2, row)

	switch severity {
	case core.SeverityHigh:
		g.workbook.SetCellStyle(sheetNameRisks, first, last, g.styles["highRow"])
		g.workbook.SetCellStyle(sheetNameRisks, level, level, g.styles["highLevel"])
	case core.SeverityMedium:
		g.workbook.SetCellStyle(sheetNameRisks, first, last, g.styles["mediumRow"])
		g.workbook.SetCellStyle(sheetNameRisks, level, level, g.styles["mediumLevel"])
	}
}

// linkSubjectCell points the 检查项 cell at the matching detail sheet.
func (g *workbookGenerator) linkSubjectCell(row int, subject string, riskType core.RiskType) {
	target := sheetName(subject)
	if riskType == core.RiskPermission {
		target = sheetNameGrants
	}
	if target == "" {
		return
	}

	cell, _ := excelize.CoordinatesToCellName(3, row)
	g.workbook.SetCellHyperLink(sheetNameRisks, cell,
		fmt.Sprintf("'%s'!A1", target), "Location")
	g.workbook.SetCellStyle(sheetNameRisks, cell, cell, g.styles["link"])
}

func (g *workbookGenerator) generateGrantSheet() error {
	g.workbook.NewSheet(sheetNameGrants)

	headers := append([]string{"用户名", "主机", "权限范围"}, grantPrivileges...)
	g.writeHeader(sheetNameGrants, headers)

	for i, grant := range g.model.Grants {
		row := i + 2
		cells := []any{grant.User, grant.Host, grant.Scope}
		for _, priv := range grantPrivileges {
			if grant.HasPrivilege(priv) {
				cells = append(cells, "是")
			} else {
				cells = append(cells, "否")
			}
		}
		g.writeRow(sheetNameGrants, row, cells)

		// Granted privileges render red and bold.
		for col := 4; col < 4+len(grantPrivileges); col++ {
			if cells[col-1] == "是" {
				cell, _ := excelize.CoordinatesToCellName(col, row)
				g.workbook.SetCellStyle(sheetNameGrants, cell, cell, g.styles["redBold"])
			}
		}
	}

	return nil
}

func (g *workbookGenerator) generateDatabaseSheet(database string) error {
	name := sheetName(database)
	g.workbook.NewSheet(name)
	g.writeHeader(name, tableColumns)

	row := 2
	for _, summary := range g.model.TablesOf(database) {
		confirmed := "否"
		if summary.Confirmed {
			confirmed = "是"
		}

		g.writeRow(name, row, []any{
			summary.Table,
			jsonCell(summary.SampledValues),
			jsonCell(findingsPayload(summary)),
			confirmed,
			summary.RowCount,
		})

		if summary.Confirmed {
			cell, _ := excelize.CoordinatesToCellName(4, row)
			g.workbook.SetCellStyle(name, cell, cell, g.styles["redBold"])
		}
		row++
	}

	for _, skip := range g.model.SkippedOf(database) {
		g.writeRow(name, row, []any{
			skip.Table,
			jsonCell(map[string]string{"error": skip.Reason}),
			"{}",
			"否",
			0,
		})
		row++
	}

	return nil
}

func (g *workbookGenerator) writeHeader(sheet string, headers []string) {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		g.workbook.SetCellValue(sheet, cell, h)
		g.workbook.SetCellStyle(sheet, cell, cell, g.styles["header"])
	}
}

func (g *workbookGenerator) writeRow(sheet string, row int, values []any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		g.workbook.SetCellValue(sheet, cell, v)
	}
}

// findingsPayload is the JSON cell content describing detections per rule and
// field.
func findingsPayload(summary core.TableSensitivitySummary) map[string]map[string]map[string]any {
	payload := make(map[string]map[string]map[string]any, len(summary.Findings))
	for rule, byField := range summary.Findings {
		fields := make(map[string]map[string]any, len(byField))
		for field, det := range byField {
			fields[field] = map[string]any{
				"value":       core.DisplayValue(det.SampleValue),
				"field_match": det.FieldMatch,
				"value_match": det.ValueMatch,
				"confirmed":   det.Confirmed,
			}
		}
		payload[rule] = fields
	}
	return payload
}

func jsonCell(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// sheetName truncates to the Excel 31-character sheet name limit.
func sheetName(name string) string {
	runes := []rune(name)
	if len(runes) > 31 {
		return string(runes[:31])
	}
	return name
}

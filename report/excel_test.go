package report

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/seclens/dbaudit/core"
)

func testModel(t *testing.T) *core.ReportModel {
	t.Helper()

	catalog := core.DefaultCatalog()
	agg := core.NewAggregator(catalog)

	summary := agg.ScanTable(core.TableSample{
		Database: "appdb",
		Table:    "user_info",
		RowCount: 5000,
		Fields:   []string{"id", "phone"},
		Rows: []map[string]string{
			{"id": "1", "phone": "13812345678"},
		},
	})

	grants := []core.GrantRow{
		{User: "root", Host: "localhost", Scope: core.GlobalScope,
			Privileges: []string{"SELECT", "INSERT", "SUPER"}},
		{User: "readonly", Host: "10.0.0.9", Scope: core.GlobalScope,
			Privileges: []string{"SELECT"}},
	}

	skipped := []core.SkippedTable{
		{Database: "appdb", Table: "broken_view", Reason: "definer is missing"},
	}

	return agg.BuildReport("prod-mysql", []core.TableSensitivitySummary{summary}, grants, skipped)
}

func TestExcelWriterWrite(t *testing.T) {
	dir := t.TempDir()
	writer := NewExcelWriter(dir)
	model := testModel(t)

	path, err := writer.Write(context.Background(), model)
	require.NoError(t, err)

	want := filepath.Join(dir,
		"prod-mysql_"+model.GeneratedAt.Format("20060102_150405")+".xlsx")
	assert.Equal(t, want, path)

	wb, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer wb.Close()

	sheets := wb.GetSheetList()
	assert.Contains(t, sheets, "审计结果")
	assert.Contains(t, sheets, "用户权限")
	assert.Contains(t, sheets, "appdb")

	t.Run("risk sheet header and first record", func(t *testing.T) {
		head, err := wb.GetCellValue("审计结果", "A1")
		require.NoError(t, err)
		assert.Equal(t, "风险类型", head)

		riskType, err := wb.GetCellValue("审计结果", "A2")
		require.NoError(t, err)
		assert.Equal(t, "敏感信息", riskType)

		level, err := wb.GetCellValue("审计结果", "B2")
		require.NoError(t, err)
		assert.Equal(t, "高", level)

		// Detected values appear masked.
		value, err := wb.GetCellValue("审计结果", "H2")
		require.NoError(t, err)
		assert.Equal(t, "138******78", value)
	})

	t.Run("skipped table appears as a note", func(t *testing.T) {
		found := false
		rows, err := wb.GetRows("审计结果")
		require.NoError(t, err)
		for _, row := range rows {
			if len(row) > 3 && row[3] == "broken_view" {
				found = true
				assert.Equal(t, "信息", row[0])
				assert.Contains(t, row[6], "definer is missing")
			}
		}
		assert.True(t, found)
	})

	t.Run("grant sheet flags privileges", func(t *testing.T) {
		user, err := wb.GetCellValue("用户权限", "A2")
		require.NoError(t, err)
		assert.Equal(t, "root", user)

		// SELECT is the first privilege column.
		sel, err := wb.GetCellValue("用户权限", "D2")
		require.NoError(t, err)
		assert.Equal(t, "是", sel)

		drop, err := wb.GetCellValue("用户权限", "I2")
		require.NoError(t, err)
		assert.Equal(t, "否", drop)
	})

	t.Run("database sheet carries table detail", func(t *testing.T) {
		table, err := wb.GetCellValue("appdb", "A2")
		require.NoError(t, err)
		assert.Equal(t, "user_info", table)

		confirmed, err := wb.GetCellValue("appdb", "D2")
		require.NoError(t, err)
		assert.Equal(t, "是", confirmed)

		findings, err := wb.GetCellValue("appdb", "C2")
		require.NoError(t, err)
		assert.Contains(t, findings, "手机号")
		assert.Contains(t, findings, `"confirmed":true`)
	})
}

func TestExcelWriterCreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "reports")
	writer := NewExcelWriter(dir)

	_, err := writer.Write(context.Background(), testModel(t))
	require.NoError(t, err)
}

func TestSheetNameTruncation(t *testing.T) {
	long := strings.Repeat("库", 40)
	got := sheetName(long)
	assert.Equal(t, 31, len([]rune(got)))

	assert.Equal(t, "appdb", sheetName("appdb"))
}

func TestReportFileNameUsesGeneratedAt(t *testing.T) {
	model := testModel(t)
	stamp := model.GeneratedAt.Format("20060102_150405")
	_, err := time.Parse("20060102_150405", stamp)
	assert.NoError(t, err)
}

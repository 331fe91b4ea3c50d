package interfaces

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"envecom-simulator/internal/compensation/application"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// BuildReportPDF renders the compensation report and its projection as an A4 PDF.
func BuildReportPDF(sim *application.Simulation) ([]byte, error) {
	if sim == nil {
		return nil, errors.New("report export: nil simulation")
	}
	report := sim.Report
	id := report.Identification

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Relatório de Compensação", true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 8, tr("Relatório de Compensação de Energia"))
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 8)
	pdf.Cell(0, 5, tr(fmt.Sprintf("Simulação %s gerada em %s", sim.ID, sim.GeneratedAt.Format(time.RFC3339))))
	pdf.Ln(8)

	section := func(title string) {
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(0, 7, tr(title))
		pdf.Ln(7)
		pdf.SetFont("Arial", "", 10)
	}
	field := func(label, value string) {
		pdf.CellFormat(60, 6, tr(label), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, tr(value), "", 1, "L", false, 0, "")
	}

	section("1. Identificação do Projeto")
	field("Cliente", id.Client)
	field("Unidade consumidora", id.ConsumerUnit)
	field("Distribuidora", id.Distributor)
	field("Mês de referência", id.ReferenceMonth)
	field("Tipo de ligação", id.Connection.Label())
	pdf.Ln(3)

	section("2. Caracterização do Consumo")
	field("Consumo total", FormatKWh(report.Consumption.TotalKWh))
	field("Consumo mínimo (custo de disponibilidade)", FormatKWh(report.Consumption.MinimumKWh))
	field("Energia compensada", FormatKWh(report.Consumption.CompensableKWh))
	pdf.Ln(3)

	section("3. Detalhamento da Compensação")
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(70, 6, tr("Descrição"), "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, tr("Consumo"), "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, tr("Tarifa"), "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, tr("Valor"), "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, item := range report.LineItems {
		pdf.CellFormat(70, 6, tr(item.Label), "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, tr(FormatKWh(item.KWh)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, tr(FormatTariff(item.Rate)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, tr(FormatCurrency(item.Value)), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(140, 6, tr("Valor total do crédito"), "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 6, tr(FormatCurrency(report.Summary.CreditTotal)), "1", 0, "R", false, 0, "")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)
	field("Economia mensal do associado", FormatCurrency(report.Summary.MemberShare))
	field("Repasse à associação", FormatCurrency(report.Summary.AssociationShare))
	pdf.Ln(3)

	section("4. Resumo Comparativo Global")
	field("Fatura atual (sem compensação)", FormatCurrency(report.Comparison.CurrentInvoice))
	field("Novo total final", FormatCurrency(report.Comparison.NewFinalTotal))
	field("Redução", FormatPercent(report.Summary.ReductionPct))
	pdf.Ln(3)

	section("Projeção de Economia Acumulada")
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(40, 6, tr("Mês"), "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, tr("Acumulado"), "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, point := range sim.Projection.Points {
		pdf.CellFormat(40, 6, tr(point.Label), "1", 0, "C", false, 0, "")
		pdf.CellFormat(50, 6, tr(FormatCurrency(point.Accumulated)), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(40, 6, tr("Economia anual"), "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, tr(FormatCurrency(sim.Projection.AnnualSaving)), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	if report.Notes != "" {
		pdf.Ln(4)
		section("Observações")
		pdf.MultiCell(0, 5, tr(report.Notes), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildReportXLSX renders the report into the resumo, itens and projecao sheets.
func BuildReportXLSX(sim *application.Simulation) ([]byte, error) {
	if sim == nil {
		return nil, errors.New("report export: nil simulation")
	}
	report := sim.Report
	id := report.Identification

	f := excelize.NewFile()
	defer f.Close()
	summarySheet := "resumo"
	itemsSheet := "itens"
	projectionSheet := "projecao"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	for _, sheet := range []string{itemsSheet, projectionSheet} {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}

	summary := [][2]any{
		{"Relatório de Compensação", sim.ID},
		{"Gerado em", sim.GeneratedAt.Format(time.RFC3339)},
		{"Cliente", id.Client},
		{"Unidade consumidora", id.ConsumerUnit},
		{"Distribuidora", id.Distributor},
		{"Mês de referência", id.ReferenceMonth},
		{"Tipo de ligação", id.Connection.Label()},
		{"Consumo total (kWh)", report.Consumption.TotalKWh},
		{"Consumo mínimo (kWh)", report.Consumption.MinimumKWh},
		{"Energia compensada (kWh)", report.Consumption.CompensableKWh},
		{"Valor total do crédito", report.Summary.CreditTotal},
		{"Economia mensal do associado", report.Summary.MemberShare},
		{"Repasse à associação", report.Summary.AssociationShare},
		{"Fatura atual", report.Comparison.CurrentInvoice},
		{"Novo total final", report.Comparison.NewFinalTotal},
		{"Redução (%)", report.Summary.ReductionPct},
		{"Economia anual", sim.Projection.AnnualSaving},
	}
	for i, row := range summary {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", i+1), row[0])
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", i+1), row[1])
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 34)

	_ = f.SetCellValue(itemsSheet, "A1", "Descrição")
	_ = f.SetCellValue(itemsSheet, "B1", "Consumo (kWh)")
	_ = f.SetCellValue(itemsSheet, "C1", "Tarifa")
	_ = f.SetCellValue(itemsSheet, "D1", "Valor")
	for i, item := range report.LineItems {
		row := i + 2
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("A%d", row), item.Label)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("B%d", row), item.KWh)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("C%d", row), item.Rate)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("D%d", row), item.Value)
	}
	_ = f.SetColWidth(itemsSheet, "A", "A", 28)

	_ = f.SetCellValue(projectionSheet, "A1", "Mês")
	_ = f.SetCellValue(projectionSheet, "B1", "Acumulado")
	for i, point := range sim.Projection.Points {
		row := i + 2
		_ = f.SetCellValue(projectionSheet, fmt.Sprintf("A%d", row), point.Label)
		_ = f.SetCellValue(projectionSheet, fmt.Sprintf("B%d", row), point.Accumulated)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

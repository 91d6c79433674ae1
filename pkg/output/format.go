// Package output provides utilities for formatting and displaying project
// reports.
package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/iwvelando/construction-pricing/internal/report"
	"github.com/iwvelando/construction-pricing/pkg/constants"
	"github.com/iwvelando/construction-pricing/pkg/format"
	"github.com/iwvelando/construction-pricing/pkg/plan"
	"github.com/iwvelando/construction-pricing/pkg/pricing"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Sheet names, in export order.
const (
	SheetFinancials = "Análise Financeira"
	SheetBDI        = "Composição do BDI"
	SheetMatrix     = "Matriz de Investimento"
	SheetABC        = "Curva ABC"
	SheetPhases     = "Distribuição por Etapa"
	SheetEvolution  = "Evolução do Custo"
)

func newPrinter() *message.Printer {
	return message.NewPrinter(language.BrazilianPortuguese)
}

// PrettyFormat writes a human-readable rather than machine-readable report.
func PrettyFormat(w io.Writer, rep report.Report) error {
	p := newPrinter()
	brl := format.SafeCurrency
	var err error
	printf := func(layout string, args ...interface{}) {
		if err == nil {
			_, err = p.Fprintf(w, layout, args...)
		}
	}

	fin := rep.Financials
	printf("--- %s: %s ---\n", SheetFinancials, rep.Name)
	if rep.Client != "" {
		printf("Cliente            | %s\n", rep.Client)
	}
	printf("Custo Direto       | %s\n", brl(fin.DirectCost))
	printf("Duração            | %.1f meses\n", rep.DurationMonths)
	if priceErr := fin.Err(); priceErr != nil {
		printf("Preço de Venda     | %s\n", priceErr.Error())
	} else {
		printf("BDI                | %s\n", format.Percent(fin.BDIPercent(), 2))
		printf("Preço de Venda     | %s\n", brl(fin.FinalPrice))
		printf("Margem Bruta       | %s\n", brl(fin.GrossMargin))
		printf("Custos Indiretos   | %s\n", brl(fin.IndirectCostsValue))
		printf("EBITDA             | %s\n", brl(fin.EBITDA))
		printf("Impostos           | %s\n", brl(fin.TaxesValue))
		printf("Lucro Líquido      | %s\n", brl(fin.NetProfit))
		printf("ROI                | %s\n", format.Percent(fin.ROI, 2))
	}
	if fin.Status == pricing.StatusNoCost {
		printf("Nenhum custo direto cadastrado\n")
	}

	printf("\n--- %s ---\n", SheetMatrix)
	printf("Taxa de juros: %s a.a.\n", format.Percent(rep.Matrix.AnnualInterestRatePercent, 2))
	for _, level := range rep.Matrix.Levels {
		printf("\n%s (%s financiado)\n", level.Label, brl(level.FinancedAmount))
		for _, row := range level.Scenarios {
			if rowErr := row.Status.Err(); rowErr != nil {
				printf("%s | %s\n", row.Label, rowErr.Error())
				continue
			}
			printf("%s | Venda %s | Lucro %s\n", row.Label, brl(row.SalePrice), brl(row.NetProfit))
			for i, cell := range row.Cells {
				if cell.OutOfRange {
					printf("    %s | %s\n", rep.Matrix.SaleTimings[i].Label, constants.InvalidDisplay)
					continue
				}
				printf("    %s | Juros %s | Lucro Final %s | ROI %s\n",
					rep.Matrix.SaleTimings[i].Label, brl(cell.Interest), brl(cell.FinalProfit), format.Percent(cell.ROI, 2))
			}
		}
	}

	if !rep.ABC.Empty() {
		printf("\n--- %s ---\n", SheetABC)
		printf("Classe | Tarefa | Custo | Peso | Acumulado\n")
		printf("______ | ______ | _____ | ____ | _________\n")
		for _, item := range rep.ABC.Items {
			printf("%s | %s | %s | %s | %s\n", item.Class, item.TaskName, brl(item.TotalCost),
				format.Percent(item.Weight, 2), format.Percent(item.CumulativePercent, 2))
		}
		for _, class := range []string{plan.ClassA, plan.ClassB, plan.ClassC} {
			summary := rep.ABC.Summary[class]
			printf("Classe %s: %d tarefas, %s\n", class, summary.Count, brl(summary.Cost))
		}
	}

	if len(rep.Evolution) > 0 {
		printf("\n--- %s ---\n", SheetEvolution)
		printf("Mês     | Custo | Acumulado | Tarefas\n")
		for _, point := range rep.Evolution {
			printf("%s | %s | %s | %s\n", point.Month, brl(point.Cost), brl(point.Cumulative), strings.Join(point.Notes, ","))
		}
	}

	if len(rep.Warnings) > 0 {
		printf("\n--- Avisos ---\n")
		for _, warning := range rep.Warnings {
			printf("- %s\n", warning)
		}
	}
	return err
}

// CsvFormat writes the report as semicolon-separated sheets with pt-BR
// decimals. Each sheet starts with a row holding its name and ends with an
// empty row.
func CsvFormat(w io.Writer, rep report.Report) error {
	writer := csv.NewWriter(w)
	writer.Comma = ';'

	for _, sheet := range sheets(rep) {
		if err := writer.Write([]string{sheet.name}); err != nil {
			return err
		}
		if err := writer.WriteAll(sheet.rows); err != nil {
			return err
		}
		if err := writer.Write([]string{""}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// CsvString returns the CSV export of the report.
func CsvString(rep report.Report) (string, error) {
	var buf bytes.Buffer
	if err := CsvFormat(&buf, rep); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type sheet struct {
	name string
	rows [][]string
}

func sheets(rep report.Report) []sheet {
	return []sheet{
		{SheetFinancials, financialRows(rep)},
		{SheetBDI, bdiRows(rep)},
		{SheetMatrix, matrixRows(rep.Matrix)},
		{SheetABC, abcRows(rep.ABC)},
		{SheetPhases, phaseRows(rep.Phases)},
		{SheetEvolution, evolutionRows(rep.Evolution)},
	}
}

func money(v float64) string {
	return format.Decimal(v, 2)
}

func financialRows(rep report.Report) [][]string {
	fin := rep.Financials
	rows := [][]string{
		{"Projeto", rep.Name},
		{"Cliente", rep.Client},
		{"Custo Direto", money(fin.DirectCost)},
		{"Duração (meses)", format.Decimal(rep.DurationMonths, 2)},
	}
	if err := fin.Err(); err != nil {
		return append(rows, []string{"Preço de Venda", err.Error()})
	}
	return append(rows,
		[]string{"BDI (%)", format.Decimal(fin.BDIPercent(), 2)},
		[]string{"Preço de Venda", money(fin.FinalPrice)},
		[]string{"Margem Bruta", money(fin.GrossMargin)},
		[]string{"Custos Indiretos", money(fin.IndirectCostsValue)},
		[]string{"EBITDA", money(fin.EBITDA)},
		[]string{"Impostos", money(fin.TaxesValue)},
		[]string{"Lucro Líquido", money(fin.NetProfit)},
		[]string{"ROI (%)", format.Decimal(fin.ROI, 2)},
	)
}

func bdiRows(rep report.Report) [][]string {
	rows := [][]string{{"Grupo", "Componente", "Percentual (%)"}}
	for _, group := range []struct {
		label      string
		components map[string]string
	}{
		{"Custos Indiretos", rep.IndirectCosts},
		{"Impostos", rep.Taxes},
	} {
		names := make([]string, 0, len(group.components))
		for name := range group.components {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			percent := pricing.ParsePercent(group.components[name]) * constants.PercentageMultiplier
			rows = append(rows, []string{group.label, name, format.Decimal(percent, 2)})
		}
	}

	fin := rep.Financials
	return append(rows,
		[]string{"Lucro", "Margem Líquida", format.Decimal(rep.MarginPercent, 2)},
		[]string{"Total", "Custos Indiretos", format.Decimal(fin.TotalIndirect*constants.PercentageMultiplier, 2)},
		[]string{"Total", "Impostos", format.Decimal(fin.TotalTaxes*constants.PercentageMultiplier, 2)},
		[]string{"Total", "BDI", format.Decimal(fin.BDIPercent(), 2)},
	)
}

func matrixRows(m pricing.Matrix) [][]string {
	header := []string{"Cenário", "Preço de Venda", "Lucro Líquido", "EBITDA"}
	for _, timing := range m.SaleTimings {
		header = append(header,
			fmt.Sprintf("%s - Juros", timing.Label),
			fmt.Sprintf("%s - Lucro Final", timing.Label),
			fmt.Sprintf("%s - ROI (%%)", timing.Label),
		)
	}

	rows := [][]string{{"Taxa de Juros (% a.a.)", format.Decimal(m.AnnualInterestRatePercent, 2)}}
	for _, level := range m.Levels {
		rows = append(rows, []string{level.Label, money(level.FinancedAmount)}, header)
		for _, row := range level.Scenarios {
			if err := row.Status.Err(); err != nil {
				rows = append(rows, []string{row.Label, err.Error()})
				continue
			}
			record := []string{row.Label, money(row.SalePrice), money(row.NetProfit), money(row.EBITDA)}
			for _, cell := range row.Cells {
				if cell.OutOfRange {
					record = append(record, constants.InvalidDisplay, constants.InvalidDisplay, constants.InvalidDisplay)
					continue
				}
				record = append(record, money(cell.Interest), money(cell.FinalProfit), format.Decimal(cell.ROI, 2))
			}
			rows = append(rows, record)
		}
	}
	return rows
}

func abcRows(curve plan.ABCCurve) [][]string {
	rows := [][]string{{"Classe", "Tarefa", "Etapa", "Custo", "Peso (%)", "Acumulado (%)"}}
	for _, item := range curve.Items {
		rows = append(rows, []string{
			item.Class,
			item.TaskName,
			item.Phase,
			money(item.TotalCost),
			format.Decimal(item.Weight, 2),
			format.Decimal(item.CumulativePercent, 2),
		})
	}
	return rows
}

func phaseRows(phases []plan.PhaseCost) [][]string {
	rows := [][]string{{"Etapa", "Percentual (%)", "Custo"}}
	for _, phase := range phases {
		rows = append(rows, []string{phase.Name, format.Decimal(phase.Percent, 2), money(phase.Cost)})
	}
	return rows
}

func evolutionRows(points []report.EvolutionPoint) [][]string {
	rows := [][]string{{"Mês", "Custo", "Acumulado", "Tarefas"}}
	for _, point := range points {
		rows = append(rows, []string{point.Month, money(point.Cost), money(point.Cumulative), strings.Join(point.Notes, ", ")})
	}
	return rows
}

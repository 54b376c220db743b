package http

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	rounds "lantern-backend/internal/rounds/domain"
)

// BuildStandingsPDF renders team standings as a one-page PDF table.
func BuildStandingsPDF(teams []rounds.Team, round *rounds.Round, generated time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Team Standings")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	if round != nil {
		pdf.Cell(0, 6, fmt.Sprintf("Round: %d (%s)", round.RoundID, round.Status()))
		pdf.Ln(5)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", generated.Format(time.RFC3339)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(15, 6, "#", "1", 0, "C", false, 0, "")
	pdf.CellFormat(70, 6, "Team", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Short", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Active", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Points", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for i, team := range teams {
		pdf.CellFormat(15, 6, fmt.Sprintf("%d", i+1), "1", 0, "C", false, 0, "")
		pdf.CellFormat(70, 6, team.TeamName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, team.ShortName, "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, yesNo(team.IsActive), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%d", team.Points), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildStandingsXLSX renders team standings with a summary and a teams sheet.
func BuildStandingsXLSX(teams []rounds.Team, round *rounds.Round, generated time.Time) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	teamsSheet := "teams"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(teamsSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(summarySheet, "A1", "Team Standings")
	_ = f.SetCellValue(summarySheet, "A3", "Generated")
	_ = f.SetCellValue(summarySheet, "B3", generated.Format(time.RFC3339))
	_ = f.SetCellValue(summarySheet, "A4", "Teams")
	_ = f.SetCellValue(summarySheet, "B4", len(teams))
	if round != nil {
		_ = f.SetCellValue(summarySheet, "A5", "Round")
		_ = f.SetCellValue(summarySheet, "B5", round.RoundID)
		_ = f.SetCellValue(summarySheet, "A6", "Status")
		_ = f.SetCellValue(summarySheet, "B6", round.Status())
	}

	_ = f.SetCellValue(teamsSheet, "A1", "Rank")
	_ = f.SetCellValue(teamsSheet, "B1", "Team")
	_ = f.SetCellValue(teamsSheet, "C1", "Short Name")
	_ = f.SetCellValue(teamsSheet, "D1", "Active")
	_ = f.SetCellValue(teamsSheet, "E1", "Points")
	for i, team := range teams {
		row := i + 2
		_ = f.SetCellValue(teamsSheet, fmt.Sprintf("A%d", row), i+1)
		_ = f.SetCellValue(teamsSheet, fmt.Sprintf("B%d", row), team.TeamName)
		_ = f.SetCellValue(teamsSheet, fmt.Sprintf("C%d", row), team.ShortName)
		_ = f.SetCellValue(teamsSheet, fmt.Sprintf("D%d", row), team.IsActive)
		_ = f.SetCellValue(teamsSheet, fmt.Sprintf("E%d", row), team.Points)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

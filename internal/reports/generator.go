package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/fitcoach/diet-hub/internal/dietprogress"
	"github.com/fitcoach/diet-hub/internal/storage"
	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
)

// Generator renders PDF and CSV progress reports from an assignment's
// daily logs and computed statistics.
type Generator struct {
	assignments storage.PlanAssignmentsStorage
	plans       storage.NutritionPlansStorage
	dailyLogs   storage.DailyLogsStorage
	progress    *dietprogress.Service
}

func NewGenerator(
	assignments storage.PlanAssignmentsStorage,
	plans storage.NutritionPlansStorage,
	dailyLogs storage.DailyLogsStorage,
	progress *dietprogress.Service,
) *Generator {
	return &Generator{
		assignments: assignments,
		plans:       plans,
		dailyLogs:   dailyLogs,
		progress:    progress,
	}
}

// GenerateReport renders a report and returns the file bytes.
func (g *Generator) GenerateReport(ctx context.Context, assignmentID uuid.UUID, format string) ([]byte, error) {
	assignment, found, err := g.assignments.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("load assignment: %w", err)
	}
	if !found {
		return nil, ErrAssignmentNotFound
	}

	planTitle := ""
	if plan, found, err := g.plans.GetPlan(ctx, assignment.PlanID); err == nil && found {
		planTitle = plan.Title
	}

	logs, err := g.dailyLogs.ListDailyLogs(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("load daily logs: %w", err)
	}

	stats, err := g.progress.ComputeStats(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("compute stats: %w", err)
	}

	switch format {
	case FormatPDF:
		return g.generatePDF(assignment, planTitle, logs, stats)
	case FormatCSV:
		return g.generateCSV(logs)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func (g *Generator) generateCSV(logs []storage.DailyLog) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"date", "day_number",
		"target_calories", "total_calories", "calorie_variance",
		"target_protein", "total_protein",
		"target_carbs", "total_carbs",
		"target_fat", "total_fat",
		"completed_meals", "total_meals", "completion_rate", "is_completed",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, dl := range logs {
		row := []string{
			dl.Date.Format(time.DateOnly),
			strconv.Itoa(dl.DayNumber),
			formatMacro(dl.TargetCalories),
			formatMacro(dl.TotalCalories),
			formatMacro(dl.CalorieVariance),
			formatMacro(dl.TargetProtein),
			formatMacro(dl.TotalProtein),
			formatMacro(dl.TargetCarbs),
			formatMacro(dl.TotalCarbs),
			formatMacro(dl.TargetFat),
			formatMacro(dl.TotalFat),
			strconv.Itoa(dl.CompletedMeals),
			strconv.Itoa(dl.TotalMeals),
			fmt.Sprintf("%.1f", dl.CompletionRate),
			strconv.FormatBool(dl.IsCompleted),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) generatePDF(assignment *storage.PlanAssignment, planTitle string, logs []storage.DailyLog, stats dietprogress.ProgressStats) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "Diet Plan Progress Report")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 12)
	if planTitle != "" {
		pdf.Cell(0, 8, fmt.Sprintf("Plan: %s", planTitle))
		pdf.Ln(6)
	}
	pdf.Cell(0, 8, fmt.Sprintf("Status: %s", assignment.Status))
	pdf.Ln(6)
	if assignment.StartDate != nil && assignment.EndDate != nil {
		pdf.Cell(0, 8, fmt.Sprintf("Period: %s to %s",
			assignment.StartDate.Format(time.DateOnly),
			assignment.EndDate.Format(time.DateOnly)))
		pdf.Ln(6)
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Days completed: %d of %d", stats.CompletedDays, stats.TotalDays))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Success rate: %.1f%%", stats.SuccessRate))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Average completion rate: %.1f%%", stats.AverageCompletionRate))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Consistency score: %.1f", stats.ConsistencyScore))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Adherence score: %.1f", stats.AdherenceScore))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Average intake: %.0f kcal, %.1fg protein, %.1fg carbs, %.1fg fat",
		stats.AverageCalories, stats.AverageProtein, stats.AverageCarbs, stats.AverageFat))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Best day: %s    Worst day: %s",
		formatDay(stats.BestDay), formatDay(stats.WorstDay)))
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 8, "Daily Breakdown")
	pdf.Ln(8)

	g.drawDailyTable(pdf, logs)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *Generator) drawDailyTable(pdf *gofpdf.Fpdf, logs []storage.DailyLog) {
	pdf.SetFont("Arial", "B", 8)
	pdf.CellFormat(24, 6, "Date", "1", 0, "C", false, 0, "")
	pdf.CellFormat(12, 6, "Day", "1", 0, "C", false, 0, "")
	pdf.CellFormat(24, 6, "Calories", "1", 0, "C", false, 0, "")
	pdf.CellFormat(24, 6, "Protein", "1", 0, "C", false, 0, "")
	pdf.CellFormat(24, 6, "Carbs", "1", 0, "C", false, 0, "")
	pdf.CellFormat(24, 6, "Fat", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Meals", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Done", "1", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 8)
	for _, dl := range logs {
		done := ""
		if dl.IsCompleted {
			done = "yes"
		}
		pdf.CellFormat(24, 6, dl.Date.Format(time.DateOnly), "1", 0, "C", false, 0, "")
		pdf.CellFormat(12, 6, strconv.Itoa(dl.DayNumber), "1", 0, "C", false, 0, "")
		pdf.CellFormat(24, 6, fmt.Sprintf("%.0f / %.0f", dl.TotalCalories, dl.TargetCalories), "1", 0, "C", false, 0, "")
		pdf.CellFormat(24, 6, fmt.Sprintf("%.0f / %.0f", dl.TotalProtein, dl.TargetProtein), "1", 0, "C", false, 0, "")
		pdf.CellFormat(24, 6, fmt.Sprintf("%.0f / %.0f", dl.TotalCarbs, dl.TargetCarbs), "1", 0, "C", false, 0, "")
		pdf.CellFormat(24, 6, fmt.Sprintf("%.0f / %.0f", dl.TotalFat, dl.TargetFat), "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%d/%d", dl.CompletedMeals, dl.TotalMeals), "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, done, "1", 1, "C", false, 0, "")
	}
}

func formatMacro(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func formatDay(t *time.Time) string {
	if t == nil {
		return "n/a"
	}
	return t.Format(time.DateOnly)
}

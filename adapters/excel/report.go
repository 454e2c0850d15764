// Package excel exports search forensics as a workbook for offline review.
package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"goassay/domain/assay"
	"goassay/models"
)

// ReportWriter renders a run record plus its trajectory into an .xlsx file.
type ReportWriter struct{}

// NewReportWriter creates a report writer.
func NewReportWriter() *ReportWriter {
	return &ReportWriter{}
}

// Write produces the workbook at path: a Summary sheet with the governance
// verdict and commit gaps, and a Trajectory sheet with per-step belief data.
func (w *ReportWriter) Write(path string, rec *models.RunRecord, trajectory []*assay.PrefixRolloutResult) error {
	f := excelize.NewFile()
	defer f.Close()

	const summary = "Summary"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return fmt.Errorf("renaming summary sheet: %w", err)
	}

	rows := [][]interface{}{
		{"Run ID", rec.ID},
		{"Session", rec.SessionID},
		{"Seed", rec.Seed},
		{"Final action", rec.FinalAction},
		{"Mechanism", rec.Mechanism},
		{"Reason", rec.Reason},
		{"Best reward", rec.BestReward},
		{"Top probability", rec.TopProbability},
		{"Nuisance probability", rec.NuisanceProbability},
		{"Posterior gap", rec.PosteriorGap},
		{"Nuisance gap", rec.NuisanceGap},
		{"Expanded", rec.Expanded},
		{"Pruned (budget)", rec.PrunedBudget},
		{"Pruned (viability)", rec.PrunedViability},
		{"Pruned (sim error)", rec.PrunedError},
		{"Cache hits", rec.CacheHits},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summary, cell, &row); err != nil {
			return fmt.Errorf("writing summary row %d: %w", i+1, err)
		}
	}

	const traj = "Trajectory"
	if _, err := f.NewSheet(traj); err != nil {
		return fmt.Errorf("creating trajectory sheet: %w", err)
	}
	header := []interface{}{
		"Step", "Action", "Viability", "Top probability", "Margin", "Entropy",
		"Nuisance probability", "Evidence strength", "Mean shift", "Var inflation", "Attribution",
	}
	if err := f.SetSheetRow(traj, "A1", &header); err != nil {
		return fmt.Errorf("writing trajectory header: %w", err)
	}
	for i, step := range trajectory {
		action := ""
		if len(step.Schedule) > 0 {
			action = step.Schedule[len(step.Schedule)-1].String()
		}
		row := []interface{}{
			step.Step,
			action,
			step.Viability,
			step.Posterior.TopProbability(),
			step.Posterior.Margin(),
			step.Posterior.Entropy(),
			step.Posterior.NuisanceProbability(),
			step.EvidenceStrength,
			step.MeanShiftMagnitude,
			step.VarianceInflation,
			string(step.Attribution),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(traj, cell, &row); err != nil {
			return fmt.Errorf("writing trajectory row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving report %s: %w", path, err)
	}
	return nil
}

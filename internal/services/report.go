package services

import (
	"math"
	"time"

	"apontamento/backend/pkg/models"
)

// BuildReport summarises an order's tracking entries. Open sessions count up
// to now. Percentages and rates are rounded to two decimals and are zero when
// their denominator is zero.
func BuildReport(order *models.Order, entries []*models.TrackingEntry, now time.Time) *models.Report {
	r := &models.Report{
		OrderID:     order.ID,
		Status:      order.Status,
		LotQuantity: order.LotQuantity,
		TotalStages: len(order.Stages),
		Sessions:    len(entries),
		Stages:      make([]models.StageReport, 0, len(order.Stages)),
		GeneratedAt: now,
	}

	byStage := make(map[int64]*models.StageReport, len(order.Stages))
	for _, st := range order.Stages {
		completed := st.EndedAt != nil
		if completed {
			r.CompletedStages++
		}
		r.Stages = append(r.Stages, models.StageReport{StageID: st.ID, Name: st.Name, Completed: completed})
	}
	for i := range r.Stages {
		byStage[r.Stages[i].StageID] = &r.Stages[i]
	}

	var total time.Duration
	for _, e := range entries {
		elapsed := e.Elapsed(now)
		total += elapsed
		r.ProcessedQuantity += e.ProcessedQuantity
		r.LostQuantity += e.LostQuantity
		if e.Active() {
			r.ActiveTracking = true
		}
		if sr, ok := byStage[e.StageID]; ok {
			sr.Sessions++
			sr.ElapsedSeconds += int64(elapsed / time.Second)
			sr.ProcessedQuantity += e.ProcessedQuantity
			sr.LostQuantity += e.LostQuantity
		}
	}
	r.TotalElapsedSeconds = int64(total / time.Second)

	if produced := r.ProcessedQuantity + r.LostQuantity; produced > 0 {
		r.YieldPercent = round2(float64(r.ProcessedQuantity) / float64(produced) * 100)
	}
	if hours := total.Hours(); hours > 0 {
		r.UnitsPerHour = round2(float64(r.ProcessedQuantity) / hours)
	}
	if r.LotQuantity > 0 {
		r.CompletionPercent = round2(float64(r.ProcessedQuantity) / float64(r.LotQuantity) * 100)
	}
	return r
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

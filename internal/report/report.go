// Package report renders read-only summaries of producer spending. All
// rounding happens here, at presentation time; stored amounts keep full
// precision.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/shopspring/decimal"

	"ruralstock/pkg/domain"
)

// ProcedureLine is a display row for one committed procedure.
type ProcedureLine struct {
	RecordID       string
	Timestamp      string
	AnimalLabel    string
	Reference      string
	MedicationName string
	TreatedCount   int
	VolumePerHead  string
	CostPerHead    string
	TotalCost      string
}

// ProducerSummary aggregates a producer's procedure spending.
type ProducerSummary struct {
	ProducerID     string
	ProducerName   string
	HerdEntries    int
	ProcedureCount int
	TotalSpent     float64
	Lines          []ProcedureLine
}

// FormatCurrency renders an amount rounded to cents.
func FormatCurrency(v float64) string {
	return "$" + decimal.NewFromFloat(v).StringFixed(2)
}

// FormatVolume renders a volume in milliliters to two decimals.
func FormatVolume(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2) + " mL"
}

const timestampLayout = "2006-01-02 15:04"

// BuildProducerSummary collects every procedure across the producer's herd,
// newest first.
func BuildProducerSummary(p domain.Producer) ProducerSummary {
	summary := ProducerSummary{ProducerID: p.ID, ProducerName: p.Name, HerdEntries: len(p.Animals)}
	var records []domain.ProcedureRecord
	for _, animal := range p.Animals {
		records = append(records, animal.Procedures...)
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].Timestamp.After(records[j].Timestamp)
		}
		return records[i].ID > records[j].ID
	})
	for _, rec := range records {
		summary.TotalSpent += rec.TotalCost
		summary.Lines = append(summary.Lines, ProcedureLine{
			RecordID:       rec.ID,
			Timestamp:      rec.Timestamp.Format(timestampLayout),
			AnimalLabel:    rec.AnimalLabel,
			Reference:      rec.Reference,
			MedicationName: rec.MedicationName,
			TreatedCount:   rec.TreatedCount,
			VolumePerHead:  FormatVolume(rec.VolumePerAnimal),
			CostPerHead:    FormatCurrency(rec.TotalCostPerAnimal),
			TotalCost:      FormatCurrency(rec.TotalCost),
		})
	}
	summary.ProcedureCount = len(records)
	return summary
}

// Render writes the summary as plain text.
func Render(w io.Writer, summary ProducerSummary) error {
	if _, err := fmt.Fprintf(w, "Producer: %s\nHerd entries: %d\nProcedures: %d\nTotal spent: %s\n", summary.ProducerName, summary.HerdEntries, summary.ProcedureCount, FormatCurrency(summary.TotalSpent)); err != nil {
		return err
	}
	for _, line := range summary.Lines {
		if _, err := fmt.Fprintf(w, "%s  %s  %s  ref=%s  %s x%d  %s/head  total %s\n",
			line.Timestamp, line.AnimalLabel, line.MedicationName, line.Reference,
			line.VolumePerHead, line.TreatedCount, line.CostPerHead, line.TotalCost); err != nil {
			return err
		}
	}
	return nil
}

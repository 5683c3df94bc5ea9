// ABOUTME: Pipeline aggregation of deals into ordered stage buckets
// ABOUTME: Conserves deal count via an unrecognized bucket and sums open value

package pipeline

import (
	"math"

	"github.com/harperreed/dealflow/models"
	"github.com/shopspring/decimal"
)

// Bucket holds the deals in one stage and their summed value.
type Bucket struct {
	Deals      []models.Deal   `json:"deals"`
	TotalValue decimal.Decimal `json:"total_value"`
	Count      int             `json:"count"`
}

func (b *Bucket) add(d models.Deal) {
	b.Deals = append(b.Deals, d)
	b.TotalValue = b.TotalValue.Add(d.Value)
	b.Count++
}

// Summary is the pipeline split by stage. Every requested stage has a
// bucket, empty ones included. Deals whose stage is not among the
// requested stages land in Unrecognized.
type Summary struct {
	Stages       []string          `json:"stages"`
	Buckets      map[string]Bucket `json:"buckets"`
	Unrecognized Bucket            `json:"unrecognized"`
}

// Aggregate buckets deals by stage in the order given.
func Aggregate(deals []models.Deal, stages []string) Summary {
	s := Summary{
		Stages:       append([]string(nil), stages...),
		Buckets:      make(map[string]Bucket, len(stages)),
		Unrecognized: Bucket{Deals: []models.Deal{}, TotalValue: decimal.Zero},
	}
	for _, stage := range stages {
		s.Buckets[stage] = Bucket{Deals: []models.Deal{}, TotalValue: decimal.Zero}
	}

	for _, d := range deals {
		b, ok := s.Buckets[d.Stage]
		if !ok {
			s.Unrecognized.add(d)
			continue
		}
		b.add(d)
		s.Buckets[d.Stage] = b
	}

	return s
}

// Bucket returns the bucket for stage, zero-valued if the stage is not tracked.
func (s Summary) Bucket(stage string) Bucket {
	if b, ok := s.Buckets[stage]; ok {
		return b
	}
	return Bucket{Deals: []models.Deal{}, TotalValue: decimal.Zero}
}

// Count is the number of deals across every bucket including Unrecognized.
func (s Summary) Count() int {
	n := s.Unrecognized.Count
	for _, b := range s.Buckets {
		n += b.Count
	}
	return n
}

// OpenValue sums the non-terminal stage buckets.
func (s Summary) OpenValue() decimal.Decimal {
	total := decimal.Zero
	for stage, b := range s.Buckets {
		if !models.IsTerminalStage(stage) {
			total = total.Add(b.TotalValue)
		}
	}
	return total
}

// OpenPipelineValue sums the value of every deal not in a terminal stage.
func OpenPipelineValue(deals []models.Deal) decimal.Decimal {
	total := decimal.Zero
	for _, d := range deals {
		if !models.IsTerminalStage(d.Stage) {
			total = total.Add(d.Value)
		}
	}
	return total
}

// ConversionRate is the rounded percentage of deals closed-won; 0 with no deals.
func ConversionRate(deals []models.Deal) int {
	if len(deals) == 0 {
		return 0
	}
	won := 0
	for _, d := range deals {
		if d.Stage == models.StageClosedWon {
			won++
		}
	}
	return int(math.Round(float64(won) / float64(len(deals)) * 100))
}

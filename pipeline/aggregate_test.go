// ABOUTME: Tests for stage aggregation and pipeline value helpers
// ABOUTME: Checks totals, empty buckets, count conservation and conversion rate

package pipeline

import (
	"testing"

	"github.com/harperreed/dealflow/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func deal(id int64, stage string, value int64) models.Deal {
	return models.Deal{ID: id, Name: "deal", Stage: stage, Value: decimal.NewFromInt(value)}
}

func TestAggregateTotals(t *testing.T) {
	s := Aggregate([]models.Deal{
		deal(1, models.StageLead, 100),
		deal(2, models.StageLead, 50),
	}, models.OrderedStages())

	lead := s.Bucket(models.StageLead)
	assert.Equal(t, 2, lead.Count)
	assert.True(t, decimal.NewFromInt(150).Equal(lead.TotalValue))
}

func TestAggregateEmptyStagesPresent(t *testing.T) {
	s := Aggregate(nil, models.OrderedStages())

	assert.Len(t, s.Buckets, len(models.OrderedStages()))
	for _, stage := range models.OrderedStages() {
		b, ok := s.Buckets[stage]
		assert.True(t, ok, stage)
		assert.Equal(t, 0, b.Count)
		assert.True(t, b.TotalValue.IsZero())
		assert.NotNil(t, b.Deals)
	}
	assert.Equal(t, 0, s.Count())
}

func TestAggregateConservesUnrecognized(t *testing.T) {
	deals := []models.Deal{
		deal(1, models.StageLead, 10),
		deal(2, "on-hold", 20),
		deal(3, models.StageClosedWon, 30),
		deal(4, "", 40),
	}
	s := Aggregate(deals, models.OrderedStages())

	assert.Equal(t, len(deals), s.Count())
	assert.Equal(t, 2, s.Unrecognized.Count)
	assert.True(t, decimal.NewFromInt(60).Equal(s.Unrecognized.TotalValue))
}

func TestAggregateConcreteScenario(t *testing.T) {
	s := Aggregate([]models.Deal{
		deal(1, models.StageQualified, 1000),
		deal(2, models.StageQualified, 500),
	}, models.OrderedStages())

	q := s.Bucket(models.StageQualified)
	assert.Equal(t, 2, q.Count)
	assert.True(t, decimal.NewFromInt(1500).Equal(q.TotalValue))
}

func TestOpenPipelineValue(t *testing.T) {
	deals := []models.Deal{
		deal(1, models.StageLead, 100),
		deal(2, models.StageNegotiation, 200),
		deal(3, models.StageClosedWon, 1000),
		deal(4, models.StageClosedLost, 5000),
	}

	assert.True(t, decimal.NewFromInt(300).Equal(OpenPipelineValue(deals)))
	assert.True(t, decimal.NewFromInt(300).Equal(Aggregate(deals, models.OrderedStages()).OpenValue()))
}

func TestConversionRate(t *testing.T) {
	assert.Equal(t, 0, ConversionRate(nil))
	assert.Equal(t, 33, ConversionRate([]models.Deal{
		deal(1, models.StageClosedWon, 1),
		deal(2, models.StageLead, 1),
		deal(3, models.StageClosedLost, 1),
	}))
	assert.Equal(t, 67, ConversionRate([]models.Deal{
		deal(1, models.StageClosedWon, 1),
		deal(2, models.StageClosedWon, 1),
		deal(3, models.StageClosedLost, 1),
	}))
}

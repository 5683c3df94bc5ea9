// ABOUTME: Deal service with stage lookups, pipeline aggregation and stage moves
// ABOUTME: Thin wrapper over the generic service for the deal_c table

package services

import (
	"context"
	"time"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/notify"
	"github.com/harperreed/dealflow/pipeline"
	"github.com/harperreed/dealflow/records"
	"github.com/harperreed/dealflow/store"
)

type DealService struct {
	*Service[models.Deal, models.DealPatch]
}

func NewDealService(client store.Client, sink notify.Sink, opts ...Option) *DealService {
	s := New[models.Deal, models.DealPatch](client, records.DealCodec{}, sink, opts...)
	s.prepare = func(d models.Deal, _ time.Time) models.Deal {
		if d.Stage == "" {
			d.Stage = models.StageLead
		}
		if d.Currency == "" {
			d.Currency = models.DefaultCurrency
		}
		return d
	}
	return &DealService{Service: s}
}

func (s *DealService) GetByStage(ctx context.Context, stage string) []models.Deal {
	return DealsByStage(s.List(ctx), stage)
}

// GetPipelineData lists deals once and buckets them by stage.
func (s *DealService) GetPipelineData(ctx context.Context) pipeline.Summary {
	return pipeline.Aggregate(s.List(ctx), models.OrderedStages())
}

// UpdateStage moves a deal to stage. Unknown stages are rejected before any
// remote call.
func (s *DealService) UpdateStage(ctx context.Context, id int64, stage string) (models.Deal, error) {
	op := s.op("update")
	if !models.IsKnownStage(stage) {
		return models.Deal{}, s.fail(op, &ValidationError{Problems: []string{"unknown stage " + stage}})
	}
	return s.update(ctx, id, models.DealPatch{Stage: &stage}, "Deal moved to "+models.StageName(stage))
}

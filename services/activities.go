// ABOUTME: Activity service listing newest first with contact/deal/type lookups
// ABOUTME: Thin wrapper over the generic service for the activity_c table

package services

import (
	"context"
	"time"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/notify"
	"github.com/harperreed/dealflow/records"
	"github.com/harperreed/dealflow/store"
)

// DefaultRecentLimit is how many activities GetRecent returns by default.
const DefaultRecentLimit = 10

type ActivityService struct {
	*Service[models.Activity, models.ActivityPatch]
}

func NewActivityService(client store.Client, sink notify.Sink, opts ...Option) *ActivityService {
	s := New[models.Activity, models.ActivityPatch](client, records.ActivityCodec{}, sink, opts...)
	s.prepare = func(a models.Activity, now time.Time) models.Activity {
		if a.Type == "" {
			a.Type = models.ActivityOther
		}
		if a.Timestamp.IsZero() {
			a.Timestamp = now.UTC()
		}
		return a
	}
	s.order = SortActivities
	return &ActivityService{Service: s}
}

func (s *ActivityService) GetByContact(ctx context.Context, contactID int64) []models.Activity {
	return ActivitiesByContact(s.List(ctx), contactID)
}

func (s *ActivityService) GetByDeal(ctx context.Context, dealID int64) []models.Activity {
	return ActivitiesByDeal(s.List(ctx), dealID)
}

func (s *ActivityService) GetByType(ctx context.Context, activityType string) []models.Activity {
	return ActivitiesByType(s.List(ctx), activityType)
}

// GetRecent returns the newest limit activities; limit <= 0 means DefaultRecentLimit.
func (s *ActivityService) GetRecent(ctx context.Context, limit int) []models.Activity {
	return RecentActivities(s.List(ctx), limit)
}

// ABOUTME: Activity codec for the activity_c table
// ABOUTME: Maps type, outcome, timestamp, duration and contact/deal references

package records

import (
	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/store"
)

// Activity field names.
const (
	ActivityType        = "type_c"
	ActivityOutcome     = "outcome_c"
	ActivityDescription = "description_c"
	ActivityTimestamp   = "timestamp_c"
	ActivityDuration    = "duration_c"
	ActivityContactID   = "contact_id_c"
	ActivityDealID      = "deal_id_c"
	ActivityCreatedBy   = "created_by_c"
)

type ActivityCodec struct{}

func (ActivityCodec) Table() string { return store.TableActivities }

func (ActivityCodec) Fields() []string {
	return []string{
		store.FieldName, store.FieldTags, store.FieldCreatedOn, store.FieldModifiedOn,
		ActivityType, ActivityOutcome, ActivityDescription, ActivityTimestamp,
		ActivityDuration, ActivityContactID, ActivityDealID, ActivityCreatedBy,
	}
}

func (ActivityCodec) Decode(rec store.Record) models.Activity {
	a := models.Activity{
		ID:          recordID(rec),
		Type:        stringOr(rec, ActivityType, models.ActivityOther),
		Outcome:     getString(rec, ActivityOutcome),
		Subject:     getString(rec, store.FieldName),
		Description: getString(rec, ActivityDescription),
		Timestamp:   getTime(rec, ActivityTimestamp),
		Duration:    getIntPtr(rec, ActivityDuration),
		ContactID:   getRef(rec, ActivityContactID),
		DealID:      getRef(rec, ActivityDealID),
		CreatedBy:   getString(rec, ActivityCreatedBy),
		CreatedAt:   getTime(rec, store.FieldCreatedOn),
		UpdatedAt:   getTime(rec, store.FieldModifiedOn),
	}

	// Activities logged without an explicit time happened when recorded
	if a.Timestamp.IsZero() {
		a.Timestamp = a.CreatedAt
	}

	return a
}

func (ActivityCodec) Encode(a models.Activity) store.Record {
	w := fieldWriter{}
	w.system(a.ID, a.CreatedAt, a.UpdatedAt)
	w.str(store.FieldName, a.Subject)
	w.str(ActivityType, a.Type)
	w.str(ActivityOutcome, a.Outcome)
	w.str(ActivityDescription, a.Description)
	w.timestamp(ActivityTimestamp, a.Timestamp)
	if a.Duration != nil {
		w[ActivityDuration] = *a.Duration
	}
	w.ref(ActivityContactID, a.ContactID)
	w.ref(ActivityDealID, a.DealID)
	w.str(ActivityCreatedBy, a.CreatedBy)
	return store.Record(w)
}

func (ActivityCodec) EncodePatch(id int64, p models.ActivityPatch) store.Record {
	w := newPatch(id)
	w.str(store.FieldName, p.Subject)
	w.str(ActivityType, p.Type)
	w.str(ActivityOutcome, p.Outcome)
	w.str(ActivityDescription, p.Description)
	w.timestamp(ActivityTimestamp, p.Timestamp)
	if p.Duration != nil {
		w[ActivityDuration] = *p.Duration
	}
	w.ref(ActivityContactID, p.ContactID, p.ClearContactID)
	w.ref(ActivityDealID, p.DealID, p.ClearDealID)
	return store.Record(w)
}

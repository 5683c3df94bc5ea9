// ABOUTME: Deal codec for the deal_c table
// ABOUTME: Maps value, stage, probability and contact/company references

package records

import (
	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/store"
)

// Deal field names.
const (
	DealValue             = "value_c"
	DealCurrency          = "currency_c"
	DealStage             = "stage_c"
	DealProbability       = "probability_c"
	DealExpectedCloseDate = "expected_close_date_c"
	DealContactID         = "contact_id_c"
	DealCompanyID         = "company_id_c"
	DealAssignedTo        = "assigned_to_c"
	DealDescription       = "description_c"
)

type DealCodec struct{}

func (DealCodec) Table() string { return store.TableDeals }

func (DealCodec) Fields() []string {
	return []string{
		store.FieldName, store.FieldTags, store.FieldCreatedOn, store.FieldModifiedOn,
		DealValue, DealCurrency, DealStage, DealProbability, DealExpectedCloseDate,
		DealContactID, DealCompanyID, DealAssignedTo, DealDescription,
	}
}

// Decode keeps unrecognized stage values as-is; only a missing stage
// defaults to lead.
func (DealCodec) Decode(rec store.Record) models.Deal {
	probability, _ := getInt(rec, DealProbability)
	return models.Deal{
		ID:                recordID(rec),
		Name:              getString(rec, store.FieldName),
		Value:             getDecimal(rec, DealValue),
		Currency:          stringOr(rec, DealCurrency, models.DefaultCurrency),
		Stage:             stringOr(rec, DealStage, models.StageLead),
		Probability:       probability,
		ExpectedCloseDate: getDate(rec, DealExpectedCloseDate),
		ContactID:         getRef(rec, DealContactID),
		CompanyID:         getRef(rec, DealCompanyID),
		AssignedTo:        getString(rec, DealAssignedTo),
		Tags:              getTags(rec),
		Description:       getString(rec, DealDescription),
		CreatedAt:         getTime(rec, store.FieldCreatedOn),
		UpdatedAt:         getTime(rec, store.FieldModifiedOn),
	}
}

func (DealCodec) Encode(d models.Deal) store.Record {
	w := fieldWriter{}
	w.system(d.ID, d.CreatedAt, d.UpdatedAt)
	w.str(store.FieldName, d.Name)
	w[DealValue] = d.Value.String()
	w.str(DealCurrency, d.Currency)
	w.str(DealStage, d.Stage)
	w[DealProbability] = d.Probability
	w.str(DealExpectedCloseDate, d.ExpectedCloseDate)
	w.ref(DealContactID, d.ContactID)
	w.ref(DealCompanyID, d.CompanyID)
	w.str(DealAssignedTo, d.AssignedTo)
	w.str(DealDescription, d.Description)
	w[store.FieldTags] = JoinTags(d.Tags)
	return store.Record(w)
}

func (DealCodec) EncodePatch(id int64, p models.DealPatch) store.Record {
	w := newPatch(id)
	w.str(store.FieldName, p.Name)
	if p.Value != nil {
		w[DealValue] = p.Value.String()
	}
	w.str(DealCurrency, p.Currency)
	w.str(DealStage, p.Stage)
	if p.Probability != nil {
		w[DealProbability] = *p.Probability
	}
	w.str(DealExpectedCloseDate, p.ExpectedCloseDate)
	w.ref(DealContactID, p.ContactID, p.ClearContactID)
	w.ref(DealCompanyID, p.CompanyID, p.ClearCompanyID)
	w.str(DealAssignedTo, p.AssignedTo)
	w.str(DealDescription, p.Description)
	w.tags(p.Tags)
	return store.Record(w)
}

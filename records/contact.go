// ABOUTME: Contact codec for the contact_c table
// ABOUTME: Maps first/last name, email, company and status fields

package records

import (
	"strings"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/store"
)

// Contact field names.
const (
	ContactFirstName  = "first_name_c"
	ContactLastName   = "last_name_c"
	ContactEmail      = "email_c"
	ContactPhone      = "phone_c"
	ContactCompany    = "company_c"
	ContactTitle      = "title_c"
	ContactStatus     = "status_c"
	ContactSource     = "source_c"
	ContactAssignedTo = "assigned_to_c"
)

type ContactCodec struct{}

func (ContactCodec) Table() string { return store.TableContacts }

func (ContactCodec) Fields() []string {
	return []string{
		store.FieldName, store.FieldTags, store.FieldCreatedOn, store.FieldModifiedOn,
		ContactFirstName, ContactLastName, ContactEmail, ContactPhone, ContactCompany,
		ContactTitle, ContactStatus, ContactSource, ContactAssignedTo,
	}
}

func (ContactCodec) Decode(rec store.Record) models.Contact {
	c := models.Contact{
		ID:         recordID(rec),
		FirstName:  getString(rec, ContactFirstName),
		LastName:   getString(rec, ContactLastName),
		Email:      getString(rec, ContactEmail),
		Phone:      getString(rec, ContactPhone),
		Company:    getString(rec, ContactCompany),
		Title:      getString(rec, ContactTitle),
		Status:     stringOr(rec, ContactStatus, models.ContactStatusActive),
		Source:     getString(rec, ContactSource),
		AssignedTo: getString(rec, ContactAssignedTo),
		Tags:       getTags(rec),
		CreatedAt:  getTime(rec, store.FieldCreatedOn),
		UpdatedAt:  getTime(rec, store.FieldModifiedOn),
	}

	// Records created elsewhere may only carry the display name
	if c.FirstName == "" && c.LastName == "" {
		name := strings.TrimSpace(getString(rec, store.FieldName))
		first, last, _ := strings.Cut(name, " ")
		c.FirstName, c.LastName = first, strings.TrimSpace(last)
	}

	return c
}

func (ContactCodec) Encode(c models.Contact) store.Record {
	w := fieldWriter{}
	w.system(c.ID, c.CreatedAt, c.UpdatedAt)
	w.str(store.FieldName, c.FullName())
	w.str(ContactFirstName, c.FirstName)
	w.str(ContactLastName, c.LastName)
	w.str(ContactEmail, c.Email)
	w.str(ContactPhone, c.Phone)
	w.str(ContactCompany, c.Company)
	w.str(ContactTitle, c.Title)
	w.str(ContactStatus, c.Status)
	w.str(ContactSource, c.Source)
	w.str(ContactAssignedTo, c.AssignedTo)
	w[store.FieldTags] = JoinTags(c.Tags)
	return store.Record(w)
}

// EncodePatch writes Name only when both name parts are provided, since
// the display name cannot be rebuilt from one part alone.
func (ContactCodec) EncodePatch(id int64, p models.ContactPatch) store.Record {
	w := newPatch(id)
	w.str(ContactFirstName, p.FirstName)
	w.str(ContactLastName, p.LastName)
	if p.FirstName != nil && p.LastName != nil {
		full := models.Contact{FirstName: *p.FirstName, LastName: *p.LastName}.FullName()
		w[store.FieldName] = full
	}
	w.str(ContactEmail, p.Email)
	w.str(ContactPhone, p.Phone)
	w.str(ContactCompany, p.Company)
	w.str(ContactTitle, p.Title)
	w.str(ContactStatus, p.Status)
	w.str(ContactSource, p.Source)
	w.str(ContactAssignedTo, p.AssignedTo)
	w.tags(p.Tags)
	return store.Record(w)
}

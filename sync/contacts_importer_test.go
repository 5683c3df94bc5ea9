// ABOUTME: Tests for the Google Contacts importer
// ABOUTME: Feeds scripted People API pages into a contact service over the in-memory store
package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/harperreed/dealflow/notify"
	"github.com/harperreed/dealflow/services"
	"github.com/harperreed/dealflow/store"
	"github.com/harperreed/dealflow/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/people/v1"
)

type fakePeople struct {
	pages []*people.ListConnectionsResponse
	err   error
	calls []string
}

func (f *fakePeople) Connections(_ context.Context, pageToken string) (*people.ListConnectionsResponse, error) {
	f.calls = append(f.calls, pageToken)
	if f.err != nil {
		return nil, f.err
	}
	i := len(f.calls) - 1
	if i >= len(f.pages) {
		return &people.ListConnectionsResponse{}, nil
	}
	return f.pages[i], nil
}

func person(given, family, email string) *people.Person {
	p := &people.Person{
		ResourceName: "people/" + given,
		Names:        []*people.Name{{GivenName: given, FamilyName: family}},
	}
	if email != "" {
		p.EmailAddresses = []*people.EmailAddress{{Value: email}}
	}
	return p
}

func TestConvertPerson(t *testing.T) {
	p := &people.Person{
		ResourceName: "people/1",
		Names:        []*people.Name{{DisplayName: "Ada King Lovelace"}},
		EmailAddresses: []*people.EmailAddress{
			{Value: "other@example.com"},
			{Value: "ada@example.com", Metadata: &people.FieldMetadata{Primary: true}},
		},
		PhoneNumbers:  []*people.PhoneNumber{{Value: "555-0100"}},
		Organizations: []*people.Organization{{Name: "Analytical", Title: "Engineer"}},
	}

	gc := convertPerson(p)
	assert.Equal(t, "Ada", gc.FirstName)
	assert.Equal(t, "King Lovelace", gc.LastName)
	assert.Equal(t, "ada@example.com", gc.Email)
	assert.Equal(t, "555-0100", gc.Phone)
	assert.Equal(t, "Analytical", gc.Company)
	assert.Equal(t, "Engineer", gc.JobTitle)
}

func TestImportContacts(t *testing.T) {
	fake := storetest.New()
	fake.Seed(store.TableContacts, 1, store.Record{"Name": "Grace Hopper", "first_name_c": "Grace", "last_name_c": "Hopper", "email_c": "grace@example.com"})
	rec := &notify.Recorder{}
	contacts := services.NewContactService(fake, rec)

	grace := person("Grace", "Hopper", "GRACE@example.com")
	grace.PhoneNumbers = []*people.PhoneNumber{{Value: "555-0199"}}

	src := &fakePeople{pages: []*people.ListConnectionsResponse{
		{
			Connections: []*people.Person{
				person("Ada", "Lovelace", "ada@example.com"),
				grace,
				person("Nomail", "Person", ""),
				person("Ada", "Again", "ada@example.com"),
			},
			NextPageToken: "page-2",
		},
		{
			Connections: []*people.Person{
				person("Alan", "Turing", "alan@example.com"),
				person("Ada", "Third", "Ada@Example.com"),
			},
		},
	}}

	stats, err := NewContactsImporter(contacts, nil).Import(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, []string{"", "page-2"}, src.calls)
	assert.Equal(t, 6, stats.Fetched)
	assert.Equal(t, 2, stats.Created)
	assert.Equal(t, 1, stats.Updated)
	assert.Equal(t, 3, stats.Skipped)

	all, err := contacts.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 3)

	stored, ok := fake.Stored(store.TableContacts, 1)
	require.True(t, ok)
	assert.Equal(t, "555-0199", stored["phone_c"])

	for _, c := range all {
		if c.Email == "ada@example.com" {
			assert.Equal(t, SourceGoogle, c.Source)
		}
	}
	// Known contacts are patched while a page is scanned; new ones are
	// created together once the page is done.
	assert.Equal(t, []string{
		"Contact updated successfully",
		"1 contact records created",
		"1 contact records created",
	}, rec.Successes())
}

func TestImportContactsRerunIsIdempotent(t *testing.T) {
	fake := storetest.New()
	contacts := services.NewContactService(fake, nil)
	pages := []*people.ListConnectionsResponse{{Connections: []*people.Person{person("Ada", "Lovelace", "ada@example.com")}}}

	_, err := NewContactsImporter(contacts, nil).Import(context.Background(), &fakePeople{pages: pages})
	require.NoError(t, err)

	stats, err := NewContactsImporter(contacts, nil).Import(context.Background(), &fakePeople{pages: pages})
	require.NoError(t, err)
	assert.Zero(t, stats.Created)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, fake.Calls("create"))
}

func TestImportContactsFailures(t *testing.T) {
	t.Run("existing contacts cannot be loaded", func(t *testing.T) {
		fake := storetest.New()
		fake.FailOps["fetch"] = storetest.ErrInjected
		src := &fakePeople{}

		_, err := NewContactsImporter(services.NewContactService(fake, nil), nil).Import(context.Background(), src)
		require.Error(t, err)
		assert.Empty(t, src.calls, "nothing is fetched from Google when the store is unreachable")
	})

	t.Run("google request fails", func(t *testing.T) {
		fake := storetest.New()
		src := &fakePeople{err: errors.New("quota exceeded")}

		_, err := NewContactsImporter(services.NewContactService(fake, nil), nil).Import(context.Background(), src)
		assert.ErrorContains(t, err, "quota exceeded")
	})
}

// ABOUTME: Google Contacts API importer
// ABOUTME: Fetches people page by page and creates new contacts in batches with email deduplication
package sync

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/services"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	"google.golang.org/api/people/v1"
)

const (
	peoplePageSize = 1000
	personFields   = "names,emailAddresses,phoneNumbers,organizations"

	// SourceGoogle marks contacts created by the import.
	SourceGoogle = "google"
)

// PeopleSource pages through the signed-in user's connections.
type PeopleSource interface {
	Connections(ctx context.Context, pageToken string) (*people.ListConnectionsResponse, error)
}

type peopleSource struct {
	svc *people.Service
}

// NewPeopleSource creates a People API source on an authorized client.
func NewPeopleSource(ctx context.Context, client *http.Client) (PeopleSource, error) {
	svc, err := people.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create People service: %w", err)
	}
	return &peopleSource{svc: svc}, nil
}

func (p *peopleSource) Connections(ctx context.Context, pageToken string) (*people.ListConnectionsResponse, error) {
	call := p.svc.People.Connections.List("people/me").
		PageSize(peoplePageSize).
		PersonFields(personFields).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	return call.Do()
}

type GoogleContact struct {
	ResourceName string
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	Company      string
	JobTitle     string
}

// ImportStats counts what an import did.
type ImportStats struct {
	Fetched int
	Created int
	Updated int
	Skipped int
}

type ContactsImporter struct {
	contacts *services.ContactService
	log      *logrus.Entry
	matcher  *ContactMatcher
}

func NewContactsImporter(contacts *services.ContactService, log *logrus.Entry) *ContactsImporter {
	if log == nil {
		log = logrus.WithField("component", "sync")
	}
	return &ContactsImporter{contacts: contacts, log: log.WithField("source", "contacts")}
}

// Import walks every page of src. Known emails fill in blank fields on the
// existing contact as they are seen; unknown ones are created in one batch
// at the end of each page.
func (ci *ContactsImporter) Import(ctx context.Context, src PeopleSource) (ImportStats, error) {
	var stats ImportStats

	// Load once; a failed load must not turn into an import of duplicates.
	existing, err := ci.contacts.Fetch(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to load existing contacts: %w", err)
	}
	ci.matcher = NewContactMatcher(existing)

	pageToken := ""
	for {
		resp, err := src.Connections(ctx, pageToken)
		if err != nil {
			return stats, fmt.Errorf("failed to fetch contacts: %w", err)
		}
		if resp == nil {
			break
		}

		stats.Fetched += len(resp.Connections)
		var batch []models.Contact
		for _, person := range resp.Connections {
			gc := convertPerson(person)
			if gc.Email == "" || gc.FirstName == "" {
				stats.Skipped++
				continue
			}

			if match, found := ci.matcher.FindMatch(gc.Email); found {
				updated, err := ci.fillBlanks(ctx, match, gc)
				if err != nil {
					ci.log.WithError(err).WithField("email", gc.Email).Warn("failed to update contact")
					stats.Skipped++
					continue
				}
				if updated {
					stats.Updated++
				} else {
					stats.Skipped++
				}
				continue
			}

			c := models.Contact{
				FirstName: gc.FirstName,
				LastName:  gc.LastName,
				Email:     gc.Email,
				Phone:     gc.Phone,
				Company:   gc.Company,
				Title:     gc.JobTitle,
				Source:    SourceGoogle,
			}
			batch = append(batch, c)
			// Placeholder so duplicates inside one page are caught.
			ci.matcher.Add(c)
		}

		if len(batch) > 0 {
			created, err := ci.contacts.CreateMany(ctx, batch)
			if err != nil {
				return stats, fmt.Errorf("failed to create contacts: %w", err)
			}
			for _, c := range created {
				ci.matcher.Add(c)
			}
			stats.Created += len(created)
			stats.Skipped += len(batch) - len(created)
		}

		ci.log.WithFields(logrus.Fields{"fetched": stats.Fetched, "created": stats.Created}).Debug("page imported")

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return stats, nil
}

// fillBlanks copies Google data into fields the contact has left empty.
func (ci *ContactsImporter) fillBlanks(ctx context.Context, existing models.Contact, gc *GoogleContact) (bool, error) {
	if existing.ID == 0 {
		return false, nil
	}

	var patch models.ContactPatch
	changed := false
	if gc.Phone != "" && existing.Phone == "" {
		patch.Phone = models.Ptr(gc.Phone)
		changed = true
	}
	if gc.Company != "" && existing.Company == "" {
		patch.Company = models.Ptr(gc.Company)
		changed = true
	}
	if gc.JobTitle != "" && existing.Title == "" {
		patch.Title = models.Ptr(gc.JobTitle)
		changed = true
	}
	if !changed {
		return false, nil
	}

	updated, err := ci.contacts.Update(ctx, existing.ID, patch)
	if err != nil {
		return false, err
	}
	ci.matcher.Add(updated)
	return true, nil
}

// convertPerson converts a People API Person to GoogleContact.
func convertPerson(person *people.Person) *GoogleContact {
	gc := &GoogleContact{ResourceName: person.ResourceName}

	if len(person.Names) > 0 {
		n := person.Names[0]
		gc.FirstName, gc.LastName = n.GivenName, n.FamilyName
		if gc.FirstName == "" && n.DisplayName != "" {
			gc.FirstName, gc.LastName = splitName(n.DisplayName)
		}
	}

	// Prefer primary, otherwise first available
	for _, email := range person.EmailAddresses {
		if email.Value == "" {
			continue
		}
		if gc.Email == "" {
			gc.Email = email.Value
		}
		if email.Metadata != nil && email.Metadata.Primary {
			gc.Email = email.Value
			break
		}
	}

	for _, phone := range person.PhoneNumbers {
		if phone.Value == "" {
			continue
		}
		if gc.Phone == "" {
			gc.Phone = phone.Value
		}
		if phone.Metadata != nil && phone.Metadata.Primary {
			gc.Phone = phone.Value
			break
		}
	}

	if len(person.Organizations) > 0 {
		gc.Company = person.Organizations[0].Name
		gc.JobTitle = person.Organizations[0].Title
	}

	return gc
}

func splitName(display string) (string, string) {
	first, last, _ := strings.Cut(strings.TrimSpace(display), " ")
	return first, strings.TrimSpace(last)
}

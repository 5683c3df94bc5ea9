// ABOUTME: Contact CLI commands
// ABOUTME: Human-friendly commands for managing contacts
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/services"
	"github.com/harperreed/dealflow/views"
)

// stdout is where commands print; tests swap it for a buffer.
var stdout io.Writer = os.Stdout

const defaultLimit = 50

// AddContactCommand adds a new contact.
func AddContactCommand(ctx context.Context, svc views.Services, args []string) error {
	fs := flag.NewFlagSet("add-contact", flag.ContinueOnError)
	first := fs.String("first", "", "First name (required)")
	last := fs.String("last", "", "Last name")
	email := fs.String("email", "", "Email address")
	phone := fs.String("phone", "", "Phone number")
	company := fs.String("company", "", "Company name")
	title := fs.String("title", "", "Job title")
	status := fs.String("status", "", "Status (active, inactive, qualified)")
	tags := fs.String("tags", "", "Comma-separated tags")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *first == "" {
		return fmt.Errorf("--first is required")
	}

	contact, err := svc.Contacts.Create(ctx, models.Contact{
		FirstName: *first,
		LastName:  *last,
		Email:     *email,
		Phone:     *phone,
		Company:   *company,
		Title:     *title,
		Status:    *status,
		Tags:      splitTags(*tags),
	})
	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}

	fmt.Fprintf(stdout, "✓ Contact created: %s (ID: %d)\n", contact.FullName(), contact.ID)
	if contact.Email != "" {
		fmt.Fprintf(stdout, "  Email: %s\n", contact.Email)
	}
	if contact.Company != "" {
		fmt.Fprintf(stdout, "  Company: %s\n", contact.Company)
	}
	return nil
}

// ListContactsCommand lists contacts.
func ListContactsCommand(ctx context.Context, svc views.Services, args []string) error {
	fs := flag.NewFlagSet("list-contacts", flag.ContinueOnError)
	query := fs.String("query", "", "Search by name, email or company")
	status := fs.String("status", "", "Filter by status")
	limit := fs.Int("limit", defaultLimit, "Maximum results")
	if err := fs.Parse(args); err != nil {
		return err
	}

	contacts, err := svc.Contacts.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to load contacts: %w", err)
	}
	if *status != "" {
		contacts = services.ContactsByStatus(contacts, *status)
	}
	contacts = services.SearchContacts(contacts, *query)
	total := len(contacts)
	if *limit > 0 && len(contacts) > *limit {
		contacts = contacts[:*limit]
	}

	if len(contacts) == 0 {
		fmt.Fprintln(stdout, "No contacts found")
		return nil
	}

	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tEMAIL\tCOMPANY\tSTATUS")
	_, _ = fmt.Fprintln(w, "--\t----\t-----\t-------\t------")
	for _, c := range contacts {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", c.ID, c.FullName(), dash(c.Email), dash(c.Company), c.Status)
	}
	_ = w.Flush()

	fmt.Fprintf(stdout, "\nTotal: %d contact(s)\n", total)
	return nil
}

// UpdateContactCommand changes the fields given as flags. A flag passed
// with an empty value clears that field.
func UpdateContactCommand(ctx context.Context, svc views.Services, args []string) error {
	fs := flag.NewFlagSet("update-contact", flag.ContinueOnError)
	first := fs.String("first", "", "First name")
	last := fs.String("last", "", "Last name")
	email := fs.String("email", "", "Email address")
	phone := fs.String("phone", "", "Phone number")
	company := fs.String("company", "", "Company name")
	title := fs.String("title", "", "Job title")
	status := fs.String("status", "", "Status (active, inactive, qualified)")
	tags := fs.String("tags", "", "Comma-separated tags, replacing the current ones")

	id, err := parseIDAndFlags(fs, args)
	if err != nil {
		return err
	}

	set := setFlags(fs)
	if len(set) == 0 {
		return fmt.Errorf("nothing to update; pass at least one flag")
	}

	var patch models.ContactPatch
	optString(set, "first", first, &patch.FirstName)
	optString(set, "last", last, &patch.LastName)
	optString(set, "email", email, &patch.Email)
	optString(set, "phone", phone, &patch.Phone)
	optString(set, "company", company, &patch.Company)
	optString(set, "title", title, &patch.Title)
	optString(set, "status", status, &patch.Status)
	if set["tags"] {
		list := splitTags(*tags)
		patch.Tags = &list
	}

	contact, err := svc.Contacts.Update(ctx, id, patch)
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}

	fmt.Fprintf(stdout, "✓ Contact updated: %s (ID: %d)\n", contact.FullName(), contact.ID)
	return nil
}

// DeleteContactCommand deletes a contact.
func DeleteContactCommand(ctx context.Context, svc views.Services, args []string) error {
	id, err := parseID("delete-contact", args)
	if err != nil {
		return err
	}

	deleted, err := svc.Contacts.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	if !deleted {
		return fmt.Errorf("contact %d was not deleted", id)
	}

	fmt.Fprintf(stdout, "✓ Contact deleted: %d\n", id)
	return nil
}

// parseID parses the single positional id argument of a command.
func parseID(command string, args []string) (int64, error) {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return 0, err
	}
	if fs.NArg() != 1 {
		return 0, fmt.Errorf("usage: %s <id>", command)
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid ID %q: %w", fs.Arg(0), err)
	}
	return id, nil
}

// parseIDAndFlags accepts the id before or after the flags.
func parseIDAndFlags(fs *flag.FlagSet, args []string) (int64, error) {
	var raw string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		raw, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return 0, err
	}
	if raw == "" && fs.NArg() == 1 {
		raw = fs.Arg(0)
	} else if raw == "" || fs.NArg() != 0 {
		return 0, fmt.Errorf("usage: %s <id> [flags]", fs.Name())
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid ID %q: %w", raw, err)
	}
	return id, nil
}

// setFlags reports which flags were passed explicitly.
func setFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func optString(set map[string]bool, name string, v *string, dst **string) {
	if set[name] {
		*dst = v
	}
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

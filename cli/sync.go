// ABOUTME: Google sync CLI commands
// ABOUTME: Handles OAuth setup and contact and calendar imports
package cli

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"github.com/harperreed/dealflow/sync"
	"github.com/harperreed/dealflow/views"
	"github.com/sirupsen/logrus"
)

const oauthCallbackAddr = "localhost:8085"

// SyncInitCommand runs the Google OAuth consent flow and saves the token.
func SyncInitCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sync init", flag.ContinueOnError)
	addr := fs.String("callback-addr", oauthCallbackAddr, "Local address for the OAuth callback")
	if err := fs.Parse(args); err != nil {
		return err
	}

	config := sync.NewOAuthConfig(*addr)
	token, err := sync.Authorize(ctx, config, *addr, func(url string) error {
		fmt.Fprintln(stdout, "Opening browser for Google OAuth...")
		fmt.Fprintf(stdout, "\nIf browser doesn't open, visit this URL:\n%s\n\n", url)
		_ = openBrowser(url)
		return nil
	})
	if err != nil {
		return err
	}

	path := sync.TokenPath()
	if err := sync.SaveToken(path, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	fmt.Fprintf(stdout, "\n✓ Authenticated successfully\n")
	fmt.Fprintf(stdout, "✓ Tokens saved to %s\n\n", path)
	fmt.Fprintln(stdout, "Ready to sync! Run 'dealflow sync contacts' to import contacts.")
	return nil
}

func googleClient(ctx context.Context) (*http.Client, error) {
	token, err := sync.LoadToken(sync.TokenPath())
	if err != nil {
		return nil, fmt.Errorf("no authentication token found. Run 'dealflow sync init' first: %w", err)
	}
	return sync.HTTPClient(ctx, sync.NewOAuthConfig(oauthCallbackAddr), token)
}

// SyncContactsCommand imports Google Contacts.
func SyncContactsCommand(ctx context.Context, svc views.Services, log *logrus.Entry, args []string) error {
	fs := flag.NewFlagSet("sync contacts", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := googleClient(ctx)
	if err != nil {
		return err
	}
	src, err := sync.NewPeopleSource(ctx, client)
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, "Syncing Google Contacts...")
	stats, err := sync.NewContactsImporter(svc.Contacts, log).Import(ctx, src)
	if err != nil {
		return fmt.Errorf("contacts sync failed: %w", err)
	}

	fmt.Fprintf(stdout, "\n✓ Fetched %d contacts from Google\n", stats.Fetched)
	if stats.Created == 0 && stats.Updated == 0 {
		fmt.Fprintln(stdout, "  ✓ No new contacts to import (all up to date)")
		return nil
	}
	if stats.Created > 0 {
		fmt.Fprintf(stdout, "  ✓ Created %d new contacts\n", stats.Created)
	}
	if stats.Updated > 0 {
		fmt.Fprintf(stdout, "  ✓ Updated %d existing contacts\n", stats.Updated)
	}
	return nil
}

// SyncCalendarCommand logs recent Google Calendar meetings as activities.
func SyncCalendarCommand(ctx context.Context, svc views.Services, log *logrus.Entry, args []string) error {
	fs := flag.NewFlagSet("sync calendar", flag.ContinueOnError)
	days := fs.Int("days", 30, "How many days back to import")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := googleClient(ctx)
	if err != nil {
		return err
	}
	src, err := sync.NewCalendarSource(ctx, client)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Syncing Google Calendar (last %d days)...\n", *days)
	since := svc.Activities.Now().AddDate(0, 0, -*days).Truncate(24 * time.Hour)
	stats, err := sync.NewCalendarImporter(svc.Contacts, svc.Activities, log).Import(ctx, src, since)
	if err != nil {
		return fmt.Errorf("calendar sync failed: %w", err)
	}

	fmt.Fprintf(stdout, "\n✓ Fetched %d events\n", stats.Fetched)
	fmt.Fprintf(stdout, "  ✓ Logged %d meetings\n", stats.Logged)
	for reason, count := range stats.Skipped {
		fmt.Fprintf(stdout, "  ✓ Skipped %d (%s)\n", count, reason)
	}
	return nil
}

// openBrowser attempts to open URL in default browser
func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		cmd = "xdg-open"
		args = []string{url}
	}

	return exec.Command(cmd, args...).Start()
}

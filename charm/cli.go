// ABOUTME: CLI commands for managing the Charm-synced record store
// ABOUTME: Link, status with per-table counts, manual sync, auto-sync toggle and wipe

package charm

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/harperreed/dealflow/store"
)

// Opener opens the client a command works against.
type Opener func() (*Client, error)

// Counts returns the number of stored records per table.
func (c *Client) Counts() (map[string]int, error) {
	counts := make(map[string]int, len(store.Tables))
	for _, table := range store.Tables {
		keys, err := c.KeysWithPrefix(recordPrefix + table + "/")
		if err != nil {
			return nil, err
		}
		counts[table] = len(keys)
	}
	return counts, nil
}

// WipeRecords deletes every record and id sequence and reports how many
// records were removed. Other keys in the KV are left alone.
func (c *Client) WipeRecords() (int, error) {
	removed := 0
	for _, prefix := range []string{recordPrefix, sequencePrefix} {
		keys, err := c.KeysWithPrefix(prefix)
		if err != nil {
			return removed, err
		}
		for _, key := range keys {
			if err := c.Delete(key); err != nil {
				return removed, fmt.Errorf("failed to delete %s: %w", key, err)
			}
			if prefix == recordPrefix {
				removed++
			}
		}
	}
	return removed, nil
}

// Command routes a `charm` subcommand.
func Command(out io.Writer, open Opener, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: charm <link|status|now|auto|wipe>")
	}

	rest := args[1:]
	switch args[0] {
	case "link":
		return linkCommand(out, open, rest)
	case "status":
		return statusCommand(out, open, rest)
	case "now":
		return syncNowCommand(out, open, rest)
	case "auto":
		return autoSyncCommand(out, rest)
	case "wipe":
		return wipeCommand(out, open, rest)
	}
	return fmt.Errorf("unknown charm command: %s", args[0])
}

func withClient(open Opener, fn func(*Client) error) error {
	c, err := open()
	if err != nil {
		return fmt.Errorf("failed to open charm store: %w", err)
	}
	defer func() { _ = c.Close() }()
	return fn(c)
}

// linkCommand links this device to a Charm account. Charm authenticates
// with the device's SSH key, so a successful sync is the whole handshake.
func linkCommand(out io.Writer, open Opener, args []string) error {
	fs := flag.NewFlagSet("charm link", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withClient(open, func(c *Client) error {
		fmt.Fprintf(out, "Linking to Charm Cloud (%s)...\n\n", c.Config().Host)
		if err := c.Sync(); err != nil {
			return fmt.Errorf("link failed: %w", err)
		}

		if id, err := c.ID(); err != nil {
			fmt.Fprintln(out, "✓ Device linked (ID unavailable)")
		} else {
			fmt.Fprintf(out, "✓ Linked to account: %s\n", id)
		}
		fmt.Fprintf(out, "✓ Auto-sync: %v\n", c.Config().AutoSync)
		return nil
	})
}

func statusCommand(out io.Writer, open Opener, args []string) error {
	fs := flag.NewFlagSet("charm status", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withClient(open, func(c *Client) error {
		cfg := c.Config()
		fmt.Fprintln(out, "Charm Sync Status")
		fmt.Fprintln(out, strings.Repeat("─", 17))
		fmt.Fprintf(out, "Server:    %s\n", cfg.Host)
		fmt.Fprintf(out, "Auto-sync: %v\n\n", cfg.AutoSync)

		counts, err := c.Counts()
		if err != nil {
			return fmt.Errorf("failed to count records: %w", err)
		}
		for _, table := range store.Tables {
			fmt.Fprintf(out, "%-12s %d records\n", table+":", counts[table])
		}
		return nil
	})
}

func syncNowCommand(out io.Writer, open Opener, args []string) error {
	fs := flag.NewFlagSet("charm now", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withClient(open, func(c *Client) error {
		if err := c.Sync(); err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		fmt.Fprintln(out, "✓ Synced")
		return nil
	})
}

func autoSyncCommand(out io.Writer, args []string) error {
	fs := flag.NewFlagSet("charm auto", flag.ContinueOnError)
	enable := fs.Bool("enable", false, "Enable auto-sync")
	disable := fs.Bool("disable", false, "Disable auto-sync")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *enable == *disable {
		return fmt.Errorf("usage: charm auto --enable|--disable")
	}

	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.SetAutoSync(*enable); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	if *enable {
		fmt.Fprintln(out, "✓ Auto-sync enabled")
	} else {
		fmt.Fprintln(out, "✓ Auto-sync disabled")
	}
	return nil
}

func wipeCommand(out io.Writer, open Opener, args []string) error {
	fs := flag.NewFlagSet("charm wipe", flag.ContinueOnError)
	confirm := fs.Bool("confirm", false, "Confirm data wipe")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !*confirm {
		fmt.Fprintln(out, "WARNING: This will delete every contact, deal, task and activity in the Charm store!")
		fmt.Fprintln(out, "\nTo confirm, run:\n  dealflow charm wipe --confirm")
		return nil
	}

	return withClient(open, func(c *Client) error {
		n, err := c.WipeRecords()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Wiped %d records\n", n)
		return nil
	})
}

// ABOUTME: Migration utility that copies every table from one record-store backend to another
// ABOUTME: Remaps contact and deal references to the ids the destination assigns

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/harperreed/dealflow/config"
	"github.com/harperreed/dealflow/records"
	"github.com/harperreed/dealflow/store"
	"github.com/sirupsen/logrus"
)

const batchSize = 100

// references maps a foreign-key field to the table its ids point into.
// store.Tables is ordered so referenced tables are copied first.
var references = map[string]string{
	records.TaskContactID: store.TableContacts,
	records.TaskDealID:    store.TableDeals,
}

type options struct {
	dryRun bool
	backup bool
	force  bool
}

func main() {
	from := flag.String("from", config.BackendSQLite, "Source backend (sqlite, charm, badger)")
	fromPath := flag.String("from-path", "", "Source database path, KV path or charm host")
	to := flag.String("to", config.BackendBadger, "Destination backend (sqlite, charm, badger)")
	toPath := flag.String("to-path", "", "Destination database path, KV path or charm host")
	dryRun := flag.Bool("dry-run", false, "Show what would happen without making changes")
	backup := flag.Bool("backup", true, "Create backup of a SQLite destination before migration")
	force := flag.Bool("force", false, "Copy even if the destination already has records")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	config.SetupLogging(cfg.LogLevel, os.Stderr)
	log := config.Component("migrate")

	src, err := side(cfg, *from, *fromPath)
	if err != nil {
		logrus.Fatalf("Invalid source: %v", err)
	}
	dst, err := side(cfg, *to, *toPath)
	if err != nil {
		logrus.Fatalf("Invalid destination: %v", err)
	}
	if src.Backend == dst.Backend && src.Location() == dst.Location() {
		logrus.Fatal("Error: source and destination are the same store")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := options{dryRun: *dryRun, backup: *backup, force: *force}
	if err := migrate(ctx, src, dst, opts, log); err != nil {
		logrus.Fatalf("Migration failed: %v", err)
	}

	log.Info("Migration completed successfully")
}

// side derives the config for one end of the copy from the loaded config.
func side(base *config.Config, backend, path string) (*config.Config, error) {
	c := *base
	c.Backend = strings.ToLower(backend)
	if path != "" {
		switch c.Backend {
		case config.BackendSQLite:
			c.DBPath = path
		case config.BackendBadger:
			c.KVPath = path
		case config.BackendCharm:
			c.CharmHost = path
		}
	}
	return &c, c.Validate()
}

func migrate(ctx context.Context, src, dst *config.Config, opts options, log *logrus.Entry) error {
	if opts.backup && !opts.dryRun && dst.Backend == config.BackendSQLite {
		if err := backupFile(dst.DBPath, log); err != nil {
			return err
		}
	}

	in, err := src.OpenBackend()
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer func() { _ = in.Close() }()

	out, err := dst.OpenBackend()
	if err != nil {
		return fmt.Errorf("failed to open destination: %w", err)
	}
	defer func() { _ = out.Close() }()

	log.WithFields(logrus.Fields{
		"from": fmt.Sprintf("%s (%s)", src.Backend, src.Location()),
		"to":   fmt.Sprintf("%s (%s)", dst.Backend, dst.Location()),
	}).Info("copying records")

	counts, err := copyTables(ctx, in, out, opts, log)
	if err != nil {
		return err
	}
	for _, table := range store.Tables {
		log.WithField("table", table).Infof("%d records", counts[table])
	}
	return nil
}

func backupFile(path string, log *logrus.Entry) error {
	input, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read database: %w", err)
	}

	backupPath := fmt.Sprintf("%s.backup.%s", path, time.Now().Format("20060102-150405"))
	log.Infof("Creating backup: %s", backupPath)
	if err := os.WriteFile(backupPath, input, 0644); err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}
	return nil
}

// copyTables copies every table from src to dst and returns the number of
// records per table. The destination assigns new ids, so references are
// rewritten; a reference to a record that was not copied becomes nil.
func copyTables(ctx context.Context, src, dst store.Client, opts options, log *logrus.Entry) (map[string]int, error) {
	if !opts.force && !opts.dryRun {
		for _, table := range store.Tables {
			resp, err := dst.FetchRecords(ctx, table, store.Query{Fields: []string{store.FieldName}})
			if err != nil {
				return nil, fmt.Errorf("failed to check %s: %w", table, err)
			}
			if n := len(resp.Data); n > 0 {
				return nil, fmt.Errorf("destination table %s already has %d records; use -force to copy anyway", table, n)
			}
		}
	}

	idMaps := make(map[string]map[int64]int64, len(store.Tables))
	counts := make(map[string]int, len(store.Tables))

	for _, table := range store.Tables {
		resp, err := src.FetchRecords(ctx, table, store.Query{})
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", table, err)
		}
		if !resp.Success {
			return nil, fmt.Errorf("failed to read %s: %s", table, resp.Message)
		}
		counts[table] = len(resp.Data)

		if opts.dryRun {
			log.Infof("[DRY RUN] Would copy %d records from %s", len(resp.Data), table)
			continue
		}

		ids := make(map[int64]int64, len(resp.Data))
		idMaps[table] = ids

		for start := 0; start < len(resp.Data); start += batchSize {
			end := min(start+batchSize, len(resp.Data))
			chunk := resp.Data[start:end]

			oldIDs := make([]int64, len(chunk))
			batch := make([]store.Record, len(chunk))
			for i, rec := range chunk {
				oldIDs[i], _ = store.ID(rec[store.FieldID])
				batch[i] = remap(rec, idMaps)
			}

			result, err := dst.CreateRecords(ctx, table, batch)
			if err != nil {
				return nil, fmt.Errorf("failed to write %s: %w", table, err)
			}
			if !result.Success {
				return nil, fmt.Errorf("failed to write %s: %s", table, result.Message)
			}
			for i, r := range result.Results {
				if !r.Success {
					return nil, fmt.Errorf("record %d of %s rejected: %s", oldIDs[i], table, r.Message)
				}
				if id, ok := store.ID(r.Data[store.FieldID]); ok {
					ids[oldIDs[i]] = id
				}
			}
		}
	}

	return counts, nil
}

func remap(rec store.Record, idMaps map[string]map[int64]int64) store.Record {
	out := store.Project(rec, nil)
	delete(out, store.FieldID)

	for field, table := range references {
		v, ok := out[field]
		if !ok || v == nil {
			continue
		}
		old, ok := store.ID(v)
		if !ok {
			continue
		}
		if id, ok := idMaps[table][old]; ok {
			out[field] = id
		} else {
			out[field] = nil
		}
	}
	return out
}

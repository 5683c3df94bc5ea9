// ABOUTME: Opens the configured record-store backend
// ABOUTME: SQLite file, synced Charm KV, or a local BadgerDB

package config

import (
	"fmt"

	"github.com/harperreed/dealflow/charm"
	"github.com/harperreed/dealflow/db"
	"github.com/harperreed/dealflow/store"
)

// Backend is an open record store and the function that releases it.
type Backend struct {
	store.Client
	Name  string
	close func() error
}

func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// OpenBackend opens the record store named by c.Backend.
func (c *Config) OpenBackend() (*Backend, error) {
	switch c.Backend {
	case BackendSQLite:
		database, err := db.OpenDatabase(c.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return &Backend{Client: db.NewRecordStore(database), Name: c.Backend, close: database.Close}, nil

	case BackendCharm:
		charmCfg, err := charm.LoadConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load charm config: %w", err)
		}
		if c.CharmHost != "" {
			charmCfg.Host = c.CharmHost
		}
		client, err := charm.NewClient(charmCfg)
		if err != nil {
			return nil, err
		}
		return &Backend{Client: charm.NewRecordStore(client), Name: c.Backend, close: client.Close}, nil

	case BackendBadger:
		client, err := charm.OpenLocal(c.KVPath)
		if err != nil {
			return nil, err
		}
		return &Backend{Client: charm.NewRecordStore(client), Name: c.Backend, close: client.Close}, nil
	}

	return nil, fmt.Errorf("unknown backend %q", c.Backend)
}

// Location describes where the backend keeps its data.
func (c *Config) Location() string {
	switch c.Backend {
	case BackendSQLite:
		return c.DBPath
	case BackendBadger:
		return c.KVPath
	case BackendCharm:
		if c.CharmHost != "" {
			return c.CharmHost
		}
		return charm.DefaultCharmHost
	}
	return ""
}

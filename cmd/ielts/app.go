package main

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/ieltsmaster/studyplan/internal/config"
	"github.com/ieltsmaster/studyplan/internal/store"
	"github.com/ieltsmaster/studyplan/internal/syncstore"
)

// openKV opens the backend selected by storage.driver.
func openKV(c *config.Config) (store.KV, error) {
	switch c.Storage.Driver {
	case config.DriverMemory:
		return store.NewMemory(), nil
	default:
		kv, err := store.Open(c.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open state database: %w", err)
		}
		return kv, nil
	}
}

// syncOptions builds syncer options from the storage config.
func syncOptions(c *config.Config) syncstore.Options {
	return syncstore.Options{
		Key:     c.Storage.Key,
		TTL:     c.Storage.TTL,
		Timeout: c.Storage.Timeout,
	}
}

// openSyncer opens the backend and wraps it in a syncer. The caller closes
// the returned KV.
func openSyncer(c *config.Config, logger *log.Logger) (syncstore.Syncer, store.KV, error) {
	kv, err := openKV(c)
	if err != nil {
		return nil, nil, err
	}
	return syncstore.New(kv, syncOptions(c), logger), kv, nil
}

// marshalPayload encodes v as a sync request body.
func marshalPayload(v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	return body, nil
}

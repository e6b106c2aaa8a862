// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/absmach/topictree/router"
	"github.com/absmach/topictree/storage"
	"github.com/absmach/topictree/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
log:
  level: error
storage:
  type: badger
  badger_dir: ` + filepath.Join(dir, "data") + `
bootstrap:
  workers: 2
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func run(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func TestSubscribeAndMatch(t *testing.T) {
	cfg := writeConfig(t)

	run(t, "--config", cfg, "--json=false", "subscribe", "c1", "a/+", "--qos", "1")
	run(t, "--config", cfg, "--json=false", "subscribe", "c2", "$share/g/a/b", "--qos", "0")
	run(t, "--config", cfg, "--json=false", "subscribe", "c3", "#", "--qos", "2")

	out := run(t, "--config", cfg, "--json=false", "match", "a/b")
	assert.Contains(t, out, "c1 qos=1")
	assert.Contains(t, out, "c2 qos=0 share=g filter=a/b")
	assert.Contains(t, out, "c3 qos=2")

	out = run(t, "--config", cfg, "--json=false", "match", "a/b", "--exclude-root-wildcard")
	assert.NotContains(t, out, "c3")

	run(t, "--config", cfg, "--json=false", "unsubscribe", "c2", "$share/g/a/b")
	run(t, "--config", cfg, "--json=false", "unsubscribe", "c3", "--all")

	out = run(t, "--config", cfg, "--json", "match", "a/b", "--exclude-root-wildcard=false")
	var matches []router.Match
	require.NoError(t, json.Unmarshal([]byte(out), &matches))
	require.Len(t, matches, 1)
	assert.Equal(t, "c1", matches[0].ClientID)

	out = run(t, "--config", cfg, "--json", "stats")
	var st router.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, int64(1), st.Subscriptions)
	assert.Equal(t, 1, st.Segments)
}

func TestSubscribe_RejectsInvalidFilter(t *testing.T) {
	cfg := writeConfig(t)

	rootCmd.SetArgs([]string{"--config", cfg, "subscribe", "c1", "a/#/b", "--qos", "0"})
	assert.Error(t, rootCmd.Execute())

	rootCmd.SetArgs([]string{"--config", cfg, "subscribe", "c1", "$share//a", "--qos", "0"})
	assert.Error(t, rootCmd.Execute())
}

func TestBench(t *testing.T) {
	cfg := writeConfig(t)

	out := run(t, "--config", cfg, "--json=false", "bench",
		"--subscriptions", "500", "--lookups", "200", "--workers", "3", "--tenants", "5")
	assert.Contains(t, out, "subscriptions:   500")
	assert.Contains(t, out, "lookups:         200")
}

type failingStore struct {
	storage.Store
	err error
}

func (s failingStore) Close() error { return s.err }

func TestEnvCloseInto(t *testing.T) {
	storeErr := errors.New("store close")
	shutdownErr := errors.New("exporter shutdown")
	e := &env{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		store:    failingStore{Store: memory.New(), err: storeErr},
		shutdown: func(context.Context) error { return shutdownErr },
	}

	runErr := errors.New("run")
	err := runErr
	e.closeInto(&err)
	assert.ErrorIs(t, err, runErr)
	assert.ErrorIs(t, err, storeErr)
	assert.ErrorIs(t, err, shutdownErr)

	err = nil
	e.closeInto(&err)
	assert.ErrorIs(t, err, storeErr)

	clean := &env{
		logger:   e.logger,
		store:    memory.New(),
		shutdown: func(context.Context) error { return nil },
	}
	err = nil
	clean.closeInto(&err)
	assert.NoError(t, err)
}

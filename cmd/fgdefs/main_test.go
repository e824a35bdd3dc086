package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fgdefs/internal/archive"
	"fgdefs/internal/config"
)

const definitionsCSV = `DEFINITION_Diet,DEFINITION_Realm,PROPERTY_Minimum mass,NOTES_Source
Herbivore,Terrestrial,1.5,field survey
Carnivore,Marine,20,
Herbivore,Marine,0.5,
`

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// quietConfig writes a config that keeps the logger at error level.
func quietConfig(t *testing.T, dir string, mutate func(*config.Config)) string {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Logging.Level = "error"
	cfg.Archive.Root = filepath.Join(dir, "output")
	if mutate != nil {
		mutate(cfg)
	}
	path := filepath.Join(dir, "fgdefs.yaml")
	require.NoError(t, cfg.Save(path))
	return path
}

func run(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	file := writeFixture(t, dir, "defs.csv", definitionsCSV)

	out, err := run(t, context.Background(), "inspect", "--config", quietConfig(t, dir, nil), "--file", file)
	require.NoError(t, err)

	var report inspectReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, file, report.Path)
	assert.Equal(t, 3, report.EntityCount)
	assert.Equal(t, []string{"diet", "realm"}, report.Traits)
	assert.Equal(t, []string{"minimum mass"}, report.Properties)
	require.NotNil(t, report.Summary)
	require.Len(t, report.Summary.Properties, 1)
	assert.Equal(t, 20.0, report.Summary.Properties[0].Max)
}

func TestInspectLoadFailure(t *testing.T) {
	dir := t.TempDir()
	file := writeFixture(t, dir, "defs.csv", "FOO_Diet\nx\n")

	_, err := run(t, context.Background(), "inspect", "--config", quietConfig(t, dir, nil), "--file", file)
	assert.ErrorContains(t, err, "FOO_Diet")
}

func TestInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := quietConfig(t, dir, func(c *config.Config) { c.Archive.Driver = "tape" })

	_, err := run(t, context.Background(), "inspect", "--config", cfgPath)
	assert.ErrorContains(t, err, "invalid config")
}

func TestArchiveCommand(t *testing.T) {
	dir := t.TempDir()
	file := writeFixture(t, dir, "defs.csv", definitionsCSV)
	ledgerPath := filepath.Join(dir, "ledger.db")
	cfgPath := quietConfig(t, dir, func(c *config.Config) { c.Archive.LedgerPath = ledgerPath })

	out, err := run(t, context.Background(), "archive", "--config", cfgPath, "--file", file)
	require.NoError(t, err)
	key := strings.TrimSpace(out)
	assert.True(t, strings.HasSuffix(key, "/defs.csv"), key)

	copied, err := os.ReadFile(filepath.Join(dir, "output", filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.Equal(t, definitionsCSV, string(copied))

	ledger, err := archive.OpenLedger(ledgerPath)
	require.NoError(t, err)
	defer func() { _ = ledger.Close() }()
	entries, err := ledger.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, key, entries[0].Key)
	assert.Equal(t, file, entries[0].Source)
}

func TestArchiveCommandRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	file := writeFixture(t, dir, "defs.csv", "PROPERTY_Mass\nheavy\n")

	_, err := run(t, context.Background(), "archive", "--config", quietConfig(t, dir, nil), "--file", file)
	require.Error(t, err)
	_, statErr := os.Stat(filepath.Join(dir, "output"))
	if statErr == nil {
		entries, _ := os.ReadDir(filepath.Join(dir, "output"))
		assert.Empty(t, entries)
	}
}

func TestServeExitsOnLoadFailure(t *testing.T) {
	dir := t.TempDir()
	file := writeFixture(t, dir, "defs.csv", "DEFINITION_Diet,PROPERTY_Mass\nHerbivore,1,5\n")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := run(t, ctx, "serve", "--config", quietConfig(t, dir, nil), "--file", file, "--addr", "127.0.0.1:0")
	require.Error(t, err)
	assert.ErrorContains(t, err, "load definitions")
	assert.NoError(t, ctx.Err(), "serve should exit on its own")
}

func TestServeStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	file := writeFixture(t, dir, "defs.csv", definitionsCSV)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(300*time.Millisecond, cancel)
	_, err := run(t, ctx, "serve", "--config", quietConfig(t, dir, nil), "--file", file, "--addr", "127.0.0.1:0", "--archive")
	assert.NoError(t, err)
}

func TestArchiveListAndVerify(t *testing.T) {
	dir := t.TempDir()
	file := writeFixture(t, dir, "defs.csv", definitionsCSV)
	cfgPath := quietConfig(t, dir, func(c *config.Config) { c.Archive.LedgerPath = filepath.Join(dir, "ledger.db") })
	ctx := context.Background()

	out, err := run(t, ctx, "archive", "--config", cfgPath, "--file", file)
	require.NoError(t, err)
	key := strings.TrimSpace(out)

	out, err = run(t, ctx, "archive", "list", "--config", cfgPath)
	require.NoError(t, err)
	var entries []archive.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, key, entries[0].Key)

	out, err = run(t, ctx, "archive", "verify", key, "--config", cfgPath, "--file", file)
	require.NoError(t, err)
	var v archive.Verification
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.True(t, v.MatchesSource())

	writeFixture(t, dir, "defs.csv", definitionsCSV+"Omnivore,Marine,3,\n")
	_, err = run(t, ctx, "archive", "verify", key, "--config", cfgPath, "--file", file)
	assert.ErrorContains(t, err, "does not match")

	_, err = run(t, ctx, "archive", "verify", "no-such/defs.csv", "--config", cfgPath, "--file", file)
	assert.ErrorIs(t, err, archive.ErrNotFound)
}

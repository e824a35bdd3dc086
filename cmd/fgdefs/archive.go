package main

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"fgdefs/internal/archive"
	"fgdefs/internal/engine"
)

func newArchiveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Validate the definitions file and store a provenance copy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.DefinitionsPath()
			// only files that load are archived
			if _, err := engine.Load(cmd.Context(), a.source(), path, a.logger); err != nil {
				return err
			}
			entry, err := a.archive(cmd.Context(), path)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), entry.Key)
			return err
		},
	}
	cmd.AddCommand(newArchiveListCmd(a), newArchiveVerifyCmd(a))
	return cmd
}

func newArchiveListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print archived copies as JSON, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			arch, done, err := a.archiver(cmd.Context())
			if err != nil {
				return err
			}
			defer done()
			entries, err := arch.Entries(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, entries)
		},
	}
}

func newArchiveVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <key>",
		Short: "Check an archived copy against its digest and the definitions file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arch, done, err := a.archiver(cmd.Context())
			if err != nil {
				return err
			}
			defer done()
			v, err := arch.Verify(cmd.Context(), args[0], a.cfg.DefinitionsPath())
			if err != nil {
				return err
			}
			if err := printJSON(cmd, v); err != nil {
				return err
			}
			switch {
			case !v.Intact():
				return fmt.Errorf("archived %s is corrupt: recorded %s, stored %s", v.Key, v.Recorded, v.Stored)
			case !v.MatchesSource():
				return fmt.Errorf("archived %s does not match %s", v.Key, a.cfg.DefinitionsPath())
			}
			return nil
		},
	}
}

// archiver opens the configured store and, when configured, the ledger.
// done closes the ledger.
func (a *app) archiver(ctx context.Context) (*archive.Archiver, func(), error) {
	store, err := archive.Open(ctx, a.cfg.Archive)
	if err != nil {
		return nil, nil, fmt.Errorf("open archive store: %w", err)
	}
	if a.cfg.Archive.LedgerPath == "" {
		return archive.NewArchiver(store, nil, a.logger), func() {}, nil
	}
	ledger, err := archive.OpenLedger(a.cfg.Archive.LedgerPath)
	if err != nil {
		return nil, nil, err
	}
	return archive.NewArchiver(store, ledger, a.logger), func() { _ = ledger.Close() }, nil
}

// archive copies path into the configured store, recording it in the ledger
// when one is configured.
func (a *app) archive(ctx context.Context, path string) (archive.Entry, error) {
	arch, done, err := a.archiver(ctx)
	if err != nil {
		return archive.Entry{}, err
	}
	defer done()
	return arch.Archive(ctx, path)
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(append(out, '\n'))
	return err
}

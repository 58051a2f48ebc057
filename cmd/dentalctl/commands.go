package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jwalitptl/dental-api/internal/model"
	"github.com/jwalitptl/dental-api/internal/repository"
	"github.com/jwalitptl/dental-api/internal/repository/backend"
	"github.com/jwalitptl/dental-api/internal/store"
	"github.com/jwalitptl/dental-api/internal/view"
	"github.com/jwalitptl/dental-api/internal/worker"
)

func newSeedCmd(opts *options) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write the sample patients and appointments",
		Long: `Seed fills empty storage with the sample patients and appointments.
Collections that already exist are left alone unless --force is given,
which replaces both with fresh sample data.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			st, _, closeFn, err := opts.openStore(ctx, cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			if force {
				now := time.Now()
				if err := st.Import(ctx, model.Snapshot{
					Patients:     store.SamplePatients(now),
					Appointments: store.SampleAppointments(now),
				}); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d patients, %d appointments\n", len(st.Patients()), len(st.Appointments()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "replace existing collections with sample data")
	return cmd
}

func newExportCmd(opts *options) *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a snapshot of all collections",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, _, closeFn, err := opts.openStore(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			w := cmd.OutOrStdout()
			if out != "" {
				if format == "" {
					format = formatFromPath(out)
				}
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			return encodeSnapshot(w, st.Export(), format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "json or yaml (default from --out extension, else json)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func newImportCmd(opts *options) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Replace patients and appointments from a snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			if format == "" {
				format = formatFromPath(args[0])
			}
			snap, err := decodeSnapshot(data, format)
			if err != nil {
				return err
			}

			st, _, closeFn, err := opts.openStore(ctx, cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := st.Import(ctx, snap); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d patients, %d appointments\n", len(snap.Patients), len(snap.Appointments))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "json or yaml (default from file extension)")
	return cmd
}

func newStatsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print clinic statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, _, closeFn, err := opts.openStore(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			patients, appointments := st.Patients(), st.Appointments()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "patients\t%d\n", len(patients))
			fmt.Fprintf(tw, "appointments\t%d\n", len(appointments))
			counts := view.CountByStatus(appointments)
			for _, status := range model.AppointmentStatuses {
				fmt.Fprintf(tw, "  %s\t%d\n", status, counts[status])
			}
			fmt.Fprintf(tw, "upcoming\t%d\n", len(view.UpcomingAppointments(appointments, time.Now())))
			fmt.Fprintf(tw, "completion rate\t%.0f%%\n", view.CompletionRate(appointments)*100)
			fmt.Fprintf(tw, "revenue\t$%.2f\n", view.Revenue(appointments))
			return tw.Flush()
		},
	}
}

func newBackupCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Copy the current state to the backup storage once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			st, cfg, closeFn, err := opts.openStore(ctx, cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := cfg.Backup.Storage.Validate(); err != nil {
				return err
			}
			repo, err := backend.Open(ctx, cfg.Backup.Storage, nil)
			if err != nil {
				return fmt.Errorf("failed to open backup storage: %w", err)
			}
			defer repo.Close()

			w := worker.NewBackupWorker(st, repository.NewSnapshots(repo, cfg.Backup.Storage.Prefix), 0, opts.logger(cmd.ErrOrStderr()), nil)
			key, err := w.RunOnce(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
}

func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	}
	return "json"
}

func encodeSnapshot(w io.Writer, snap model.Snapshot, format string) error {
	switch format {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown format %q", format)
}

func decodeSnapshot(data []byte, format string) (model.Snapshot, error) {
	var snap model.Snapshot
	var err error
	switch format {
	case "", "json":
		err = json.Unmarshal(data, &snap)
	case "yaml":
		err = yaml.Unmarshal(data, &snap)
	default:
		return snap, fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return snap, fmt.Errorf("failed to decode %s snapshot: %w", format, err)
	}
	return snap, nil
}


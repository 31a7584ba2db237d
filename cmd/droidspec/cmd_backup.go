package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/HerbHall/droidspec/internal/backup"
	"github.com/HerbHall/droidspec/internal/store"
)

func newBackupCmd() *cobra.Command {
	var (
		out        string
		withConfig bool
	)
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Archive the saved state database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := loadViper()
			db, err := store.Open(cmd.Context(), v.GetString("database.path"))
			if err != nil {
				return err
			}
			defer db.Close()

			if out == "" {
				out = "droidspec-backup-" + time.Now().UTC().Format("20060102-150405") + ".tar.gz"
			}
			cfgFile := ""
			if withConfig {
				cfgFile = v.ConfigFileUsed()
			}
			m, err := backup.Create(cmd.Context(), db, cfgFile, out)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "backup written to %s (droidspec %s)\n", out, m.AppVersion)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "archive path (default droidspec-backup-<timestamp>.tar.gz)")
	cmd.Flags().BoolVar(&withConfig, "with-config", true, "include the active configuration file")
	return cmd
}

func newRestoreCmd() *cobra.Command {
	var (
		dir   string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "restore <archive>",
		Short: "Restore a state database archive (stop the server first)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath := loadViper().GetString("database.path")
			if dir == "" {
				dir = filepath.Dir(dbPath)
			}
			m, err := backup.Restore(args[0], dir, force)
			if err != nil {
				return err
			}
			restored := filepath.Join(dir, m.Database)
			fmt.Fprintf(cmd.OutOrStdout(), "restored %s (created %s by droidspec %s)\n",
				restored, m.CreatedAt.Format(time.RFC3339), m.AppVersion)
			if filepath.Clean(restored) != filepath.Clean(dbPath) {
				fmt.Fprintf(cmd.OutOrStdout(), "note: database.path is %s; point it at %s to use the restored state\n",
					dbPath, restored)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "target directory (default: directory of database.path)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")
	return cmd
}

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	service "github.com/okian/rallylog/internal/app"
)

func newExportCmd(g *globalFlags) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export <match-id>",
		Short: "Write a match as CSV",
		Long: "Write a match and its rallies as CSV. With -o pointing at a directory the\n" +
			"file is named after the match; -o - writes to stdout.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), g, func(svc *service.Service) error {
				file, err := svc.ExportMatch(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if out == "-" {
					_, err := cmd.OutOrStdout().Write(file.Data)
					return err
				}
				path := out
				if path == "" {
					path = file.Name
				} else if info, err := os.Stat(path); err == nil && info.IsDir() {
					path = filepath.Join(path, file.Name)
				}
				if err := os.WriteFile(path, file.Data, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", path, len(file.Data))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file or directory (default: ./<match file name>)")
	return cmd
}

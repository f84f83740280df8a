package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/klabast/wb-services/attendance/internal/app"
	"github.com/klabast/wb-services/attendance/internal/attendance"
)

func (c *cli) exportCmd() *cobra.Command {
	var output string
	var csvFormat bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every subject as JSON (or CSV)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStack(func(st *stack) error {
				out := cmd.OutOrStdout()
				if output != "" && output != "-" {
					f, err := os.Create(output)
					if err != nil {
						return fmt.Errorf("failed to create %s: %w", output, err)
					}
					defer f.Close()
					out = f
				}

				if csvFormat {
					classes, err := st.registry.Classes()
					if err != nil {
						return err
					}
					return app.WriteCSV(out, classes)
				}

				data, err := st.registry.ExportAll()
				if err != nil {
					return err
				}
				if _, err := out.Write(append(data, '\n')); err != nil {
					return err
				}
				if output != "" && output != "-" {
					c.log.Info("exported", zap.String("file", output))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout, e.g. "+app.ExportFileName+")")
	cmd.Flags().BoolVar(&csvFormat, "csv", false, "Write subject,date,status rows instead of JSON")
	return cmd
}

func (c *cli) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace every subject with an exported JSON file",
		Long: `Reads a file written by "attendance export". Records with a bad date or
status are dropped. A file whose top level is not a JSON object is
rejected and nothing changes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(args[0], c.reader())
			if err != nil {
				return err
			}
			return c.withStack(func(st *stack) error {
				current, err := st.registry.Classes()
				if err != nil {
					return err
				}
				if len(current) > 0 && !c.confirm(cmd.ErrOrStderr())(fmt.Sprintf("Replace %d existing subjects?", len(current))) {
					return attendance.ErrNotConfirmed
				}
				n, err := st.registry.ImportAll(data)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d subjects\n", n)
				return nil
			})
		},
	}
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(io.LimitReader(stdin, app.MaxImportBytes+1))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

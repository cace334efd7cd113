package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/classreg/internal/sqlite"
)

// attachIndex opens the class index in the resolved data directory. The
// caller must defer Detach.
func (a *app) attachIndex() (*sqlite.Store, error) {
	index := sqlite.NewStore()
	if err := index.Attach(a.config); err != nil {
		return nil, fmt.Errorf("attach index: %w", err)
	}
	return index, nil
}

func newIndexCmd(a *app) *cobra.Command {
	var exportPath string
	cmd := &cobra.Command{
		Use:   "index <path>",
		Short: "Record the classes and methods of a container in the index",
		Long: `Index decodes every class in the container and records one scan in the
local class index. With --export the scan's classes are also written as JSONL.`,
		Example: `  classreg index lib/app.jar
  classreg index lib/app.jar --export classes.jsonl`,
		Args: userArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runIndex(cmd, args[0], exportPath)
		},
	}
	cmd.Flags().StringVar(&exportPath, "export", "", "also write the scan's classes to this JSONL file")
	return cmd
}

func (a *app) runIndex(cmd *cobra.Command, path, exportPath string) error {
	reg, err := a.openRegistry(path)
	if err != nil {
		return err
	}
	index, err := a.attachIndex()
	if err != nil {
		return err
	}
	defer index.Detach()

	scan, err := index.Index(reg)
	if err != nil {
		return err
	}
	a.logger.Info().
		Str("scan_id", scan.ScanID).
		Str("container", scan.Container).
		Int("classes", scan.ClassCount).
		Int("methods", scan.MethodCount).
		Msg("scan recorded")

	if exportPath != "" {
		if err := index.ExportJSONL(scan.ScanID, exportPath); err != nil {
			return fmt.Errorf("export: %w", err)
		}
	}

	if a.jsonOutput() {
		return printJSON(cmd.OutOrStdout(), scan)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "indexed %d classes, %d methods from %s (scan %s)\n",
		scan.ClassCount, scan.MethodCount, scan.Container, scan.ScanID)
	if exportPath != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", exportPath)
	}
	return nil
}

func newFindCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "find <method-name>",
		Short:   "Find indexed methods by name",
		Example: `  classreg find main`,
		Args:    userArgs(cobra.ExactArgs(1)),
		RunE:    a.runFind,
	}
}

func (a *app) runFind(cmd *cobra.Command, args []string) error {
	index, err := a.attachIndex()
	if err != nil {
		return err
	}
	defer index.Detach()

	methods, err := index.FindMethods(args[0])
	if err != nil {
		return err
	}

	if a.jsonOutput() {
		if methods == nil {
			return printJSON(cmd.OutOrStdout(), []any{})
		}
		return printJSON(cmd.OutOrStdout(), methods)
	}
	if len(methods) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "no methods named %q\n", args[0])
		return nil
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, m := range methods {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", m.Container, m.ClassName, m.Signature)
	}
	return tw.Flush()
}

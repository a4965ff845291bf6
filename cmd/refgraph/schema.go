package main

import (
	"fmt"
	"os"

	"github.com/aretw0/refgraph/internal/presentation/graph"
	"github.com/aretw0/refgraph/internal/presentation/tui"
	"github.com/aretw0/refgraph/pkg/registry"
	"github.com/aretw0/refgraph/pkg/schema"
	"github.com/spf13/cobra"
)

func newSchemaCmd(a *app) *cobra.Command {
	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Work with class tables",
	}

	validateCmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a class table for consistency",
		Long:  `Parses the class table and builds its classes in an isolated registry, reporting every problem found.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			styles := tui.NewStyles(cmd.OutOrStdout())
			classes, err := schema.BuildFile(registry.NewRegistry(), args[0])
			if err != nil {
				problems := schema.ValidationErrors(err)
				if len(problems) == 0 {
					return err
				}
				for _, p := range problems {
					fmt.Fprintln(cmd.OutOrStdout(), styles.Failure(p.Error()))
				}
				return fmt.Errorf("%s: %d problem(s) found", args[0], len(problems))
			}
			a.logger.Debug("Schema built", "file", args[0], "classes", len(classes))
			fmt.Fprintln(cmd.OutOrStdout(), styles.Success(fmt.Sprintf("%d classes are valid", len(classes))))
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <file>",
		Short: "Print a class table",
		Long:  `Prints the class table as markdown (rendered on terminals), normalised YAML or a Mermaid class diagram.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			specs, err := schema.Load(args[0])
			if err != nil {
				return err
			}

			var output string
			switch format {
			case "markdown", "md":
				out, _ := cmd.OutOrStdout().(*os.File)
				output, err = tui.NewRenderer(out)(tui.SchemaMarkdown(specs))
			case "yaml":
				var data []byte
				data, err = schema.Marshal(specs)
				output = string(data)
			case "mermaid":
				output = graph.GenerateClassDiagram(specs)
			default:
				return fmt.Errorf("unknown format %q", format)
			}
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), output)
			return nil
		},
	}
	showCmd.Flags().StringP("format", "f", "markdown", "Output format (markdown, yaml, mermaid)")

	schemaCmd.AddCommand(validateCmd, showCmd)
	return schemaCmd
}

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pipscope/pkg/archive"
)

// newHistoryCmd creates the history command for archived reports.
func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived audit reports",
		Long: `List reports archived with 'pipscope audit --save'.

Reports live under the XDG data directory and are listed newest first.
Use 'pipscope history show <run-id>' to reopen one.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(cmd.Context(), limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum reports to list (0 = all)")
	cmd.AddCommand(newHistoryShowCmd())

	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Reopen an archived audit report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryShow(cmd.Context(), args[0], jsonOut)
		},
	}

	cmd.Flags().BoolVarP(&jsonOut, "json", "j", false, "print the raw JSON report")

	return cmd
}

func runHistoryList(ctx context.Context, limit int) error {
	store, err := archive.NewFileStore(reportsDir())
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	entries, err := store.List(ctx, limit)
	if err != nil {
		return fmt.Errorf("list archive: %w", err)
	}
	if len(entries) == 0 {
		printInfo("No archived reports. Run 'pipscope audit <package> --save' to create one.")
		return nil
	}

	printSection("Archived reports")
	for _, e := range entries {
		extra := ""
		if n := e.Summary.PackagesRequiringInvestigation; n > 0 {
			extra = "  " + StyleWarning.Render(fmt.Sprintf("%d flagged", n))
		}
		fmt.Printf("%s  %s %s%s\n",
			StyleDim.Render(e.GeneratedAt.Local().Format("2006-01-02 15:04")),
			StyleHighlight.Render(fmt.Sprintf("%-24s", e.RootPackage)),
			StyleDim.Render(fmt.Sprintf("%3d deps", e.Summary.TotalDependencies)),
			extra)
		printDetail("%s", e.RunID)
	}
	return nil
}

func runHistoryShow(ctx context.Context, runID string, jsonOut bool) error {
	store, err := archive.NewFileStore(reportsDir())
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	rep, err := store.Get(ctx, runID)
	if err != nil {
		if errors.Is(err, archive.ErrNotFound) {
			return fmt.Errorf("no archived report %q (list reports with 'pipscope history')", runID)
		}
		return fmt.Errorf("load report: %w", err)
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	printSection("Audit report: " + rep.RootPackage)
	printKeyValue("Run ID", rep.RunID)
	printKeyValue("Generated", rep.GeneratedAt.Local().Format("2006-01-02 15:04:05"))
	printKeyValue("Dependencies", strconv.Itoa(rep.Summary.TotalDependencies))
	printKeyValue("Max depth", strconv.Itoa(rep.Summary.MaxDepth))
	printKeyValue("Missing", strconv.Itoa(rep.Summary.MissingPackages))
	printKeyValue("Flagged", strconv.Itoa(rep.Summary.PackagesRequiringInvestigation))

	printNewline()
	for _, d := range rep.Dependencies {
		line := "- " + d.FullSpec
		if d.License != "" {
			line += " [" + d.License + "]"
		}
		if d.InvestigationRequired {
			line += " (!)"
		}
		fmt.Println(line)
	}

	if len(rep.MissingPackages) > 0 {
		printSection("Missing packages")
		for _, mp := range rep.MissingPackages {
			fmt.Printf("- %s (required by %s)\n", mp.Name, joinOr(mp.RequiredBy, "unknown"))
			printDetail("%s", mp.Error)
		}
	}

	flagged := false
	for _, d := range rep.Dependencies {
		if d.InvestigationRequired {
			flagged = true
			break
		}
	}
	if flagged {
		printSection("Packages requiring investigation")
		for _, d := range rep.Dependencies {
			if !d.InvestigationRequired {
				continue
			}
			fmt.Println("- " + d.Name)
			for _, flag := range d.InvestigationFlags {
				printDetail("! %s", flag)
			}
		}
	}

	return nil
}

func joinOr(parts []string, fallback string) string {
	if len(parts) == 0 {
		return fallback
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += ", " + p
	}
	return out
}

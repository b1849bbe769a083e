package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	. "github.com/streamingfast/cli"
	"github.com/streamingfast/harnessup"
)

var OptimizeCommand = Command(optimizeE,
	"optimize",
	"Grid search the retrieval limits of the evaluation script",
	Description(`
		Runs the evaluation once per parameter combination (FACTS_LIMIT,
		ENTITIES_LIMIT, EPISODES_LIMIT) and ranks the combinations by accuracy
		on the hard question category.

		Trials run one after the other because each one rewrites the limits in
		zep_evaluate.py. A failing trial is reported and skipped.

		The ranking is saved to zep-eval-harness/optimization_results_<timestamp>.json
		and the best combination is written back to the script unless --no-apply
		is given.

		The grid defaults to the built-in one, or to 'grid' in harnessup.yaml.
		Use --grid facts:entities:episodes,... to override it.
	`),
	Flags(func(flags *pflag.FlagSet) {
		workspaceFlags(flags)
		flags.StringSlice("grid", nil, "Grid points as facts:entities:episodes (repeatable or comma separated)")
		flags.Bool("no-apply", false, "Do not write the best combination back to the evaluation script")
		flags.Duration("timeout", 0, "Timeout of a single evaluation run (default: evaluate_timeout from config, 10m)")
	}),
)

// optimizeE runs the grid search
func optimizeE(cmd *cobra.Command, args []string) error {
	wctx, err := LoadWorkspaceContext(cmd)
	if err != nil {
		return err
	}

	gridSpecs, err := cmd.Flags().GetStringSlice("grid")
	if err != nil {
		return fmt.Errorf("failed to get grid flag: %w", err)
	}
	noApply, _ := cmd.Flags().GetBool("no-apply")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout <= 0 {
		timeout = wctx.Config.EvaluateTimeout
	}

	grid := wctx.Config.ParamGrid()
	if len(gridSpecs) > 0 {
		grid, err = harnessup.ParseGrid(gridSpecs)
		if err != nil {
			return err
		}
	}

	harnessFS, err := wctx.Workspace.HarnessFS()
	if err != nil {
		return err
	}

	ctx, stop := commandContext(cmd)
	defer stop()

	console := wctx.Console
	console.Banner("Parameter grid search - optimizing for hard category accuracy")
	console.Step("Testing %d configurations, each run can take up to %s", len(grid), timeout)
	console.Step("")

	runner := &harnessup.CommandRunner{
		Command: wctx.Config.RunCommand,
		Dir:     wctx.Workspace.HarnessPath(),
		Timeout: timeout,
	}
	optimizer := harnessup.NewOptimizer(harnessFS, wctx.Config.EvaluateScript, runner, console)

	report, runErr := optimizer.Run(ctx, grid)
	if runErr != nil && !errors.Is(runErr, ctx.Err()) {
		return runErr
	}

	printReport(cmd, report)

	reportFile, err := optimizer.SaveReport(report)
	if err != nil {
		return err
	}
	console.Success("Results saved to %s/%s", wctx.Workspace.HarnessDir, reportFile)

	if runErr != nil {
		return fmt.Errorf("grid search interrupted after %d trials: %w", len(report.Results)+len(report.Failures), runErr)
	}

	best, found := report.Best()
	if !found {
		return fmt.Errorf("no trial succeeded, see the errors above")
	}

	console.Step("")
	console.Banner("Best configuration found")
	console.Step("%s = %d", harnessup.FactsLimitVar, best.Facts)
	console.Step("%s = %d", harnessup.EntitiesLimitVar, best.Entities)
	console.Step("%s = %d", harnessup.EpisodesLimitVar, best.Episodes)
	console.Step("Hard category accuracy: %.2f%%", best.HardAccuracy)
	console.Step("Context completeness: %.2f%%", best.Completeness)

	if noApply {
		return nil
	}

	if err := optimizer.ApplyLimits(best.GridPoint, "OPTIMIZED - Best from grid search"); err != nil {
		return fmt.Errorf("failed to apply best configuration: %w", err)
	}
	console.Success("Best configuration applied to %s", wctx.Config.EvaluateScript)
	return nil
}

func printReport(cmd *cobra.Command, report *harnessup.OptimizationReport) {
	cmd.Println()
	cmd.Printf("Run %s (%s)\n", report.RunID, report.FinishedAt.Sub(report.StartedAt).Round(time.Second))
	cmd.Printf("%-6s%-8s%-10s%-10s%-10s%-12s%s\n", "Rank", "Facts", "Entities", "Episodes", "Hard %", "Complete %", "Overall %")
	cmd.Println("--------------------------------------------------------------------------------")
	for i, r := range report.Results {
		cmd.Printf("%-6d%-8d%-10d%-10d%-10.2f%-12.2f%.2f\n", i+1, r.Facts, r.Entities, r.Episodes, r.HardAccuracy, r.Completeness, r.OverallAccuracy)
	}
	for _, f := range report.Failures {
		cmd.Printf("%-6s%-8d%-10d%-10d%s\n", "-", f.Facts, f.Entities, f.Episodes, f.Error)
	}
	cmd.Println()
}

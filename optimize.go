package harnessup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Limit variables rewritten in the evaluation script
const (
	FactsLimitVar    = "FACTS_LIMIT"
	EntitiesLimitVar = "ENTITIES_LIMIT"
	EpisodesLimitVar = "EPISODES_LIMIT"
)

// ResultsGlob matches the files the evaluation script writes, relative to the
// harness directory.
const ResultsGlob = "runs/*/evaluation_results_*.json"

// ErrNoResults is returned when a trial produced no evaluation results file
var ErrNoResults = errors.New("no evaluation results produced")

// TrialResult holds the scores of one grid point
type TrialResult struct {
	GridPoint
	HardAccuracy    float64 `json:"hard_accuracy"`
	Completeness    float64 `json:"completeness"`
	OverallAccuracy float64 `json:"overall_accuracy"`
	ResultsFile     string  `json:"results_file"`
}

// TrialFailure records a grid point whose trial failed
type TrialFailure struct {
	GridPoint
	Error string `json:"error"`
}

// OptimizationReport is the outcome of a grid search, best trial first
type OptimizationReport struct {
	RunID      string         `json:"run_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Results    []TrialResult  `json:"results"`
	Failures   []TrialFailure `json:"failures,omitempty"`
}

// Best returns the best trial, false when no trial succeeded
func (r *OptimizationReport) Best() (TrialResult, bool) {
	if len(r.Results) == 0 {
		return TrialResult{}, false
	}
	return r.Results[0], true
}

// EvaluationRunner runs the evaluation script once
type EvaluationRunner interface {
	RunEvaluation(ctx context.Context, script string) error
}

// CommandRunner runs the evaluation script as `<Command...> <script>` inside Dir
type CommandRunner struct {
	Command []string
	Dir     string
	Timeout time.Duration
}

// RunEvaluation implements EvaluationRunner
func (r *CommandRunner) RunEvaluation(ctx context.Context, script string) error {
	command := append(append([]string{}, r.Command...), script)
	output, err := RunCommandOutput(ctx, command, CommandOptions{Dir: r.Dir, Timeout: r.Timeout})
	if err != nil {
		zlog.Debug("evaluation failed", zap.Strings("command", command), zap.String("output", output), zap.Error(err))
		return err
	}
	return nil
}

// Optimizer searches the parameter grid for the limits giving the best hard
// category accuracy. Trials run one after the other since each one rewrites
// the evaluation script in place.
type Optimizer struct {
	// FS is rooted at the harness directory
	FS     billy.Filesystem
	Script string
	Runner EvaluationRunner

	// Console receives the progress, nil is silent
	Console *Console

	now func() time.Time
}

// NewOptimizer returns an optimizer running the evaluation through runner
func NewOptimizer(fs billy.Filesystem, script string, runner EvaluationRunner, console *Console) *Optimizer {
	return &Optimizer{
		FS:      fs,
		Script:  script,
		Runner:  runner,
		Console: console,
		now:     time.Now,
	}
}

// Run evaluates every grid point. A failing trial is recorded and skipped.
// When ctx is cancelled, the trials completed so far are reported along with
// ctx's error. The script is left with the limits of the last trial.
func (o *Optimizer) Run(ctx context.Context, grid []GridPoint) (*OptimizationReport, error) {
	report := &OptimizationReport{
		RunID:     uuid.New().String(),
		StartedAt: o.now(),
	}

	zlog.Info("starting grid search",
		zap.String("run_id", report.RunID),
		zap.String("script", o.Script),
		zap.Int("points", len(grid)))

	var runErr error
	for i, point := range grid {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		o.step("[%d/%d] Testing FACTS=%d, ENTITIES=%d, EPISODES=%d", i+1, len(grid), point.Facts, point.Entities, point.Episodes)

		result, err := o.trial(ctx, point)
		if err != nil {
			zlog.Warn("trial failed", zap.Stringer("point", point), zap.Error(err))
			o.fail("FACTS=%d, ENTITIES=%d, EPISODES=%d: %s", point.Facts, point.Entities, point.Episodes, err)
			report.Failures = append(report.Failures, TrialFailure{GridPoint: point, Error: err.Error()})
			continue
		}

		o.success("Hard accuracy %.2f%% (completeness %.2f%%, overall %.2f%%)", result.HardAccuracy, result.Completeness, result.OverallAccuracy)
		report.Results = append(report.Results, *result)
	}

	sort.SliceStable(report.Results, func(i, j int) bool {
		return report.Results[i].HardAccuracy > report.Results[j].HardAccuracy
	})
	report.FinishedAt = o.now()

	return report, runErr
}

func (o *Optimizer) trial(ctx context.Context, point GridPoint) (*TrialResult, error) {
	if err := o.ApplyLimits(point, "Optimized by grid search"); err != nil {
		return nil, err
	}

	before, err := resultsModTimes(o.FS)
	if err != nil {
		return nil, err
	}

	if err := o.Runner.RunEvaluation(ctx, o.Script); err != nil {
		return nil, err
	}

	resultsFile, err := latestResultsSince(o.FS, before)
	if err != nil {
		return nil, err
	}

	data, err := util.ReadFile(o.FS, resultsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", resultsFile, err)
	}

	scores, err := ParseEvaluationScores(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %q: %w", resultsFile, err)
	}

	return &TrialResult{
		GridPoint:       point,
		HardAccuracy:    scores.HardAccuracy,
		Completeness:    scores.HardCompleteness,
		OverallAccuracy: scores.OverallAccuracy,
		ResultsFile:     resultsFile,
	}, nil
}

// ApplyLimits rewrites the limit assignments of the evaluation script
func (o *Optimizer) ApplyLimits(point GridPoint, note string) error {
	data, err := util.ReadFile(o.FS, o.Script)
	if err != nil {
		return fmt.Errorf("failed to read %q: %w", o.Script, err)
	}

	info, err := o.FS.Stat(o.Script)
	if err != nil {
		return fmt.Errorf("failed to stat %q: %w", o.Script, err)
	}

	rewritten := RewriteLimits(string(data), point, note)
	if err := util.WriteFile(o.FS, o.Script, []byte(rewritten), info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to write %q: %w", o.Script, err)
	}
	return nil
}

// SaveReport writes the report as optimization_results_<timestamp>.json and
// returns the file name.
func (o *Optimizer) SaveReport(report *OptimizationReport) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize report: %w", err)
	}

	name := fmt.Sprintf("optimization_results_%s.json", report.StartedAt.Format("20060102T150405"))
	if err := util.WriteFile(o.FS, name, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %q: %w", name, err)
	}

	zlog.Info("saved optimization report", zap.String("file", name), zap.Int("results", len(report.Results)))
	return name, nil
}

func (o *Optimizer) step(format string, args ...any) {
	if o.Console != nil {
		o.Console.Step(format, args...)
	}
}

func (o *Optimizer) success(format string, args ...any) {
	if o.Console != nil {
		o.Console.Success(format, args...)
	}
}

func (o *Optimizer) fail(format string, args ...any) {
	if o.Console != nil {
		o.Console.Fail(format, args...)
	}
}

// RewriteLimits replaces the lines starting with `FACTS_LIMIT =`,
// `ENTITIES_LIMIT =` and `EPISODES_LIMIT =` with the point's values. Every
// other line is kept byte for byte.
func RewriteLimits(source string, point GridPoint, note string) string {
	values := map[string]int{
		FactsLimitVar:    point.Facts,
		EntitiesLimitVar: point.Entities,
		EpisodesLimitVar: point.Episodes,
	}

	lines := strings.Split(source, "\n")
	for i, line := range lines {
		for name, value := range values {
			if strings.HasPrefix(line, name+" =") {
				lines[i] = fmt.Sprintf("%s = %d", name, value)
				if note != "" {
					lines[i] += "  # " + note
				}
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}

// LatestResultsFile returns the most recently modified evaluation results file
func LatestResultsFile(fs billy.Filesystem) (string, error) {
	return latestResultsSince(fs, nil)
}

// resultsModTimes maps every existing evaluation results file to its
// modification time.
func resultsModTimes(fs billy.Filesystem) (map[string]time.Time, error) {
	matches, err := util.Glob(fs, ResultsGlob)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluation results: %w", err)
	}

	modTimes := make(map[string]time.Time, len(matches))
	for _, match := range matches {
		info, err := fs.Stat(match)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to stat %q: %w", match, err)
		}
		modTimes[match] = info.ModTime()
	}
	return modTimes, nil
}

// latestResultsSince returns the newest results file that is not in before or
// was modified after the time recorded there. Ties go to the greater name.
func latestResultsSince(fs billy.Filesystem, before map[string]time.Time) (string, error) {
	current, err := resultsModTimes(fs)
	if err != nil {
		return "", err
	}

	var latest string
	var latestMod time.Time
	for name, modTime := range current {
		if previous, seen := before[name]; seen && !modTime.After(previous) {
			continue
		}
		if latest == "" || modTime.After(latestMod) || (modTime.Equal(latestMod) && name > latest) {
			latest, latestMod = name, modTime
		}
	}

	if latest == "" {
		if len(current) > 0 {
			return "", fmt.Errorf("%w: only results from earlier runs found", ErrNoResults)
		}
		return "", ErrNoResults
	}
	return latest, nil
}

// EvaluationScores are the figures the optimizer ranks trials by
type EvaluationScores struct {
	HardAccuracy     float64
	HardCompleteness float64
	OverallAccuracy  float64
}

type evaluationResults struct {
	CategoryScores map[string]struct {
		Accuracy struct {
			AccuracyRate *float64 `json:"accuracy_rate"`
		} `json:"accuracy"`
		Completeness struct {
			CompleteRate *float64 `json:"complete_rate"`
		} `json:"completeness"`
	} `json:"category_scores"`
	AggregateScores struct {
		Accuracy struct {
			AccuracyRate *float64 `json:"accuracy_rate"`
		} `json:"accuracy"`
	} `json:"aggregate_scores"`
}

// ParseEvaluationScores extracts the hard category and aggregate scores of an
// evaluation results document.
func ParseEvaluationScores(data []byte) (*EvaluationScores, error) {
	var results evaluationResults
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, err
	}

	hard, found := results.CategoryScores["hard"]
	if !found {
		return nil, fmt.Errorf("missing category_scores.hard")
	}
	if hard.Accuracy.AccuracyRate == nil {
		return nil, fmt.Errorf("missing category_scores.hard.accuracy.accuracy_rate")
	}
	if hard.Completeness.CompleteRate == nil {
		return nil, fmt.Errorf("missing category_scores.hard.completeness.complete_rate")
	}
	if results.AggregateScores.Accuracy.AccuracyRate == nil {
		return nil, fmt.Errorf("missing aggregate_scores.accuracy.accuracy_rate")
	}

	return &EvaluationScores{
		HardAccuracy:     *hard.Accuracy.AccuracyRate,
		HardCompleteness: *hard.Completeness.CompleteRate,
		OverallAccuracy:  *results.AggregateScores.Accuracy.AccuracyRate,
	}, nil
}

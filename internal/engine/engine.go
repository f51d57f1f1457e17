// Package engine rolls a fit/predict cycle across scheduler-produced
// windows: it trains a caller-supplied model on each in-sample slice
// (optionally tuned on purged folds), scores the out-of-sample slice, and
// stitches the per-window results into one overlap-safe score table.
package engine

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	rerrors "github.com/quantframe/walkeval/internal/errors"
	"github.com/quantframe/walkeval/internal/leakage"
	"github.com/quantframe/walkeval/internal/monitoring"
	"github.com/quantframe/walkeval/internal/stitch"
	"github.com/quantframe/walkeval/pkg/models"
	"github.com/quantframe/walkeval/pkg/types"
)

// GroupFallback selects how per-group fitting treats an entity with no
// group assignment.
type GroupFallback string

const (
	// GroupFallbackPerSymbol fits an independent model on the entity's own
	// in-sample rows.
	GroupFallbackPerSymbol GroupFallback = "per_symbol"
	// GroupFallbackExclude emits no decision for the entity at all.
	GroupFallbackExclude GroupFallback = "exclude"
)

// TuningSpec configures per-window hyper-parameter selection over purged,
// embargoed folds. With a nil spec (or a single candidate) the engine fits
// the default candidate directly.
type TuningSpec struct {
	Candidates     []models.Params
	KFolds         int
	PurgeHorizon   int
	EmbargoHorizon int
	Score          models.ScoreFunc
}

// Options configures a rolling evaluation. The fit mode is fixed for the
// run's duration.
type Options struct {
	FitMode       types.FitMode
	Groups        map[string]string
	GroupFallback GroupFallback
	LabelHorizon  int
	FailFast      bool
	Workers       int
	Tuning        *TuningSpec
	Logger        zerolog.Logger
}

// Diagnostic records one degraded window so a caller can audit exactly
// which parts of a long run recovered from what.
type Diagnostic struct {
	Window   int
	Category rerrors.Category
	Message  string
}

// Result is a completed (possibly partial) rolling evaluation.
type Result struct {
	Scores           *types.ScoreTable
	Diagnostics      []Diagnostic
	WindowsPlanned   int
	WindowsCompleted int
}

// Engine is the rolling fit/predict engine. It is safe for a single Run at
// a time; the panel and index are read-only shared inputs.
type Engine struct {
	opts Options
}

// New creates an engine, applying defaults: pooled fitting, per-symbol
// group fallback, worker count from GOMAXPROCS.
func New(opts Options) *Engine {
	if opts.FitMode == "" {
		opts.FitMode = types.FitModePooled
	}
	if opts.GroupFallback == "" {
		opts.GroupFallback = GroupFallbackPerSymbol
	}
	if opts.Tuning != nil && opts.Tuning.Score == nil {
		opts.Tuning.Score = models.NegMSE
	}
	return &Engine{opts: opts}
}

// Run evaluates every window and returns the stitched score table plus the
// run diagnostics. Per-window failures (model fit errors, leakage in one
// window, degenerate tuning folds) degrade that window to NaN scores and a
// diagnostic; under FailFast the first such failure aborts the run with no
// partial table. Cancelling the context stops dispatching new windows and
// returns the scores accumulated so far alongside ctx.Err().
func (e *Engine) Run(ctx context.Context, panel *types.Panel, index *types.TimeIndex, windows []types.Window, factory models.Factory) (*Result, error) {
	if factory == nil {
		return nil, rerrors.New(rerrors.CategoryConfig, "engine", "run", "model factory is required")
	}
	if len(windows) == 0 {
		return nil, rerrors.New(rerrors.CategoryInsufficientHistory, "engine", "run", "no windows to evaluate")
	}
	for ord, w := range windows {
		if !w.Valid() || w.OOSEnd > index.Len()-1 {
			return nil, rerrors.New(rerrors.CategoryConfig, "engine", "run",
				fmt.Sprintf("invalid window %s", w)).WithWindow(ord)
		}
	}

	monitoring.RunStarted(len(windows))
	defer monitoring.RunFinished()

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	pool := newWindowPool(e.opts.Workers)
	pool.start(func(job windowJob) windowResult {
		return e.evaluateWindow(panel, index, factory, job)
	})
	pool.dispatch(runCtx, windows)

	var (
		parts    []stitch.WindowScores
		diags    []Diagnostic
		fatal    *rerrors.RunError
		finished int
	)
	for res := range pool.results {
		if res.Err != nil && fatal == nil {
			fatal = res.Err
			cancelRun() // stop dispatching, drain what is in flight
			continue
		}
		finished++
		parts = append(parts, res.Part)
		diags = append(diags, res.Diags...)
		monitoring.RecordWindow(outcomeFor(res.Diags), res.Duration.Seconds())
	}

	if fatal != nil {
		// Fatal abort returns no partial table.
		monitoring.DefaultHealth.RecordError(fatal.Error())
		return nil, fatal
	}

	for _, d := range diags {
		monitoring.RecordDiagnostic(string(d.Category))
	}
	sort.SliceStable(diags, func(i, j int) bool { return diags[i].Window < diags[j].Window })

	result := &Result{
		Scores:           stitch.Stitch(parts),
		Diagnostics:      diags,
		WindowsPlanned:   len(windows),
		WindowsCompleted: finished,
	}
	if err := ctx.Err(); err != nil {
		e.opts.Logger.Warn().
			Int("completed", finished).
			Int("planned", len(windows)).
			Msg("run cancelled, returning partial scores")
		return result, err
	}
	return result, nil
}

func outcomeFor(diags []Diagnostic) string {
	for _, d := range diags {
		switch d.Category {
		case rerrors.CategoryFit, rerrors.CategoryPredict, rerrors.CategoryLeakage, rerrors.CategoryUnresolvedLabel:
			return "failed"
		}
	}
	return "ok"
}

// evaluateWindow runs the full fit/predict cycle for one window. Recovered
// failures degrade the window to all-NaN OOS scores plus a diagnostic;
// under FailFast they become run-fatal instead.
func (e *Engine) evaluateWindow(panel *types.Panel, index *types.TimeIndex, factory models.Factory, job windowJob) windowResult {
	start := time.Now()
	w := job.Window
	log := e.opts.Logger.With().Int("window", job.Ord).Str("range", w.String()).Logger()

	res := windowResult{Ord: job.Ord, Part: stitch.WindowScores{Window: w}}
	done := func() windowResult {
		res.Duration = time.Since(start)
		return res
	}

	isRows := panel.Slice(index, w.ISStart, w.ISEnd)
	oosRows := panel.Slice(index, w.OOSStart, w.OOSEnd)

	trainable, err := leakage.Check(index, w, isRows, oosRows, e.opts.LabelHorizon)
	if err != nil {
		cat := categoryForLeakage(err)
		log.Error().Err(err).Msg("boundary validation failed")
		if e.opts.FailFast {
			res.Err = rerrors.Wrap(err, cat, "engine", "validate").WithWindow(job.Ord)
			return done()
		}
		res.Part.Scores = allNaN(oosRows)
		res.Diags = append(res.Diags, Diagnostic{Window: job.Ord, Category: cat, Message: err.Error()})
		return done()
	}

	params, tuneDiag := e.selectParams(index, w, trainable, factory, job.Ord, log)
	if tuneDiag != nil {
		res.Diags = append(res.Diags, *tuneDiag)
	}

	scores, fitErr := e.fitAndScore(trainable, oosRows, factory, params)
	if fitErr != nil {
		log.Error().Err(fitErr).Msg("window fit/predict failed")
		if e.opts.FailFast {
			res.Err = fitErr.WithWindow(job.Ord)
			return done()
		}
		res.Part.Scores = allNaN(oosRows)
		res.Diags = append(res.Diags, Diagnostic{Window: job.Ord, Category: fitErr.Category, Message: fitErr.Error()})
		return done()
	}

	log.Debug().
		Int("train_rows", len(trainable)).
		Int("oos_rows", len(oosRows)).
		Str("params", params.Name).
		Msg("window evaluated")
	res.Part.Scores = scores
	return done()
}

func categoryForLeakage(err error) rerrors.Category {
	if lerr, ok := err.(*leakage.Error); ok {
		switch lerr.Kind {
		case leakage.KindUnresolvedLabel:
			return rerrors.CategoryUnresolvedLabel
		}
	}
	return rerrors.CategoryLeakage
}

// fitAndScore trains per the fit mode and scores the OOS rows. Rows with
// missing features are scored NaN without reaching the model.
func (e *Engine) fitAndScore(trainRows, oosRows []types.Row, factory models.Factory, params models.Params) (*types.ScoreTable, *rerrors.RunError) {
	switch e.opts.FitMode {
	case types.FitModePooled:
		return e.scorePooled(trainRows, oosRows, factory, params)
	case types.FitModePerSymbol:
		return e.scorePerSymbol(trainRows, oosRows, factory, params)
	case types.FitModePerGroup:
		return e.scorePerGroup(trainRows, oosRows, factory, params)
	}
	return nil, rerrors.New(rerrors.CategoryConfig, "engine", "fit", fmt.Sprintf("unknown fit mode %q", e.opts.FitMode))
}

func (e *Engine) scorePooled(trainRows, oosRows []types.Row, factory models.Factory, params models.Params) (*types.ScoreTable, *rerrors.RunError) {
	out := types.NewScoreTable()
	train := completeRows(trainRows)
	if len(train) == 0 {
		return nil, rerrors.New(rerrors.CategoryFit, "engine", "fit", "no trainable rows with complete features")
	}

	model := factory(params)
	if err := model.Fit(train); err != nil {
		return nil, rerrors.Wrap(err, rerrors.CategoryFit, "engine", "fit")
	}
	if err := scoreInto(out, model, oosRows); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) scorePerSymbol(trainRows, oosRows []types.Row, factory models.Factory, params models.Params) (*types.ScoreTable, *rerrors.RunError) {
	out := types.NewScoreTable()
	trainByEntity := groupRows(completeRows(trainRows), func(r types.Row) string { return r.Entity })
	oosByEntity := groupRows(oosRows, func(r types.Row) string { return r.Entity })

	for entity, queryRows := range oosByEntity {
		train := trainByEntity[entity]
		if len(train) == 0 {
			// Entity absent from in-sample data: NA scores, not an error.
			for _, r := range queryRows {
				out.Set(r.Date, r.Entity, math.NaN())
			}
			continue
		}
		model := factory(params)
		if err := model.Fit(train); err != nil {
			return nil, rerrors.Wrap(err, rerrors.CategoryFit, "engine", "fit").WithContext("entity", entity)
		}
		if err := scoreInto(out, model, queryRows); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (e *Engine) scorePerGroup(trainRows, oosRows []types.Row, factory models.Factory, params models.Params) (*types.ScoreTable, *rerrors.RunError) {
	out := types.NewScoreTable()
	completeTrain := completeRows(trainRows)
	trainByGroup := groupRows(completeTrain, func(r types.Row) string { return e.opts.Groups[r.Entity] })
	trainByEntity := groupRows(completeTrain, func(r types.Row) string { return r.Entity })
	oosByEntity := groupRows(oosRows, func(r types.Row) string { return r.Entity })

	groupModels := make(map[string]models.Model)
	for entity, queryRows := range oosByEntity {
		group, grouped := e.opts.Groups[entity]
		if !grouped {
			switch e.opts.GroupFallback {
			case GroupFallbackExclude:
				continue // no decision at all for this entity
			default:
				train := trainByEntity[entity]
				if len(train) == 0 {
					for _, r := range queryRows {
						out.Set(r.Date, r.Entity, math.NaN())
					}
					continue
				}
				model := factory(params)
				if err := model.Fit(train); err != nil {
					return nil, rerrors.Wrap(err, rerrors.CategoryFit, "engine", "fit").WithContext("entity", entity)
				}
				if err := scoreInto(out, model, queryRows); err != nil {
					return nil, err
				}
				continue
			}
		}

		model, ok := groupModels[group]
		if !ok {
			train := trainByGroup[group]
			if len(train) == 0 {
				for _, r := range queryRows {
					out.Set(r.Date, r.Entity, math.NaN())
				}
				continue
			}
			model = factory(params)
			if err := model.Fit(train); err != nil {
				return nil, rerrors.Wrap(err, rerrors.CategoryFit, "engine", "fit").WithContext("group", group)
			}
			groupModels[group] = model
		}
		if err := scoreInto(out, model, queryRows); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// scoreInto predicts the rows with complete features in one batch and marks
// the rest NaN, preserving the (date, entity) mapping.
func scoreInto(out *types.ScoreTable, model models.Model, rows []types.Row) *rerrors.RunError {
	var query []types.Row
	for _, r := range rows {
		if r.HasCompleteFeatures() {
			query = append(query, r)
		} else {
			out.Set(r.Date, r.Entity, math.NaN())
		}
	}
	if len(query) == 0 {
		return nil
	}

	preds, err := model.Predict(query)
	if err != nil {
		return rerrors.Wrap(err, rerrors.CategoryPredict, "engine", "predict")
	}
	if len(preds) != len(query) {
		return rerrors.New(rerrors.CategoryPredict, "engine", "predict",
			fmt.Sprintf("model returned %d scores for %d rows", len(preds), len(query)))
	}
	for i, r := range query {
		out.Set(r.Date, r.Entity, preds[i])
	}
	return nil
}

// allNaN builds the explicit "decision made, score NA" table for a failed
// window's OOS slice.
func allNaN(oosRows []types.Row) *types.ScoreTable {
	out := types.NewScoreTable()
	for _, r := range oosRows {
		out.Set(r.Date, r.Entity, math.NaN())
	}
	return out
}

func completeRows(rows []types.Row) []types.Row {
	out := make([]types.Row, 0, len(rows))
	for _, r := range rows {
		if r.HasCompleteFeatures() {
			out = append(out, r)
		}
	}
	return out
}

func groupRows(rows []types.Row, key func(types.Row) string) map[string][]types.Row {
	out := make(map[string][]types.Row)
	for _, r := range rows {
		k := key(r)
		out[k] = append(out[k], r)
	}
	return out
}

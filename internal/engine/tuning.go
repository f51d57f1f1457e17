package engine

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	rerrors "github.com/quantframe/walkeval/internal/errors"
	"github.com/quantframe/walkeval/internal/folds"
	"github.com/quantframe/walkeval/internal/monitoring"
	"github.com/quantframe/walkeval/pkg/models"
	"github.com/quantframe/walkeval/pkg/types"
)

// selectParams picks the hyper-parameter candidate with the best mean
// validation score over purged, embargoed folds of the window's in-sample
// range. Tie-break: lowest complexity rank, then first-defined order.
//
// Degenerate folds never fail the window: tuning is skipped, the first
// candidate serves as the default, and a diagnostic records the fallback.
func (e *Engine) selectParams(index *types.TimeIndex, w types.Window, trainable []types.Row, factory models.Factory, ord int, log zerolog.Logger) (models.Params, *Diagnostic) {
	spec := e.opts.Tuning
	if spec == nil || len(spec.Candidates) == 0 {
		return models.Params{}, nil
	}
	if len(spec.Candidates) == 1 {
		return spec.Candidates[0], nil
	}

	fs, err := folds.Generate(w.ISStart, w.ISEnd, spec.KFolds, spec.PurgeHorizon, spec.EmbargoHorizon)
	if err != nil {
		monitoring.RecordTuningFallback()
		log.Warn().Err(err).Msg("tuning skipped, using default hyper-parameters")
		return spec.Candidates[0], &Diagnostic{
			Window:   ord,
			Category: rerrors.CategoryDegenerateFold,
			Message:  fmt.Sprintf("tuning skipped: %v", err),
		}
	}

	// Fold positions resolve against the leakage-filtered training rows, so
	// unresolved labels stay out of tuning as well. Validation rows need a
	// realized label to be scored.
	byPos := make(map[int][]types.Row)
	for _, r := range trainable {
		if !r.HasCompleteFeatures() {
			continue
		}
		if pos, ok := index.Position(r.Date); ok {
			byPos[pos] = append(byPos[pos], r)
		}
	}

	best := spec.Candidates[0]
	bestScore := math.Inf(-1)
	for _, cand := range spec.Candidates {
		score := e.evaluateCandidate(cand, fs, byPos, factory, spec.Score)
		log.Debug().Str("candidate", cand.Name).Float64("mean_val_score", score).Msg("tuning candidate evaluated")
		if score > bestScore || (score == bestScore && cand.Complexity < best.Complexity) {
			best = cand
			bestScore = score
		}
	}
	return best, nil
}

// evaluateCandidate returns the candidate's mean validation score across
// folds, or -Inf when no fold could be evaluated.
func (e *Engine) evaluateCandidate(cand models.Params, fs []folds.Fold, byPos map[int][]types.Row, factory models.Factory, score models.ScoreFunc) float64 {
	sum := 0.0
	evaluated := 0
	for _, f := range fs {
		train := rowsAt(byPos, f.Train)
		val := rowsAt(byPos, f.Val)
		if len(train) == 0 || len(val) == 0 {
			continue
		}

		model := factory(cand)
		if err := model.Fit(train); err != nil {
			return math.Inf(-1)
		}
		preds, err := model.Predict(val)
		if err != nil {
			return math.Inf(-1)
		}
		labels := make([]float64, len(val))
		for i, r := range val {
			labels[i] = r.Label
		}
		sum += score(preds, labels)
		evaluated++
	}
	if evaluated == 0 {
		return math.Inf(-1)
	}
	return sum / float64(evaluated)
}

func rowsAt(byPos map[int][]types.Row, positions []int) []types.Row {
	var out []types.Row
	for _, p := range positions {
		out = append(out, byPos[p]...)
	}
	return out
}

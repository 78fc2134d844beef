// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package history

import (
	"math"
	"testing"

	"github.com/gomlx/gomlx/backends"
	. "github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/gomlx/pkg/ml/datasets"
	"github.com/gomlx/gomlx/pkg/ml/layers"
	"github.com/gomlx/gomlx/pkg/ml/train"
	"github.com/gomlx/gomlx/pkg/ml/train/losses"
	"github.com/gomlx/gomlx/pkg/ml/train/metrics"
	"github.com/gomlx/gomlx/pkg/ml/train/optimizers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/gomlx/gomlx/backends/default"
)

// separableData returns n (even) points in [-1, 1] labeled 1 if x > 0. Positive and negative
// points alternate, so any even-sized batch taken in order is balanced.
func separableData(n int) (xs, ys [][]float32) {
	xs = make([][]float32, n)
	ys = make([][]float32, n)
	for ii := range n {
		x := float32(ii/2+1) / float32(n/2)
		if ii%2 == 0 {
			xs[ii], ys[ii] = []float32{x}, []float32{1}
		} else {
			xs[ii], ys[ii] = []float32{-x}, []float32{0}
		}
	}
	return
}

func TestSeparableDataBalanced(t *testing.T) {
	xs, ys := separableData(64)
	for start := 0; start < 64; start += 16 {
		var positives int
		for ii := start; ii < start+16; ii++ {
			if ys[ii][0] == 1 {
				positives++
				assert.Greater(t, xs[ii][0], float32(0))
			} else {
				assert.Less(t, xs[ii][0], float32(0))
			}
		}
		assert.Equal(t, 8, positives)
	}
}

func TestRunner(t *testing.T) {
	backend := backends.MustNew()
	xs, ys := separableData(64)
	trainDS, err := datasets.InMemoryFromData(backend, "train", []any{xs}, []any{ys})
	require.NoError(t, err)
	// Not shuffled: the in-memory dataset shuffles with the global random source.
	trainDS.BatchSize(16, false)
	evalDS, err := datasets.InMemoryFromData(backend, "eval", []any{xs}, []any{ys})
	require.NoError(t, err)
	evalDS.BatchSize(64, false)

	ctx := context.New()
	ctx.SetParams(map[string]any{
		optimizers.ParamLearningRate: 1.0,
		context.ParamInitialSeed:     int64(42),
	})
	modelFn := func(ctx *context.Context, spec any, inputs []*Node) []*Node {
		return []*Node{layers.Dense(ctx, inputs[0], true, 1)}
	}
	trainer := train.NewTrainer(backend, ctx, modelFn,
		losses.BinaryCrossentropyLogits,
		optimizers.StochasticGradientDescent().Done(),
		[]metrics.Interface{metrics.NewMovingAverageBinaryLogitsAccuracy("Moving Average Accuracy", "~acc", 0.1)},
		[]metrics.Interface{metrics.NewMeanBinaryLogitsAccuracy("Mean Accuracy", "#acc")})
	loop := train.NewLoop(trainer)

	h := New("runner")
	var beforeEvalCalls int
	var epochsSeen []int
	runner := NewRunner(loop, h).
		WithEvalDatasets(nil, evalDS).
		BeforeEval(func() error { beforeEvalCalls++; return nil }).
		OnEpoch(func(row Row) error { epochsSeen = append(epochsSeen, row.Epoch); return nil })
	require.NoError(t, runner.Run(trainDS, 3))
	assert.Equal(t, 3, beforeEvalCalls)
	assert.Equal(t, []int{1, 2, 3}, epochsSeen)
	require.Equal(t, 3, h.Len())
	for _, row := range h.Rows() {
		assert.False(t, math.IsNaN(row.TrainLoss))
		assert.False(t, math.IsNaN(row.ValidLoss))
		assert.False(t, math.IsNaN(row.ValidAccuracy))
	}
	last, _ := h.Last()
	assert.Greater(t, last.ValidAccuracy, 0.75)

	// A second phase, with eval on the train data too, continues numbering the epochs.
	require.NoError(t, NewRunner(loop, h).WithEvalDatasets(evalDS, evalDS).Run(trainDS, 2))
	require.Equal(t, 5, h.Len())
	last, _ = h.Last()
	assert.Equal(t, 5, last.Epoch)
	assert.InDelta(t, last.TrainAccuracy, last.ValidAccuracy, 1e-6)
}

// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package history

import (
	"math"
	"time"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gomlx/pkg/ml/train"
	"github.com/gomlx/gomlx/pkg/ml/train/metrics"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Runner trains a train.Loop one epoch at a time, and records one History row per epoch with
// the train and validation loss and accuracy.
//
// Create it with NewRunner, configure it, and call Run. Phases of training that use
// different trainers (e.g. fine-tuning after transfer learning) use one Runner each, sharing
// the same History: epochs continue to be numbered from where the previous phase stopped.
type Runner struct {
	loop                 *train.Loop
	hist                 *History
	trainEvalDS, validDS train.Dataset
	beforeEval           []func() error
	onEpoch              []func(row Row) error
}

// NewRunner creates a Runner for loop that appends to hist.
func NewRunner(loop *train.Loop, hist *History) *Runner {
	return &Runner{loop: loop, hist: hist}
}

// WithEvalDatasets sets the datasets used to measure the train and validation metrics at the end
// of each epoch. Both are optional: if trainEvalDS is nil, the train metrics are taken from the
// last training step (moving averages), and if validDS is nil validation metrics are left as NaN.
func (r *Runner) WithEvalDatasets(trainEvalDS, validDS train.Dataset) *Runner {
	r.trainEvalDS = trainEvalDS
	r.validDS = validDS
	return r
}

// BeforeEval registers fn to be called after each epoch is trained, but before it is evaluated.
// E.g.: to update batch normalization averages.
func (r *Runner) BeforeEval(fn func() error) *Runner {
	r.beforeEval = append(r.beforeEval, fn)
	return r
}

// OnEpoch registers fn to be called after each epoch's row is appended to the history.
// E.g.: to save a checkpoint or print the row.
func (r *Runner) OnEpoch(fn func(row Row) error) *Runner {
	r.onEpoch = append(r.onEpoch, fn)
	return r
}

// Run trains for the given number of epochs over trainDS.
func (r *Runner) Run(trainDS train.Dataset, epochs int) error {
	trainer := r.loop.Trainer
	for range epochs {
		epoch := r.hist.NextEpoch()
		start := time.Now()
		trainMetrics, err := r.loop.RunEpochs(trainDS, 1)
		if err != nil {
			return errors.WithMessagef(err, "while training epoch %d of %q", epoch, r.hist.Name)
		}
		elapsed := time.Since(start)
		for _, fn := range r.beforeEval {
			if err = fn(); err != nil {
				return errors.WithMessagef(err, "after training epoch %d", epoch)
			}
		}

		row := NewRow(epoch)
		if r.trainEvalDS != nil {
			row.TrainLoss, row.TrainAccuracy, err = Evaluate(trainer, r.trainEvalDS)
			if err != nil {
				return err
			}
		} else {
			row.TrainLoss, row.TrainAccuracy = lossAndAccuracy(trainer.TrainMetrics(), trainMetrics, true)
		}
		if r.validDS != nil {
			row.ValidLoss, row.ValidAccuracy, err = Evaluate(trainer, r.validDS)
			if err != nil {
				return err
			}
		}
		if err = r.hist.Append(row); err != nil {
			return err
		}
		klog.Infof("Epoch %d in %s: train accuracy=%s loss=%s, validation accuracy=%s loss=%s",
			epoch, elapsed.Round(time.Millisecond),
			formatAccuracy(row.TrainAccuracy), formatLoss(row.TrainLoss),
			formatAccuracy(row.ValidAccuracy), formatLoss(row.ValidLoss))
		for _, fn := range r.onEpoch {
			if err = fn(row); err != nil {
				return errors.WithMessagef(err, "after epoch %d", epoch)
			}
		}
	}
	return nil
}

// Evaluate trainer's evaluation metrics over ds and return the first loss and the first
// accuracy metrics. Metrics not present are returned as NaN.
//
// The dataset is reset after evaluation.
func Evaluate(trainer *train.Trainer, ds train.Dataset) (loss, accuracy float64, err error) {
	values, err := trainer.Eval(ds)
	if err != nil {
		return math.NaN(), math.NaN(), errors.WithMessagef(err, "while evaluating on %q", ds.Name())
	}
	ds.Reset()
	loss, accuracy = lossAndAccuracy(trainer.EvalMetrics(), values, false)
	return
}

// lossAndAccuracy picks the loss and accuracy values out of a list of metrics, by their type.
// If useLast is true, the last metric of each type is used, otherwise the first.
func lossAndAccuracy(metricsList []metrics.Interface, values []*tensors.Tensor, useLast bool) (loss, accuracy float64) {
	loss, accuracy = math.NaN(), math.NaN()
	for ii, metric := range metricsList {
		if ii >= len(values) {
			break
		}
		var target *float64
		switch metric.MetricType() {
		case metrics.LossMetricType:
			target = &loss
		case metrics.AccuracyMetricType:
			target = &accuracy
		default:
			continue
		}
		if useLast || math.IsNaN(*target) {
			*target = scalarToFloat64(values[ii])
		}
	}
	return
}

// scalarToFloat64 converts a scalar metric value to float64, whatever its dtype. Non-float
// values are returned as NaN.
func scalarToFloat64(t *tensors.Tensor) float64 {
	if t == nil {
		return math.NaN()
	}
	switch v := t.Value().(type) {
	case float32:
		return float64(v)
	case float64:
		return v
	default:
		return math.NaN()
	}
}

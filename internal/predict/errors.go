// Package predict holds the trained model artifact, the inference step,
// the confidence scorer, and the pipeline that composes them with the
// feature extractor. Inference is pure computation: no I/O, no hidden
// randomness, identical vector and model version always produce identical
// output.
package predict

import "errors"

var (
	// ErrModelUnavailable indicates the model artifact failed to load.
	// It is fatal at startup: a pipeline without a model must not accept
	// requests at all rather than fail per call.
	ErrModelUnavailable = errors.New("predict: model unavailable")

	// ErrSchemaMismatch indicates the feature vector disagrees with the
	// model's declared schema in name, order, or count. It is a
	// deployment/versioning bug, never retried and never truncated around.
	ErrSchemaMismatch = errors.New("predict: feature schema mismatch")
)

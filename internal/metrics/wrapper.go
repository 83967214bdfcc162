package metrics

// Wrapper adapts Metrics to the small sink interfaces consumed by the
// features, predict, and ingest packages, avoiding import cycles between
// them and the metrics registry.
type Wrapper struct {
	m *Metrics
}

// NewWrapper wraps a Metrics set.
func NewWrapper(m *Metrics) *Wrapper {
	return &Wrapper{m: m}
}

// predict.MetricsSink

func (w *Wrapper) PredictionsInc()                    { w.m.PredictionsTotal.Inc() }
func (w *Wrapper) PredictionLatencyObserve(s float64) { w.m.PredictionLatency.Observe(s) }
func (w *Wrapper) ConfidenceObserve(c float64)        { w.m.ConfidenceScores.Observe(c) }

func (w *Wrapper) PredictionFailuresInc() {
	w.m.PredictionFailures.Inc()
	w.m.ErrorsTotal.Inc()
}

// features.MetricsTracker

func (w *Wrapper) FeatureErrorsInc() {
	w.m.FeatureErrors.Inc()
	w.m.ErrorsTotal.Inc()
}

// ingest.Sink

func (w *Wrapper) GamesIngestedAdd(n int) { w.m.GamesIngested.Add(float64(n)) }

func (w *Wrapper) ProviderErrorsInc() {
	w.m.ProviderErrors.Inc()
	w.m.ErrorsTotal.Inc()
}

// ModelAgeSet records the age of the loaded artifact in seconds.
func (w *Wrapper) ModelAgeSet(seconds float64) { w.m.ModelAge.Set(seconds) }

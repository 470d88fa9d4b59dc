package logger

import (
	"sync"

	"go.uber.org/zap"
)

// Standard field names for structured log records.
const (
	FieldRunID      = "run_id"
	FieldComponent  = "component"
	FieldStrategy   = "strategy"
	FieldIterations = "iterations"
	FieldStop       = "stop"
	FieldDurationMS = "duration_ms"
	FieldShape      = "shape"
	FieldNPix       = "npix"
	FieldNVis       = "nvis"
	FieldNFreq      = "nfreq"
	FieldAlpha      = "alpha"
	FieldLambda     = "lambda"
	FieldBaseline   = "baseline"
	FieldIndex      = "index"
	FieldFrequency  = "frequency"
	FieldMagnitude  = "magnitude"
	FieldValue      = "value"
	FieldUVW        = "uvw"
	FieldResidual   = "residual_norm"
	FieldSolution   = "solution_norm"
)

// Sink receives diagnostic records from the imaging core. It is the narrow
// subset of *zap.SugaredLogger the core needs, so any sugared logger is a Sink.
type Sink interface {
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
}

var _ Sink = (*zap.SugaredLogger)(nil)

// NopSink discards everything.
func NopSink() Sink {
	return zap.NewNop().Sugar()
}

// Record is one entry captured by a Recorder.
type Record struct {
	Level  string
	Msg    string
	Fields map[string]interface{}
}

// Recorder is a Sink that keeps every record in memory.
type Recorder struct {
	mu      sync.Mutex
	records []Record
}

func (r *Recorder) add(level, msg string, keysAndValues []interface{}) {
	fields := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields[key] = keysAndValues[i+1]
	}
	r.mu.Lock()
	r.records = append(r.records, Record{Level: level, Msg: msg, Fields: fields})
	r.mu.Unlock()
}

// Infow records an info entry.
func (r *Recorder) Infow(msg string, keysAndValues ...interface{}) {
	r.add("info", msg, keysAndValues)
}

// Warnw records a warning entry.
func (r *Recorder) Warnw(msg string, keysAndValues ...interface{}) {
	r.add("warn", msg, keysAndValues)
}

// Records returns a copy of the captured entries.
func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// Messages returns the records with the given message.
func (r *Recorder) Messages(msg string) []Record {
	var out []Record
	for _, rec := range r.Records() {
		if rec.Msg == msg {
			out = append(out, rec)
		}
	}
	return out
}

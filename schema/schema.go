// Package schema has the models and enums shared by every part of the factory engine.
package schema

import (
	"math"
	"time"
)

// NumFeatures is the number of sensor channels in every reading.
const NumFeatures = 3

// Feature indices into a Vector.
const (
	Vibration   = 0
	Temperature = 1
	Pressure    = 2
)

// FeatureNames lists the channel names in Vector order.
var FeatureNames = [NumFeatures]string{"vibration", "temperature", "pressure"}

// Vector holds one value per sensor channel.
type Vector [NumFeatures]float64

// IsFinite reports whether every component is a real number.
func (v Vector) IsFinite() bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// SensorReading is one row of the feed. Label is empty when the feed carries no ground truth.
type SensorReading struct {
	Timestamp time.Time `json:"timestamp"`
	Values    Vector    `json:"values"`
	Label     Label     `json:"label,omitempty"`
}

// FeedSnapshot is the parsed content of a feed at one point in time.
// TrailingIgnored is set when an incomplete last row was dropped. Malformed counts
// complete rows before the last one that could not be parsed and were skipped;
// FirstMalformed describes the first of them.
type FeedSnapshot struct {
	Readings        []SensorReading
	TrailingIgnored bool
	Malformed       int
	FirstMalformed  string
}

// Window is an ordered run of consecutive scaled readings.
type Window []Vector

// Clone returns a copy that does not share backing storage.
func (w Window) Clone() Window {
	out := make(Window, len(w))
	copy(out, w)
	return out
}

// ScalerParams holds the per-feature maxima used to scale raw readings.
type ScalerParams struct {
	FeatureMax Vector `json:"feature_max"`
}

// Verdict is the classification of one window.
type Verdict struct {
	Index               int       `json:"index"` // reading index of the window's last element
	WindowEnd           time.Time `json:"window_end"`
	ReconstructionError float64   `json:"reconstruction_error"`
	Threshold           float64   `json:"threshold"`
	IsAnomaly           bool      `json:"is_anomaly"`
	TrueLabel           Label     `json:"true_label,omitempty"`
}

// PredictedLabel maps the verdict onto the label vocabulary of the feed.
func (v Verdict) PredictedLabel() Label {
	if v.IsAnomaly {
		return AnomalyLabel
	}
	return NormalLabel
}

// Confusion counts verdicts against ground truth labels.
type Confusion struct {
	TruePositives  int `json:"true_positives"`
	FalsePositives int `json:"false_positives"`
	TrueNegatives  int `json:"true_negatives"`
	FalseNegatives int `json:"false_negatives"`
}

// Add records one labelled verdict. Unlabelled verdicts are ignored.
func (c *Confusion) Add(v Verdict) {
	switch {
	case v.TrueLabel == "":
		return
	case v.IsAnomaly && v.TrueLabel == AnomalyLabel:
		c.TruePositives++
	case v.IsAnomaly:
		c.FalsePositives++
	case v.TrueLabel == AnomalyLabel:
		c.FalseNegatives++
	default:
		c.TrueNegatives++
	}
}

// Total is the number of labelled verdicts counted.
func (c Confusion) Total() int {
	return c.TruePositives + c.FalsePositives + c.TrueNegatives + c.FalseNegatives
}

// Precision is TP / (TP + FP), or 0 when nothing was flagged.
func (c Confusion) Precision() float64 {
	return ratio(c.TruePositives, c.TruePositives+c.FalsePositives)
}

// Recall is TP / (TP + FN), or 0 when there were no anomalies.
func (c Confusion) Recall() float64 {
	return ratio(c.TruePositives, c.TruePositives+c.FalseNegatives)
}

// F1 is the harmonic mean of precision and recall.
func (c Confusion) F1() float64 {
	p, r := c.Precision(), c.Recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// Accuracy is the share of labelled verdicts that match their label.
func (c Confusion) Accuracy() float64 {
	return ratio(c.TruePositives+c.TrueNegatives, c.Total())
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// EvaluationResult is the output of a batch evaluation.
type EvaluationResult struct {
	WindowSize      int             `json:"window_size"`
	Readings        int             `json:"readings"`
	Threshold       float64         `json:"threshold"`
	ThresholdSource ThresholdSource `json:"threshold_source"`
	Percentile      float64         `json:"percentile"`
	Verdicts        []Verdict       `json:"verdicts"`
	Skipped         int             `json:"skipped"`
	Confusion       Confusion       `json:"confusion"`
}

// Anomalies counts anomalous verdicts.
func (r *EvaluationResult) Anomalies() int {
	n := 0
	for _, v := range r.Verdicts {
		if v.IsAnomaly {
			n++
		}
	}
	return n
}

// AnomalousVerdicts returns only the anomalous verdicts, in time order.
func (r *EvaluationResult) AnomalousVerdicts() []Verdict {
	var out []Verdict
	for _, v := range r.Verdicts {
		if v.IsAnomaly {
			out = append(out, v)
		}
	}
	return out
}

// PollResult describes what a single monitor poll did.
type PollResult struct {
	State        MonitorState `json:"state"`
	Rows         int          `json:"rows"`
	Effective    bool         `json:"effective"`
	ThresholdSet bool         `json:"threshold_set"`
	Threshold    float64      `json:"threshold"`
	Verdict      *Verdict     `json:"verdict,omitempty"`
	Alerted      bool         `json:"alerted"`
}

// Alert is a single anomaly notification handed to the alert sinks.
type Alert struct {
	ID                  string    `json:"id"`
	Title               string    `json:"title"`
	Message             string    `json:"message"`
	WindowEnd           time.Time `json:"window_end"`
	ReconstructionError float64   `json:"reconstruction_error"`
	Threshold           float64   `json:"threshold"`
	RaisedAt            time.Time `json:"raised_at"`
}

// PredictRequest is the body accepted by the single-reading prediction endpoint and tool.
// Temp is accepted in place of Temperature for older dashboard clients.
type PredictRequest struct {
	Vibration   *float64 `json:"vibration"`
	Temperature *float64 `json:"temperature"`
	Temp        *float64 `json:"temp,omitempty"`
	Pressure    *float64 `json:"pressure"`
}

// Values returns the reading as a Vector, naming the first missing field when incomplete.
func (r PredictRequest) Values() (Vector, string) {
	temperature := r.Temperature
	if temperature == nil {
		temperature = r.Temp
	}
	fields := [NumFeatures]*float64{r.Vibration, temperature, r.Pressure}
	var v Vector
	for i, f := range fields {
		if f == nil {
			return Vector{}, FeatureNames[i]
		}
		v[i] = *f
	}
	return v, ""
}

// PredictResponse is the answer to a single-reading prediction.
type PredictResponse struct {
	IsAnomaly           bool    `json:"is_anomaly"`
	Anomaly             bool    `json:"anomaly"`
	ReconstructionError float64 `json:"reconstruction_error"`
	Threshold           float64 `json:"threshold"`
}

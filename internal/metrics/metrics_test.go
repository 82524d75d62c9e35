package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordExplanation(t *testing.T) {
	before := testutil.ToFloat64(ExplanationsTotal.WithLabelValues("CF", "fallback"))

	RecordExplanation("CF", "fallback", 0.2)

	after := testutil.ToFloat64(ExplanationsTotal.WithLabelValues("CF", "fallback"))
	assert.Equal(t, before+1, after)
}

func TestRecordDroppedIgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(CandidatesDropped)

	RecordDropped(0)
	assert.Equal(t, before, testutil.ToFloat64(CandidatesDropped))

	RecordDropped(2)
	assert.Equal(t, before+2, testutil.ToFloat64(CandidatesDropped))
}

func TestSetScoringCircuitState(t *testing.T) {
	SetScoringCircuitState(2)
	assert.Equal(t, float64(2), testutil.ToFloat64(ScoringCircuitState))
	SetScoringCircuitState(0)
	assert.Equal(t, float64(0), testutil.ToFloat64(ScoringCircuitState))
}

package metrics

import (
	"errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"testing"
)

type result string

func (r result) String() string {
	return string(r)
}

func TestRecordAuthResult(t *testing.T) {
	before := testutil.ToFloat64(AuthResultsTotal.WithLabelValues(OpLogin, "LOGGED_IN"))
	RecordAuthResult(OpLogin, result("LOGGED_IN"), nil)
	assert.Equal(t, before+1, testutil.ToFloat64(AuthResultsTotal.WithLabelValues(OpLogin, "LOGGED_IN")))

	before = testutil.ToFloat64(AuthResultsTotal.WithLabelValues(OpLogout, resultError))
	RecordAuthResult(OpLogout, result("LOGGED_OUT"), errors.New("down"))
	assert.Equal(t, before+1, testutil.ToFloat64(AuthResultsTotal.WithLabelValues(OpLogout, resultError)))
}

func TestRecordRememberMe(t *testing.T) {
	before := testutil.ToFloat64(RememberMeEventsTotal.WithLabelValues(EventCleared))
	RecordRememberMe(EventCleared)
	assert.Equal(t, before+1, testutil.ToFloat64(RememberMeEventsTotal.WithLabelValues(EventCleared)))
}

func TestRecordThrottled(t *testing.T) {
	before := testutil.ToFloat64(ThrottledTotal)
	RecordThrottled()
	assert.Equal(t, before+1, testutil.ToFloat64(ThrottledTotal))
}

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EngulfSentinel/internal/entry"
	"EngulfSentinel/internal/model"
	"EngulfSentinel/internal/model/modeltest"
	"EngulfSentinel/internal/notifier"
)

type fixedStatus notifier.Status

func (f fixedStatus) Status() notifier.Status { return notifier.Status(f) }

func newTracker() *entry.Tracker {
	tr := entry.NewTracker(0)
	older := model.Combo{Direction: model.Bullish, Trigger: modeltest.Bar(2, 9, 9.5, 8, 8.2), Partner: modeltest.Bar(0, 10, 12, 10, 12)}
	newer := model.Combo{Direction: model.Bullish, Trigger: modeltest.Bar(7, 9, 9.8, 8, 8.5), Partner: modeltest.Bar(5, 10, 12, 10, 12)}
	bear := model.Combo{Direction: model.Bearish, Trigger: modeltest.Bar(6, 11, 12, 10.5, 11.8), Partner: modeltest.Bar(4, 10, 10, 8, 8)}
	tr.Update(model.NewComboSet(modeltest.Bar(8, 0, 0, 0, 0).Time, older, newer, bear))
	return tr
}

func get(t *testing.T, s *Server, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	s.Handler().ServeHTTP(w, req)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestHealth(t *testing.T) {
	s := NewServer(":0", newTracker(), fixedStatus{Symbol: "EURUSD=X", Executor: "dry-run", SessionOpen: true}, nil, false)
	w, body := get(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "EURUSD=X", body["symbol"])
	assert.Equal(t, true, body["session_open"])
}

func TestHealth_Degraded(t *testing.T) {
	st := fixedStatus{LastScan: time.Now(), LastErr: "collect: feed down"}
	_, body := get(t, NewServer(":0", newTracker(), st, nil, false), "/healthz")
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "collect: feed down", body["last_error"])
}

func TestCombos(t *testing.T) {
	s := NewServer(":0", newTracker(), nil, nil, false)
	w, body := get(t, s, "/api/v1/combos")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])

	data := body["data"].(map[string]any)
	assert.Equal(t, 3.0, data["count"])
	bulls := data["bullish"].([]any)
	require.Len(t, bulls, 2)
	first := bulls[0].(map[string]any)
	assert.Equal(t, true, first["active"])
	assert.Equal(t, 9.8, first["trigger_level"])
	assert.Equal(t, "bullish", first["direction"])
	assert.Equal(t, "BUY", first["side"])
	assert.Equal(t, false, bulls[1].(map[string]any)["active"])

	bears := data["bearish"].([]any)
	require.Len(t, bears, 1)
	assert.Equal(t, 10.5, bears[0].(map[string]any)["trigger_level"])
}

func TestCombos_DirectionFilter(t *testing.T) {
	s := NewServer(":0", newTracker(), nil, nil, false)
	_, body := get(t, s, "/api/v1/combos?direction=bearish")
	data := body["data"].(map[string]any)
	assert.Equal(t, 1.0, data["count"])
	assert.NotContains(t, data, "bullish")

	w, body := get(t, s, "/api/v1/combos?direction=sideways")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, true, body["error"])
}

func TestCombos_Empty(t *testing.T) {
	s := NewServer(":0", entry.NewTracker(0), nil, nil, false)
	_, body := get(t, s, "/api/v1/combos")
	data := body["data"].(map[string]any)
	assert.Equal(t, 0.0, data["count"])
	assert.NotContains(t, data, "built_at")
	assert.Empty(t, data["bullish"])
}

func TestLedger(t *testing.T) {
	tr := newTracker()
	s := NewServer(":0", tr, nil, nil, false)
	_, body := get(t, s, "/api/v1/ledger")
	assert.Equal(t, 0.0, body["data"].(map[string]any)["count"])

	require.Len(t, tr.OnQuote(model.Quote{Ask: 9.8, Bid: 9.7}), 1)
	_, body = get(t, s, "/api/v1/ledger")
	data := body["data"].(map[string]any)
	assert.Equal(t, 1.0, data["count"])
	bars := data["bars"].([]any)
	assert.Equal(t, 9.8, bars[0].(map[string]any)["high"])
}

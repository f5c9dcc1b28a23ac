package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EngulfSentinel/internal/model"
	"EngulfSentinel/internal/model/modeltest"
)

func newTestNotifier(srv *httptest.Server) *TelegramNotifier {
	n := NewTelegramNotifier("TOKEN", "42", "", nil)
	n.APIBase = srv.URL
	n.MaxRetries = 0
	return n
}

func TestSendOnce_Payload(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	require.NoError(t, newTestNotifier(srv).Send(context.Background(), "hello"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "hello", got["text"])
	assert.Equal(t, "HTML", got["parse_mode"])
}

func TestSendWithRetry_RecoversAfterFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "busy", http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	require.NoError(t, newTestNotifier(srv).SendWithRetry(context.Background(), "x", 1))
	assert.Equal(t, int32(2), calls.Load())
}

func TestSendWithRetry_Exhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := newTestNotifier(srv).SendWithRetry(context.Background(), "x", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestSendWithRetry_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := newTestNotifier(srv).SendWithRetry(ctx, "x", 5)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}

func TestStartPolling_RepliesToCommands(t *testing.T) {
	var polls atomic.Int32
	replies := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			if polls.Add(1) == 1 {
				fmt.Fprint(w, `{"ok":true,"result":[{"update_id":7,"message":{"text":" /status "}}]}`)
				return
			}
			assert.Equal(t, "8", r.URL.Query().Get("offset"))
			fmt.Fprint(w, `{"ok":true,"result":[]}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			replies <- body["text"]
			fmt.Fprint(w, `{"ok":true}`)
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		newTestNotifier(srv).StartPolling(ctx, func(cmd string) string { return "got " + cmd })
		close(done)
	}()

	select {
	case reply := <-replies:
		assert.Equal(t, "got /status", reply)
	case <-time.After(5 * time.Second):
		t.Fatal("no reply sent")
	}
	cancel()
	<-done
}

func TestFormatEntry(t *testing.T) {
	combo := model.Combo{
		Direction: model.Bullish,
		Trigger:   modeltest.Bar(3, 9, 9.5, 8, 8.2),
		Partner:   modeltest.Bar(0, 10, 12, 10, 12),
	}
	sig := model.EntrySignal{Combo: combo, Side: model.Buy, Price: 9.5}
	order := model.Order{ID: "id-1", Symbol: "EURUSD=X", Volume: 1000, StopLossPips: 15, TakeProfitPips: 30}

	msg := FormatEntry(sig, order, nil)
	assert.Contains(t, msg, "BUY EURUSD=X")
	assert.Contains(t, msg, "level 9.50000")
	assert.Contains(t, msg, "id-1")
	assert.NotContains(t, msg, "execution failed")

	msg = FormatEntry(sig, order, errors.New("broker down"))
	assert.Contains(t, msg, "execution failed: broker down")
}

func TestFormatCombos(t *testing.T) {
	assert.Contains(t, FormatCombos("X", nil), "No active combos")

	older := model.Combo{Direction: model.Bearish, Trigger: modeltest.Body(2, 11, 12), Partner: modeltest.Body(0, 10, 8)}
	newer := model.Combo{Direction: model.Bearish, Trigger: modeltest.Body(6, 11, 12), Partner: modeltest.Body(4, 10, 8)}
	msg := FormatCombos("X", model.NewComboSet(modeltest.Start, older, newer))
	assert.Contains(t, msg, "BEARISH</b> (SELL)")
	assert.NotContains(t, msg, "BULLISH")
	assert.Less(t, strings.Index(msg, newer.Trigger.Time.Format(timeLayout)+" level"),
		strings.Index(msg, older.Trigger.Time.Format(timeLayout)+" level"))
}

func TestFormatLedgerAndStatus(t *testing.T) {
	assert.Contains(t, FormatLedger(nil), "None yet")
	assert.Contains(t, FormatLedger([]model.OHLCV{modeltest.Body(1, 1, 2)}), "(1)")

	msg := FormatStatus(Status{Symbol: "EURUSD=X", Primary: model.TF15m, Confluence: model.TF4h, Session: "08:00-17:00", SessionOpen: true, Executor: "dry-run"})
	assert.Contains(t, msg, "confluence 4h")
	assert.Contains(t, msg, "08:00-17:00 (open)")
	assert.Contains(t, msg, "Last scan: never")
}

func TestNoopNotifier(t *testing.T) {
	var n Notifier = NoopNotifier{}
	assert.NoError(t, n.Send(context.Background(), "x"))
}

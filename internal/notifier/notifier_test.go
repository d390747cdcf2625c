package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"LeverageLab/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sink struct {
	mu    sync.Mutex
	texts  []string
	fail   int
	failOn map[int]bool
	seen   int
}

func (s *sink) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		var body map[string]string
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) {
			return
		}
		assert.Equal(t, "42", body["chat_id"])
		assert.Equal(t, "HTML", body["parse_mode"])

		s.mu.Lock()
		defer s.mu.Unlock()
		s.seen++
		if s.failOn[s.seen] {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		if s.fail > 0 {
			s.fail--
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		s.texts = append(s.texts, body["text"])
		w.Write([]byte(`{"ok":true}`))
	}
}

func newTestNotifier(t *testing.T, s *sink) *TelegramNotifier {
	srv := httptest.NewServer(s.handler(t))
	t.Cleanup(srv.Close)
	tn := NewTelegramNotifier("TOKEN", "42", "")
	tn.APIBase = srv.URL
	return tn
}

func TestSendChunksLongMessages(t *testing.T) {
	s := &sink{}
	tn := newTestNotifier(t, s)

	line := strings.Repeat("x", 99) + "\n"
	require.NoError(t, tn.Send(context.Background(), strings.Repeat(line, 50)))

	require.Len(t, s.texts, 2)
	assert.Equal(t, 4000, len(s.texts[0]))
	assert.Equal(t, 1000, len(s.texts[1]))
}

func TestSendWithRetryRecovers(t *testing.T) {
	s := &sink{fail: 1}
	tn := newTestNotifier(t, s)

	require.NoError(t, tn.SendWithRetry(context.Background(), "hello", 2))
	assert.Equal(t, []string{"hello"}, s.texts)
}

func TestSendWithRetryResumesAtFailedChunk(t *testing.T) {
	s := &sink{failOn: map[int]bool{2: true}}
	tn := newTestNotifier(t, s)

	line := strings.Repeat("x", 99) + "\n"
	require.NoError(t, tn.SendWithRetry(context.Background(), strings.Repeat(line, 50), 2))

	assert.Equal(t, 3, s.seen)
	require.Len(t, s.texts, 2)
	assert.Equal(t, 4000, len(s.texts[0]))
	assert.Equal(t, 1000, len(s.texts[1]))
}

func TestSendWithRetryExhausted(t *testing.T) {
	s := &sink{fail: 10}
	tn := newTestNotifier(t, s)

	err := tn.SendWithRetry(context.Background(), "hello", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestSendWithRetryCancelled(t *testing.T) {
	s := &sink{fail: 10}
	tn := newTestNotifier(t, s)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := tn.SendWithRetry(ctx, "hello", 3)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestChunk(t *testing.T) {
	assert.Equal(t, []string{"short"}, Chunk("short", 10))
	assert.Equal(t, []string{"abcd", "efgh", "ij"}, Chunk("abcdefghij", 4))
	assert.Equal(t, []string{"ab\n", "cdef"}, Chunk("ab\ncdef", 4))
	assert.Equal(t, []string{"가나", "다"}, Chunk("가나다", 2))
}

func TestFormatters(t *testing.T) {
	snap := &model.Snapshot{
		RanAt: time.Date(2024, 5, 1, 22, 30, 0, 0, time.UTC),
		Summary: &model.Summary{Base: "QQQ", FinalValue: 15000, TotalReturnPct: 50,
			CAGRPct: 20, BHCAGRPct: 15, BHFinalValue: 13000},
		Annual:   &model.AnnualReport{Total: model.TotalStat{Label: "Total"}},
		Warnings: []string{"price <= 0"},
	}
	msg := FormatRunReport(snap)
	assert.Contains(t, msg, "$15,000 (+50.00%)")
	assert.Contains(t, msg, "Beats buy &amp; hold by 5.00%p")
	assert.Contains(t, msg, "<pre>")
	assert.Contains(t, msg, "price &lt;= 0")

	assert.Equal(t, "No steps configured.", FormatSteps(nil))
	assert.Contains(t, FormatHistory(nil), "no recorded runs")
	assert.Contains(t, FormatFailure("QQQ", errors.New("no <data>")), "no &lt;data&gt;")
}

package research

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestLinkifyMarkdown(t *testing.T) {
	in := `Per [FantasyPros](https://www.fantasypros.com/nfl/a?b=1&c=2), and [not a link](ftp://x) or [x](javascript:alert(1)).`
	got := LinkifyMarkdown(in)

	assert.Contains(t, got, `<a href="https://www.fantasypros.com/nfl/a?b=1&amp;c=2" target="_blank" rel="noopener"`)
	assert.Contains(t, got, `>FantasyPros</a>`)
	assert.Contains(t, got, `[not a link](ftp://x)`)
	assert.Contains(t, got, `[x](javascript:alert(1))`)
}

func TestReport_AnalysisText(t *testing.T) {
	r := Report{PlayingTime: "More", Outlook: "See [PFF](https://pff.com)"}
	text := r.AnalysisText()

	assert.Contains(t, text, "**Playing Time**: More\n\n**Injury Risk**: ")
	assert.Contains(t, text, `**Outlook**: See <a href="https://pff.com"`)
}

func TestScores_Clamp(t *testing.T) {
	s := Scores{PlayingTime: -9, InjuryRisk: 7, BreakoutRisk: -1, BustRisk: 3}
	s.Clamp()
	assert.Equal(t, Scores{PlayingTime: -5, InjuryRisk: 5, BreakoutRisk: 0, BustRisk: 3}, s)
}

func chatServer(t *testing.T, status int, content string, seen *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		if seen != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
			return
		}
		resp := map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": content}}},
		}
		assert.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAI_Research(t *testing.T) {
	var seen chatRequest
	srv := chatServer(t, http.StatusOK, `{
		"playing_time": "Workhorse role",
		"injury_risk": "Low",
		"breakout_risk": "High",
		"bust_risk": "Low",
		"key_changes": "New OC",
		"outlook": "RB1",
		"playing_time_score": 8,
		"injury_risk_score": 1,
		"breakout_risk_score": 4,
		"bust_risk_score": 1
	}`, &seen)

	o := NewOpenAI("sk-test", "", srv.URL+"/", discard())
	r, err := o.Research(t.Context(), "Bijan Robinson", 2025)
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, seen.Model)
	assert.Equal(t, "json_object", seen.ResponseFormat["type"])
	require.Len(t, seen.Messages, 2)
	assert.Contains(t, seen.Messages[0].Content, "2025 season")
	assert.Equal(t, "Player: Bijan Robinson", seen.Messages[1].Content)

	assert.Equal(t, "RB1", r.Outlook)
	require.NotNil(t, r.Scores)
	assert.Equal(t, 5, r.Scores.PlayingTime, "clamped")
	assert.Equal(t, 4, r.Scores.BreakoutRisk)
}

func TestOpenAI_NoScores(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `{"outlook":"Fine"}`, nil)
	r, err := NewOpenAI("sk-test", "m", srv.URL, discard()).Research(t.Context(), "X", 2025)
	require.NoError(t, err)
	assert.Nil(t, r.Scores)
}

func TestOpenAI_Errors(t *testing.T) {
	_, err := NewOpenAI("", "", "", discard()).Research(t.Context(), "X", 2025)
	assert.ErrorIs(t, err, ErrDisabled)

	srv := chatServer(t, http.StatusTooManyRequests, "", nil)
	_, err = NewOpenAI("sk-test", "", srv.URL, discard()).Research(t.Context(), "X", 2025)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")

	srv = chatServer(t, http.StatusOK, "not json", nil)
	_, err = NewOpenAI("sk-test", "", srv.URL, discard()).Research(t.Context(), "X", 2025)
	assert.ErrorIs(t, err, ErrBadResponse)

	srv = chatServer(t, http.StatusOK, `{}`, nil)
	_, err = NewOpenAI("sk-test", "", srv.URL, discard()).Research(t.Context(), "X", 2025)
	assert.ErrorIs(t, err, ErrBadResponse)
}

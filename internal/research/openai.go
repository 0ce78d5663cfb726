package research

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

const (
	DefaultModel   = "gpt-4o-2024-08-06"
	DefaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 2 * time.Minute
)

var (
	// ErrDisabled is returned when no API key is configured.
	ErrDisabled = errors.New("player research is not configured")
	// ErrBadResponse is returned when the model's answer cannot be used.
	ErrBadResponse = errors.New("unusable research response")
)

const systemPrompt = `You are a fantasy football analyst writing a detailed report on one player for the %d season.
Prefer data-driven fantasy sources over mainstream coverage. Cite sources as markdown links.
Answer with a JSON object with these string fields:
  playing_time: how the player's snap count may compare with the previous season
  injury_risk: injury history and usage
  breakout_risk: whether a significant jump in points per game is expected; quote sources where useful
  bust_risk: whether the player could disappoint relative to draft position
  key_changes: personnel or coaching changes that affect playing time or effectiveness
  outlook: overall assessment
and these integer fields:
  playing_time_score: -5 (much less) to 5 (much more)
  injury_risk_score, breakout_risk_score, bust_risk_score: 0 (none) to 5 (very high)`

// OpenAI is a Researcher backed by the chat-completions endpoint.
type OpenAI struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	logger     *slog.Logger
}

// NewOpenAI creates a client. An empty apiKey yields a client whose Research
// always returns ErrDisabled.
func NewOpenAI(apiKey, model, baseURL string, logger *slog.Logger) *OpenAI {
	if logger == nil {
		logger = slog.Default()
	}
	if model == "" {
		model = DefaultModel
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &OpenAI{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		logger:     logger,
	}
}

// Model returns the model name recorded alongside stored reports.
func (o *OpenAI) Model() string { return o.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// reportPayload is the JSON object the model is asked for.
type reportPayload struct {
	PlayingTime       string `json:"playing_time"`
	InjuryRisk        string `json:"injury_risk"`
	BreakoutRisk      string `json:"breakout_risk"`
	BustRisk          string `json:"bust_risk"`
	KeyChanges        string `json:"key_changes"`
	Outlook           string `json:"outlook"`
	PlayingTimeScore  *int   `json:"playing_time_score"`
	InjuryRiskScore   *int   `json:"injury_risk_score"`
	BreakoutRiskScore *int   `json:"breakout_risk_score"`
	BustRiskScore     *int   `json:"bust_risk_score"`
}

// Research asks the model for a report on playerName.
func (o *OpenAI) Research(ctx context.Context, playerName string, season int) (*Report, error) {
	if o.apiKey == "" {
		return nil, ErrDisabled
	}

	body, err := json.Marshal(chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: fmt.Sprintf(systemPrompt, season)},
			{Role: "user", Content: "Player: " + playerName},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	o.logger.Info("Requesting player research", "player", playerName, "model", o.model)
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "research request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("research API returned %d: %s", resp.StatusCode, truncate(raw, 200))
	}

	var chat chatResponse
	if err := json.Unmarshal(raw, &chat); err != nil {
		return nil, errors.Wrap(err, "decode response")
	}
	if len(chat.Choices) == 0 {
		return nil, errors.Wrap(ErrBadResponse, "no choices")
	}

	var p reportPayload
	if err := json.Unmarshal([]byte(chat.Choices[0].Message.Content), &p); err != nil {
		return nil, errors.Wrapf(ErrBadResponse, "decode report: %v", err)
	}
	if p.Outlook == "" && p.PlayingTime == "" {
		return nil, errors.Wrap(ErrBadResponse, "empty report")
	}

	report := &Report{
		PlayingTime:  p.PlayingTime,
		InjuryRisk:   p.InjuryRisk,
		BreakoutRisk: p.BreakoutRisk,
		BustRisk:     p.BustRisk,
		KeyChanges:   p.KeyChanges,
		Outlook:      p.Outlook,
	}
	if p.PlayingTimeScore != nil || p.InjuryRiskScore != nil || p.BreakoutRiskScore != nil || p.BustRiskScore != nil {
		s := Scores{
			PlayingTime:  deref(p.PlayingTimeScore),
			InjuryRisk:   deref(p.InjuryRiskScore),
			BreakoutRisk: deref(p.BreakoutRiskScore),
			BustRisk:     deref(p.BustRiskScore),
		}
		s.Clamp()
		report.Scores = &s
	}
	return report, nil
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}

// File: internal/oracle/genai.go
package oracle

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/xkilldash9x/stratagem-cli/api/schemas"
	"github.com/xkilldash9x/stratagem-cli/internal/config"
)

// GenAIOracle scores actions and derives consequences with a Gemini model.
// Calls are rate limited; timeouts and degradation are handled one layer up
// by Resilient.
type GenAIOracle struct {
	client  *genai.Client
	model   string
	temp    float32
	limiter *rate.Limiter
	logger  *zap.Logger
}

var _ schemas.Oracle = (*GenAIOracle)(nil)

// NewGenAIOracle builds the Gemini-backed oracle from configuration.
func NewGenAIOracle(ctx context.Context, cfg config.OracleConfig, logger *zap.Logger) (*GenAIOracle, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("oracle API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 30
	}

	return &GenAIOracle{
		client:  client,
		model:   cfg.Model,
		temp:    float32(cfg.Temperature),
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1),
		logger:  logger.Named("oracle.genai"),
	}, nil
}

// scorePayload is the JSON shape the model is instructed to return.
type scorePayload struct {
	Support   float64 `json:"support"`
	Counter   float64 `json:"counter"`
	Narrative string  `json:"narrative"`
}

// consequencePayload is the JSON shape for consequence generation.
type consequencePayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Trigger     string `json:"trigger"`
}

// ScoreAction asks the model for an argument-for-success score, a
// counter-argument score, and narrative text.
func (g *GenAIOracle) ScoreAction(ctx context.Context, q schemas.ActionQuery) (schemas.ActionScore, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return schemas.ActionScore{}, fmt.Errorf("rate limiter wait: %w", err)
	}

	prompt := buildScorePrompt(q)
	text, err := g.generate(ctx, prompt)
	if err != nil {
		return schemas.ActionScore{}, err
	}

	payload, err := parseJSONResponse[scorePayload](text)
	if err != nil {
		return schemas.ActionScore{}, fmt.Errorf("%s: %w", schemas.ErrCodeOracleBadPayload, err)
	}
	if payload.Narrative == "" {
		return schemas.ActionScore{}, fmt.Errorf("%s: empty narrative", schemas.ErrCodeOracleBadPayload)
	}

	return schemas.ActionScore{
		Support:   clampScore(payload.Support),
		Counter:   clampScore(payload.Counter),
		Narrative: payload.Narrative,
	}, nil
}

// GenerateConsequence asks the model for one emergent event grounded in the
// snapshot state.
func (g *GenAIOracle) GenerateConsequence(ctx context.Context, snap *schemas.Snapshot, verdict schemas.Verdict) (schemas.Consequence, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return schemas.Consequence{}, fmt.Errorf("rate limiter wait: %w", err)
	}

	text, err := g.generate(ctx, buildConsequencePrompt(snap, verdict))
	if err != nil {
		return schemas.Consequence{}, err
	}

	payload, err := parseJSONResponse[consequencePayload](text)
	if err != nil {
		return schemas.Consequence{}, fmt.Errorf("%s: %w", schemas.ErrCodeOracleBadPayload, err)
	}
	if payload.Description == "" {
		return schemas.Consequence{}, fmt.Errorf("%s: empty consequence", schemas.ErrCodeOracleBadPayload)
	}

	return schemas.Consequence{
		Title:       payload.Title,
		Description: payload.Description,
		Trigger:     payload.Trigger,
	}, nil
}

func (g *GenAIOracle) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			Temperature:      genai.Ptr(g.temp),
			ResponseMIMEType: "application/json",
		})
	if err != nil {
		return "", fmt.Errorf("genai generate failed: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%s: model returned no text", schemas.ErrCodeOracleBadPayload)
	}
	return text, nil
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

func buildScorePrompt(q schemas.ActionQuery) string {
	var b strings.Builder
	b.WriteString("You are the adjudicator of a strategic decision simulation.\n")
	b.WriteString("Assess the plausibility of the following action.\n\n")
	fmt.Fprintf(&b, "Actor: %s (%s, archetype %s)\n", q.Actor.Name, q.Actor.Role, q.Actor.Archetype)
	fmt.Fprintf(&b, "Action: %s — %s\n", q.Action.Option.Label, q.Action.Option.Description)
	if q.Action.Rationale != "" {
		fmt.Fprintf(&b, "Stated rationale: %s\n", q.Action.Rationale)
	}
	fmt.Fprintf(&b, "Situation: %s\n", q.Context)
	b.WriteString("\nResources:\n")
	for name, lvl := range q.Actor.Resources {
		fmt.Fprintf(&b, "  %s: %.0f/100\n", name, lvl.Value)
	}
	b.WriteString(`
Make the strongest argument that the action succeeds, then the strongest
counter-argument. Respond with JSON only:
{"support": <0-10>, "counter": <0-10>, "narrative": "<two or three sentences of outcome narration>"}
`)
	return b.String()
}

func buildConsequencePrompt(snap *schemas.Snapshot, verdict schemas.Verdict) string {
	var b strings.Builder
	b.WriteString("You narrate second-order effects in a strategic simulation.\n")
	fmt.Fprintf(&b, "The last action resolved with a %s verdict.\n", verdict)
	b.WriteString("Current actors and resources:\n")
	if snap != nil {
		for _, a := range snap.Actors {
			fmt.Fprintf(&b, "- %s (%s):", a.Name, a.Role)
			for name, lvl := range a.Resources {
				fmt.Fprintf(&b, " %s=%.0f", name, lvl.Value)
			}
			b.WriteString("\n")
		}
	}
	b.WriteString(`
Invent ONE unexpected consequence: an emergent event no actor ordered,
logically derived from the state above. Respond with JSON only:
{"title": "<short title>", "description": "<one or two sentences>", "trigger": "<the state condition it follows from>"}
`)
	return b.String()
}

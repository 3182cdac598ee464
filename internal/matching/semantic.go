package matching

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/jonathan/pfe-match/internal/llm"
	"github.com/jonathan/pfe-match/internal/logger"
)

// descriptionLimit bounds the listing description sent to the model.
const descriptionLimit = 500

//go:embed match_response.schema.json
var matchResponseSchema []byte

var responseSchemaLoader = gojsonschema.NewBytesLoader(matchResponseSchema)

var promptSchema = llm.ResponseSchema{
	Name:        "MatchEvaluation",
	Description: "how well the candidate fits the internship",
	Fields: []llm.SchemaField{
		{Name: "score", Type: "number", Description: "compatibility from 0 to 100", Required: true},
		{Name: "explanation", Type: "string", Description: "two or three sentences justifying the score", Required: true},
		{Name: "matched_skills", Type: "array", Description: "required skills the candidate has, including close equivalents", Required: true},
		{Name: "missing_skills", Type: "array", Description: "required skills the candidate lacks", Required: true},
		{Name: "recommendations", Type: "string", Description: "what the candidate should learn or highlight"},
	},
}

const promptInstructions = `Evaluate how well a student matches a PFE (final-year internship) listing.
Treat related technologies as partial matches (for example React and Next.js) and weigh
the listing's required skills above everything else.`

// SemanticEstimator asks an LLM to judge the match. It fails on any transport or
// payload problem; wrap it in a FallbackEstimator to always get a result.
type SemanticEstimator struct {
	Client llm.Client
	Tier   llm.ModelTier
	Logger *zap.Logger
}

// NewSemanticEstimator creates a semantic estimator using the standard model tier.
func NewSemanticEstimator(client llm.Client, log *zap.Logger) *SemanticEstimator {
	if log == nil {
		log = zap.NewNop()
	}
	return &SemanticEstimator{Client: client, Tier: llm.TierStandard, Logger: log}
}

// Source implements Sourcer.
func (*SemanticEstimator) Source() string { return SourceSemantic }

// Estimate implements Estimator.
func (e *SemanticEstimator) Estimate(ctx context.Context, candidate Candidate, listing Listing) (*Result, error) {
	if e.Client == nil {
		return nil, fmt.Errorf("semantic estimator has no LLM client")
	}

	raw, err := e.Client.GenerateJSON(ctx, BuildPrompt(candidate, listing), e.Tier)
	if err != nil {
		return nil, fmt.Errorf("llm request failed: %w", err)
	}
	if e.Logger != nil {
		e.Logger.Debug("semantic match response", zap.String("payload", logger.TruncateForLog(raw, 500)))
	}

	return ParseSemanticResponse(raw)
}

// BuildPrompt renders the evaluation prompt for a candidate and listing.
func BuildPrompt(candidate Candidate, listing Listing) string {
	role := candidate.DesiredRole
	if strings.TrimSpace(role) == "" {
		role = "not specified"
	}

	return llm.BuildPrompt(promptSchema, promptInstructions, []llm.PromptSection{
		{Title: "Student skills", Body: joinOrNone(normalizeSkills(candidate.AllSkills()).sortedKeys())},
		{Title: "Student desired role", Body: role},
		{Title: "Listing title", Body: listing.Title},
		{Title: "Listing required skills", Body: joinOrNone(normalizeSkills(listing.RequiredSkills).sortedKeys())},
		{Title: "Listing description", Body: llm.Truncate(listing.Description, descriptionLimit)},
	})
}

func joinOrNone(skills []string) string {
	if len(skills) == 0 {
		return "none"
	}
	return strings.Join(skills, ", ")
}

type semanticPayload struct {
	Score           float64  `json:"score"`
	Explanation     string   `json:"explanation"`
	MatchedSkills   []string `json:"matched_skills"`
	MissingSkills   []string `json:"missing_skills"`
	Recommendations string   `json:"recommendations"`
}

// ParseSemanticResponse validates an LLM payload against the match response schema and
// converts it to a Result with the score clamped to [0, 100].
func ParseSemanticResponse(raw string) (*Result, error) {
	cleaned := llm.CleanJSONBlock(raw)

	validation, err := gojsonschema.Validate(responseSchemaLoader, gojsonschema.NewStringLoader(cleaned))
	if err != nil {
		return nil, fmt.Errorf("malformed match response: %w", err)
	}
	if !validation.Valid() {
		msgs := make([]string, 0, len(validation.Errors()))
		for _, e := range validation.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("match response failed schema validation: %s", strings.Join(msgs, "; "))
	}

	var payload semanticPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("failed to decode match response: %w", err)
	}

	matched := payload.MatchedSkills
	if matched == nil {
		matched = []string{}
	}
	missing := payload.MissingSkills
	if missing == nil {
		missing = []string{}
	}

	return &Result{
		Score:           round2(clampScore(payload.Score)),
		Explanation:     payload.Explanation,
		MatchedSkills:   matched,
		MissingSkills:   missing,
		Recommendations: payload.Recommendations,
		Source:          SourceSemantic,
	}, nil
}

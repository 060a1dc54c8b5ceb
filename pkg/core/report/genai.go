package report

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/centaurus-ai/roundtable/pkg/core/session"
)

// DefaultReportModel generates structured reports.
const DefaultReportModel = "gemini-2.5-flash"

// GenAI generates reports through the Gemini SDK with a response schema
// so the JSON shape is enforced server side.
type GenAI struct {
	client *genai.Client
	model  string
}

// NewGenAI creates a schema-constrained report generator.
func NewGenAI(ctx context.Context, apiKey, model string) (*GenAI, error) {
	if model == "" {
		model = DefaultReportModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GenAI{client: client, model: model}, nil
}

// reportPayload matches the response schema below.
type reportPayload struct {
	Summary       string                  `json:"summary"`
	KeyInsights   []string                `json:"keyInsights"`
	KeyTakeaways  []session.AgentTakeaway `json:"keyTakeaways"`
	RiskMatrix    []session.RiskEntry     `json:"riskMatrix"`
	FinalDecision string                  `json:"finalDecision"`
	Timeline      []session.TimelineEntry `json:"timeline"`
}

// Generate implements Generator.
func (g *GenAI) Generate(ctx context.Context, in Input) (*session.Report, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(Prompt(in)), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   reportSchema,
	})
	if err != nil {
		return nil, fmt.Errorf("generate report: %w", err)
	}

	var payload reportPayload
	if err := json.Unmarshal([]byte(resp.Text()), &payload); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}

	return &session.Report{
		SessionID:     in.SessionID,
		Topic:         in.Topic,
		Summary:       payload.Summary,
		KeyInsights:   payload.KeyInsights,
		KeyTakeaways:  payload.KeyTakeaways,
		RiskMatrix:    payload.RiskMatrix,
		FinalDecision: payload.FinalDecision,
		Timeline:      payload.Timeline,
	}, nil
}

var reportSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"summary":     {Type: genai.TypeString},
		"keyInsights": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"keyTakeaways": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"agentName": {Type: genai.TypeString},
					"takeaway":  {Type: genai.TypeString},
				},
				Required: []string{"agentName", "takeaway"},
			},
		},
		"riskMatrix": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"threat": {Type: genai.TypeString},
					"impact": {Type: genai.TypeString},
				},
				Required: []string{"threat", "impact"},
			},
		},
		"finalDecision": {Type: genai.TypeString},
		"timeline": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"agentName":       {Type: genai.TypeString},
					"keyContribution": {Type: genai.TypeString},
				},
				Required: []string{"agentName", "keyContribution"},
			},
		},
	},
	Required: []string{"summary", "keyInsights", "keyTakeaways", "riskMatrix", "finalDecision", "timeline"},
}

package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-haiku-4-5-20251001"

// AnthropicGenerator narrates qualifications with the Anthropic Messages API.
type AnthropicGenerator struct {
	client sdk.Client
	model  string
}

// NewAnthropicGenerator builds a generator; an empty model gets DefaultModel.
func NewAnthropicGenerator(apiKey, model string) *AnthropicGenerator {
	if model == "" {
		model = DefaultModel
	}
	return &AnthropicGenerator{
		client: sdk.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Model returns the configured model ID (for the audit trail).
func (g *AnthropicGenerator) Model() string { return g.model }

// Generate asks the model for the structured qualification JSON and parses
// it. Any transport, parse, or validation failure is returned for the caller
// to fall back on.
func (g *AnthropicGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	msg, err := g.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(g.model),
		MaxTokens: 1024,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(buildPrompt(req))),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic: create message: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return nil, fmt.Errorf("anthropic: response has no text content")
	}

	return parseResult(text)
}

// parseResult strips an optional markdown code fence and decodes the JSON.
func parseResult(text string) (*Result, error) {
	text = stripCodeFence(strings.TrimSpace(text))

	var result Result
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("decode narrated result: %w", err)
	}
	switch result.Status {
	case "approved", "borderline", "not_qualified":
	default:
		return nil, fmt.Errorf("narrated result has invalid status %q", result.Status)
	}
	return &result, nil
}

func stripCodeFence(text string) string {
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
	} else {
		return text
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

func buildPrompt(req Request) string {
	city, state, county := "Unknown", "Unknown", "unknown"
	if req.Location != nil {
		city, state, county = req.Location.City, req.Location.StateCode, req.Location.County
	}

	localBill := "N/A"
	rate := fallbackRatePerKWh
	if req.Electricity != nil {
		localBill = fmt.Sprintf("$%.2f", req.Electricity.AverageMonthlyBill)
		if req.Electricity.UtilityRatePerKWh > 0 {
			rate = req.Electricity.UtilityRatePerKWh
		}
	}
	maxKW := req.RoofSqFt / 250

	var b strings.Builder
	fmt.Fprintf(&b, `You are an expert solar loan qualification analyst. Based on the following data, calculate and determine solar loan qualification.

LOCATION DATA:
- ZIP Code: %s
- City: %s, %s
- County: %s

ELECTRICITY DATA:
- User's Exact Monthly Bill: $%.0f
- Local Average Bill: %s
- Utility Rate: $%v/kWh
- User's Estimated Usage: %.0f kWh/month (based on their exact bill amount)

USER PROFILE:
- Monthly Electric Bill: $%v
- Credit Band: %s
- Available Roof Size: %v sq ft
- Maximum System Capacity: %.1f kW (based on roof size constraint)

SOLAR INDUSTRY STANDARDS:
- Solar panels: ~400W each, ~25 sq ft per panel (including spacing)
- System cost: ~$2.75/watt installed
- Federal tax credit: 30%%
- Typical sun hours: 4-6 hours/day depending on location
- System efficiency: ~85%% (including inverter losses)
- Panel degradation: 0.5%% per year
- Roof space requirement: ~250 sq ft per kW (realistic spacing)
- Loan terms by credit:
  * Excellent (750+): 3.99%% APR, 25 years, 0%% down
  * Good (700-749): 5.99%% APR, 20 years, 0%% down
  * Fair (650-699): 8.99%% APR, 15 years, 10%% down
  * Poor (<650): 12.99%% APR, 10 years, 20%% down

IMPORTANT: System size CANNOT exceed %.1f kW due to roof space limitations.

QUALIFICATION RULES:
- Excellent/Good Credit: Always "approved"
- Fair Credit: Always "borderline" (requires review)
- Poor Credit: Always "not_qualified"

Respond with ONLY this exact JSON format:
{
    "status": "approved|borderline|not_qualified",
    "system_size_kw": 0.0,
    "total_cost": 0.0,
    "net_cost_after_incentives": 0.0,
    "lifetime_savings": 0.0,
    "explanation": "Brief explanation here",
    "loan_terms": {
        "apr": 0.0,
        "term_years": 0,
        "down_payment_percent": 0
    },
    "calculations": {
        "monthly_kwh_usage": 0.0,
        "system_annual_production": 0.0
    }
}`,
		req.ZipCode, city, state, county,
		req.MonthlyBill, localBill, rate, req.MonthlyBill/fallbackRatePerKWh,
		req.MonthlyBill, req.CreditBand, req.RoofSqFt, maxKW, maxKW)
	return b.String()
}

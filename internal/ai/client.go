package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"trading-journal-go/internal/config"
	"trading-journal-go/internal/journal"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const baseURL = "https://api.openai.com/v1"

// ChallengeData is one generated quiz question before persistence.
type ChallengeData struct {
	Title           string   `json:"title"`
	Options         []string `json:"options"`
	CorrectAnswerID int      `json:"correct_answer_id"`
	Explanation     string   `json:"explanation"`
}

// ClientInterface defines the AI collaborator contract: an opaque free-form
// CSV interpreter and a quiz generator. The engine only validates and
// forwards interpreter output through the normal create-trade flow.
type ClientInterface interface {
	ParseTrades(ctx context.Context, csvText string) ([]journal.TradePayload, error)
	GenerateChallenge(ctx context.Context, difficulty string) (*ChallengeData, error)
}

// Client talks to the OpenAI chat-completions API.
type Client struct {
	client *resty.Client
	model  string
	logger *zap.Logger
}

// ensure Client implements the interface
var _ ClientInterface = (*Client)(nil)

// NewClient creates a new OpenAI client.
func NewClient(cfg *config.AI, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(cfg.ApiKey).
		SetHeader("Content-Type", "application/json")

	return &Client{
		client: client,
		model:  cfg.Model,
		logger: logger.Named("ai"),
	}
}

const parseTradesSystemPrompt = `You are an expert trading journal assistant.

You will be given the FULL contents of a CSV file containing one or more trade executions from a broker.

Your job:
1. Interpret the CSV columns (symbol/ticker, side, quantity, price, fees/commissions, date/time, etc.).
2. Group executions into logical TRADES per symbol. One trade is complete when the combined quantity of its transactions nets to 0. For example (buy 10 PLTR, buy 10 PLTR, sell 15 PLTR, sell 5 PLTR) is one trade.
3. Respond with a JSON object of this exact shape:

{
  "trades": [
    {
      "ticker": "AAPL",
      "mistake": "None",
      "notes": "",
      "transactions": [
        {
          "type": "buy",
          "date": "YYYY-MM-DDTHH:MM:SS",
          "amount": 10,
          "price": 150.25,
          "commissions": 0.5
        }
      ]
    }
  ]
}

Use "buy" or "sell" for type, positive numbers for amount and price, and 0 for unknown commissions. Skip rows you cannot interpret.`

const generateChallengeSystemPrompt = `You are an expert trading coach creating quiz questions for traders.

Generate one multiple-choice question matching the requested difficulty. Respond with a JSON object of this exact shape:

{
  "title": "the question text",
  "options": ["option 1", "option 2", "option 3", "option 4"],
  "correct_answer_id": 0,
  "explanation": "why the correct answer is right"
}`

// ParseTrades asks the model to interpret a free-form broker CSV into the
// canonical trade schema.
func (c *Client) ParseTrades(ctx context.Context, csvText string) ([]journal.TradePayload, error) {
	content, err := c.complete(ctx, parseTradesSystemPrompt, csvText)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Trades []journal.TradePayload `json:"trades"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode AI trade response: %w", err)
	}
	c.logger.Info("AI interpreted CSV", zap.Int("trades", len(parsed.Trades)))
	return parsed.Trades, nil
}

// GenerateChallenge asks the model for one quiz question.
func (c *Client) GenerateChallenge(ctx context.Context, difficulty string) (*ChallengeData, error) {
	prompt := fmt.Sprintf("Generate a %s difficulty trading challenge.", difficulty)
	content, err := c.complete(ctx, generateChallengeSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	var challenge ChallengeData
	if err := json.Unmarshal([]byte(content), &challenge); err != nil {
		return nil, fmt.Errorf("failed to decode AI challenge response: %w", err)
	}
	if len(challenge.Options) == 0 || challenge.CorrectAnswerID < 0 || challenge.CorrectAnswerID >= len(challenge.Options) {
		return nil, fmt.Errorf("AI challenge response is inconsistent")
	}
	return &challenge, nil
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat responseFmt   `json:"response_format"`
	Temperature    float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFmt struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// complete runs one chat completion and returns the raw message content.
func (c *Client) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var result chatResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model: c.model,
			Messages: []chatMessage{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: userPrompt},
			},
			ResponseFormat: responseFmt{Type: "json_object"},
			Temperature:    0.4,
		}).
		SetResult(&result).
		SetError(&result).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	if resp.IsError() {
		if result.Error != nil {
			return "", fmt.Errorf("openai: %s", result.Error.Message)
		}
		return "", fmt.Errorf("openai request failed with status %s", resp.Status())
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return result.Choices[0].Message.Content, nil
}

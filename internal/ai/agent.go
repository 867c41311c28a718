package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-coffee-pos/internal/logger"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	defaultModel = "gemini-2.0-flash-001"
	// maxRounds caps how many tool calls one question can chain.
	maxRounds = 5
)

// ErrNotConfigured is returned when no API key was provided.
var ErrNotConfigured = errors.New("assistant is not configured (GEMINI_API_KEY)")

// Agent answers back-office questions with Gemini, calling Tools for data.
type Agent struct {
	apiKey string
	model  string
	tools  *Tools
}

func NewAgent(apiKey string, tools *Tools) *Agent {
	return &Agent{apiKey: apiKey, model: defaultModel, tools: tools}
}

// Enabled reports whether an API key is set.
func (a *Agent) Enabled() bool {
	return a != nil && a.apiKey != ""
}

// Ask runs one question to completion. branchID is the branch tools default
// to when the question does not name one.
func (a *Agent) Ask(ctx context.Context, message string, branchID uint) (string, error) {
	if !a.Enabled() {
		return "", ErrNotConfigured
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(a.apiKey))
	if err != nil {
		return "", err
	}
	defer client.Close()

	model := client.GenerativeModel(a.model)
	model.Tools = []*genai.Tool{{FunctionDeclarations: Declarations()}}

	session := model.StartChat()
	resp, err := session.SendMessage(ctx, genai.Text(systemPrompt(time.Now(), branchID, message)))
	if err != nil {
		return "", err
	}

	log := logger.FromContext(ctx)
	for round := 0; round < maxRounds; round++ {
		call, ok := firstCall(resp)
		if !ok {
			return printResponse(resp), nil
		}

		result, err := a.tools.Execute(ctx, call.Name, call.Args, branchID)
		if err != nil {
			log.Warn("assistant tool failed", "tool", call.Name, "error", err)
			result = map[string]any{"error": err.Error()}
		}

		resp, err = session.SendMessage(ctx, genai.FunctionResponse{Name: call.Name, Response: result})
		if err != nil {
			return "", err
		}
	}
	return printResponse(resp), nil
}

func systemPrompt(now time.Time, branchID uint, message string) string {
	return fmt.Sprintf(`SYSTEM: Today is %s. You are the back-office assistant of a coffee chain.
The user's current branch id is %d (0 means every branch).

RULES:
1. STOCK: For questions about ingredients running out, call 'list_low_stock'.
2. SALES: For revenue, order counts or averages, call 'get_sales_summary' with dates as YYYY-MM-DD.
3. MENU: For product names, prices or categories, call 'list_products'.
4. Never invent numbers. Answer in the user's language.

USER: %s`, now.Format("2006-01-02"), branchID, message)
}

func firstCall(resp *genai.GenerateContentResponse) (genai.FunctionCall, bool) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return genai.FunctionCall{}, false
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if call, ok := part.(genai.FunctionCall); ok {
			return call, true
		}
	}
	return genai.FunctionCall{}, false
}

func printResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "İşlem tamamlandı."
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			return string(txt)
		}
	}
	return "İşlem tamamlandı."
}

// Package ai wires the Gemini function-calling API to read-only store
// queries so managers can ask questions in plain language.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fortmix-erp/internal/store"

	"github.com/google/generative-ai-go/genai"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"google.golang.org/api/option"
)

const (
	DefaultModel = "gemini-2.0-flash-001"

	// maxToolRounds bounds the call/response ping-pong of one question.
	maxToolRounds = 5
)

var errNoCandidates = errors.New("assistant returned no answer")

// Agent answers questions using the catalog and sales data. It never writes.
type Agent struct {
	store  store.Store
	apiKey string
	model  string
	loc    *time.Location
	now    func() time.Time
}

func NewAgent(st store.Store, apiKey string, loc *time.Location) *Agent {
	if loc == nil {
		loc = time.Local
	}
	return &Agent{store: st, apiKey: apiKey, model: DefaultModel, loc: loc, now: time.Now}
}

var tools = []*genai.Tool{
	{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        "check_inventory",
				Description: "Get the full product list. Use this to find ANY product detail like ID, Code, Name, Price, Cost or Stock.",
			},
			{
				Name:        "list_critical_stock",
				Description: "List products whose stock is at or under their minimum and need restocking.",
			},
			{
				Name:        "get_sales_report",
				Description: "Get revenue, number of sales, net profit and best sellers for a date range.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"start_date": {Type: genai.TypeString, Description: "Start date (YYYY-MM-DD)"},
						"end_date":   {Type: genai.TypeString, Description: "End date (YYYY-MM-DD)"},
					},
					Required: []string{"start_date", "end_date"},
				},
			},
		},
	},
}

// Ask runs one question through the model, resolving tool calls against the
// store until the model answers in text.
func (a *Agent) Ask(ctx context.Context, message string) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(a.apiKey))
	if err != nil {
		return "", errors.Wrap(err, "create genai client")
	}
	defer client.Close()

	model := client.GenerativeModel(a.model)
	model.Tools = tools
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(a.systemPrompt())}}

	session := model.StartChat()
	resp, err := session.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return "", errors.Wrap(err, "send message")
	}

	for round := 0; round < maxToolRounds; round++ {
		calls, err := functionCalls(resp)
		if err != nil {
			return "", err
		}
		if len(calls) == 0 {
			return printResponse(resp), nil
		}

		replies := make([]genai.Part, 0, len(calls))
		for _, call := range calls {
			result, err := a.executeTool(ctx, call)
			if err != nil {
				result = map[string]any{"error": err.Error()}
			}
			replies = append(replies, genai.FunctionResponse{Name: call.Name, Response: result})
		}

		resp, err = session.SendMessage(ctx, replies...)
		if err != nil {
			return "", errors.Wrap(err, "send tool results")
		}
	}

	return printResponse(resp), nil
}

func (a *Agent) systemPrompt() string {
	today := a.now().In(a.loc).Format(time.DateOnly)
	return fmt.Sprintf(`Today is %s. You are the assistant of a retail store back office.

RULES:
1. READ: If the user asks for PRICE, COST, STOCK or DETAILS of a product, call 'check_inventory' and read the JSON to answer.
2. RESTOCK: If the user asks what is running out, call 'list_critical_stock'.
3. SALES: If the user asks for sales, revenue or profit, call 'get_sales_report'.
4. You cannot change anything. If asked to, explain that changes are made in the app.
Answer briefly. Money is in BRL.`, today)
}

// executeTool runs one function call and returns its JSON payload in the
// shape expected by genai.FunctionResponse.
func (a *Agent) executeTool(ctx context.Context, call genai.FunctionCall) (map[string]any, error) {
	switch call.Name {
	case "check_inventory":
		products, err := a.store.ListProducts(ctx)
		if err != nil {
			return nil, err
		}
		return jsonPayload("inventory", products)

	case "list_critical_stock":
		products, err := a.store.ListCriticalProducts(ctx)
		if err != nil {
			return nil, err
		}
		return jsonPayload("critical", products)

	case "get_sales_report":
		r, err := a.rangeFromArgs(call.Args)
		if err != nil {
			return nil, err
		}
		report, err := a.store.SalesReport(ctx, r)
		if err != nil {
			return nil, err
		}

		revenue := decimal.Zero
		for _, sale := range report.Sales {
			revenue = revenue.Add(sale.Total)
		}
		return map[string]any{
			"sales_count": len(report.Sales),
			"revenue":     revenue.StringFixed(2),
			"net_profit":  report.NetProfit.StringFixed(2),
			"top":         mustJSON(report.TopProducts),
		}, nil

	default:
		return nil, errors.Errorf("unknown tool %q", call.Name)
	}
}

func (a *Agent) rangeFromArgs(args map[string]any) (store.Range, error) {
	startStr, _ := args["start_date"].(string)
	endStr, _ := args["end_date"].(string)

	start, err1 := time.ParseInLocation(time.DateOnly, startStr, a.loc)
	end, err2 := time.ParseInLocation(time.DateOnly, endStr, a.loc)
	if err1 != nil || err2 != nil {
		return store.Range{}, errors.New("dates must be in YYYY-MM-DD format")
	}
	if end.Before(start) {
		return store.Range{}, errors.New("end_date is before start_date")
	}
	return store.Range{From: start, To: end.AddDate(0, 0, 1).Add(-time.Nanosecond)}, nil
}

func functionCalls(resp *genai.GenerateContentResponse) ([]genai.FunctionCall, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errNoCandidates
	}
	var calls []genai.FunctionCall
	for _, part := range resp.Candidates[0].Content.Parts {
		if call, ok := part.(genai.FunctionCall); ok {
			calls = append(calls, call)
		}
	}
	return calls, nil
}

func printResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "I could not find an answer."
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			return string(txt)
		}
	}
	return "I could not find an answer."
}

// The genai response map only carries plain values, so lists travel as JSON
// strings.
func jsonPayload(key string, v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "encode tool result")
	}
	return map[string]any{key: string(raw)}, nil
}

func mustJSON(v any) string {
	raw, _ := json.Marshal(v)
	return string(raw)
}

// Package ai is the back-office assistant: a Gemini function-calling loop
// over a small set of read-only tools.
package ai

import (
	"context"
	"fmt"
	"time"

	"go-coffee-pos/internal/catalog"
	"go-coffee-pos/internal/reports"

	"github.com/google/generative-ai-go/genai"
)

// Tools executes the functions the model may call. It only reads.
type Tools struct {
	reports *reports.Service
	catalog *catalog.Reader
}

func NewTools(r *reports.Service, c *catalog.Reader) *Tools {
	return &Tools{reports: r, catalog: c}
}

// Declarations describes the tools to the model.
func Declarations() []*genai.FunctionDeclaration {
	return []*genai.FunctionDeclaration{
		{
			Name:        "list_low_stock",
			Description: "List ingredients of a branch whose stock is below their low-stock threshold.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"branch_id": {Type: genai.TypeInteger, Description: "Branch id; omit for the user's branch"},
				},
			},
		},
		{
			Name:        "get_sales_summary",
			Description: "Get total revenue, transaction count and average sale for a date range (inclusive).",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"start_date": {Type: genai.TypeString, Description: "Start date (YYYY-MM-DD)"},
					"end_date":   {Type: genai.TypeString, Description: "End date (YYYY-MM-DD)"},
					"branch_id":  {Type: genai.TypeInteger, Description: "Branch id; omit for the user's branch"},
				},
				Required: []string{"start_date", "end_date"},
			},
		},
		{
			Name:        "list_products",
			Description: "List active products with price and category. Optionally filter by a name fragment.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"search": {Type: genai.TypeString, Description: "Part of the product name"},
				},
			},
		},
	}
}

// Execute runs the named tool with model-supplied args.
func (t *Tools) Execute(ctx context.Context, name string, args map[string]any, branchID uint) (map[string]any, error) {
	if id, ok := uintArg(args, "branch_id"); ok {
		branchID = id
	}

	switch name {
	case "list_low_stock":
		if branchID == 0 {
			return nil, fmt.Errorf("branch_id is required")
		}
		stock, err := t.reports.StockReport(ctx, branchID)
		if err != nil {
			return nil, err
		}
		low := make([]map[string]any, 0, stock.LowCount)
		for _, row := range stock.Rows {
			if row.Low {
				low = append(low, map[string]any{
					"name":      row.Name,
					"level":     row.Level,
					"unit":      row.Unit,
					"threshold": row.Threshold,
				})
			}
		}
		return map[string]any{"branch_id": branchID, "low_stock": low}, nil

	case "get_sales_summary":
		start, err := dateArg(args, "start_date")
		if err != nil {
			return nil, err
		}
		end, err := dateArg(args, "end_date")
		if err != nil {
			return nil, err
		}
		sum, err := t.reports.SalesSummary(ctx, branchID, reports.Period{From: start, To: end.AddDate(0, 0, 1)})
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"revenue":      sum.Total,
			"transactions": sum.Transactions,
			"average":      sum.Average,
		}, nil

	case "list_products":
		search, _ := args["search"].(string)
		products, err := t.catalog.ActiveProducts(ctx, catalog.Filter{Search: search})
		if err != nil {
			return nil, err
		}
		list := make([]map[string]any, 0, len(products))
		for _, p := range products {
			list = append(list, map[string]any{
				"id":       p.ID,
				"name":     p.Name,
				"price":    p.Price,
				"category": p.CategoryName,
			})
		}
		return map[string]any{"products": list}, nil
	}
	return nil, fmt.Errorf("unknown tool %q", name)
}

// JSON numbers arrive as float64.
func uintArg(args map[string]any, key string) (uint, bool) {
	switch v := args[key].(type) {
	case float64:
		if v > 0 {
			return uint(v), true
		}
	case int:
		if v > 0 {
			return uint(v), true
		}
	}
	return 0, false
}

func dateArg(args map[string]any, key string) (time.Time, error) {
	s, _ := args[key].(string)
	d, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be YYYY-MM-DD", key)
	}
	return d, nil
}

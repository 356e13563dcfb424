package tools

import (
	"context"
	"fmt"
	"strconv"

	"tripagent/agent"
)

type binaryArgs struct {
	A float64 `mapstructure:"a"`
	B float64 `mapstructure:"b"`
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func binaryTool(name, desc string, fn func(a, b float64) (float64, error)) agent.Tool {
	return &agent.FuncTool{
		ToolName: name,
		ToolDesc: desc,
		ToolParams: objSchema(map[string]any{
			"a": numProp("The first number"),
			"b": numProp("The second number"),
		}, "a", "b"),
		Fn: func(ctx context.Context, args map[string]any, creds agent.Credentials) (string, error) {
			var in binaryArgs
			if err := decodeArgs(args, &in); err != nil {
				return "", err
			}
			out, err := fn(in.A, in.B)
			if err != nil {
				return "", err
			}
			return formatNumber(out), nil
		},
	}
}

type hotelCostArgs struct {
	PricePerNight float64 `mapstructure:"price_per_night"`
	TotalDays     float64 `mapstructure:"total_days"`
}

type totalExpenseArgs struct {
	PricePerDay float64 `mapstructure:"price_per_day"`
	TotalDays   float64 `mapstructure:"total_days"`
}

type dailyBudgetArgs struct {
	TotalCost float64 `mapstructure:"total_cost"`
	Days      int     `mapstructure:"days"`
}

func calculatorTools() []agent.Tool {
	return []agent.Tool{
		binaryTool("add", "Add two numbers together.",
			func(a, b float64) (float64, error) { return a + b, nil }),
		binaryTool("subtract", "Subtract the second number from the first.",
			func(a, b float64) (float64, error) { return a - b, nil }),
		binaryTool("multiply", "Multiply two numbers together.",
			func(a, b float64) (float64, error) { return a * b, nil }),
		binaryTool("divide", "Divide the first number by the second.",
			func(a, b float64) (float64, error) {
				if b == 0 {
					return 0, fmt.Errorf("division by zero")
				}
				return a / b, nil
			}),
		&agent.FuncTool{
			ToolName: "estimate_hotel_cost",
			ToolDesc: "Estimate the total cost of a hotel stay.",
			ToolParams: objSchema(map[string]any{
				"price_per_night": numProp("Hotel price per night"),
				"total_days":      numProp("Number of nights"),
			}, "price_per_night", "total_days"),
			Fn: func(ctx context.Context, args map[string]any, creds agent.Credentials) (string, error) {
				var a hotelCostArgs
				if err := decodeArgs(args, &a); err != nil {
					return "", err
				}
				return formatNumber(a.PricePerNight * a.TotalDays), nil
			},
		},
		&agent.FuncTool{
			ToolName: "calculate_total_expense",
			ToolDesc: "Estimate the total cost of a trip from a per-day price.",
			ToolParams: objSchema(map[string]any{
				"price_per_day": numProp("Cost per day"),
				"total_days":    numProp("Number of days"),
			}, "price_per_day", "total_days"),
			Fn: func(ctx context.Context, args map[string]any, creds agent.Credentials) (string, error) {
				var a totalExpenseArgs
				if err := decodeArgs(args, &a); err != nil {
					return "", err
				}
				return formatNumber(a.PricePerDay * a.TotalDays), nil
			},
		},
		&agent.FuncTool{
			ToolName: "calculate_daily_budget",
			ToolDesc: "Calculate the daily budget for a trip.",
			ToolParams: objSchema(map[string]any{
				"total_cost": numProp("Total trip cost"),
				"days":       numProp("Number of days"),
			}, "total_cost", "days"),
			Fn: func(ctx context.Context, args map[string]any, creds agent.Credentials) (string, error) {
				var a dailyBudgetArgs
				if err := decodeArgs(args, &a); err != nil {
					return "", err
				}
				if a.Days <= 0 {
					return "0", nil
				}
				return formatNumber(a.TotalCost / float64(a.Days)), nil
			},
		},
	}
}

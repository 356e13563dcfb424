package agent

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// toolTimeout bounds a single tool invocation. A timeout is reported to
// the model like any other tool failure.
const toolTimeout = 30 * time.Second

// Dispatch executes the requested tool calls against the registry and
// returns one ToolResult per request, in request order. Calls run
// concurrently; failures of any kind (unknown tool name, executor error,
// timeout) are converted to error-describing result strings so the loop
// continues and the model can recover. Dispatch never returns an error.
func Dispatch(ctx context.Context, calls []ToolCall, reg *Registry, creds Credentials) []ToolResult {
	results := make([]ToolResult, len(calls))

	var wg sync.WaitGroup
	for i, tc := range calls {
		wg.Add(1)
		go func(idx int, tc ToolCall) {
			defer wg.Done()
			results[idx] = executeOne(ctx, tc, reg, creds)
		}(i, tc)
	}
	wg.Wait()

	return results
}

func executeOne(ctx context.Context, tc ToolCall, reg *Registry, creds Credentials) ToolResult {
	tool, ok := reg.Get(tc.Name)
	if !ok {
		return ToolResult{
			ToolCallID: tc.ID,
			Name:       tc.Name,
			Output:     fmt.Sprintf("Error: tool %q not found", tc.Name),
			Error:      fmt.Sprintf("unknown tool: %s", tc.Name),
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, toolTimeout)
	defer cancel()

	output, err := tool.Execute(callCtx, tc.Args, creds)
	if err != nil {
		return ToolResult{
			ToolCallID: tc.ID,
			Name:       tc.Name,
			Output:     "Error: " + err.Error(),
			Error:      err.Error(),
		}
	}
	return ToolResult{
		ToolCallID: tc.ID,
		Name:       tc.Name,
		Output:     output,
	}
}

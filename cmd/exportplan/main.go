// Command exportplan fetches a thread's last itinerary from a running
// tripagent server and renders it as a standalone HTML page.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Trip Plan</title>
<style>
body { font-family: Georgia, serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; color: #222; line-height: 1.6; }
h1, h2, h3 { color: #1a4d6e; }
table { border-collapse: collapse; width: 100%%; }
th, td { border: 1px solid #ccc; padding: 0.4rem 0.6rem; text-align: left; }
blockquote { border-left: 3px solid #1a4d6e; margin-left: 0; padding-left: 1rem; color: #555; }
footer { margin-top: 3rem; font-size: 0.8rem; color: #888; }
</style>
</head>
<body>
%s
<footer>Exported %s</footer>
</body>
</html>
`

type threadView struct {
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func main() {
	server := flag.String("server", "http://localhost:8000", "tripagent server base URL")
	threadID := flag.String("thread", "default", "thread id to export")
	out := flag.String("out", "trip_plan.html", "output HTML file")
	flag.Parse()

	plan, err := fetchPlan(*server, *threadID)
	if err != nil {
		fmt.Fprintln(os.Stderr, "exportplan:", err)
		os.Exit(1)
	}

	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	var body bytes.Buffer
	if err := md.Convert([]byte(plan), &body); err != nil {
		fmt.Fprintln(os.Stderr, "exportplan: render:", err)
		os.Exit(1)
	}

	page := fmt.Sprintf(pageTemplate, body.String(), time.Now().Format("2 Jan 2006 15:04"))
	if err := os.WriteFile(*out, []byte(page), 0o644); err != nil {
		fmt.Fprintln(os.Stderr, "exportplan:", err)
		os.Exit(1)
	}
	fmt.Println("wrote", *out)
}

// fetchPlan returns the last assistant message of the thread.
func fetchPlan(server, threadID string) (string, error) {
	resp, err := http.Get(server + "/threads/" + threadID)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("server returned %s for thread %q", resp.Status, threadID)
	}

	var view threadView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		return "", fmt.Errorf("decode thread: %w", err)
	}
	for i := len(view.Messages) - 1; i >= 0; i-- {
		if view.Messages[i].Role == "assistant" && view.Messages[i].Content != "" {
			return view.Messages[i].Content, nil
		}
	}
	return "", fmt.Errorf("thread %q has no assistant reply to export", threadID)
}

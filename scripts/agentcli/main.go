// Command agentcli is an interactive terminal client that drives the agent
// loop in-process against the configured providers, without the HTTP layer.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"

	"jobhunter/internal/agents"
	"jobhunter/internal/capabilities"
	"jobhunter/internal/config"
	"jobhunter/internal/domain/models/agent"
	svc "jobhunter/internal/domain/services/agent"
	"jobhunter/internal/repository/memory"
	"jobhunter/internal/service/agent/chat"
	"jobhunter/internal/service/agent/orchestrator"
	"jobhunter/internal/service/agent/providers"
	"jobhunter/internal/service/agent/tools"
	"jobhunter/internal/service/agent/tools/external"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorBlue   = "\033[34m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

type CLI struct {
	chat      svc.ChatService
	scanner   *bufio.Scanner
	out       io.Writer
	agentID   string
	sessionID string
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	// Console stays readable: only warnings from the service layer.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	chatSvc, err := setup(cfg, logger)
	if err != nil {
		fmt.Printf("%s❌ %v%s\n", colorRed, err, colorReset)
		os.Exit(1)
	}

	cli := &CLI{
		chat:    chatSvc,
		scanner: bufio.NewScanner(os.Stdin),
		out:     os.Stdout,
	}
	for _, a := range chatSvc.Agents() {
		if a.Available {
			cli.agentID = a.ID
			break
		}
	}
	cli.run()
}

func setup(cfg *config.Config, logger *slog.Logger) (*chat.Service, error) {
	caps, err := capabilities.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("load capabilities: %w", err)
	}
	catalog, err := agents.LoadDefault(agents.Defaults{Provider: cfg.DefaultProvider, Model: cfg.DefaultModel})
	if err != nil {
		return nil, err
	}
	var names []string
	for _, p := range catalog.List() {
		names = append(names, p.Provider)
	}
	registry, err := tools.NewRegistryBuilder().
		WithJobSearch(external.NewTavilyClient(cfg.TavilyAPIKey)).
		Build()
	if err != nil {
		return nil, err
	}
	return chat.NewService(chat.Deps{
		Agents:       catalog,
		Providers:    providers.NewFactory(cfg, logger).BuildAll(names),
		Tools:        registry,
		Capabilities: caps,
		History:      memory.NewHistoryStore(),
		Orchestrator: orchestrator.New(cfg.BudgetThreshold, logger),
		Config: chat.Config{
			DefaultContextWindow: cfg.DefaultContextWindow,
			MaxOutputTokens:      cfg.MaxOutputTokens,
		},
		Logger: logger,
	})
}

func (cli *CLI) run() {
	fmt.Fprintf(cli.out, "\n%sJob Hunter agent CLI%s\n", colorCyan, colorReset)
	fmt.Fprintf(cli.out, "Commands: /agents, /agent <id>, /new, /history, /quit\n")
	cli.printPrompt()

	for cli.scanner.Scan() {
		line := strings.TrimSpace(cli.scanner.Text())
		switch {
		case line == "":
		case line == "/quit" || line == "/exit":
			return
		case line == "/agents":
			cli.listAgents()
		case strings.HasPrefix(line, "/agent "):
			cli.agentID = strings.TrimSpace(strings.TrimPrefix(line, "/agent "))
			cli.sessionID = ""
			fmt.Fprintf(cli.out, "%sSwitched to %s (new session)%s\n", colorBlue, cli.agentID, colorReset)
		case line == "/new":
			cli.sessionID = ""
			fmt.Fprintf(cli.out, "%sNew session%s\n", colorBlue, colorReset)
		case line == "/history":
			cli.showHistory()
		default:
			cli.send(line)
		}
		cli.printPrompt()
	}
}

func (cli *CLI) printPrompt() {
	fmt.Fprintf(cli.out, "\n%s[%s]%s > ", colorGreen, cli.agentID, colorReset)
}

func (cli *CLI) listAgents() {
	for _, a := range cli.chat.Agents() {
		status := colorGreen + "available" + colorReset
		if !a.Available {
			status = colorRed + "unavailable" + colorReset
		}
		fmt.Fprintf(cli.out, "  %-14s %s/%s tools=%v %s\n", a.ID, a.Provider, a.Model, a.Tools, status)
	}
}

func (cli *CLI) showHistory() {
	if cli.sessionID == "" {
		fmt.Fprintln(cli.out, "No session yet.")
		return
	}
	turns, err := cli.chat.History(context.Background(), "", cli.sessionID)
	if err != nil {
		fmt.Fprintf(cli.out, "%s❌ %v%s\n", colorRed, err, colorReset)
		return
	}
	for i, t := range turns {
		fmt.Fprintf(cli.out, "%3d %-11s %s\n", i+1, t.Role, summarize(t))
	}
}

func (cli *CLI) send(message string) {
	// Ctrl-C cancels the running request, not the CLI.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	req := &svc.ChatRequest{Message: message, SessionID: cli.sessionID, AgentID: cli.agentID}
	result, err := cli.chat.Chat(ctx, req, svc.EventSinkFunc(func(ctx context.Context, ev agent.StreamEvent) error {
		renderEvent(cli.out, ev)
		return nil
	}))
	if err != nil {
		fmt.Fprintf(cli.out, "%s❌ %v%s\n", colorRed, err, colorReset)
		return
	}
	cli.sessionID = result.SessionID
}

// renderEvent prints one stream event for a human reader.
func renderEvent(w io.Writer, ev agent.StreamEvent) {
	switch p := ev.Payload.(type) {
	case *agent.TextDeltaEvent:
		fmt.Fprint(w, p.Content)
	case *agent.ToolStartEvent:
		fmt.Fprintf(w, "\n%s🔧 %s %s%s\n", colorYellow, p.Tool, string(p.Input), colorReset)
	case *agent.ToolTransitionEvent:
		fmt.Fprintf(w, "%s   %s → %s%s\n", colorYellow, p.FromTool, p.ToTool, colorReset)
	case *agent.ToolResultEvent:
		if p.Success {
			fmt.Fprintf(w, "%s   ✓ %s%s\n", colorYellow, p.Tool, colorReset)
		} else {
			fmt.Fprintf(w, "%s   ✗ %s: %s%s\n", colorRed, p.Tool, p.Error, colorReset)
		}
	case *agent.BudgetUpdateEvent:
		fmt.Fprintf(w, "%s   [%d tokens, %.1f%% of context]%s\n", colorBlue, p.TotalTokens, p.ContextPercentage, colorReset)
	case *agent.CompletionEvent:
		fmt.Fprintf(w, "\n%s(%s, session %s)%s\n", colorCyan, p.StopReason, p.SessionID, colorReset)
	case *agent.ErrorEvent:
		fmt.Fprintf(w, "\n%s❌ %s%s\n", colorRed, p.Error, colorReset)
	}
}

func summarize(t agent.Turn) string {
	text := t.Content
	if len(t.ToolCalls) > 0 {
		names := make([]string, len(t.ToolCalls))
		for i, c := range t.ToolCalls {
			names[i] = c.Name
		}
		text = strings.TrimSpace(text + " [calls " + strings.Join(names, ", ") + "]")
	}
	if len(text) > 100 {
		text = text[:100] + "..."
	}
	return text
}

// Command execution for CLI commands.
//
// Information Hiding:
// - Engine composition (provider, cache, limiter, executor) hidden
// - Session persistence wiring hidden
// - Output formatting hidden

package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/meridianlabs/meridian/agent"
	"github.com/meridianlabs/meridian/config"
	"github.com/meridianlabs/meridian/gateway"
	"github.com/meridianlabs/meridian/llm"
	"github.com/meridianlabs/meridian/model"
	"github.com/meridianlabs/meridian/orchestration"
	"github.com/meridianlabs/meridian/storage"
)

const (
	appReferer = "https://github.com/meridianlabs/meridian"
	appTitle   = "Meridian"
)

// Options holds CLI execution options.
type Options struct {
	Provider  string
	SessionID string
	DBPath    string
	Verbose   bool
}

// Context holds the business context flags for a chat session.
type Context struct {
	BusinessUnit   string
	LineOfBusiness string
	RecordCount    int
	Series         []float64
}

// Chat starts an interactive analysis session.
func Chat(ctx context.Context, cliCtx Context, opts Options) error {
	settings, err := config.New(opts.Provider)
	if err != nil {
		return err
	}

	provider, err := createProvider(settings)
	if err != nil {
		return err
	}

	cache := gateway.NewCache(settings.Engine.CacheMaxEntries, settings.Engine.CacheTTL)
	limiter := gateway.NewLimiter(settings.Engine.RateWindow, settings.Engine.RateMaxRequests)
	executor := gateway.NewExecutor(provider, cache, limiter, gateway.Options{
		InterRequestDelay: settings.Engine.InterRequestDelay,
		RequestTimeout:    settings.Engine.RequestTimeout,
	})
	defer executor.Close()

	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	engine := orchestration.NewEngine(executor, orchestration.Config{
		CallerID:        sessionID,
		MaxHistoryTurns: settings.Engine.MaxHistoryTurns,
		MaxTokens:       int(settings.LLM.MaxTokens),
	})

	store, reports, cleanup, err := createStorage(opts.DBPath)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	history, err := store.Load(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load session history: %w", err)
	}

	fmt.Printf("Meridian analysis session %s (provider: %s, model: %s)\n", sessionID, provider.Name(), settings.LLM.Model)
	if cliCtx.LineOfBusiness != "" {
		fmt.Printf("Context: %s / %s, %d records\n", cliCtx.BusinessUnit, cliCtx.LineOfBusiness, cliCtx.RecordCount)
	}
	fmt.Println("Type a question, or 'exit' to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}
		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			continue
		}
		if message == "exit" || message == "quit" {
			break
		}

		sc := model.SessionContext{
			BusinessUnit:   cliCtx.BusinessUnit,
			LineOfBusiness: cliCtx.LineOfBusiness,
			HasData:        cliCtx.RecordCount > 0,
			RecordCount:    cliCtx.RecordCount,
			Series:         cliCtx.Series,
			RecentTurns:    history,
		}

		result, err := runWorkflow(ctx, engine, message, sc, opts.Verbose)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}

		history = append(history,
			model.ChatMessage{Role: model.RoleUser, Content: message},
			model.ChatMessage{Role: model.RoleAssistant, Content: result.Text},
		)
		if err := store.Save(ctx, sessionID, history); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to save session: %v\n", err)
		}
		if reports != nil {
			if err := reports.SaveReport(ctx, sessionID, *result); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save report: %v\n", err)
			}
		}
	}

	return scanner.Err()
}

// runWorkflow submits one message and renders the event stream.
func runWorkflow(ctx context.Context, engine *orchestration.Engine, message string, sc model.SessionContext, verbose bool) (*model.AggregatedResult, error) {
	events, err := engine.Submit(ctx, message, sc)
	if err != nil {
		return nil, err
	}

	var result *model.AggregatedResult
	for ev := range events {
		switch ev.Type {
		case orchestration.EventStepCreated:
			fmt.Printf("  [ ] %s\n", ev.Step.Name)
		case orchestration.EventStepStatus:
			fmt.Printf("  %s %s\n", statusIcon(ev.Step.Status), ev.Step.Name)
		case orchestration.EventNote:
			if verbose {
				fmt.Printf("      %s\n", ev.Note)
			}
		case orchestration.EventFinal:
			result = ev.Result
		}
	}
	if result == nil {
		return nil, fmt.Errorf("workflow was superseded before finishing")
	}

	fmt.Printf("\n%s\n", result.Text)
	if len(result.Suggestions) > 0 {
		fmt.Println("\nYou could ask next:")
		for _, s := range result.Suggestions {
			fmt.Printf("  - %s\n", s)
		}
	}
	return result, nil
}

func statusIcon(status model.StepStatus) string {
	switch status {
	case model.StepActive:
		return "[→]"
	case model.StepCompleted:
		return "[✓]"
	case model.StepError:
		return "[✗]"
	default:
		return "[ ]"
	}
}

// createProvider builds the provider named in the settings.
func createProvider(settings config.Settings) (llm.Provider, error) {
	providerType, err := llm.ParseProviderType(settings.LLM.Provider)
	if err != nil {
		return nil, err
	}
	apiKey, err := config.APIKeyFor(settings.LLM.Provider)
	if err != nil {
		return nil, err
	}
	return llm.NewProviderBuilder(providerType).
		Model(settings.LLM.Model).
		MaxTokens(settings.LLM.MaxTokens).
		Attribution(appReferer, appTitle).
		APIKey(apiKey)
}

// createStorage picks SQLite when a path is given, memory otherwise.
func createStorage(dbPath string) (storage.ConversationStorage, storage.ReportStorage, func(), error) {
	if dbPath == "" {
		return storage.NewInMemoryStorage(), nil, nil, nil
	}
	sqlite, err := storage.OpenSqlite(dbPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return sqlite, sqlite, func() { sqlite.Close() }, nil
}

// ListAgents prints the agent profile table.
func ListAgents() {
	fmt.Println("Available agents:")
	for _, p := range agent.All() {
		fmt.Printf("\n  %s (%s)\n", p.Name, p.ID)
		fmt.Printf("    capabilities: %s\n", strings.Join(p.Capabilities, ", "))
		if len(p.Keywords) > 0 {
			fmt.Printf("    triggers on: %s\n", strings.Join(p.Keywords, ", "))
		}
	}
}

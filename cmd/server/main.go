// Command server runs the concierge HTTP service: a keyword router in
// front of tool-using handlers, plus document upload and QA endpoints.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/concierge-labs/concierge/pkg/agent"
	"github.com/concierge-labs/concierge/pkg/config"
	"github.com/concierge-labs/concierge/pkg/docstore"
	"github.com/concierge-labs/concierge/pkg/embed"
	"github.com/concierge-labs/concierge/pkg/googleauth"
	"github.com/concierge-labs/concierge/pkg/logging"
	"github.com/concierge-labs/concierge/pkg/models"
	"github.com/concierge-labs/concierge/pkg/rag"
	"github.com/concierge-labs/concierge/pkg/router"
	"github.com/concierge-labs/concierge/pkg/server"
	"github.com/concierge-labs/concierge/pkg/toolbox"
	"github.com/concierge-labs/concierge/pkg/tooling"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := logging.Init(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	model, err := models.NewProvider(ctx, cfg.LLM.Provider, cfg.LLM.Model)
	if err != nil {
		return err
	}
	embedder, err := embed.NewProvider(ctx, cfg.Embedder.Provider, cfg.Embedder.Model)
	if err != nil {
		return err
	}
	store, err := docstore.Open(ctx, docstore.Options{
		Backend:       cfg.Docstore.Backend,
		PostgresURL:   cfg.Docstore.DSN,
		MongoURI:      cfg.Docstore.DSN,
		MongoDatabase: cfg.Docstore.Database,
	})
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	pipeline := rag.NewPipeline(store, embedder, model, logger)
	registry, err := buildRegistry(cfg, model, pipeline)
	if err != nil {
		return err
	}

	handlers, err := buildHandlers(cfg, registry, model, logger)
	if err != nil {
		return err
	}
	rt := router.New(router.DefaultRules(), router.HandlerFallback, handlers, logger)

	srv := server.New(server.Options{
		Router:         rt,
		Pipeline:       pipeline,
		Registry:       registry,
		UploadDir:      cfg.Server.UploadDir,
		MediaDir:       cfg.Server.MediaDir,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", cfg.Server.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

func buildRegistry(cfg *config.Config, model models.Model, pipeline *rag.Pipeline) (*tooling.Registry, error) {
	openaiClient := openai.NewClient(os.Getenv("OPENAI_API_KEY"))
	creds := googleauth.NewFileProvider(cfg.Google.CredentialsFile, cfg.Google.TokenFile)
	cal := &toolbox.Calendar{
		Creds:      creds,
		CalendarID: cfg.Google.CalendarID,
		TimeZone:   cfg.Google.TimeZone,
	}
	mailer := &toolbox.Mailer{Creds: creds}

	return tooling.NewRegistry(
		toolbox.NewWebSearch(),
		toolbox.NewWikipediaSearch(),
		toolbox.NewSummarize(model),
		&toolbox.CSVAnalyzer{Dir: cfg.Server.UploadDir, Model: model},
		&toolbox.Transcriber{Client: openaiClient, Dir: cfg.Server.UploadDir},
		&toolbox.Speaker{Client: openaiClient, MediaDir: cfg.Server.MediaDir},
		cal.NewCreateEvent(),
		cal.NewListUpcomingEvents(),
		mailer.NewSendEmail(),
		mailer.NewSendEmailWrapper(),
		toolbox.NewDocumentQA(pipeline),
	)
}

func buildHandlers(cfg *config.Config, registry *tooling.Registry, model models.Model, logger *slog.Logger) ([]*agent.Handler, error) {
	reasoner := agent.NewPromptReasoner(model)
	configs := []agent.Config{
		{
			ID:           router.HandlerSpreadsheet,
			Instructions: "You analyze spreadsheets. Use analyze_csv with \"<filename>||<question>\" to answer questions about uploaded CSV files.",
			Tools:        []string{"analyze_csv", "summarize_text"},
		},
		{
			ID:           router.HandlerVoice,
			Instructions: "You handle audio requests. Transcribe uploaded audio with transcribe_audio, summarize when asked, and synthesize replies with text_to_speech.",
			Tools:        []string{"transcribe_audio", "summarize_text", "text_to_speech"},
		},
		{
			ID:           router.HandlerCalendar,
			Instructions: "You manage the user's calendar. Create events with create_event and list what is coming up with list_upcoming_events.",
			Tools:        []string{"create_event", "list_upcoming_events"},
		},
		{
			ID:           router.HandlerFallback,
			Instructions: "You are a general assistant. Use the available tools when they help; otherwise answer directly.",
			Tools: []string{
				"web_search", "wikipedia_search", "summarize_text", "analyze_csv",
				"transcribe_audio", "text_to_speech", "create_event",
				"list_upcoming_events", "send_email", "send_email_wrapper",
				"answer_from_documents",
			},
		},
	}

	handlers := make([]*agent.Handler, 0, len(configs))
	for _, hc := range configs {
		hc.MaxSteps = cfg.Agent.MaxSteps
		hc.StepTimeout = cfg.Agent.StepTimeout
		h, err := agent.New(hc, registry, reasoner, logger)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, h)
	}
	return handlers, nil
}

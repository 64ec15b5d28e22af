package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"nutrisense"
	"nutrisense/dataset"
	"nutrisense/llm"
	"nutrisense/nutritionist"
	"nutrisense/present"
	"nutrisense/slack"
	"nutrisense/tools"
	"nutrisense/tools/storage"
	"nutrisense/viz"
	"nutrisense/workflow"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	provider  string
	modelID   string
	withOtel  bool
	dumpState bool
	useSlack  bool
)

var rootCmd = &cobra.Command{
	Use:   "nutrisense [question]",
	Short: "Answer a nutrition question with recipes, diet plans or nutrient facts",
	Long: `Runs a single nutrition request through the workflow:
safety check, intent analysis, content generation and a nutrition chart.

Output goes to stdout unless --slack is set and SLACK_WEBHOOK_URL is configured.`,
	Args: cobra.MinimumNArgs(1),
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVarP(&provider, "provider", "p", "", "model provider (gemini, bedrock, ollama, mock); overrides MODEL_PROVIDER")
	rootCmd.Flags().StringVarP(&modelID, "model", "m", "", "model id; overrides MODEL_ID")
	rootCmd.Flags().BoolVar(&withOtel, "otel", false, "export traces and metrics over OTLP")
	rootCmd.Flags().BoolVar(&dumpState, "dump", false, "dump the final workflow state")
	rootCmd.Flags().BoolVar(&useSlack, "slack", false, "post the answer to Slack")
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("failed to load .env: %v", err)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var mc nutrisense.ModelConfig
	if err := envdecode.Decode(&mc); err != nil {
		log.Fatalf("failed to process model config: %v", err)
	}
	if provider != "" {
		mc.Provider = provider
	}
	if modelID != "" {
		mc.ModelID = modelID
	}

	var ac nutrisense.AgentConfig
	if err := envdecode.Decode(&ac); err != nil {
		log.Fatalf("failed to process agent config: %v", err)
	}

	var opts []workflow.Option
	if withOtel {
		tp, mp, shutdown, err := nutrisense.InitOtel(ctx)
		if err != nil {
			slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
			return err
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				slog.Error("SHUTDOWN: Failed to shutdown OpenTelemetry", "error", err)
			}
		}()

		tracer := tp.Tracer(nutrisense.TracerNameWorkflow)
		var span trace.Span
		ctx, span = tracer.Start(ctx, "nutrisense.request",
			trace.WithAttributes(
				attribute.String("model.provider", mc.Provider),
				attribute.String("model.id", mc.ModelID),
			),
		)
		defer span.End()
		defer func() {
			if ctx.Err() != nil {
				span.SetStatus(codes.Error, ctx.Err().Error())
			}
		}()

		opts = append(opts, workflow.WithTracer(tracer), workflow.WithMeter(mp.Meter(nutrisense.TracerNameWorkflow)))
	}

	ds, err := dataset.Load(ctx, storage.NewFileDatasetState(ac.DatasetPath))
	if err != nil {
		slog.Error("SETUP: Failed to load dataset", "path", ac.DatasetPath, "error", err)
		return err
	}

	var search tools.Tool
	if ac.SearchEnabled {
		search = tools.NewWebSearch(ac.SearchEndpoint, http.DefaultClient)
	}
	registry, err := tools.NewRegistry(tools.NewFoodLookup(ds), search)
	if err != nil {
		slog.Error("SETUP: Failed to create tool registry", "error", err)
		return err
	}

	model, err := llm.New(ctx, mc, ac)
	if err != nil {
		slog.Error("SETUP: Failed to create model client", "error", err)
		return err
	}

	runLog, cleanup, err := newRunLogger(mc.Provider + "." + mc.ModelID)
	if err != nil {
		slog.Error("SETUP: Failed to create run logger", "error", err)
		return err
	}
	defer func() {
		if err := cleanup(); err != nil {
			slog.Error("SHUTDOWN: Failed to write run log", "error", err)
		}
	}()

	checkpoints := workflow.NewMemoryCheckpointer()
	opts = append(opts, workflow.WithRunLogger(runLog), workflow.WithCheckpointer(checkpoints))

	graph, err := nutritionist.NewWorkflow(nutritionist.Deps{
		Model:    model,
		Dataset:  ds,
		Tools:    registry,
		Renderer: viz.NewRenderer(ac.ChartPath),
	}, opts...)
	if err != nil {
		slog.Error("SETUP: Failed to build workflow", "error", err)
		return err
	}

	var poster nutrisense.ChatPoster = present.NewWriterPoster(cmd.OutOrStdout())
	if useSlack {
		if ac.SlackWebhookURL == "" {
			return errors.New("--slack requires SLACK_WEBHOOK_URL")
		}
		poster = slack.NewClient(ac.SlackWebhookURL, http.DefaultClient)
	}

	adapter := present.NewAdapter(graph, poster, ac.SlackChannel, present.WithCheckpoints(checkpoints))
	transcript, err := adapter.Handle(ctx, strings.Join(args, " "))
	if err != nil {
		slog.Error("Request failed", "error", err)
		return err
	}

	slog.Info("Request complete", "session_id", transcript.SessionID, "steps", strings.Join(transcript.Steps, ","))
	if dumpState {
		nutrisense.Fdump(cmd.ErrOrStderr(), transcript.Final)
	}
	return nil
}

func newRunLogger(model string) (*nutrisense.FileRunLogger, func() error, error) {
	path := nutrisense.NewRunLogFilePath(model)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create log file: %w", err)
	}
	l := nutrisense.NewFileRunLogger(f)
	return l, func() error {
		return errors.Join(l.Flush(), f.Close())
	}, nil
}

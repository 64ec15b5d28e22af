package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

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

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joeshaw/envdecode"
)

type Params struct {
	Query string `json:"query"`
}

type Results struct {
	Transcript *present.Transcript `json:"transcript"`
	ChartURI   string              `json:"chart_uri,omitempty"`
}

func main() {
	fn := func(ctx context.Context, params Params) (Results, error) {
		var modelConfig nutrisense.ModelConfig
		if err := envdecode.Decode(&modelConfig); err != nil {
			log.Fatalf("Failed to decode: %s", err)
		}

		var agentConfig nutrisense.AgentConfig
		if err := envdecode.Decode(&agentConfig); err != nil {
			log.Fatalf("Failed to decode: %s", err)
		}

		if agentConfig.ArtifactsS3Bucket == "" {
			return Results{}, fmt.Errorf("missing S3 config: ARTIFACTS_S3_BUCKET must be set")
		}

		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return Results{}, fmt.Errorf("failed to load AWS config: %w", err)
		}

		s3Client := s3.NewFromConfig(awsCfg)
		ds, err := dataset.Load(ctx, storage.NewS3DatasetState(s3Client, agentConfig.ArtifactsS3Bucket, agentConfig.DatasetS3Key))
		if err != nil {
			slog.Error("SETUP: Failed to load dataset from S3", "error", err)
			return Results{}, err
		}
		slog.Info("SETUP: Dataset loaded from S3", "foods", ds.Len())

		var search tools.Tool
		if agentConfig.SearchEnabled {
			search = tools.NewWebSearch(agentConfig.SearchEndpoint, http.DefaultClient)
		}
		registry, err := tools.NewRegistry(tools.NewFoodLookup(ds), search)
		if err != nil {
			slog.Error("SETUP: Failed to create tool registry", "error", err)
			return Results{}, err
		}

		model, err := llm.New(ctx, modelConfig, agentConfig)
		if err != nil {
			slog.Error("SETUP: Failed to create model client", "error", err)
			return Results{}, err
		}

		tracerProvider, meterProvider, otelShutdown, err := nutrisense.InitOtel(ctx)
		if err != nil {
			slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
			return Results{}, err
		}
		defer func() {
			if err := otelShutdown(ctx); err != nil {
				slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
			}
		}()

		// Only /tmp is writable in the Lambda runtime.
		chartPath := filepath.Join(os.TempDir(), filepath.Base(agentConfig.ChartPath))

		checkpoints := workflow.NewMemoryCheckpointer()
		graph, err := nutritionist.NewWorkflow(nutritionist.Deps{
			Model:    model,
			Dataset:  ds,
			Tools:    registry,
			Renderer: viz.NewRenderer(chartPath),
		},
			workflow.WithRunLogger(nutrisense.NewStdoutRunLogger()),
			workflow.WithCheckpointer(checkpoints),
			workflow.WithTracer(tracerProvider.Tracer(nutrisense.TracerNameWorkflow)),
			workflow.WithMeter(meterProvider.Meter(nutrisense.TracerNameWorkflow)),
		)
		if err != nil {
			slog.Error("SETUP: Failed to build workflow", "error", err)
			return Results{}, err
		}

		var poster nutrisense.ChatPoster = present.NewWriterPoster(os.Stdout)
		if agentConfig.SlackWebhookURL != "" {
			poster = slack.NewClient(agentConfig.SlackWebhookURL, http.DefaultClient)
		}

		transcript, err := present.NewAdapter(graph, poster, agentConfig.SlackChannel, present.WithCheckpoints(checkpoints)).
			Handle(ctx, params.Query)
		if err != nil {
			slog.Error("RESULT: Error handling query", "error", err)
			return Results{}, err
		}

		results := Results{Transcript: transcript}
		if chart := transcript.Final.Visualization; chart != "" {
			charts := storage.NewS3ChartStore(s3Client, agentConfig.ArtifactsS3Bucket, agentConfig.ChartS3Prefix)
			uri, err := charts.PublishSession(ctx, transcript.SessionID, chart)
			if err != nil {
				// A failed upload does not fail the request.
				slog.Error("RESULT: Failed to publish chart", "error", err)
			} else {
				results.ChartURI = uri
				slog.Info("RESULT: Chart published", "uri", uri)
			}
		}

		return results, nil
	}

	lambda.Start(fn)
}

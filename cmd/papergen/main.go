package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pavelanni/papergen/internal/extract"
	"github.com/pavelanni/papergen/internal/handler"
	appI18n "github.com/pavelanni/papergen/internal/i18n"
	"github.com/pavelanni/papergen/internal/llm"
	"github.com/pavelanni/papergen/internal/llm/prompts"
	"github.com/pavelanni/papergen/internal/pipeline"
	"github.com/pavelanni/papergen/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "papergen",
		Short: "Generate exam question papers from course material with an LLM",
	}

	serve := serveCmd()
	root.AddCommand(serve, generateCmd(), importTemplatesCmd(), exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `papergen --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.StringSliceP("templates", "t", nil, "Template JSON files to import on start (repeatable)")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /papers-api)")
	f.Int64("max-upload-mb", 32, "Maximum size of a multipart upload in MiB")
	f.Bool("skip-llm-check", false, "Start without checking the LLM endpoint")
	addCommonFlags(f)
	addLLMFlags(f)
	return cmd
}

// addCommonFlags registers the flags every command shares.
func addCommonFlags(f *pflag.FlagSet) {
	f.String("db", "papergen.db", "SQLite database path")
	f.StringP("lang", "l", "en", "Message language (en, ru)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

// addLLMFlags registers the flags of commands that run the generation pipeline.
func addLLMFlags(f *pflag.FlagSet) {
	defaults := llm.DefaultOptions()
	promptDefaults := prompts.DefaultOptions()
	f.String("llm-url", "http://localhost:11434/v1", "OpenAI-compatible API base URL")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "mistral", "LLM model name")
	f.Int("llm-max-tokens", defaults.MaxTokens, "Maximum tokens in a generated reply")
	f.Float32("llm-temperature", defaults.Temperature, "Sampling temperature")
	f.Duration("llm-timeout", 5*time.Minute, "Time limit for one generation (0 = none)")
	f.Int("max-source-chars", promptDefaults.MaxSourceChars, "Characters of source text sent to the model")
	f.Int("max-past-questions", promptDefaults.MaxPastQuestions, "Past questions listed as ones to avoid")
	f.Bool("pdftotext", true, "Fall back to the pdftotext binary for PDFs without a readable text layer")
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("PAPERGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("papergen")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/papergen")
	v.AddConfigPath("/etc/papergen")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// newLLMClient builds the generation client from the LLM flags.
func newLLMClient(v *viper.Viper) *llm.Client {
	return llm.New(
		v.GetString("llm-url"),
		v.GetString("llm-key"),
		v.GetString("llm-model"),
		llm.Options{
			MaxTokens:   v.GetInt("llm-max-tokens"),
			Temperature: float32(v.GetFloat64("llm-temperature")),
		},
	)
}

// newPipeline wires the extractor, the generation client and prompt limits.
func newPipeline(v *viper.Viper, gen pipeline.Generator) *pipeline.Pipeline {
	ex := extract.New()
	ex.PDFToText = v.GetBool("pdftotext")
	return pipeline.New(ex, gen, prompts.Options{
		MaxSourceChars:   v.GetInt("max-source-chars"),
		MaxPastQuestions: v.GetInt("max-past-questions"),
	})
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := importTemplateFiles(db, v.GetStringSlice("templates")); err != nil {
		return fmt.Errorf("import templates: %w", err)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	llmClient := newLLMClient(v)
	if !v.GetBool("skip-llm-check") {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := llmClient.Ping(ctx)
		cancel()
		if err != nil {
			return fmt.Errorf("LLM health check: %w", err)
		}
		slog.Info("LLM endpoint OK", "url", v.GetString("llm-url"), "model", llmClient.Model())
	}

	h, err := handler.New(db, newPipeline(v, llmClient), handler.Config{
		MaxUploadBytes:  v.GetInt64("max-upload-mb") << 20,
		GenerateTimeout: v.GetDuration("llm-timeout"),
	})
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	// Normalize base path.
	basePath := strings.TrimRight(v.GetString("base-path"), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware())

	if basePath != "" {
		r.Route(basePath, h.Routes)
	} else {
		h.Routes(r)
	}

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"model", v.GetString("llm-model"),
		"llm_url", v.GetString("llm-url"),
		"lang", lang,
		"languages", appI18n.Languages(),
		"base_path", basePath,
	)
	return http.ListenAndServe(addr, r)
}

package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/a-h/policybrief/briefing"
	"github.com/a-h/policybrief/extract"
	briefingspost "github.com/a-h/policybrief/handlers/briefings/post"
	healthget "github.com/a-h/policybrief/handlers/health/get"
	"github.com/rs/cors"
	"github.com/urfave/negroni"
)

const serviceName = "policybrief"

type ServeCommand struct {
	LLMURL         string        `help:"The URL of the chat completions endpoint." env:"LLM_URL" default:"https://api.deepseek.com/v1/chat/completions"`
	LLMModel       string        `help:"The model to request briefings from." env:"LLM_MODEL" default:"deepseek-chat"`
	LLMAPIKey      string        `help:"The API key for the chat completions endpoint." env:"LLM_API_KEY" default:""`
	Temperature    float64       `help:"Sampling temperature, between 0 and 1." env:"LLM_TEMPERATURE" default:"0.7"`
	TopP           float64       `help:"Nucleus sampling, between 0 and 1. Not sent when 0." env:"LLM_TOP_P" default:"0"`
	MaxTokens      int           `help:"The maximum number of tokens in a briefing." env:"LLM_MAX_TOKENS" default:"1000"`
	Timeout        time.Duration `help:"How long to wait for the model." env:"LLM_TIMEOUT" default:"30s"`
	PromptTemplate string        `help:"A Go template file used as the prompt. The document is passed as {{ .document }}." env:"PROMPT_TEMPLATE" default:""`
	MaxChars       int           `help:"The number of characters of document text sent to the model." env:"MAX_CHARS" default:"15000"`
	MaxUploadBytes int64         `help:"The largest accepted upload, in bytes." env:"MAX_UPLOAD_BYTES" default:"10485760"`
	KeyPoints      int           `help:"The number of briefing lines returned as key points." env:"KEY_POINTS" default:"5"`
	ListenAddr     string        `help:"The address to listen on." env:"LISTEN_ADDR" default:"localhost:9020"`
	TLSCertFile    string        `help:"The TLS certificate file." env:"TLS_CERT_FILE" default:""`
	TLSKeyFile     string        `help:"The TLS key file." env:"TLS_KEY_FILE" default:""`
	LogLevel       string        `help:"The log level to use." env:"LOG_LEVEL" default:"info"`
}

func readFileOrDefault(filename, defaultContent string) (string, error) {
	if filename == "" {
		return defaultContent, nil
	}
	contents, err := os.ReadFile(filename)
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return string(contents), nil
}

func (c ServeCommand) briefingConfig() (config briefing.Config, err error) {
	promptTemplate, err := readFileOrDefault(c.PromptTemplate, briefing.DefaultPromptTemplate)
	if err != nil {
		return config, fmt.Errorf("failed to read prompt template: %w", err)
	}
	config = briefing.Config{
		URL:            c.LLMURL,
		APIKey:         c.LLMAPIKey,
		Model:          c.LLMModel,
		Temperature:    c.Temperature,
		TopP:           c.TopP,
		MaxTokens:      c.MaxTokens,
		Timeout:        c.Timeout,
		PromptTemplate: promptTemplate,
	}
	if err = config.Validate(); err != nil {
		return config, fmt.Errorf("invalid model configuration: %w", err)
	}
	return config, nil
}

func (c ServeCommand) handler(log *slog.Logger) (http.Handler, error) {
	config, err := c.briefingConfig()
	if err != nil {
		return nil, err
	}
	if config.APIKey == "" {
		log.Warn("no API key configured, briefing requests will fail until LLM_API_KEY is set")
	}
	generator, err := briefing.New(log, config, briefing.NewHTTPSender(config))
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}
	extractor := extract.New(log, extract.Config{
		MaxBytes: c.MaxUploadBytes,
		MaxChars: c.MaxChars,
	})

	mux := http.NewServeMux()

	bph := briefingspost.New(log, extractor, generator, c.KeyPoints)
	mux.Handle("POST /briefings", bph)
	mux.Handle("POST /api/analyze", bph.WithDetailErrors())
	mux.Handle("POST /upload", bph)

	mux.Handle("GET /health", healthget.New(serviceName))

	recovery := negroni.NewRecovery()
	recovery.Logger = slog.NewLogLogger(log.Handler(), slog.LevelError)
	recovery.PrintStack = false

	n := negroni.New()
	n.Use(recovery)
	n.Use(accessLog(log))
	n.Use(cors.AllowAll())
	n.UseHandler(mux)
	return n, nil
}

func accessLog(log *slog.Logger) negroni.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		start := time.Now()
		next(w, r)
		status := http.StatusOK
		if rw, ok := w.(negroni.ResponseWriter); ok {
			status = rw.Status()
		}
		log.Info("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.Duration("elapsed", time.Since(start)))
	}
}

func (c ServeCommand) Run(ctx context.Context) (err error) {
	log := getLogger(c.LogLevel)

	h, err := c.handler(log)
	if err != nil {
		return err
	}

	log.Info("Listening", slog.String("addr", c.ListenAddr), slog.String("model", c.LLMModel))
	s := &http.Server{
		Addr:              c.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		// Uploads are read in full before the model is called.
		ReadTimeout:  time.Minute,
		WriteTimeout: c.Timeout + time.Minute,
	}
	if c.TLSCertFile != "" && c.TLSKeyFile != "" {
		log.Info("Enabling TLS mode")
		var cert tls.Certificate
		cert, err = tls.LoadX509KeyPair(c.TLSCertFile, c.TLSKeyFile)
		if err != nil {
			return fmt.Errorf("failed to load cert: %w", err)
		}
		s.TLSConfig = &tls.Config{
			MinVersion:   tls.VersionTLS12,
			Certificates: []tls.Certificate{cert},
		}
		err = s.ListenAndServeTLS(c.TLSCertFile, c.TLSKeyFile)
	} else {
		err = s.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

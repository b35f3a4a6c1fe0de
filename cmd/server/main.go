package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	zerologlog "github.com/rs/zerolog/log"

	"spyfall/internal/ai/llm"
	"spyfall/internal/config"
	"spyfall/internal/game"
	"spyfall/internal/ws"
	staticserver "spyfall/static"
)

const version = "v1.0.0"

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
		portFlag    = flag.String("port", "", "Port to listen on (overrides PORT env var)")
	)
	flag.BoolVar(showHelp, "h", false, "Show help message (shorthand)")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Parse()

	if *showHelp {
		fmt.Printf(`Spyfall - social deduction against a table of AI players

Usage: %s [options]

Options:
  -h, --help      Show this help message
  -v, --version   Show version information
  --port PORT     Port to listen on (default: 8080 or PORT env var)

Environment Variables:
  PORT                   Port to listen on (default: 8080)
  DEFAULT_PROVIDER       openai | ollama | claude | gemini | groq | openai-compatible
  DEFAULT_MODEL          Model name (default: gpt-4-turbo-preview)
  OPENAI_API_KEY         OpenAI API key (required for the openai provider)
  ANTHROPIC_API_KEY      Anthropic API key (claude provider)
  GEMINI_API_KEY         Google API key (gemini provider)
  GROQ_API_KEY           Groq API key (groq provider)
  PROVIDER_BASE_URL      Base URL for openai-compatible endpoints
  OLLAMA_HOST            Ollama host URL (default: http://localhost:11434)
  TEMPERATURE            Sampling temperature (default: 0.8)
  SPY_COUNT              Spies per game (default: 2)
  ROUND_LIMIT            Rounds before the spies win by default (default: 3)
  ACTION_WINDOW_SECONDS  Action window length (default: 10)
  ROUND_MODE             "timed" (default) or "open" (unbounded rounds)
  EXPORT_ENABLED         Export finished games to file (default: true)
  EXPORT_FILE            Results file path (default: ./spyfall-results.txt)

Visit http://localhost:8080 after starting the server.
`, os.Args[0])
		return
	}

	if *showVersion {
		fmt.Printf("Spyfall %s\n", version)
		return
	}

	// .env is optional; real env vars win
	_ = godotenv.Load()

	port := *portFlag
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = "8080"
	}

	// zerolog setup (human-friendly console)
	zerolog.TimeFieldFormat = time.RFC3339
	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	zerologlog.Logger = zerologlog.Output(cw)

	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		zerologlog.Fatal().Err(err).Msg("configuration error")
	}

	provider, err := llm.New(context.Background(), llm.Options{
		Provider:    cfg.DefaultProvider,
		Model:       cfg.DefaultModel,
		APIKey:      cfg.APIKey(),
		BaseURL:     cfg.ProviderBaseURL,
		OllamaHost:  cfg.OllamaHost,
		Temperature: cfg.Temperature,
	})
	if err != nil {
		zerologlog.Fatal().Err(err).Msg("content provider init failed")
	}
	zerologlog.Info().Str("provider", cfg.DefaultProvider).Str("model", cfg.DefaultModel).Msg("content provider ready")

	// Gin setup with custom logger (skip /socket.io noise)
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/socket.io") {
			return
		}
		status := c.Writer.Status()
		dur := time.Since(start)
		zerologlog.Info().Str("path", path).Int("status", status).Dur("dur", dur).Msg("http")
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	manager := game.NewManager()
	sock := ws.New(manager, cfg)
	sock.SetProvider(provider)
	io := sock.Mount(r)
	defer io.Close()

	// Minimal REST surface next to the socket events
	r.GET("/api/session/active", func(c *gin.Context) {
		if code, sess := manager.Active(); sess != nil {
			c.JSON(http.StatusOK, gin.H{"sessionCode": code})
			return
		}
		c.Status(http.StatusNotFound)
	})
	r.GET("/api/session/:code/snapshot", func(c *gin.Context) {
		sess, err := manager.Get(c.Param("code"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "session_not_found"})
			return
		}
		c.JSON(http.StatusOK, sess.Snapshot())
	})
	r.GET("/api/locations", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"locations": game.LocationNames()})
	})

	// Serve frontend (if embedded build is present) for all other routes
	r.NoRoute(func(c *gin.Context) {
		staticserver.Handler().ServeHTTP(c.Writer, c.Request)
	})

	log.Printf("listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}

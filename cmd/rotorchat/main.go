package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alexschlessinger/rotorchat/internal/log"
	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:      "rotorchat",
		Usage:     "Helicopter maintenance assistant with reasoning-free streaming output",
		ArgsUsage: "[prompt]",
		Flags:     defineFlags(),
		Before:    setup,
		After:     teardown,
		Action:    runChat,
		Commands:  defineCommands(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	initColors()
	// JSON logs when output is piped
	log.InitLogger(log.Options{
		Debug: cmd.Bool("debug"),
		JSON:  !isTerminal(),
	})
	log.GetLogger().Debugw("command_started", "args", cmd.Args().Slice())
	return ctx, nil
}

func teardown(_ context.Context, _ *cli.Command) error {
	log.Sync()
	return nil
}

func defineFlags() []cli.Flag {
	return []cli.Flag{
		// Model configuration
		&cli.StringFlag{
			Name:    "model",
			Aliases: []string{"m"},
			Usage:   "Model to use (provider/model format)",
			Value:   defaultModel,
		},
		&cli.Float64Flag{
			Name:  "temp",
			Usage: "Temperature for sampling",
			Value: defaultTemp,
		},
		&cli.IntFlag{
			Name:  "maxtokens",
			Usage: "Maximum tokens to generate",
			Value: defaultMaxTokens,
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Request timeout",
			Value: defaultTimeout,
		},
		&cli.StringFlag{
			Name:  "reasoning",
			Usage: "Reasoning effort (off, low, medium, high)",
			Value: defaultReasoning,
		},

		// API configuration
		&cli.StringFlag{
			Name:  "baseurl",
			Usage: "Base URL for API (for OpenAI-compatible endpoints or Ollama)",
			Value: defaultBaseURL,
		},
		&cli.StringFlag{
			Name:    "config",
			Usage:   "Path to YAML config file (default ~/.rotorchat/config.yaml)",
			Sources: cli.EnvVars("ROTORCHAT_CONFIG"),
		},

		// Input configuration
		&cli.StringFlag{
			Name:    "prompt",
			Aliases: []string{"p"},
			Usage:   "Prompt (reads from arguments or stdin if not provided)",
		},
		&cli.StringFlag{
			Name:    "system",
			Aliases: []string{"s"},
			Usage:   "System prompt (defaults to the built-in maintenance prompt)",
		},

		// Session management
		&cli.StringFlag{
			Name:    "session",
			Aliases: []string{"c"},
			Usage:   "Session name for conversation continuity (uses ROTORCHAT_SESSION if not set)",
			Value:   defaultSession,
		},
		&cli.BoolFlag{
			Name:    "last",
			Aliases: []string{"L"},
			Usage:   "Use the last active session",
		},
		&cli.BoolFlag{
			Name:  "reset",
			Usage: "Clear the session history before sending, keeping its settings",
		},

		// Output configuration
		&cli.BoolFlag{
			Name:  "raw",
			Usage: "Do not strip <think> reasoning from the output",
		},
		&cli.BoolFlag{
			Name:    "debug",
			Aliases: []string{"d"},
			Usage:   "Enable debug logging",
		},
	}
}

func defineCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "filter",
			Usage: "Strip <think> reasoning from a stream of JSON parts on stdin",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "sse",
					Usage: "Write server-sent event frames instead of JSON lines",
				},
			},
			Action: runFilter,
		},
		{
			Name:   "suggest",
			Usage:  "Show suggested starter questions",
			Action: runSuggest,
		},
		{
			Name:  "sessions",
			Usage: "Manage stored sessions",
			Commands: []*cli.Command{
				{
					Name:   "list",
					Usage:  "List stored sessions",
					Action: runListSessions,
				},
				{
					Name:      "delete",
					Usage:     "Delete stored sessions",
					ArgsUsage: "<name>...",
					Action:    runDeleteSession,
				},
				{
					Name:   "expire",
					Usage:  "Remove idle sessions past their TTL",
					Action: runExpireSessions,
				},
			},
		},
	}
}

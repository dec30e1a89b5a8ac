// ABOUTME: Terminal chat client for the quantrelay market narrative relay.
// ABOUTME: Drives a conversation over SSE with regenerate, suggestions, and export.

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"github.com/quantrelay/quantrelay/internal/analysis"
	"github.com/quantrelay/quantrelay/internal/chat"
)

// getToken returns the bearer token from QUANTRELAY_TOKEN env var or
// ~/.config/quantrelay/token file
func getToken() string {
	// Check env var first
	if token := os.Getenv("QUANTRELAY_TOKEN"); token != "" {
		return token
	}

	// Try to read from token file
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	tokenPath := filepath.Join(configDir, "quantrelay", "token")
	data, err := os.ReadFile(tokenPath)
	if err != nil {
		return ""
	}

	return strings.TrimSpace(string(data))
}

func main() {
	// Parse command line flags
	server := flag.String("server", "http://localhost:8089", "Relay server URL")
	asset := flag.String("asset", "", "Asset symbol to discuss (e.g. BTC)")
	timeframeStr := flag.String("timeframe", "medium", "Analysis horizon: short, medium, long")
	suggestionsPath := flag.String("suggestions", "", "Path to a TOML suggestions file")
	flag.Parse()

	if *asset == "" {
		fmt.Fprintln(os.Stderr, "Error: -asset is required")
		flag.Usage()
		os.Exit(1)
	}

	timeframe, ok := analysis.ParseTimeframe(*timeframeStr)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: invalid timeframe %q (want short, medium, or long)\n", *timeframeStr)
		os.Exit(1)
	}

	suggestions := chat.DefaultSuggestions()
	if *suggestionsPath != "" {
		loaded, err := chat.LoadSuggestions(*suggestionsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: loading suggestions: %v\n", err)
			os.Exit(1)
		}
		suggestions = loaded
	}

	cyan := color.New(color.FgCyan)
	cyan.Printf("quantrelay-chat connected to %s\n", *server)
	fmt.Printf("Asset: %s  Timeframe: %s\n", *asset, timeframe)
	if getToken() != "" {
		fmt.Println("Auth: bearer token configured (QUANTRELAY_TOKEN)")
	} else {
		fmt.Println("Auth: none (set QUANTRELAY_TOKEN for authentication)")
	}
	fmt.Println("Type a question and press Enter. /help for commands. Ctrl+C to quit.")
	fmt.Println()

	// Setup context with signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := chat.NewClient(*server, getToken())

	// Keep log output off the interactive transcript.
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	conv := chat.NewConversation(client, *asset, timeframe, quiet)

	// Print deltas as they stream in
	green := color.New(color.FgGreen)
	conv.OnDelta(func(delta string) {
		green.Print(delta)
	})

	if err := run(ctx, conv, suggestions); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nGoodbye!")
}

func run(ctx context.Context, conv *chat.Conversation, suggestions []chat.Suggestion) error {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")

		// Read input with context awareness
		inputCh := make(chan string, 1)
		errCh := make(chan error, 1)

		go func() {
			if scanner.Scan() {
				inputCh <- scanner.Text()
			} else {
				if err := scanner.Err(); err != nil {
					errCh <- err
				} else {
					errCh <- io.EOF
				}
			}
		}()

		var input string
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		case input = <-inputCh:
		}

		trimmed := strings.TrimSpace(input)
		if trimmed == "" {
			continue
		}

		// Check for quit commands
		if trimmed == "/quit" || trimmed == "/exit" || trimmed == "/q" {
			return nil
		}

		if trimmed == "/help" {
			printHelp()
			fmt.Println()
			continue
		}

		if trimmed == "/regenerate" {
			if err := conv.Regenerate(ctx); err != nil {
				printOutcome(conv, err)
			} else {
				printOutcome(conv, nil)
			}
			fmt.Println()
			continue
		}

		if trimmed == "/suggest" || strings.HasPrefix(trimmed, "/suggest ") {
			handleSuggest(ctx, conv, suggestions, trimmed)
			fmt.Println()
			continue
		}

		if strings.HasPrefix(trimmed, "/export") {
			path := strings.TrimSpace(strings.TrimPrefix(trimmed, "/export"))
			if path == "" {
				path = "transcript.html"
			}
			if err := exportTranscript(conv, path); err != nil {
				fmt.Printf("[error] %v\n", err)
			} else {
				fmt.Printf("Transcript written to %s\n", path)
			}
			fmt.Println()
			continue
		}

		// Submit the raw input: leading and trailing whitespace is
		// preserved in the stored message.
		err := conv.Submit(ctx, input)
		printOutcome(conv, err)
		fmt.Println()
	}
}

// handleSuggest lists suggestions or submits the chosen one.
func handleSuggest(ctx context.Context, conv *chat.Conversation, suggestions []chat.Suggestion, input string) {
	arg := strings.TrimSpace(strings.TrimPrefix(input, "/suggest"))
	if arg == "" {
		for i, s := range suggestions {
			fmt.Printf("  %d. %s\n", i+1, s.Label)
		}
		fmt.Println("Use /suggest <number> to send one.")
		return
	}

	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(suggestions) {
		fmt.Printf("[error] invalid suggestion number %q\n", arg)
		return
	}

	prompt := suggestions[n-1].Prompt
	fmt.Printf("Sending: %s\n", prompt)
	err = conv.Suggest(ctx, prompt)
	printOutcome(conv, err)
}

// printOutcome reports how the last exchange ended. Streamed text has
// already been printed by the delta observer.
func printOutcome(conv *chat.Conversation, err error) {
	fmt.Println()
	if err == nil {
		return
	}

	red := color.New(color.FgRed)
	switch {
	case errors.Is(err, chat.ErrNothingToRegenerate):
		fmt.Println("Nothing to regenerate yet.")
	case errors.Is(err, chat.ErrStreamInterrupted):
		red.Println("[error] stream ended before completion")
	case errors.Is(err, context.Canceled):
		fmt.Println("(aborted)")
	default:
		red.Printf("[error] %v\n", err)
	}
}

func exportTranscript(conv *chat.Conversation, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating transcript file: %w", err)
	}

	if err := chat.WriteTranscriptHTML(f, conv.Messages()); err != nil {
		f.Close()
		return fmt.Errorf("writing transcript: %w", err)
	}
	return f.Close()
}

func printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  /suggest          List suggested questions")
	fmt.Println("  /suggest <n>      Send suggestion number n")
	fmt.Println("  /regenerate       Regenerate the last response")
	fmt.Println("  /export [path]    Write the transcript as HTML (default transcript.html)")
	fmt.Println("  /help             Show this help")
	fmt.Println("  /quit             Exit")
	fmt.Println()
	fmt.Println("Anything else is sent to the relay as a question.")
}

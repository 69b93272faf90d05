package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/0xcro3dile/ledgerchat-go/internal/bootstrap"
	"github.com/0xcro3dile/ledgerchat-go/internal/domain/entities"
	"github.com/0xcro3dile/ledgerchat-go/internal/infrastructure/config"
	apphttp "github.com/0xcro3dile/ledgerchat-go/internal/infrastructure/http"
	"github.com/0xcro3dile/ledgerchat-go/internal/infrastructure/logger"
)

// AppFactory builds the wired application (allows swapping in tests)
type AppFactory func(ctx context.Context, cfg *config.Config, log *logger.ZapLogger) (*bootstrap.App, error)

// DefaultAppFactory wires the real adapters.
func DefaultAppFactory(ctx context.Context, cfg *config.Config, log *logger.ZapLogger) (*bootstrap.App, error) {
	return bootstrap.New(ctx, cfg, log)
}

// Options for running commands with custom dependencies
type Options struct {
	AppFactory AppFactory
	Stdin      io.Reader
	Stdout     io.Writer
	Stderr     io.Writer
}

func (o Options) withDefaults() Options {
	if o.AppFactory == nil {
		o.AppFactory = DefaultAppFactory
	}
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	return o
}

var rootCmd = &cobra.Command{
	Use:   "ledgerchat",
	Short: "ledgerchat - ask questions about a company financial ledger",
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context(), Options{})
	},
}

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Answer a single question and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAsk(cmd.Context(), Options{})
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP chat server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), Options{})
	},
}

var companiesCmd = &cobra.Command{
	Use:   "companies",
	Short: "List companies in the ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCompanies(cmd.Context(), Options{})
	},
}

var messageFlag string

func init() {
	askCmd.Flags().StringVarP(&messageFlag, "message", "m", "", "Question to answer")
	askCmd.MarkFlagRequired("message")
	rootCmd.AddCommand(chatCmd, askCmd, serveCmd, companiesCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// openApp loads config and builds the app. Interactive commands log to the
// file only so the terminal stays readable.
func openApp(ctx context.Context, opts Options, console bool) (*bootstrap.App, *logger.ZapLogger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	var log *logger.ZapLogger
	if console {
		log = logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	} else {
		log = logger.NewFileLogger(cfg.App.LogFilePath)
	}

	app, err := opts.AppFactory(ctx, cfg, log)
	if err != nil {
		log.Sync()
		return nil, nil, err
	}
	return app, log, nil
}

func runAsk(ctx context.Context, opts Options) error {
	opts = opts.withDefaults()
	if strings.TrimSpace(messageFlag) == "" {
		return fmt.Errorf("message is required")
	}

	app, log, err := openApp(ctx, opts, false)
	if err != nil {
		return err
	}
	defer log.Sync()
	defer app.Close()

	resp, err := app.Chat.Chat(ctx, &entities.ChatRequest{Query: messageFlag})
	if err != nil {
		return fmt.Errorf("chat error: %w", err)
	}
	fmt.Fprintln(opts.Stdout, resp.Answer)
	return nil
}

func runChat(ctx context.Context, opts Options) error {
	opts = opts.withDefaults()

	app, log, err := openApp(ctx, opts, false)
	if err != nil {
		return err
	}
	defer log.Sync()
	defer app.Close()

	sessionID := uuid.NewString()

	fmt.Fprintln(opts.Stdout, "ledgerchat (type 'exit' to quit, '/reset' to forget context)")
	scanner := bufio.NewScanner(opts.Stdin)
	for {
		fmt.Fprint(opts.Stdout, "\n> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}
		if input == "/reset" {
			app.Chat.Reset(sessionID)
			fmt.Fprintln(opts.Stdout, "Context cleared.")
			continue
		}

		resp, err := app.Chat.Chat(ctx, &entities.ChatRequest{SessionID: sessionID, Query: input})
		if err != nil {
			fmt.Fprintf(opts.Stderr, "Error: %v\n", err)
			continue
		}
		fmt.Fprintln(opts.Stdout, resp.Answer)
	}
	return scanner.Err()
}

func runServe(ctx context.Context, opts Options) error {
	opts = opts.withDefaults()

	app, log, err := openApp(ctx, opts, true)
	if err != nil {
		return err
	}
	defer log.Sync()
	defer app.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if app.Config.Ledger.Watch {
		go func() {
			if err := app.Watch(ctx); err != nil {
				log.Error("watcher", "watch stopped", map[string]interface{}{"error": err.Error()})
			}
		}()
	}

	srv, err := apphttp.NewServer(app.Chat, app.Ledger, log, app.Config.App.Addr)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	return srv.Start(ctx)
}

func runCompanies(ctx context.Context, opts Options) error {
	opts = opts.withDefaults()

	app, log, err := openApp(ctx, opts, false)
	if err != nil {
		return err
	}
	defer log.Sync()
	defer app.Close()

	companies, err := app.Ledger.DistinctCompanies(ctx)
	if err != nil {
		return err
	}
	for _, c := range companies {
		years, err := app.Ledger.YearsFor(ctx, c)
		if err != nil {
			return err
		}
		fmt.Fprintf(opts.Stdout, "%s\t%s\n", c, joinYears(years))
	}
	return nil
}

func joinYears(years []int) string {
	parts := make([]string, len(years))
	for i, y := range years {
		parts[i] = fmt.Sprint(y)
	}
	return strings.Join(parts, ", ")
}

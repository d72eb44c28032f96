package main

import (
	"QuizBot/catalog"
	"QuizBot/config"
	"QuizBot/handler"
	"QuizBot/metrics"
	"QuizBot/repo"
	"QuizBot/server"
	"QuizBot/wizard"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := config.FromEnv()

	cmd := &cobra.Command{
		Use:   "quizbot",
		Short: "Telegram questionnaire bot",
		Long: `QuizBot walks Telegram users through questionnaires step by step
and hands the collected answers to a storage backend.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfg.CatalogPath, "catalog", cfg.CatalogPath, "YAML questionnaire catalog (built-in demo set when empty)")
	flags.StringVar(&cfg.Sink, "sink", cfg.Sink, "answer sink: log, firebase, redis, mongo or sqlite")
	flags.StringVar(&cfg.SQLitePath, "sqlite-path", cfg.SQLitePath, "database file for the sqlite sink")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	cmd.Flags().StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "listen address for the webhook, metrics and health endpoints")

	cmd.AddCommand(newAnswersCommand(&cfg))
	cmd.AddCommand(newCatalogCommand(&cfg))
	return cmd
}

func newAnswersCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "answers <user-id>",
		Short: "Print the answers stored for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user id %q: %w", args[0], err)
			}
			if err := cfg.ValidateSink(); err != nil {
				return err
			}
			logger := newLogger(cfg.LogLevel)
			sink, err := openSink(cmd.Context(), *cfg, logger)
			if err != nil {
				return err
			}
			defer sink.Close()

			lister, ok := sink.(repo.Lister)
			if !ok {
				return fmt.Errorf("sink %q cannot list answers", cfg.Sink)
			}
			records, err := lister.ListByUser(cmd.Context(), userID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, rec := range records {
				fmt.Fprintf(out, "%s %s completed=%t\n", rec.FinishedAt.Format(time.RFC3339), rec.Questionnaire, rec.Completed)
				for _, a := range rec.Answers {
					value := "-"
					if a.Value != nil {
						value = *a.Value
					}
					fmt.Fprintf(out, "  %s: %s\n", a.VarName, value)
				}
			}
			return nil
		},
	}
}

func newCatalogCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Validate and print the questionnaire catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCatalog(cfg.CatalogPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, qn := range c.All() {
				fmt.Fprintf(out, "%s\t%s\t%d questions\n", catalog.Token(qn.Selector()), qn.Name(), qn.Len())
			}
			return nil
		},
	}
}

func run(ctx context.Context, cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel)
	log.Logger = logger

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	quizzes, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}

	sink, err := openSink(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer sink.Close()

	var quizBot *handler.QuizBotHandler
	opts := []bot.Option{
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
			quizBot.Handler(ctx, b, update)
		}),
	}
	if cfg.WebhookSecret != "" {
		opts = append(opts, bot.WithWebhookSecretToken(cfg.WebhookSecret))
	}

	b, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		return fmt.Errorf("error creating bot: %w", err)
	}

	reg, m := metrics.NewRegistry()
	channel := repo.NewTelegramChannel(b)
	w := wizard.New(quizzes, channel, sink, logger).WithMetrics(m)
	quizBot = handler.NewQuizBotHandler(w, quizzes, channel, logger).WithMetrics(m)
	quizBot.Register(b)

	if cfg.HTTPAddr != "" {
		var webhook http.Handler
		if cfg.WebhookMode() {
			webhook = b.WebhookHandler()
		}
		srv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           server.NewRouter(webhook, metrics.HandlerFor(reg)),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("http server stopped")
				cancel()
			}
		}()
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			srv.Shutdown(shutdownCtx)
		}()
	}

	if cfg.WebhookMode() {
		if _, err := b.SetWebhook(ctx, &bot.SetWebhookParams{URL: cfg.WebhookURL, SecretToken: cfg.WebhookSecret}); err != nil {
			return fmt.Errorf("error setting webhook: %w", err)
		}
		logger.Info().Str("url", cfg.WebhookURL).Msg("bot started in webhook mode")
		b.StartWebhook(ctx)
	} else {
		if _, err := b.DeleteWebhook(ctx, &bot.DeleteWebhookParams{}); err != nil {
			logger.Warn().Err(err).Msg("error deleting webhook")
		}
		logger.Info().Msg("bot started in polling mode")
		b.Start(ctx)
	}

	<-ctx.Done()
	logger.Info().Msg("Bot stopped")
	return nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if isatty.IsTerminal(os.Stdout.Fd()) {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	} else {
		logger = zerolog.New(os.Stdout)
	}
	return logger.Level(lvl).With().Timestamp().Logger()
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Builtin(), nil
	}
	return catalog.Load(path)
}

// openSink connects the configured answer sink
func openSink(ctx context.Context, cfg config.Config, logger zerolog.Logger) (repo.Sink, error) {
	switch cfg.Sink {
	case config.SinkFirebase:
		fc, err := repo.NewFirebaseConnector(ctx, cfg.FirebaseKeyPath, cfg.FirebaseDatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("error creating Firebase connector: %w", err)
		}
		return fc, nil
	case config.SinkRedis:
		return repo.NewRedisSink(ctx, cfg.RedisAddr, cfg.RedisTTL)
	case config.SinkMongo:
		return repo.NewMongoSink(ctx, cfg.MongoURI)
	case config.SinkSQLite:
		return repo.NewSQLiteSink(cfg.SQLitePath)
	case config.SinkLog:
		return repo.NewLogSink(logger), nil
	}
	return nil, fmt.Errorf("unknown sink %q", cfg.Sink)
}

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	appconfig "github.com/aquabiolab/biolog-calendar/internal/config"
	"github.com/aquabiolab/biolog-calendar/internal/crm"
	"github.com/aquabiolab/biolog-calendar/internal/gcal"
	"github.com/aquabiolab/biolog-calendar/internal/notify"
	"github.com/aquabiolab/biolog-calendar/internal/report"
	"github.com/aquabiolab/biolog-calendar/pkg/logging"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var notifier notify.Notifier
	if cfg.TelegramConfigured() {
		notifier = notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID, logger,
			notify.WithTimeout(cfg.TelegramTimeout))
	} else {
		logger.Warn("telegram bot token or chat id missing, notifications disabled")
		notifier = notify.NewNoopNotifier(logger)
	}

	crmClient := crm.NewClient(cfg.CRMBaseURL, cfg.CRMAPIKey, cfg.CRMSiteCode, cfg.CRMTimeout, logger)

	// The OAuth flow can prompt the operator, so the calendar client is
	// built lazily: a day without orders never touches Google.
	calClient := gcal.NewLazyClient(func(ctx context.Context) (*gcal.Client, error) {
		return buildCalendarClient(ctx, cfg, logger)
	})

	pipeline, err := report.NewPipeline(report.Config{
		Service:      report.BiologistVisit,
		CalendarName: cfg.CalendarName,
		CalendarID:   cfg.GoogleCalendarID,
		Timezone:     cfg.CalendarTimezone,
		CRMBaseURL:   cfg.CRMBaseURL,
	}, crmClient, calClient, notifier, logger)
	if err != nil {
		logger.Error("pipeline setup failed", "error", err)
		os.Exit(1)
	}

	window := report.DayOf(time.Now())
	report.WritePreamble(os.Stdout, window)

	summary, err := pipeline.Run(ctx, window)
	if err != nil {
		logger.Error("report run aborted", "error", err)
		os.Exit(1)
	}

	if summary.OrdersFetched == 0 {
		fmt.Println("Заказы за указанный период не найдены или произошла ошибка получения данных.")
	} else {
		report.WriteTable(os.Stdout, summary)
	}
	fmt.Println("Поиск завершен.")
}

func buildCalendarClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*gcal.Client, error) {
	oauthConf, err := gcal.LoadCredentials(cfg.GoogleCredentialsFile)
	if err != nil {
		return nil, err
	}
	store := gcal.NewFileTokenStore(cfg.GoogleTokenFile)
	ts, err := gcal.TokenSource(ctx, oauthConf, store, promptAuthCode)
	if err != nil {
		return nil, err
	}
	return gcal.NewClient(ctx, ts, logger)
}

// promptAuthCode runs the one-time interactive authorization: the operator
// opens the consent URL and pastes the code back.
func promptAuthCode(authURL string) (string, error) {
	fmt.Printf("Откройте ссылку в браузере и авторизуйтесь:\n%s\n\nВведите код авторизации: ", authURL)
	var code string
	if _, err := fmt.Scan(&code); err != nil {
		return "", fmt.Errorf("read authorization code: %w", err)
	}
	return code, nil
}

package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	alertapp "labajada-cloud/internal/alerting/application"
	"labajada-cloud/internal/alerting/infrastructure/memory"
	alertrepo "labajada-cloud/internal/alerting/infrastructure/postgres"
	alerthttp "labajada-cloud/internal/alerting/interfaces/http"
	alertnotify "labajada-cloud/internal/alerting/notify"
	"labajada-cloud/internal/auth"
	"labajada-cloud/internal/logger"
	"labajada-cloud/internal/observability/metrics"
	"labajada-cloud/internal/weather/ecowitt"
)

func main() {
	cfg := loadConfig()
	logger.Init(getenvDefault("LOG_LEVEL", "info"))
	log := logger.WithComponent("main")

	alertCfg, err := alertapp.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("alert config error")
	}

	var db *sql.DB
	if cfg.DatabaseURL != "" {
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("db open error")
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Fatal().Err(err).Msg("db ping error")
		}
	}
	metrics.Init(db, logger.WithComponent("metrics"))

	var (
		trackerStore    alertapp.TrackerStore
		logStore        alertapp.LogStore
		subscriberStore alertapp.SubscriberStore
		readingStore    alertapp.ReadingStore
	)
	if db != nil {
		trackerStore = alertrepo.NewTrackerRepository(db)
		logStore = alertrepo.NewLogRepository(db)
		subscriberStore = alertrepo.NewSubscriberRepository(db)
		readingStore = alertrepo.NewReadingRepository(db)
	} else {
		// No database means the long-running mode with in-process state.
		trackerStore = memory.NewTrackerStore()
		logStore = memory.NewLogStore()
		subscriberStore = memory.NewSubscriberStore()
		readingStore = memory.NewReadingStore()
		log.Warn().Msg("no DATABASE_URL, keeping state in memory")
	}

	weather, err := ecowitt.NewClient(cfg.EcowittAppKey, cfg.EcowittAPIKey, cfg.EcowittMAC)
	if err != nil {
		log.Fatal().Err(err).Msg("ecowitt client error")
	}

	transport, err := alertnotify.NewWebPushTransport(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.VAPIDEmail)
	if err != nil {
		log.Fatal().Err(err).Msg("webpush transport error")
	}
	dispatcher, err := alertapp.NewDispatcher(transport, subscriberStore, logger.WithComponent("dispatcher"))
	if err != nil {
		log.Fatal().Err(err).Msg("dispatcher error")
	}
	tracker, err := alertapp.NewTracker(trackerStore, alertCfg.Sustained)
	if err != nil {
		log.Fatal().Err(err).Msg("tracker error")
	}
	gate, err := alertapp.NewCooldownGate(logStore, alertCfg.CooldownWindow(), alertCfg.CooldownLogDepth)
	if err != nil {
		log.Fatal().Err(err).Msg("cooldown gate error")
	}
	selector := alertapp.NewSelector(alertCfg.SpotName)

	broker := alerthttp.NewSSEBroker()
	notifiers := []alertapp.AlertNotifier{broker}
	if cfg.AlertWebhookURL != "" {
		channel, err := alertnotify.NewWebhookChannel(cfg.AlertWebhookURL)
		if err != nil {
			log.Fatal().Err(err).Msg("alert webhook error")
		}
		notifiers = append(notifiers, alertnotify.NewChannelNotifier(channel, logger.WithComponent("webhook")))
	}

	orchestrator, err := alertapp.NewOrchestrator(
		weather,
		subscriberStore,
		logStore,
		readingStore,
		tracker,
		selector,
		gate,
		dispatcher,
		alertCfg.Thresholds,
		alertapp.WithNotifier(alertnotify.NewMultiNotifier(notifiers...)),
		alertapp.WithLogger(logger.WithComponent("orchestrator")),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("orchestrator error")
	}

	if cfg.PollerEnabled {
		poller, err := alertapp.NewPoller(orchestrator, alertCfg.PollInterval(), logger.WithComponent("poller"))
		if err != nil {
			log.Fatal().Err(err).Msg("poller error")
		}
		poller.Start(context.Background())
		defer poller.Stop()
	}

	var runHandler *alerthttp.RunHandler
	if cfg.CronSecret != "" {
		runHandler, err = alerthttp.NewRunHandler(orchestrator, cfg.CronSecret)
		if err != nil {
			log.Fatal().Err(err).Msg("run handler error")
		}
	}
	subscribeHandler, err := alerthttp.NewSubscribeHandler(subscriberStore, logger.WithComponent("subscribe"))
	if err != nil {
		log.Fatal().Err(err).Msg("subscribe handler error")
	}
	logHandler, err := alerthttp.NewLogHandler(logStore)
	if err != nil {
		log.Fatal().Err(err).Msg("log handler error")
	}
	exportHandler, err := alerthttp.NewExportHandler(logStore, alertCfg.SpotName)
	if err != nil {
		log.Fatal().Err(err).Msg("export handler error")
	}
	subscribersHandler, err := alerthttp.NewSubscribersHandler(subscriberStore)
	if err != nil {
		log.Fatal().Err(err).Msg("subscribers handler error")
	}

	policy := auth.NewDefaultPolicy(
		[]string{"/healthz", "/metrics", "/api/v1/alerts/run"},
		[]string{"/api/v1/push/"},
	)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	if runHandler != nil {
		mux.Handle("/api/v1/alerts/run", runHandler)
	}
	mux.Handle("/api/v1/push/subscriptions", subscribeHandler)
	mux.Handle("/api/v1/alerts/log", logHandler)
	mux.Handle("/api/v1/alerts/log/export", exportHandler)
	mux.Handle("/api/v1/subscribers", subscribersHandler)
	mux.Handle("/api/v1/alerts/stream", alerthttp.NewStreamHandler(broker))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger.WithComponent("http"))}
	log.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
	log.Fatal().Err(server.ListenAndServe()).Msg("server stopped")
}

type config struct {
	DatabaseURL     string
	HTTPAddr        string
	CronSecret      string
	JWTSecret       string
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDEmail      string
	AlertWebhookURL string
	EcowittAppKey   string
	EcowittAPIKey   string
	EcowittMAC      string
	PollerEnabled   bool
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:     getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:        getenvDefault("HTTP_ADDR", ":8080"),
		CronSecret:      os.Getenv("CRON_SECRET"),
		JWTSecret:       getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		VAPIDPublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
		VAPIDEmail:      getenvDefault("VAPID_EMAIL", "mailto:alerts@labajada.app"),
		AlertWebhookURL: os.Getenv("ALERT_WEBHOOK_URL"),
		EcowittAppKey:   os.Getenv("ECOWITT_APPLICATION_KEY"),
		EcowittAPIKey:   os.Getenv("ECOWITT_API_KEY"),
		EcowittMAC:      os.Getenv("ECOWITT_MAC"),
		PollerEnabled:   getenvDefault("ALERT_POLLER_ENABLED", "false") == "true",
	}
	stderrLog := zerolog.New(os.Stderr)
	if cfg.CronSecret == "" && !cfg.PollerEnabled {
		// Nothing would ever trigger an evaluation pass.
		stderrLog.Fatal().Msg("CRON_SECRET or ALERT_POLLER_ENABLED=true is required")
	}
	if cfg.JWTSecret == "" {
		stderrLog.Fatal().Msg("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func loggingMiddleware(next http.Handler, log zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", resp.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Flush keeps SSE responses streaming through the middleware.
func (w *statusWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

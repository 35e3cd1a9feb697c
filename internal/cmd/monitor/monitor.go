package monitor

import (
	"context"
	"errors"
	"fmt"
	"github.com/clambin/tank-monitor/internal/broker"
	"github.com/clambin/tank-monitor/internal/collector"
	"github.com/clambin/tank-monitor/internal/configuration"
	"github.com/clambin/tank-monitor/internal/gateway"
	"github.com/clambin/tank-monitor/internal/health"
	"github.com/clambin/tank-monitor/internal/notifier"
	"github.com/clambin/tank-monitor/internal/pubsub"
	"github.com/clambin/tank-monitor/internal/scheduler"
	"github.com/clambin/tank-monitor/internal/snapshot"
	"github.com/clambin/tank-monitor/internal/store"
	"github.com/clambin/tank-monitor/internal/updater"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/slack-go/slack"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
)

var Cmd = cobra.Command{
	Use:   "monitor",
	Short: "Monitor the tanks and control the irrigation programs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return Run(ctx, viper.GetViper(), cmd.Root().Version, prometheus.DefaultRegisterer, slog.Default())
	},
}

// Transport is the broker connection used by the monitor.
type Transport interface {
	broker.Subscriber
	broker.Publisher
}

// Run connects to the broker and monitors the tanks until the context is canceled.
func Run(ctx context.Context, cfg *viper.Viper, version string, r prometheus.Registerer, logger *slog.Logger) error {
	logger.Info("tank-monitor starting", "version", version)
	defer logger.Info("tank-monitor stopped")

	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}

	client, err := broker.Connect(broker.Config{
		Broker:   cfg.GetString("mqtt.broker"),
		ClientID: cfg.GetString("mqtt.clientID"),
		Username: cfg.GetString("mqtt.username"),
		Password: cfg.GetString("mqtt.password"),
		QoS:      byte(cfg.GetInt("mqtt.qos")),
	}, logger.With("component", "broker"))
	if err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	defer client.Close()

	tasks, err := makeTasks(cfg, st, client, r, logger)
	if err != nil {
		return err
	}
	return runTasks(ctx, tasks)
}

// openStore returns the tank database. If it does not exist yet, it is created from the tank definitions
// found next to the configuration file.
func openStore(cfg *viper.Viper, logger *slog.Logger) (*store.FileStore, error) {
	st := store.FileStore{Path: cfg.GetString("store.path")}
	ok, err := st.Exists()
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	if ok {
		return &st, nil
	}
	c, err := maybeLoadTanks(filepath.Join(filepath.Dir(cfg.ConfigFileUsed()), "tanks.yaml"), logger)
	if err != nil {
		return nil, fmt.Errorf("tanks.yaml: %w", err)
	}
	if err = st.Save(c.Document()); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	logger.Info("tank database created", "path", st.Path, "tanks", len(c.Tanks))
	return &st, nil
}

func maybeLoadTanks(path string, logger *slog.Logger) (configuration.Configuration, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = nil
		}
		return configuration.Configuration{}, err
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	return configuration.Load(f, logger)
}

type task interface {
	Run(context.Context) error
}

func runTasks(ctx context.Context, tasks []task) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, t := range tasks {
		g.Go(func() error { return t.Run(ctx) })
	}
	return g.Wait()
}

func makeTasks(cfg *viper.Viper, st updater.Store, t Transport, r prometheus.Registerer, l *slog.Logger) ([]task, error) {
	var tasks []task

	// Metrics
	metrics := collector.NewMetrics()
	if err := r.Register(metrics); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	// Scheduler
	s := &scheduler.MQTT{
		Transport:     t,
		CommandTopic:  cfg.GetString("scheduler.commandTopic"),
		ProgramsTopic: cfg.GetString("scheduler.programsTopic"),
		StatusTopic:   cfg.GetString("scheduler.statusTopic"),
		Logger:        l.With("component", "scheduler"),
	}
	if err := s.Start(); err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}

	// Gateway
	g := gateway.New(s, makeNotifiers(cfg, l), metrics, l.With("component", "gateway"))
	tasks = append(tasks, g)

	// Updater
	p := pubsub.New[snapshot.Snapshot](l.With("component", "pubsub"))
	u := updater.New(st, s, g,
		broker.SnapshotPublisher{Publisher: t, Topic: cfg.GetString("mqtt.publishTopic")},
		l.With("component", "updater"),
		updater.WithMetrics(metrics),
		updater.WithObserver(p.Publish),
		updater.WithRepeatLoss(cfg.GetBool("waterLoss.repeat")),
	)
	if err := u.Load(); err != nil {
		return nil, err
	}

	// Router
	router := &broker.Router{
		Subscriber:   t,
		Updater:      u,
		RequestTopic: cfg.GetString("mqtt.requestTopic"),
		Logger:       l.With("component", "router"),
	}
	tasks = append(tasks, router, &reloader{updater: u, router: router, logger: l.With("component", "reloader")})

	// Collector
	tasks = append(tasks, &collector.Collector{Publisher: p, Metrics: metrics, Logger: l.With("component", "collector")})

	// Prometheus Server
	m := http.NewServeMux()
	m.Handle("/metrics", promhttp.Handler())
	tasks = append(tasks, httpServer{addr: cfg.GetString("exporter.addr"), handler: m})

	// Health Endpoint
	h := health.New(p, l.With("component", "health"))
	tasks = append(tasks, h)
	m = http.NewServeMux()
	m.Handle("/health", h)
	tasks = append(tasks, httpServer{addr: cfg.GetString("health.addr"), handler: m})

	return tasks, nil
}

func makeNotifiers(cfg *viper.Viper, l *slog.Logger) notifier.Notifiers {
	n := notifier.Notifiers{
		"log": notifier.SLogNotifier{Logger: l.With("component", "notifier")},
	}
	if token := cfg.GetString("slack.token"); token != "" {
		n["slack"] = &notifier.SlackNotifier{
			SlackSender: slack.New(token),
			Logger:      l.With("component", "slack"),
		}
	}
	if host := cfg.GetString("email.host"); host != "" {
		n["email"] = notifier.NewEmailNotifier(
			host,
			cfg.GetInt("email.port"),
			cfg.GetString("email.username"),
			cfg.GetString("email.password"),
			cfg.GetString("email.from"),
			l.With("component", "email"),
		)
	}
	return n
}

package cmd

import (
	"errors"
	"github.com/clambin/go-common/charmer"
	"github.com/clambin/tank-monitor/internal/cmd/eval"
	"github.com/clambin/tank-monitor/internal/cmd/monitor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"log/slog"
	"os"
)

var (
	configFilename string
	RootCmd        = cobra.Command{
		Use:   "tank-monitor",
		Short: "Monitors the water level of irrigation tanks",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setLogger(viper.GetBool("debug"), viper.GetString("log.format"))
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	RootCmd.PersistentFlags().StringVar(&configFilename, "config", "", "Configuration file")
	if err := charmer.SetPersistentFlags(&RootCmd, viper.GetViper(), args); err != nil {
		panic("failed to set flags: " + err.Error())
	}
	RootCmd.AddCommand(&monitor.Cmd, &eval.Cmd)
}

var args = charmer.Arguments{
	"debug":                   {Default: false, Help: "Log debug messages"},
	"log.format":              {Default: "json", Help: "Log format (json or text)"},
	"store.path":              {Default: "/data/tanks.json", Help: "Path of the tank database"},
	"mqtt.broker":             {Default: "tcp://localhost:1883", Help: "MQTT broker URL"},
	"mqtt.clientID":           {Default: "tank-monitor", Help: "MQTT client ID prefix"},
	"mqtt.username":           {Default: "", Help: "MQTT username"},
	"mqtt.password":           {Default: "", Help: "MQTT password"},
	"mqtt.qos":                {Default: 1, Help: "MQTT quality of service"},
	"mqtt.requestTopic":       {Default: "tanks/request", Help: "Topic on which clients request the tank data"},
	"mqtt.publishTopic":       {Default: "tanks/data", Help: "Topic on which the tank data is published"},
	"scheduler.commandTopic":  {Default: "scheduler/command", Help: "Topic on which scheduler commands are sent"},
	"scheduler.programsTopic": {Default: "scheduler/programs", Help: "Topic on which the scheduler publishes its programs"},
	"scheduler.statusTopic":   {Default: "scheduler/status", Help: "Topic on which the scheduler publishes its status"},
	"slack.token":             {Default: "", Help: "Slack token"},
	"email.host":              {Default: "", Help: "SMTP server"},
	"email.port":              {Default: 25, Help: "SMTP port"},
	"email.username":          {Default: "", Help: "SMTP username"},
	"email.password":          {Default: "", Help: "SMTP password"},
	"email.from":              {Default: "tank-monitor@localhost", Help: "Sender address of email notifications"},
	"waterLoss.repeat":        {Default: false, Help: "Report water loss on every decreasing measurement"},
	"exporter.addr":           {Default: ":9090", Help: "Address of Prometheus exporter"},
	"health.addr":             {Default: ":8080", Help: "Address of /health endpoint"},
}

func initConfig() {
	if configFilename != "" {
		viper.SetConfigFile(configFilename)
	} else {
		viper.AddConfigPath("/etc/tank-monitor/")
		viper.AddConfigPath("$HOME/.tank-monitor")
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("TANK_MONITOR")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFilename != "" || !errors.As(err, &notFound) {
			slog.Error("failed to read config file", "err", err)
			os.Exit(1)
		}
	}
}

func setLogger(debug bool, format string) {
	opts := slog.HandlerOptions{Level: slog.LevelInfo}
	if debug {
		opts.Level = slog.LevelDebug
	}
	var h slog.Handler
	switch format {
	case "text":
		h = slog.NewTextHandler(os.Stdout, &opts)
	default:
		h = slog.NewJSONHandler(os.Stdout, &opts)
	}
	slog.SetDefault(slog.New(h))
}

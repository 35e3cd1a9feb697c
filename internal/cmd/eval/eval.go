package eval

import (
	"context"
	"fmt"
	"github.com/clambin/go-common/charmer"
	"github.com/clambin/go-common/set"
	"github.com/clambin/tank-monitor/internal/configuration"
	"github.com/clambin/tank-monitor/internal/gateway"
	"github.com/clambin/tank-monitor/internal/notifier"
	"github.com/clambin/tank-monitor/internal/scheduler"
	"github.com/clambin/tank-monitor/internal/tank"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	Cmd = cobra.Command{
		Use:   "eval [measurement...]",
		Short: "evaluate a sequence of measurements against a tank definition",
		RunE:  evalTank(os.Stdout, viper.GetViper()),
	}

	args = charmer.Arguments{
		"tanks":           {Default: "tanks.yaml", Help: "tank definition file (- for stdin)"},
		"tank":            {Default: "", Help: "ID of the tank to evaluate (default: first tank)"},
		"consumer-active": {Default: false, Help: "evaluate as if a program is drawing from the tank"},
	}
)

func init() {
	_ = charmer.SetPersistentFlags(&Cmd, viper.GetViper(), args)
}

func evalTank(w io.Writer, v *viper.Viper) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		measurements := make([]float64, len(args))
		for i, arg := range args {
			var err error
			if measurements[i], err = strconv.ParseFloat(arg, 64); err != nil {
				return fmt.Errorf("invalid measurement %q: %w", arg, err)
			}
		}
		t, err := loadTank(v.GetString("tanks"), v.GetString("tank"))
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		r, err := evaluate(ctx, t, measurements, v.GetBool("consumer-active"), v.GetBool("waterLoss.repeat"))
		if err != nil {
			return err
		}
		r.writeTo(w)
		return nil
	}
}

func loadTank(filename string, id string) (tank.Tank, error) {
	var r io.ReadCloser
	var err error
	switch filename {
	case "-":
		r = os.Stdin
	default:
		r, err = os.Open(filename)
		if err != nil {
			return tank.Tank{}, err
		}
		defer func() { _ = r.Close() }()
	}
	cfg, err := configuration.Load(r, slog.New(slog.DiscardHandler))
	if err != nil {
		return tank.Tank{}, fmt.Errorf("%s: %w", filename, err)
	}
	for _, t := range cfg.Tanks {
		if id == "" || t.ID == id {
			return t, nil
		}
	}
	if id == "" {
		return tank.Tank{}, fmt.Errorf("%s: no tanks defined", filename)
	}
	return tank.Tank{}, fmt.Errorf("%s: tank %q not found", filename, id)
}

// evaluate processes the measurements in sequence. Program actions are executed against an in-memory scheduler,
// where all programs bound to the tank start out enabled.
func evaluate(ctx context.Context, t tank.Tank, measurements []float64, consumerActive, repeatLoss bool) (results, error) {
	s := scheduler.NewMemory(boundPrograms(t)...)
	g := gateway.New(s, notifier.Notifiers{}, nil, slog.New(slog.DiscardHandler))
	now := time.Now()

	r := make(results, 0, len(measurements))
	for i, m := range measurements {
		programs, err := s.Programs(ctx)
		if err != nil {
			return nil, err
		}
		d := tank.Apply(t, tank.Input{
			Measurement:    m,
			Time:           now.Add(time.Duration(i) * time.Minute),
			Programs:       scheduler.Enabled(programs),
			ConsumerActive: consumerActive,
			RepeatLoss:     repeatLoss,
		})
		if err = g.Apply(ctx, d.Actions); err != nil {
			return nil, err
		}
		r = append(r, result{measurement: m, decision: d})
		t = d.Tank
	}
	return r, nil
}

func boundPrograms(t tank.Tank) []scheduler.Program {
	ids := set.New[string]()
	for _, b := range []tank.Band{tank.OverflowBand, tank.WarningBand, tank.CriticalBand} {
		for id := range t.Threshold(b).Programs {
			ids.Add(id)
		}
	}
	programs := make([]scheduler.Program, 0, len(ids))
	for _, id := range ids.ListOrdered() {
		programs = append(programs, scheduler.Program{ID: id, Name: id, Enabled: true})
	}
	return programs
}

const formatString = "%-12s %-10s %-16s %-30s %s\n"

type results []result

func (r results) writeTo(w io.Writer) {
	if len(r) > 0 {
		_, _ = fmt.Fprintf(w, formatString, "MEASUREMENT", "PERCENTAGE", "STATE", "ACTIONS", "EVENTS")
		for _, res := range r {
			res.writeTo(w)
		}
	}
}

type result struct {
	measurement float64
	decision    tank.Decision
}

func (r result) writeTo(w io.Writer) {
	percentage := "invalid"
	if p := r.decision.Tank.Percentage; p != nil {
		percentage = strconv.Itoa(*p) + "%"
	}
	actions := make([]string, len(r.decision.Actions))
	for i, a := range r.decision.Actions {
		actions[i] = a.Operation.String() + " " + a.Program
	}
	events := make([]string, len(r.decision.Events))
	for i, e := range r.decision.Events {
		events[i] = string(e)
	}
	_, _ = fmt.Fprintf(w, formatString,
		strconv.FormatFloat(r.measurement, 'f', -1, 64),
		percentage,
		r.decision.To.String(),
		orNone(strings.Join(actions, ", ")),
		orNone(strings.Join(events, ", ")),
	)
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

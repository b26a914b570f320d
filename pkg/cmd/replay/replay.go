package replay

import (
	"bufio"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/maxgio92/asketch/internal/metrics"
	"github.com/maxgio92/asketch/pkg/anomaly"
	"github.com/maxgio92/asketch/pkg/cmd/options"
	"github.com/maxgio92/asketch/pkg/healthcheck"
	"github.com/maxgio92/asketch/pkg/state"
)

const CmdName = "replay"

type Options struct {
	config       string
	events       string
	threads      string
	metricsAddr  string
	healthSocket string

	*options.Options
}

func NewCommand(opts *options.Options) *cobra.Command {
	o := new(Options)
	o.Options = opts
	cmd := &cobra.Command{
		Use:   CmdName,
		Short: "Replay a captured event stream through the anomaly pipeline",
		Long: `replay feeds an NDJSON event stream through the dispatch loop against an
optional thread table snapshot, reporting the fingerprint frequency
estimates the sketches accumulate.`,
		DisableAutoGenTag: true,
		RunE:              o.Run,
	}

	cmd.Flags().StringVarP(&o.config, "config", "c", "", "Path to the plugin init configuration (JSON)")
	cmd.Flags().StringVarP(&o.events, "events", "e", "-", "Path to the NDJSON event stream ('-' for stdin)")
	cmd.Flags().StringVarP(&o.threads, "threads", "t", "", "Path to a thread table snapshot (JSON)")
	cmd.Flags().StringVar(&o.metricsAddr, "metrics-addr", "", "Expose Prometheus metrics on this address")
	cmd.Flags().StringVar(&o.healthSocket, "healthcheck-socket", "", "Answer readiness probes on this unix socket")

	cmd.MarkFlagRequired("config")

	return cmd
}

func (o *Options) Run(_ *cobra.Command, _ []string) error {
	logLevel, err := log.ParseLevel(o.LogLevel)
	if err != nil {
		o.Logger.Fatal().Err(err).Msg("invalid log level")
	}
	o.Logger = o.Logger.Level(logLevel)

	raw, err := os.ReadFile(o.config)
	if err != nil {
		return errors.Wrap(err, "failed to read config file")
	}

	table := state.NewTable()
	if o.threads != "" {
		snapshot, err := os.ReadFile(o.threads)
		if err != nil {
			return errors.Wrap(err, "failed to read thread snapshot")
		}
		n, err := loadThreadSnapshot(snapshot, table)
		if err != nil {
			return err
		}
		o.Logger.Info().Int("threads", n).Msg("thread table snapshot loaded")
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	plug := anomaly.New(
		anomaly.WithLogger(o.Logger),
		anomaly.WithThreadTable(table),
		anomaly.WithMetrics(m),
	)
	if err := plug.Init(o.Ctx, string(raw)); err != nil {
		return errors.Wrap(err, "failed to init plugin")
	}
	defer plug.Shutdown()

	if o.metricsAddr != "" {
		go o.serveMetrics(reg)
	}
	if o.healthSocket != "" {
		hc := healthcheck.NewServer(o.healthSocket, o.Logger)
		if err := hc.Listen(o.Ctx); err != nil {
			return err
		}
		defer hc.Shutdown()
		hc.NotifyReadiness()
	}

	in, err := o.openEvents()
	if err != nil {
		return err
	}
	defer in.Close()

	return o.replay(in, plug)
}

func (o *Options) openEvents() (io.ReadCloser, error) {
	if o.events == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(o.events)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open event stream")
	}
	return f, nil
}

func (o *Options) replay(in io.Reader, plug *anomaly.Plugin) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	start := time.Now()
	var processed, failed int
	for scanner.Scan() {
		select {
		case <-o.Ctx.Done():
			return nil
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var re rawEvent
		if err := json.Unmarshal(line, &re); err != nil {
			o.Logger.Warn().Err(err).Msg("skipping undecodable event line")
			failed++
			continue
		}
		evt, err := re.build()
		if err != nil {
			o.Logger.Warn().Err(err).Msg("skipping unbuildable event")
			failed++
			continue
		}

		if err := plug.ParseEvent(evt); err != nil {
			o.Logger.Warn().Err(err).Msg("event parse failed")
			failed++
			continue
		}
		processed++

		for i := 0; i < plug.NumSketches(); i++ {
			fp, err := plug.BehaviorProfile(evt, i)
			if err != nil || fp == "" {
				continue
			}
			est, err := plug.CountMinSketchEstimate(evt, i)
			if err != nil {
				continue
			}
			o.Logger.Debug().
				Int("sketch", i).
				Str("fingerprint", fp).
				Uint64("estimate", est).
				Msg("estimate")
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "failed to read event stream")
	}

	o.Logger.Info().
		Int("events", processed).
		Int("failed", failed).
		Dur("elapsed", time.Since(start)).
		Msg("replay finished")

	return nil
}

func (o *Options) serveMetrics(reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	o.Logger.Info().Str("addr", o.metricsAddr).Msg("serving metrics")
	if err := http.ListenAndServe(o.metricsAddr, mux); err != nil {
		o.Logger.Error().Err(err).Msg("metrics server failed")
	}
}

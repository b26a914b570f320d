package validate

import (
	"os"

	"github.com/pkg/errors"
	log "github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/maxgio92/asketch/pkg/anomaly"
	"github.com/maxgio92/asketch/pkg/cmd/options"
	"github.com/maxgio92/asketch/pkg/profile"
	"github.com/maxgio92/asketch/pkg/sketch"
)

const CmdName = "validate"

type Options struct {
	config string

	*options.Options
}

func NewCommand(opts *options.Options) *cobra.Command {
	o := new(Options)
	o.Options = opts
	cmd := &cobra.Command{
		Use:               CmdName,
		Short:             "Validate a plugin configuration",
		Long:              `validate lints a plugin init configuration and prints the sketch shapes and memory cost it would allocate.`,
		DisableAutoGenTag: true,
		RunE:              o.Run,
	}

	cmd.Flags().StringVarP(&o.config, "config", "c", "", "Path to the plugin init configuration (JSON)")

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

	cfg, err := anomaly.ParseConfig(string(raw))
	if err != nil {
		return errors.Wrap(err, "failed to parse config")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid config")
	}

	cms := cfg.CountMinSketch
	if !cms.Enabled {
		o.Logger.Info().Msg("count min sketch disabled, nothing to allocate")
		return nil
	}

	var total uint64
	for i := 0; i < cms.NSketches; i++ {
		var d, w uint64
		if len(cms.RowsCols) > 0 {
			d, w = cms.RowsCols[i][0], cms.RowsCols[i][1]
		} else {
			d = sketch.RowsFromGamma(cms.GammaEps[i][0])
			w = sketch.ColsFromEps(cms.GammaEps[i][1])
		}
		size := sketch.SizeBytes(d, w)
		total += size

		bp := cms.BehaviorProfiles[i]
		fields := profile.Parse(bp.Fields, o.Logger)
		o.Logger.Info().
			Int("sketch", i).
			Uint64("rows", d).Uint64("cols", w).
			Float64("gamma", sketch.GammaFromRows(d)).
			Float64("eps", sketch.EpsFromCols(w)).
			Uint64("size_bytes", size).
			Int("fields", len(fields)).
			Interface("event_codes", bp.EventCodes).
			Dur("reset_timer", bp.ResetPeriod()).
			Msg("behavior profile")
	}

	o.Logger.Info().
		Int("sketches", cms.NSketches).
		Uint64("total_size_bytes", total).
		Msg("configuration valid")

	return nil
}

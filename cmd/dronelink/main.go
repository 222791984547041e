package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/dronelink/internal/cliconfig"
	"github.com/bft-labs/dronelink/pkg/dronelink"
	"github.com/bft-labs/dronelink/pkg/log"
	"github.com/bft-labs/dronelink/pkg/telemetry"
	"github.com/bft-labs/dronelink/plugins/configwatcher"
	"github.com/bft-labs/dronelink/plugins/eventlog"
)

const helpDescription = `
Connect to a quadcopter over its Wi-Fi link, print its telemetry and
optionally take off.

Highlights:
  - Keeps the command and video sockets open until interrupted.
  - Logs every telemetry event, optionally to a rotating JSON-lines file.
  - Replays offline packet captures through the same decoder.
  - Configure via file, env (DRONELINK_*), or flags.
`

var exampleUsage = strings.TrimSpace(`
  dronelink --host 192.168.10.1
  dronelink --takeoff --event-log /var/log/dronelink/events.jsonl
  dronelink replay session.pcap --command-port 8889
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	logger := cliconfig.Logger()

	root := &cobra.Command{
		Use:          "dronelink",
		Short:        "Talk to a quadcopter over UDP",
		Long:         strings.TrimSpace(helpDescription),
		Example:      exampleUsage,
		Version:      fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			changed, err := loadConfig(cmd, cfgPath, &cfg)
			if err != nil {
				return err
			}
			logger.Info().Interface("config", cfg).Msg("configuration")
			return fly(logger, cfg, resolveConfigPath(cfgPath), changed)
		},
	}

	replay := &cobra.Command{
		Use:   "replay <capture.pcap>",
		Short: "Decode the command-port traffic of a packet capture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(cmd, cfgPath, &cfg); err != nil {
				return err
			}
			return replayCapture(cmd, logger, cfg, args[0])
		},
	}
	root.AddCommand(replay)

	// Flags
	pf := root.PersistentFlags()
	pf.StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.dronelink/config.toml)")
	pf.StringVar(&cfg.Host, "host", cfg.Host, "vehicle address")
	pf.IntVar(&cfg.CommandPort, "command-port", cfg.CommandPort, "command and telemetry UDP port")
	pf.IntVar(&cfg.VideoPort, "video-port", cfg.VideoPort, "video UDP port")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (trace, debug, info, warn, error)")

	root.Flags().IntVar(&cfg.ReadBufferBytes, "read-buffer", cfg.ReadBufferBytes, "receive buffer size per datagram")
	root.Flags().DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "how long to wait for the session to stop")
	root.Flags().StringVar(&cfg.EventLog, "event-log", cfg.EventLog, "write telemetry events to this JSON-lines file")
	root.Flags().IntVar(&cfg.EventLogMaxMB, "event-log-max-mb", cfg.EventLogMaxMB, "rotate the event log at this size")
	root.Flags().BoolVar(&cfg.TakeOff, "takeoff", cfg.TakeOff, "take off once connected and land on exit")
	root.Flags().BoolVar(&cfg.WatchConfig, "watch-config", cfg.WatchConfig, "reload the log level when the config file changes")

	if err := root.Execute(); err != nil {
		logger.Error().Err(err).Msg("dronelink")
		os.Exit(1)
	}
}

func resolveConfigPath(p string) string {
	if p == "" {
		return cliconfig.DefaultConfigPath()
	}
	return p
}

// loadConfig applies the config file, then DRONELINK_* variables, under the
// flags the user set explicitly. It returns the set of changed flags.
func loadConfig(cmd *cobra.Command, cfgPath string, cfg *cliconfig.Config) (map[string]bool, error) {
	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	cfgFile := resolveConfigPath(cfgPath)
	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(cfg, fc, changed); err != nil {
			return nil, err
		}
	}

	if err := cliconfig.ApplyEnvConfig(cfg, changed); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cliconfig.ApplyLogLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	return changed, nil
}

// reloadLogLevel re-reads the log level from path with the same precedence
// as startup. Everything else needs a restart.
func reloadLogLevel(logger zerolog.Logger, changed map[string]bool) configwatcher.ReloadFunc {
	return func(path string) error {
		if changed["log-level"] {
			return nil
		}
		fc, err := cliconfig.LoadFileConfig(path)
		if err != nil {
			return err
		}
		next := cliconfig.DefaultConfig()
		if err := cliconfig.ApplyFileConfig(&next, fc, changed); err != nil {
			return err
		}
		if err := cliconfig.ApplyEnvConfig(&next, changed); err != nil {
			return err
		}
		if err := cliconfig.ApplyLogLevel(next.LogLevel); err != nil {
			return err
		}
		logger.Info().Str("level", next.LogLevel).Msg("log level reloaded")
		return nil
	}
}

// faultNotifier returns a state handler and a channel it closes the first
// time the session becomes Faulted.
func faultNotifier() (dronelink.StateHandler, <-chan struct{}) {
	faultCh := make(chan struct{})
	var once sync.Once
	handler := dronelink.StateHandlerFunc(func(ev dronelink.StateChangeEvent) {
		if ev.Current == dronelink.StateFaulted {
			once.Do(func() { close(faultCh) })
		}
	})
	return handler, faultCh
}

func fly(logger zerolog.Logger, cfg cliconfig.Config, cfgFile string, changed map[string]bool) error {
	onState, faultCh := faultNotifier()

	opts := []dronelink.Option{
		dronelink.WithLogger(log.NewZerologAdapterWithLogger(logger)),
		dronelink.WithStateHandler(onState),
	}
	if cfg.EventLog != "" {
		elc := eventlog.DefaultConfig()
		elc.Path = cfg.EventLog
		elc.MaxSizeMB = cfg.EventLogMaxMB
		opts = append(opts, eventlog.WithEventLog(elc))
	}
	if cfg.WatchConfig {
		wc := configwatcher.DefaultConfig()
		wc.Path = cfgFile
		wc.Reload = reloadLogLevel(logger, changed)
		opts = append(opts, configwatcher.WithConfigWatcher(wc))
	}

	s, err := dronelink.New(cfg.Session(), opts...)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	s.SubscribeFunc(func(ev telemetry.Event) {
		logger.Info().Str("kind", ev.Kind()).Interface("event", ev).Msg("telemetry")
	})

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	if err := s.Start(ctx); err != nil {
		_ = s.Stop()
		return fmt.Errorf("start session: %w", err)
	}

	flying := false
	if cfg.TakeOff {
		if err := s.TakeOff(); err != nil {
			logger.Error().Err(err).Msg("takeoff failed")
		} else {
			flying = true
			logger.Info().Msg("takeoff sent")
		}
	}

	select {
	case <-sigCh:
		logger.Info().Msg("received signal, stopping...")
	case <-faultCh:
		logger.Error().Err(s.Err()).Msg("session faulted")
	}

	if flying && s.Status() == dronelink.StateActive {
		if err := s.Land(); err != nil {
			logger.Error().Err(err).Msg("land failed")
		}
	}

	st := s.Stats()
	logger.Info().
		Uint64("command_frames", st.Command.Frames).
		Uint64("video_frames", st.Video.Frames).
		Uint64("events", st.Events).
		Uint64("decode_errors", st.DecodeErrors).
		Msg("session stats")

	if err := s.Stop(); err != nil {
		return fmt.Errorf("stop session: %w", err)
	}
	return s.Err()
}

func replayCapture(cmd *cobra.Command, logger zerolog.Logger, cfg cliconfig.Config, path string) error {
	s, err := dronelink.New(cfg.Session(), dronelink.WithLogger(log.NewZerologAdapterWithLogger(logger)))
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	out := cmd.OutOrStdout()
	s.SubscribeFunc(func(ev telemetry.Event) {
		fmt.Fprintf(out, "%s %+v\n", ev.Kind(), ev)
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := s.ReplayCapture(ctx, path); err != nil {
		return fmt.Errorf("replay %s: %w", path, err)
	}

	st := s.Stats()
	fmt.Fprintf(out, "frames=%d text=%d decode_errors=%d unrecognized=%d events=%d\n",
		st.Command.Frames, st.TextFrames, st.DecodeErrors, st.Unrecognized, st.Events)
	return nil
}

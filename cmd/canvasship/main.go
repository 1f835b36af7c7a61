package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/canvasship/internal/cliconfig"
	"github.com/bft-labs/canvasship/pkg/canvasship"
	"github.com/bft-labs/canvasship/pkg/log"
)

const longHelp = `canvasship is the headless companion of a drawing surface.

It keeps a framed TCP tunnel to the local relay open and fans frames out to
WebSocket subscribers, watches the surface document, grows the logical
surface as strokes approach its edge, and after a quiet period posts a PNG
of the visible region to the recognition service.

Configuration is read from flags, then CANVASSHIP_* environment variables
(a .env file in the working directory is loaded first), then the config
file (TOML, or YAML for .yaml/.yml).`

var exampleUsage = strings.TrimSpace(`
  canvasship --document ~/canvas/doc.json --service-url http://localhost:9999
  canvasship --config $HOME/.canvasship/config.toml --once
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

	bootLog := cliconfig.Logger()

	root := &cobra.Command{
		Use:           "canvasship",
		Short:         "Relay surface frames and ship canvas snapshots for recognition",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
				bootLog.Warn().Err(err).Msg("failed to load .env file")
			}

			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			} else if cfgPath != "" {
				return fmt.Errorf("config file %s not found", cfgPath)
			}

			// Env overrides the file; flags override both via changed.
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			zl, closer, err := cliconfig.NewLogger(cfg.LogLevel, cfg.LogFile)
			if err != nil {
				return err
			}
			defer closer.Close()
			logger := log.NewZerologAdapterWithLogger(zl)

			zl.Info().Interface("config", cfg).Msg("configuration")

			sessionCfg, err := cfg.SessionConfig()
			if err != nil {
				return err
			}
			s, err := canvasship.New(sessionCfg,
				canvasship.WithLogger(logger),
				canvasship.WithEventHandler(&cliEvents{logger: logger}),
			)
			if err != nil {
				return fmt.Errorf("create session: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := s.Start(ctx); err != nil {
				return fmt.Errorf("start session: %w", err)
			}

			select {
			case <-ctx.Done():
				logger.Info("received signal, stopping")
			case <-s.Done():
			}

			if err := s.Stop(); err != nil && !errors.Is(err, canvasship.ErrNotRunning) {
				return fmt.Errorf("stop session: %w", err)
			}
			if s.Status() == canvasship.StateCrashed {
				return fmt.Errorf("session crashed: %w", s.Err())
			}
			return nil
		},
	}

	f := root.Flags()
	f.StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.canvasship/config.toml)")
	f.StringVar(&cfg.DocumentPath, "document", cfg.DocumentPath, "surface document (JSON) to watch")
	f.StringVar(&cfg.Viewport, "viewport", cfg.Viewport, `viewport override: "WxH" centred, or "x,y,w,h"`)

	f.StringVar(&cfg.TunnelHost, "tunnel-host", cfg.TunnelHost, "relay host for the frame tunnel")
	f.IntVar(&cfg.TunnelPort, "tunnel-port", cfg.TunnelPort, "relay port for the frame tunnel")
	f.IntVar(&cfg.MaxFrameBytes, "max-frame-bytes", cfg.MaxFrameBytes, "largest accepted frame payload")

	f.StringVar(&cfg.ServiceURL, "service-url", cfg.ServiceURL, "recognition service base URL")
	f.StringVar(&cfg.UploadPath, "upload-path", cfg.UploadPath, "recognition endpoint path")
	f.DurationVar(&cfg.HTTPTimeout, "timeout", cfg.HTTPTimeout, "HTTP and dial timeout")

	f.DurationVar(&cfg.Quiet, "quiet", cfg.Quiet, "quiet period after the last change before capturing")
	f.Float64Var(&cfg.GrowMargin, "grow-margin", cfg.GrowMargin, "distance from the surface edge that triggers growth")
	f.Float64Var(&cfg.MaxSurface, "max-surface", cfg.MaxSurface, "maximum surface width and height")
	f.Float64Var(&cfg.InitialSurface, "initial-surface", cfg.InitialSurface, "initial surface width and height")

	f.StringVar(&cfg.StateDir, "state-dir", cfg.StateDir, "directory for status.json (defaults to the document directory)")
	f.StringVar(&cfg.RelayListen, "relay-listen", cfg.RelayListen, `frame relay listen address ("" disables)`)
	f.DurationVar(&cfg.BackoffInitial, "backoff-initial", cfg.BackoffInitial, "first tunnel reconnect delay")
	f.DurationVar(&cfg.BackoffMax, "backoff-max", cfg.BackoffMax, "largest tunnel reconnect delay")

	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	f.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "also write JSON logs to this rotating file")
	f.BoolVar(&cfg.Once, "once", cfg.Once, "capture and upload the current document once, then exit")

	if err := root.Execute(); err != nil {
		bootLog.Error().Err(err).Msg("canvasship")
		os.Exit(1)
	}
}

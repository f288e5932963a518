package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/sliink/extloader/internal/api"
	"github.com/sliink/extloader/internal/core"
	"github.com/sliink/extloader/internal/logging"
	"github.com/sliink/extloader/internal/plugin"
	"github.com/sliink/extloader/internal/plugin/apps"
	"github.com/sliink/extloader/internal/plugin/outputs"
)

var (
	configFile  string
	debug       bool
	apiEnabled  bool
	apiPort     int
	apiHost     string
	jsonFormat  bool
	colorize    bool
	loadTimeout time.Duration
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "extloader",
		Short:         "Extension Loader - Preload app plugins and serve their extensions",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	// API server flags
	rootCmd.PersistentFlags().BoolVar(&apiEnabled, "api", true, "Enable the API server")
	rootCmd.PersistentFlags().IntVar(&apiPort, "api-port", 8080, "API server port")
	rootCmd.PersistentFlags().StringVar(&apiHost, "api-host", "localhost", "API server host")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the loader and its API server until interrupted (default)",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	})

	loadCmd := &cobra.Command{
		Use:   "load <app-id>...",
		Short: "Preload apps once, together with the apps marked for preload, and print the registered extensions",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runLoad,
	}
	loadCmd.Flags().BoolVar(&jsonFormat, "json", false, "Output in JSON format")
	loadCmd.Flags().BoolVar(&colorize, "color", false, "Colorize output")
	loadCmd.Flags().DurationVar(&loadTimeout, "timeout", 30*time.Second, "Time to wait for the apps to load")
	rootCmd.AddCommand(loadCmd)

	return rootCmd
}

func runServe(cmd *cobra.Command, args []string) error {
	config, log, err := setup()
	if err != nil {
		return err
	}

	c, err := newCore(config, log)
	if err != nil {
		return err
	}
	if !c.Start() {
		return errors.New("failed to start core system")
	}
	log.Info("Extension loader is running. Press Ctrl+C to stop.")

	if !cmd.Flags().Changed("api") {
		apiEnabled = config.GetBool("api.enabled")
	}
	if !cmd.Flags().Changed("api-port") {
		apiPort = config.GetInt("api.port")
	}
	if !cmd.Flags().Changed("api-host") {
		apiHost = config.GetString("api.host")
	}

	var apiServer *api.API
	if apiEnabled {
		apiServer = api.NewAPI(c, apiPort, apiHost)
		go func() {
			if err := apiServer.Start(); err != nil {
				log.Error(err, "API server error")
			}
		}()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	if apiServer != nil {
		log.Info("Shutting down API server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := apiServer.Stop(shutdownCtx); err != nil {
			log.Error(err, "API server shutdown error")
		}
	}

	log.Info("Shutting down...")
	if !c.Stop() {
		return errors.New("failed to stop core system cleanly")
	}
	log.Info("Shutdown complete")
	return nil
}

func runLoad(cmd *cobra.Command, args []string) error {
	config, log, err := setup()
	if err != nil {
		return err
	}

	c, err := newCore(config, log)
	if err != nil {
		return err
	}
	defer c.Stop()

	// Apps marked for preload are loaded alongside the requested ones
	if !c.Start() {
		return errors.New("failed to start core system")
	}
	c.LoadAppPlugins(args)

	ctx, cancel := context.WithTimeout(cmd.Context(), loadTimeout)
	defer cancel()
	if err := c.Loader().Wait(ctx); err != nil {
		return fmt.Errorf("waiting for apps to load: %w", err)
	}

	format := outputs.FormatText
	if jsonFormat {
		format = outputs.FormatJSON
	}
	return outputs.NewRegistryPrinter(cmd.OutOrStdout(), format, colorize).Print(c.Registries().Snapshot())
}

// setup loads the configuration file, if any, and builds the logger
func setup() (*core.ConfigManager, logr.Logger, error) {
	config := core.NewConfigManager()
	if configFile != "" {
		if err := config.LoadConfig(configFile); err != nil {
			return nil, logr.Discard(), fmt.Errorf("failed to load configuration: %w", err)
		}
	}

	log, err := logging.New(debug || config.GetBool("log.debug"))
	if err != nil {
		return nil, logr.Discard(), err
	}
	if configFile != "" {
		log.Info("Loaded configuration", "file", configFile)
	}
	return config, log, nil
}

// newCore wires the built-in apps and on-disk manifests into an initialized core.
// Relative manifest paths resolve against the directory of the configuration file.
func newCore(config *core.ConfigManager, log logr.Logger) (*core.Core, error) {
	factory := plugin.NewPluginFactory()
	apps.RegisterStandardApps(factory)

	root := "."
	if configFile != "" {
		root = filepath.Dir(configFile)
	}
	importer := plugin.NewImporter(factory, plugin.NewManifestImporter(root))

	c := core.NewCore(
		core.WithConfigManager(config),
		core.WithImporter(importer),
		core.WithLogger(log),
	)
	if !c.Initialize() {
		return nil, errors.New("failed to initialize core system")
	}
	return c, nil
}

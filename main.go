package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aouyang1/photobooth/api"
	"github.com/aouyang1/photobooth/booth"
	"github.com/aouyang1/photobooth/config"
	"github.com/aouyang1/photobooth/gallery"
	"github.com/aouyang1/photobooth/store"
	"github.com/spf13/cobra"
)

var configFlag string

// rootCmd is the photobooth CLI.
var rootCmd = &cobra.Command{
	Use:   "photobooth",
	Short: "Browser photo booth with countdown capture, strip composites, print and QR sharing",
	Long: `Photobooth serves a browser booth: the page opens the camera, the server runs the
countdown and capture sequence, composes the shots into a strip, grid or single print
and keeps a gallery that can be downloaded, printed or shared by QR code.

Examples:
  PB_ROOT_PATH=/var/lib/photobooth photobooth serve
  photobooth serve --config booth.yaml
  photobooth compose --template grid --out party.png shot1.jpg shot2.jpg
  photobooth captures list --server http://booth.local:8080
  photobooth passwd --config booth.yaml`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the booth web server",
	Run:   runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", os.Getenv("PB_CONFIG"), "Path to a .yaml config file (PB_CONFIG)")
	rootCmd.AddCommand(serveCmd, composeCmd, capturesCmd, passwdCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config and installs the default logger at its level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	database, err := store.NewDatabase(cfg.DatabasePath())
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	var uploader gallery.Uploader
	if cfg.S3Bucket != "" {
		s3Uploader, err := gallery.NewS3Uploader(ctx, cfg.S3Bucket, cfg.S3Prefix, cfg.AWSProfile)
		if err != nil {
			log.Fatalf("Failed to initialize s3 uploader: %v", err)
		}
		uploader = s3Uploader
		slog.Info("uploading captures to s3", "bucket", cfg.S3Bucket, "prefix", cfg.S3Prefix)
	}

	g, err := gallery.NewGallery(cfg.CapturesPath(), database, uploader)
	if err != nil {
		log.Fatalf("Failed to initialize gallery: %v", err)
	}

	webServer, err := api.NewWebServer(cfg, database, g, booth.DefaultTiming())
	if err != nil {
		log.Fatalf("Failed to initialize web server: %v", err)
	}

	if err := webServer.Run(ctx); err != nil {
		log.Fatalf("Web server failed: %v", err)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/text-detect-mcp/internal/annotate"
	"github.com/ironsheep/text-detect-mcp/internal/config"
	"github.com/ironsheep/text-detect-mcp/internal/detection"
	"github.com/ironsheep/text-detect-mcp/internal/logger"
	"github.com/ironsheep/text-detect-mcp/internal/ocr"
	"github.com/ironsheep/text-detect-mcp/internal/pipeline"
	"github.com/ironsheep/text-detect-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("text-detect-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		}
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.Logger.Fatalf("Invalid configuration: %v", err)
	}
	logger.Configure(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, os.Stdin, os.Stdout)
	stop()
	if err != nil {
		logger.WithError(err).Error("Server error")
		os.Exit(1)
	}
}

// run builds the pipeline from cfg and serves MCP requests from r to w until
// r is exhausted or ctx is cancelled. Everything it opens is closed before it
// returns.
func run(ctx context.Context, cfg *config.Config, r io.Reader, w io.Writer) error {
	logger.WithFields(map[string]interface{}{
		"version": Version,
		"built":   BuildTime,
		"commit":  GitCommit,
		"engine":  cfg.Engine,
	}).Info("Starting text-detect-mcp")

	detector, closeDetector, err := newDetector(cfg)
	if err != nil {
		return fmt.Errorf("text detector unavailable: %w", err)
	}
	defer closeDetector()

	style, err := annotate.NewStyle(cfg.BoxColor, cfg.LabelColor, cfg.StrokeWidth, cfg.FontSize)
	if err != nil {
		return fmt.Errorf("invalid annotation style: %w", err)
	}
	annotator, err := annotate.New(style)
	if err != nil {
		return fmt.Errorf("failed to create annotator: %w", err)
	}

	ctrl := pipeline.NewController(detector, annotator, pipeline.Options{
		ArtifactPath:  cfg.ArtifactPath,
		ThumbnailSize: cfg.ThumbnailSize,
		JPEGQuality:   cfg.JPEGQuality,
	})

	if Version != "dev" {
		server.Version = Version
	}
	if err := server.New(ctrl).Serve(ctx, r, w); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newDetector builds the configured engine once for the process lifetime.
func newDetector(cfg *config.Config) (detection.Detector, func(), error) {
	switch cfg.Engine {
	case config.EngineEdge:
		return detection.NewEdgeDetector(cfg.MinConfidence), func() {}, nil
	default:
		level, err := ocr.ParseLevel(cfg.Level)
		if err != nil {
			return nil, nil, err
		}
		t, err := ocr.NewTesseract(ocr.Options{
			Languages:   cfg.Languages(),
			TessdataDir: cfg.TessdataDir,
			Level:       level,
		})
		if err != nil {
			return nil, nil, err
		}
		logger.WithField("languages", t.Languages()).Debug("Tesseract ready")
		return t, func() {
			if err := t.Close(); err != nil {
				logger.WithError(err).Warn("Failed to close tesseract")
			}
		}, nil
	}
}

func printHelp() {
	fmt.Println("text-detect-mcp - MCP server for text detection and annotation")
	fmt.Println()
	fmt.Println("Usage: text-detect-mcp [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  TEXT_DETECT_LOG_LEVEL=info          debug, info, warn or error")
	fmt.Println("  TEXT_DETECT_LOG_FORMAT=text         text or json")
	fmt.Println("  TEXT_DETECT_ENGINE=tesseract        tesseract or edge")
	fmt.Println("  TEXT_DETECT_LANGUAGE=eng            Tesseract languages, joined with +")
	fmt.Println("  TEXT_DETECT_TESSDATA=               Tesseract data directory")
	fmt.Println("  TEXT_DETECT_LEVEL=word              word, line or block")
	fmt.Println("  TEXT_DETECT_MIN_CONFIDENCE=0        edge engine threshold (0-1)")
	fmt.Println("  TEXT_DETECT_ARTIFACT=detected_text.txt")
	fmt.Println("  TEXT_DETECT_BOX_COLOR=#00FF00")
	fmt.Println("  TEXT_DETECT_LABEL_COLOR=#0000FF")
	fmt.Println("  TEXT_DETECT_STROKE=2")
	fmt.Println("  TEXT_DETECT_FONT_SIZE=18")
	fmt.Println("  TEXT_DETECT_THUMBNAIL=400")
	fmt.Println("  TEXT_DETECT_JPEG_QUALITY=95")
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client.")
}

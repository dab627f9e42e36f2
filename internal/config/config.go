package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// Detection engines selectable with TEXT_DETECT_ENGINE.
const (
	EngineTesseract = "tesseract"
	EngineEdge      = "edge"
)

// Config holds the process configuration read from the environment.
type Config struct {
	LogLevel  string
	LogFormat string

	Engine        string
	Language      string
	TessdataDir   string
	Level         string
	MinConfidence float64

	ArtifactPath string

	BoxColor    string
	LabelColor  string
	StrokeWidth int
	FontSize    float64

	ThumbnailSize int
	JPEGQuality   int
}

// LoadFromEnv reads TEXT_DETECT_* variables, applies defaults and validates
// the result.
func LoadFromEnv() (*Config, error) {
	var errs []error
	intVar := func(key string, def int) int {
		v, err := parseIntOrDefault(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}
	floatVar := func(key string, def float64) float64 {
		v, err := parseFloatOrDefault(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}

	cfg := &Config{
		LogLevel:      getEnvOrDefault("TEXT_DETECT_LOG_LEVEL", "info"),
		LogFormat:     getEnvOrDefault("TEXT_DETECT_LOG_FORMAT", "text"),
		Engine:        strings.ToLower(getEnvOrDefault("TEXT_DETECT_ENGINE", EngineTesseract)),
		Language:      getEnvOrDefault("TEXT_DETECT_LANGUAGE", "eng"),
		TessdataDir:   os.Getenv("TEXT_DETECT_TESSDATA"),
		Level:         strings.ToLower(getEnvOrDefault("TEXT_DETECT_LEVEL", "word")),
		MinConfidence: floatVar("TEXT_DETECT_MIN_CONFIDENCE", 0),
		ArtifactPath:  getEnvOrDefault("TEXT_DETECT_ARTIFACT", "detected_text.txt"),
		BoxColor:      getEnvOrDefault("TEXT_DETECT_BOX_COLOR", "#00FF00"),
		LabelColor:    getEnvOrDefault("TEXT_DETECT_LABEL_COLOR", "#0000FF"),
		StrokeWidth:   intVar("TEXT_DETECT_STROKE", 2),
		FontSize:      floatVar("TEXT_DETECT_FONT_SIZE", 18),
		ThumbnailSize: intVar("TEXT_DETECT_THUMBNAIL", 400),
		JPEGQuality:   intVar("TEXT_DETECT_JPEG_QUALITY", 95),
	}
	if len(errs) > 0 {
		return nil, errs[0]
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	switch c.Engine {
	case EngineTesseract, EngineEdge:
	default:
		return fmt.Errorf("invalid TEXT_DETECT_ENGINE: %q (want %q or %q)", c.Engine, EngineTesseract, EngineEdge)
	}
	switch c.Level {
	case "word", "line", "block":
	default:
		return fmt.Errorf("invalid TEXT_DETECT_LEVEL: %q (want word, line or block)", c.Level)
	}
	if strings.TrimSpace(c.Language) == "" {
		return fmt.Errorf("TEXT_DETECT_LANGUAGE must not be empty")
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("TEXT_DETECT_MIN_CONFIDENCE must be within [0,1] (got %g)", c.MinConfidence)
	}
	if strings.TrimSpace(c.ArtifactPath) == "" {
		return fmt.Errorf("TEXT_DETECT_ARTIFACT must not be empty")
	}
	if c.StrokeWidth < 1 {
		return fmt.Errorf("TEXT_DETECT_STROKE must be >= 1 (got %d)", c.StrokeWidth)
	}
	if c.FontSize <= 0 {
		return fmt.Errorf("TEXT_DETECT_FONT_SIZE must be > 0 (got %g)", c.FontSize)
	}
	if c.ThumbnailSize < 1 {
		return fmt.Errorf("TEXT_DETECT_THUMBNAIL must be >= 1 (got %d)", c.ThumbnailSize)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("TEXT_DETECT_JPEG_QUALITY must be within [1,100] (got %d)", c.JPEGQuality)
	}
	return nil
}

// Languages splits the Tesseract language setting ("eng+deu") into codes.
func (c *Config) Languages() []string {
	parts := strings.Split(c.Language, "+")
	langs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			langs = append(langs, p)
		}
	}
	return langs
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// parseIntOrDefault returns defaultValue when key is unset and an error when
// it is set to something that is not an integer.
func parseIntOrDefault(key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q is not an integer", key, value)
	}
	return n, nil
}

func parseFloatOrDefault(key string, defaultValue float64) (float64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid %s: %q is not a number", key, value)
	}
	return f, nil
}

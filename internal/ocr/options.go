package ocr

import (
	"fmt"
	"strings"
)

// Level selects the granularity of reported regions.
type Level string

// Supported iterator levels.
const (
	LevelWord  Level = "word"
	LevelLine  Level = "line"
	LevelBlock Level = "block"
)

// ParseLevel accepts "word", "line" or "block" in any case.
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case LevelWord:
		return LevelWord, nil
	case LevelLine:
		return LevelLine, nil
	case LevelBlock:
		return LevelBlock, nil
	default:
		return "", fmt.Errorf("unknown iterator level: %q", s)
	}
}

// Options configures a Tesseract detector.
type Options struct {
	// Languages are Tesseract language codes, e.g. "eng" or "deu".
	Languages []string

	// TessdataDir overrides the directory holding *.traineddata files.
	// Empty uses the engine's compiled-in default.
	TessdataDir string

	// Level selects word, line or block regions.
	Level Level
}

// DefaultOptions returns English word-level detection.
func DefaultOptions() Options {
	return Options{
		Languages: []string{"eng"},
		Level:     LevelWord,
	}
}

func (o Options) withDefaults() Options {
	if len(o.Languages) == 0 {
		o.Languages = []string{"eng"}
	}
	if o.Level == "" {
		o.Level = LevelWord
	}
	return o
}

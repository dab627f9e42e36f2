package annotate

import (
	"fmt"
	"os"
	"strings"

	"github.com/ironsheep/text-detect-mcp/internal/detection"
)

// SerializeText joins the recognized strings with "\n" in region order.
// No trailing newline is added.
func SerializeText(regions []detection.Region) string {
	return strings.Join(detection.Texts(regions), "\n")
}

// WriteTextArtifact overwrites the file at path with SerializeText(regions).
func WriteTextArtifact(path string, regions []detection.Region) error {
	if err := os.WriteFile(path, []byte(SerializeText(regions)), 0o644); err != nil {
		return fmt.Errorf("failed to write text artifact: %w", err)
	}
	return nil
}

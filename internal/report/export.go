package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/iishyfishyy/learnq/internal/lms"
)

// DefaultExportPath is where -write puts the course dump.
const DefaultExportPath = "courseData.json"

// WriteCourses dumps courses to path as indented JSON, or YAML when the path
// ends in .yaml or .yml.
func WriteCourses(path string, courses []lms.Course) error {
	if path == "" {
		path = DefaultExportPath
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(courses)
	default:
		data, err = json.MarshalIndent(courses, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode courses: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

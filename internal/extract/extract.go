package extract

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/ralt/ghfetch/internal/models"
	"github.com/sirupsen/logrus"
)

// Format represents a supported archive format
type Format int

const (
	FormatUnknown Format = iota
	FormatTarGz
	FormatTarBz2
	FormatZip
	FormatTarZst
	FormatTarXz
)

// String returns the string representation of Format
func (f Format) String() string {
	switch f {
	case FormatTarGz:
		return "tar.gz"
	case FormatTarBz2:
		return "tar.bz2"
	case FormatZip:
		return "zip"
	case FormatTarZst:
		return "tar.zst"
	case FormatTarXz:
		return "tar.xz"
	default:
		return "unknown"
	}
}

// strategy describes how one archive format is extracted: the external tools
// it needs, the command line it runs, and the in-process fallback used when a
// tool is missing from PATH.
type strategy struct {
	tools  []string
	argv   func(archive, dest string) []string
	native func(archive, dest string) error
}

var strategies = map[Format]strategy{
	FormatTarGz: {
		tools:  []string{"tar"},
		argv:   func(a, d string) []string { return []string{"tar", "-xzf", a, "-C", d} },
		native: extractTarGz,
	},
	FormatTarBz2: {
		tools:  []string{"tar", "bzip2"},
		argv:   func(a, d string) []string { return []string{"tar", "-xjf", a, "-C", d} },
		native: extractTarBz2,
	},
	FormatZip: {
		tools:  []string{"unzip"},
		argv:   func(a, d string) []string { return []string{"unzip", "-o", a, "-d", d} },
		native: extractZip,
	},
	FormatTarZst: {
		tools: []string{"tar", "unzstd"},
		argv: func(a, d string) []string {
			return []string{"tar", "--use-compress-program=unzstd", "-xf", a, "-C", d}
		},
		native: extractTarZst,
	},
	FormatTarXz: {
		tools:  []string{"tar", "xz"},
		argv:   func(a, d string) []string { return []string{"tar", "-xJf", a, "-C", d} },
		native: extractTarXz,
	},
}

// suffixes maps filename suffixes to formats, ordered longest-first so that
// dispatch always picks the longest matching suffix.
var suffixes = []struct {
	suffix string
	format Format
}{
	{".tar.gz", FormatTarGz},
	{".tgz", FormatTarGz},
	{".tar.bz2", FormatTarBz2},
	{".tbz", FormatTarBz2},
	{".zip", FormatZip},
	{".tar.zst", FormatTarZst},
	{".tar.xz", FormatTarXz},
	{".txz", FormatTarXz},
}

func init() {
	sort.SliceStable(suffixes, func(i, j int) bool {
		return len(suffixes[i].suffix) > len(suffixes[j].suffix)
	})
}

// FormatFor selects the archive format for a filename by longest matching
// suffix. An unrecognized suffix fails before any extraction attempt.
func FormatFor(filename string) (Format, error) {
	for _, s := range suffixes {
		if strings.HasSuffix(filename, s.suffix) {
			return s.format, nil
		}
	}
	return FormatUnknown, &models.FetchError{
		Type:   models.ErrUnsupportedFormat,
		Detail: filename,
		Err:    fmt.Errorf("unsupported archive suffix"),
	}
}

// Extract unpacks archivePath into destDir, dispatching on the archive's
// filename suffix. The external tool for the format is used when present on
// PATH; otherwise extraction falls back to the in-process decoder.
func Extract(ctx context.Context, archivePath, destDir string) error {
	format, err := FormatFor(archivePath)
	if err != nil {
		return err
	}

	s := strategies[format]

	if bin, ok := missingTool(s.tools); ok {
		logrus.Warnf("%s not found on PATH, extracting %s archive in-process", bin, format)
		if err := s.native(archivePath, destDir); err != nil {
			return &models.FetchError{
				Type:   models.ErrFileOp,
				Detail: archivePath,
				Err:    fmt.Errorf("extract %s archive: %w", format, err),
			}
		}
		return nil
	}

	argv := s.argv(archivePath, destDir)
	logrus.Debugf("Running: %s", strings.Join(argv, " "))

	if err := runCommand(ctx, argv); err != nil {
		return &models.FetchError{
			Type:   models.ErrSubprocess,
			Detail: archivePath,
			Err:    err,
		}
	}

	return nil
}

func missingTool(tools []string) (string, bool) {
	for _, tool := range tools {
		if _, err := exec.LookPath(tool); err != nil {
			return tool, true
		}
	}
	return "", false
}

// maxCommandError bounds how much tool output is carried in an error
const maxCommandError = 2048

func runCommand(ctx context.Context, argv []string) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var combined bytes.Buffer
	cmd.Stdout = &combined
	cmd.Stderr = &combined
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %s", strings.Join(argv, " "), trimCommandOutput(combined.String()))
	}
	return nil
}

func trimCommandOutput(out string) string {
	clean := strings.TrimSpace(out)
	if clean == "" {
		return "command failed"
	}
	if len(clean) > maxCommandError {
		return clean[:maxCommandError] + "..."
	}
	return clean
}

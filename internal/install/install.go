package install

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ralt/ghfetch/internal/models"
	"github.com/ralt/ghfetch/internal/utils"
	"github.com/sirupsen/logrus"
)

// Install copies the files matching glob (relative to searchDir) into outDir.
// Each file keeps its basename, except when exactly one file matched and
// rename is non-empty, in which case the single destination name is rename.
// With setExec, every installed file is chmodded to 0755. Returns the
// destination paths of the installed files.
func Install(searchDir, glob, outDir, rename string, setExec bool) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(searchDir, glob))
	if err != nil {
		return nil, &models.FetchError{
			Type:   models.ErrInvalidConfig,
			Detail: glob,
			Err:    fmt.Errorf("bad binfiles glob: %w", err),
		}
	}

	if len(matches) == 0 {
		return nil, &models.FetchError{
			Type:   models.ErrNotFound,
			Detail: glob,
			Err:    fmt.Errorf("no extracted files match glob"),
		}
	}

	if err := utils.EnsureDir(outDir); err != nil {
		return nil, &models.FetchError{
			Type:   models.ErrFileOp,
			Detail: outDir,
			Err:    fmt.Errorf("create output directory: %w", err),
		}
	}

	var installed []string
	for _, src := range matches {
		name := filepath.Base(src)
		if rename != "" && len(matches) == 1 {
			name = rename
		}
		dst := filepath.Join(outDir, name)

		if err := utils.CopyFile(src, dst); err != nil {
			return installed, &models.FetchError{
				Type:   models.ErrFileOp,
				Detail: dst,
				Err:    fmt.Errorf("copy %s: %w", src, err),
			}
		}

		if setExec {
			if err := os.Chmod(dst, 0755); err != nil {
				return installed, &models.FetchError{
					Type:   models.ErrFileOp,
					Detail: dst,
					Err:    fmt.Errorf("chmod: %w", err),
				}
			}
		}

		logrus.Infof("Installed %s", dst)
		installed = append(installed, dst)
	}

	return installed, nil
}

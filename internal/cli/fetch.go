package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/ralt/ghfetch/internal/extract"
	"github.com/ralt/ghfetch/internal/github"
	"github.com/ralt/ghfetch/internal/install"
	"github.com/ralt/ghfetch/internal/models"
	"github.com/ralt/ghfetch/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewFetchCmd creates the fetch command
func NewFetchCmd() *cobra.Command {
	var config models.FetchConfig

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch and install the latest release of a repository",
		Long: `Queries the GitHub API for the latest release of a repository,
downloads the first asset matching the pattern, extracts it and
installs the files selected by the binfiles glob.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Layer in config file and environment for the optional settings
			if err := resolveOptions(cmd, &config); err != nil {
				return err
			}

			// Validate configuration
			if err := validateConfig(&config); err != nil {
				return err
			}

			logrus.Infof("Fetching latest release of %s...", config.Repo)
			logrus.Debugf("Configuration: %+v", config)

			// Run the pipeline
			return runFetch(cmd.Context(), &config)
		},
	}

	// Repository selection flags
	cmd.Flags().StringVar(&config.Repo, "repo", "", "Repository as owner/repo (required)")
	cmd.Flags().StringVar(&config.Pattern, "pattern", "", "Regex matched against asset names (required)")

	// Install flags
	cmd.Flags().StringVar(&config.OutputDir, "outdir", "", "Directory to install files into (required)")
	cmd.Flags().StringVar(&config.BinFiles, "binfiles", "", "Glob selecting extracted files to install (required)")
	cmd.Flags().StringVar(&config.Rename, "rename", "", "Destination name when the glob matches a single file")
	cmd.Flags().BoolVar(&config.SetExec, "setexec", false, "Set the executable bit on installed files")

	// Download flags
	cmd.Flags().StringVar(&config.DownloadDir, "downloaddir", "", "Download directory (a temp dir is used when unset)")
	cmd.Flags().StringVar(&config.Token, "token", "", "GitHub token (falls back to GITHUB_TOKEN)")

	_ = cmd.MarkFlagRequired("repo")
	_ = cmd.MarkFlagRequired("pattern")
	_ = cmd.MarkFlagRequired("outdir")
	_ = cmd.MarkFlagRequired("binfiles")

	return cmd
}

// resolveOptions fills the optional settings from a ghfetch.yaml config file
// and the environment. Precedence: flag > environment > config file.
func resolveOptions(cmd *cobra.Command, config *models.FetchConfig) error {
	v := viper.New()
	v.SetConfigName("ghfetch")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return &models.FetchError{
				Type: models.ErrInvalidConfig,
				Err:  fmt.Errorf("read config file: %w", err),
			}
		}
		logrus.Debug("No ghfetch.yaml found, using flags and environment only")
	} else {
		logrus.Debugf("Using config file: %s", v.ConfigFileUsed())
	}

	_ = v.BindEnv("token", "GITHUB_TOKEN")
	for _, name := range []string{"token", "downloaddir", "rename", "setexec"} {
		_ = v.BindPFlag(name, cmd.Flags().Lookup(name))
	}

	config.Token = v.GetString("token")
	config.DownloadDir = v.GetString("downloaddir")
	config.Rename = v.GetString("rename")
	config.SetExec = v.GetBool("setexec")

	return nil
}

func validateConfig(config *models.FetchConfig) error {
	owner, repo, ok := strings.Cut(config.Repo, "/")
	if !ok || owner == "" || repo == "" {
		return &models.FetchError{
			Type: models.ErrInvalidConfig,
			Err:  fmt.Errorf("repo must be owner/repo, got %q", config.Repo),
		}
	}

	if _, err := regexp2.Compile(config.Pattern, regexp2.None); err != nil {
		return &models.FetchError{
			Type: models.ErrInvalidConfig,
			Err:  fmt.Errorf("invalid asset pattern %q: %w", config.Pattern, err),
		}
	}

	if config.OutputDir == "" {
		return &models.FetchError{
			Type: models.ErrInvalidConfig,
			Err:  fmt.Errorf("outdir is required"),
		}
	}

	if config.BinFiles == "" {
		return &models.FetchError{
			Type: models.ErrInvalidConfig,
			Err:  fmt.Errorf("binfiles is required"),
		}
	}

	return nil
}

func runFetch(ctx context.Context, config *models.FetchConfig) error {
	// Step 1: Pick the download directory; a temp dir is removed on exit
	// whether or not the run succeeds, a supplied one is created and kept
	downloadDir := config.DownloadDir
	if downloadDir == "" {
		tmp, err := os.MkdirTemp("", "ghfetch-*")
		if err != nil {
			return &models.FetchError{
				Type: models.ErrFileOp,
				Err:  fmt.Errorf("create temp directory: %w", err),
			}
		}
		defer os.RemoveAll(tmp)
		downloadDir = tmp
		logrus.Debugf("Created temporary download directory: %s", tmp)
	} else if err := utils.EnsureDir(downloadDir); err != nil {
		return &models.FetchError{
			Type:   models.ErrFileOp,
			Detail: downloadDir,
			Err:    fmt.Errorf("create download directory: %w", err),
		}
	}

	client, err := github.NewClient(apiBaseURL(), config.Token)
	if err != nil {
		return err
	}

	// Step 2: Resolve the asset download URL
	owner, repo, _ := strings.Cut(config.Repo, "/")
	release, err := client.LatestRelease(ctx, owner, repo)
	if err != nil {
		return err
	}
	logrus.Infof("Latest release: %s (%d assets)", release.TagName, len(release.Assets))

	url, err := github.FindAssetURL(release, config.Pattern)
	if err != nil {
		return err
	}

	// Step 3: Download the archive
	archivePath := filepath.Join(downloadDir, path.Base(url))
	logrus.Infof("Downloading %s", url)
	if err := client.DownloadFile(ctx, url, archivePath); err != nil {
		return err
	}

	// Step 4: Extract
	logrus.Infof("Extracting %s", filepath.Base(archivePath))
	if err := extract.Extract(ctx, archivePath, downloadDir); err != nil {
		return err
	}

	// Step 5: Select and install files
	installed, err := install.Install(downloadDir, config.BinFiles, config.OutputDir, config.Rename, config.SetExec)
	if err != nil {
		return err
	}

	logrus.Infof("Installed %d files to %s", len(installed), config.OutputDir)

	return nil
}

// apiBaseURL allows integration tests to point ghfetch at a local server
func apiBaseURL() string {
	if u := os.Getenv("GHFETCH_API_URL"); u != "" {
		return u
	}
	return github.DefaultBaseURL
}

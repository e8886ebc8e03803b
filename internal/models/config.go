package models

// FetchConfig contains the configuration for a single fetch run
type FetchConfig struct {
	// Repository selection
	Repo    string // owner/repo
	Pattern string // regex matched against asset names

	// Install
	OutputDir string
	BinFiles  string // glob, relative to the extraction directory
	Rename    string // only applied when the glob matches exactly one file
	SetExec   bool

	// Download
	DownloadDir string // optional; a temp dir is used when empty
	Token       string // optional GitHub token
}

package models

// Asset is a downloadable file attached to a GitHub release
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Release models only the fields of the GET /repos/{owner}/{repo}/releases/latest
// response needed to locate assets. A nil Assets slice distinguishes a response
// without an "assets" field from an empty asset list.
type Release struct {
	TagName string  `json:"tag_name"`
	Assets  []Asset `json:"assets"`
}

package version

// Version is the ghfetch release version, overridable at build time:
//
//	go build -ldflags "-X github.com/ralt/ghfetch/internal/version.Version=1.2.3"
var Version = "0.1.0"

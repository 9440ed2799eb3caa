package version

// Version is the engine version. It is set at build time with
// -ldflags "-X github.com/rxtech-lab/argo-sma/internal/version.Version=1.2.3".
// "main" marks a development build.
var Version = "v0.3.0"

func GetVersion() string {
	return Version
}

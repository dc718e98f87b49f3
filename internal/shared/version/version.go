package version

// Version is the reexmap release version. Overridden at build time via
// -ldflags "-X reexmap/internal/shared/version.Version=...".
var Version = "0.4.0"

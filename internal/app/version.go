package app

const ServiceName = "academic-assist"

// Build-time injection variables
// These are set via -ldflags during build:
//
//	go build -ldflags="-X 'academic-assist/internal/app.Version=1.0.0'"
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

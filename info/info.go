package info

const (
	AppName = "gocovtrace"
	Version = "0.0.1"

	DefaultConfigDir     = "./.gocovtrace"
	DefaultConfigName    = "config"
	DefaultEnvPrefix     = "GOCOVTRACE"
	DefaultLogfileEnv    = "GOCOVTRACE_LOG"
	DefaultLogfilePrefix = "./gocovtrace"
)

package config

// Resolver defaults.
const (
	DefaultMaxModuleSize  = "0"
	DefaultPluginSymbol   = "Module"
	DefaultIdentitySource = IdentitySourceChain
)

// DefaultReferenceOnlySegments names the directories holding reference-only artifacts.
var DefaultReferenceOnlySegments = []string{"ref"}

// Logging defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = LogFormatText
)

// Telemetry defaults.
const (
	DefaultSampleRatio  = 1.0
	DefaultOTLPInsecure = false
)

// Identity sources.
const (
	IdentitySourceBuildInfo = "buildinfo"
	IdentitySourceManifest  = "manifest"
	IdentitySourceChain     = "chain"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

package config

import "time"

// Application constants
const (
	// Application Info
	AppName        = "SIGMON QoE Dashboard"
	AppServiceName = "sigmon-dashboard"

	// Rate Limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	// Network Timeouts
	DefaultHTTPTimeout  = 30 * time.Second
	WebSocketPingPeriod = 30 * time.Second
	WebSocketPongWait   = 60 * time.Second

	// File Paths (relative to executable)
	DefaultDataDir         = "data"
	DefaultLogsDir         = "logs"
	DefaultWebDir          = "web"
	DefaultLogFile         = "logs/sigmon.log"
	DefaultCredentialsFile = "credentials.json"

	// Cache Settings
	SheetsCacheDuration = 5 * time.Minute

	// Upload limits
	MaxUploadSize       = 32 << 20
	MaxCredentialSize   = 64 << 10
	MultipartMemoryBase = 8 << 20

	// WebSocket Buffer Sizes
	WebSocketReadBufferSize  = 1024
	WebSocketWriteBufferSize = 1024

	// Log Settings
	DefaultLogLevel = "info"
)

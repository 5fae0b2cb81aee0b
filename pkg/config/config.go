package config

// this holds the resolved configuration values from CLI
//
//nolint:lll // readability
var (
	DB                 string // connection string for the database
	APIURL             string // base URL of the FWT backend REST API
	SupabaseURL        string // base URL of the Supabase project (informational)
	SupabaseJWTSecret  string // shared secret to verify Supabase access tokens
	NatsURL            string // URL of the NATS server (live scoring, lockout store)
	ServerAddr         string // listen addr for the HTTP server
	EventsTTL          string // TTL for offline event snapshots (duration)
	UpstreamTimeout    string // per-request timeout for upstream API calls
	WarmupInterval     string // interval between cache warmer trigger ticks
	SweepInterval      string // interval between snapshot expiry sweeps (0 = reads only)
	WaitForServices    string // duration to wait for other services to be ready
	LogLevel           string // sets the log level (zap log level values)
	SQLLogLevel        string // sets the log level for sql subsystem
	LogFormat          string // text vs json
	LogConfig          string // path to log config file (zapfilter rules)
	MigrationSourceURL string // location of migration files
	EnableTelemetry    bool   // enable telemetry
	TelemetryEndpoint  string // endpoint for telemetry
	ProfilingPort      int    // port for profiling
)

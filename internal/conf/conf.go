package conf

import "google.golang.org/protobuf/types/known/durationpb"

// Bootstrap is the root configuration for the TripAtlas service.
type Bootstrap struct {
	Server *Server
	Data   *Data
	Maps   *Maps
	Log    *Log
}

// Server holds transport configuration.
type Server struct {
	Http *Server_HTTP
}

// Server_HTTP holds HTTP server configuration.
type Server_HTTP struct {
	Network string
	Addr    string
	Timeout *durationpb.Duration
}

// Data holds storage backend configuration.
type Data struct {
	Database *Data_Database
	Redis    *Data_Redis
}

// Data_Database holds MySQL configuration.
type Data_Database struct {
	Driver string
	Source string
}

// Data_Redis holds Redis configuration.
type Data_Redis struct {
	Network      string
	Addr         string
	ReadTimeout  *durationpb.Duration
	WriteTimeout *durationpb.Duration
}

// Maps holds the static map resolution pipeline configuration.
type Maps struct {
	Cache           *Maps_Cache
	Breaker         *Maps_Breaker
	Markers         *Maps_Markers
	Path            *Maps_Path
	Provider        *Maps_Provider
	PlaceholderBase string
}

// Maps_Cache holds the tiered cache knobs.
type Maps_Cache struct {
	Enabled     bool
	L1Capacity  int
	L1Ttl       *durationpb.Duration
	L2Ttl       *durationpb.Duration
	WarmupSpec  string
	WarmupLimit int
}

// Maps_Breaker holds circuit breaker knobs.
type Maps_Breaker struct {
	// FailureRateThreshold 失败率阈值（百分比，默认 50）
	FailureRateThreshold int
	WindowSize           int
	MinCalls             int
	OpenWait             *durationpb.Duration
	HalfOpenCalls        int
}

// Maps_Markers holds per-role marker colors (0xRRGGBB).
type Maps_Markers struct {
	StartColor    string
	EndColor      string
	WaypointColor string
	SupplierColor string
}

// Maps_Path holds default polyline styling.
type Maps_Path struct {
	Color        string
	Weight       int
	Transparency float64
	MaxPoints    int
}

// Maps_Provider holds the external static map provider configuration.
type Maps_Provider struct {
	Endpoint string
	Key      string
	Proxy    string
	Timeout  *durationpb.Duration
}

// Log holds logging configuration.
type Log struct {
	Level      string
	Format     string
	Env        string
	OutputFile string
}

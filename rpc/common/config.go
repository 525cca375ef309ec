package common

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Shared transport configuration
// --------------------------------------------------------------------------

// SocketConf holds socket buffer settings (0 = system default)
type SocketConf struct {
	WriteBufferSize int
	ReadBufferSize  int
}

// TCPConf holds TCP specific connection settings
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int
	TCPLingerSec    int // negative values keep the system default
}

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

type ServerShardType string

const (
	// ShardTypeFile is a catalog persisted in a file below the data directory
	ShardTypeFile ServerShardType = "file"
	// ShardTypeMemory is a volatile catalog that is lost on shutdown
	ShardTypeMemory ServerShardType = "memory"
)

// ParseShardType parses the type of a shard
func ParseShardType(s string) (ServerShardType, error) {
	switch t := ServerShardType(strings.ToLower(strings.TrimSpace(s))); t {
	case ShardTypeFile, ShardTypeMemory:
		return t, nil
	default:
		return "", fmt.Errorf("invalid shard type %q (must be %s or %s)", s, ShardTypeFile, ShardTypeMemory)
	}
}

type ServerShard struct {
	// ShardID is the ID of the shard
	ShardID uint64
	// Type decides where the catalog of the shard is persisted
	Type ServerShardType
}

// ServerTransportConfig holds the settings of the server side transports
type ServerTransportConfig struct {
	WorkersPerConn int // Maximum number of concurrent requests per connection
	BufferSize     int // Size of the pooled read buffers (0 = transport default)
	SocketConf
	TCPConf
}

// ServerConfig holds all configuration parameters for the server.
type ServerConfig struct {
	// The catalogs served by this server
	Shards []ServerShard

	// Storage parameters
	DataDir     string
	SyncWrites  bool
	MaxPages    uint64
	BucketPages uint16

	// Transport parameters
	TimeoutSecond int64
	Endpoint      string
	Transport     ServerTransportConfig

	// Logging configuration
	LogLevel string
}

// ShardPath returns the path of the memory file of a file shard
func (c *ServerConfig) ShardPath(shardId uint64) string {
	return filepath.Join(c.DataDir, fmt.Sprintf("shard-%d.mem", shardId))
}

// HasFileShard checks if the configuration contains any file shards
func (c *ServerConfig) HasFileShard() bool {
	for _, shard := range c.Shards {
		if shard.Type == ShardTypeFile {
			return true
		}
	}
	return false
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// RPC settings
	addSection("RPC Server")
	addField("Endpoint", c.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Workers Per Conn", strconv.Itoa(int(math.Max(1, float64(c.Transport.WorkersPerConn)))))

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	// Shards
	addSection("Shards")
	for _, shard := range c.Shards {
		value := string(shard.Type)
		if shard.Type == ShardTypeFile {
			value = fmt.Sprintf("%s (%s)", shard.Type, c.ShardPath(shard.ShardID))
		}
		addField(strconv.FormatUint(shard.ShardID, 10), value)
	}

	// Storage
	addSection("Storage")
	if c.HasFileShard() {
		addField("Data Directory", c.DataDir)
		addField("Sync Writes", strconv.FormatBool(c.SyncWrites))
	}
	maxPages := "unlimited"
	if c.MaxPages > 0 {
		maxPages = strconv.FormatUint(c.MaxPages, 10)
	}
	addField("Max Pages", maxPages)
	addField("Bucket Pages", strconv.FormatUint(uint64(c.BucketPages), 10))

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

// ClientTransportConfig holds the settings of the client side transports
type ClientTransportConfig struct {
	Endpoints              []string
	RetryCount             int
	ConnectionsPerEndpoint int
	SocketConf
	TCPConf
}

type ClientConfig struct {
	TimeoutSecond int
	// Caller is the identity sent with borrow requests
	Caller    string
	Transport ClientTransportConfig
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// General Client Settings
	addSection("Client Configuration")
	addField("Caller", c.Caller)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.Transport.RetryCount))
	addField("Connections Per Endpoint", strconv.Itoa(int(math.Max(1, float64(c.Transport.ConnectionsPerEndpoint)))))

	// Endpoints
	addSection("Endpoints")
	for i, endpoint := range c.Transport.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}

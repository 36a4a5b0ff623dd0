// Package constants holds the names and defaults shared across neurofig.
package constants

// On-disk layout
const (
	// StateDirName is the per-user and per-project state directory.
	StateDirName = ".neurofig"

	// ConfigFileName is the YAML configuration file inside StateDirName.
	ConfigFileName = "config.yaml"

	// HistoryDBName is the SQLite render history inside the project StateDirName.
	HistoryDBName = "history.db"

	// RenderLogName is the JSONL render trace written at debug level.
	RenderLogName = "renders.jsonl"

	// AuditLogName is the JSONL log of MCP tool calls.
	AuditLogName = "audit.jsonl"
)

// Output defaults
const (
	// DefaultOutputDir is where figures land, relative to the project root.
	DefaultOutputDir = "results"

	// DefaultFormat is the figure file format.
	DefaultFormat = "eps"

	// DefaultDPI applies to raster formats only.
	DefaultDPI = 300
)

// History defaults
const (
	// DefaultHistoryKeep is how many history rows survive automatic pruning.
	// Zero keeps everything.
	DefaultHistoryKeep = 500

	// DefaultHistoryLimit is the row count `neurofig history` shows.
	DefaultHistoryLimit = 20
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "NEUROFIG_"

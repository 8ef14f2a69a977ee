// Package cli implements the cephsnap command-line interface.
//
// # Commands
//
// collect - capture a cluster snapshot:
//
//	cephsnap collect [--result FILE] [--stat-collect-seconds N] [--disable REGEX]...
//
// Discovers monitors, OSDs and hosts through the ceph CLI, runs the role
// collectors over ssh on a bounded worker pool and writes a gzip tar of the
// snapshot directory. With --push the archive is also published to an OCI
// registry.
//
// inspect - print the cluster model of a snapshot:
//
//	cephsnap inspect [--format yaml|json|table] [--output FILE] <dir|archive>
//
// # Global Flags
//
//	--log-level   debug, info, warn, error (default: info)
//	--config      YAML configuration file
//	--help, -h    Show command help
//	--version, -v Show version information
//
// # Configuration
//
// Values are resolved in order: built-in defaults, the --config file,
// CEPHSNAP_* environment variables, then flags. For example --pool-size
// maps to CEPHSNAP_POOL_SIZE.
//
// # Exit Codes
//
//	0  Success, including runs where individual commands failed
//	1  Invalid arguments, unreachable control plane, or inconsistent snapshot
//
// Version information is embedded at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/NVIDIA/cephsnap/pkg/cli.version=1.0.0'"
package cli

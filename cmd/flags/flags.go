// Package flags holds the CLI flag definitions and logger setup shared by the
// paperwall commands.
package flags

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/paperwall/paperwall-agent/common"
	"github.com/paperwall/paperwall-agent/httpserver"
)

func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	logJSON := cCtx.Bool(LogJsonFlag.Name)
	logDebug := cCtx.Bool(LogDebugFlag.Name)
	logUID := cCtx.Bool(LogUidFlag.Name)
	logService := cCtx.String(LogServiceFlag.Name)

	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   logDebug,
		JSON:    logJSON,
		Service: logService,
		Version: common.Version,
	})

	if logUID {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

func ConfigureServer(cCtx *cli.Context, logger *slog.Logger) *httpserver.HTTPServerConfig {
	return &httpserver.HTTPServerConfig{
		ListenAddr:               cCtx.String(ListenAddrFlag.Name),
		MetricsAddr:              cCtx.String(MetricsAddrFlag.Name),
		Log:                      logger,
		EnablePprof:              cCtx.Bool(PprofFlag.Name),
		DrainDuration:            time.Duration(cCtx.Int64(DrainSecondsFlag.Name)) * time.Second,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
	}
}

// defaultWalletURI points at the per-user wallet file.
func defaultWalletURI() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return "file://" + filepath.Join(home, ".paperwall", "wallet.json")
}

var WalletURIFlag = &cli.StringFlag{
	Name:    "wallet-uri",
	Value:   defaultWalletURI(),
	Usage:   "wallet storage URI: file:///path, s3://bucket/prefix?region=..., vault://addr/mount/path",
	EnvVars: []string{"PAPERWALL_WALLET_URI"},
}

var EncryptionModeFlag = &cli.StringFlag{
	Name:  "encryption-mode",
	Value: "machine-bound",
	Usage: "wallet encryption mode: machine-bound, password or env-injected",
}

var NetworkFlag = &cli.StringFlag{
	Name:  "network",
	Value: "eip155:8453",
	Usage: "CAIP-2 network identifier or label, e.g. eip155:8453 or base-sepolia",
}

var NetworkConfigFlag = &cli.StringFlag{
	Name:    "network-config",
	Value:   "",
	Usage:   "JSON file overriding or extending the built-in network registry",
	EnvVars: []string{"PAPERWALL_NETWORK_CONFIG"},
}

var AllowedHostsFlag = &cli.StringSliceFlag{
	Name:  "allowed-host",
	Usage: "restrict payment submission to these hosts (repeatable; empty allows any https host)",
}

var ListenAddrFlag = &cli.StringFlag{
	Name:  "listen-addr",
	Value: "127.0.0.1:8080",
	Usage: "address to listen on for the agent API",
}

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}
var LogServiceFlag = &cli.StringFlag{
	Name:  "log-service",
	Value: "paperwall-agent",
	Usage: "add 'service' tag to logs",
}

var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}
var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 45,
	Usage: "seconds to wait in drain HTTP request",
}
var MetricsAddrFlag = &cli.StringFlag{
	Name:  "metrics-addr",
	Value: "127.0.0.1:8090",
	Usage: "address to listen on for Prometheus metrics",
}

var CommonFlags = []cli.Flag{
	WalletURIFlag,
	NetworkConfigFlag,
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
	LogServiceFlag,
}

var ServerFlags = []cli.Flag{
	ListenAddrFlag,
	MetricsAddrFlag,
	PprofFlag,
	DrainSecondsFlag,
	AllowedHostsFlag,
}

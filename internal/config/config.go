package config

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds the immutable configuration record the source is threaded
// through at startup (§9: "confine to one immutable configuration record").
type Config struct {
	Interface string
	IsWireless bool
	Mode       string // "user", "login-window", "system"

	DBPath string
	Addr   string
	Debug  bool

	Preauth PreauthConfig
}

// PreauthConfig is the "Preauthentication" configuration table (§6).
type PreauthConfig struct {
	EnablePreauthentication       bool
	ScanDelayAuthenticatedSeconds int
	ScanDelayRoamSeconds          int
	ScanPeriodSeconds             int
	NumberOfScans                 int
}

// Load parses command line flags and EAPOLD_-prefixed environment
// variables to populate Config. Flags take precedence over environment
// variables.
func Load() *Config {
	cfg := &Config{}

	cfg.Interface = getEnv("EAPOLD_INTERFACE", "wlan0")
	cfg.IsWireless = getEnvBool("EAPOLD_WIRELESS", true)
	cfg.Mode = getEnv("EAPOLD_MODE", "system")
	cfg.DBPath = getEnv("EAPOLD_DB", getDefaultDBPath())
	cfg.Addr = getEnv("EAPOLD_ADDR", ":8080")

	cfg.Preauth.EnablePreauthentication = getEnvBool("EAPOLD_PREAUTH_ENABLE", false)
	cfg.Preauth.ScanDelayAuthenticatedSeconds = int(getEnvFloat("EAPOLD_PREAUTH_SCAN_DELAY_AUTH", 10))
	cfg.Preauth.ScanDelayRoamSeconds = int(getEnvFloat("EAPOLD_PREAUTH_SCAN_DELAY_ROAM", 10))
	cfg.Preauth.ScanPeriodSeconds = int(getEnvFloat("EAPOLD_PREAUTH_SCAN_PERIOD", -1))
	cfg.Preauth.NumberOfScans = int(getEnvFloat("EAPOLD_PREAUTH_NUM_SCANS", 1))

	flag.StringVar(&cfg.Interface, "interface", cfg.Interface, "Interface to bind the EAPOL transport to")
	flag.BoolVar(&cfg.IsWireless, "wireless", cfg.IsWireless, "Treat the interface as wireless (802.11i pre-auth eligible)")
	flag.StringVar(&cfg.Mode, "mode", cfg.Mode, "Control mode: user, login-window, or system")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the session-history SQLite database")
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP control server address")
	flag.BoolVar(&cfg.Debug, "debug", false, "Enable verbose frame-level debug logging")

	flag.BoolVar(&cfg.Preauth.EnablePreauthentication, "preauth", cfg.Preauth.EnablePreauthentication, "Enable 802.11i pre-authentication orchestration")
	flag.IntVar(&cfg.Preauth.ScanDelayAuthenticatedSeconds, "preauth-scan-delay-authenticated", cfg.Preauth.ScanDelayAuthenticatedSeconds, "Seconds to delay a scan after Authenticated; negative disables")
	flag.IntVar(&cfg.Preauth.ScanDelayRoamSeconds, "preauth-scan-delay-roam", cfg.Preauth.ScanDelayRoamSeconds, "Seconds to delay a scan after a roam; negative disables")
	flag.IntVar(&cfg.Preauth.ScanPeriodSeconds, "preauth-scan-period", cfg.Preauth.ScanPeriodSeconds, "Seconds between periodic scans; non-positive disables")
	flag.IntVar(&cfg.Preauth.NumberOfScans, "preauth-num-scans", cfg.Preauth.NumberOfScans, "Scan attempts per invocation")

	flag.Parse()

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// getDefaultDBPath returns the default database path under the user's
// home directory, creating it if necessary.
func getDefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Printf("warning: could not get user home directory, using current dir: %v", err)
		return "eapolsupd.db"
	}

	dir := filepath.Join(home, ".eapolsupd")
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Printf("warning: could not create %s, using current dir: %v", dir, err)
		return "eapolsupd.db"
	}

	return filepath.Join(dir, "eapolsupd.db")
}

package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config captures the runtime configuration for a SealBid node: the protocol
// parameters applied to newly originated loans and the addresses of the
// trusted external collaborators.
type Config struct {
	DataDir                  string `toml:"DataDir"`
	OracleAddress            string `toml:"OracleAddress"`
	AuctionAddress           string `toml:"AuctionAddress"`
	OwnerAddress             string `toml:"OwnerAddress"`
	AnnualRateBps            uint64 `toml:"AnnualRateBps"`
	ApprovalTTLSeconds       int64  `toml:"ApprovalTTLSeconds"`
	LiquidationWindowSeconds int64  `toml:"LiquidationWindowSeconds"`
}

const (
	defaultAnnualRateBps            = 800
	defaultApprovalTTLSeconds       = 7 * 24 * 60 * 60
	defaultLiquidationWindowSeconds = 7 * 24 * 60 * 60
)

// Load loads the configuration from the given path, creating a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./data"
	}
	if c.AnnualRateBps == 0 {
		c.AnnualRateBps = defaultAnnualRateBps
	}
	if c.ApprovalTTLSeconds == 0 {
		c.ApprovalTTLSeconds = defaultApprovalTTLSeconds
	}
	if c.LiquidationWindowSeconds == 0 {
		c.LiquidationWindowSeconds = defaultLiquidationWindowSeconds
	}
}

// Validate rejects configurations that cannot produce a working node.
func (c *Config) Validate() error {
	if c.AnnualRateBps > 10_000 {
		return fmt.Errorf("AnnualRateBps out of range: %d", c.AnnualRateBps)
	}
	if c.ApprovalTTLSeconds <= 0 {
		return fmt.Errorf("ApprovalTTLSeconds must be positive")
	}
	if c.LiquidationWindowSeconds <= 0 {
		return fmt.Errorf("LiquidationWindowSeconds must be positive")
	}
	for field, value := range map[string]string{
		"OracleAddress":  c.OracleAddress,
		"AuctionAddress": c.AuctionAddress,
		"OwnerAddress":   c.OwnerAddress,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s is required", field)
		}
		if _, err := DecodeAddress(value); err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
	}
	return nil
}

// DecodeAddress parses a 20-byte hex address with optional 0x prefix.
func DecodeAddress(value string) ([20]byte, error) {
	var out [20]byte
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(value), "0x"))
	if err != nil {
		return out, fmt.Errorf("invalid address %q: %w", value, err)
	}
	if len(raw) != 20 {
		return out, fmt.Errorf("invalid address %q: expected 20 bytes, got %d", value, len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

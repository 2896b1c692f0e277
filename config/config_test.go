package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	oracleHex  = "0x0202020202020202020202020202020202020202"
	auctionHex = "0x0404040404040404040404040404040404040404"
	ownerHex   = "0x0101010101010101010101010101010101010101"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
OracleAddress = "`+oracleHex+`"
AuctionAddress = "`+auctionHex+`"
OwnerAddress = "`+ownerHex+`"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "./data", cfg.DataDir)
	require.Equal(t, uint64(defaultAnnualRateBps), cfg.AnnualRateBps)
	require.Equal(t, int64(defaultApprovalTTLSeconds), cfg.ApprovalTTLSeconds)
	require.Equal(t, int64(defaultLiquidationWindowSeconds), cfg.LiquidationWindowSeconds)
}

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, uint64(defaultAnnualRateBps), cfg.AnnualRateBps)

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestLoadRejectsRateOutOfRange(t *testing.T) {
	path := writeConfig(t, `
AnnualRateBps = 10001
OracleAddress = "`+oracleHex+`"
AuctionAddress = "`+auctionHex+`"
OwnerAddress = "`+ownerHex+`"
`)
	_, err := Load(path)
	require.ErrorContains(t, err, "AnnualRateBps")
}

func TestLoadRejectsMissingAddresses(t *testing.T) {
	path := writeConfig(t, `
OracleAddress = "`+oracleHex+`"
OwnerAddress = "`+ownerHex+`"
`)
	_, err := Load(path)
	require.ErrorContains(t, err, "AuctionAddress")
}

func TestLoadRejectsMalformedAddress(t *testing.T) {
	path := writeConfig(t, `
OracleAddress = "0x1234"
AuctionAddress = "`+auctionHex+`"
OwnerAddress = "`+ownerHex+`"
`)
	_, err := Load(path)
	require.ErrorContains(t, err, "OracleAddress")
}

func TestLoadRejectsNegativeWindow(t *testing.T) {
	path := writeConfig(t, `
LiquidationWindowSeconds = -5
OracleAddress = "`+oracleHex+`"
AuctionAddress = "`+auctionHex+`"
OwnerAddress = "`+ownerHex+`"
`)
	_, err := Load(path)
	require.ErrorContains(t, err, "LiquidationWindowSeconds")
}

func TestDecodeAddress(t *testing.T) {
	decoded, err := DecodeAddress(ownerHex)
	require.NoError(t, err)
	require.Equal(t, byte(0x01), decoded[0])
	require.Equal(t, byte(0x01), decoded[19])

	bare, err := DecodeAddress(ownerHex[2:])
	require.NoError(t, err)
	require.Equal(t, decoded, bare)

	_, err = DecodeAddress("0xzz")
	require.Error(t, err)
	_, err = DecodeAddress("0x1234")
	require.Error(t, err)
	_, err = DecodeAddress("")
	require.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_AppliesDefaultsOverUnsetFields(t *testing.T) {
	path := writeTempConfig(t, "rpc_url_http: http://localhost:8545\nrpc_url_ws: ws://localhost:8546\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, 100.0, cfg.MaxGasGwei)
	assert.Equal(t, 3, cfg.PoolMaxFailures)
	assert.Equal(t, uint64(450_000), cfg.MintGasLimit)
}

func TestLoad_RejectsMissingRPCURLs(t *testing.T) {
	path := writeTempConfig(t, "dry_run: true\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsLiveWithoutRiskAcknowledgement(t *testing.T) {
	path := writeTempConfig(t, "rpc_url_http: http://x\nrpc_url_ws: ws://x\ndry_run: false\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsLiveWithoutNFPMAddress(t *testing.T) {
	path := writeTempConfig(t, "rpc_url_http: http://x\nrpc_url_ws: ws://x\ndry_run: false\nlive_risk_acknowledged: true\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_AcceptsLiveWithAcknowledgementAndNFPM(t *testing.T) {
	path := writeTempConfig(t, "rpc_url_http: http://x\nrpc_url_ws: ws://x\ndry_run: false\nlive_risk_acknowledged: true\nnfpm_address: \"0x0000000000000000000000000000000000dEaD\"\n")
	_, err := Load(path)
	assert.NoError(t, err)
}

func TestApplyEnvOverrides_DryRunEnvWins(t *testing.T) {
	t.Setenv("DRY_RUN", "false")
	t.Setenv("LIVE_RISK_ACKNOWLEDGED", "true")
	t.Setenv("RPC_URL_HTTP", "http://env")
	t.Setenv("RPC_URL_WS", "ws://env")
	path := writeTempConfig(t, "rpc_url_http: http://file\nrpc_url_ws: ws://file\nnfpm_address: \"0x0000000000000000000000000000000000dEaD\"\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.DryRun)
	assert.Equal(t, "http://env", cfg.RPCURLHTTP)
}

func TestPoolCooldown_ConvertsMillisecondsToDuration(t *testing.T) {
	cfg := defaultConfig()
	assert.Equal(t, cfg.PoolCooldown().Milliseconds(), int64(cfg.PoolCooldownMS))
}

func TestPoolFloor_ReturnsNilWhenNotConfigured(t *testing.T) {
	cfg := defaultConfig()
	assert.Nil(t, cfg.PoolFloor("unknown-pool"))
}

func TestPoolFloor_ReturnsOverrideWhenConfigured(t *testing.T) {
	cfg := defaultConfig()
	cfg.PoolMinProfitUSD["pool-a"] = 25.0
	got := cfg.PoolFloor("pool-a")
	require.NotNil(t, got)
	assert.Equal(t, 25.0, *got)
}

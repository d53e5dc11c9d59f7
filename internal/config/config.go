package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// DeploymentConfig models deployment.json produced by the contract deploy
// pipeline.
type DeploymentConfig struct {
	ChainID   int64  `json:"chainId"`
	RPCURL    string `json:"rpcUrl"`
	Deployer  string `json:"deployer"`
	Contracts struct {
		EncryptedFileNFT string `json:"EncryptedFileNFT"`
	} `json:"contracts"`
}

// AppConfig ties together the deployment descriptor and service settings.
type AppConfig struct {
	Deployment DeploymentConfig
	Service    ServiceConfig
	Chain      ChainConfig
}

type ServiceConfig struct {
	HTTPPort             int
	HMACSecret           string
	HMACClockSkew        time.Duration
	IdempotencyWindow    time.Duration
	IdempotencyStorePath string
	PostgresDSN          string
}

type ChainConfig struct {
	RPCURL     string
	PrivateKey string
}

const defaultDeploymentPath = "../deployment.json"

// Load aggregates configuration from .env, the deployment descriptor, and
// environment overrides. Environment always wins over file values.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()

	deployPath := envOr("DEPLOYMENT_PATH", defaultDeploymentPath)
	deployCfg, err := loadDeployment(deployPath)
	if err != nil {
		return nil, fmt.Errorf("load deployment: %w", err)
	}

	serviceCfg := ServiceConfig{
		HTTPPort:             envOrInt("API_HTTP_PORT", 3000),
		HMACSecret:           envOr("API_HMAC_SECRET", ""),
		HMACClockSkew:        time.Duration(envOrInt("HMAC_CLOCK_SKEW_SECONDS", 60)) * time.Second,
		IdempotencyWindow:    time.Duration(envOrInt("IDEMPOTENCY_WINDOW_SECONDS", 300)) * time.Second,
		IdempotencyStorePath: envOr("IDEMPOTENCY_STORE_PATH", filepath.Join(os.TempDir(), "filevault-idem.json")),
		PostgresDSN:          envOr("POSTGRES_DSN", ""),
	}

	chainCfg := ChainConfig{
		RPCURL:     envOr("CHAIN_RPC_URL", deployCfg.RPCURL),
		PrivateKey: envOr("CHAIN_PRIVATE_KEY", ""),
	}

	if override := envOr("CONTRACT_ADDRESS", ""); override != "" {
		deployCfg.Contracts.EncryptedFileNFT = override
	}

	return &AppConfig{
		Deployment: *deployCfg,
		Service:    serviceCfg,
		Chain:      chainCfg,
	}, nil
}

func loadDeployment(path string) (*DeploymentConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg DeploymentConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envOr(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
	}
	return fallback
}

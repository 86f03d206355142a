package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/TheTrueTranslate/kototsute-sub000/internal/core/application"
	"github.com/TheTrueTranslate/kototsute-sub000/internal/core/ports"
	"github.com/TheTrueTranslate/kototsute-sub000/internal/infrastructure/cypher"
	"github.com/TheTrueTranslate/kototsute-sub000/internal/infrastructure/db"
	"github.com/TheTrueTranslate/kototsute-sub000/internal/infrastructure/ledger/xrpl"
	"github.com/spf13/viper"
)

var supportedDbs = map[string]struct{}{
	"badger": {},
}

type Config struct {
	Datadir  string
	Port     uint32
	LogLevel int

	DbType string
	DbDir  string

	LedgerRPCURL string

	SystemAccount string
	SystemSecret  string

	EncryptionPassword string

	FeePerTxDrops            string
	BaseReserveFallbackDrops string
	IncReserveFallbackDrops  string

	repo ports.RepoManager
	svc  application.Service
}

var (
	defaultDatadir  = "kototsute-data"
	defaultPort     = 7470
	defaultLogLevel = 4
	defaultDbType   = "badger"

	// Fallbacks only; the live reserve and fee values are fetched from the
	// node on each execution.
	defaultFeePerTx    = "12"
	defaultBaseReserve = "1000000"
	defaultIncReserve  = "200000"
)

func LoadConfig() (*Config, error) {
	viper.SetEnvPrefix("KOTOTSUTE")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	viper.SetDefault("DATADIR", defaultDatadir)
	viper.SetDefault("PORT", defaultPort)
	viper.SetDefault("LOG_LEVEL", defaultLogLevel)
	viper.SetDefault("DB_TYPE", defaultDbType)
	viper.SetDefault("FEE_PER_TX", defaultFeePerTx)
	viper.SetDefault("BASE_RESERVE_FALLBACK", defaultBaseReserve)
	viper.SetDefault("INC_RESERVE_FALLBACK", defaultIncReserve)

	datadir := viper.GetString("DATADIR")
	if err := makeDirectoryIfNotExists(datadir); err != nil {
		return nil, fmt.Errorf("failed to create datadir: %s", err)
	}

	cfg := &Config{
		Datadir:                  datadir,
		Port:                     viper.GetUint32("PORT"),
		LogLevel:                 viper.GetInt("LOG_LEVEL"),
		DbType:                   viper.GetString("DB_TYPE"),
		DbDir:                    filepath.Join(datadir, "db"),
		LedgerRPCURL:             viper.GetString("LEDGER_RPC_URL"),
		SystemAccount:            viper.GetString("SYSTEM_ACCOUNT"),
		SystemSecret:             viper.GetString("SYSTEM_SECRET"),
		EncryptionPassword:       viper.GetString("ENCRYPTION_PASSWORD"),
		FeePerTxDrops:            viper.GetString("FEE_PER_TX"),
		BaseReserveFallbackDrops: viper.GetString("BASE_RESERVE_FALLBACK"),
		IncReserveFallbackDrops:  viper.GetString("INC_RESERVE_FALLBACK"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, ok := supportedDbs[c.DbType]; !ok {
		return fmt.Errorf("db type not supported, please select one of: badger")
	}
	if c.LedgerRPCURL == "" {
		return fmt.Errorf("missing ledger rpc url")
	}
	if c.SystemAccount == "" {
		return fmt.Errorf("missing system account address")
	}
	if c.SystemSecret == "" {
		return fmt.Errorf("missing system account secret")
	}
	if c.EncryptionPassword == "" {
		return fmt.Errorf("missing encryption password")
	}
	return nil
}

func (c *Config) String() string {
	clone := *c
	if clone.SystemSecret != "" {
		clone.SystemSecret = "••••••"
	}
	if clone.EncryptionPassword != "" {
		clone.EncryptionPassword = "••••••"
	}
	buf, err := json.MarshalIndent(clone, "", "  ")
	if err != nil {
		return fmt.Sprintf("error while marshalling config JSON: %s", err)
	}
	return string(buf)
}

func (c *Config) AppService() (application.Service, error) {
	if c.svc == nil {
		if err := c.appService(); err != nil {
			return nil, err
		}
	}
	return c.svc, nil
}

func (c *Config) RepoManager() (ports.RepoManager, error) {
	if c.repo == nil {
		if err := c.repoManager(); err != nil {
			return nil, err
		}
	}
	return c.repo, nil
}

func (c *Config) repoManager() error {
	var dataStoreConfig []interface{}
	switch c.DbType {
	case "badger":
		dataStoreConfig = []interface{}{c.DbDir, nil}
	default:
		return fmt.Errorf("unknown db type")
	}

	repo, err := db.NewService(db.ServiceConfig{
		DataStoreType:   c.DbType,
		DataStoreConfig: dataStoreConfig,
	})
	if err != nil {
		return err
	}
	c.repo = repo
	return nil
}

func (c *Config) appService() error {
	repo, err := c.RepoManager()
	if err != nil {
		return err
	}
	ledger, err := xrpl.NewLedgerGateway(c.LedgerRPCURL)
	if err != nil {
		return err
	}
	secretCypher, err := cypher.New(c.EncryptionPassword)
	if err != nil {
		return err
	}

	svc, err := application.NewService(
		repo, ledger, secretCypher,
		c.SystemAccount, c.SystemSecret,
		c.FeePerTxDrops, c.BaseReserveFallbackDrops, c.IncReserveFallbackDrops,
		nil,
	)
	if err != nil {
		return err
	}
	c.svc = svc
	return nil
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0o755)
	}
	return nil
}

package main

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcutil"
	"gopkg.in/yaml.v2"

	"github.com/ValuedMammal/blockproj/collect"
	"github.com/ValuedMammal/blockproj/collect/corerpc"
)

const (
	defaultConfigFileName = "config.yml"
	configFileEnv         = "BLOCKPROJ_CONFIG"
	dataDirEnv            = "BLOCKPROJ_DATADIR"
)

var (
	defaultConfig = config{
		Collect: collect.Config{
			PollPeriod: 10,
		},
		BitcoinRPC: corerpc.Config{
			Host:    "localhost",
			Port:    "8332",
			Timeout: 30,
		},
		AppRPC: AppRPCConfig{
			Host: "localhost",
			Port: "8350",
		},
		AppHTTP: AppHTTPConfig{
			Host: "localhost",
			Port: "8351",
		},
		DataDir: btcutil.AppDataDir("blockproj", false),
	}
	defaultConfigFile  = filepath.Join(defaultConfig.DataDir, defaultConfigFileName)
	defaultLogFileName = "blockproj.log"
)

type config struct {
	Collect    collect.Config `yaml:"collect" json:"collect"`
	BitcoinRPC corerpc.Config `yaml:"bitcoinrpc" json:"bitcoinrpc"`
	AppRPC     AppRPCConfig   `yaml:"apprpc" json:"apprpc"`
	AppHTTP    AppHTTPConfig  `yaml:"apphttp" json:"apphttp"`
	DataDir    string         `yaml:"datadir" json:"datadir"`
	LogFile    string         `yaml:"logfile" json:"logfile"`
}

// AppRPCConfig is where the JSON-RPC control surface listens.
type AppRPCConfig struct {
	Host string `json:"host" yaml:"host"`
	Port string `json:"port" yaml:"port"`
}

// AppHTTPConfig is where the REST and websocket surfaces listen.
type AppHTTPConfig struct {
	Host string `json:"host" yaml:"host"`
	Port string `json:"port" yaml:"port"`
}

// loadConfig loads the config. The input arguments specify the path to the
// config file / data directory. They can also be specified through env
// variables (configFileEnv / dataDirEnv), with lower precedence. If not
// specified, they are set to default values.
func loadConfig(configFile, dataDir string) (config, error) {
	cfg := defaultConfig

	if configFile == "" {
		configFile = os.Getenv(configFileEnv)
	}
	if dataDir == "" {
		dataDir = os.Getenv(dataDirEnv)
	}

	if configFile != "" {
		// Config file was specified explicitly, so return an error if it
		// couldn't be read.
		if c, err := ioutil.ReadFile(configFile); err != nil {
			return cfg, err
		} else if err := yaml.Unmarshal(c, &cfg); err != nil {
			return cfg, err
		}
	} else {
		// Check the default config file location. No error if it couldn't
		// be read, but error if the yaml could not be unmarshaled.
		if dataDir == "" {
			configFile = defaultConfigFile
		} else {
			configFile = filepath.Join(dataDir, defaultConfigFileName)
		}
		if c, err := ioutil.ReadFile(configFile); err == nil {
			if err := yaml.Unmarshal(c, &cfg); err != nil {
				return cfg, err
			}
		}
	}

	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.DataDir, defaultLogFileName)
	}

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return cfg, err
	}

	return cfg, nil
}

package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/onflow/vault-deployer/utils/logging"
)

const (
	// EnvPrefix prefixes the environment variable of every flag, e.g. VAULT_DEPLOY_RPC_URL.
	EnvPrefix = "VAULT_DEPLOY"

	// DefaultConfigName is searched for in the working directory when no config file is given.
	DefaultConfigName = "vault-deploy"

	DefaultNetwork  = "localhost"
	DefaultContract = "Vault"
)

const (
	flagConfig              = "config"
	flagNetwork             = "network"
	flagRPCURL              = "rpc-url"
	flagChainID             = "chain-id"
	flagPrivateKey          = "private-key"
	flagKeystore            = "keystore"
	flagKeystorePassword    = "keystore-password"
	flagArtifacts           = "artifacts"
	flagContract            = "contract"
	flagGasLimit            = "gas-limit"
	flagConfirmations       = "confirmations"
	flagPollInterval        = "poll-interval"
	flagConfirmationTimeout = "confirmation-timeout"
	flagDeploymentsDir      = "deployments-dir"
	flagMetricsFile         = "metrics-file"
	flagLogLevel            = "log-level"
	flagLogFormat           = "log-format"

	keyNetworks = "networks"
)

// Network is the connection and signer configuration of one named network.
type Network struct {
	URL              string `mapstructure:"url"`
	ChainID          uint64 `mapstructure:"chain-id"`
	PrivateKey       string `mapstructure:"private-key"`
	Keystore         string `mapstructure:"keystore"`
	KeystorePassword string `mapstructure:"keystore-password"`
}

// Config is the fully resolved configuration of a deployment run.
type Config struct {
	NetworkName string
	Network     Network

	ArtifactsDir        string
	Contract            string
	GasLimit            uint64
	Confirmations       uint64
	PollInterval        time.Duration
	ConfirmationTimeout time.Duration
	DeploymentsDir      string
	MetricsFile         string

	LogLevel  string
	LogFormat string
}

// BuiltinNetworks are available without a config file.
func BuiltinNetworks() map[string]Network {
	return map[string]Network{
		DefaultNetwork: {URL: "http://127.0.0.1:8545"},
	}
}

// InitFlags registers all configuration flags on flags.
func InitFlags(flags *pflag.FlagSet) {
	flags.String(flagConfig, "", "config file (default is ./"+DefaultConfigName+".yaml if present)")
	flags.String(flagNetwork, DefaultNetwork, "name of the network to deploy to")
	flags.String(flagRPCURL, "", "JSON-RPC endpoint, overrides the network url")
	flags.Uint64(flagChainID, 0, "expected chain id, overrides the network chain id (0 accepts the node's)")
	flags.String(flagPrivateKey, "", "hex encoded deployer private key")
	flags.String(flagKeystore, "", "path to an encrypted deployer keystore file")
	flags.String(flagKeystorePassword, "", "password of the keystore file")
	flags.String(flagArtifacts, "artifacts", "directory holding the compiled contract artifacts")
	flags.String(flagContract, DefaultContract, "name of the contract to deploy")
	flags.Uint64(flagGasLimit, 0, "gas limit of the deployment transaction (0 estimates it)")
	flags.Uint64(flagConfirmations, 1, "number of blocks to wait for, including the inclusion block")
	flags.Duration(flagPollInterval, time.Second, "interval between confirmation checks")
	flags.Duration(flagConfirmationTimeout, 0, "maximum time to wait for confirmation (0 waits indefinitely)")
	flags.String(flagDeploymentsDir, "", "directory to record deployments in (disabled if empty)")
	flags.String(flagMetricsFile, "", "file to write deployment metrics to in prometheus text format (disabled if empty)")
	flags.String(flagLogLevel, "info", "log level ( trace | debug | info | warn | error )")
	flags.String(flagLogFormat, logging.FormatConsole, "log format ( console | json )")
}

// Load resolves the configuration from flags, environment and config file, in that order
// of precedence, and validates it. All validation problems are reported together.
func Load(v *viper.Viper, flags *pflag.FlagSet) (*Config, error) {
	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("could not bind flags: %w", err)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	networks := BuiltinNetworks()
	for key := range v.GetStringMap(keyNetworks) {
		// fields set in the config file override those of a built-in network of the same name
		name := normalizeNetworkName(key)
		network := networks[name]
		if err := v.UnmarshalKey(keyNetworks+"."+key, &network); err != nil {
			return nil, fmt.Errorf("could not decode network %s: %w", name, err)
		}
		networks[name] = network
	}

	conf := &Config{
		NetworkName:         normalizeNetworkName(v.GetString(flagNetwork)),
		ArtifactsDir:        v.GetString(flagArtifacts),
		Contract:            strings.TrimSpace(v.GetString(flagContract)),
		GasLimit:            v.GetUint64(flagGasLimit),
		Confirmations:       v.GetUint64(flagConfirmations),
		PollInterval:        v.GetDuration(flagPollInterval),
		ConfirmationTimeout: v.GetDuration(flagConfirmationTimeout),
		DeploymentsDir:      v.GetString(flagDeploymentsDir),
		MetricsFile:         v.GetString(flagMetricsFile),
		LogLevel:            v.GetString(flagLogLevel),
		LogFormat:           v.GetString(flagLogFormat),
	}

	var errs *multierror.Error

	network, ok := networks[conf.NetworkName]
	if !ok && v.GetString(flagRPCURL) == "" {
		errs = multierror.Append(errs, fmt.Errorf("unknown network %q, expecting one of ( %s ) or --%s", conf.NetworkName, strings.Join(sortedNames(networks), " | "), flagRPCURL))
	}
	conf.Network = overrideNetwork(v, network)

	errs = multierror.Append(errs, conf.validate()...)
	if err := errs.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return conf, nil
}

func readConfigFile(v *viper.Viper) error {
	if file := v.GetString(flagConfig); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("could not read config file %s: %w", file, err)
		}
		return nil
	}

	v.SetConfigName(DefaultConfigName)
	v.AddConfigPath(".")
	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return fmt.Errorf("could not read config file: %w", err)
	}
	return nil
}

// overrideNetwork applies the network flags, or their environment variables, on top of
// the selected network.
func overrideNetwork(v *viper.Viper, network Network) Network {
	if url := v.GetString(flagRPCURL); url != "" {
		network.URL = url
	}
	if chainID := v.GetUint64(flagChainID); chainID != 0 {
		network.ChainID = chainID
	}
	// a signer given on the command line replaces the network's signer
	key, keystore := v.GetString(flagPrivateKey), v.GetString(flagKeystore)
	if key != "" || keystore != "" {
		network.PrivateKey = key
		network.Keystore = keystore
	}
	if password := v.GetString(flagKeystorePassword); password != "" {
		network.KeystorePassword = password
	}
	return network
}

func (c *Config) validate() []error {
	var errs []error
	if c.Network.URL == "" {
		errs = append(errs, fmt.Errorf("network %q has no url", c.NetworkName))
	}
	if c.Network.PrivateKey != "" && c.Network.Keystore != "" {
		errs = append(errs, fmt.Errorf("network %q sets both a private key and a keystore", c.NetworkName))
	}
	if c.Contract == "" {
		errs = append(errs, fmt.Errorf("--%s must not be empty", flagContract))
	}
	if c.ArtifactsDir == "" {
		errs = append(errs, fmt.Errorf("--%s must not be empty", flagArtifacts))
	}
	if c.Confirmations < 1 {
		errs = append(errs, fmt.Errorf("--%s must be at least 1", flagConfirmations))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("--%s must be positive", flagPollInterval))
	}
	if c.ConfirmationTimeout < 0 {
		errs = append(errs, fmt.Errorf("--%s must not be negative", flagConfirmationTimeout))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if err := logging.ValidateFormat(c.LogFormat); err != nil {
		errs = append(errs, err)
	}
	return errs
}

// normalizeNetworkName maps a network name to the form used for lookups, record
// directories and metric labels. Config file keys are case-insensitive.
func normalizeNetworkName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func sortedNames(networks map[string]Network) []string {
	names := make([]string, 0, len(networks))
	for name := range networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

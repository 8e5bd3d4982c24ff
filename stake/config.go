// Copyright (c) 2025 The EvolvableSlumber developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stake

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config carries the staking parameters. It is immutable once handed to the
// engine: there is no re-initialization path.
//
// All durations are expressed in the logical time units supplied by the
// clock collaborator. A zero duration disables the behavior.
type Config struct {
	// MinStakingTime is the minimum elapsed time before a manually staked
	// token may be unstaked.
	MinStakingTime uint64 `yaml:"minStakingTime"`
	// AutomaticStakeOnMint is the length of the automatic staking window
	// starting at mint, applied to tokens minted with the auto-stake flag.
	AutomaticStakeOnMint uint64 `yaml:"automaticStakeOnMint"`
	// AutomaticStakeOnTransfer is the length of the automatic staking window
	// starting at the token's last transfer.
	AutomaticStakeOnTransfer uint64 `yaml:"automaticStakeOnTransfer"`
	// BaseURI is the metadata base path. Empty disables token URIs.
	BaseURI string `yaml:"baseURI"`
	// MintPrice is the price collected by the ledger per minted token.
	MintPrice uint64 `yaml:"mintPrice"`
}

// Validate checks the config for consistency.
func (c *Config) Validate() error {
	if c.BaseURI != "" && !strings.HasSuffix(c.BaseURI, "/") {
		return errors.New("baseURI must end with '/'")
	}
	return nil
}

// LoadConfig reads a Config from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

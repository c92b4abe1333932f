// services/config.go
package services

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// ArenaConfig carries the fixed configuration constants of one ledger
// instance. Values are read once at startup and never mutated afterwards.
type ArenaConfig struct {
	MinWager       int64
	MaxWager       int64
	CommitTimeout  time.Duration
	RevealTimeout  time.Duration
	PlatformFeeBps int64

	// TreasuryAddress receives platform fees; ResolverAddresses is the
	// small fixed set of identities allowed to declare winners.
	TreasuryAddress   string
	ResolverAddresses map[string]bool
}

// LoadArenaConfig reads the arena constants from the environment with sane
// development defaults. Fee defaults to 100 bps (1%), the rate the original
// settlement math assumed.
func LoadArenaConfig() *ArenaConfig {
	cfg := &ArenaConfig{
		MinWager:          envInt64("MIN_WAGER", 100),
		MaxWager:          envInt64("MAX_WAGER", 1_000_000_000),
		CommitTimeout:     time.Duration(envInt64("COMMIT_TIMEOUT_SECONDS", 300)) * time.Second,
		RevealTimeout:     time.Duration(envInt64("REVEAL_TIMEOUT_SECONDS", 300)) * time.Second,
		PlatformFeeBps:    envInt64("PLATFORM_FEE_BASIS_POINTS", 100),
		TreasuryAddress:   envString("TREASURY_ADDRESS", "treasury"),
		ResolverAddresses: map[string]bool{},
	}

	resolvers := envString("RESOLVER_ADDRESSES", "resolver")
	for _, addr := range strings.Split(resolvers, ",") {
		addr = strings.TrimSpace(addr)
		if addr != "" {
			cfg.ResolverAddresses[addr] = true
		}
	}

	if cfg.MinWager <= 0 || cfg.MaxWager < cfg.MinWager {
		log.Fatal("invalid wager bounds: MIN_WAGER must be positive and MAX_WAGER >= MIN_WAGER")
	}
	if cfg.PlatformFeeBps < 0 || cfg.PlatformFeeBps > 10_000 {
		log.Fatal("PLATFORM_FEE_BASIS_POINTS must be between 0 and 10000")
	}

	return cfg
}

// IsResolver reports whether addr belongs to the trusted resolver set.
func (c *ArenaConfig) IsResolver(addr string) bool {
	return c.ResolverAddresses[addr]
}

// PlatformFee computes the fee retained from a pot, in exact integer
// basis-point arithmetic.
func (c *ArenaConfig) PlatformFee(pot int64) int64 {
	return pot * c.PlatformFeeBps / 10_000
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Fatalf("%s must be an integer, got %q", key, v)
	}
	return n
}

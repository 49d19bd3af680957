package business

import (
	"crypto/rand"
	"math/big"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	liveKeyPrefix   = "live_"
	testKeyPrefix   = "test_"
	keyRandomDigits = 13
)

// APIKeyRequest describes a key to issue. A zero RateLimit inherits the
// environment's limit.
type APIKeyRequest struct {
	Environment Environment
	Name        string
	Scopes      []string
	RateLimit   int
	ExpiresAt   *time.Time
}

func (e *Entity) envConfig(env Environment) (*EnvironmentConfig, error) {
	switch env {
	case EnvSandbox:
		return &e.environments.Sandbox, nil
	case EnvProduction:
		return &e.environments.Production, nil
	}
	return nil, validationError("invalid environment %q", string(env))
}

// CreateAPIKey issues a key in the requested environment. Production keys
// need a verified business with a signed contract.
func (e *Entity) CreateAPIKey(req APIKeyRequest) (APIKey, error) {
	cfg, err := e.envConfig(req.Environment)
	if err != nil {
		return APIKey{}, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return APIKey{}, validationError("API key name is required")
	}
	if req.RateLimit < 0 {
		return APIKey{}, validationError("API key rate limit must be non-negative")
	}
	if req.Environment == EnvProduction {
		if e.verificationStatus != VerificationVerified {
			return APIKey{}, transitionError("production API keys require business verification")
		}
		if !e.compliance.ContractSigned {
			return APIKey{}, transitionError("production API keys require signed contract")
		}
	}

	now := e.now()
	value, err := generateKeyValue(req.Environment, now)
	if err != nil {
		return APIKey{}, err
	}
	rate := req.RateLimit
	if rate == 0 {
		rate = cfg.RateLimit
	}
	scopes := slices.Clone(req.Scopes)
	if scopes == nil {
		scopes = []string{}
	}
	key := APIKey{
		ID:          uuid.NewString(),
		Key:         value,
		Name:        req.Name,
		Environment: req.Environment,
		Scopes:      scopes,
		IsActive:    true,
		RateLimit:   rate,
		CreatedAt:   now,
		ExpiresAt:   cloneTime(req.ExpiresAt),
	}
	cfg.APIKeys = append(cfg.APIKeys, key)
	e.touch()
	return key.clone(), nil
}

func generateKeyValue(env Environment, now time.Time) (string, error) {
	prefix := testKeyPrefix
	if env == EnvProduction {
		prefix = liveKeyPrefix
	}
	var sb strings.Builder
	sb.WriteString(prefix)
	sb.WriteString(strconv.FormatInt(now.UnixMilli(), 36))
	radix := big.NewInt(36)
	for i := 0; i < keyRandomDigits; i++ {
		n, err := rand.Int(rand.Reader, radix)
		if err != nil {
			return "", err
		}
		sb.WriteString(strconv.FormatInt(n.Int64(), 36))
	}
	return sb.String(), nil
}

// RevokeAPIKey deactivates a key in env and reports whether it was found.
func (e *Entity) RevokeAPIKey(keyID string, env Environment) (bool, error) {
	cfg, err := e.envConfig(env)
	if err != nil {
		return false, err
	}
	for i := range cfg.APIKeys {
		if cfg.APIKeys[i].ID == keyID {
			cfg.APIKeys[i].IsActive = false
			e.touch()
			return true, nil
		}
	}
	return false, nil
}

// ValidateAPIKey finds an active, unexpired key by its value, scanning the
// sandbox before production.
func (e *Entity) ValidateAPIKey(value string) (APIKey, bool) {
	now := e.now()
	for _, cfg := range []EnvironmentConfig{e.environments.Sandbox, e.environments.Production} {
		for _, k := range cfg.APIKeys {
			if k.Key != value || !k.IsActive {
				continue
			}
			if k.ExpiresAt != nil && !now.Before(*k.ExpiresAt) {
				continue
			}
			return k.clone(), true
		}
	}
	return APIKey{}, false
}

// EnableProductionEnvironment turns production on for a verified business
// with a signed contract.
func (e *Entity) EnableProductionEnvironment() error {
	if e.verificationStatus != VerificationVerified {
		return transitionError("business verification required for production access")
	}
	if !e.compliance.ContractSigned {
		return transitionError("service agreement must be signed for production access")
	}
	e.environments.Production.IsEnabled = true
	e.touch()
	return nil
}

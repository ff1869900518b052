package keys

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Providers whose API keys pulse knows how to resolve.
const (
	Gemini     = "gemini"
	ElevenLabs = "elevenlabs"
)

// KeyStore provides access to stored API keys.
type KeyStore interface {
	Get(id string) (string, error)
	Put(id string, secret string) error
	Delete(id string) error
}

var ErrKeyNotFound = errors.New("key not found")

// ConfigStore keeps keys in memory, as read from configuration.
type ConfigStore struct {
	Keys map[string]string
}

func (s *ConfigStore) Get(id string) (string, error) {
	if s == nil || s.Keys == nil {
		return "", ErrKeyNotFound
	}
	val, ok := s.Keys[id]
	if !ok || val == "" {
		return "", ErrKeyNotFound
	}
	return val, nil
}

func (s *ConfigStore) Put(id string, secret string) error {
	if s.Keys == nil {
		s.Keys = map[string]string{}
	}
	s.Keys[id] = secret
	return nil
}

func (s *ConfigStore) Delete(id string) error {
	if s == nil || s.Keys == nil {
		return nil
	}
	delete(s.Keys, id)
	return nil
}

// ValidProvider reports whether name is a known provider.
func ValidProvider(name string) bool {
	return name == Gemini || name == ElevenLabs
}

// Resolve returns the API key for provider: the <provider>.api_key option
// (which already covers environment variables) wins, then the store.
// A missing key yields an error wrapping ErrKeyNotFound.
func Resolve(v *viper.Viper, store KeyStore, provider string) (string, error) {
	if k := strings.TrimSpace(v.GetString(provider + ".api_key")); k != "" {
		return k, nil
	}
	if store != nil {
		k, err := store.Get(provider)
		if err == nil && strings.TrimSpace(k) != "" {
			return strings.TrimSpace(k), nil
		}
		if err != nil && !errors.Is(err, ErrKeyNotFound) {
			return "", fmt.Errorf("%s api key: %w", provider, err)
		}
	}
	return "", fmt.Errorf("%s api key is not set: %w", provider, ErrKeyNotFound)
}

package keys

import (
	"errors"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestConfigStoreRoundTrip(t *testing.T) {
	store := &ConfigStore{}
	value := "secret"

	if err := store.Put(Gemini, value); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	got, err := store.Get(Gemini)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != value {
		t.Fatalf("get mismatch: got %q want %q", got, value)
	}
	if err := store.Delete(Gemini); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	_, err = store.Get(Gemini)
	if err != ErrKeyNotFound {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestResolve(t *testing.T) {
	store := &ConfigStore{Keys: map[string]string{Gemini: " from-store "}}

	v := viper.New()
	k, err := Resolve(v, store, Gemini)
	require.NoError(t, err)
	assert.Equal(t, "from-store", k)

	v.Set("gemini.api_key", "from-config")
	k, err = Resolve(v, store, Gemini)
	require.NoError(t, err)
	assert.Equal(t, "from-config", k)

	_, err = Resolve(v, store, ElevenLabs)
	assert.True(t, errors.Is(err, ErrKeyNotFound))
	assert.Contains(t, err.Error(), "elevenlabs api key is not set")

	_, err = Resolve(viper.New(), nil, Gemini)
	assert.True(t, errors.Is(err, ErrKeyNotFound))
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()
	s := &KeyringStore{Service: "pulse-test"}

	_, err := s.Get(ElevenLabs)
	assert.Equal(t, ErrKeyNotFound, err)

	require.NoError(t, s.Put(ElevenLabs, "xi-123"))
	got, err := s.Get(ElevenLabs)
	require.NoError(t, err)
	assert.Equal(t, "xi-123", got)

	require.NoError(t, s.Delete(ElevenLabs))
	require.NoError(t, s.Delete(ElevenLabs), "deleting twice is not an error")
}

func TestValidProvider(t *testing.T) {
	assert.True(t, ValidProvider("gemini"))
	assert.True(t, ValidProvider("elevenlabs"))
	assert.False(t, ValidProvider("openai"))
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// FallbackFeeds is used when neither the config nor a feeds file names any account.
var FallbackFeeds = map[string]string{
	"okstate":      "https://rss.app/feeds/NBgetWsYeAxjiJ7N.xml",
	"releaseradar": "https://rss.app/feeds/pwgOKTLwxlfH6MQV.xml",
}

// FeedSearchPaths lists where a feeds file is looked for when feeds.file is unset.
var FeedSearchPaths = []string{
	filepath.Join("data", "feeds.json"),
	filepath.Join("frontend", "data", "feeds.json"),
}

// LoadFeeds resolves the account table: [accounts] from config, then the
// feeds file, then FallbackFeeds. source describes where the table came from.
func LoadFeeds(v *viper.Viper) (feeds map[string]string, source string, err error) {
	if m := v.GetStringMapString("accounts"); len(m) > 0 {
		return m, "config", nil
	}
	if f := strings.TrimSpace(v.GetString("feeds.file")); f != "" {
		// An explicit file must exist.
		m, err := readFeedsFile(f)
		if err != nil {
			return nil, "", err
		}
		return m, f, nil
	}
	for _, p := range FeedSearchPaths {
		if _, statErr := os.Stat(p); statErr != nil {
			continue
		}
		m, err := readFeedsFile(p)
		if err != nil {
			return nil, "", err
		}
		return m, p, nil
	}
	out := make(map[string]string, len(FallbackFeeds))
	for k, u := range FallbackFeeds {
		out[k] = u
	}
	return out, "builtin", nil
}

// readFeedsFile parses a username -> url mapping. JSON is accepted as YAML.
func readFeedsFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feeds file: %w", err)
	}
	var m map[string]string
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse feeds file %s: %w", path, err)
	}
	if len(m) == 0 {
		return nil, fmt.Errorf("feeds file %s lists no accounts", path)
	}
	return m, nil
}

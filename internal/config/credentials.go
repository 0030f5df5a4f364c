package config

import (
	"net/url"
	"os"
	"strings"
)

// APIKeyHeader carries the data API key on every upstream request.
const APIKeyHeader = "X-API-Key"

// APIKeyEnv overrides source.api_key.
const APIKeyEnv = EnvPrefix + "_SOURCE_API_KEY"

// Credential origins.
const (
	OriginEnv    = "env"
	OriginConfig = "config"
	OriginUnset  = "unset"
)

// CredentialStatus describes the data API key without revealing it.
type CredentialStatus struct {
	Header   string   `json:"header"`
	EnvVar   string   `json:"env_var"`
	Origin   string   `json:"origin"`
	Set      bool     `json:"set"`
	Hint     string   `json:"hint,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// SourceCredential reports how the data API key of cfg is configured.
func SourceCredential(cfg *Config) CredentialStatus {
	return credentialStatus(cfg.Source.APIKey, cfg.Source.BaseURL, os.Getenv(APIKeyEnv))
}

func credentialStatus(key, baseURL, fromEnv string) CredentialStatus {
	st := CredentialStatus{Header: APIKeyHeader, EnvVar: APIKeyEnv, Origin: OriginUnset}
	if key == "" {
		return st
	}
	st.Set = true
	st.Origin = OriginConfig
	if fromEnv != "" && fromEnv == key {
		st.Origin = OriginEnv
	}
	st.Hint = keyHint(key)

	if strings.TrimSpace(key) != key || strings.ContainsAny(key, "\r\n\t") {
		st.Warnings = append(st.Warnings, "key contains whitespace and may be rejected by the data API")
	}
	if u, err := url.Parse(baseURL); err == nil && u.Scheme == "http" && !isLoopback(u.Hostname()) {
		st.Warnings = append(st.Warnings, "key is sent over plain http")
	}
	return st
}

// keyHint shows the last four characters of keys long enough that doing so
// leaves most of the secret hidden.
func keyHint(key string) string {
	if len(key) < 12 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}

func isLoopback(host string) bool {
	return host == "localhost" || host == "::1" || strings.HasPrefix(host, "127.")
}

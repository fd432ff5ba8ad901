package services

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/domain"
	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/ports/driven"
)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyWikidataAPI     = "wikidata.api_url"
	keySPARQLEndpoint  = "wikidata.sparql_url"
	keyCommonsAPI      = "commons.api_url"
	keyAccessToken     = "auth.access_token"
	keyUserAgent       = "auth.user_agent"
	keyLedgerDir       = "ledger.dir"
	keyLedgerBackend   = "ledger.backend"
	keyMaxGenerations  = "ledger.max_generations"
	keyReprocessBefore = "run.reprocess_before"
	keyPublishedDate   = "run.published_date"
	keyRetrievedDate   = "run.retrieved_date"
	keyDryRun          = "run.dry_run"
	keySandboxUser     = "run.sandbox_user"
	keyEditsPerMinute  = "ratelimit.edits_per_minute"
	keyReferenceTables = "reference.tables"

	// EnvAccessToken overrides auth.access_token.
	EnvAccessToken = "NVRBOT_ACCESS_TOKEN"
)

// SettingsService reads run settings from configuration.
type SettingsService struct {
	configStore driven.ConfigStore
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		getenv:      os.Getenv,
	}
}

// Get returns the configured settings, with defaults for absent keys.
func (s *SettingsService) Get() (domain.Settings, error) {
	d := domain.DefaultSettings()

	settings := domain.Settings{
		WikidataAPI:     s.getString(keyWikidataAPI, d.WikidataAPI),
		SPARQLEndpoint:  s.getString(keySPARQLEndpoint, d.SPARQLEndpoint),
		CommonsAPI:      s.getString(keyCommonsAPI, d.CommonsAPI),
		AccessToken:     s.configStore.GetString(keyAccessToken),
		UserAgent:       s.getString(keyUserAgent, d.UserAgent),
		LedgerDir:       s.getString(keyLedgerDir, d.LedgerDir),
		LedgerBackend:   domain.LedgerBackend(s.getString(keyLedgerBackend, string(d.LedgerBackend))),
		MaxGenerations:  s.getIntAllowZero(keyMaxGenerations, d.MaxGenerations),
		DryRun:          s.configStore.GetBool(keyDryRun),
		SandboxUser:     s.configStore.GetString(keySandboxUser),
		EditsPerMinute:  s.getInt(keyEditsPerMinute, d.EditsPerMinute),
		ReferenceTables: d.ReferenceTables,
	}
	if tables := s.configStore.GetStringSlice(keyReferenceTables); tables != nil {
		settings.ReferenceTables = tables
	}
	if token := s.getenv(EnvAccessToken); token != "" {
		settings.AccessToken = token
	}
	if !settings.LedgerBackend.IsValid() {
		return settings, fmt.Errorf("%w: ledger backend %q", domain.ErrInvalidInput, settings.LedgerBackend)
	}

	var err error
	if settings.ReprocessBefore, err = s.getInstant(keyReprocessBefore, d.ReprocessBefore); err != nil {
		return settings, err
	}
	if settings.PublishedDate, err = s.getDate(keyPublishedDate, d.PublishedDate); err != nil {
		return settings, err
	}
	if settings.RetrievedDate, err = s.getDate(keyRetrievedDate, d.RetrievedDate); err != nil {
		return settings, err
	}
	return settings, nil
}

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getIntAllowZero(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

// getInstant accepts RFC 3339 or epoch milliseconds, as a string or an
// integer. An explicit empty string or zero disables the cutoff.
func (s *SettingsService) getInstant(key string, defaultVal time.Time) (time.Time, error) {
	raw, exists := s.configStore.Get(key)
	if !exists {
		return defaultVal, nil
	}
	switch v := raw.(type) {
	case int64:
		if v == 0 {
			return time.Time{}, nil
		}
		return time.UnixMilli(v), nil
	case time.Time:
		return v, nil
	case string:
		v = strings.TrimSpace(v)
		if v == "" || v == "0" {
			return time.Time{}, nil
		}
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.UnixMilli(ms), nil
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
		}
		return t, nil
	default:
		return time.Time{}, fmt.Errorf("%w: %s has type %T", domain.ErrInvalidInput, key, raw)
	}
}

func (s *SettingsService) getDate(key string, defaultVal time.Time) (time.Time, error) {
	raw, exists := s.configStore.Get(key)
	if !exists {
		return defaultVal, nil
	}
	switch v := raw.(type) {
	case string:
		t, err := time.Parse(time.DateOnly, strings.TrimSpace(v))
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
		}
		return t, nil
	case time.Time:
		return domain.Midnight(v), nil
	case fmt.Stringer:
		// TOML local dates decode to a Stringer in the config adapter.
		t, err := time.Parse(time.DateOnly, v.String())
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
		}
		return t, nil
	default:
		return time.Time{}, fmt.Errorf("%w: %s has type %T", domain.ErrInvalidInput, key, raw)
	}
}

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"
	"time"

	"capsule/internal/domain"

	"go.uber.org/zap"
)

// Keys with compiled-in defaults.
const (
	SettingGuestTokenExpirationHours = "guestTokenExpirationHours"
	SettingSessionExpirationHours    = "sessionExpirationHours"
	SettingDefaultCheckoutTime       = "defaultCheckoutTime"
	SettingMaxGuestStayDays          = "maxGuestStayDays"
	SettingAccommodationType         = "accommodationType"
	SettingUnitSections              = "unitSections"
	SettingShowGuideOnCheckin        = "showGuideOnCheckin"
	SettingGuideIntro                = "guideIntro"
	SettingGuideAddress              = "guideAddress"
	SettingGuideWifiName             = "guideWifiName"
	SettingGuideWifiPassword         = "guideWifiPassword"
	SettingGuideCheckinInstructions  = "guideCheckin"
	SettingGuideHouseRules           = "guideHouseRules"
	SettingGuideCheckoutInstructions = "guideCheckout"
)

// SettingDefault is the fallback value of a known setting.
type SettingDefault struct {
	Value       any
	Description string
}

// DefaultSettings lists every setting the system knows about.
var DefaultSettings = map[string]SettingDefault{
	SettingGuestTokenExpirationHours: {24, "Hours before a self check-in token expires"},
	SettingSessionExpirationHours:    {24, "Hours before a staff session expires"},
	SettingDefaultCheckoutTime:       {"12:00", "Default checkout time of day (HH:MM)"},
	SettingMaxGuestStayDays:          {30, "Longest stay a single check-in may book"},
	SettingAccommodationType:         {"capsule", "What a unit is called: capsule, room or house"},
	SettingUnitSections:              {[]string{"back", "middle", "front"}, "Sections units are grouped into"},
	SettingShowGuideOnCheckin:        {true, "Show the guest guide after self check-in"},
	SettingGuideIntro:                {"Welcome! Please make yourself at home.", "Guest guide introduction"},
	SettingGuideAddress:              {"", "Property address shown in the guest guide"},
	SettingGuideWifiName:             {"", "Wi-Fi network name"},
	SettingGuideWifiPassword:         {"", "Wi-Fi password"},
	SettingGuideCheckinInstructions:  {"", "Check-in instructions"},
	SettingGuideHouseRules:           {"", "House rules"},
	SettingGuideCheckoutInstructions: {"", "Checkout instructions"},
}

// SettingsService is a typed read-through cache over the setting store.
// Writes through the Facade drop the key from the cache; values written by
// another process are only seen after Invalidate.
type SettingsService struct {
	repo   domain.SettingRepository
	logger *zap.Logger

	mu    sync.RWMutex
	cache map[string]any
}

// NewSettingsService creates a settings service.
func NewSettingsService(repo domain.SettingRepository, logger *zap.Logger) *SettingsService {
	return &SettingsService{
		repo:   repo,
		logger: logger,
		cache:  make(map[string]any),
	}
}

// Get returns the typed value of key: the stored value if there is one,
// otherwise the default. Unknown keys with nothing stored yield nil.
func (s *SettingsService) Get(ctx context.Context, key string) (any, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: setting key is required", domain.ErrValidation)
	}
	s.mu.RLock()
	v, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		return v, nil
	}

	stored, err := s.repo.GetSetting(ctx, key)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		if def, ok := DefaultSettings[key]; ok {
			return def.Value, nil
		}
		return nil, nil
	}
	v, err = decodeSetting(*stored)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.cache[key] = v
	s.mu.Unlock()
	return v, nil
}

// GetString returns key as a string.
func (s *SettingsService) GetString(ctx context.Context, key string) (string, error) {
	v, err := s.Get(ctx, key)
	if err != nil || v == nil {
		return "", err
	}
	if str, ok := v.(string); ok {
		return str, nil
	}
	return fmt.Sprint(v), nil
}

// GetInt returns key as an integer.
func (s *SettingsService) GetInt(ctx context.Context, key string) (int, error) {
	v, err := s.Get(ctx, key)
	if err != nil || v == nil {
		return 0, err
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case float64:
		return int(n), nil
	}
	return 0, fmt.Errorf("%w: setting %q is not a number", domain.ErrValidation, key)
}

// GetBool returns key as a boolean.
func (s *SettingsService) GetBool(ctx context.Context, key string) (bool, error) {
	v, err := s.Get(ctx, key)
	if err != nil || v == nil {
		return false, err
	}
	if b, ok := v.(bool); ok {
		return b, nil
	}
	return false, fmt.Errorf("%w: setting %q is not a boolean", domain.ErrValidation, key)
}

// GetStrings returns key as a list of strings.
func (s *SettingsService) GetStrings(ctx context.Context, key string) ([]string, error) {
	v, err := s.Get(ctx, key)
	if err != nil || v == nil {
		return nil, err
	}
	switch list := v.(type) {
	case []string:
		return list, nil
	case []any:
		out := make([]string, len(list))
		for i, item := range list {
			out[i] = fmt.Sprint(item)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: setting %q is not a list", domain.ErrValidation, key)
}

// Set validates, serializes and stores value under key.
func (s *SettingsService) Set(ctx context.Context, key string, value any, updatedBy string) (*domain.Setting, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: setting key is required", domain.ErrValidation)
	}
	if value == nil {
		return nil, fmt.Errorf("%w: setting %q needs a value", domain.ErrValidation, key)
	}
	raw, tag, err := encodeSetting(value)
	if err != nil {
		return nil, err
	}
	if err := validateSetting(key, raw, tag); err != nil {
		return nil, err
	}

	setting := domain.Setting{Key: key, Value: raw, Type: tag, UpdatedBy: updatedBy}
	if def, ok := DefaultSettings[key]; ok {
		setting.Description = def.Description
	}
	saved, err := s.repo.SetSetting(ctx, setting)
	if err != nil {
		return nil, err
	}

	typed, err := decodeSetting(*saved)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.cache[key] = typed
	s.mu.Unlock()
	s.logger.Info("setting updated", zap.String("key", key), zap.String("by", updatedBy))
	return saved, nil
}

// All returns every known default overlaid with every stored setting.
func (s *SettingsService) All(ctx context.Context) (map[string]any, error) {
	out := make(map[string]any, len(DefaultSettings))
	for k, def := range DefaultSettings {
		out[k] = def.Value
	}
	stored, err := s.repo.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	for _, st := range stored {
		v, err := decodeSetting(st)
		if err != nil {
			s.logger.Warn("skipping unreadable setting", zap.String("key", st.Key), zap.Error(err))
			continue
		}
		out[st.Key] = v
	}
	return out, nil
}

// Keys returns every key All would report, sorted.
func (s *SettingsService) Keys(ctx context.Context) ([]string, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Reset drops the stored value so key reads its default again.
func (s *SettingsService) Reset(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("%w: setting key is required", domain.ErrValidation)
	}
	if _, err := s.repo.DeleteSetting(ctx, key); err != nil {
		return err
	}
	s.forget(key)
	return nil
}

func (s *SettingsService) forget(key string) {
	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()
}

// Invalidate empties the cache.
func (s *SettingsService) Invalidate() {
	s.mu.Lock()
	s.cache = make(map[string]any)
	s.mu.Unlock()
}

// Hours returns key as a duration in hours, falling back to the compiled
// default when the stored value cannot be read.
func (s *SettingsService) Hours(ctx context.Context, key string) time.Duration {
	h, err := s.GetInt(ctx, key)
	if err != nil || h <= 0 {
		if err != nil {
			s.logger.Warn("using default setting", zap.String("key", key), zap.Error(err))
		}
		h, _ = DefaultSettings[key].Value.(int)
	}
	return time.Duration(h) * time.Hour
}

// encodeSetting turns a value into its stored form and type tag.
func encodeSetting(value any) (string, string, error) {
	switch v := value.(type) {
	case string:
		return v, domain.SettingTypeString, nil
	case bool:
		return strconv.FormatBool(v), domain.SettingTypeBoolean, nil
	case int:
		return strconv.Itoa(v), domain.SettingTypeNumber, nil
	case int64:
		return strconv.FormatInt(v, 10), domain.SettingTypeNumber, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), domain.SettingTypeNumber, nil
	case []string, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return "", "", fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
		return string(b), domain.SettingTypeArray, nil
	}
	return "", "", fmt.Errorf("%w: unsupported setting value %T", domain.ErrValidation, value)
}

// decodeSetting parses a stored value by its type tag. Rows stored without a
// tag are parsed as the type of the key's default, or as strings.
func decodeSetting(st domain.Setting) (any, error) {
	tag := st.Type
	if tag == "" {
		tag = domain.SettingTypeString
		if def, ok := DefaultSettings[st.Key]; ok {
			_, tag, _ = encodeSetting(def.Value)
		}
	}
	switch tag {
	case domain.SettingTypeString:
		return st.Value, nil
	case domain.SettingTypeBoolean:
		b, err := strconv.ParseBool(st.Value)
		if err != nil {
			return nil, fmt.Errorf("setting %q: %w", st.Key, err)
		}
		return b, nil
	case domain.SettingTypeNumber:
		if n, err := strconv.Atoi(st.Value); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(st.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("setting %q: %w", st.Key, err)
		}
		return f, nil
	case domain.SettingTypeArray:
		var items []any
		if err := json.Unmarshal([]byte(st.Value), &items); err != nil {
			return nil, fmt.Errorf("setting %q: %w", st.Key, err)
		}
		return stringsIfUniform(items), nil
	}
	return nil, fmt.Errorf("setting %q: unknown type %q", st.Key, tag)
}

// stringsIfUniform narrows a JSON array of strings to []string.
func stringsIfUniform(items []any) any {
	out := make([]string, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return items
		}
		out[i] = s
	}
	return out
}

func validateSetting(key, raw, tag string) error {
	def, known := DefaultSettings[key]
	if !known {
		return nil
	}
	_, want, _ := encodeSetting(def.Value)
	if tag != want {
		return fmt.Errorf("%w: setting %q must be a %s", domain.ErrValidation, key, want)
	}
	switch key {
	case SettingGuestTokenExpirationHours, SettingSessionExpirationHours:
		return checkRange(key, raw, 1, 168)
	case SettingMaxGuestStayDays:
		return checkRange(key, raw, 1, 365)
	case SettingDefaultCheckoutTime:
		if _, err := time.Parse("15:04", raw); err != nil {
			return fmt.Errorf("%w: setting %q must look like HH:MM", domain.ErrValidation, key)
		}
	}
	return nil
}

func checkRange(key, raw string, lo, hi float64) error {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < lo || f > hi || f != math.Trunc(f) {
		return fmt.Errorf("%w: setting %q must be a whole number from %v to %v", domain.ErrValidation, key, lo, hi)
	}
	return nil
}

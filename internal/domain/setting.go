package domain

import (
	"context"
	"time"
)

// Type tags stored next to a setting value.
const (
	SettingTypeString  = "string"
	SettingTypeNumber  = "number"
	SettingTypeBoolean = "boolean"
	SettingTypeArray   = "array"
)

// Setting is a flat key/value pair. Value is always the serialized form;
// Type tells how to parse it and is empty for rows written before tagging.
type Setting struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	UpdatedBy   string    `json:"updatedBy"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SettingRepository is the port for settings persistence.
type SettingRepository interface {
	GetSetting(ctx context.Context, key string) (*Setting, error)
	GetSettings(ctx context.Context) ([]Setting, error)
	SetSetting(ctx context.Context, s Setting) (*Setting, error)
	DeleteSetting(ctx context.Context, key string) (bool, error)
}

package rest

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/KevinKickass/OpenDimmer/internal/settings"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/config-update-v1.json
var configUpdateSchemaJSON string

// ConfigValidator checks PATCH bodies against the embedded schema and turns
// them into a settings.Update.
type ConfigValidator struct {
	schema *jsonschema.Schema
}

func NewConfigValidator() (*ConfigValidator, error) {
	compiler := jsonschema.NewCompiler()

	if err := compiler.AddResource("config-update-v1.json",
		strings.NewReader(configUpdateSchemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}

	schema, err := compiler.Compile("config-update-v1.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return &ConfigValidator{schema: schema}, nil
}

// ParseUpdate validates data and converts it. Enum fields accept either the
// symbolic name or the numeric value stored in the record.
func (v *ConfigValidator) ParseUpdate(data []byte) (settings.Update, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return settings.Update{}, fmt.Errorf("invalid JSON: %w", err)
	}

	if err := v.schema.Validate(doc); err != nil {
		return settings.Update{}, fmt.Errorf("schema validation failed: %w", err)
	}

	var u settings.Update
	if raw, ok := doc["mode"]; ok {
		mode, err := settings.ParseMode(enumString(raw))
		if err != nil {
			return settings.Update{}, err
		}
		u.Mode = &mode
	}
	if raw, ok := doc["invert_logic"]; ok {
		invert := raw.(bool)
		u.InvertLogic = &invert
	}
	if raw, ok := doc["sensor_max_brightness"]; ok {
		f := math.Max(math.MinInt32, math.Min(math.MaxInt32, raw.(float64)))
		sensorMax := int(f)
		u.SensorMaxBrightness = &sensorMax
	}
	if raw, ok := doc["language"]; ok {
		lang, err := settings.ParseLanguage(enumString(raw))
		if err != nil {
			return settings.Update{}, err
		}
		u.Language = &lang
	}

	return u, nil
}

func enumString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

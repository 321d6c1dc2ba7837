package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jwebster45206/mission-engine/pkg/mission"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <template.json> [more templates...]\n", os.Args[0])
		os.Exit(1)
	}

	validator := &TemplateValidator{}
	failed := false
	for _, filename := range os.Args[1:] {
		if err := validator.validateFile(filename); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			failed = true
			continue
		}
		fmt.Printf("%s is valid!\n", filename)
	}
	if failed {
		os.Exit(1)
	}
}

type TemplateValidator struct {
	errors []string
}

func (v *TemplateValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	if !strings.HasSuffix(baseName, "_template.json") {
		return fmt.Errorf("template file must end in _template.json: %s", baseName)
	}

	templateID := strings.TrimSuffix(baseName, "_template.json")
	if !isValidID(templateID) {
		return fmt.Errorf("template filename '%s' must be lowercase snake_case (e.g., haul_cargo_template.json)", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	v.errors = nil

	if !json.Valid(data) {
		return fmt.Errorf("file %s contains invalid JSON", filename)
	}

	var tpl mission.Template
	decoder := json.NewDecoder(strings.NewReader(string(data)))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&tpl); err != nil {
		return fmt.Errorf("file %s failed strict JSON unmarshaling: %w", filename, err)
	}

	v.validateTemplate(&tpl, templateID)

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}

	return nil
}

func (v *TemplateValidator) validateTemplate(tpl *mission.Template, templateID string) {
	if tpl.TemplateID != "" && tpl.TemplateID != templateID {
		v.addError(fmt.Sprintf("template_id '%s' does not match filename id '%s'", tpl.TemplateID, templateID))
	}
	if tpl.Title == "" {
		v.addError("title is required")
	}
	if tpl.MissionType == "" {
		v.addError("mission_type is required")
	}
	v.validateIDFormat("mission_type", tpl.MissionType)
	v.validateIDFormat("faction", tpl.Faction)

	if len(tpl.Objectives) == 0 {
		v.addError("at least one objective is required")
	}
	seen := make(map[string]bool)
	for i, o := range tpl.Objectives {
		if o.ID == "" {
			v.addError(fmt.Sprintf("objective %d has no id", i))
			continue
		}
		if seen[o.ID] {
			v.addError(fmt.Sprintf("duplicate objective id '%s'", o.ID))
		}
		seen[o.ID] = true
		if o.Description == "" {
			v.addError(fmt.Sprintf("objective '%s' has no description", o.ID))
		}
		v.validatePlaceholders(fmt.Sprintf("objective '%s' description", o.ID), o.Description, tpl)
	}

	v.validatePlaceholders("title", tpl.Title, tpl)
	v.validatePlaceholders("description", tpl.Description, tpl)

	for key := range tpl.CustomFields {
		v.validateIDFormat("custom field key", key)
	}

	for location, variant := range tpl.LocationVariants {
		v.validateIDFormat("location variant key", location)
		v.validatePlaceholders(fmt.Sprintf("variant '%s' title", location), variant.Title, tpl)
		v.validatePlaceholders(fmt.Sprintf("variant '%s' description", location), variant.Description, tpl)
		for key := range variant.CustomFields {
			v.validateIDFormat("variant custom field key", key)
		}
	}

	for key, r := range tpl.RandomElements {
		v.validateIDFormat("random element key", key)
		if r.Min > r.Max {
			v.addError(fmt.Sprintf("random element '%s' has min %d > max %d", key, r.Min, r.Max))
		}
	}

	if s := tpl.LevelScaling; s != nil {
		if s.RewardPerLevel < 0 {
			v.addError("level_scaling.reward_per_level must not be negative")
		}
		if s.EliteEnemyTier != "" && s.EliteThreshold <= 0 {
			v.addError("level_scaling.elite_enemy_tier requires a positive elite_threshold")
		}
	}
}

// validatePlaceholders checks that every {field} token in authored text can
// resolve from the template's custom fields, random elements, a variant
// override, or an engine-written field.
func (v *TemplateValidator) validatePlaceholders(context, text string, tpl *mission.Template) {
	for _, match := range placeholderRegex.FindAllStringSubmatch(text, -1) {
		key := match[1]
		if !isValidID(key) {
			v.addError(fmt.Sprintf("%s has invalid placeholder '{%s}' - should be lowercase snake_case", context, key))
			continue
		}
		if !v.placeholderResolvable(key, tpl) {
			v.addError(fmt.Sprintf("%s references '{%s}' which no custom field, random element, or variant provides", context, key))
		}
	}
}

func (v *TemplateValidator) placeholderResolvable(key string, tpl *mission.Template) bool {
	if key == mission.FieldClient {
		return true // written by the engine at instantiation
	}
	if _, ok := tpl.CustomFields[key]; ok {
		return true
	}
	if _, ok := tpl.RandomElements[key]; ok {
		return true
	}
	for _, variant := range tpl.LocationVariants {
		if _, ok := variant.CustomFields[key]; ok {
			return true
		}
	}
	return false
}

func (v *TemplateValidator) validateIDFormat(fieldName, id string) {
	if id == "" {
		return
	}

	if !isValidID(id) {
		v.addError(fmt.Sprintf("%s '%s' should be lowercase snake_case", fieldName, id))
	}
}

func (v *TemplateValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

var (
	validIDRegex     = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)
	placeholderRegex = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)
)

func isValidID(id string) bool {
	return validIDRegex.MatchString(id)
}

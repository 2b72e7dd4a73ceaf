// Package scenario builds the scenario catalog of a package from scenarios/index.json
// and indexes the loose content files next to it.
package scenario

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/GoPlasmatic/Reframe-IDE/backend/models"
)

const (
	// Root is the folder holding the manifest and scenario payloads
	Root = "scenarios/"

	// ManifestPath is the package-relative location of the scenario manifest
	ManifestPath = Root + "index.json"
)

// Parse locates the scenario manifest among files and normalizes it.
// A missing or malformed manifest yields an empty list; scenarios never block a load.
func Parse(files []models.FileEntry) []models.Scenario {
	for _, f := range files {
		if f.Path == ManifestPath {
			scenarios, err := ParseManifest([]byte(f.Content))
			if err != nil {
				log.Printf("Warning: Ignoring %s: %v", ManifestPath, err)
				return []models.Scenario{}
			}
			return scenarios
		}
	}
	return []models.Scenario{}
}

// ParseManifest accepts either {"outgoing": [...], "incoming": [...]} or a flat array of
// records carrying their own direction.
func ParseManifest(data []byte) ([]models.Scenario, error) {
	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) > 0 && trimmed[0] == '{':
		return parseGrouped(trimmed)
	case len(trimmed) > 0 && trimmed[0] == '[':
		return parseFlat(trimmed)
	}
	return nil, fmt.Errorf("unexpected manifest shape, expected object or array")
}

func parseGrouped(data []byte) ([]models.Scenario, error) {
	var grouped map[string]json.RawMessage
	if err := json.Unmarshal(data, &grouped); err != nil {
		return nil, err
	}

	scenarios := []models.Scenario{}
	for _, dir := range []models.ScenarioDirection{models.DirectionOutgoing, models.DirectionIncoming} {
		for i, entry := range asArray(grouped[string(dir)]) {
			scenarios = append(scenarios, toScenario(asObject(entry), dir, fmt.Sprintf("%s-%d", dir, i)))
		}
	}
	return scenarios, nil
}

func parseFlat(data []byte) ([]models.Scenario, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	scenarios := make([]models.Scenario, 0, len(entries))
	for i, entry := range entries {
		record := asObject(entry)
		dir := models.DirectionOutgoing
		if coerce(record["direction"]) == string(models.DirectionIncoming) {
			dir = models.DirectionIncoming
		}
		scenarios = append(scenarios, toScenario(record, dir, fmt.Sprintf("scenario-%d", i)))
	}
	return scenarios, nil
}

func toScenario(record map[string]json.RawMessage, dir models.ScenarioDirection, defaultID string) models.Scenario {
	id := coerce(record["id"])
	if id == "" {
		id = defaultID
	}
	return models.Scenario{
		ID:          id,
		File:        coerce(record["file"]),
		Source:      coerce(record["source"]),
		Target:      coerce(record["target"]),
		Description: coerce(record["description"]),
		Direction:   dir,
	}
}

// asArray returns the elements of a JSON array, or nothing for any other value
func asArray(raw json.RawMessage) []json.RawMessage {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}
	return entries
}

// asObject returns the fields of a JSON object, or an empty record for any other value
func asObject(raw json.RawMessage) map[string]json.RawMessage {
	record := map[string]json.RawMessage{}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return record
	}
	if err := json.Unmarshal(trimmed, &record); err != nil {
		return map[string]json.RawMessage{}
	}
	return record
}

// coerce renders any JSON value as a string; null and absent values become "".
// Numbers use their shortest decimal form and objects/arrays their compact JSON text.
func coerce(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return ""
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	case 't', 'f':
		return string(trimmed)
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err == nil {
			return buf.String()
		}
	default:
		if f, err := strconv.ParseFloat(string(trimmed), 64); err == nil {
			return formatNumber(f)
		}
	}
	return string(trimmed)
}

// Contents indexes every file under scenarios/ except the manifest, keyed by its path
// relative to the scenarios folder.
func Contents(files []models.FileEntry) map[string]string {
	contents := make(map[string]string)
	for _, f := range files {
		if !strings.HasPrefix(f.Path, Root) || f.Path == ManifestPath {
			continue
		}
		contents[strings.TrimPrefix(f.Path, Root)] = f.Content
	}
	return contents
}

// formatNumber renders a number the way JavaScript's String() does: plain
// decimals from 1e-6 up to 1e21, exponent notation outside that range.
func formatNumber(f float64) string {
	if f == 0 {
		return "0"
	}
	abs := math.Abs(f)
	if abs < 1e-6 || abs >= 1e21 {
		s := strconv.FormatFloat(f, 'g', -1, 64)
		// Go pads the exponent to two digits, JavaScript does not
		if i := strings.IndexByte(s, 'e'); i >= 0 {
			mantissa, exp := s[:i], s[i+1:]
			sign := exp[:1]
			digits := strings.TrimLeft(exp[1:], "0")
			if digits == "" {
				digits = "0"
			}
			s = mantissa + "e" + sign + digits
		}
		return s
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

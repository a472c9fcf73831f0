package types

import (
	"fmt"
	"strings"
)

// ConfigFormat selects the shape patch paths and target documents are expressed in.
type ConfigFormat string

const (
	// FormatConfigDB is the native table -> key -> field shape.
	FormatConfigDB ConfigFormat = "CONFIGDB"

	// FormatSonicYang is the hierarchical schema-tree shape.
	FormatSonicYang ConfigFormat = "SONICYANG"
)

// ParseConfigFormat parses a format name case-insensitively. An empty name
// selects the native shape.
func ParseConfigFormat(s string) (ConfigFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "configdb", "config_db":
		return FormatConfigDB, nil
	case "sonic-yang", "sonicyang", "sonic_yang":
		return FormatSonicYang, nil
	default:
		return "", fmt.Errorf("unknown config format %q (expected configdb or sonic-yang)", s)
	}
}

func (f ConfigFormat) String() string {
	if f == "" {
		return string(FormatConfigDB)
	}
	return string(f)
}

package pipeline

import (
	"fmt"
	"strings"

	"positionScope/internal/model"
)

// ParseKind maps a command or config name to an event kind.
func ParseKind(name string) (model.EventKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "positions", "position":
		return model.EventPosition, nil
	case "mint":
		return model.EventMint, nil
	case "burn":
		return model.EventBurn, nil
	case "creation", "creators", "creator":
		return model.EventCreation, nil
	default:
		return "", fmt.Errorf("unknown event kind: %q", name)
	}
}

// ParseSignatureMap converts name=kind config entries into extractor mappings.
func ParseSignatureMap(entries map[string]string) (map[string]model.EventKind, error) {
	out := make(map[string]model.EventKind, len(entries))
	for name, kindName := range entries {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		kind, err := ParseKind(kindName)
		if err != nil {
			return nil, fmt.Errorf("signature %s: %w", name, err)
		}
		out[name] = kind
	}
	return out, nil
}

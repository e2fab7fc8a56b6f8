package store

import (
	"encoding/json"
	"fmt"

	"github.com/hazardlab/sesgen/internal/catalog"
)

// marshalSIDs serializes a site-index slice as canonical JSON, so stored
// rows compare byte-for-byte across runs.
func marshalSIDs(sids []uint32) (string, error) {
	list := make([]any, len(sids))
	for i, sid := range sids {
		list[i] = sid
	}
	data, err := catalog.MarshalCanonical(list)
	if err != nil {
		return "", fmt.Errorf("marshal sids: %w", err)
	}
	return string(data), nil
}

func unmarshalSIDs(data string) ([]uint32, error) {
	var sids []uint32
	if err := json.Unmarshal([]byte(data), &sids); err != nil {
		return nil, fmt.Errorf("unmarshal sids: %w", err)
	}
	return sids, nil
}

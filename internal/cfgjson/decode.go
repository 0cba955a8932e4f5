package cfgjson

import (
	"encoding/json"
	"fmt"
)

// Pair is one block together with its exit node, in document order.
type Pair struct {
	Block BlockJSON
	Exit  ExitJSON
}

// DecodePairs parses an interchange document back into block/exit pairs.
// The document must be a top-level array alternating block and exit records.
func DecodePairs(data []byte) ([]Pair, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("document has %d records, want an even count", len(raw))
	}

	pairs := make([]Pair, 0, len(raw)/2)
	for i := 0; i < len(raw); i += 2 {
		var p Pair
		if err := json.Unmarshal(raw[i], &p.Block); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if p.Block.Type != "BasicBlock" {
			return nil, fmt.Errorf("record %d: type %q, want BasicBlock", i, p.Block.Type)
		}
		if err := json.Unmarshal(raw[i+1], &p.Exit); err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		if p.Exit.ID != p.Block.Exit {
			return nil, fmt.Errorf("record %d: exit id %q does not match block exit %q", i+1, p.Exit.ID, p.Block.Exit)
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}

package narrative

import (
	"encoding/json"
	"fmt"

	"github.com/louisbranch/emberfall/internal/errors"
)

// EncodeState renders the document for storage.
func EncodeState(s State) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, errors.Wrap(errors.CodeStateDecodeFailed, "encode narrative state", err)
	}
	return data, nil
}

// DecodeState parses a stored document and repairs anything malformed.
// Recoveries are reported, not failed: only undecodable JSON or a document
// written by a newer schema is an error.
func DecodeState(data []byte) (State, []SideEffect, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, nil, errors.Wrap(errors.CodeStateDecodeFailed, "decode narrative state", err)
	}
	if s.SchemaVersion > SchemaVersion {
		return State{}, nil, errors.New(errors.CodeStateSchemaUnsupported,
			fmt.Sprintf("document schema %d is newer than supported %d", s.SchemaVersion, SchemaVersion))
	}
	fixed, effects := s.Normalize()
	return fixed, effects, nil
}

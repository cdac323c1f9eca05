package narrative

import (
	stderrors "errors"
	"testing"

	"github.com/louisbranch/emberfall/internal/errors"
)

func TestStateRoundTripsThroughCodec(t *testing.T) {
	state, _ := runScript(t, 101)

	data, err := EncodeState(state)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, recoveries, err := DecodeState(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(recoveries) != 0 {
		t.Fatalf("healthy document reported %d recoveries", len(recoveries))
	}
	if string(marshal(t, decoded)) != string(marshal(t, state)) {
		t.Fatal("state must survive an encode/decode round trip")
	}
}

func TestDecodeStateRejectsGarbage(t *testing.T) {
	_, _, err := DecodeState([]byte("not json"))
	if err == nil {
		t.Fatal("want error for undecodable document")
	}
	var domainErr *errors.Error
	if !stderrors.As(err, &domainErr) || domainErr.Code != errors.CodeStateDecodeFailed {
		t.Fatalf("want CodeStateDecodeFailed, got %v", err)
	}
}

func TestDecodeStateRejectsNewerSchema(t *testing.T) {
	_, _, err := DecodeState([]byte(`{"schema_version":7,"world_seed":101,"turn":4}`))
	if err == nil {
		t.Fatal("want error for a document written by a newer schema")
	}
	var domainErr *errors.Error
	if !stderrors.As(err, &domainErr) || domainErr.Code != errors.CodeStateSchemaUnsupported {
		t.Fatalf("want CodeStateSchemaUnsupported, got %v", err)
	}
}

func TestDecodeStateRepairsMalformedDocument(t *testing.T) {
	decoded, recoveries, err := DecodeState([]byte(`{"schema_version":0,"world_seed":101,"turn":4,"tension":250}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(recoveries) == 0 {
		t.Fatal("malformed document should report recoveries")
	}
	if decoded.SchemaVersion != SchemaVersion || decoded.Tension > 100 {
		t.Fatalf("document not repaired: %+v", decoded)
	}
	if !decoded.Relationships.Valid() {
		t.Fatal("graph should be reset to defaults")
	}
}

package envelope

import (
	"fmt"
	"reflect"

	"github.com/fardream/go-bcs/bcs"

	"github.com/CaptainDiv/Proofspace/pkg/types"
)

// CanonicalMessage returns the exact bytes that are signed for an envelope.
//
// Canonical bytes (BCS):
//
//	intent_scope_u8 ||
//	timestamp_ms_u64le ||
//	bcs(data)
//
// BCS encodes struct fields in declaration order, integers as fixed-width
// little endian and strings/byte vectors with a ULEB128 length prefix, so the
// output depends only on the values, never on map or field iteration order.
//
// The encoder fails on maps and platform-sized ints, but it silently skips
// chan and func fields, so a payload containing them would be signed without
// them. Such payloads are rejected with ErrSerialization before encoding.
func CanonicalMessage[T any](scope types.IntentScope, timestampMs uint64, data T) ([]byte, error) {
	if err := checkEncodable(reflect.TypeOf(data), map[reflect.Type]bool{}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialization, err)
	}
	msg := types.IntentMessage[T]{
		IntentScope: scope,
		TimestampMs: timestampMs,
		Data:        data,
	}
	b, err := bcs.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("%w: bcs encode intent message: %w", ErrSerialization, err)
	}
	return b, nil
}

// checkEncodable walks t and reports kinds the BCS encoder would drop.
func checkEncodable(t reflect.Type, seen map[reflect.Type]bool) error {
	if t == nil || seen[t] {
		return nil
	}
	seen[t] = true

	switch t.Kind() {
	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return fmt.Errorf("unsupported payload kind %s in %s", t.Kind(), t)
	case reflect.Pointer, reflect.Slice, reflect.Array:
		return checkEncodable(t.Elem(), seen)
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if err := checkEncodable(f.Type, seen); err != nil {
				return fmt.Errorf("field %s: %w", f.Name, err)
			}
		}
	}
	return nil
}

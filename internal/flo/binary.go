package flo

import (
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"
)

// The binary encoding packs the same wire structure as the TOML form
// with msgpack. It exists for caches and tool-to-tool handoff where the
// textual form is too bulky; the two forms are interchangeable.

// EncodeBinary renders the object in the compact binary form, with the
// same stamping and poison gate as String.
func (o *Object) EncodeBinary() ([]byte, error) {
	wire, err := o.toWire()
	if err != nil {
		return nil, err
	}
	data, err := msgpack.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("flo: encode %q: %w", o.Name, err)
	}
	return data, nil
}

// WriteFileBinary writes the binary form to the file at path.
func (o *Object) WriteFileBinary(path string) error {
	data, err := o.EncodeBinary()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("flo: write %s: %w", path, err)
	}
	return nil
}

// DecodeBinary decodes an object from its binary form and validates it.
// Objects emitted as partial are accepted with their poison intact.
func DecodeBinary(data []byte) (*Object, error) {
	var wire wireObject
	if err := msgpack.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("flo: decode: %w", err)
	}
	return fromWire(&wire, false)
}

// DecodeBinaryPartial decodes without validating and marks the result
// partial.
func DecodeBinaryPartial(data []byte) (*Object, error) {
	var wire wireObject
	if err := msgpack.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("flo: decode: %w", err)
	}
	return fromWire(&wire, true)
}

// ReadFileBinary decodes the binary-encoded object stored at path.
func ReadFileBinary(path string) (*Object, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("flo: read %s: %w", path, err)
	}
	return DecodeBinary(data)
}

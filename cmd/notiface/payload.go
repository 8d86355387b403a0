package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/notiface/internal/model"
)

// yamlTuple is one entry of a payload file. Exactly one value field is set.
//
//   - key: 1
//     cstring: Meeting at 3pm
//   - key: 2
//     bytes: "00ff"
type yamlTuple struct {
	Key     *uint32 `yaml:"key"`
	CString *string `yaml:"cstring,omitempty"`
	Bytes   *string `yaml:"bytes,omitempty"` // Hex encoded
	Uint    *uint32 `yaml:"uint,omitempty"`
	Int     *int32  `yaml:"int,omitempty"`
}

func (y yamlTuple) tuple() (model.Tuple, error) {
	if y.Key == nil {
		return model.Tuple{}, errors.New("missing key")
	}
	key := *y.Key

	var (
		t   model.Tuple
		set int
	)
	if y.CString != nil {
		t = model.CStringTuple(key, *y.CString)
		set++
	}
	if y.Bytes != nil {
		b, err := hex.DecodeString(*y.Bytes)
		if err != nil {
			return model.Tuple{}, fmt.Errorf("key %d: invalid hex bytes: %w", key, err)
		}
		t = model.BytesTuple(key, b)
		set++
	}
	if y.Uint != nil {
		t = model.UintTuple(key, *y.Uint)
		set++
	}
	if y.Int != nil {
		t = model.IntTuple(key, *y.Int)
		set++
	}

	if set != 1 {
		return model.Tuple{}, fmt.Errorf("key %d: exactly one of cstring, bytes, uint or int is required", key)
	}
	return t, nil
}

// readPayload parses a YAML payload file.
func readPayload(r io.Reader) (model.Payload, error) {
	var entries []yamlTuple
	if err := yaml.NewDecoder(r).Decode(&entries); err != nil {
		if errors.Is(err, io.EOF) {
			return model.Payload{}, errors.New("payload file is empty")
		}
		return model.Payload{}, fmt.Errorf("failed to parse payload: %w", err)
	}

	tuples := make([]model.Tuple, 0, len(entries))
	for i, e := range entries {
		t, err := e.tuple()
		if err != nil {
			return model.Payload{}, fmt.Errorf("entry %d: %w", i, err)
		}
		tuples = append(tuples, t)
	}

	p, err := model.NewPayload(tuples...)
	if err != nil {
		return model.Payload{}, fmt.Errorf("invalid payload: %w", err)
	}
	return p, nil
}

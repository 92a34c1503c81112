package core

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Static errors.
var (
	ErrEmptyPayload      = errors.New("float payload is empty")
	ErrMisalignedPayload = errors.New("float payload is not float32-aligned")
)

const float32Size = 4

// DecodeFloats32 parses a little-endian float32 payload into a vector.
func DecodeFloats32(data []byte) ([]float32, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}

	if len(data)%float32Size != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrMisalignedPayload, len(data))
	}

	vector := make([]float32, len(data)/float32Size)
	for i := range vector {
		bits := binary.LittleEndian.Uint32(data[i*float32Size:])
		vector[i] = math.Float32frombits(bits)
	}

	return vector, nil
}

// EncodeFloats32 serializes a vector as little-endian float32 bytes.
func EncodeFloats32(vector []float32) []byte {
	data := make([]byte, len(vector)*float32Size)
	for i, value := range vector {
		binary.LittleEndian.PutUint32(data[i*float32Size:], math.Float32bits(value))
	}

	return data
}

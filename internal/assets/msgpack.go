package assets

import "github.com/vmihailenco/msgpack/v5"

// marshalArchive packs the speaker map with msgpack.
func marshalArchive(archive Archive) ([]byte, error) {
	return msgpack.Marshal(map[string][]float32(archive))
}

// unmarshalArchive unpacks a msgpack speaker map.
func unmarshalArchive(data []byte) (Archive, error) {
	var archive map[string][]float32

	err := msgpack.Unmarshal(data, &archive)
	if err != nil {
		return nil, err
	}

	return Archive(archive), nil
}

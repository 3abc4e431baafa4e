package tilearchive

import "encoding/json"

// serializeMetadata marshals an arbitrary user metadata value to JSON and
// runs it through the internal compression codec. The JSON shape itself
// is left entirely to the caller, per scope.
func serializeMetadata(metadata any, internal Compression) ([]byte, error) {
	jsonBytes, err := json.Marshal(metadata)
	if err != nil {
		return nil, err
	}
	return compressBytes(jsonBytes, internal)
}

// deserializeMetadataBytes reverses serializeMetadata down to the raw
// JSON bytes, without unmarshaling them into any particular Go type.
func deserializeMetadataBytes(b []byte, internal Compression) ([]byte, error) {
	return decompressBytes(b, internal)
}

// deserializeMetadata reverses serializeMetadata all the way to a generic
// JSON value. Callers that know the expected shape should instead call
// deserializeMetadataBytes and json.Unmarshal into their own type.
func deserializeMetadata(b []byte, internal Compression) (any, error) {
	jsonBytes, err := deserializeMetadataBytes(b, internal)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(jsonBytes, &v); err != nil {
		return nil, err
	}
	return v, nil
}

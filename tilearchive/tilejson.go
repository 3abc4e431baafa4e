package tilearchive

import (
	"encoding/json"
)

func tileTypeExt(t TileType) string {
	switch t {
	case TileTypePbf:
		return "mvt"
	case TileTypePng:
		return "png"
	case TileTypeJpeg:
		return "jpg"
	case TileTypeWebp:
		return "webp"
	case TileTypeAvif:
		return "avif"
	default:
		return "bin"
	}
}

func tileTypeContentType(t TileType) (string, bool) {
	switch t {
	case TileTypePbf:
		return "application/vnd.mapbox-vector-tile", true
	case TileTypePng:
		return "image/png", true
	case TileTypeJpeg:
		return "image/jpeg", true
	case TileTypeWebp:
		return "image/webp", true
	case TileTypeAvif:
		return "image/avif", true
	default:
		return "", false
	}
}

// CreateTileJSON builds a TileJSON 3.0.0 document for an archive. Unlike
// the source format this one carries no geographic bounds or center in
// its header, so those fields are only emitted if present in metadata.
func CreateTileJSON(header Header, metadata []byte, tileURL string) ([]byte, error) {
	var metadataMap map[string]interface{}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &metadataMap); err != nil {
			return nil, err
		}
	}

	doc := map[string]interface{}{
		"tilejson": "3.0.0",
		"scheme":   "xyz",
		"tiles":    []string{tileURL + "/{z}/{x}/{y}." + tileTypeExt(header.TileType)},
		"minzoom":  header.MinZoom,
		"maxzoom":  header.MaxZoom,
	}
	if header.Cubic {
		doc["faces"] = NumFaces
	}
	for _, key := range []string{"vector_layers", "attribution", "description", "name", "version", "bounds", "center"} {
		if v, ok := metadataMap[key]; ok {
			doc[key] = v
		}
	}

	return json.Marshal(doc)
}

package models

import "encoding/json"

// Decode turns a loosely-typed document into a typed Product. Price and
// stock are coerced to integers, non-numeric input defaults to 0, and the
// status is re-derived from stock unless administratively "Inactive".
// This is the single validating decode point for records arriving from
// the document feed.
func Decode(raw map[string]any) Product {
	p := Product{
		Slug:        asString(raw["slug"]),
		Name:        asString(raw["name"]),
		Price:       asInt64(raw["price"]),
		Stock:       int(asInt64(raw["stock"])),
		Category:    asString(raw["category"]),
		Description: asString(raw["description"]),
	}
	p.Status = DeriveStatus(asString(raw["status"]), p.Stock)
	p.CreatedAt = asInt64(raw["created_at"])
	p.UpdatedAt = asInt64(raw["updated_at"])

	if imgs, ok := raw["images"].([]any); ok {
		p.Images = make(ImageList, 0, len(imgs))
		for _, img := range imgs {
			if s := asString(img); s != "" {
				p.Images = append(p.Images, s)
			}
		}
	}
	return p
}

// DecodeDoc unmarshals a raw JSON document and decodes it. A document
// that is not an object decodes to the zero Product.
func DecodeDoc(doc json.RawMessage) Product {
	var raw map[string]any
	if err := json.Unmarshal(doc, &raw); err != nil {
		return Product{}
	}
	return Decode(raw)
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0
		}
		return i
	default:
		return 0
	}
}

package content

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// Blocks is an ordered list of blocks that (de)serialises the CMS JSON shape
// and is stored as JSONB.
type Blocks []Block

// ErrMalformed is returned when a block is not a JSON object.
var ErrMalformed = errors.New("content: malformed block")

func (bs *Blocks) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	out := make(Blocks, 0, len(raws))
	for i, raw := range raws {
		b, err := decodeBlock(raw)
		if err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
		out = append(out, b)
	}
	*bs = out
	return nil
}

func (bs Blocks) MarshalJSON() ([]byte, error) {
	raws := make([]json.RawMessage, 0, len(bs))
	for _, b := range bs {
		raw, err := encodeBlock(b)
		if err != nil {
			return nil, err
		}
		raws = append(raws, raw)
	}
	return json.Marshal(raws)
}

// Scan implements sql.Scanner for JSONB columns.
func (bs *Blocks) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*bs = nil
		return nil
	case []byte:
		return bs.UnmarshalJSON(v)
	case string:
		return bs.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("content: cannot scan %T into Blocks", src)
	}
}

// Value implements driver.Valuer.
func (bs Blocks) Value() (driver.Value, error) {
	if bs == nil {
		return []byte("[]"), nil
	}
	return bs.MarshalJSON()
}

func decodeBlock(raw json.RawMessage) (Block, error) {
	var head struct {
		Type string `json:"_type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch Kind(head.Type) {
	case KindHero:
		return decodeAs[Hero](raw)
	case KindText:
		return decodeAs[Text](raw)
	case KindTestimonials:
		return decodeAs[Testimonials](raw)
	case KindBlogPosts:
		// Studio documents name the field blogPosts; resolved blocks use posts.
		var b struct {
			BlogPosts
			Legacy []Post `json:"blogPosts"`
		}
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, err
		}
		if len(b.Posts) == 0 {
			b.Posts = b.Legacy
		}
		return b.BlogPosts, nil
	case KindCTA:
		return decodeAs[CTA](raw)
	case KindDivider:
		return decodeAs[Divider](raw)
	default:
		return Ignored{Type: head.Type, Raw: append(json.RawMessage(nil), raw...)}, nil
	}
}

func decodeAs[T Block](raw json.RawMessage) (Block, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func encodeBlock(b Block) (json.RawMessage, error) {
	if ig, ok := b.(Ignored); ok {
		return ig.Raw, nil
	}

	body, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}

	typ, err := json.Marshal(string(b.Kind()))
	if err != nil {
		return nil, err
	}

	// Splice "_type" in front of the variant's own fields.
	out := make([]byte, 0, len(body)+len(typ)+10)
	out = append(out, `{"_type":`...)
	out = append(out, typ...)
	if len(body) > 2 {
		out = append(out, ',')
		out = append(out, body[1:]...)
	} else {
		out = append(out, '}')
	}
	return out, nil
}

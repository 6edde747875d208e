// Package tuple implements the on-disk tuple wire format shared by every
// heap file: an 8-byte reserved header followed by attributes serialized in
// schema order, each attribute padded to the next 4-byte boundary.
package tuple

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/hit-dbcourse/bufjoindb/catalog"
)

// HeaderSize is the width of the reserved, always-zero tuple header.
const HeaderSize = 8

func align4(n int) int {
	return (n + 3) &^ 3
}

// Align4 rounds n up to the next multiple of 4. Exported so the join
// package can grow a result tuple buffer by the same rule the codec uses.
func Align4(n int) int {
	return align4(n)
}

// Span locates one attribute's raw encoded bytes within a tuple, not
// counting the alignment padding that follows it.
type Span struct {
	Start int
	Len   int
}

// Spans walks data against schema and returns each attribute's raw byte
// range, plus the total tuple length including the final attribute's
// trailing alignment padding.
func Spans(schema *catalog.TableSchema, data []byte) ([]Span, int, error) {
	spans := make([]Span, len(schema.Attributes))
	cursor := HeaderSize

	for i, attr := range schema.Attributes {
		start := cursor
		var rawLen int

		switch attr.Type {
		case catalog.INT:
			rawLen = 4
		case catalog.CHAR:
			rawLen = attr.MaxSize
		case catalog.VARCHAR:
			if start >= len(data) {
				return nil, 0, errors.Errorf("tuple: truncated before VARCHAR length byte for %q", attr.Name)
			}
			rawLen = 1 + int(data[start])
		default:
			return nil, 0, errors.Errorf("tuple: unknown attribute type %v", attr.Type)
		}

		if start+rawLen > len(data) {
			return nil, 0, errors.Errorf("tuple: truncated while reading attribute %q", attr.Name)
		}

		spans[i] = Span{Start: start, Len: rawLen}
		cursor = align4(start + rawLen)
	}

	return spans, cursor, nil
}

// Encode serializes values, one per attribute of schema, in order.
// INT values must be int32, CHAR and VARCHAR values must be string.
func Encode(schema *catalog.TableSchema, values []interface{}) ([]byte, error) {
	if len(values) != len(schema.Attributes) {
		return nil, errors.Errorf("tuple: schema %q has %d attributes, got %d values", schema.Name, len(schema.Attributes), len(values))
	}

	buf := make([]byte, HeaderSize)

	for i, attr := range schema.Attributes {
		switch attr.Type {
		case catalog.INT:
			v, ok := values[i].(int32)
			if !ok {
				return nil, errors.Errorf("tuple: attribute %q expects int32, got %T", attr.Name, values[i])
			}
			var enc [4]byte
			binary.BigEndian.PutUint32(enc[:], uint32(v))
			buf = append(buf, enc[:]...)

		case catalog.CHAR:
			s, ok := values[i].(string)
			if !ok {
				return nil, errors.Errorf("tuple: attribute %q expects string, got %T", attr.Name, values[i])
			}
			if len(s) > attr.MaxSize {
				return nil, errors.Errorf("tuple: value %q exceeds CHAR(%d) for attribute %q", s, attr.MaxSize, attr.Name)
			}
			enc := make([]byte, attr.MaxSize)
			copy(enc, s)
			buf = append(buf, enc...)

		case catalog.VARCHAR:
			s, ok := values[i].(string)
			if !ok {
				return nil, errors.Errorf("tuple: attribute %q expects string, got %T", attr.Name, values[i])
			}
			if len(s) > attr.MaxSize || len(s) > 255 {
				return nil, errors.Errorf("tuple: value %q exceeds VARCHAR(%d) for attribute %q", s, attr.MaxSize, attr.Name)
			}
			buf = append(buf, byte(len(s)))
			buf = append(buf, s...)

		default:
			return nil, errors.Errorf("tuple: unknown attribute type %v", attr.Type)
		}

		if padded := align4(len(buf)); padded > len(buf) {
			buf = append(buf, make([]byte, padded-len(buf))...)
		}
	}

	return buf, nil
}

// Decode parses data against schema into one Go value per attribute: int32
// for INT, string for CHAR (trailing 0x00 stripped) and VARCHAR.
func Decode(schema *catalog.TableSchema, data []byte) ([]interface{}, error) {
	spans, _, err := Spans(schema, data)
	if err != nil {
		return nil, err
	}

	values := make([]interface{}, len(schema.Attributes))
	for i, attr := range schema.Attributes {
		sp := spans[i]
		raw := data[sp.Start : sp.Start+sp.Len]

		switch attr.Type {
		case catalog.INT:
			values[i] = int32(binary.BigEndian.Uint32(raw))
		case catalog.CHAR:
			end := len(raw)
			for end > 0 && raw[end-1] == 0 {
				end--
			}
			values[i] = string(raw[:end])
		case catalog.VARCHAR:
			values[i] = string(raw[1:])
		}
	}
	return values, nil
}

// AttributeBytes returns the raw on-disk bytes of attribute idx within
// data, alignment padding stripped, exactly as used to build a natural-join
// key: 4 bytes for INT, MaxSize bytes for CHAR, and length-byte-plus-content
// for VARCHAR.
func AttributeBytes(schema *catalog.TableSchema, data []byte, idx int) ([]byte, error) {
	spans, _, err := Spans(schema, data)
	if err != nil {
		return nil, err
	}
	sp := spans[idx]
	return data[sp.Start : sp.Start+sp.Len], nil
}

// Len returns the total encoded length of data against schema, including
// the trailing alignment padding of the last attribute.
func Len(schema *catalog.TableSchema, data []byte) (int, error) {
	_, total, err := Spans(schema, data)
	return total, err
}

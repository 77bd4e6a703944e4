package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// BuildQuery constructs a framed DNS query message for qname/qtype as
// described in spec.md §4.1: a fixed header (ID=0, RD=1, QDCOUNT=1), one
// question, prefixed with its 16-bit big-endian TCP length.
//
// The query ID is always 0: this transport is strictly one query per TCP
// connection, so there is nothing to disambiguate a response against (see
// spec.md §9's note on ID reuse). A resolver that ever pipelines multiple
// queries over one connection must stop doing this and randomize IDs.
func BuildQuery(qname string, qtype RecordType) ([]byte, error) {
	if !SupportedType(qtype) {
		return nil, fmt.Errorf("wire: unsupported query type %s", qtype)
	}

	header := Header{
		ID:      0,
		Flags:   0x0100, // RD=1, all other bits zero
		QDCOUNT: 1,
	}
	question := Question{Name: qname, Type: qtype, Class: ClassIN}

	questionBytes, err := question.Pack()
	if err != nil {
		return nil, fmt.Errorf("wire: encode question: %w", err)
	}

	var body bytes.Buffer
	body.Write(header.Pack())
	body.Write(questionBytes)

	if body.Len() > 0xFFFF {
		return nil, fmt.Errorf("wire: query too large to frame: %d bytes", body.Len())
	}

	var framed bytes.Buffer
	var lenPrefix [2]byte
	binary.BigEndian.PutUint16(lenPrefix[:], uint16(body.Len()))
	framed.Write(lenPrefix[:])
	framed.Write(body.Bytes())
	return framed.Bytes(), nil
}

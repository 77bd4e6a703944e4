package wire

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// maxSectionCount bounds ANCOUNT/NSCOUNT/ARCOUNT, per spec.md §3's invariant
// that a declared count above 128 is rejected outright rather than trusted.
const maxSectionCount = 128

// maxTXTFragments bounds the number of length-prefixed text fragments read
// out of a single TXT RDATA, per spec.md §4.1's safety counter.
const maxTXTFragments = 10

// Response is the decoded form of a DNS response message.
type Response struct {
	Header     Header
	Question   Question
	Answer     []ResourceRecord
	Authority  []ResourceRecord
	Additional []ResourceRecord
}

// ParseResponse strips the 2-byte TCP length prefix from framed and decodes
// the DNS message that follows, per spec.md §4.1/§4.2.
func ParseResponse(framed []byte) (*Response, error) {
	if len(framed) < 2 {
		return nil, fmt.Errorf("wire: framed response too short")
	}
	msglen := binary.BigEndian.Uint16(framed[0:2])
	body := framed[2:]
	if int(msglen) != len(body) {
		return nil, fmt.Errorf("wire: frame length %d does not match body length %d", msglen, len(body))
	}
	return ParseMessage(body)
}

// ParseMessage decodes an unframed DNS message body (header + sections).
func ParseMessage(msg []byte) (*Response, error) {
	header, err := UnpackHeader(msg)
	if err != nil {
		return nil, err
	}
	if header.QDCOUNT != 1 {
		return nil, fmt.Errorf("wire: invalid response: QDCOUNT=%d, want 1", header.QDCOUNT)
	}
	if header.ANCOUNT > maxSectionCount || header.NSCOUNT > maxSectionCount || header.ARCOUNT > maxSectionCount {
		return nil, fmt.Errorf("wire: invalid response: section count exceeds %d", maxSectionCount)
	}

	offset := 12
	question, n, err := parseQuestion(msg, offset)
	if err != nil {
		return nil, fmt.Errorf("wire: parse question: %w", err)
	}
	offset += n

	resp := &Response{Header: header, Question: question}

	resp.Answer, offset, err = parseRRSection(msg, offset, int(header.ANCOUNT))
	if err != nil {
		return nil, fmt.Errorf("wire: parse answer section: %w", err)
	}
	for _, rr := range resp.Answer {
		if !SupportedType(rr.Type) {
			return nil, fmt.Errorf("wire: invalid response: unrecognized RR type %s in answer section", rr.Type)
		}
	}

	resp.Authority, offset, err = parseRRSection(msg, offset, int(header.NSCOUNT))
	if err != nil {
		return nil, fmt.Errorf("wire: parse authority section: %w", err)
	}

	resp.Additional, _, err = parseRRSection(msg, offset, int(header.ARCOUNT))
	if err != nil {
		return nil, fmt.Errorf("wire: parse additional section: %w", err)
	}

	return resp, nil
}

func parseRRSection(msg []byte, offset, count int) ([]ResourceRecord, int, error) {
	rrs := make([]ResourceRecord, 0, count)
	for i := 0; i < count; i++ {
		rr, n, err := parseResourceRecord(msg, offset)
		if err != nil {
			return nil, 0, fmt.Errorf("record %d: %w", i, err)
		}
		rrs = append(rrs, rr)
		offset += n
	}
	return rrs, offset, nil
}

// parseResourceRecord reads one RR's common fields and, for the types this
// codec understands, its typed RDATA. Unrecognized types are still
// structurally consumed (via RDLENGTH) so the cursor stays correct for
// subsequent records; whether that leaves the overall response invalid is
// decided by the caller (fatal in the answer section, tolerated elsewhere —
// see spec.md §9 and DESIGN.md).
func parseResourceRecord(msg []byte, offset int) (ResourceRecord, int, error) {
	var rr ResourceRecord
	start := offset

	name, n, err := DecodeDomainName(msg, offset)
	if err != nil {
		return rr, 0, fmt.Errorf("name: %w", err)
	}
	rr.Name = name
	offset += n

	if offset+10 > len(msg) {
		return rr, 0, fmt.Errorf("message too short for RR header fields")
	}
	rr.Type = RecordType(binary.BigEndian.Uint16(msg[offset : offset+2]))
	rr.Class = binary.BigEndian.Uint16(msg[offset+2 : offset+4])
	rr.TTL = binary.BigEndian.Uint32(msg[offset+4 : offset+8]) // full 32-bit read, see DESIGN.md
	rdlength := int(binary.BigEndian.Uint16(msg[offset+8 : offset+10]))
	offset += 10

	if offset+rdlength > len(msg) {
		return rr, 0, fmt.Errorf("RDATA length %d exceeds message boundary", rdlength)
	}
	rdata := msg[offset : offset+rdlength]

	rr.RData, err = parseRData(msg, offset, rdlength, rdata, rr.Type)
	if err != nil {
		return rr, 0, fmt.Errorf("rdata: %w", err)
	}
	offset += rdlength

	return rr, offset - start, nil
}

func parseRData(fullMsg []byte, rdataOffset, rdlength int, rdata []byte, rtype RecordType) (RData, error) {
	switch rtype {
	case TypeA:
		if rdlength != 4 {
			return RData{}, fmt.Errorf("A record RDLENGTH=%d, want 4", rdlength)
		}
		return RData{Type: TypeA, A: formatDottedQuad(rdata)}, nil

	case TypeNS, TypePTR:
		name, _, err := DecodeDomainName(fullMsg, rdataOffset)
		if err != nil {
			return RData{}, err
		}
		return RData{Type: rtype, Name: name}, nil

	case TypeCNAME:
		// rdata intentionally discarded per spec.md §3: only the tag is kept.
		return RData{Type: TypeCNAME}, nil

	case TypeMX:
		if len(rdata) < 2 {
			return RData{}, fmt.Errorf("MX RDATA too short")
		}
		pref := binary.BigEndian.Uint16(rdata[0:2])
		host, _, err := DecodeDomainName(fullMsg, rdataOffset+2)
		if err != nil {
			return RData{}, err
		}
		return RData{Type: TypeMX, MX: MX{Preference: pref, Host: host}}, nil

	case TypeTXT:
		txt, err := parseTXT(rdata)
		if err != nil {
			return RData{}, err
		}
		return RData{Type: TypeTXT, TXT: txt}, nil

	default:
		return RData{Type: rtype}, nil
	}
}

func parseTXT(rdata []byte) (string, error) {
	var parts []string
	pos := 0
	for fragment := 0; pos < len(rdata); fragment++ {
		if fragment >= maxTXTFragments {
			return "", fmt.Errorf("TXT record exceeds %d fragments", maxTXTFragments)
		}
		length := int(rdata[pos])
		pos++
		if pos+length > len(rdata) {
			return "", fmt.Errorf("TXT fragment extends beyond RDLENGTH")
		}
		parts = append(parts, string(rdata[pos:pos+length]))
		pos += length
	}
	return strings.Join(parts, ""), nil
}

func formatDottedQuad(b []byte) string {
	return strconv.Itoa(int(b[0])) + "." + strconv.Itoa(int(b[1])) + "." + strconv.Itoa(int(b[2])) + "." + strconv.Itoa(int(b[3]))
}

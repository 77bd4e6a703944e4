package reverse

import (
	"context"
	"encoding/binary"
	"net"
	"sort"
	"testing"
	"time"

	"github.com/kukalajet/dnsresolver/pool"
	"github.com/kukalajet/dnsresolver/resolver"
	"github.com/kukalajet/dnsresolver/transport"
	"github.com/kukalajet/dnsresolver/wire"
)

func TestReverseNameBuild(t *testing.T) {
	got, err := reverseName("1.2.3.4")
	if err != nil {
		t.Fatalf("reverseName: %v", err)
	}
	if got != "4.3.2.1.in-addr.arpa" {
		t.Fatalf("got %q", got)
	}
}

func TestReverseNameRejectsInvalid(t *testing.T) {
	if _, err := reverseName("not-an-ip"); err == nil {
		t.Fatal("expected error")
	}
}

// startReverseStub answers every query on a single listener by dispatching on
// the queried QNAME/QTYPE.
func startReverseStub(t *testing.T, answer map[string][]byte) (string, uint16, func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				var lenPrefix [2]byte
				if _, err := readFull(conn, lenPrefix[:]); err != nil {
					return
				}
				qlen := binary.BigEndian.Uint16(lenPrefix[:])
				body := make([]byte, qlen)
				if _, err := readFull(conn, body); err != nil {
					return
				}
				query, err := wire.ParseMessage(body)
				if err != nil {
					return
				}
				key := query.Question.Name + "/" + query.Question.Type.String()
				respBody, ok := answer[key]
				if !ok {
					respBody = buildEmptyAnswer(t, query.Question.Name)
				}
				var out [2]byte
				binary.BigEndian.PutUint16(out[:], uint16(len(respBody)))
				_, _ = conn.Write(out[:])
				_, _ = conn.Write(respBody)
			}()
		}
	}()
	host, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port := mustAtoi(t, portStr)
	return host, port, func() { ln.Close() }
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func mustAtoi(t *testing.T, s string) uint16 {
	t.Helper()
	var n int
	for _, c := range s {
		if c < '0' || c > '9' {
			t.Fatalf("bad port %q", s)
		}
		n = n*10 + int(c-'0')
	}
	return uint16(n)
}

func buildRR(t *testing.T, name string, rtype wire.RecordType, ttl uint32, rdata []byte) []byte {
	t.Helper()
	encName, err := wire.EncodeDomainName(name)
	if err != nil {
		t.Fatalf("encode name: %v", err)
	}
	var fields [10]byte
	binary.BigEndian.PutUint16(fields[0:2], uint16(rtype))
	binary.BigEndian.PutUint16(fields[2:4], wire.ClassIN)
	binary.BigEndian.PutUint32(fields[4:8], ttl)
	binary.BigEndian.PutUint16(fields[8:10], uint16(len(rdata)))
	out := append([]byte{}, encName...)
	out = append(out, fields[:]...)
	out = append(out, rdata...)
	return out
}

func buildBody(t *testing.T, qname string, qtype wire.RecordType, answers [][]byte) []byte {
	t.Helper()
	header := wire.Header{ID: 0, Flags: 0x8180, QDCOUNT: 1, ANCOUNT: uint16(len(answers))}
	q := wire.Question{Name: qname, Type: qtype, Class: wire.ClassIN}
	qBytes, err := q.Pack()
	if err != nil {
		t.Fatalf("pack question: %v", err)
	}
	out := append([]byte{}, header.Pack()...)
	out = append(out, qBytes...)
	for _, rr := range answers {
		out = append(out, rr...)
	}
	return out
}

func buildEmptyAnswer(t *testing.T, qname string) []byte {
	t.Helper()
	return buildBody(t, qname, wire.TypeA, nil)
}

func TestReverseLookupConfirmsOnlyMatchingHost(t *testing.T) {
	ptrRR1 := buildRR(t, "4.3.2.1.in-addr.arpa", wire.TypePTR, 300, mustEncode(t, "host1.example.com"))
	ptrRR2 := buildRR(t, "4.3.2.1.in-addr.arpa", wire.TypePTR, 300, mustEncode(t, "host2.example.com"))
	aRR1 := buildRR(t, "host1.example.com", wire.TypeA, 300, []byte{1, 2, 3, 4})
	aRR2 := buildRR(t, "host2.example.com", wire.TypeA, 300, []byte{9, 9, 9, 9})

	answers := map[string][]byte{
		"4.3.2.1.in-addr.arpa/PTR":  buildBody(t, "4.3.2.1.in-addr.arpa", wire.TypePTR, [][]byte{ptrRR1, ptrRR2}),
		"host1.example.com/A":       buildBody(t, "host1.example.com", wire.TypeA, [][]byte{aRR1}),
		"host2.example.com/A":       buildBody(t, "host2.example.com", wire.TypeA, [][]byte{aRR2}),
	}
	host, port, closeSrv := startReverseStub(t, answers)
	defer closeSrv()

	r := resolver.New()
	r.Transport = &transport.Transport{ConnectTimeout: 2 * time.Second}
	p := pool.New([]pool.Nameserver{{Host: host, Port: port}}, false, nil)

	got, err := ReverseLookup(context.Background(), r, p, "1.2.3.4")
	if err != nil {
		t.Fatalf("ReverseLookup: %v", err)
	}
	sort.Strings(got)
	if len(got) != 1 || got[0] != "host1.example.com" {
		t.Fatalf("got %v, want [host1.example.com]", got)
	}
}

func mustEncode(t *testing.T, name string) []byte {
	t.Helper()
	b, err := wire.EncodeDomainName(name)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return b
}

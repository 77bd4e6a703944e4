// Package reverse implements forward-confirmed reverse DNS lookup
// (spec.md §4.5): resolve the PTR record for an IP address, then confirm
// each candidate hostname by querying its A records in parallel and
// keeping only the hostnames whose answer set contains the original IP.
package reverse

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kukalajet/dnsresolver/pool"
	"github.com/kukalajet/dnsresolver/resolver"
	"github.com/kukalajet/dnsresolver/wire"
)

// ReverseLookup returns the subset of PTR-advertised hostnames for ip
// that are forward-confirmed: each returned hostname's A records include
// ip itself. A nil, nil result means the PTR query returned no data or
// that no candidate hostname was confirmed (not an error).
func ReverseLookup(ctx context.Context, r *resolver.Resolver, p *pool.Pool, ip string) ([]string, error) {
	arpaName, err := reverseName(ip)
	if err != nil {
		return nil, err
	}

	ptrRecords, err := r.Resolve(ctx, p, arpaName, wire.TypePTR)
	if err != nil {
		return nil, fmt.Errorf("reverse: PTR lookup for %s: %w", ip, err)
	}
	if len(ptrRecords) == 0 {
		return nil, nil
	}

	candidates := make([]string, 0, len(ptrRecords))
	for _, rr := range ptrRecords {
		candidates = append(candidates, rr.Name)
	}

	confirmed := make([]bool, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	for i, host := range candidates {
		i, host := i, host
		g.Go(func() error {
			aRecords, err := r.Resolve(gctx, p, host, wire.TypeA)
			if err != nil {
				// One candidate's failure does not invalidate the others;
				// it simply fails to confirm.
				return nil
			}
			for _, a := range aRecords {
				if a.A == ip {
					confirmed[i] = true
					break
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []string
	for i, ok := range confirmed {
		if ok {
			out = append(out, candidates[i])
		}
	}
	return out, nil
}

// reverseName builds the "d.c.b.a.in-addr.arpa" query name for a
// dotted-quad IPv4 address, per spec.md §4.5.
func reverseName(ip string) (string, error) {
	octets := strings.Split(ip, ".")
	if len(octets) != 4 {
		return "", fmt.Errorf("reverse: %q is not a dotted-quad IPv4 address", ip)
	}
	reversed := make([]string, 4)
	for i, o := range octets {
		n, err := strconv.Atoi(o)
		if err != nil || n < 0 || n > 255 {
			return "", fmt.Errorf("reverse: %q is not a dotted-quad IPv4 address", ip)
		}
		reversed[3-i] = o
	}
	return strings.Join(reversed, ".") + ".in-addr.arpa", nil
}

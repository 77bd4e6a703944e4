// Package resolver implements the resolution state machine described in
// spec.md §4.4: sequential server failover within one logical lookup,
// iterative recursion via authority NS referrals bounded at 10 hops, and
// CNAME skipping with MX glue-join.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/kukalajet/dnsresolver/config"
	"github.com/kukalajet/dnsresolver/dnserr"
	"github.com/kukalajet/dnsresolver/pool"
	"github.com/kukalajet/dnsresolver/transport"
	"github.com/kukalajet/dnsresolver/wire"
)

// maxReferralHops bounds iterative NS recursion per spec.md §3/§4.4.
const maxReferralHops = 10

// Resolver drives one logical lookup end to end: pick a server, send the
// query, decode the response, and either deliver an answer, follow a
// referral, or fail.
type Resolver struct {
	Transport *transport.Transport
	Logger    *log.Logger
}

// New returns a Resolver with a default Transport and a discard logger.
func New() *Resolver {
	return &Resolver{
		Transport: transport.New(),
		Logger:    log.New(io.Discard, "", 0),
	}
}

// NewFromConfig returns a Resolver whose Transport.ConnectTimeout is
// driven by cfg.TimeoutConnect (spec.md §6), so the config's recognized
// timeout option actually reaches the connection the resolver opens.
func NewFromConfig(cfg *config.Config) *Resolver {
	r := New()
	r.Transport.ConnectTimeout = time.Duration(cfg.TimeoutConnect) * time.Second
	return r
}

// SetDebugWriter redirects diagnostic logging to w (spec.md §6's "debug"
// option), or discards it when w is nil.
func (r *Resolver) SetDebugWriter(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	r.Logger = log.New(w, "", log.LstdFlags)
}

// Resolve performs one logical lookup of qname/qtype against p, failing
// over across p's servers and following NS referrals as described in
// spec.md §4.4. A nil, nil return means "no data, no referral" — a
// successful lookup that simply found nothing.
func (r *Resolver) Resolve(ctx context.Context, p *pool.Pool, qname string, qtype wire.RecordType) ([]wire.RData, error) {
	if !wire.SupportedType(qtype) {
		return nil, fmt.Errorf("resolver: unsupported record type %s", qtype)
	}
	return r.resolveWithServers(ctx, p.Snapshot(), qname, qtype, 0)
}

// resolveWithServers runs the outer failover loop against snap, then, on
// a successful decode, delegates to inspect for the inner referral logic.
func (r *Resolver) resolveWithServers(ctx context.Context, snap *pool.Snapshot, qname string, qtype wire.RecordType, hops int) ([]wire.RData, error) {
	singleServerPool := snap.Len() == 1

	for {
		ns, idx, err := snap.Next()
		if err != nil {
			return nil, dnserr.ErrNoServerAlive
		}
		label := serverLabel(ns)

		query, err := wire.BuildQuery(qname, qtype)
		if err != nil {
			return nil, err
		}

		raw, sendErr := r.Transport.SendAndRead(ctx, ns.Host, ns.Port, query)
		if sendErr != nil {
			var terr *transport.Error
			if !errors.As(sendErr, &terr) {
				return nil, sendErr
			}

			if terr.Outcome == transport.OutcomeIncomplete {
				r.logf("incomplete response from %s, failing lookup", label)
				return nil, &dnserr.IncompleteResponse{Server: label}
			}

			snap.MarkDead(idx)
			r.logf("server %s failed (%v), failing over", label, terr)
			if singleServerPool {
				return nil, classifyTransportFailure(label, terr)
			}
			continue
		}

		resp, parseErr := wire.ParseResponse(raw)
		if parseErr != nil {
			r.logf("invalid response from %s: %v", label, parseErr)
			return nil, fmt.Errorf("%w: %v", dnserr.ErrInvalidResponse, parseErr)
		}

		return r.inspect(ctx, ns, resp, qname, qtype, hops)
	}
}

func classifyTransportFailure(label string, terr *transport.Error) error {
	switch terr.Outcome {
	case transport.OutcomeConnectionRefused:
		return &dnserr.ConnectionRefused{Server: label}
	case transport.OutcomeTimeout:
		return &dnserr.Timeout{Server: label}
	default:
		return &dnserr.ServerError{Server: label, Code: terr.Code}
	}
}

// inspect implements spec.md §4.4's inner loop: deliver an answer if one
// is present, otherwise follow an NS referral, otherwise deliver "no data".
func (r *Resolver) inspect(ctx context.Context, queried pool.Nameserver, resp *wire.Response, qname string, qtype wire.RecordType, hops int) ([]wire.RData, error) {
	if len(resp.Answer) > 0 {
		return r.deliverAnswer(resp, qtype), nil
	}

	for _, rr := range resp.Authority {
		if rr.Type != wire.TypeNS {
			continue
		}
		if strings.EqualFold(rr.RData.Name, queried.Host) {
			continue
		}
		if hops >= maxReferralHops {
			return nil, dnserr.ErrTooManyHops
		}
		r.logf("referral from %s to %s (hop %d)", serverLabel(queried), rr.RData.Name, hops+1)
		referralPool := pool.New([]pool.Nameserver{{Host: rr.RData.Name, Port: pool.DefaultPort}}, false, nil)
		return r.resolveWithServers(ctx, referralPool.Snapshot(), qname, qtype, hops+1)
	}

	r.logf("no answer and no referral from %s", serverLabel(queried))
	return nil, nil
}

// deliverAnswer extracts the requested type's RDATA from the answer
// section, skips CNAME records unless CNAME itself was requested (logged,
// never chased), and for MX queries joins glue A records from the
// additional section.
func (r *Resolver) deliverAnswer(resp *wire.Response, qtype wire.RecordType) []wire.RData {
	var out []wire.RData
	for _, rr := range resp.Answer {
		if rr.Type == wire.TypeCNAME && qtype != wire.TypeCNAME {
			r.logf("skipping CNAME %s -> (target discarded)", rr.Name)
			continue
		}
		if rr.Type != qtype {
			continue
		}
		out = append(out, rr.RData)
	}

	if qtype == wire.TypeMX {
		joinMXGlue(out, resp.Additional)
	}

	return out
}

// joinMXGlue attaches matching A-record addresses from additional to each
// MX record in records, by owner-name match against the MX host.
func joinMXGlue(records []wire.RData, additional []wire.ResourceRecord) {
	for i := range records {
		if records[i].Type != wire.TypeMX {
			continue
		}
		var addrs []string
		for _, rr := range additional {
			if rr.Type == wire.TypeA && strings.EqualFold(rr.Name, records[i].MX.Host) {
				addrs = append(addrs, rr.RData.A)
			}
		}
		records[i].MX.Address = addrs
	}
}

func serverLabel(ns pool.Nameserver) string {
	return fmt.Sprintf("%s:%d", ns.Host, ns.Port)
}

func (r *Resolver) logf(format string, args ...any) {
	if r.Logger != nil {
		r.Logger.Printf(format, args...)
	}
}

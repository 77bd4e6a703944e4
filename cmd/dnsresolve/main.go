// Command dnsresolve is a dig-like command-line DNS resolver. It queries
// a pool of nameservers over TCP, follows NS referrals, and prints a
// header/question/answer section summary in the style of dig(1).
//
// Usage:
//
//	dnsresolve [-ns "1.1.1.1;8.8.8.8"] [-timeout seconds] [-debug] [-reverse] <domain-or-ip> [type]
//
// Examples:
//
//	dnsresolve example.com          # A records via the default pool
//	dnsresolve example.com MX       # mail exchange records
//	dnsresolve -ns "8.8.8.8" -debug example.com NS
//	dnsresolve -timeout 5 example.com
//	dnsresolve -reverse 93.184.216.34
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/kukalajet/dnsresolver/config"
	"github.com/kukalajet/dnsresolver/pool"
	"github.com/kukalajet/dnsresolver/resolver"
	"github.com/kukalajet/dnsresolver/reverse"
	"github.com/kukalajet/dnsresolver/wire"
)

func main() {
	nsFlag := flag.String("ns", "8.8.8.8;1.1.1.1", "';'-delimited nameserver preference list")
	timeoutFlag := flag.Uint("timeout", uint(config.DefaultTimeoutConnectSeconds), "TCP connect timeout, in seconds")
	debugFlag := flag.Bool("debug", false, "print referral/failover trace lines to stderr")
	reverseFlag := flag.Bool("reverse", false, "treat the argument as an IP and perform a PTR lookup")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [-ns list] [-timeout seconds] [-debug] [-reverse] <domain-or-ip> [type]\n", os.Args[0])
		os.Exit(1)
	}
	target := args[0]
	recordTypeStr := "A"
	if len(args) > 1 {
		recordTypeStr = strings.ToUpper(args[1])
	}

	cfg := config.New().SetNameserver(*nsFlag).SetDebug(*debugFlag).SetTimeoutConnect(uint32(*timeoutFlag))
	p := pool.New(pool.ParsePreference(cfg.Nameserver), false, nil)

	r := resolver.NewFromConfig(cfg)
	if cfg.Debug {
		r.SetDebugWriter(os.Stderr)
	}

	ctx := context.Background()

	if *reverseFlag {
		hosts, err := reverse.ReverseLookup(ctx, r, p, target)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		printReverseResult(target, hosts)
		return
	}

	qtype, err := parseRecordType(recordTypeStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	records, err := r.Resolve(ctx, p, target, qtype)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	printAnswer(target, qtype, records)
}

func parseRecordType(s string) (wire.RecordType, error) {
	switch s {
	case "A":
		return wire.TypeA, nil
	case "NS":
		return wire.TypeNS, nil
	case "CNAME":
		return wire.TypeCNAME, nil
	case "PTR":
		return wire.TypePTR, nil
	case "MX":
		return wire.TypeMX, nil
	case "TXT":
		return wire.TypeTXT, nil
	default:
		return 0, fmt.Errorf("unsupported record type %q", s)
	}
}

// printAnswer renders a dig-like question/answer section summary.
func printAnswer(qname string, qtype wire.RecordType, records []wire.RData) {
	fmt.Printf(";; QUESTION SECTION:\n;%s.\t\tIN\t%s\n\n", qname, qtype)

	if len(records) == 0 {
		fmt.Println(";; no answer")
		return
	}

	fmt.Println(";; ANSWER SECTION:")
	for _, rd := range records {
		fmt.Printf("%s.\tIN\t%s\t%s\n", qname, rd.Type, formatRData(rd))
	}
}

func formatRData(rd wire.RData) string {
	switch rd.Type {
	case wire.TypeA:
		return rd.A
	case wire.TypeNS, wire.TypePTR:
		return rd.Name
	case wire.TypeCNAME:
		return "(target discarded)"
	case wire.TypeMX:
		if len(rd.MX.Address) > 0 {
			return fmt.Sprintf("%d %s (%s)", rd.MX.Preference, rd.MX.Host, strings.Join(rd.MX.Address, ","))
		}
		return fmt.Sprintf("%d %s", rd.MX.Preference, rd.MX.Host)
	case wire.TypeTXT:
		return rd.TXT
	default:
		return ""
	}
}

func printReverseResult(ip string, hosts []string) {
	fmt.Printf(";; REVERSE LOOKUP for %s\n", ip)
	if len(hosts) == 0 {
		fmt.Println(";; no confirmed hostnames")
		return
	}
	for _, h := range hosts {
		fmt.Printf("%s.\n", h)
	}
}

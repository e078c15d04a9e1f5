package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/ctfkit/rsacrack/internal/factordb"
	"github.com/ctfkit/rsacrack/pkg/factor"
	"github.com/ctfkit/rsacrack/pkg/rsacrack"
)

func main() {
	var (
		eFlag  = flag.String("e", "", "Public exponent (decimal or 0x hex)")
		nFlag  = flag.String("n", "", "Modulus")
		cFlag  = flag.String("c", "", "Ciphertext")
		pFlag  = flag.String("p", "", "First prime factor")
		qFlag  = flag.String("q", "", "Second prime factor")
		dFlag  = flag.String("d", "", "Private exponent")
		dpFlag = flag.String("dp", "", "d mod (p-1) for CRT decryption")
		dqFlag = flag.String("dq", "", "d mod (q-1) for CRT decryption")
		e1Flag = flag.String("e1", "", "First exponent of a double encryption")
		e2Flag = flag.String("e2", "", "Second exponent of a double encryption")

		pairsFlag = flag.String("pairs", "", "Broadcast c:n pairs, comma separated (c1:n1,c2:n2,...)")

		noLookup = flag.Bool("no-lookup", false, "Disable the factordb.com online lookup")
		timeout  = flag.Duration("timeout", 0, "Overall time budget (0 = none)")
		quiet    = flag.Bool("quiet", false, "Suppress progress narration")
	)
	flag.Parse()

	km := &rsacrack.KeyMaterial{}
	for _, field := range []struct {
		name string
		raw  string
		dst  **big.Int
	}{
		{"e", *eFlag, &km.E}, {"n", *nFlag, &km.N}, {"c", *cFlag, &km.C},
		{"p", *pFlag, &km.P}, {"q", *qFlag, &km.Q}, {"d", *dFlag, &km.D},
		{"dp", *dpFlag, &km.DP}, {"dq", *dqFlag, &km.DQ},
		{"e1", *e1Flag, &km.E1}, {"e2", *e2Flag, &km.E2},
	} {
		if field.raw == "" {
			continue
		}
		v, err := rsacrack.ParseBigInt(field.raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid -%s: %v\n", field.name, err)
			os.Exit(1)
		}
		*field.dst = v
	}

	if *pairsFlag != "" {
		cs, ns, err := parsePairs(*pairsFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid -pairs: %v\n", err)
			os.Exit(1)
		}
		km.Ciphertexts = cs
		km.Moduli = ns
	}

	if km.N == nil && km.P == nil && len(km.Moduli) == 0 {
		fmt.Fprintf(os.Stderr, "Error: need at least -n, -p/-q, or -pairs\n")
		flag.Usage()
		os.Exit(1)
	}

	var logf rsacrack.LogFunc
	if !*quiet {
		logf = func(format string, args ...any) {
			fmt.Printf(format+"\n", args...)
		}
	}

	eng := factor.NewEngine().WithLogf(factor.LogFunc(logf))
	if !*noLookup {
		eng = eng.WithLookup(factordb.NewClient())
	}
	client := rsacrack.NewClient().WithLogf(logf).WithEngine(eng)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if *timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	start := time.Now()
	outcome, err := client.Crack(ctx, km)
	elapsed := time.Since(start)

	dumpKnownValues(km)

	if err != nil {
		fmt.Fprintf(os.Stderr, "\n[-] %v (%.1fs)\n", err, elapsed.Seconds())
		os.Exit(1)
	}

	raw := rsacrack.IntToBytes(outcome.Plaintext)
	text := rsacrack.TryDecode(raw)

	fmt.Printf("\n[+] Plaintext recovered via %s attack in %.1fs\n", outcome.Method, elapsed.Seconds())
	fmt.Printf("    ASCII = %s\n", text)
	fmt.Printf("    HEX   = %x\n", raw)
	fmt.Printf("    DEC   = %s\n", outcome.Plaintext)

	if strings.Contains(strings.ToLower(text), "flag") {
		fmt.Println("\n[!] FLAG FOUND")
	}
}

// parsePairs splits "c1:n1,c2:n2,..." into aligned ciphertext and modulus
// lists for the broadcast attack.
func parsePairs(s string) (cs, ns []*big.Int, err error) {
	for _, item := range strings.Split(s, ",") {
		parts := strings.SplitN(strings.TrimSpace(item), ":", 2)
		if len(parts) != 2 {
			return nil, nil, fmt.Errorf("pair %q must be c:n", item)
		}
		c, err := rsacrack.ParseBigInt(parts[0])
		if err != nil {
			return nil, nil, err
		}
		n, err := rsacrack.ParseBigInt(parts[1])
		if err != nil {
			return nil, nil, err
		}
		cs = append(cs, c)
		ns = append(ns, n)
	}
	return cs, ns, nil
}

// dumpKnownValues echoes every known or derived parameter in hex and
// decimal, matching what the attacks wrote back into the key material.
func dumpKnownValues(km *rsacrack.KeyMaterial) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("KNOWN / DERIVED VALUES:")
	for _, field := range []struct {
		name string
		v    *big.Int
	}{
		{"e", km.E}, {"n", km.N}, {"c", km.C},
		{"p", km.P}, {"q", km.Q}, {"d", km.D},
		{"dp", km.DP}, {"dq", km.DQ},
	} {
		if field.v == nil {
			continue
		}
		fmt.Printf("    %-2s (hex) = 0x%x\n", field.name, field.v)
		fmt.Printf("    %-2s (dec) = %s\n", field.name, field.v)
	}
}

// Package rsacrack recovers RSA plaintexts from partial key material by
// cascading number-theoretic attacks: Wiener's continued-fraction attack,
// Håstad's broadcast attack, low-exponent root extraction, the
// double-encryption (composite exponent) attack, CRT decryption, and a
// tiered factorization engine (see the sibling pkg/factor package).
//
// # Quick Start
//
//	import "github.com/ctfkit/rsacrack/pkg/rsacrack"
//
//	client := rsacrack.NewClient()
//
//	n, _ := rsacrack.ParseBigInt("0x...")
//	e, _ := rsacrack.ParseBigInt("65537")
//	c, _ := rsacrack.ParseBigInt("0x...")
//
//	outcome, err := client.Crack(ctx, &rsacrack.KeyMaterial{N: n, E: e, C: c})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("m = %s (%s)\n", outcome.Plaintext,
//	    rsacrack.TryDecode(rsacrack.IntToBytes(outcome.Plaintext)))
//
// # Customization
//
// Progress narration and the factorization engine are pluggable; any
// factor.Lookup implementation can back the engine's database tier:
//
//	eng := factor.NewEngine().
//	    WithLookup(myLookup).
//	    WithMaxBits(2048)
//
//	client := rsacrack.NewClient().
//	    WithLogf(func(format string, args ...any) {
//	        fmt.Printf(format+"\n", args...)
//	    }).
//	    WithEngine(eng)
//
// # Custom Attacks
//
// Implement the Attack interface to extend or reorder the cascade:
//
//	type MyAttack struct{}
//
//	func (MyAttack) Name() string { return "my-attack" }
//
//	func (MyAttack) Attempt(ctx context.Context, km *rsacrack.KeyMaterial) *rsacrack.Outcome {
//	    // return nil when not applicable
//	}
//
//	client := rsacrack.NewClient().WithAttacks([]rsacrack.Attack{MyAttack{}})
//
// Every attack is a best-effort heuristic: failure is the expected common
// case and is reported as a nil outcome, never as an error. Errors are
// reserved for contract violations such as an invalid modulus.
package rsacrack

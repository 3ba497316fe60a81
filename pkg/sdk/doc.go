// Package cpfvariants provides an in-process Go client for the CPF variant
// search engine.
//
// Given a CPF that fails validation, typically because of a typo, the client
// finds valid CPFs that differ from it in one, two or three digit positions,
// stopping at the smallest number of changes that yields a match.
//
//	client, _ := cpfvariants.New(cpfvariants.WithWorkers(4))
//	out, err := client.Search(ctx, "111.444.777-35",
//	    cpfvariants.InState("SP"),
//	    cpfvariants.OnProgress(func(p cpfvariants.Progress) { ... }),
//	)
//	for _, v := range out.Variants {
//	    fmt.Println(v.Formatted, v.States)
//	}
//
// Use errors.Is with ErrInvalidFormat or ErrInvalidChecksum to tell a
// malformed input from one whose check digits do not match.
package cpfvariants

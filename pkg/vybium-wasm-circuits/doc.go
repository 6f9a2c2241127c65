// Package vybiumwasmcircuits checks execution traces of a WebAssembly subset
// against a table-based constraint system.
//
// A trace is a bundle of tables: the static instruction listing of the
// program, its initial heap, one event per executed step, the memory
// accesses those steps perform and the jumps made by calls. The checker
// configures one circuit per bundle, assigns every table and reports each
// gate, lookup and copy constraint the witness violates.
//
// # Quick Start
//
// Tracing the bundled demo program and checking it:
//
//	tables, err := vybiumwasmcircuits.Trace(vybiumwasmcircuits.DemoModule(), 0)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	config := vybiumwasmcircuits.DefaultConfig()
//	config.K = vybiumwasmcircuits.SizeFor(tables, config.CommonRangeBits)
//
//	checker, err := vybiumwasmcircuits.NewChecker(config, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	report, err := checker.Check(context.Background(), tables)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if report.Accepted {
//		fmt.Println("Trace is valid!")
//	}
//
// # Bundles
//
// Bundles are JSON documents read with ReadTables and written with
// WriteTables. The memory table may be omitted; it is then derived from the
// events and the initial heap.
//
// # Program Attestation
//
// Config.ExpectedProgramDigest pins the five-element Tip5 digest of the
// instruction table, written as 0x-prefixed hex of 40 little-endian bytes. A bundle whose program hashes differently is refused before any
// assignment takes place.
//
// # Error Handling
//
// Errors are *CircuitError values carrying an ErrorCode:
//
//	report, err := checker.Check(ctx, tables)
//	if errors.Is(err, vybiumwasmcircuits.ErrCapacity) {
//		// retry with a larger k
//	}
package vybiumwasmcircuits

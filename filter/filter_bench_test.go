package filter

import (
	"context"
	"fmt"
	"testing"

	"github.com/s0up4200/grister/grist"
)

// generateTestRecords creates test record data
func generateTestRecords(count int) []grist.Record {
	records := make([]grist.Record, count)
	species := []string{"cat", "dog", "parrot"}

	for i := 0; i < count; i++ {
		records[i] = grist.Record{
			ID: int64(i + 1),
			Fields: map[string]any{
				"Name":    fmt.Sprintf("Pet %d", i),
				"Species": species[i%3],
				"Age":     float64(i % 15),
				"Tags":    []any{"L", species[i%3]},
				"Born":    float64(1_600_000_000 + i*86_400),
			},
		}
	}

	return records
}

func BenchmarkCompile(b *testing.B) {
	expressions := []struct {
		name string
		expr string
	}{
		{"simple", `Species == "cat"`},
		{"complex", `Species == "cat" && Age > 3 && includes(Name, "pet")`},
	}

	for _, tc := range expressions {
		b.Run(tc.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := Compile(tc.expr); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkCompileWithCache(b *testing.B) {
	compiler := NewCompiler(WithCache(100))
	expression := `Species == "cat" && Age > 3`

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := compiler.Compile(expression); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMatch(b *testing.B) {
	records := generateTestRecords(1000)
	program, err := Compile(`"dog" in Tags && Age > 5`)
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		for _, r := range records {
			_, _ = program.Match(r)
		}
	}
}

func BenchmarkEvaluatorRecords(b *testing.B) {
	records := generateTestRecords(10000)
	program, err := Compile(`Species != "parrot" && daysSince(Born) > 100`)
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()

	evaluators := []struct {
		name      string
		evaluator *Evaluator
	}{
		{"workers-1", NewEvaluator(WithWorkers(1))},
		{"workers-4", NewEvaluator(WithWorkers(4))},
		{"workers-default", NewEvaluator()},
	}

	for _, tc := range evaluators {
		b.Run(tc.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := tc.evaluator.Records(ctx, program, records); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

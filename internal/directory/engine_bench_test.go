package directory

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/Aman-CERP/addressbook/internal/contact"
)

var (
	benchFirstNames = []string{"alice", "bob", "carol", "dave", "erin", "frank", "grace", "heidi", "ivan", "judy"}
	benchLastNames  = []string{"smith", "jones", "brown", "taylor", "wilson", "davies", "evans", "thomas", "roberts", "walker"}
)

// generateContacts builds n reproducible contacts. Roughly one in ten
// repeats an earlier contact so duplicate groups exist.
func generateContacts(n int) []contact.Contact {
	rng := rand.New(rand.NewSource(42))
	out := make([]contact.Contact, 0, n)
	for i := 0; i < n; i++ {
		if i > 0 && rng.Intn(10) == 0 {
			out = append(out, out[rng.Intn(len(out))])
			continue
		}
		first := benchFirstNames[rng.Intn(len(benchFirstNames))]
		last := benchLastNames[rng.Intn(len(benchLastNames))]
		out = append(out, contact.Contact{
			Name:  fmt.Sprintf("%s %s %d", first, last, i),
			Phone: fmt.Sprintf("555-%04d", i),
			Email: fmt.Sprintf("%s.%s%d@example.com", first, last, i),
		})
	}
	return out
}

func newBenchEngine(b *testing.B, n int) (*Engine, []contact.Contact) {
	b.Helper()
	e := New(Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	return e, e.Create(generateContacts(n))
}

// BenchmarkEngine_Search runs single-token lookups at various sizes.
func BenchmarkEngine_Search(b *testing.B) {
	for _, scale := range []int{100, 1000, 10000} {
		b.Run(fmt.Sprintf("scale_%d", scale), func(b *testing.B) {
			e, _ := newBenchEngine(b, scale)

			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = e.Search(benchLastNames[i%len(benchLastNames)])
			}
		})
	}
}

// BenchmarkEngine_Update renames contacts, which moves index entries.
func BenchmarkEngine_Update(b *testing.B) {
	e, created := newBenchEngine(b, 10000)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		c := created[i%len(created)]
		name := fmt.Sprintf("%s renamed%d", benchFirstNames[i%len(benchFirstNames)], i)
		if _, err := e.Update([]contact.Patch{{ID: c.ID, Name: contact.String(name)}}); err != nil {
			b.Fatalf("update failed: %v", err)
		}
	}
}

// BenchmarkEngine_ParallelMixed interleaves searches with updates.
func BenchmarkEngine_ParallelMixed(b *testing.B) {
	e, created := newBenchEngine(b, 10000)

	b.ResetTimer()
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			if i%10 == 0 {
				c := created[i%len(created)]
				_, _ = e.Update([]contact.Patch{{ID: c.ID, Phone: contact.String(fmt.Sprintf("%d", i))}})
			} else {
				_ = e.Search(benchLastNames[i%len(benchLastNames)])
			}
			i++
		}
	})
}

// BenchmarkEngine_SuggestDuplicates scans the whole directory.
func BenchmarkEngine_SuggestDuplicates(b *testing.B) {
	for _, scale := range []int{1000, 10000} {
		b.Run(fmt.Sprintf("scale_%d", scale), func(b *testing.B) {
			e, _ := newBenchEngine(b, scale)

			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = e.SuggestDuplicates()
			}
		})
	}
}

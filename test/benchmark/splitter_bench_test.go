package benchmark

import (
	"fmt"
	"testing"

	"github.com/enrichkit/contact-pipeline/internal/contact"
	"github.com/enrichkit/contact-pipeline/internal/enrich"
	"github.com/enrichkit/contact-pipeline/internal/submission/splitter"
)

func makeRecords(n int) []contact.Record {
	records := make([]contact.Record, n)
	for i := range records {
		records[i] = contact.Record{
			"first_name":     fmt.Sprintf("First%d", i),
			"last_name":      fmt.Sprintf("Last%d", i),
			"company_domain": "example.com",
		}
	}
	return records
}

func BenchmarkSplit(b *testing.B) {
	for _, size := range []int{100, 1000} {
		records := makeRecords(10000)
		b.Run(fmt.Sprintf("10000_records_batch_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				total := 0
				for _, batch := range splitter.Split(records, size) {
					total += len(batch)
				}
				if total != len(records) {
					b.Fatalf("split lost records: %d != %d", total, len(records))
				}
			}
		})
	}
}

func BenchmarkProfessionalEmail(b *testing.B) {
	strategy := enrich.ProfessionalEmail{}
	record := contact.Record{
		"first_name":     "John",
		"last_name":      "Doe",
		"company_domain": "example.com",
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := strategy.Enrich(record); err != nil {
			b.Fatal(err)
		}
	}
}

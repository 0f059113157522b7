package feed

import (
	"errors"
	"testing"

	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
)

// FuzzParse ensures arbitrary feed content never panics and only fails with ErrFeedRead.
func FuzzParse(f *testing.F) {
	f.Add([]byte(sampleFeed))
	f.Add([]byte("timestamp,vibration,temp,pressure\n2025-06-01 00:00:00,1,2"))
	f.Add([]byte("\n\n,,,\n"))
	f.Add([]byte(""))

	f.Fuzz(func(t *testing.T, data []byte) {
		snap, err := Parse(data)
		if err != nil {
			if !errors.Is(err, contract.ErrFeedRead) {
				t.Fatalf("unexpected error kind: %v", err)
			}
			return
		}
		for _, r := range snap.Readings {
			if !r.Values.IsFinite() {
				t.Fatalf("non-finite reading accepted: %v", r.Values)
			}
		}
	})
}

package benchmark

import (
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/doodlesbykumbi/rlsnotes/pkg/authenticator"
)

// Run against a live server:
//
//	RLSNOTES_BENCH_URL=http://localhost:8000 RLSNOTES_TOKEN_SECRET=... go test -bench . ./benchmark
func benchTarget(b *testing.B) (string, string) {
	b.Helper()
	baseURL := os.Getenv("RLSNOTES_BENCH_URL")
	secret := os.Getenv("RLSNOTES_TOKEN_SECRET")
	if baseURL == "" || secret == "" {
		b.Skip("RLSNOTES_BENCH_URL and RLSNOTES_TOKEN_SECRET are required")
	}

	tokens, err := authenticator.NewToken(secret, "rlsnotes", time.Hour)
	if err != nil {
		b.Fatal(err)
	}
	token, _, err := tokens.Issue(1, 0)
	if err != nil {
		b.Fatal(err)
	}
	return strings.TrimRight(baseURL, "/"), token
}

func get(b *testing.B, url, token string) {
	r, _ := http.NewRequest("GET", url, nil)
	r.Header.Add("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(r)
	if err != nil {
		b.Error(err)
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

func BenchmarkScopedRequests(b *testing.B) {
	baseURL, token := benchTarget(b)

	b.Run("GET /notes", func(b *testing.B) {
		b.ReportAllocs()
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			get(b, baseURL+"/notes", token)
		}
	})

	b.Run("GET /whoami", func(b *testing.B) {
		b.ReportAllocs()
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			get(b, baseURL+"/whoami", token)
		}
	})

	b.Run("GET /notes parallel", func(b *testing.B) {
		b.ReportAllocs()
		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				get(b, baseURL+"/notes", token)
			}
		})
	})
}

package auth

import (
	"testing"
	"time"
)

// ─── Password hashing (Argon2id) ───────────────

func BenchmarkHashPassword(b *testing.B) {
	for i := 0; i < b.N; i++ {
		HashPassword("correct-horse-battery-staple") //nolint:errcheck // benchmark
	}
}

func BenchmarkVerifyPassword(b *testing.B) {
	hash, err := HashPassword("correct-horse-battery-staple")
	if err != nil {
		b.Fatalf("HashPassword: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		VerifyPassword("correct-horse-battery-staple", hash) //nolint:errcheck // benchmark
	}
}

// ─── Session tokens (per-request hot path) ──────────────────────────

func BenchmarkIssueSession(b *testing.B) {
	gate := NewGate("benchmark-secret-key-32-bytes-xx", time.Hour)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		gate.IssueSession("usr-bench", "bench", RoleAdmin) //nolint:errcheck // benchmark
	}
}

func BenchmarkVerifySession(b *testing.B) {
	gate := NewGate("benchmark-secret-key-32-bytes-xx", time.Hour)
	token, _, err := gate.IssueSession("usr-bench", "bench", RoleAdmin)
	if err != nil {
		b.Fatalf("IssueSession: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		gate.VerifySession(token) //nolint:errcheck // benchmark
	}
}

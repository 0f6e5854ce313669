package auth

import (
	"context"
	"testing"
	"time"
)

func BenchmarkAPIKeyAuthenticator_Authenticate(b *testing.B) {
	a := NewAPIKeyAuthenticator(APIKeyConfig{}, newKeyStore())
	ctx := context.Background()
	req := &AuthRequest{Headers: headers("X-API-Key", "ext-key")}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = a.Authenticate(ctx, req)
	}
}

func BenchmarkJWTAuthenticator_Authenticate(b *testing.B) {
	token, err := SignToken(testKey, "", "install-1", []string{"extension"}, time.Hour, time.Now())
	if err != nil {
		b.Fatal(err)
	}
	a := NewJWTAuthenticator(JWTConfig{}, NewStaticKeyProvider(testKey))
	ctx := context.Background()
	req := bearer(token)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = a.Authenticate(ctx, req)
	}
}

package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestRevocationsExpireWithToken(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	revocations := NewRevocations(newClient(mr))
	if err := revocations.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if revoked, err := revocations.IsRevoked(ctx, "jti-1"); err != nil || !revoked {
		t.Fatalf("expected revoked, got %v %v", revoked, err)
	}
	if revoked, _ := revocations.IsRevoked(ctx, "jti-2"); revoked {
		t.Fatalf("unexpected revocation")
	}

	mr.FastForward(2 * time.Hour)
	if revoked, _ := revocations.IsRevoked(ctx, "jti-1"); revoked {
		t.Fatalf("expected revocation to expire")
	}
}

package reqctx

import (
	"context"
	"testing"
	"time"
)

func TestIdentityRoundTrip(t *testing.T) {
	ctx := context.Background()
	if _, ok := IdentityFrom(ctx); ok {
		t.Fatalf("empty context should carry no identity")
	}
	ctx = WithIdentity(ctx, Identity{UserID: 7, Role: "staff", Name: "Ravi"})
	got, ok := IdentityFrom(ctx)
	if !ok || got.UserID != 7 || got.Role != "staff" {
		t.Fatalf("unexpected identity %+v", got)
	}
	if got.IsZero() {
		t.Fatalf("identity should not be zero")
	}
}

func TestNowFallsBackToWallClock(t *testing.T) {
	before := time.Now()
	got := Now(context.Background())
	if got.Before(before) {
		t.Fatalf("Now returned a time before the call")
	}

	fixed := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	if got := Now(WithNow(context.Background(), fixed)); !got.Equal(fixed) {
		t.Fatalf("Now = %s, want %s", got, fixed)
	}
}

func TestRequestID(t *testing.T) {
	if RequestID(context.Background()) != "" {
		t.Fatalf("expected empty request id")
	}
	if got := RequestID(WithRequestID(context.Background(), "abc")); got != "abc" {
		t.Fatalf("RequestID = %q", got)
	}
}

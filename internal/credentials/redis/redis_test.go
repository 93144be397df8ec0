package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"finboss/internal/credentials"
)

var _ credentials.Store = (*Store)(nil)

func TestNew_InvalidURL(t *testing.T) {
	if _, err := New(context.Background(), "not a url", "x:"); err == nil {
		t.Fatal("expected error for invalid url")
	}
}

func TestStore_RoundTrip(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set, skipping redis integration test")
	}

	ctx := context.Background()
	prefix := fmt.Sprintf("finboss-test-%d:", time.Now().UnixNano())
	s, err := New(ctx, url, prefix)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer s.Close()
	defer s.Delete(ctx, credentials.AccessTokenKey)

	if _, ok, err := s.Retrieve(ctx, credentials.AccessTokenKey); err != nil || ok {
		t.Fatalf("expected absent key, ok=%v err=%v", ok, err)
	}
	if err := s.Save(ctx, credentials.AccessTokenKey, "tok1"); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := s.Retrieve(ctx, credentials.AccessTokenKey)
	if err != nil || !ok || got != "tok1" {
		t.Fatalf("retrieve = %q, %v, %v", got, ok, err)
	}
	if err := s.Delete(ctx, credentials.AccessTokenKey); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.Retrieve(ctx, credentials.AccessTokenKey); ok {
		t.Fatal("token survived delete")
	}
}

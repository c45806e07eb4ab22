package sampleapp

import (
	"context"
	"testing"

	"velkro/platform/apperr"
)

func TestUsers_Authenticate(t *testing.T) {
	users, err := NewDemoUsers()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	id, err := users.Authenticate(ctx, "foo@foo.com", "bar")
	if err != nil {
		t.Fatalf("expected valid credentials, got %v", err)
	}
	if id != "123" {
		t.Fatalf("expected id 123, got %q", id)
	}

	for _, creds := range [][2]string{{"foo@foo.com", "wrong"}, {"nobody@foo.com", "bar"}} {
		_, err := users.Authenticate(ctx, creds[0], creds[1])
		if !apperr.HasHandle(err, "incorrect-password") || !apperr.Is(err, apperr.KindInternal) {
			t.Fatalf("expected internal incorrect-password error for %v, got %v", creds, err)
		}
	}
}

func TestUsers_FindReturnsProfile(t *testing.T) {
	users, err := NewDemoUsers()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	u, err := users.Find(context.Background(), "123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := u.Profile(); got != (Profile{Email: "foo@foo.com", Firstname: "bar"}) {
		t.Fatalf("unexpected profile %+v", got)
	}

	if _, err := users.Find(context.Background(), "999"); !apperr.HasHandle(err, "user-not-found") {
		t.Fatalf("expected user-not-found, got %v", err)
	}
}

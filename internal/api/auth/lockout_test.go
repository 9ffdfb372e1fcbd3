package auth

import (
	"testing"
	"time"
)

func TestLockoutTracker_LocksAtThreshold(t *testing.T) {
	tracker := NewLockoutTracker(3, time.Minute)

	if tracker.RecordFailure("alice") {
		t.Error("locked after 1 failure")
	}
	if tracker.RecordFailure("alice") {
		t.Error("locked after 2 failures")
	}
	if !tracker.RecordFailure("alice") {
		t.Error("not locked after 3 failures")
	}
	if !tracker.IsLocked("alice") {
		t.Error("IsLocked = false for locked account")
	}
	if tracker.IsLocked("bob") {
		t.Error("unrelated account locked")
	}
	if tracker.RemainingLockoutTime("alice") <= 0 {
		t.Error("no remaining lockout time for locked account")
	}
}

func TestLockoutTracker_ClearFailuresResets(t *testing.T) {
	tracker := NewLockoutTracker(3, time.Minute)

	tracker.RecordFailure("alice")
	tracker.RecordFailure("alice")
	tracker.ClearFailures("alice")

	if tracker.RecordFailure("alice") {
		t.Error("locked after reset, count should have restarted")
	}
}

func TestLockoutTracker_LockExpires(t *testing.T) {
	tracker := NewLockoutTracker(1, 10*time.Millisecond)

	tracker.RecordFailure("alice")
	if !tracker.IsLocked("alice") {
		t.Fatal("expected lock")
	}

	time.Sleep(20 * time.Millisecond)
	if tracker.IsLocked("alice") {
		t.Error("lock did not expire")
	}
	if tracker.RemainingLockoutTime("alice") != 0 {
		t.Error("remaining time after expiry should be 0")
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("Str0ngpassword"); err != nil {
		t.Errorf("valid password rejected: %v", err)
	}

	for _, bad := range []string{
		"Sh0rt",          // too short
		"alllowercase1x", // no uppercase
		"ALLUPPERCASE1X", // no lowercase
		"NoDigitsHereAtAll",
	} {
		if err := ValidatePassword(bad); err == nil {
			t.Errorf("ValidatePassword(%q) = nil, want error", bad)
		}
	}
}

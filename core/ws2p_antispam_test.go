package core

import (
	"testing"
	"time"
)

func TestAntiSpamAdmitsUnderLimit(t *testing.T) {
	a := NewAntiSpam(AntiSpamConfig{SpamInterval: time.Minute, SpamLimit: 5, SpamSleep: time.Second})
	for i := 0; i < 4; i++ {
		if d := a.Admit(); d != 0 {
			t.Fatalf("message %d: expected no sleep, got %v", i, d)
		}
	}
}

func TestAntiSpamThrottlesAtLimit(t *testing.T) {
	a := NewAntiSpam(AntiSpamConfig{SpamInterval: time.Minute, SpamLimit: 3, SpamSleep: 2 * time.Second})
	for i := 0; i < 2; i++ {
		if d := a.Admit(); d != 0 {
			t.Fatalf("message %d: expected no sleep, got %v", i, d)
		}
	}
	if d := a.Admit(); d != 2*time.Second {
		t.Fatalf("3rd message: expected sleep %v, got %v", 2*time.Second, d)
	}
}

func TestAntiSpamResetsAfterInterval(t *testing.T) {
	a := NewAntiSpam(AntiSpamConfig{SpamInterval: 10 * time.Millisecond, SpamLimit: 2, SpamSleep: time.Second})
	if d := a.Admit(); d != 0 {
		t.Fatalf("first message: expected no sleep, got %v", d)
	}
	if d := a.Admit(); d != time.Second {
		t.Fatalf("second message within window: expected throttle, got %v", d)
	}
	time.Sleep(15 * time.Millisecond)
	if d := a.Admit(); d != 0 {
		t.Fatalf("message after window reset: expected no sleep, got %v", d)
	}
}

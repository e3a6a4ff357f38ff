package tui

import (
	"errors"
	"strings"
	"testing"

	"github.com/voltdeck/voltdeck/pkg/client"
	"github.com/voltdeck/voltdeck/pkg/domain"
)

// The nil client proves a confirm mismatch never reaches the server.
func TestPasswordMismatchShortCircuits(t *testing.T) {
	m := newProfileModel(nil, newTestStore(t))
	m, _ = m.Update(keyMsg("p"))
	if m.state != profPassword {
		t.Fatal("p did not open the password form")
	}

	m.current = "old"
	m.newPass = "pw1"
	m.confirm = "pw2"
	m, cmd := m.Update(keyMsg("enter"))
	if cmd != nil {
		t.Fatal("mismatched passwords produced a command")
	}
	if m.statusMsg != "New passwords do not match" {
		t.Errorf("statusMsg = %q", m.statusMsg)
	}
	if m.state != profPassword {
		t.Error("form closed despite the error")
	}
}

func TestPasswordChangeSuccess(t *testing.T) {
	m := newProfileModel(nil, newTestStore(t))
	m.state = profPassword
	m.submitting = true
	m.current, m.newPass, m.confirm = "a", "b", "b"

	m, _ = m.Update(passwordChangedMsg{resp: &client.ChangePasswordResponse{Success: true}})
	if m.statusMsg != "Password updated successfully" {
		t.Errorf("statusMsg = %q", m.statusMsg)
	}
	if !m.statusOK {
		t.Error("success not flagged ok")
	}
	if m.state != profNormal {
		t.Error("form still open after success")
	}
	if m.current != "" || m.newPass != "" || m.confirm != "" {
		t.Error("password fields not cleared")
	}
}

func TestPasswordChangeFailureMessages(t *testing.T) {
	m := newProfileModel(nil, newTestStore(t))
	m.state = profPassword
	m.submitting = true

	// Server rejection with its own message
	m, _ = m.Update(passwordChangedMsg{resp: &client.ChangePasswordResponse{Success: false, Error: "Current password is incorrect"}})
	if m.statusMsg != "Current password is incorrect" {
		t.Errorf("statusMsg = %q", m.statusMsg)
	}
	if m.state != profPassword {
		t.Error("form closed on failure")
	}

	// Transport failure falls back to the fixed message
	m.submitting = true
	m, _ = m.Update(passwordChangedMsg{err: errors.New("dial tcp: refused")})
	if m.statusMsg != "Current password is incorrect or server error occurred" {
		t.Errorf("statusMsg = %q", m.statusMsg)
	}
}

func TestLimitsValidation(t *testing.T) {
	m := newProfileModel(nil, newTestStore(t))
	m, _ = m.Update(keyMsg("l"))
	if m.state != profLimits {
		t.Fatal("l did not open the limits form")
	}

	m.daily = "abc"
	m.monthly = "100"
	m, cmd := m.Update(keyMsg("enter"))
	if cmd != nil {
		t.Fatal("invalid limit produced a command")
	}
	if m.statusMsg == "" {
		t.Error("no validation message")
	}

	m.daily = "-5"
	m, cmd = m.Update(keyMsg("enter"))
	if cmd != nil {
		t.Fatal("negative limit produced a command")
	}
}

func TestLimitsSavedRefetches(t *testing.T) {
	m := newProfileModel(nil, newTestStore(t))
	m.state = profLimits
	m.submitting = true
	m, cmd := m.Update(limitsSavedMsg{})
	if m.state != profNormal {
		t.Error("form still open after save")
	}
	if cmd == nil {
		t.Error("no usage refetch after saving limits")
	}
}

func TestLimitsFormPrefilled(t *testing.T) {
	m := newProfileModel(nil, newTestStore(t))
	seq := m.guard.Begin()
	m, _ = m.Update(profUsageMsg{seq: seq, summary: &domain.UsageSummary{
		DailyUsage: 10, MonthlyUsage: 20,
		Limits: &domain.Limits{Daily: 500, Monthly: 9000},
	}})

	m, _ = m.Update(keyMsg("l"))
	if m.daily != "500" || m.monthly != "9000" {
		t.Errorf("prefill = %q/%q", m.daily, m.monthly)
	}
}

func TestProfileUsageErrorSurfaced(t *testing.T) {
	m := newProfileModel(nil, newTestStore(t))

	// First fetch fails: the error replaces the loading placeholder.
	seq := m.guard.Begin()
	m, _ = m.Update(profUsageMsg{seq: seq, err: errors.New("dial tcp: refused")})
	out := m.View()
	if !strings.Contains(out, "failed to load usage") {
		t.Errorf("error not rendered: %q", out)
	}
	if strings.Contains(out, "loading...") {
		t.Error("still loading after failed fetch")
	}

	// A later success clears the banner; a later failure keeps the data.
	seq = m.guard.Begin()
	m, _ = m.Update(profUsageMsg{seq: seq, summary: &domain.UsageSummary{DailyUsage: 10}})
	if m.errMsg != "" {
		t.Error("error banner survived a successful fetch")
	}
	seq = m.guard.Begin()
	m, _ = m.Update(profUsageMsg{seq: seq, err: errors.New("dial tcp: refused")})
	if m.summary == nil || m.summary.DailyUsage != 10 {
		t.Error("transient error wiped previous data")
	}
	if !strings.Contains(m.View(), "failed to load usage") {
		t.Error("error not rendered alongside last good data")
	}
}

func TestProfileStaleUsageDiscarded(t *testing.T) {
	m := newProfileModel(nil, newTestStore(t))
	oldSeq := m.guard.Begin()
	m.guard.Begin()
	m, _ = m.Update(profUsageMsg{seq: oldSeq, summary: &domain.UsageSummary{DailyUsage: 99}})
	if m.summary != nil {
		t.Error("stale usage landed")
	}
}

func TestProfileLogout(t *testing.T) {
	store := newTestStore(t)
	var notified bool
	store.Subscribe(func(s *domain.Session) { notified = true })

	m := newProfileModel(nil, store)
	m, _ = m.Update(keyMsg("ctrl+l"))
	if store.Active() {
		t.Error("session still active after ctrl+l")
	}
	if !notified {
		t.Error("logout did not notify subscribers")
	}
	_ = m
}

func TestProfileViewShowsIdentity(t *testing.T) {
	store := newTestStore(t)
	m := newProfileModel(nil, store)
	out := m.View()
	if !strings.Contains(out, "PROFILE") {
		t.Error("profile header missing")
	}
}

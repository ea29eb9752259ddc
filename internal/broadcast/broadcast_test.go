package broadcast

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/artur/whyspent-bot/internal/database/models"
)

type fakeSender struct {
	fail map[int64]bool
	sent []tgbotapi.MessageConfig
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, errors.New("unexpected chattable")
	}
	if f.fail[msg.ChatID] {
		return tgbotapi.Message{}, errors.New("Forbidden: bot was blocked by the user")
	}
	f.sent = append(f.sent, msg)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

type fakeUsers struct {
	users []models.User
	err   error
}

func (f *fakeUsers) ListAll() ([]models.User, error) {
	return f.users, f.err
}

func (f *fakeUsers) ListByLanguage(lang string) ([]models.User, error) {
	var out []models.User
	for _, u := range f.users {
		if u.Language == lang {
			out = append(out, u)
		}
	}
	return out, f.err
}

type fakeAudit struct {
	entries []models.BroadcastLog
}

func (f *fakeAudit) Record(e models.BroadcastLog) error {
	f.entries = append(f.entries, e)
	return nil
}

func makeUsers(n int) []models.User {
	users := make([]models.User, n)
	for i := range users {
		lang := "en"
		if i%3 == 0 {
			lang = "ru"
		}
		users[i] = models.User{ID: int64(i + 1), Language: lang}
	}
	return users
}

func TestDelay(t *testing.T) {
	tests := []struct {
		rate     int
		expected time.Duration
	}{
		{30, 34 * time.Millisecond},
		{1, time.Second},
		{1000, time.Millisecond},
		{0, 0},
	}
	for _, tt := range tests {
		if got := Delay(tt.rate); got != tt.expected {
			t.Errorf("Delay(%d) = %v, want %v", tt.rate, got, tt.expected)
		}
	}
}

func TestService_BroadcastCountsFailures(t *testing.T) {
	sender := &fakeSender{fail: map[int64]bool{2: true, 5: true, 9: true}}
	svc := NewService(sender, &fakeUsers{}, &fakeAudit{}, 1000)

	users := makeUsers(10)
	result := svc.Broadcast(context.Background(), "hello", users)

	if result.Total != 10 {
		t.Errorf("Total = %d, want 10", result.Total)
	}
	if result.Success != 7 || result.Failed != 3 {
		t.Errorf("Success/Failed = %d/%d, want 7/3", result.Success, result.Failed)
	}
	if result.Success+result.Failed != result.Total {
		t.Errorf("Success + Failed != Total")
	}

	// Recipients after a failure still get the message, in store order.
	var got []int64
	for _, m := range sender.sent {
		got = append(got, m.ChatID)
		if m.ParseMode != tgbotapi.ModeHTML {
			t.Errorf("Expected HTML parse mode, got %q", m.ParseMode)
		}
	}
	want := []int64{1, 3, 4, 6, 7, 8, 10}
	if len(got) != len(want) {
		t.Fatalf("Delivered to %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Delivery %d went to %d, want %d", i, got[i], want[i])
		}
	}
}

func TestService_BroadcastEmptyList(t *testing.T) {
	svc := NewService(&fakeSender{}, &fakeUsers{}, &fakeAudit{}, 30)

	result := svc.Broadcast(context.Background(), "hello", nil)
	if result.Total != 0 || result.Success != 0 || result.Failed != 0 {
		t.Errorf("Expected zero result, got %+v", result)
	}
}

func TestService_BroadcastIsPaced(t *testing.T) {
	svc := NewService(&fakeSender{}, &fakeUsers{}, &fakeAudit{}, 100)

	result := svc.Broadcast(context.Background(), "hello", makeUsers(5))
	if result.Duration < 50*time.Millisecond {
		t.Errorf("Expected at least 5 pauses of 10ms, took %v", result.Duration)
	}
}

// slowSender takes sendTime on the fake clock for every attempt.
type slowSender struct {
	clock    *fakeClock
	sendTime time.Duration
	fail     map[int64]bool
	starts   []time.Time
}

func (s *slowSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg := c.(tgbotapi.MessageConfig)
	s.starts = append(s.starts, s.clock.now)
	s.clock.now = s.clock.now.Add(s.sendTime)
	if s.fail[msg.ChatID] {
		return tgbotapi.Message{}, errors.New("Forbidden: bot was blocked by the user")
	}
	return tgbotapi.Message{}, nil
}

type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

func newPacedService(sender *slowSender, clock *fakeClock, rate int) *Service {
	svc := NewService(sender, &fakeUsers{}, &fakeAudit{}, rate)
	svc.now = clock.Now
	svc.sleep = clock.Sleep
	return svc
}

func TestService_BroadcastWaitsAfterEveryAttempt(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	sender := &slowSender{clock: clock, sendTime: 50 * time.Millisecond, fail: map[int64]bool{2: true}}
	svc := newPacedService(sender, clock, 30)

	result := svc.Broadcast(context.Background(), "hello", makeUsers(3))

	if result.Success != 2 || result.Failed != 1 {
		t.Errorf("Success/Failed = %d/%d, want 2/1", result.Success, result.Failed)
	}

	// Failed attempts are paced too.
	if len(clock.sleeps) != 3 {
		t.Fatalf("Expected a pause after each of 3 attempts, got %v", clock.sleeps)
	}
	for _, d := range clock.sleeps {
		if d != 34*time.Millisecond {
			t.Errorf("Pause = %v, want 34ms", d)
		}
	}

	for i := 1; i < len(sender.starts); i++ {
		if gap := sender.starts[i].Sub(sender.starts[i-1]); gap != 84*time.Millisecond {
			t.Errorf("Gap before attempt %d = %v, want send time plus delay (84ms)", i, gap)
		}
	}

	if result.Duration != 3*84*time.Millisecond {
		t.Errorf("Duration = %v, want %v", result.Duration, 3*84*time.Millisecond)
	}
}

func TestService_BroadcastPausesAfterLastAttempt(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	sender := &slowSender{clock: clock, sendTime: 50 * time.Millisecond}
	svc := newPacedService(sender, clock, 30)

	result := svc.Broadcast(context.Background(), "hello", makeUsers(1))

	if result.Duration != 84*time.Millisecond {
		t.Errorf("Duration = %v, want 84ms", result.Duration)
	}
}

func TestService_BroadcastWithoutDelayNeverSleeps(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	sender := &slowSender{clock: clock}
	svc := newPacedService(sender, clock, 0)

	svc.Broadcast(context.Background(), "hello", makeUsers(3))

	if len(clock.sleeps) != 0 {
		t.Errorf("Expected no pauses, got %v", clock.sleeps)
	}
}

func TestService_BroadcastIgnoresCancel(t *testing.T) {
	svc := NewService(&fakeSender{}, &fakeUsers{}, &fakeAudit{}, 1000)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := svc.Broadcast(ctx, "hello", makeUsers(4))
	if result.Success != 4 {
		t.Errorf("Expected broadcast to run to completion, got %+v", result)
	}
}

func TestService_ToAllRecordsAudit(t *testing.T) {
	sender := &fakeSender{fail: map[int64]bool{4: true}}
	audit := &fakeAudit{}
	svc := NewService(sender, &fakeUsers{users: makeUsers(6)}, audit, 1000)

	result, err := svc.ToAll(context.Background(), 99, "<b>news</b>")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(audit.entries) != 1 {
		t.Fatalf("Expected exactly one audit row, got %d", len(audit.entries))
	}
	entry := audit.entries[0]
	if entry.AdminID != 99 || entry.Message != "<b>news</b>" || entry.TargetFilter != "all" {
		t.Errorf("Unexpected audit row: %+v", entry)
	}
	if entry.SuccessCount != result.Success || entry.FailCount != result.Failed {
		t.Errorf("Audit counts %d/%d do not match result %d/%d",
			entry.SuccessCount, entry.FailCount, result.Success, result.Failed)
	}
	if result.Success != 5 || result.Failed != 1 {
		t.Errorf("Success/Failed = %d/%d, want 5/1", result.Success, result.Failed)
	}
}

func TestService_ToLanguageFilters(t *testing.T) {
	sender := &fakeSender{}
	audit := &fakeAudit{}
	svc := NewService(sender, &fakeUsers{users: makeUsers(6)}, audit, 1000)

	result, err := svc.ToLanguage(context.Background(), 1, "ru", "привет")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// makeUsers assigns ru to users 1 and 4
	if result.Total != 2 {
		t.Errorf("Total = %d, want 2", result.Total)
	}
	for _, m := range sender.sent {
		if m.ChatID != 1 && m.ChatID != 4 {
			t.Errorf("Message went to non-ru user %d", m.ChatID)
		}
	}
	if audit.entries[0].TargetFilter != "lang:ru" {
		t.Errorf("TargetFilter = %q, want lang:ru", audit.entries[0].TargetFilter)
	}
}

func TestService_ResolveErrorSkipsAudit(t *testing.T) {
	audit := &fakeAudit{}
	svc := NewService(&fakeSender{}, &fakeUsers{err: errors.New("db closed")}, audit, 1000)

	if _, err := svc.ToAll(context.Background(), 1, "hi"); err == nil {
		t.Error("Expected error when targets cannot be resolved")
	}
	if len(audit.entries) != 0 {
		t.Errorf("No audit row expected, got %d", len(audit.entries))
	}
}

func TestService_Execute(t *testing.T) {
	audit := &fakeAudit{}
	svc := NewService(&fakeSender{}, &fakeUsers{users: makeUsers(3)}, audit, 1000)

	if _, err := svc.Execute(context.Background(), 1, Directive{Type: TypeAll}); !errors.Is(err, ErrNoMessage) {
		t.Errorf("Expected ErrNoMessage, got %v", err)
	}

	result, err := svc.Execute(context.Background(), 1, Directive{Type: TypeLang, Language: "en", Message: "hi"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Total != 2 {
		t.Errorf("Total = %d, want 2", result.Total)
	}
	if len(audit.entries) != 1 || audit.entries[0].TargetFilter != "lang:en" {
		t.Errorf("Unexpected audit entries: %+v", audit.entries)
	}
}

func TestService_PreviewSendsOnlyToAdmin(t *testing.T) {
	sender := &fakeSender{}
	audit := &fakeAudit{}
	svc := NewService(sender, &fakeUsers{users: makeUsers(5)}, audit, 1000)

	if err := svc.Preview(context.Background(), 77, "draft"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("Expected exactly one message, got %d", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.ChatID != 77 {
		t.Errorf("Preview went to %d, want 77", msg.ChatID)
	}
	if !strings.Contains(msg.Text, "Broadcast Preview") || !strings.HasSuffix(msg.Text, "\n\ndraft") {
		t.Errorf("Unexpected preview text: %q", msg.Text)
	}
	if len(audit.entries) != 0 {
		t.Errorf("Preview must not write an audit row, got %d", len(audit.entries))
	}
}

func TestResult_DurationSeconds(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected int
	}{
		{0, 0},
		{499 * time.Millisecond, 0},
		{500 * time.Millisecond, 1},
		{1600 * time.Millisecond, 2},
	}
	for _, tt := range tests {
		if got := (Result{Duration: tt.d}).DurationSeconds(); got != tt.expected {
			t.Errorf("DurationSeconds(%v) = %d, want %d", tt.d, got, tt.expected)
		}
	}
}

package fanout

import (
	"testing"

	chat "spachat/internal/pkg/chat/domain"
)

func TestTopicsFor(t *testing.T) {
	m := chat.Message{StaffID: "s1", CustomerID: "c1"}

	got := TopicsFor(m)
	want := []string{"chat.s1.c1", "staff.s1"}
	if len(got) != len(want) {
		t.Fatalf("TopicsFor() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("topic[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

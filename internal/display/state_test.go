package display

import (
	"errors"
	"testing"
)

func TestStateApply(t *testing.T) {
	refused := errors.New("connection refused")

	tests := []struct {
		name        string
		from        State
		ev          event
		wantStatus  Status
		wantAttempt int
	}{
		{
			name:       "connect succeeds",
			from:       State{Ceiling: 3, Attempt: 2, Status: StatusConnecting},
			ev:         eventConnected,
			wantStatus: StatusConnected,
		},
		{
			name:        "first failure retries",
			from:        State{Ceiling: 3, Status: StatusConnecting},
			ev:          eventDisconnected,
			wantStatus:  StatusRetrying,
			wantAttempt: 1,
		},
		{
			name:        "drop after success retries",
			from:        State{Ceiling: 3, Status: StatusConnected},
			ev:          eventDisconnected,
			wantStatus:  StatusRetrying,
			wantAttempt: 1,
		},
		{
			name:        "failure reaching ceiling exhausts",
			from:        State{Ceiling: 3, Attempt: 2, Status: StatusConnecting},
			ev:          eventDisconnected,
			wantStatus:  StatusExhausted,
			wantAttempt: 3,
		},
		{
			name:        "retry reconnects",
			from:        State{Ceiling: 3, Attempt: 1, Status: StatusRetrying},
			ev:          eventRetry,
			wantStatus:  StatusConnecting,
			wantAttempt: 1,
		},
		{
			name:        "cancel while retrying",
			from:        State{Ceiling: 3, Attempt: 1, Status: StatusRetrying},
			ev:          eventCancel,
			wantStatus:  StatusCancelled,
			wantAttempt: 1,
		},
		{
			name:        "exhausted ignores cancel",
			from:        State{Ceiling: 3, Attempt: 3, Status: StatusExhausted},
			ev:          eventCancel,
			wantStatus:  StatusExhausted,
			wantAttempt: 3,
		},
		{
			name:       "cancelled ignores connect",
			from:       State{Ceiling: 3, Status: StatusCancelled},
			ev:         eventConnected,
			wantStatus: StatusCancelled,
		},
		{
			name:        "retry event outside retrying is ignored",
			from:        State{Ceiling: 3, Attempt: 1, Status: StatusConnected},
			ev:          eventRetry,
			wantStatus:  StatusConnected,
			wantAttempt: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.from.apply(tt.ev, refused)

			if got.Status != tt.wantStatus || got.Attempt != tt.wantAttempt {
				t.Fatalf("apply = %s attempt %d, want %s attempt %d", got.Status, got.Attempt, tt.wantStatus, tt.wantAttempt)
			}
		})
	}
}

func TestStateApply_ExhaustedKeepsReason(t *testing.T) {
	refused := errors.New("connection refused")

	st := State{Ceiling: 1, Status: StatusConnecting}.apply(eventDisconnected, refused)
	if st.Status != StatusExhausted || !errors.Is(st.Reason, refused) {
		t.Fatalf("state = %+v", st)
	}
}

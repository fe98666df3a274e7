package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestServiceError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ServiceError
		want string
	}{
		{
			name: "error without underlying error",
			err:  New(KindNotFound, "test message"),
			want: "[NOT_FOUND] test message",
		},
		{
			name: "error with underlying error",
			err:  Wrap(KindInternal, "test message", errors.New("underlying")),
			want: "[INTERNAL] test message: underlying",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestServiceError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := Wrap(KindInternal, "test", underlying)

	if got := err.Unwrap(); got != underlying {
		t.Errorf("Unwrap() = %v, want %v", got, underlying)
	}
}

func TestServiceError_WithDetails(t *testing.T) {
	err := New(KindInvalidInput, "test")
	err.WithDetails("field", "username").WithDetails("reason", "too short")

	if len(err.Details) != 2 {
		t.Errorf("Details length = %d, want 2", len(err.Details))
	}

	if err.Details["field"] != "username" {
		t.Errorf("Details[field] = %v, want username", err.Details["field"])
	}

	if err.Details["reason"] != "too short" {
		t.Errorf("Details[reason] = %v, want too short", err.Details["reason"])
	}
}

func TestKindOf(t *testing.T) {
	wrapped := Transient("fetch", errors.New("dial tcp: timeout"))
	if KindOf(wrapped) != KindTransient {
		t.Fatalf("KindOf() = %v, want Transient", KindOf(wrapped))
	}
	if KindOf(errors.New("plain")) != KindInternal {
		t.Fatal("plain errors should classify as Internal")
	}
}

func TestGetHTTPStatus(t *testing.T) {
	if GetHTTPStatus(NotFound("workspace", "w1")) != http.StatusNotFound {
		t.Fatal("NotFound should map to 404")
	}
	if GetHTTPStatus(Conflict("lock contention")) != http.StatusConflict {
		t.Fatal("Conflict should map to 409")
	}
}

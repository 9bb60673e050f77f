package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/nivharel/waymark/internal/core/domain"
)

func TestReasonOf(t *testing.T) {
	err := domain.NewRouteError(domain.FailureTransport, "multi_stop_router", errors.New("boom"))
	if domain.ReasonOf(err) != domain.FailureTransport {
		t.Errorf("expected transport, got %s", domain.ReasonOf(err))
	}

	wrapped := fmt.Errorf("recompute: %w", err)
	if domain.ReasonOf(wrapped) != domain.FailureTransport {
		t.Error("classification must survive wrapping")
	}

	if domain.ReasonOf(errors.New("plain")) != "" {
		t.Error("a plain error has no classification")
	}
	if domain.ReasonOf(nil) != "" {
		t.Error("nil has no classification")
	}
}

func TestRouteError_Unwrap(t *testing.T) {
	err := domain.NewRouteError(domain.FailureInvalidInput, "track_file", domain.ErrEmptyTrack)
	if !errors.Is(err, domain.ErrEmptyTrack) {
		t.Error("expected the cause to be reachable via errors.Is")
	}
}

func TestRouteError_Message(t *testing.T) {
	err := domain.NewRouteError(domain.FailureEmptyResult, "directions", nil)
	if err.Error() != "directions: empty_result" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

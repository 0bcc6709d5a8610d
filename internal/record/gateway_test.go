package record

import (
	"context"
	"errors"
	"testing"
)

type stubGateway struct {
	calls int
	err   error
}

func (s *stubGateway) Append(ctx context.Context, fields []string) error {
	s.calls++
	return s.err
}

func TestFanoutRequiresBackends(t *testing.T) {
	if _, err := NewFanout(); err == nil {
		t.Fatal("NewFanout accepted zero gateways")
	}
}

func TestFanoutWritesToAllBackends(t *testing.T) {
	a, b := &stubGateway{}, &stubGateway{}
	f, err := NewFanout(a, b)
	if err != nil {
		t.Fatalf("NewFanout: %v", err)
	}

	if err := f.Append(context.Background(), []string{"Alex", "hero"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if a.calls != 1 || b.calls != 1 {
		t.Errorf("calls = %d, %d; want 1, 1", a.calls, b.calls)
	}
}

func TestFanoutFailureDoesNotStopOthers(t *testing.T) {
	boom := errors.New("quota exceeded")
	a := &stubGateway{err: boom}
	b := &stubGateway{}
	f, _ := NewFanout(a, b)

	err := f.Append(context.Background(), []string{"Alex", "hero"})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
	if b.calls != 1 {
		t.Errorf("second backend skipped after first failed")
	}
}

package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrap_PreservesCodeAndChain(t *testing.T) {
	base := ConfigInvalid("caliper must be positive")
	wrapped := Wrap(base, "loading engine options")

	if GetCode(wrapped) != CodeConfigInvalid {
		t.Fatalf("wrap should keep the original code, got %s", GetCode(wrapped))
	}
	if !errors.Is(wrapped, base) {
		t.Fatal("wrapped error should unwrap to the original")
	}
}

func TestWrap_NilPassthrough(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Fatal("wrapping nil should stay nil")
	}
	if WithCode(CodeDatabaseError, nil) != nil {
		t.Fatal("coding nil should stay nil")
	}
}

func TestWithCode(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := WithCode(CodeDatabaseError, cause)

	if GetCode(err) != CodeDatabaseError {
		t.Fatalf("got code %s", GetCode(err))
	}
	if !errors.Is(err, cause) {
		t.Fatal("coded error should unwrap to the cause")
	}
}

func TestGetCode_Unknown(t *testing.T) {
	if GetCode(fmt.Errorf("plain")) != "UNKNOWN" {
		t.Fatal("plain errors report UNKNOWN")
	}
}

func TestWrapf(t *testing.T) {
	err := Wrapf(fmt.Errorf("boom"), "stage %d", 2)
	if err == nil || err.Error() != "stage 2: boom" {
		t.Fatalf("unexpected message: %v", err)
	}
}

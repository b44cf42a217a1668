package monitoring

import (
	"fmt"
	"testing"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) {
		called = true
	})
	Logf("test message")
	if !called {
		t.Error("Custom logger was not called")
	}

	// Setting nil must produce a no-op that does not reach the old logger
	called = false
	SetLogger(nil)
	Logf("test message")
	if called {
		t.Error("No-op logger should not have triggered callback")
	}
}

func TestLogf_Default(t *testing.T) {
	if Logf == nil {
		t.Error("Logf should not be nil by default")
	}

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Logf panicked: %v", r)
		}
	}()

	Logf("test message: %s", "value")
}

func TestTagged(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var got string
	SetLogger(func(format string, v ...interface{}) {
		got = fmt.Sprintf(format, v...)
	})

	logf := Tagged("vectorfield")
	logf("built %d cells", 12)
	if got != "[vectorfield] built 12 cells" {
		t.Errorf("Tagged output = %q", got)
	}

	// Logger swaps after Tagged is created still apply
	var swapped bool
	SetLogger(func(string, ...interface{}) { swapped = true })
	logf("again")
	if !swapped {
		t.Error("Tagged logger should resolve Logf at call time")
	}
}

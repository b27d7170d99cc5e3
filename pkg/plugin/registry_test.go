package plugin

import (
	"errors"
	"testing"

	"firestige.xyz/ngtrace/internal/core"
)

func TestRegisterAndGetCapturer(t *testing.T) {
	capturerReg.Reset()

	RegisterCapturer("test_cap", func() Capturer {
		return &mockCapturer{
			mockPlugin: mockPlugin{name: "test_cap"},
		}
	})

	factory, err := GetCapturerFactory("test_cap")
	if err != nil {
		t.Fatalf("GetCapturerFactory failed: %v", err)
	}

	instance := factory()
	if instance.Name() != "test_cap" {
		t.Errorf("Expected name 'test_cap', got %s", instance.Name())
	}
}

func TestRegisterAndGetReporter(t *testing.T) {
	reporterReg.Reset()

	RegisterReporter("test_rep", func() Reporter {
		return &mockReporter{
			mockPlugin: mockPlugin{name: "test_rep"},
		}
	})

	factory, err := GetReporterFactory("test_rep")
	if err != nil {
		t.Fatalf("GetReporterFactory failed: %v", err)
	}

	instance := factory()
	if instance.Name() != "test_rep" {
		t.Errorf("Expected name 'test_rep', got %s", instance.Name())
	}
}

func TestGetUnknownPlugin(t *testing.T) {
	capturerReg.Reset()
	reporterReg.Reset()

	if _, err := GetCapturerFactory("missing"); !errors.Is(err, core.ErrUnknownPlugin) {
		t.Errorf("Expected ErrUnknownPlugin, got %v", err)
	}
	if _, err := GetReporterFactory("missing"); !errors.Is(err, core.ErrUnknownPlugin) {
		t.Errorf("Expected ErrUnknownPlugin, got %v", err)
	}
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	reporterReg.Reset()
	RegisterReporter("dup", func() Reporter { return &mockReporter{} })

	defer func() {
		if recover() == nil {
			t.Error("Expected panic on duplicate registration")
		}
	}()
	RegisterReporter("dup", func() Reporter { return &mockReporter{} })
}

func TestNamesAreSorted(t *testing.T) {
	reporterReg.Reset()
	for _, name := range []string{"sqlite", "console", "jsonl"} {
		RegisterReporter(name, func() Reporter { return &mockReporter{} })
	}

	names := ReporterNames()
	want := []string{"console", "jsonl", "sqlite"}
	if len(names) != len(want) {
		t.Fatalf("Expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, names)
		}
	}

	capturerReg.Reset()
	if len(CapturerNames()) != 0 {
		t.Errorf("Expected no capturers after reset")
	}
}

package yamlutil

import (
	"errors"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

func TestUnmarshalStrict(t *testing.T) {
	var s sample
	if err := UnmarshalStrict([]byte("name: printer\ncount: 3\n"), &s); err != nil {
		t.Fatalf("UnmarshalStrict() error = %v", err)
	}
	if s.Name != "printer" || s.Count != 3 {
		t.Errorf("UnmarshalStrict() = %+v", s)
	}
}

func TestUnmarshalStrictRejectsUnknownFields(t *testing.T) {
	var s sample
	if err := UnmarshalStrict([]byte("name: x\nbogus: 1\n"), &s); err == nil {
		t.Fatal("UnmarshalStrict() accepted an unknown field")
	}
}

func TestUnmarshalStrictValidation(t *testing.T) {
	var s sample
	if err := UnmarshalStrict(nil, &s); !errors.Is(err, ErrNilData) {
		t.Errorf("UnmarshalStrict(nil) error = %v, want ErrNilData", err)
	}
	if err := UnmarshalStrict([]byte("name: x"), nil); !errors.Is(err, ErrNilDestination) {
		t.Errorf("UnmarshalStrict(_, nil) error = %v, want ErrNilDestination", err)
	}

	big := []byte(strings.Repeat("a", MaxInputSize+1))
	if err := UnmarshalStrict(big, &s); !errors.Is(err, ErrInputTooLarge) {
		t.Errorf("UnmarshalStrict(oversized) error = %v, want ErrInputTooLarge", err)
	}
}

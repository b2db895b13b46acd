package pipeline

import (
	"reflect"
	"testing"

	"positionScope/internal/model"
)

func TestParseKind(t *testing.T) {
	cases := map[string]model.EventKind{
		"positions": model.EventPosition,
		" Mint ":    model.EventMint,
		"BURN":      model.EventBurn,
		"creators":  model.EventCreation,
	}
	for in, want := range cases {
		got, err := ParseKind(in)
		if err != nil {
			t.Fatalf("ParseKind(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseKind(%q) = %s, want %s", in, got, want)
		}
	}
	if _, err := ParseKind("swap"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestParseSignatureMap(t *testing.T) {
	got, err := ParseSignatureMap(map[string]string{"increaseLiquidity": "mint", " ": "burn"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]model.EventKind{"increaseLiquidity": model.EventMint}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("map mismatch: %#v", got)
	}

	if _, err := ParseSignatureMap(map[string]string{"collect": "fees"}); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

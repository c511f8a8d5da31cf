package version

import "testing"

func TestIncreaseBumpsLastComponent(t *testing.T) {
	v := Number{1, 2}
	got := v.Increase()
	want := Number{1, 3}
	if got.Compare(want) != 0 {
		t.Fatalf("got %v, want %v", got, want)
	}
	if v.Compare(Number{1, 2}) != 0 {
		t.Fatalf("Increase must not mutate receiver, got %v", v)
	}
}

func TestAddStageAppendsZero(t *testing.T) {
	v := Number{1, 2}
	got := v.AddStage()
	want := Number{1, 2, 0}
	if got.Compare(want) != 0 {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestIsCompatibleWithPrefix(t *testing.T) {
	// a shorter version is compatible with a longer one iff it is an
	// exact prefix at the shared length.
	if !(Number{1}).IsCompatibleWith(Number{1, 2}) {
		t.Fatal("expected [1] compatible with [1,2]")
	}
	if (Number{1}).IsCompatibleWith(Number{2, 2}) {
		t.Fatal("expected [1] incompatible with [2,2]")
	}
}

func TestIsCompatibleWithEqualLength(t *testing.T) {
	if !(Number{1, 2}).IsCompatibleWith(Number{1, 3}) {
		t.Fatal("expected [1,2] compatible with [1,3] (2 <= 3)")
	}
	if (Number{1, 3}).IsCompatibleWith(Number{1, 2}) {
		t.Fatal("expected [1,3] incompatible with [1,2] (3 > 2)")
	}
}

func TestIsCompatibleWithLongerNeverCompatible(t *testing.T) {
	if (Number{1, 2, 0}).IsCompatibleWith(Number{1, 2}) {
		t.Fatal("a longer version can never be compatible with a shorter one")
	}
}

func TestCompareOrdersByPrefixThenLength(t *testing.T) {
	if (Number{1}).Compare(Number{1, 0}) >= 0 {
		t.Fatal("[1] should sort before [1,0]")
	}
	if (Number{1, 1}).Compare(Number{1, 2}) >= 0 {
		t.Fatal("[1,1] should sort before [1,2]")
	}
}

func TestStringFormat(t *testing.T) {
	if got := (Number{1, 2, 0}).String(); got != "1.2.0" {
		t.Fatalf("got %q, want %q", got, "1.2.0")
	}
}

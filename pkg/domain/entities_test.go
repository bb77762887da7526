package domain

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestPointMaskJSONRoundTrip(t *testing.T) {
	mask := PointMask{0: true, 3: false, 7: true}
	data, err := json.Marshal(mask)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded PointMask
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(mask, decoded) {
		t.Fatalf("round trip mismatch: %v != %v", decoded, mask)
	}
}

func TestPointMaskExcludedSorted(t *testing.T) {
	mask := PointMask{9: true, 1: true, 4: false, 2: true}
	got := mask.Excluded()
	want := []int{1, 2, 9}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestPointMaskReducedDropsIncludedEntries(t *testing.T) {
	mask := PointMask{0: false, 1: true, 2: false}
	reduced := mask.Reduced()
	if len(reduced) != 1 || !reduced.IsExcluded(1) {
		t.Fatalf("expected {1:true}, got %v", reduced)
	}
	if mask.IsExcluded(2) {
		t.Fatalf("reduction mutated the source mask")
	}
}

func TestDataSetEquivalentTo(t *testing.T) {
	a := *makeDataSet("A", 5)
	b := a.Clone()
	if !a.EquivalentTo(b) {
		t.Fatalf("clone should be equivalent")
	}

	// Numeric noise below the tolerance is still equivalent.
	b.Real[2] += 1e-12
	if !a.EquivalentTo(b) {
		t.Fatalf("tiny perturbation should stay equivalent")
	}

	b.Real[2] += 1
	if a.EquivalentTo(b) {
		t.Fatalf("large perturbation should not be equivalent")
	}

	c := a.Clone()
	c.Label = "renamed"
	if a.EquivalentTo(c) {
		t.Fatalf("label change should not be equivalent")
	}

	// Masks are excluded from the comparison.
	d := a.Clone()
	d.Mask = PointMask{0: true}
	if !a.EquivalentTo(d) {
		t.Fatalf("mask change should stay equivalent")
	}
}

func TestDataSetEquivalentToRaggedArrays(t *testing.T) {
	a := *makeDataSet("A", 3)
	b := a.Clone()
	b.Real = b.Real[:1]
	if a.EquivalentTo(b) || b.EquivalentTo(a) {
		t.Fatalf("ragged sample arrays must not compare equivalent")
	}
}

func TestPointMaskRejectsMalformedIndexKey(t *testing.T) {
	var mask PointMask
	if err := json.Unmarshal([]byte(`{"12abc":true}`), &mask); err == nil {
		t.Fatalf("expected a malformed index key to be rejected")
	}
}

func TestDRTSettingsCloneCopiesEmbeddedFit(t *testing.T) {
	fit := FitResult{ID: NewID(), Settings: FitSettings{CDC: "[RC]"}, Parameters: []FittedParameter{{Element: "R_0", Name: "R", Value: 100}}}
	s := DRTSettings{Method: "tr-rbf", Fit: &fit}
	cp := s.Clone()
	cp.Fit.Parameters[0].Value = -1
	if s.Fit.Parameters[0].Value != 100 {
		t.Fatalf("clone shares the embedded fit")
	}
}

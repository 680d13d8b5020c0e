package jdwp

import (
	"bytes"
	"testing"
)

// serialize runs a modifier through a builder and returns the bytes
// it appended.
func serialize(t *testing.T, width int32, m EventModifier) []byte {
	t.Helper()
	sizes := knownSizes(width)
	b := newCommandBuilder(&sizes, 1, 1)
	m.appendTo(b)
	return b.finalize()[headerSize:]
}

func TestModifierWireLayouts(t *testing.T) {
	for _, tc := range []struct {
		name string
		mod  EventModifier
		want []byte
	}{
		{
			name: "count",
			mod:  CountModifier{Count: 500},
			want: []byte{1, 0, 0, 1, 0xf4},
		},
		{
			name: "thread only",
			mod:  ThreadOnlyModifier{Thread: 0x0102},
			want: []byte{3, 0, 0, 0, 0, 0, 0, 1, 2},
		},
		{
			name: "class only",
			mod:  ClassOnlyModifier{Class: 0x42},
			want: []byte{4, 0, 0, 0, 0, 0, 0, 0, 0x42},
		},
		{
			name: "class match",
			mod:  ClassMatchModifier{Pattern: "java.lang.*"},
			want: append([]byte{5, 0, 0, 0, 11}, "java.lang.*"...),
		},
		{
			name: "class exclude",
			mod:  ClassExcludeModifier{Pattern: "sun.*"},
			want: append([]byte{6, 0, 0, 0, 5}, "sun.*"...),
		},
		{
			name: "location only",
			mod:  LocationOnlyModifier{Kind: TagClass, Class: 0x42, Method: 0x07, Index: 3},
			want: []byte{
				7, 1,
				0, 0, 0, 0, 0, 0, 0, 0x42,
				0, 0, 0, 0, 0, 0, 0, 0x07,
				0, 0, 0, 0, 0, 0, 0, 3,
			},
		},
		{
			name: "exception only",
			mod:  ExceptionOnlyModifier{Exception: 0, Caught: true, Uncaught: false},
			want: []byte{8, 0, 0, 0, 0, 0, 0, 0, 0, 1, 0},
		},
		{
			name: "field only",
			mod:  FieldOnlyModifier{Class: 0x42, Field: 0x09},
			want: []byte{
				9,
				0, 0, 0, 0, 0, 0, 0, 0x42,
				0, 0, 0, 0, 0, 0, 0, 0x09,
			},
		},
		{
			name: "step",
			mod:  StepModifier{Thread: 0x11, Size: StepLine, Depth: StepOver},
			want: []byte{
				10,
				0, 0, 0, 0, 0, 0, 0, 0x11,
				0, 0, 0, 1,
				0, 0, 0, 1,
			},
		},
		{
			name: "instance only",
			mod:  InstanceOnlyModifier{Instance: 0x33},
			want: []byte{11, 0, 0, 0, 0, 0, 0, 0, 0x33},
		},
		{
			name: "source name match",
			mod:  SourceNameMatchModifier{Pattern: "Main.java"},
			want: append([]byte{12, 0, 0, 0, 9}, "Main.java"...),
		},
	} {
		if got := serialize(t, 8, tc.mod); !bytes.Equal(got, tc.want) {
			t.Errorf("%s: got % x, want % x", tc.name, got, tc.want)
		}
	}
}

func TestModifierWidthDispatch(t *testing.T) {
	got := serialize(t, 4, ThreadOnlyModifier{Thread: 0x0102})
	want := []byte{3, 0, 0, 1, 2}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % x, want % x", got, want)
	}
}

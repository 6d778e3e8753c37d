package textcontract_test

import (
	"testing"

	"github.com/InVisionApp/astral-renderer-sub000/textcontract"
)

func TestNewStaticFaceRejectsEmptyData(t *testing.T) {
	if _, err := textcontract.NewStaticFace(nil, 12, textcontract.DirectionLTR); err == nil {
		t.Fatal("expected error for empty font data")
	}
}

func TestNewStaticFaceFields(t *testing.T) {
	data := []byte{1, 2, 3}
	face, err := textcontract.NewStaticFace(data, 24, textcontract.DirectionRTL)
	if err != nil {
		t.Fatalf("new_static_face: %v", err)
	}
	if face.Size() != 24 {
		t.Fatalf("expected size 24, got %v", face.Size())
	}
	if face.Direction() != textcontract.DirectionRTL {
		t.Fatalf("expected RTL, got %v", face.Direction())
	}
	if len(face.SourceBytes()) != 3 {
		t.Fatalf("expected 3 source bytes, got %d", len(face.SourceBytes()))
	}
}

func TestDirectionIsVertical(t *testing.T) {
	cases := map[textcontract.Direction]bool{
		textcontract.DirectionLTR: false,
		textcontract.DirectionRTL: false,
		textcontract.DirectionTTB: true,
		textcontract.DirectionBTT: true,
	}
	for d, want := range cases {
		if got := d.IsVertical(); got != want {
			t.Fatalf("direction %v: expected IsVertical=%v, got %v", d, want, got)
		}
	}
}

func TestGoTextShaperRejectsUnparseableFace(t *testing.T) {
	s := textcontract.NewGoTextShaper()
	face, err := textcontract.NewStaticFace([]byte{0}, 12, textcontract.DirectionLTR)
	if err != nil {
		t.Fatalf("new_static_face: %v", err)
	}
	if _, err := s.Shape("hi", face); err == nil {
		t.Fatal("expected an error shaping against unparseable font data")
	}
}

func TestGoTextShaperEmptyTextIsNoop(t *testing.T) {
	s := textcontract.NewGoTextShaper()
	glyphs, err := s.Shape("", nil)
	if err != nil {
		t.Fatalf("shape: %v", err)
	}
	if glyphs != nil {
		t.Fatalf("expected nil glyphs for empty text, got %v", glyphs)
	}
}

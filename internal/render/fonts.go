package render

import (
	"fmt"
	"math"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Font is a parsed font shared between renders. Faces are not safe for
// concurrent use, so each surface builds its own through a faceSet.
type Font struct {
	f *opentype.Font
}

// LoadFont loads a TrueType/OpenType file, or the bundled Go Regular face
// when path is empty.
func LoadFont(path string) (*Font, error) {
	data := goregular.TTF
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read font: %w", err)
		}
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &Font{f: f}, nil
}

// faceSet caches faces by pixel size quantized to 1/64 px.
type faceSet struct {
	font  *Font
	faces map[int]font.Face
}

func (f *Font) newFaceSet() *faceSet {
	return &faceSet{font: f, faces: make(map[int]font.Face)}
}

func (s *faceSet) face(sizePx float64) (font.Face, error) {
	key := int(math.Round(sizePx * 64))
	if key < 64 {
		key = 64
	}
	if face, ok := s.faces[key]; ok {
		return face, nil
	}
	// DPI 72 makes the point size equal to the pixel size
	face, err := opentype.NewFace(s.font.f, &opentype.FaceOptions{
		Size:    float64(key) / 64,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	s.faces[key] = face
	return face, nil
}

func (s *faceSet) close() {
	for k, face := range s.faces {
		face.Close()
		delete(s.faces, k)
	}
}

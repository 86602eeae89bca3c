// Package editor is the interactive side of the story editor: the per-overlay
// transform engines plus the session state that owns the single selection.
//
// A Session is driven from one goroutine (the UI event loop); it does no
// locking of its own.
package editor

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ivlev/storyeditor/internal/overlay"
)

var (
	ErrUnknownOverlay  = errors.New("unknown overlay")
	ErrNotSelected     = errors.New("overlay is not selected")
	ErrTransformActive = errors.New("a gesture is in progress")
)

type Session struct {
	screen   r2.Vec
	texts    []*overlay.TextOverlay
	location *overlay.LocationOverlay
	selected *Selection
	engines  map[Selection]Transformer
	shareURL string
	refWidth float64
}

// NewSession creates an empty editor for a background displayed at w x h
// screen pixels.
func NewSession(w, h float64) *Session {
	s := &Session{engines: make(map[Selection]Transformer), refWidth: overlay.ReferenceWidth}
	s.Resize(w, h)
	return s
}

// Resize updates the display area. Gestures already in flight keep their
// pixel base and are not resynced.
func (s *Session) Resize(w, h float64) {
	s.screen = r2.Vec{X: sanitizeDim(w), Y: sanitizeDim(h)}
}

func (s *Session) Screen() (w, h float64) {
	return s.screen.X, s.screen.Y
}

// SetReferenceWidth sets the canvas width font sizes are designed for. It
// must match the renderer's so hit regions line up with drawn text.
func (s *Session) SetReferenceWidth(w float64) {
	if w > 0 && !math.IsInf(w, 0) {
		s.refWidth = w
	}
}

func sanitizeDim(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 1 {
		return 1
	}
	return v
}

// AddText creates a new centered overlay from a confirmed "add text" dialog.
func (s *Session) AddText(text string, argb uint32) (*overlay.TextOverlay, error) {
	o, err := overlay.NewText(text)
	if err != nil {
		return nil, err
	}
	o.TextColor = argb
	s.texts = append(s.texts, o)
	s.engines[TextSelection(o.ID)] = &textTransformer{o: o}
	return o, nil
}

// EditText applies the edit dialog result. Geometry is preserved.
func (s *Session) EditText(id overlay.ID, text string, argb uint32) error {
	o := s.text(id)
	if o == nil {
		return ErrUnknownOverlay
	}
	if !s.IsSelected(TextSelection(id)) {
		return ErrNotSelected
	}
	return o.SetContent(text, argb)
}

// DeleteText removes a selected overlay.
func (s *Session) DeleteText(id overlay.ID) error {
	sel := TextSelection(id)
	idx := s.textIndex(id)
	if idx < 0 {
		return ErrUnknownOverlay
	}
	if !s.IsSelected(sel) {
		return ErrNotSelected
	}
	if s.engines[sel].Transforming() {
		return ErrTransformActive
	}
	s.texts = append(s.texts[:idx], s.texts[idx+1:]...)
	delete(s.engines, sel)
	s.selected = nil
	return nil
}

// AttachLocation installs the location pill, discarding any previous one.
// The pill always starts centered.
func (s *Session) AttachLocation(loc *overlay.LocationOverlay) error {
	if loc == nil {
		return ErrUnknownOverlay
	}
	loc.PositionX, loc.PositionY = 0.5, 0.5
	s.location = loc
	s.engines[LocationSelection] = &locationTransformer{o: loc}
	if s.IsSelected(LocationSelection) {
		s.selected = nil
	}
	return nil
}

func (s *Session) RemoveLocation() error {
	if s.location == nil {
		return ErrUnknownOverlay
	}
	if !s.IsSelected(LocationSelection) {
		return ErrNotSelected
	}
	if s.engines[LocationSelection].Transforming() {
		return ErrTransformActive
	}
	s.location = nil
	delete(s.engines, LocationSelection)
	s.selected = nil
	return nil
}

// SetShareURL sets the link encoded into the share badge; empty disables it.
func (s *Session) SetShareURL(url string) {
	s.shareURL = url
}

// Discard drops the whole draft.
func (s *Session) Discard() {
	s.texts = nil
	s.location = nil
	s.selected = nil
	s.shareURL = ""
	s.engines = make(map[Selection]Transformer)
}

func (s *Session) Texts() []overlay.TextOverlay {
	out := make([]overlay.TextOverlay, len(s.texts))
	for i, o := range s.texts {
		out[i] = *o
	}
	return out
}

func (s *Session) Text(id overlay.ID) (overlay.TextOverlay, bool) {
	if o := s.text(id); o != nil {
		return *o, true
	}
	return overlay.TextOverlay{}, false
}

func (s *Session) Location() (overlay.LocationOverlay, bool) {
	if s.location == nil {
		return overlay.LocationOverlay{}, false
	}
	return *s.location, true
}

func (s *Session) text(id overlay.ID) *overlay.TextOverlay {
	if i := s.textIndex(id); i >= 0 {
		return s.texts[i]
	}
	return nil
}

func (s *Session) textIndex(id overlay.ID) int {
	for i, o := range s.texts {
		if o.ID == id {
			return i
		}
	}
	return -1
}

// --- selection ---

func (s *Session) exists(sel Selection) bool {
	_, ok := s.engines[sel]
	return ok
}

// Select makes sel the only selected overlay.
func (s *Session) Select(sel Selection) error {
	if !s.exists(sel) {
		return ErrUnknownOverlay
	}
	s.selected = &sel
	return nil
}

func (s *Session) ClearSelection() {
	s.selected = nil
}

func (s *Session) Selected() (Selection, bool) {
	if s.selected == nil {
		return Selection{}, false
	}
	return *s.selected, true
}

func (s *Session) IsSelected(sel Selection) bool {
	return s.selected != nil && *s.selected == sel
}

// TapBackground handles a tap that missed every overlay.
func (s *Session) TapBackground() {
	if s.anyTransforming() {
		return
	}
	s.ClearSelection()
}

// anyTransforming reports whether any overlay has a gesture in flight. Taps
// are dropped meanwhile so the release of a drag never reads as a tap.
func (s *Session) anyTransforming() bool {
	for _, eng := range s.engines {
		if eng.Transforming() {
			return true
		}
	}
	return false
}

// Tap handles a single tap on an overlay: the first tap selects, a tap on an
// already selected text overlay opens its editor.
func (s *Session) Tap(sel Selection) TapResult {
	if _, ok := s.engines[sel]; !ok || s.anyTransforming() {
		return TapIgnored
	}
	if !s.IsSelected(sel) {
		s.selected = &sel
		return TapSelected
	}
	if sel.Kind == KindText {
		return TapOpenEditor
	}
	return TapIgnored
}

// DoubleTap opens the editor regardless of prior selection. The location
// pill has no editor, so it is only selected.
func (s *Session) DoubleTap(sel Selection) TapResult {
	if _, ok := s.engines[sel]; !ok || s.anyTransforming() {
		return TapIgnored
	}
	s.selected = &sel
	if sel.Kind == KindText {
		return TapOpenEditor
	}
	return TapSelected
}

// --- gestures ---

// BeginTransform starts a gesture. It is ignored unless sel is selected.
func (s *Session) BeginTransform(sel Selection) bool {
	eng, ok := s.engines[sel]
	if !ok || !s.IsSelected(sel) || eng.Transforming() {
		return false
	}
	eng.Begin(s.screen)
	return true
}

func (s *Session) Apply(sel Selection, g Gesture) {
	if eng, ok := s.engines[sel]; ok {
		eng.Apply(g, s.screen)
	}
}

func (s *Session) ApplyPan(sel Selection, dx, dy float64) {
	s.Apply(sel, Gesture{Kind: GesturePan, Pan: r2.Vec{X: dx, Y: dy}})
}

func (s *Session) ApplyPinch(sel Selection, zoom float64) {
	s.Apply(sel, Gesture{Kind: GesturePinch, Zoom: zoom})
}

func (s *Session) ApplyRotate(sel Selection, deltaDeg float64) {
	s.Apply(sel, Gesture{Kind: GestureRotate, Rotation: deltaDeg})
}

func (s *Session) EndTransform(sel Selection) {
	if eng, ok := s.engines[sel]; ok {
		eng.Commit(s.screen)
	}
}

func (s *Session) Transforming(sel Selection) bool {
	eng, ok := s.engines[sel]
	return ok && eng.Transforming()
}

// LivePosition is the on-screen pixel position used for drawing during
// interaction. It is not clamped.
func (s *Session) LivePosition(sel Selection) (x, y float64, ok bool) {
	eng, ok := s.engines[sel]
	if !ok {
		return 0, 0, false
	}
	p := eng.Live(s.screen)
	return p.X, p.Y, true
}

// Snapshot freezes the committed model for rendering.
func (s *Session) Snapshot() (overlay.Scene, error) {
	if s.anyTransforming() {
		return overlay.Scene{}, ErrTransformActive
	}
	scene := overlay.Scene{
		Texts:    s.Texts(),
		Location: s.location,
		ShareURL: s.shareURL,
	}
	return scene.Clone(), nil
}

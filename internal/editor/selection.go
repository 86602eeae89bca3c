package editor

import "github.com/ivlev/storyeditor/internal/overlay"

type Kind int

const (
	KindText Kind = iota
	KindLocation
)

// Selection identifies one overlay: a text overlay by id, or the single
// location pill.
type Selection struct {
	Kind Kind
	ID   overlay.ID
}

// LocationSelection is the sentinel for the location pill.
var LocationSelection = Selection{Kind: KindLocation}

func TextSelection(id overlay.ID) Selection {
	return Selection{Kind: KindText, ID: id}
}

func (s Selection) String() string {
	if s.Kind == KindLocation {
		return "location"
	}
	return "text:" + string(s.ID)
}

type TapResult int

const (
	TapIgnored TapResult = iota
	TapSelected
	TapOpenEditor
)

func (r TapResult) String() string {
	switch r {
	case TapSelected:
		return "selected"
	case TapOpenEditor:
		return "open-editor"
	default:
		return "ignored"
	}
}

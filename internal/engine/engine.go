// Package engine declares the narrow interfaces through which the
// progression core talks to the host simulation: audio and haptic cues,
// report display, scene control and physics queries.
package engine

import (
	"time"

	"github.com/abhisek/forensiq/internal/oracle"
)

// Cue names a feedback effect.
type Cue string

const (
	CueCorrect      Cue = "correct"
	CueIncorrect    Cue = "incorrect"
	CueShutter      Cue = "shutter"
	CueHapticStrong Cue = "haptic-strong"
	CueComplete     Cue = "complete"
)

// Feedback plays audio or haptic cues.
type Feedback interface {
	PlayFeedback(cue Cue)
}

// Presenter displays report text to the trainee.
type Presenter interface {
	ShowReport(text string)
}

// Stage controls scene flow and world objects.
type Stage interface {
	AdvanceScene(sceneID string)
	Teleport(anchorID string)
	SetMovement(enabled bool)
	ShowSpeaker(speakerID string)
	HideSpeaker(speakerID string)
	// PlayLine starts a voice line and returns its length. ok is false
	// when no clip is available.
	PlayLine(clipID string) (length time.Duration, ok bool)
	SetActive(objectID string, active bool)
}

// Host bundles every collaborator the engine needs.
type Host interface {
	Feedback
	Presenter
	Stage
	oracle.RayCaster
}

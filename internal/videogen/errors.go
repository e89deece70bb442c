package videogen

import (
	"fmt"
)

// Pipeline stage names. They appear in logs only.
const (
	StageSynthesize  = "synthesize_narration"
	StageUploadAudio = "upload_audio"
	StageCompose     = "compose_slideshow"
	StageUploadVideo = "upload_video"
	StagePersist     = "persist"
	StageBackLink    = "back_link"
)

// ValidationError is a client-correctable request problem. Nothing has run when it is returned.
type ValidationError struct {
	Status  int
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// StageError is a hard failure that aborted the pipeline.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

// PersistenceError means the video was uploaded but its record was not written.
type PersistenceError struct {
	VideoURL string
	Err      error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("persist video record: %v", e.Err) }

func (e *PersistenceError) Unwrap() error { return e.Err }

package model

import "errors"

var (
	ErrInvalidOrigin        = errors.New("invalid origin token")
	ErrReentryAmbiguity     = errors.New("cannot recover origin on reentry")
	ErrNotAwaitingInput     = errors.New("session is not awaiting input")
	ErrPresetContract       = errors.New("preset selection out of contract")
	ErrSinkFailure          = errors.New("answers not saved")
	ErrEphemeralCleanup     = errors.New("ephemeral message cleanup failed")
	ErrInvalidQuestionnaire = errors.New("invalid questionnaire definition")
)

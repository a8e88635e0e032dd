package services

import (
	"context"
	"strconv"

	"github.com/Dosada05/cuereview/models"
)

// frameSink receives the named transitions produced while sequencing shots.
// The ingestion run implements it against the store; tests implement it in
// memory to exercise boundary detection on its own.
type frameSink interface {
	OpenFrame(ctx context.Context, frameNum int) (int, error)
	CloseFrame(ctx context.Context, frameID int) error
	OpenBreak(ctx context.Context, frameID, breakNum, playerID int) (int, error)
	CloseBreak(ctx context.Context, breakID int) error
	RegisterPot(ctx context.Context, breakID int, shot models.ShotRecord) error
}

// shotSequencer walks the ordered shot sequence and turns frame/break number
// changes into sink transitions. It is strictly sequential; boundary
// detection depends on the previous shot.
type shotSequencer struct {
	sink frameSink

	// frameOpen distinguishes "no frame yet" from a frame numbered 0, which
	// some exports legitimately start at.
	frameOpen bool
	frameID   int
	frameNum  int
	breakID   int
	breakNum  string
}

func newShotSequencer(sink frameSink) *shotSequencer {
	return &shotSequencer{sink: sink}
}

func (s *shotSequencer) Feed(ctx context.Context, shot models.ShotRecord) error {
	if !s.frameOpen || shot.FrameNum != s.frameNum {
		if s.breakID != 0 {
			if err := s.sink.CloseBreak(ctx, s.breakID); err != nil {
				return err
			}
			s.breakID = 0
		}
		if s.frameOpen {
			if err := s.sink.CloseFrame(ctx, s.frameID); err != nil {
				return err
			}
		}
		s.frameNum = shot.FrameNum
		// A fresh frame starts with no break context, so its first shot
		// always opens a break.
		s.breakNum = ""

		frameID, err := s.sink.OpenFrame(ctx, s.frameNum)
		if err != nil {
			return err
		}
		s.frameID = frameID
		s.frameOpen = true
	}

	// An empty break number always forces a new break, even when the last
	// numeric value would match; the retained number carries over to the new
	// break. This is how the export marks the final shot of a frame and
	// consecutive same-numbered sequences.
	if shot.BreakNum != s.breakNum || shot.BreakNum == "" {
		if s.breakID != 0 {
			if err := s.sink.CloseBreak(ctx, s.breakID); err != nil {
				return err
			}
		}
		if shot.BreakNum != "" {
			s.breakNum = shot.BreakNum
		}

		breakID, err := s.sink.OpenBreak(ctx, s.frameID, s.currentBreakNum(), shot.PlayerID)
		if err != nil {
			return err
		}
		s.breakID = breakID
	}

	return s.sink.RegisterPot(ctx, s.breakID, shot)
}

// Finish closes whatever break and frame are still open after the last shot.
func (s *shotSequencer) Finish(ctx context.Context) error {
	if s.breakID != 0 {
		if err := s.sink.CloseBreak(ctx, s.breakID); err != nil {
			return err
		}
		s.breakID = 0
	}
	if s.frameOpen {
		if err := s.sink.CloseFrame(ctx, s.frameID); err != nil {
			return err
		}
		s.frameID = 0
		s.frameOpen = false
	}
	return nil
}

func (s *shotSequencer) currentBreakNum() int {
	if s.breakNum == "" {
		return 0
	}
	num, err := strconv.Atoi(s.breakNum)
	if err != nil {
		return 0
	}
	return num
}

package services

import (
	"context"

	"github.com/Dosada05/cuereview/repositories"
)

// Cutoffs for overall frame totals: every break, and every foul attached to
// the last nominal break slot.
const (
	overallBreakCutoff = 9999
	overallFoulCutoff  = 99
)

// scoreKeeper applies the foul-credit scoring rules when breaks close. A foul
// break is owned by the offending player but its points count for the
// opponent, so cumulative scores always combine own non-foul breaks with the
// other side's foul breaks.
type scoreKeeper struct {
	breaks repositories.BreakRepository
}

// frameScoreAt returns a player's cumulative score and own foul points up to
// the cutoff pair. Foul breaks order within a break slot by
// break_num*100+foul_num, so a foul cutoff of 0 excludes fouls sitting in the
// cutoff break itself.
func (k *scoreKeeper) frameScoreAt(ctx context.Context, exec repositories.SQLExecutor, frameID, playerID, breakNum, foulNum int, opponent bool) (int, int, error) {
	score, err := k.breaks.SumScores(ctx, exec, frameID, playerID, breakNum, opponent)
	if err != nil {
		return 0, 0, err
	}

	creditedFouls, err := k.breaks.SumFoulScores(ctx, exec, frameID, playerID, breakNum, foulNum, !opponent)
	if err != nil {
		return 0, 0, err
	}
	score += creditedFouls

	foulPoints, err := k.breaks.SumFoulScores(ctx, exec, frameID, playerID, breakNum, foulNum, opponent)
	if err != nil {
		return 0, 0, err
	}
	return score, foulPoints, nil
}

// currentFrameScore is frameScoreAt with the overall cutoffs: everything
// closed so far counts.
func (k *scoreKeeper) currentFrameScore(ctx context.Context, exec repositories.SQLExecutor, frameID, playerID int, opponent bool) (int, int, error) {
	return k.frameScoreAt(ctx, exec, frameID, playerID, overallBreakCutoff, overallFoulCutoff, opponent)
}

// closeBreak freezes a break: own score, length, foul sequencing and the two
// running frame-score snapshots. A foul break contributes no points of its
// own to the breaking player, so its snapshot is taken before the break's
// score; a scoring break folds its own score in on top.
func (k *scoreKeeper) closeBreak(ctx context.Context, exec repositories.SQLExecutor, breakID int) error {
	foulEntries, err := k.breaks.CountFoulPots(ctx, exec, breakID)
	if err != nil {
		return err
	}
	score, err := k.breaks.SumPotPoints(ctx, exec, breakID)
	if err != nil {
		return err
	}
	length, err := k.breaks.CountPots(ctx, exec, breakID)
	if err != nil {
		return err
	}

	b, err := k.breaks.Get(ctx, exec, breakID)
	if err != nil {
		return err
	}
	frameScore, _, err := k.currentFrameScore(ctx, exec, b.FrameID, b.PlayerID, false)
	if err != nil {
		return err
	}
	oppFrameScore, _, err := k.currentFrameScore(ctx, exec, b.FrameID, b.PlayerID, true)
	if err != nil {
		return err
	}

	if foulEntries > 0 {
		foulNum, err := k.breaks.NextFoulNum(ctx, exec, breakID)
		if err != nil {
			return err
		}
		return k.breaks.Close(ctx, exec, breakID, score, length, &foulNum, frameScore, oppFrameScore)
	}

	frameScore += score
	return k.breaks.Close(ctx, exec, breakID, score, length, nil, frameScore, oppFrameScore)
}

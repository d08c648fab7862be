// internal/behavior/patterns.go
package behavior

import (
	"context"
	"time"
)

// quickScan: a few fast scrolls with short scanning pauses.
func (e *Engine) quickScan(ctx context.Context, deadline time.Time) error {
	segments := quickSegments.draw(e.rand)
	for i := 0; i < segments; i++ {
		if i > 0 && e.pastDeadline(deadline) {
			break
		}
		if err := e.scrollSmoothly(ctx, quickScroll.draw(e.rand), SpeedFast); err != nil {
			return err
		}
		if err := e.pause(ctx, quickPause); err != nil {
			return err
		}
		if e.rand.Float64() < quickAdjustP {
			if err := e.scrollSmoothly(ctx, quickAdjust.draw(e.rand), SpeedSlow); err != nil {
				return err
			}
			if err := e.pause(ctx, quickAdjustPause); err != nil {
				return err
			}
		}
	}
	return nil
}

// detailedReading: one segment per few listings, long reading pauses,
// idle mouse drift and the occasional re-read.
func (e *Engine) detailedReading(ctx context.Context, n int, deadline time.Time) error {
	perSegment := detailedPerSeg.draw(e.rand)
	segments := (n + perSegment - 1) / perSegment

	for i := 0; i < segments; i++ {
		if i > 0 && e.pastDeadline(deadline) {
			break
		}
		if err := e.scrollSmoothly(ctx, detailedScroll.draw(e.rand), SpeedMedium); err != nil {
			return err
		}
		if err := e.pause(ctx, detailedPause); err != nil {
			return err
		}
		if e.rand.Float64() < detailedMouseP {
			if err := e.readingMouseMovement(ctx); err != nil {
				return err
			}
		}
		if e.rand.Float64() < detailedRereadP {
			if err := e.scrollSmoothly(ctx, rereadUp.draw(e.rand), SpeedSlow); err != nil {
				return err
			}
			if err := e.pause(ctx, rereadPause); err != nil {
				return err
			}
			if err := e.scrollSmoothly(ctx, rereadDown.draw(e.rand), SpeedMedium); err != nil {
				return err
			}
		}
	}
	return nil
}

// selectiveBrowsing: skim most listings, linger on the interesting quarter.
func (e *Engine) selectiveBrowsing(ctx context.Context, n int, deadline time.Time) error {
	processed := 0
	for processed < n {
		if processed > 0 && e.pastDeadline(deadline) {
			break
		}
		if err := e.scrollSmoothly(ctx, selectiveScroll.draw(e.rand), SpeedFast); err != nil {
			return err
		}

		if e.rand.Float64() < interestingP {
			if err := e.pause(ctx, interestingPause); err != nil {
				return err
			}
			if e.rand.Float64() < cardHoverP {
				if err := e.cardInteraction(ctx); err != nil {
					return err
				}
			}
			if e.rand.Float64() < selectiveAdjustP {
				if err := e.scrollSmoothly(ctx, selectiveAdjust.draw(e.rand), SpeedSlow); err != nil {
					return err
				}
				if err := e.pause(ctx, selectiveAdjPause); err != nil {
					return err
				}
			}
		} else if err := e.pause(ctx, glancePause); err != nil {
			return err
		}

		processed += itemsPerStep.draw(e.rand)
	}
	return nil
}

// comparisonBrowsing: jump ahead, then bounce up and down between listings.
func (e *Engine) comparisonBrowsing(ctx context.Context, deadline time.Time) error {
	if err := e.scrollSmoothly(ctx, compareInitial.draw(e.rand), SpeedMedium); err != nil {
		return err
	}
	if err := e.pause(ctx, compareInitPause); err != nil {
		return err
	}

	cycles := compareCycles.draw(e.rand)
	for i := 0; i < cycles; i++ {
		if i > 0 && e.pastDeadline(deadline) {
			break
		}
		if err := e.scrollSmoothly(ctx, compareUp.draw(e.rand), SpeedMedium); err != nil {
			return err
		}
		if err := e.pause(ctx, compareUpPause); err != nil {
			return err
		}
		if err := e.scrollSmoothly(ctx, compareDown.draw(e.rand), SpeedMedium); err != nil {
			return err
		}
		if err := e.pause(ctx, compareDownPause); err != nil {
			return err
		}
		if e.rand.Float64() < horizontalScanP {
			if err := e.horizontalScan(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// scrollSmoothly splits amount into chunks with speed-dependent gaps, then
// nudges by a small random correction. A failed chunk stops the scroll.
func (e *Engine) scrollSmoothly(ctx context.Context, amount int, speed ScrollSpeed) error {
	delay, ok := scrollChunkDelay[speed]
	if !ok {
		delay = scrollChunkDelay[SpeedMedium]
	}

	chunks := scrollChunks.draw(e.rand)
	chunk := amount / chunks
	for i := 0; i < chunks; i++ {
		if !e.do(ctx, Action{Kind: ActionScrollBy, Y: float64(chunk)}, func() error {
			return e.act.ScrollBy(ctx, 0, chunk)
		}) {
			break
		}
		if err := e.pause(ctx, delay); err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	adjust := scrollFinalAdj.draw(e.rand)
	e.do(ctx, Action{Kind: ActionScrollBy, Y: float64(adjust)}, func() error {
		return e.act.ScrollBy(ctx, 0, adjust)
	})
	return nil
}

func (e *Engine) readingMouseMovement(ctx context.Context) error {
	moves := readingMoves.draw(e.rand)
	for i := 0; i < moves; i++ {
		e.moveBy(ctx, readingMoveX.draw(e.rand), readingMoveY.draw(e.rand))
		if err := e.pause(ctx, readingMovePause); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) cardInteraction(ctx context.Context) error {
	for _, m := range cardHoverMoves {
		e.moveBy(ctx, m[0].draw(e.rand), m[1].draw(e.rand))
		if err := e.pause(ctx, cardHoverPause); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) horizontalScan(ctx context.Context) error {
	startX := horizontalStart.draw(e.rand)
	endX := horizontalEnd.draw(e.rand)
	steps := horizontalSteps.draw(e.rand)
	step := (endX - startX) / steps

	e.moveBy(ctx, startX, 0)
	for i := 0; i < steps; i++ {
		e.moveBy(ctx, step, horizontalJitter.draw(e.rand))
		if err := e.pause(ctx, horizontalPause); err != nil {
			return err
		}
	}
	return nil
}

// moveBy moves the pointer relative to its last position, clamped to the viewport.
func (e *Engine) moveBy(ctx context.Context, dx, dy int) {
	x := clamp(e.mouseX+float64(dx), 0, float64(e.viewW-1))
	y := clamp(e.mouseY+float64(dy), 0, float64(e.viewH-1))
	e.mouseX, e.mouseY = x, y
	e.do(ctx, Action{Kind: ActionMouseMove, X: x, Y: y}, func() error {
		return e.act.MouseMove(ctx, x, y)
	})
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// internal/behavior/timing.go
package behavior

import (
	"time"

	"github.com/valpere/jobharvest/internal/utils"
)

// Timing and geometry table. Seconds unless noted, pixels for distances.
// Every random draw in this package reads one of these ranges.
//
//	phase            parameter                          range
//	profile          reading speed (wpm)                150 .. 400
//	profile          attention span                     30 .. 120
//	arrival          initial wait                       0.8 .. 2.0
//	arrival          navigation mistake chance          2%
//	mistake          back -> forward pauses             0.5 .. 1.5, 1.0 .. 2.0
//	mistake          stray click offset                 +-100, then move +-50, pause 0.3 .. 0.8
//	mistake          stray key pause                    0.5 .. 1.0
//	arrival          focus click pause                  0.1 .. 0.3 (click inside central half)
//	arrival          scan: scroll 100, pause            0.5 .. 1.5, back to top, pause 0.3 .. 0.8
//	reading          words per item                     15 .. 35
//	reading          scan overhead per item             2 .. 8
//	quick-scan       segments                           2 .. 4
//	quick-scan       scroll (fast)                      400 .. 900, pause 0.3 .. 1.0
//	quick-scan       adjust chance 20%                  +-100 (slow), pause 0.2 .. 0.6
//	detailed         items per segment                  2 .. 4
//	detailed         scroll (medium), reading pause     400 .. 700, 3 .. 8
//	detailed         mouse drift chance 70%             2 .. 5 moves of +-50/+-20, pause 0.3 .. 0.8
//	detailed         re-read chance 30%                 up 50 .. 200 (slow), pause 1 .. 3, down 100 .. 300
//	selective        scroll (fast)                      300 .. 600
//	selective        interesting chance 25%             pause 1 .. 3, card hover 50%, adjust 30% +-50 pause 0.5 .. 1.0
//	selective        card hover                         3 moves (+-30,+-10) (+-20,20..40) (+-40,-5..15), pause 0.5 .. 1.2
//	selective        uninteresting pause                0.2 .. 0.8
//	selective        items per step                     2 .. 4
//	comparison       initial scroll (medium), pause     800 .. 1200, 2 .. 4
//	comparison       cycles                             2 .. 4
//	comparison       up 200 .. 400 pause 2 .. 4, down 300 .. 600 pause 1 .. 3, horizontal scan 60%
//	scroll           chunks                             3 .. 8, final adjust +-20
//	scroll           chunk delay slow/medium/fast       0.05 .. 0.15 / 0.02 .. 0.08 / 0.01 .. 0.03
//	distraction      chance normal/fast                 15% / 5%
//	distraction      pause                              3 .. 10 (fast variant 0.5 .. 1.5)
//	distraction      tab switch away                    2 .. 5
//	distraction      resize +-50 x +-30, hold           1 .. 2
//	session break    pause                              0.5 .. 2.0, minimize 10% for 1 .. 3
type floatRange struct{ min, max float64 }

type intRange struct{ min, max int }

func (r floatRange) draw(src utils.RandSource) float64 { return utils.Uniform(src, r.min, r.max) }

func (r floatRange) duration(src utils.RandSource) time.Duration {
	return utils.Seconds(r.draw(src))
}

func (r intRange) draw(src utils.RandSource) int { return utils.IntRange(src, r.min, r.max) }

var (
	readingSpeedWPM  = floatRange{150, 400}
	attentionSpanSec = floatRange{30, 120}

	arrivalWait         = floatRange{0.8, 2.0}
	navigationMistakeP  = 0.02
	mistakeBackPause    = floatRange{0.5, 1.5}
	mistakeForwardPause = floatRange{1.0, 2.0}
	mistakeClickOffset  = intRange{-100, 100}
	mistakeClickRetreat = intRange{-50, 50}
	mistakeClickPause   = floatRange{0.3, 0.8}
	mistakeKeyPause     = floatRange{0.5, 1.0}
	focusClickPause     = floatRange{0.1, 0.3}
	initialScanScroll   = 100
	initialScanPause    = floatRange{0.5, 1.5}
	initialScanTopPause = floatRange{0.3, 0.8}
	mistakeKeys         = []string{KeySpace, KeyArrowDown, KeyArrowUp}

	wordsPerItem      = intRange{15, 35}
	scanOverheadPerIt = floatRange{2, 8}

	quickSegments     = intRange{2, 4}
	quickScroll       = intRange{400, 900}
	quickPause        = floatRange{0.3, 1.0}
	quickAdjustP      = 0.2
	quickAdjust       = intRange{-100, 100}
	quickAdjustPause  = floatRange{0.2, 0.6}
	detailedPerSeg    = intRange{2, 4}
	detailedScroll    = intRange{400, 700}
	detailedPause     = floatRange{3, 8}
	detailedMouseP    = 0.7
	detailedRereadP   = 0.3
	rereadUp          = intRange{-200, -50}
	rereadPause       = floatRange{1, 3}
	rereadDown        = intRange{100, 300}
	readingMoves      = intRange{2, 5}
	readingMoveX      = intRange{-50, 50}
	readingMoveY      = intRange{-20, 20}
	readingMovePause  = floatRange{0.3, 0.8}
	selectiveScroll   = intRange{300, 600}
	interestingP      = 0.25
	interestingPause  = floatRange{1, 3}
	cardHoverP        = 0.5
	cardHoverPause    = floatRange{0.5, 1.2}
	cardHoverMoves    = [][2]intRange{
		{{-30, 30}, {-10, 10}},
		{{-20, 20}, {20, 40}},
		{{-40, 40}, {-5, 15}},
	}
	selectiveAdjustP  = 0.3
	selectiveAdjust   = intRange{-50, 50}
	selectiveAdjPause = floatRange{0.5, 1.0}
	glancePause       = floatRange{0.2, 0.8}
	itemsPerStep      = intRange{2, 4}
	compareInitial    = intRange{800, 1200}
	compareInitPause  = floatRange{2, 4}
	compareCycles     = intRange{2, 4}
	compareUp         = intRange{-400, -200}
	compareUpPause    = floatRange{2, 4}
	compareDown       = intRange{300, 600}
	compareDownPause  = floatRange{1, 3}
	horizontalScanP   = 0.6
	horizontalStart   = intRange{-100, -50}
	horizontalEnd     = intRange{50, 100}
	horizontalSteps   = intRange{3, 6}
	horizontalJitter  = intRange{-5, 5}
	horizontalPause   = floatRange{0.2, 0.5}

	scrollChunks     = intRange{3, 8}
	scrollFinalAdj   = intRange{-20, 20}
	scrollChunkDelay = map[ScrollSpeed]floatRange{
		SpeedSlow:   {0.05, 0.15},
		SpeedMedium: {0.02, 0.08},
		SpeedFast:   {0.01, 0.03},
	}

	distractionP         = 0.15
	fastDistractionP     = 0.05
	distractionPause     = floatRange{3, 10}
	fastDistractionPause = floatRange{0.5, 1.5}
	tabAwayPause         = floatRange{2, 5}
	resizeWidth          = intRange{-50, 50}
	resizeHeight         = intRange{-30, 30}
	resizeHold           = floatRange{1, 2}

	sessionBreakPause = floatRange{0.5, 2.0}
	minimizeP         = 0.1
	minimizeHold      = floatRange{1, 3}
)

const (
	fallbackViewportWidth  = 1920
	fallbackViewportHeight = 1080
)

// Pattern selection weights, in Pattern order (quick, detailed, selective, comparison).
var (
	earlyPageWeights = []int{20, 50, 20, 10}
	laterPageWeights = []int{60, 15, 20, 5}
	earlyPageLimit   = 2
)

package replay

import (
	"context"
	"crypto/rand"
	"math"
	"math/big"
	"time"

	"github.com/okian/presage/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	gestureKindCount   = 12
)

// Screen bounds for generated traces.
const (
	screenWidth  = 1080.0
	screenHeight = 1920.0
	edgeMargin   = 200.0
)

// Per-gesture timing and geometry constants.
const (
	sampleIntervalMS      = 16.0
	tapHoldMS             = 90.0
	tapJitterPx           = 2.0
	doubleTapGapMS        = 180.0
	longPressHoldMS       = 700.0
	swipeDistancePx       = 420.0
	swipeSamples          = 9
	dragDistancePx        = 500.0
	dragSamples           = 30
	pinchSpreadPx         = 250.0
	pinchSamples          = 14
	rotateRadiusPx        = 180.0
	rotateSweepDeg        = 60.0
	rotateSamples         = 14
	pressureBase          = 0.5
	pressureJitter        = 0.3
)

// Gesture kind cases.
const (
	caseTap = iota
	caseDoubleTap
	caseLongPress
	caseSwipeLeft
	caseSwipeRight
	caseSwipeUp
	caseSwipeDown
	caseDrag
	casePinchIn
	casePinchOut
	caseRotateCW
	caseRotateCCW
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// randomPoint picks a start point away from the screen edges so swipes
// and drags stay in bounds.
func randomPoint() (float64, float64) {
	x := edgeMargin + getRandomFloat()*(screenWidth-2*edgeMargin)
	y := edgeMargin + getRandomFloat()*(screenHeight-2*edgeMargin)
	return x, y
}

func randomPressure() float64 {
	return pressureBase + getRandomFloat()*pressureJitter
}

// generateTraces creates the requested number of synthetic gesture traces.
func generateTraces(ctx context.Context, config *Config, stats *Stats) ([]Trace, error) {
	total := config.NumSessions * config.Gestures
	logger.Get().Info(ctx, "generating gesture traces", logger.Int("count", total))

	traces := make([]Trace, 0, total)
	base := time.Now().UTC()
	for i := 0; i < total; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		traces = append(traces, generateSingleTrace(base))
		// Space traces out so double-tap windows from consecutive traces
		// do not overlap.
		base = base.Add(2 * time.Second)
	}

	stats.GesturesGenerated = len(traces)
	logger.Get().Info(ctx, "generated gesture traces successfully", logger.Int("count", len(traces)))
	return traces, nil
}

// generateSingleTrace builds one random gesture trace starting at base time.
func generateSingleTrace(base time.Time) Trace {
	kind, _ := rand.Int(rand.Reader, big.NewInt(gestureKindCount))
	x, y := randomPoint()

	switch kind.Int64() {
	case caseTap:
		return tapTrace("tap", base, x, y)
	case caseDoubleTap:
		return doubleTapTrace(base, x, y)
	case caseLongPress:
		return longPressTrace(base, x, y)
	case caseSwipeLeft:
		return swipeTrace("swipe-left", base, x, y, -1, 0)
	case caseSwipeRight:
		return swipeTrace("swipe-right", base, x, y, 1, 0)
	case caseSwipeUp:
		return swipeTrace("swipe-up", base, x, y, 0, -1)
	case caseSwipeDown:
		return swipeTrace("swipe-down", base, x, y, 0, 1)
	case caseDrag:
		return dragTrace(base, x, y)
	case casePinchIn:
		return pinchTrace(base, false)
	case casePinchOut:
		return pinchTrace(base, true)
	case caseRotateCW:
		return rotateTrace(base, true)
	case caseRotateCCW:
		return rotateTrace(base, false)
	default:
		return tapTrace("tap", base, x, y)
	}
}

func event(id int, phase string, x, y float64, ts time.Time) TouchEvent {
	return TouchEvent{
		TouchID:  id,
		Phase:    phase,
		X:        x,
		Y:        y,
		TS:       ts.Format(time.RFC3339Nano),
		Pressure: randomPressure(),
	}
}

// tapTrace is a short stationary press and release.
func tapTrace(label string, base time.Time, x, y float64) Trace {
	jx := x + (getRandomFloat()-0.5)*tapJitterPx
	jy := y + (getRandomFloat()-0.5)*tapJitterPx
	return Trace{
		Gesture: label,
		Events: []TouchEvent{
			event(0, "start", x, y, base),
			event(0, "move", jx, jy, base.Add(time.Duration(tapHoldMS/2)*time.Millisecond)),
			event(0, "end", jx, jy, base.Add(time.Duration(tapHoldMS)*time.Millisecond)),
		},
	}
}

// doubleTapTrace is two taps within the double-tap interval.
func doubleTapTrace(base time.Time, x, y float64) Trace {
	first := tapTrace("double-tap", base, x, y)
	secondStart := base.Add(time.Duration(tapHoldMS+doubleTapGapMS) * time.Millisecond)
	second := tapTrace("double-tap", secondStart, x, y)
	first.Events = append(first.Events, second.Events...)
	return first
}

// longPressTrace holds a near-stationary touch past the long-press threshold.
func longPressTrace(base time.Time, x, y float64) Trace {
	events := []TouchEvent{event(0, "start", x, y, base)}
	stride := 4 * sampleIntervalMS // ms between keepalive moves
	steps := int(longPressHoldMS / stride)
	for i := 1; i <= steps; i++ {
		ts := base.Add(time.Duration(float64(i)*stride) * time.Millisecond)
		jx := x + (getRandomFloat()-0.5)*tapJitterPx
		jy := y + (getRandomFloat()-0.5)*tapJitterPx
		events = append(events, event(0, "move", jx, jy, ts))
	}
	end := base.Add(time.Duration(longPressHoldMS) * time.Millisecond)
	events = append(events, event(0, "end", x, y, end))
	return Trace{Gesture: "long-press", Events: events}
}

// swipeTrace is a fast directional movement.
func swipeTrace(label string, base time.Time, x, y, dx, dy float64) Trace {
	events := []TouchEvent{event(0, "start", x, y, base)}
	for i := 1; i < swipeSamples; i++ {
		frac := float64(i) / float64(swipeSamples-1)
		ts := base.Add(time.Duration(float64(i)*sampleIntervalMS) * time.Millisecond)
		phase := "move"
		if i == swipeSamples-1 {
			phase = "end"
		}
		events = append(events, event(0, phase, x+dx*swipeDistancePx*frac, y+dy*swipeDistancePx*frac, ts))
	}
	return Trace{Gesture: label, Events: events}
}

// dragTrace is a slow sustained movement that never reaches swipe velocity.
func dragTrace(base time.Time, x, y float64) Trace {
	angle := getRandomFloat() * 2 * math.Pi
	dx, dy := math.Cos(angle), math.Sin(angle)

	events := []TouchEvent{event(0, "start", x, y, base)}
	for i := 1; i < dragSamples; i++ {
		frac := float64(i) / float64(dragSamples-1)
		// 3x the sample interval keeps velocity under the swipe threshold.
		ts := base.Add(time.Duration(float64(i)*3*sampleIntervalMS) * time.Millisecond)
		phase := "move"
		if i == dragSamples-1 {
			phase = "end"
		}
		events = append(events, event(0, phase, x+dx*dragDistancePx*frac, y+dy*dragDistancePx*frac, ts))
	}
	return Trace{Gesture: "drag", Events: events}
}

// pinchTrace moves two touches apart (out) or together (in).
func pinchTrace(base time.Time, out bool) Trace {
	cx, cy := screenWidth/2, screenHeight/2
	label := "pinch-in"
	startSpread, endSpread := pinchSpreadPx, pinchSpreadPx/3
	if out {
		label = "pinch-out"
		startSpread, endSpread = pinchSpreadPx/3, pinchSpreadPx
	}

	events := make([]TouchEvent, 0, pinchSamples*2)
	for i := 0; i < pinchSamples; i++ {
		frac := float64(i) / float64(pinchSamples-1)
		spread := startSpread + (endSpread-startSpread)*frac
		ts := base.Add(time.Duration(float64(i)*sampleIntervalMS) * time.Millisecond)

		phase := "move"
		switch i {
		case 0:
			phase = "start"
		case pinchSamples - 1:
			phase = "end"
		}
		events = append(events,
			event(0, phase, cx-spread, cy, ts),
			event(1, phase, cx+spread, cy, ts),
		)
	}
	return Trace{Gesture: label, Events: events}
}

// rotateTrace sweeps two touches around a shared center.
func rotateTrace(base time.Time, clockwise bool) Trace {
	cx, cy := screenWidth/2, screenHeight/2
	label := "rotate-ccw"
	sweep := rotateSweepDeg * math.Pi / 180
	if clockwise {
		label = "rotate-cw"
		sweep = -sweep
	}

	events := make([]TouchEvent, 0, rotateSamples*2)
	for i := 0; i < rotateSamples; i++ {
		frac := float64(i) / float64(rotateSamples-1)
		angle := sweep * frac
		ts := base.Add(time.Duration(float64(i)*sampleIntervalMS) * time.Millisecond)

		phase := "move"
		switch i {
		case 0:
			phase = "start"
		case rotateSamples - 1:
			phase = "end"
		}
		events = append(events,
			event(0, phase, cx+rotateRadiusPx*math.Cos(angle), cy+rotateRadiusPx*math.Sin(angle), ts),
			event(1, phase, cx-rotateRadiusPx*math.Cos(angle), cy-rotateRadiusPx*math.Sin(angle), ts),
		)
	}
	return Trace{Gesture: label, Events: events}
}

package state

import (
	"sort"
	"time"
)

// PlaybackState manages schedule playback timing.
type PlaybackState struct {
	CurrentTime float64 // seconds
	MaxTime     float64 // global makespan
	Speed       float64 // 1.0 = real time
	Playing     bool
	Loop        bool // restart at the end instead of stopping
	lastUpdate  time.Time
}

// NewPlaybackState creates a paused playback at t=0.
func NewPlaybackState(maxTime float64) *PlaybackState {
	return &PlaybackState{
		MaxTime:    maxTime,
		Speed:      1.0,
		lastUpdate: time.Now(),
	}
}

// TogglePlay toggles playback on/off.
func (p *PlaybackState) TogglePlay() {
	if p.Playing {
		p.Pause()
		return
	}
	p.Play()
}

// Play starts playback, rewinding first when parked at the end.
func (p *PlaybackState) Play() {
	if p.CurrentTime >= p.MaxTime {
		p.CurrentTime = 0
	}
	p.Playing = true
	p.lastUpdate = time.Now()
}

// Pause stops playback.
func (p *PlaybackState) Pause() {
	p.Playing = false
}

// Reset rewinds to the beginning and pauses.
func (p *PlaybackState) Reset() {
	p.CurrentTime = 0
	p.Playing = false
}

// Advance advances playback by the wall time since the last update.
func (p *PlaybackState) Advance() {
	now := time.Now()
	elapsed := now.Sub(p.lastUpdate).Seconds()
	p.lastUpdate = now
	p.AdvanceBy(elapsed)
}

// AdvanceBy advances playback by elapsed wall seconds scaled by Speed.
func (p *PlaybackState) AdvanceBy(elapsed float64) {
	if !p.Playing {
		return
	}
	p.CurrentTime += elapsed * p.Speed
	if p.CurrentTime < p.MaxTime {
		return
	}
	if p.Loop && p.MaxTime > 0 {
		for p.CurrentTime >= p.MaxTime {
			p.CurrentTime -= p.MaxTime
		}
		return
	}
	p.CurrentTime = p.MaxTime
	p.Playing = false
}

// SetTime sets the current playback time, clamped to [0, MaxTime].
func (p *PlaybackState) SetTime(t float64) {
	if t < 0 {
		t = 0
	}
	if t > p.MaxTime {
		t = p.MaxTime
	}
	p.CurrentTime = t
}

// Step is 1% of the makespan, at least 0.1 s.
func (p *PlaybackState) Step() float64 {
	step := p.MaxTime / 100
	if step < 0.1 {
		step = 0.1
	}
	return step
}

// StepForward pauses and advances by one step.
func (p *PlaybackState) StepForward() {
	p.Pause()
	p.SetTime(p.CurrentTime + p.Step())
}

// StepBack pauses and rewinds by one step.
func (p *PlaybackState) StepBack() {
	p.Pause()
	p.SetTime(p.CurrentTime - p.Step())
}

// SetSpeed sets the playback speed multiplier.
func (p *PlaybackState) SetSpeed(speed float64) {
	if speed < 0.1 {
		speed = 0.1
	}
	if speed > 10 {
		speed = 10
	}
	p.Speed = speed
}

// Progress returns current progress as 0-1.
func (p *PlaybackState) Progress() float64 {
	if p.MaxTime <= 0 {
		return 0
	}
	return p.CurrentTime / p.MaxTime
}

// JumpNext pauses at the first mark strictly after the current time.
// times must be sorted. Reports whether a jump happened.
func (p *PlaybackState) JumpNext(times []float64) bool {
	const eps = 1e-9
	i := sort.SearchFloat64s(times, p.CurrentTime+eps)
	for i < len(times) && times[i] <= p.CurrentTime+eps {
		i++
	}
	if i >= len(times) {
		return false
	}
	p.Pause()
	p.SetTime(times[i])
	return true
}

// JumpPrev pauses at the last mark strictly before the current time.
func (p *PlaybackState) JumpPrev(times []float64) bool {
	const eps = 1e-9
	i := sort.SearchFloat64s(times, p.CurrentTime-eps) - 1
	if i < 0 {
		return false
	}
	p.Pause()
	p.SetTime(times[i])
	return true
}

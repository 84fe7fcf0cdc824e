package state

import (
	"math"
	"testing"
)

func TestAdvanceStopsAtEnd(t *testing.T) {
	p := NewPlaybackState(10)
	p.Play()
	p.AdvanceBy(4)
	if p.CurrentTime != 4 {
		t.Fatalf("t = %f, want 4", p.CurrentTime)
	}
	p.AdvanceBy(100)
	if p.CurrentTime != 10 || p.Playing {
		t.Errorf("t = %f playing = %v, want parked at end", p.CurrentTime, p.Playing)
	}
}

func TestAdvanceLoops(t *testing.T) {
	p := NewPlaybackState(10)
	p.Loop = true
	p.SetSpeed(2)
	p.Play()
	p.AdvanceBy(6)
	if math.Abs(p.CurrentTime-2) > 1e-9 || !p.Playing {
		t.Errorf("t = %f playing = %v, want 2 and playing", p.CurrentTime, p.Playing)
	}
}

func TestAdvancePaused(t *testing.T) {
	p := NewPlaybackState(10)
	p.AdvanceBy(5)
	if p.CurrentTime != 0 {
		t.Errorf("paused playback moved to %f", p.CurrentTime)
	}
}

func TestPlayRewindsAtEnd(t *testing.T) {
	p := NewPlaybackState(10)
	p.SetTime(10)
	p.TogglePlay()
	if p.CurrentTime != 0 || !p.Playing {
		t.Errorf("t = %f playing = %v", p.CurrentTime, p.Playing)
	}
	p.TogglePlay()
	if p.Playing {
		t.Error("second toggle pauses")
	}
}

func TestSteps(t *testing.T) {
	tests := []struct {
		maxTime float64
		want    float64
	}{
		{100, 1},
		{5, 0.1},
		{0, 0.1},
	}
	for _, tt := range tests {
		if got := NewPlaybackState(tt.maxTime).Step(); got != tt.want {
			t.Errorf("Step(%f) = %f, want %f", tt.maxTime, got, tt.want)
		}
	}

	p := NewPlaybackState(100)
	p.Play()
	p.StepForward()
	if p.Playing || p.CurrentTime != 1 {
		t.Errorf("after step forward t = %f playing = %v", p.CurrentTime, p.Playing)
	}
	p.StepBack()
	p.StepBack()
	if p.CurrentTime != 0 {
		t.Errorf("step back clamps to 0, got %f", p.CurrentTime)
	}
}

func TestSetSpeedClamped(t *testing.T) {
	p := NewPlaybackState(1)
	p.SetSpeed(0)
	if p.Speed != 0.1 {
		t.Errorf("speed = %f, want 0.1", p.Speed)
	}
	p.SetSpeed(50)
	if p.Speed != 10 {
		t.Errorf("speed = %f, want 10", p.Speed)
	}
}

func TestProgress(t *testing.T) {
	p := NewPlaybackState(8)
	p.SetTime(2)
	if p.Progress() != 0.25 {
		t.Errorf("progress = %f", p.Progress())
	}
	if NewPlaybackState(0).Progress() != 0 {
		t.Error("empty playback has zero progress")
	}
}

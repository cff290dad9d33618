package instanced

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Stats accumulates loop timings.
type Stats struct {
	Updates     int
	Frames      int
	UpdateTotal time.Duration
	UpdateMax   time.Duration
	FrameTotal  time.Duration
	FrameMax    time.Duration
}

func (s *Stats) observeUpdate(d time.Duration) {
	s.Updates++
	s.UpdateTotal += d
	s.UpdateMax = max(s.UpdateMax, d)
}

func (s *Stats) observeFrame(d time.Duration) {
	s.Frames++
	s.FrameTotal += d
	s.FrameMax = max(s.FrameMax, d)
}

// MeanUpdate returns the average update duration.
func (s Stats) MeanUpdate() time.Duration {
	if s.Updates == 0 {
		return 0
	}
	return s.UpdateTotal / time.Duration(s.Updates)
}

// MeanFrame returns the average frame duration.
func (s Stats) MeanFrame() time.Duration {
	if s.Frames == 0 {
		return 0
	}
	return s.FrameTotal / time.Duration(s.Frames)
}

// Summary formats the statistics for people, with digit grouping for tag.
func (s Stats) Summary(tag language.Tag) string {
	p := message.NewPrinter(tag)
	return p.Sprintf("%d updates (mean %v, max %v), %d frames (mean %v, max %v)",
		s.Updates, s.MeanUpdate(), s.UpdateMax,
		s.Frames, s.MeanFrame(), s.FrameMax)
}

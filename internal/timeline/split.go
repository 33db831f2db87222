package timeline

import "math"

// SplitAt cuts the overlay in two at the given timeline frame. The original
// keeps its id and the leading part; the remainder gets a fresh id and is
// inserted right after it. Returns the new id, or 0 when the split point is
// not strictly inside (From, From+DurationInFrames) — boundary splits are
// no-ops.
//
// Continuity rules per kind:
//   - clip/sound: the remainder's media start offset advances by the elapsed
//     duration converted to seconds at the session fps.
//   - caption: caption and word intervals are intersected with the boundary
//     in overlay-relative milliseconds; truncated captions get their words
//     retimed evenly and their text rejoined.
//   - sound with cached waveform peaks: peaks are partitioned proportionally
//     so neither half needs to recompute them from source audio.
func (s *Store) SplitAt(id, atFrame int) int {
	o := s.find(id)
	if o == nil || atFrame <= o.From || atFrame >= o.End() {
		return 0
	}

	elapsed := atFrame - o.From
	totalFrames := o.DurationInFrames

	rest := o.Clone()
	rest.ID = s.nextID
	s.nextID++
	rest.From = atFrame
	rest.DurationInFrames = totalFrames - elapsed
	o.DurationInFrames = elapsed

	switch o.Kind {
	case KindClip, KindSound:
		rest.StartFromSeconds = o.StartFromSeconds + float64(elapsed)/float64(s.fps)
	}

	if len(o.Captions) > 0 {
		boundaryMs := framesToMs(elapsed, s.fps)
		o.Captions, rest.Captions = splitCaptions(o.Captions, boundaryMs)
	}

	if len(o.WaveformPeaks) > 0 {
		cut := int(math.Round(float64(len(o.WaveformPeaks)) * float64(elapsed) / float64(totalFrames)))
		if cut < 0 {
			cut = 0
		}
		if cut > len(o.WaveformPeaks) {
			cut = len(o.WaveformPeaks)
		}
		head := o.WaveformPeaks[:cut]
		tail := o.WaveformPeaks[cut:]
		o.WaveformPeaks = append([]float64(nil), head...)
		rest.WaveformPeaks = append([]float64(nil), tail...)
	}

	idx := s.indexOf(id)
	s.overlays = append(s.overlays, nil)
	copy(s.overlays[idx+2:], s.overlays[idx+1:])
	s.overlays[idx+1] = rest

	return rest.ID
}

func framesToMs(frames, fps int) int {
	return int(math.Round(float64(frames) * 1000.0 / float64(fps)))
}

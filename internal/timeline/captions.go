package timeline

import "strings"

// splitCaptions partitions captions across a split boundary expressed in
// overlay-relative milliseconds. Captions entirely on one side move there
// whole; a caption crossing the boundary is truncated into both halves.
// Right-half times are shifted so the boundary becomes zero. Captions that
// lose all their words are dropped.
func splitCaptions(captions []Caption, boundaryMs int) (left, right []Caption) {
	for _, c := range captions {
		switch {
		case c.EndMs <= boundaryMs:
			left = append(left, c)
		case c.StartMs >= boundaryMs:
			right = append(right, shiftCaption(c, -boundaryMs))
		default:
			if head, ok := truncateCaption(c, c.StartMs, boundaryMs); ok {
				left = append(left, head)
			}
			if tail, ok := truncateCaption(c, boundaryMs, c.EndMs); ok {
				right = append(right, shiftCaption(tail, -boundaryMs))
			}
		}
	}
	return left, right
}

// truncateCaption clips a caption to [startMs, endMs), keeping the words that
// intersect the window. Surviving words are retimed evenly across the new
// span and the caption text is rejoined from them. Returns false when no
// word survives.
func truncateCaption(c Caption, startMs, endMs int) (Caption, bool) {
	var words []Word
	for _, w := range c.Words {
		if w.EndMs <= startMs || w.StartMs >= endMs {
			continue
		}
		clipped := w
		if clipped.StartMs < startMs {
			clipped.StartMs = startMs
		}
		if clipped.EndMs > endMs {
			clipped.EndMs = endMs
		}
		words = append(words, clipped)
	}
	if len(words) == 0 {
		return Caption{}, false
	}

	out := Caption{StartMs: startMs, EndMs: endMs, Words: words}
	return retimeCaption(rejoinText(out)), true
}

func shiftCaption(c Caption, deltaMs int) Caption {
	c.StartMs += deltaMs
	c.EndMs += deltaMs
	words := make([]Word, len(c.Words))
	for i, w := range c.Words {
		w.StartMs += deltaMs
		w.EndMs += deltaMs
		words[i] = w
	}
	c.Words = words
	return c
}

// retimeCaption redistributes the caption's words evenly across its
// [StartMs, EndMs) span. Original recognized word boundaries are discarded;
// this keeps word timing monotone and contiguous after any text or duration
// edit.
func retimeCaption(c Caption) Caption {
	n := len(c.Words)
	if n == 0 {
		return c
	}
	span := c.EndMs - c.StartMs
	words := make([]Word, n)
	for i, w := range c.Words {
		w.StartMs = c.StartMs + span*i/n
		w.EndMs = c.StartMs + span*(i+1)/n
		words[i] = w
	}
	c.Words = words
	return c
}

func rejoinText(c Caption) Caption {
	parts := make([]string, len(c.Words))
	for i, w := range c.Words {
		parts[i] = w.Text
	}
	c.Text = strings.Join(parts, " ")
	return c
}

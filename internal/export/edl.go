// Package export turns the timeline into interchange formats other editing
// tools can open. Only EDL (CMX 3600) is implemented.
package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/clipframe/clipframe-agent/internal/timeline"
)

// GenerateEDL writes a CMX 3600 edit decision list for the clip and sound
// overlays of a timeline. Events are ordered by timeline position; record
// times come straight from overlay frames, source times from the overlay's
// offset into its media.
func GenerateEDL(overlays []*timeline.Overlay, title string, fps int) string {
	if fps <= 0 {
		fps = 30
	}

	var media []*timeline.Overlay
	for _, o := range overlays {
		if o.Kind == timeline.KindClip || o.Kind == timeline.KindSound {
			media = append(media, o)
		}
	}
	sort.SliceStable(media, func(i, j int) bool {
		if media[i].From != media[j].From {
			return media[i].From < media[j].From
		}
		return media[i].Row < media[j].Row
	})

	lines := []string{
		fmt.Sprintf("TITLE: %s", SanitizeName(title, 70)),
		"FCM: NON-DROP FRAME",
		"",
	}

	for i, o := range media {
		track := "V"
		if o.Kind == timeline.KindSound {
			track = "A"
		}

		srcInFrames := int(o.StartFromSeconds * float64(fps))
		srcIn := framesToTimecode(srcInFrames, fps)
		srcOut := framesToTimecode(srcInFrames+o.DurationInFrames, fps)
		recIn := framesToTimecode(o.From, fps)
		recOut := framesToTimecode(o.End(), fps)

		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", i+1, "AX", track, srcIn, srcOut, recIn, recOut),
			fmt.Sprintf("* FROM CLIP NAME:  %s", clipName(o)),
			fmt.Sprintf("* MEDIA PATH:  %s", o.Src),
		)
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func clipName(o *timeline.Overlay) string {
	if o.Src == "" {
		return fmt.Sprintf("overlay-%d", o.ID)
	}
	name := o.Src
	if idx := strings.LastIndexAny(name, "/\\"); idx >= 0 {
		name = name[idx+1:]
	}
	return SanitizeName(name, 70)
}

func framesToTimecode(totalFrames, fps int) string {
	frames := totalFrames % fps
	totalSeconds := totalFrames / fps
	seconds := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, seconds, frames)
}

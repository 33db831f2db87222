package timeline

// Store is the in-memory ordered overlay collection plus selection state for
// one editing session. It is not safe for concurrent use; the session
// controller serializes access the way the browser's single UI thread would.
//
// Structural operations on absent ids or invalid arguments are silent no-ops
// that leave state unchanged.
type Store struct {
	fps      int
	overlays []*Overlay
	selected []int
	nextID   int
}

func NewStore(fps int) *Store {
	if fps <= 0 {
		fps = 30
	}
	return &Store{fps: fps, nextID: 1}
}

func (s *Store) FPS() int {
	return s.fps
}

// Load replaces the whole collection, e.g. when restoring an autosave.
// The id counter is reseeded past the highest loaded id so ids are never
// reused within the session, and the selection is cleared.
func (s *Store) Load(overlays []*Overlay) {
	s.overlays = make([]*Overlay, 0, len(overlays))
	maxID := 0
	for _, o := range overlays {
		s.overlays = append(s.overlays, o.Clone())
		if o.ID > maxID {
			maxID = o.ID
		}
	}
	if s.nextID <= maxID {
		s.nextID = maxID + 1
	}
	s.selected = nil
}

// Add assigns the next id, appends the overlay and selects it. An
// out-of-bounds crop is dropped, same as the patch path refuses one.
func (s *Store) Add(o *Overlay) int {
	dup := o.Clone()
	dup.ID = s.nextID
	s.nextID++
	if dup.Styles.Crop != nil && !dup.Styles.Crop.Valid() {
		dup.Styles.Crop = nil
	}
	s.overlays = append(s.overlays, dup)
	s.selected = []int{dup.ID}
	return dup.ID
}

// Delete removes the overlay and drops it from the selection.
func (s *Store) Delete(id int) {
	idx := s.indexOf(id)
	if idx < 0 {
		return
	}
	s.overlays = append(s.overlays[:idx], s.overlays[idx+1:]...)
	s.deselect(id)
}

// DeleteRow removes every overlay on the given row.
func (s *Store) DeleteRow(row int) {
	kept := s.overlays[:0]
	for _, o := range s.overlays {
		if o.Row == row {
			s.deselect(o.ID)
			continue
		}
		kept = append(kept, o)
	}
	s.overlays = kept
}

// Update applies fn to the matching overlay. No-op if the id is absent.
func (s *Store) Update(id int, fn func(*Overlay)) {
	if o := s.find(id); o != nil {
		fn(o)
	}
}

// Apply applies a partial patch to the matching overlay. A caption list in
// the patch replaces the overlay's captions with words retimed evenly across
// each caption span.
func (s *Store) Apply(id int, p Patch) {
	s.Update(id, func(o *Overlay) {
		if p.From != nil {
			o.From = *p.From
		}
		if p.DurationInFrames != nil && *p.DurationInFrames >= 1 {
			o.DurationInFrames = *p.DurationInFrames
		}
		if p.Row != nil {
			o.Row = *p.Row
		}
		if p.Left != nil {
			o.Left = *p.Left
		}
		if p.Top != nil {
			o.Top = *p.Top
		}
		if p.Width != nil {
			o.Width = *p.Width
		}
		if p.Height != nil {
			o.Height = *p.Height
		}
		if p.Rotation != nil {
			o.Rotation = *p.Rotation
		}
		if p.Content != nil {
			o.Content = *p.Content
		}
		if p.Src != nil {
			o.Src = *p.Src
		}
		if p.StartFromSeconds != nil {
			o.StartFromSeconds = *p.StartFromSeconds
		}
		if p.Captions != nil {
			o.Captions = make([]Caption, len(p.Captions))
			for i, c := range p.Captions {
				o.Captions[i] = retimeCaption(c)
			}
		}
		if p.Styles != nil {
			applyStylesPatch(&o.Styles, p.Styles)
		}
	})
}

func applyStylesPatch(st *Styles, p *StylesPatch) {
	if p.Opacity != nil {
		v := *p.Opacity
		st.Opacity = &v
	}
	if p.Filter != nil {
		st.Filter = *p.Filter
	}
	if p.Crop != nil && p.Crop.Valid() {
		v := *p.Crop
		st.Crop = &v
	}
	if p.AnimationIn != nil {
		st.AnimationIn = *p.AnimationIn
	}
	if p.AnimationOut != nil {
		st.AnimationOut = *p.AnimationOut
	}
	if p.Volume != nil {
		v := *p.Volume
		st.Volume = &v
	}
	if p.FadeInSeconds != nil {
		st.FadeInSeconds = *p.FadeInSeconds
	}
	if p.FadeOutSeconds != nil {
		st.FadeOutSeconds = *p.FadeOutSeconds
	}
	if p.Color != nil {
		st.Color = *p.Color
	}
	if p.FontFamily != nil {
		st.FontFamily = *p.FontFamily
	}
}

// Duplicate copies the overlay onto the same row immediately after the
// original. If that position collides with other overlays on the row, the
// copy is pushed past the latest-ending conflicting overlay until placement
// is conflict-free. The selection is not changed. Returns the new id, or 0
// if the id is absent.
func (s *Store) Duplicate(id int) int {
	src := s.find(id)
	if src == nil {
		return 0
	}

	dup := src.Clone()
	dup.ID = s.nextID
	s.nextID++
	dup.From = src.End()

	for {
		conflictEnd := -1
		for _, o := range s.overlays {
			if o.Row != dup.Row || o.ID == dup.ID {
				continue
			}
			if o.OverlapsRange(dup.From, dup.From+dup.DurationInFrames) && o.End() > conflictEnd {
				conflictEnd = o.End()
			}
		}
		if conflictEnd < 0 {
			break
		}
		dup.From = conflictEnd
	}

	s.overlays = append(s.overlays, dup)
	return dup.ID
}

// Get returns the overlay with the given id, or nil.
func (s *Store) Get(id int) *Overlay {
	return s.find(id)
}

// List returns the overlays in insertion order. The slice is a copy but the
// elements are the live overlays.
func (s *Store) List() []*Overlay {
	out := make([]*Overlay, len(s.overlays))
	copy(out, s.overlays)
	return out
}

// Snapshot returns deep copies of all overlays, safe to serialize or hand to
// the renderer while edits continue.
func (s *Store) Snapshot() []*Overlay {
	out := make([]*Overlay, len(s.overlays))
	for i, o := range s.overlays {
		out[i] = o.Clone()
	}
	return out
}

// Select replaces the selection with the given ids, keeping only ids that
// exist. Single selection is derived: the first selected id.
func (s *Store) Select(ids ...int) {
	s.selected = s.selected[:0]
	for _, id := range ids {
		if s.find(id) != nil {
			s.selected = append(s.selected, id)
		}
	}
}

// SelectedIDs returns the selection in order.
func (s *Store) SelectedIDs() []int {
	out := make([]int, len(s.selected))
	copy(out, s.selected)
	return out
}

// SelectedID returns the primary selection, or 0 when nothing is selected.
func (s *Store) SelectedID() int {
	if len(s.selected) == 0 {
		return 0
	}
	return s.selected[0]
}

// DurationInFrames is the derived composition length: the furthest overlay
// end, floored at one second of frames so an empty timeline still plays.
func (s *Store) DurationInFrames() int {
	max := 0
	for _, o := range s.overlays {
		if o.End() > max {
			max = o.End()
		}
	}
	if max < s.fps {
		return s.fps
	}
	return max
}

// FirstFreeRow returns the lowest row on which [from, from+duration) does
// not overlap any existing overlay.
func (s *Store) FirstFreeRow(from, duration int) int {
	for row := 0; ; row++ {
		free := true
		for _, o := range s.overlays {
			if o.Row == row && o.OverlapsRange(from, from+duration) {
				free = false
				break
			}
		}
		if free {
			return row
		}
	}
}

func (s *Store) find(id int) *Overlay {
	for _, o := range s.overlays {
		if o.ID == id {
			return o
		}
	}
	return nil
}

func (s *Store) indexOf(id int) int {
	for i, o := range s.overlays {
		if o.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) deselect(id int) {
	for i, sel := range s.selected {
		if sel == id {
			s.selected = append(s.selected[:i], s.selected[i+1:]...)
			return
		}
	}
}

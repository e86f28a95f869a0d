package expression

// Frame is one snapshot of a figure's drawing parameters.
type Frame struct {
	Size              float64 `json:"size"`
	MouthHeight       float64 `json:"mouth_height"`
	SmoothedAmplitude float64 `json:"smoothed_amplitude"`
	LeftPupil         Point   `json:"left_pupil"`
	RightPupil        Point   `json:"right_pupil"`
}

// Face is one rendered figure. It owns the smoothed-amplitude accumulator and
// the last pointer position so that ticks, pointer moves and resizes all
// derive from the same state.
//
// A Face is not safe for concurrent use; a single owner (normally an
// animator.Animator) drives it.
type Face struct {
	base   Config // as configured, at ReferenceSize
	cfg    Config // base scaled to the current size
	layout Layout

	smoothed    float64
	mouthHeight float64

	pointer    Point
	hasPointer bool
	leftPupil  Point
	rightPupil Point
}

// NewFace creates a face of the given size. cfg is expressed at
// ReferenceSize; pass DefaultConfig() for the stock tuning.
func NewFace(size float64, cfg Config) *Face {
	f := &Face{base: cfg}
	f.relayout(size)
	f.Reset()
	return f
}

func (f *Face) relayout(size float64) {
	f.layout = NewLayout(size)
	f.cfg = f.base.Scaled(f.layout.Size)
}

// Config returns the effective (size-scaled) configuration.
func (f *Face) Config() Config { return f.cfg }

// Layout returns the current geometry.
func (f *Face) Layout() Layout { return f.layout }

// SetConfig replaces the tuning while keeping the accumulator.
func (f *Face) SetConfig(cfg Config) {
	f.base = cfg
	f.cfg = cfg.Scaled(f.layout.Size)
	f.mouthHeight = MouthHeight(f.smoothed, f.cfg)
}

// Tick consumes one set of frequency magnitudes.
func (f *Face) Tick(samples []float64) Frame {
	f.mouthHeight, f.smoothed = UpdateExpression(samples, f.smoothed, f.cfg)
	return f.Frame()
}

// Look aims both pupils at pointer.
func (f *Face) Look(pointer Point) Frame {
	f.pointer = pointer
	f.hasPointer = true
	f.aim()
	return f.Frame()
}

// Resize relayouts the figure and re-aims the pupils at the last pointer.
func (f *Face) Resize(size float64) Frame {
	f.relayout(size)
	f.mouthHeight = MouthHeight(f.smoothed, f.cfg)
	f.aim()
	return f.Frame()
}

// Reset closes the mouth and centres the pupils.
func (f *Face) Reset() {
	f.smoothed = 0
	f.mouthHeight = MouthHeight(0, f.cfg)
	f.hasPointer = false
	f.aim()
}

func (f *Face) aim() {
	if !f.hasPointer {
		f.leftPupil = f.layout.LeftEye
		f.rightPupil = f.layout.RightEye
		return
	}
	travel := f.layout.PupilTravel()
	f.leftPupil = ComputePupilOffset(f.layout.LeftEye, f.pointer, travel)
	f.rightPupil = ComputePupilOffset(f.layout.RightEye, f.pointer, travel)
}

// Frame returns the current snapshot without advancing anything.
func (f *Face) Frame() Frame {
	return Frame{
		Size:              f.layout.Size,
		MouthHeight:       f.mouthHeight,
		SmoothedAmplitude: f.smoothed,
		LeftPupil:         f.leftPupil,
		RightPupil:        f.rightPupil,
	}
}

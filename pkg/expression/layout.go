package expression

// Layout is the geometry of a figure drawn at a given pixel size.
// All lengths are in the same pixel units as Size.
type Layout struct {
	Size  float64 `json:"size"`
	Scale float64 `json:"scale"`

	HeadCenter Point   `json:"head_center"`
	HeadRadius float64 `json:"head_radius"`

	LeftEye     Point   `json:"left_eye"`
	RightEye    Point   `json:"right_eye"`
	EyeRadius   float64 `json:"eye_radius"`
	PupilRadius float64 `json:"pupil_radius"`

	MouthCenter Point   `json:"mouth_center"`
	MouthWidth  float64 `json:"mouth_width"` // horizontal semi-axis
}

// NewLayout computes the figure geometry for size. Non-positive sizes fall
// back to DefaultSize.
func NewLayout(size float64) Layout {
	if size <= 0 {
		size = DefaultSize
	}
	scale := size / ReferenceSize
	center := Pt(size/2, size/2)

	eyeDX, eyeDY := 30*scale, 20*scale

	return Layout{
		Size:        size,
		Scale:       scale,
		HeadCenter:  center,
		HeadRadius:  80 * scale,
		LeftEye:     Pt(center.X-eyeDX, center.Y-eyeDY),
		RightEye:    Pt(center.X+eyeDX, center.Y-eyeDY),
		EyeRadius:   20 * scale,
		PupilRadius: 10 * scale,
		MouthCenter: Pt(center.X, center.Y+40*scale),
		MouthWidth:  30 * scale,
	}
}

// PupilTravel is how far a pupil may move from its eye centre while staying
// inside the eye.
func (l Layout) PupilTravel() float64 {
	if t := l.EyeRadius - l.PupilRadius; t > 0 {
		return t
	}
	return 0
}

package expression

import (
	"math"
	"testing"
)

func TestNewLayout(t *testing.T) {
	l := NewLayout(200)

	if l.Scale != 1 {
		t.Errorf("Scale = %v, want 1", l.Scale)
	}
	if l.HeadCenter != Pt(100, 100) || l.HeadRadius != 80 {
		t.Errorf("head = %+v r=%v", l.HeadCenter, l.HeadRadius)
	}
	if l.LeftEye != Pt(70, 80) || l.RightEye != Pt(130, 80) {
		t.Errorf("eyes = %+v %+v", l.LeftEye, l.RightEye)
	}
	if l.MouthCenter != Pt(100, 140) || l.MouthWidth != 30 {
		t.Errorf("mouth = %+v w=%v", l.MouthCenter, l.MouthWidth)
	}
	if l.PupilTravel() != 10 {
		t.Errorf("PupilTravel = %v, want 10", l.PupilTravel())
	}

	if d := NewLayout(0); d.Size != DefaultSize {
		t.Errorf("NewLayout(0).Size = %v, want %v", d.Size, DefaultSize)
	}
}

func TestFace_TickCarriesAccumulator(t *testing.T) {
	f := NewFace(200, DefaultConfig())

	fr := f.Tick([]float64{0.5})
	if math.Abs(fr.SmoothedAmplitude-0.35) > eps {
		t.Fatalf("first tick smoothed = %v, want 0.35", fr.SmoothedAmplitude)
	}

	fr = f.Tick([]float64{0.5})
	want := 0.35*0.3 + 0.5*0.7
	if math.Abs(fr.SmoothedAmplitude-want) > eps {
		t.Errorf("second tick smoothed = %v, want %v", fr.SmoothedAmplitude, want)
	}

	wantHeight := 0.1 + (25-0.1)*want
	if math.Abs(fr.MouthHeight-wantHeight) > eps {
		t.Errorf("MouthHeight = %v, want %v", fr.MouthHeight, wantHeight)
	}
}

func TestFace_LookAndResize(t *testing.T) {
	f := NewFace(200, DefaultConfig())

	fr := f.Frame()
	if fr.LeftPupil != f.Layout().LeftEye || fr.RightPupil != f.Layout().RightEye {
		t.Fatalf("pupils should start centred, got %+v %+v", fr.LeftPupil, fr.RightPupil)
	}

	fr = f.Look(Pt(1000, 80))
	if math.Abs(fr.LeftPupil.X-80) > eps || math.Abs(fr.LeftPupil.Y-80) > eps {
		t.Errorf("LeftPupil = %+v, want (80,80)", fr.LeftPupil)
	}
	if math.Abs(fr.RightPupil.X-140) > eps {
		t.Errorf("RightPupil = %+v, want x=140", fr.RightPupil)
	}

	fr = f.Resize(100)
	l := f.Layout()
	if fr.Size != 100 {
		t.Errorf("Size = %v, want 100", fr.Size)
	}
	if d := fr.LeftPupil.Dist(l.LeftEye); d > l.PupilTravel()+eps {
		t.Errorf("left pupil %v from eye after resize, travel %v", d, l.PupilTravel())
	}
	if math.Abs(f.Config().MaxHeight-12.5) > eps {
		t.Errorf("MaxHeight after resize = %v, want 12.5", f.Config().MaxHeight)
	}

	// Resizing back must not compound the scaling.
	f.Resize(200)
	if math.Abs(f.Config().MaxHeight-25) > eps {
		t.Errorf("MaxHeight after resize back = %v, want 25", f.Config().MaxHeight)
	}
}

func TestFace_Reset(t *testing.T) {
	f := NewFace(100, DefaultConfig())
	f.Tick([]float64{1})
	f.Look(Pt(0, 0))
	f.Reset()

	fr := f.Frame()
	if fr.SmoothedAmplitude != 0 {
		t.Errorf("SmoothedAmplitude = %v, want 0", fr.SmoothedAmplitude)
	}
	if fr.MouthHeight != f.Config().MinHeight {
		t.Errorf("MouthHeight = %v, want %v", fr.MouthHeight, f.Config().MinHeight)
	}
	if fr.LeftPupil != f.Layout().LeftEye {
		t.Errorf("LeftPupil = %+v, want centred", fr.LeftPupil)
	}
}

func TestFace_SetConfigKeepsAccumulator(t *testing.T) {
	f := NewFace(200, DefaultConfig())
	f.Tick([]float64{1})
	before := f.Frame().SmoothedAmplitude

	cfg := DefaultConfig()
	cfg.MaxHeight = 50
	f.SetConfig(cfg)

	fr := f.Frame()
	if fr.SmoothedAmplitude != before {
		t.Errorf("SmoothedAmplitude changed %v -> %v", before, fr.SmoothedAmplitude)
	}
	want := 0.1 + (50-0.1)*before
	if math.Abs(fr.MouthHeight-want) > eps {
		t.Errorf("MouthHeight = %v, want %v", fr.MouthHeight, want)
	}
}

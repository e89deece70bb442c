package slideshow

// Timing constants. Total runtime targets TargetSeconds, clamped per slide.
const (
	FPS                = 30
	TargetSeconds      = 40
	MinSecondsPerSlide = 3
	MaxSecondsPerSlide = 8
)

// Plan is the deterministic timing of one slideshow render.
type Plan struct {
	Images          []string
	SecondsPerSlide int
	TotalSeconds    int
	TotalFrames     int
}

// SecondsPerSlide returns clamp(floor(TargetSeconds/max(n,1)), Min, Max).
func SecondsPerSlide(n int) int {
	if n < 1 {
		n = 1
	}
	s := TargetSeconds / n
	if s < MinSecondsPerSlide {
		return MinSecondsPerSlide
	}
	if s > MaxSecondsPerSlide {
		return MaxSecondsPerSlide
	}
	return s
}

// NewPlan computes slide timing for images. The image order is preserved.
func NewPlan(images []string) Plan {
	per := SecondsPerSlide(len(images))
	total := len(images) * per
	return Plan{
		Images:          images,
		SecondsPerSlide: per,
		TotalSeconds:    total,
		TotalFrames:     total * FPS,
	}
}

// FramesPerSlide is the number of frames each image is shown for.
func (p Plan) FramesPerSlide() int {
	return p.SecondsPerSlide * FPS
}

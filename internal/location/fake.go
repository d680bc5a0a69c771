package location

import "context"

// FakeSource is a test double returning scripted fixes or failures.
// Each call to Current consumes the next step; the last step repeats
// once the script is exhausted.
type FakeSource struct {
	Steps []FakeStep

	// Calls counts how many times Current ran.
	Calls int

	index int
}

// FakeStep is one scripted response.
type FakeStep struct {
	Fix Fix
	Err error
}

// NewFakeSource creates a FakeSource with the given script.
func NewFakeSource(steps ...FakeStep) *FakeSource {
	return &FakeSource{Steps: steps}
}

func (f *FakeSource) Current(_ context.Context) (Fix, error) {
	f.Calls++
	if len(f.Steps) == 0 {
		return Fix{}, &Error{Code: CodePositionUnavailable, Message: "no steps configured"}
	}
	step := f.Steps[f.index]
	if f.index < len(f.Steps)-1 {
		f.index++
	}
	if step.Err != nil {
		return Fix{}, step.Err
	}
	return step.Fix, nil
}

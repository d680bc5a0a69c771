package identity

import "context"

// FakeVerifier is a test double returning scripted results.
// The last result repeats once the script is exhausted.
type FakeVerifier struct {
	Results []FakeResult

	// Calls counts Verify invocations; Images records what was sent.
	Calls  int
	Images [][]byte

	index int
}

// FakeResult is one scripted verification outcome.
type FakeResult struct {
	Match Match
	Err   error
}

// Recognize builds a verifier that always recognizes the given label.
func Recognize(label string) *FakeVerifier {
	return &FakeVerifier{Results: []FakeResult{{Match: Match{Label: label}}}}
}

func (f *FakeVerifier) Verify(_ context.Context, image []byte) (Match, error) {
	f.Calls++
	f.Images = append(f.Images, image)
	if len(f.Results) == 0 {
		return Match{}, &Error{Code: CodeModelNotReady, Message: "no results configured"}
	}
	r := f.Results[f.index]
	if f.index < len(f.Results)-1 {
		f.index++
	}
	if r.Err != nil {
		return Match{}, r.Err
	}
	return r.Match, nil
}

package recommend

import "fmt"

// UnknownTitleError reports a profile title with no confident match.
// The engine skips the entry and only logs this error.
type UnknownTitleError struct {
	Title  string
	Cutoff float64
}

func (e *UnknownTitleError) Error() string {
	return fmt.Sprintf("no title matches %q above %.2f", e.Title, e.Cutoff)
}

// EmptyProfileError reports that no profile entry resolved. It surfaces
// to callers as an empty result, never as a failure.
type EmptyProfileError struct {
	Entries int
}

func (e *EmptyProfileError) Error() string {
	if e.Entries == 0 {
		return "profile is empty"
	}
	return fmt.Sprintf("none of %d profile entries matched a known title", e.Entries)
}

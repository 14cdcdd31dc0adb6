package post

import "errors"

// Pipeline error taxonomy. Only ErrSessionAcquisition escapes a batch; the
// others end up as the Error text of the affected record.
var (
	ErrNavigationTimeout  = errors.New("navigation timeout")
	ErrNavigation         = errors.New("navigation failed")
	ErrExtractionEmpty    = errors.New("extraction empty")
	ErrSessionAcquisition = errors.New("session acquisition failed")
)

// ErrorText converts a per-URL failure into the string stored on a record.
func ErrorText(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNavigationTimeout):
		return ErrTextNavigationTimeout
	case errors.Is(err, ErrExtractionEmpty):
		return ErrTextExtraction
	default:
		return err.Error()
	}
}

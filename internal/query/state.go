package query

import "fmt"

// State is the lifecycle of the most recent submission.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateError
	StateSuccess
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateError:
		return "error"
	case StateSuccess:
		return "success"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// User-facing strings.
const (
	// FailureMessage is shown for every failed submission, whatever the cause.
	FailureMessage = "Ошибка при генерации ответа"

	// OutputPlaceholder fills the output area when there is nothing to show.
	OutputPlaceholder = "Введите запрос и нажмите «Сгенерировать»"

	// InputPlaceholder is the hint shown in the empty query field.
	InputPlaceholder = "Введите запрос"
)

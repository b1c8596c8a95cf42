package validation

import "fmt"

// Step wizard 的四個步驟
type Step int

const (
	StepDate Step = iota + 1
	StepParticipants
	StepContact
	StepPayment
)

func (s Step) IsValid() bool {
	return s >= StepDate && s <= StepPayment
}

func (s Step) String() string {
	switch s {
	case StepDate:
		return "date"
	case StepParticipants:
		return "participants"
	case StepContact:
		return "contact"
	case StepPayment:
		return "payment"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Result 驗證結果；OK 為 false 時 FieldErrors 至少有一筆
type Result struct {
	OK          bool              `json:"ok"`
	Step        Step              `json:"step"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
}

func ok(step Step) Result {
	return Result{OK: true, Step: step}
}

func fail(step Step, fieldErrors map[string]string) Result {
	if len(fieldErrors) == 0 {
		return ok(step)
	}
	return Result{Step: step, FieldErrors: fieldErrors}
}

package wizard

import "tour-booking/internal/validation"

// State wizard 狀態
type State string

const (
	StateStep1      State = "step1"
	StateStep2      State = "step2"
	StateStep3      State = "step3"
	StateStep4      State = "step4"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

var transitions = map[State][]State{
	StateStep1:      {StateStep2},
	StateStep2:      {StateStep1, StateStep3},
	StateStep3:      {StateStep2, StateStep4},
	StateStep4:      {StateStep3, StateSubmitting},
	StateSubmitting: {StateSucceeded, StateFailed},
	StateFailed:     {StateStep4, StateSubmitting}, // 修正後重送，或對既有預約重新付款
	StateSucceeded:  {},
}

// IsValid 驗證狀態是否有效
func (s State) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo 檢查是否可以轉換到目標狀態
func (s State) CanTransitionTo(target State) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

func (s State) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Step 輸入步驟對應的 validation.Step；非輸入狀態回傳 false
func (s State) Step() (validation.Step, bool) {
	switch s {
	case StateStep1:
		return validation.StepDate, true
	case StateStep2:
		return validation.StepParticipants, true
	case StateStep3:
		return validation.StepContact, true
	case StateStep4:
		return validation.StepPayment, true
	}
	return 0, false
}

func stateForStep(step validation.Step) State {
	switch step {
	case validation.StepDate:
		return StateStep1
	case validation.StepParticipants:
		return StateStep2
	case validation.StepContact:
		return StateStep3
	default:
		return StateStep4
	}
}

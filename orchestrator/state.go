package orchestrator

// State is a step of a transcription run.
type State string

const (
	StateStart          State = "Start"
	StateIDResolved     State = "IdResolved"
	StateCaptionsFound  State = "CaptionsFound"
	StateCaptionsAbsent State = "CaptionsAbsent"
	StateTranslating    State = "Translating"
	StateAudioAcquiring State = "AudioAcquiring"
	StateTranscribing   State = "Transcribing"
	StateDone           State = "Done"
	StateAborted        State = "Aborted"
)

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateAborted
}

// transitions lists the allowed successors of each state. Aborted is
// reachable from every non-terminal state and is not listed.
var transitions = map[State][]State{
	StateStart:          {StateIDResolved},
	StateIDResolved:     {StateCaptionsFound, StateCaptionsAbsent},
	StateCaptionsFound:  {StateTranslating, StateAudioAcquiring},
	StateCaptionsAbsent: {StateAudioAcquiring},
	StateTranslating:    {StateAudioAcquiring},
	StateAudioAcquiring: {StateTranscribing},
	StateTranscribing:   {StateDone},
}

// CanTransition reports whether from -> to is a legal step.
func CanTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StateAborted {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ValidTrace reports whether trace is a legal path from Start.
func ValidTrace(trace []State) bool {
	if len(trace) == 0 || trace[0] != StateStart {
		return false
	}
	for i := 1; i < len(trace); i++ {
		if !CanTransition(trace[i-1], trace[i]) {
			return false
		}
	}
	return true
}

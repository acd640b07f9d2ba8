package domain

// Clone helpers so the store can hand out snapshots without exposing its
// internal maps to concurrent mutation.

func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	out := *e
	out.Users = make(map[string]*UserEventState, len(e.Users))
	for id, u := range e.Users {
		out.Users[id] = u.Clone()
	}
	return &out
}

func (u *UserEventState) Clone() *UserEventState {
	if u == nil {
		return nil
	}
	out := *u
	out.Challenges = make(map[string]*UserChallengeState, len(u.Challenges))
	for name, cs := range u.Challenges {
		out.Challenges[name] = cs.Clone()
	}
	return &out
}

func (cs *UserChallengeState) Clone() *UserChallengeState {
	if cs == nil {
		return nil
	}
	out := *cs
	out.Evidence = append([]EvidenceItem(nil), cs.Evidence...)
	if cs.Answers != nil {
		out.Answers = make(map[string]AnswerRecord, len(cs.Answers))
		for k, v := range cs.Answers {
			out.Answers[k] = v
		}
	}
	if cs.StartTime != nil {
		t := *cs.StartTime
		out.StartTime = &t
	}
	if cs.FinishTime != nil {
		t := *cs.FinishTime
		out.FinishTime = &t
	}
	if cs.LastStageAdvance != nil {
		t := *cs.LastStageAdvance
		out.LastStageAdvance = &t
	}
	return &out
}

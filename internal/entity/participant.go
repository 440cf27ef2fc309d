package entity

const (
	HumanParticipant = "human"
	AgentParticipant = "agent"
)

const (
	EasyDifficulty   = "easy"
	MediumDifficulty = "medium"
	HardDifficulty   = "hard"
)

const (
	AggressivePersonality = "aggressive"
	DefensivePersonality  = "defensive"
	BalancedPersonality   = "balanced"
)

// Participant is one side of a match: either a human identified by a
// user id, or an autonomous agent with a play profile. The Kind tag
// discriminates the variant.
type Participant struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Name        string `json:"name,omitempty"`
	Difficulty  string `json:"difficulty,omitempty"`
	Personality string `json:"personality,omitempty"`
}

func NewHumanParticipant(userID, name string) Participant {
	return Participant{
		ID:   userID,
		Kind: HumanParticipant,
		Name: name,
	}
}

func NewAgentParticipant(agentID, difficulty, personality string) Participant {
	if difficulty == "" {
		difficulty = MediumDifficulty
	}
	if personality == "" {
		personality = BalancedPersonality
	}

	return Participant{
		ID:          agentID,
		Kind:        AgentParticipant,
		Difficulty:  difficulty,
		Personality: personality,
	}
}

func (that *Participant) IsAgent() bool {
	return that.Kind == AgentParticipant
}

func (that *Participant) IsHuman() bool {
	return that.Kind == HumanParticipant
}

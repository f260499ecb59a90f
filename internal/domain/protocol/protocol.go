// Package protocol holds the cabin response protocols shown to a person
// once their emotional state is known.
package protocol

import "github.com/okian/cabina/internal/domain/emotion"

// Protocol describes the ambient response a cabin runs for one state.
type Protocol struct {
	State     emotion.State `json:"state"`
	Lighting  string        `json:"lighting"`
	Audio     string        `json:"audio"`
	Video     string        `json:"video"`
	Breathing string        `json:"breathing"`
	Message   string        `json:"message"`
}

var table = map[emotion.State]Protocol{
	emotion.StateAnxiety: {
		State:     emotion.StateAnxiety,
		Lighting:  "calming blue",
		Audio:     "binaural 432Hz (calm)",
		Video:     "waves on a quiet beach",
		Breathing: "box breathing 4-4-4-4",
		Message:   "Your breathing can help you regain control",
	},
	emotion.StateDepression: {
		State:     emotion.StateDepression,
		Lighting:  "warm orange",
		Audio:     "binaural 528Hz (healing)",
		Video:     "sunrise over mountains",
		Breathing: "4-7-8 breathing (deep calm)",
		Message:   "You are not alone. We will work through this together",
	},
	emotion.StateSadness: {
		State:     emotion.StateSadness,
		Lighting:  "hopeful green",
		Audio:     "binaural 396Hz (release)",
		Video:     "forest with filtered light",
		Breathing: "mindful breathing 5-5",
		Message:   "Your emotions are valid. I am here with you",
	},
	emotion.StateCrisis: {
		State:     emotion.StateCrisis,
		Lighting:  "soft red (alert)",
		Audio:     "guided human containment voice",
		Video:     "eye contact with a therapist",
		Breathing: "emergency breathing 3-6-3",
		Message:   "Connecting you with the crisis line now",
	},
	emotion.StateStable: {
		State:     emotion.StateStable,
		Lighting:  "light green",
		Audio:     "soft ambient music",
		Video:     "varied landscapes",
		Breathing: "natural breathing",
		Message:   "Glad you are here. How can I support you today?",
	},
}

// For returns the protocol for state. Unknown states get the stable protocol.
func For(state emotion.State) Protocol {
	if p, ok := table[state]; ok {
		return p
	}
	return table[emotion.StateStable]
}

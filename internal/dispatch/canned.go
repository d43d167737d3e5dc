package dispatch

import (
	"fmt"
	"strings"
)

// CannedEntry maps a trigger phrase to candidate replies. The trigger
// matches when it is a substring of the utterance.
type CannedEntry struct {
	Trigger string   `yaml:"trigger"`
	Replies []string `yaml:"replies"`
}

// CannedTable is searched in order; the first matching trigger wins.
type CannedTable []CannedEntry

// Lookup returns the replies of the first entry whose trigger occurs in u.
func (t CannedTable) Lookup(u string) ([]string, bool) {
	for _, e := range t {
		if e.Trigger == "" || len(e.Replies) == 0 {
			continue
		}
		if strings.Contains(u, e.Trigger) {
			return e.Replies, true
		}
	}
	return nil, false
}

var jokes = []string{
	"Why don't scientists trust atoms? Because they make up everything!",
	"Why did the scarecrow win an award? He was outstanding in his field!",
	"Why don't eggs tell jokes? They'd crack each other up!",
	"What do you call a fake noodle? An impasta!",
	"Why did the math book look so sad? Because it had too many problems!",
}

var funFacts = []string{
	"Here's a fun fact: Honey never spoils. Archaeologists have found pots of honey in ancient Egyptian tombs that are over 3,000 years old and still perfectly edible.",
	"Here's a fun fact: A group of flamingos is called a flamboyance.",
	"Here's a fun fact: Octopuses have three hearts and blue blood.",
	"Here's a fun fact: Bananas are berries, but strawberries aren't.",
	"Here's a fun fact: A day on Venus is longer than its year.",
}

func diceReplies() []string {
	out := make([]string, 6)
	for i := range out {
		out[i] = fmt.Sprintf("You rolled a %d!", i+1)
	}
	return out
}

// DefaultCanned builds the built-in table for an assistant called name.
func DefaultCanned(name string) CannedTable {
	coin := []string{"The coin landed on Heads!", "The coin landed on Tails!"}
	return CannedTable{
		{Trigger: "hello", Replies: []string{"Hello! How can I help you today?", "Hi there!", "Hello! Nice to meet you!"}},
		{Trigger: "hi there", Replies: []string{"Hi there! What can I do for you?"}},
		{Trigger: "how are you", Replies: []string{"I'm doing great, thank you for asking!", "I'm fine, how about you?"}},
		{Trigger: "your name", Replies: []string{
			fmt.Sprintf("I'm %s, your personal voice assistant!", name),
			fmt.Sprintf("You can call me %s.", name),
			fmt.Sprintf("I'm %s.", name),
		}},
		{Trigger: "thank you", Replies: []string{"You're welcome!", "Happy to help!", "No problem!"}},
		{Trigger: "thanks", Replies: []string{"You're welcome!", "Any time!"}},
		{Trigger: "joke", Replies: jokes},
		{Trigger: "fun fact", Replies: funFacts},
		{Trigger: "fact", Replies: funFacts},
		{Trigger: "flip a coin", Replies: coin},
		{Trigger: "coin flip", Replies: coin},
		{Trigger: "flip coin", Replies: coin},
		{Trigger: "roll a dice", Replies: diceReplies()},
		{Trigger: "dice", Replies: diceReplies()},
	}
}

// DefaultFallbacks are used when nothing in the canned table matches.
var DefaultFallbacks = []string{
	"That's interesting! Tell me more.",
	"I'm still learning. Can you ask me something else?",
	"I'm not sure about that, but I'm here to help!",
	"Could you rephrase that question?",
}

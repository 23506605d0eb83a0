package bot

import (
	"fmt"
	"time"
)

// Difficulty selects a bot's profile.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Profile tunes how quickly and how well a bot plays.
type Profile struct {
	ThinkTime   time.Duration
	Jitter      time.Duration
	SmartChance float64 // probability of using the heuristic instead of a random legal card
	ForgetUno   float64 // probability of not declaring at two cards
	ChallengeWD float64 // probability of challenging a wild draw four aimed at the bot
}

var profiles = map[Difficulty]Profile{
	DifficultyEasy:   {ThinkTime: 2000 * time.Millisecond, Jitter: time.Second, SmartChance: 0.3, ForgetUno: 0.3, ChallengeWD: 0.1},
	DifficultyMedium: {ThinkTime: 1500 * time.Millisecond, Jitter: time.Second, SmartChance: 0.65, ChallengeWD: 0.25},
	DifficultyHard:   {ThinkTime: 1000 * time.Millisecond, Jitter: time.Second, SmartChance: 0.9, ChallengeWD: 0.4},
}

// ParseDifficulty maps client input to a Difficulty. Empty means medium.
func ParseDifficulty(s string) (Difficulty, error) {
	if s == "" {
		return DifficultyMedium, nil
	}
	d := Difficulty(s)
	if _, ok := profiles[d]; !ok {
		return "", fmt.Errorf("unknown bot difficulty: %q", s)
	}
	return d, nil
}

// ProfileFor returns the profile of d, falling back to medium.
func ProfileFor(d Difficulty) Profile {
	if p, ok := profiles[d]; ok {
		return p
	}
	return profiles[DifficultyMedium]
}

var botNames = []string{
	"RoboUno", "CardMaster", "BotBoss", "MegaBot",
	"UnoBot", "AIPlayer", "DeepPlay", "SmartDeck",
}

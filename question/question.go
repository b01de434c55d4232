package question

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
)

const ProblemBaseURL = "https://leetcode.com/problems/"

type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

var difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// ParseDifficulty matches value case-insensitively.
func ParseDifficulty(value string) (Difficulty, bool) {
	candidate := Difficulty(strings.ToUpper(strings.TrimSpace(value)))
	for _, known := range difficulties {
		if candidate == known {
			return known, true
		}
	}
	return "", false
}

func RandomDifficulty() Difficulty {
	return difficulties[rand.IntN(len(difficulties))]
}

// Question is a single LeetCode problem reference.
type Question struct {
	TitleSlug string `json:"titleSlug"`
}

func (q Question) URL() string {
	return ProblemBaseURL + q.TitleSlug
}

const QueryRandomQuestion = "question.random"

// RandomQuestion asks for one random problem of the given difficulty.
type RandomQuestion struct {
	Difficulty Difficulty
}

func (RandomQuestion) Type() string { return QueryRandomQuestion }

func (q RandomQuestion) Validate() error {
	if q.Difficulty == "" {
		return errors.New("question: difficulty is required")
	}
	if _, ok := ParseDifficulty(string(q.Difficulty)); !ok {
		return fmt.Errorf("question: unsupported difficulty %q", q.Difficulty)
	}
	return nil
}

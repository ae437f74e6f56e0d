package utils

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const DEFAULT_HASH_ROUNDS = 10

type BcryptHasher struct {
	Cost int
}

func NewBcryptHasher(cost int) BcryptHasher {
	if cost == 0 {
		cost = DEFAULT_HASH_ROUNDS
	}
	return BcryptHasher{Cost: cost}
}

func (h BcryptHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	return string(bytes), err
}

func (h BcryptHasher) Compare(password, hashedPassword string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func GenerateBanMessage(banExpAt, now time.Time) string {
	diff := banExpAt.Sub(now)
	timeLeft := int(diff.Round(time.Minute).Minutes())
	if timeLeft <= 1 {
		return "Please try again in 1 minute."
	}
	return fmt.Sprintf("Please try again in %d minutes.", timeLeft)
}

//go:build !race

package accounts

import "golang.org/x/crypto/bcrypt"

func passwordHashCost() int {
	// DefaultCost (10) keeps brute force expensive while verification stays
	// interactive.
	return bcrypt.DefaultCost
}

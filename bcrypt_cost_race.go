//go:build race

package adminauth

import "golang.org/x/crypto/bcrypt"

func operatorKeyHashCost() int {
	// Reduce cost for race-enabled builds so test suites can run with strict timeouts.
	return bcrypt.DefaultCost
}

//go:build !race

package adminauth

func operatorKeyHashCost() int {
	return 14
}

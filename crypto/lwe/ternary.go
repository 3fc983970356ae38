package lwe

import (
	mrand "math/rand"
)

// Std-dev of the error distribution sampled by GaussSample32/64
const ErrorStdDev = float64(3.2)

// Sample a uniform value in {-1, 0, 1}
func SampleTernary(src mrand.Source64) int64 {
	return int64(src.Uint64()%3) - 1
}

// Sample a length-`n` ternary vector
func SampleTernaryVec(src mrand.Source64, n uint64) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = SampleTernary(src)
	}
	return out
}

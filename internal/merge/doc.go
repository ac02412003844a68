// Package merge reconciles an operator-edited file with the copy shipped in a
// new server release.
//
// Every policy is a pure function over the two inputs: it reads both files and
// returns the merged bytes. Writing the result is left to the caller.
package merge

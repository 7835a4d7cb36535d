// Package policy holds the rules that govern robot status transitions and
// battery level updates. Everything here is pure and safe for concurrent use.
package policy

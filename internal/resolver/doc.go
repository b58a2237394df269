// Package resolver turns a raw settings definition into the effective value
// for the active environment. Records carrying a "common" section and/or a
// section named after the environment are deep-merged, common first; nested
// records merge key by key while sequences and scalars replace wholesale.
// Sequences, scalars and records without either section pass through
// untouched.
package resolver

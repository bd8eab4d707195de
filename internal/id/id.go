// Package id generates the opaque identifiers used for every entity.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Entity prefixes. An ID reads as "<prefix>-<nanoid>", e.g. "grp-V1StGXR8_Z5jdHi6B-myT".
const (
	PrefixBook       = "book"
	PrefixChapter    = "ch"
	PrefixImage      = "img"
	PrefixUser       = "user"
	PrefixGroup      = "grp"
	PrefixDiscussion = "disc"
	PrefixComment    = "cmt"
	PrefixReply      = "rpl"
	PrefixAnnotation = "ann"
	PrefixBookmark   = "bkm"
	PrefixPurchase   = "pur"
	PrefixSSEClient  = "sse"
)

// Generate creates a prefixed NanoID.
// Returns an error if the system has insufficient entropy.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics on failure.
// Only use it where failure should crash the program, such as seeding.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

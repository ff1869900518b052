package api

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Hash returns a deterministic BLAKE3 hash of the post content.
func (p Post) Hash() string {
	h := blake3.New()
	p.write(h)
	return hex.EncodeToString(h.Sum(nil))
}

func (p Post) write(h *blake3.Hasher) {
	for _, f := range []string{p.Title, p.Link, p.Image, p.Published, p.Account, p.ContentSnippet} {
		h.Write([]byte(f))
		h.Write([]byte{0})
	}
}

// Posts is an ordered list of posts.
type Posts []Post

// Hash covers every post in order, so reordering changes the result.
func (ps Posts) Hash() string {
	h := blake3.New()
	for _, p := range ps {
		p.write(h)
		h.Write([]byte{1})
	}
	return hex.EncodeToString(h.Sum(nil))
}

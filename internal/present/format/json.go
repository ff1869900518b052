package format

import (
	"encoding/json"
	"io"

	"github.com/stillwater/pulse/pkg/api"
)

func WriteJSONPosts(w io.Writer, posts []api.Post, indent bool) error {
	if posts == nil {
		posts = []api.Post{}
	}
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(posts)
}

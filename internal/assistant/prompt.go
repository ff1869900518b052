package assistant

import (
	"fmt"
	"strings"

	"github.com/stillwater/pulse/pkg/api"
)

// SystemPrompt is the assistant's built-in instruction block.
const SystemPrompt = `You are a helpful AI assistant for Stillwater Pulse, a platform that aggregates Instagram posts from local Stillwater, Oklahoma organizations and businesses.

Your role is to help users discover information about:
- Local events happening in Stillwater
- Food and restaurant recommendations
- Oklahoma State University (OSU) related news and games
- Downtown Stillwater businesses and announcements
- Community events and local news

Be friendly, concise, and focused on helping users find relevant information from the recent Instagram posts.`

// BuildPostsContext lists up to max posts for the prompt. It returns "" when
// there are no posts.
func BuildPostsContext(posts []api.Post, max int) string {
	if len(posts) == 0 {
		return ""
	}
	if max > 0 && len(posts) > max {
		posts = posts[:max]
	}
	var b strings.Builder
	b.WriteString("\n\nRecent Stillwater Instagram posts:\n")
	for i, p := range posts {
		title := p.Title
		if title == "" {
			title = "Untitled"
		}
		account := p.Account
		if account == "" {
			account = "Unknown"
		}
		snippet := p.ContentSnippet
		if snippet == "" {
			snippet = title
		}
		fmt.Fprintf(&b, "%d. From @%s: %s\n   %s\n", i+1, account, title, snippet)
	}
	return b.String()
}

// BuildPrompt joins the instructions, the posts context and the question.
func BuildPrompt(system, message, postsContext string) string {
	return system + "\n\n" + postsContext + "\n\nUser question: " + message + `

Please provide a helpful response based on the available information. If the information isn't in the recent posts, let the user know and offer general suggestions about how they might find what they're looking for.`
}

func buildSummaryPrompt(text string, maxLength int) string {
	return fmt.Sprintf(`Summarize the following text in approximately %d characters or less. 
Keep the summary concise, engaging, and preserve the key message and tone of the original text.
Focus on the main points and remove any unnecessary details.

Text to summarize:
%s

Summary:`, maxLength, text)
}

// truncateSummary cuts s to maxLength characters, backs up to the last space
// and appends "...". Shorter summaries are returned unchanged.
func truncateSummary(s string, maxLength int) string {
	r := []rune(s)
	if maxLength <= 0 || len(r) <= maxLength {
		return s
	}
	cut := string(r[:maxLength])
	if i := strings.LastIndex(cut, " "); i >= 0 {
		cut = cut[:i]
	}
	return cut + "..."
}

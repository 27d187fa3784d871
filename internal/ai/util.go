package ai

import (
	"regexp"
	"strings"
)

func isGarbageResponse(s string) bool {
	l := strings.ToLower(s)

	if strings.Contains(l, "<html") {
		return true
	}
	if strings.Contains(l, "not allowed") {
		return true
	}
	if len(strings.TrimSpace(s)) < 5 {
		return true
	}
	return false
}

func truncate(b []byte) string {
	if len(b) > 200 {
		return string(b[:200]) + "..."
	}
	return string(b)
}

func cleanReply(reply string) string {
	reply = strings.TrimSpace(reply)
	re := regexp.MustCompile(`(?s)<think>.*?</think>`)
	reply = re.ReplaceAllString(reply, "")
	reply = strings.TrimSpace(reply)

	if len(reply) > 1800 {
		reply = reply[:1800] + "\n\n[truncated]"
	}

	return reply
}

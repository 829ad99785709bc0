package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModerationAlertEmail(t *testing.T) {
	subject, body := ModerationAlertEmail("partilha", "Joana", "um desabafo <script>", "https://x/approve", "https://x/reject")

	assert.Equal(t, "[Moderação] Novo partilha de Joana", subject)
	assert.Contains(t, body, "https://x/approve")
	assert.Contains(t, body, "https://x/reject")
	assert.Contains(t, body, "&lt;script&gt;", "user text must be escaped")
	assert.NotContains(t, body, "<script>")
}

func TestModerationAlertEmailDefaultsAuthor(t *testing.T) {
	subject, _ := ModerationAlertEmail("comentário", "", "corpo", "a", "r")
	assert.Contains(t, subject, "Anônima")
}

func TestModerationAlertEmailTruncatesPreview(t *testing.T) {
	long := strings.Repeat("a", 300)
	_, body := ModerationAlertEmail("partilha", "Joana", long, "a", "r")
	assert.NotContains(t, body, long)
	assert.Contains(t, body, strings.Repeat("a", 200))
}

func TestReplyNotificationEmail(t *testing.T) {
	subject, body := ReplyNotificationEmail("Ana", "Beatriz", "força, você consegue", "hoje foi um dia difícil")

	assert.Equal(t, "Beatriz respondeu ao seu desabafo 💌", subject)
	assert.Contains(t, body, "Oi Ana,")
	assert.Contains(t, body, "força, você consegue")
	assert.Contains(t, body, "hoje foi um dia difícil")
}

func TestVerificationCodeEmail(t *testing.T) {
	_, body := VerificationCodeEmail("Ana", "123456", 10)
	assert.Contains(t, body, "123456")
	assert.Contains(t, body, "10 minutos")
}

func TestModerationPages(t *testing.T) {
	assert.Contains(t, ModerationDecisionPage(true), "aprovado")
	assert.Contains(t, ModerationDecisionPage(false), "rejeitado")

	page := ModerationErrorPage("link <b>expirou</b>")
	assert.Contains(t, page, "&lt;b&gt;expirou&lt;/b&gt;")
}

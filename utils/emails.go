package utils

import (
	"fmt"
	"html"
)

// Inline HTML emails. Two templates only: the moderation alert with one-click
// approve/reject buttons and the "someone replied" note to a post author.
// User-provided strings are escaped before interpolation.

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// ModerationAlertEmail renders the email sent to moderators when new content
// arrives for review.
func ModerationAlertEmail(typeLabel, author, body, approveURL, rejectURL string) (subject, htmlBody string) {
	if author == "" {
		author = "Anônima"
	}
	preview := html.EscapeString(truncate(body, 200))
	subject = fmt.Sprintf("[Moderação] Novo %s de %s", typeLabel, author)
	htmlBody = fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1.0"></head>
<body style="margin:0;padding:0;background-color:#FFF5F9;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,sans-serif;">
  <div style="max-width:520px;margin:0 auto;padding:40px 24px;">
    <div style="text-align:center;margin-bottom:24px;">
      <h2 style="color:#1E3A8A;font-size:20px;margin:0;">Guardiã da Aldeia</h2>
      <p style="color:#FF66C4;font-size:13px;margin:4px 0 0;">Novo conteúdo para moderar</p>
    </div>
    <div style="background:white;border-radius:20px;padding:32px 24px;box-shadow:0 2px 12px rgba(0,0,0,0.06);">
      <p style="color:#6b7280;font-size:13px;margin:0 0 4px;">Tipo: <strong style="color:#1f2937;">%s</strong></p>
      <p style="color:#6b7280;font-size:13px;margin:0 0 16px;">Autora: <strong style="color:#1f2937;">%s</strong></p>
      <div style="background:#f9fafb;border-radius:12px;padding:16px;margin-bottom:24px;">
        <p style="color:#374151;font-size:14px;line-height:1.6;margin:0;">%s</p>
      </div>
      <div style="text-align:center;">
        <a href="%s" style="display:inline-block;background:#10b981;color:white;text-decoration:none;font-weight:bold;font-size:14px;padding:12px 32px;border-radius:10px;margin-right:12px;">Aprovar</a>
        <a href="%s" style="display:inline-block;background:#ef4444;color:white;text-decoration:none;font-weight:bold;font-size:14px;padding:12px 32px;border-radius:10px;">Rejeitar</a>
      </div>
    </div>
    <p style="text-align:center;color:#d1d5db;font-size:11px;margin-top:20px;">
      Ou abra a aba Admin no app para moderar.
    </p>
  </div>
</body>
</html>`, html.EscapeString(typeLabel), html.EscapeString(author), preview, approveURL, rejectURL)
	return subject, htmlBody
}

// ReplyNotificationEmail renders the note sent to a post author when someone
// comments on their post.
func ReplyNotificationEmail(authorName, commenterName, commentText, postBody string) (subject, htmlBody string) {
	if authorName == "" {
		authorName = "Mami"
	}
	if commenterName == "" {
		commenterName = "Alguém da aldeia"
	}
	commentPreview := html.EscapeString(truncate(commentText, 120))
	postPreview := html.EscapeString(truncate(postBody, 80))
	subject = fmt.Sprintf("%s respondeu ao seu desabafo 💌", commenterName)
	htmlBody = fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1.0"></head>
<body style="margin:0;padding:0;background-color:#FFF5F9;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,sans-serif;">
  <div style="max-width:520px;margin:0 auto;padding:40px 24px;">
    <div style="text-align:center;margin-bottom:24px;">
      <h2 style="color:#1E3A8A;font-size:20px;margin:0;">De Mães Dadas</h2>
      <p style="color:#FF66C4;font-size:13px;margin:4px 0 0;">Aldeia Digital</p>
    </div>
    <div style="background:white;border-radius:20px;padding:32px 24px;box-shadow:0 2px 12px rgba(0,0,0,0.06);">
      <p style="color:#1f2937;font-size:15px;margin:0 0 8px;">Oi %s,</p>
      <p style="color:#374151;font-size:14px;line-height:1.6;margin:0 0 16px;">
        <strong>%s</strong> respondeu ao que você compartilhou na aldeia:
      </p>
      <div style="background:#f9fafb;border-left:3px solid #FF66C4;border-radius:0 12px 12px 0;padding:12px 16px;margin-bottom:8px;">
        <p style="color:#9ca3af;font-size:12px;margin:0 0 4px;">"%s"</p>
        <p style="color:#374151;font-size:14px;line-height:1.6;margin:0;">%s</p>
      </div>
      <p style="color:#6b7280;font-size:13px;line-height:1.6;margin:16px 0 0;">
        Você não está sozinha. Volte à aldeia quando quiser continuar a conversa.
      </p>
    </div>
  </div>
</body>
</html>`, html.EscapeString(authorName), html.EscapeString(commenterName), postPreview, commentPreview)
	return subject, htmlBody
}

// ModerationDecisionPage is the tiny HTML confirmation shown after a one-click
// moderation link is used.
func ModerationDecisionPage(approved bool) string {
	label, color, mark := "rejeitado", "#ef4444", "&#10007;"
	if approved {
		label, color, mark = "aprovado", "#10b981", "&#10003;"
	}
	return fmt.Sprintf(`<html><body style="font-family:sans-serif;text-align:center;padding:60px;background:#FFF5F9;">
  <div style="max-width:400px;margin:0 auto;background:white;border-radius:20px;padding:40px;box-shadow:0 2px 12px rgba(0,0,0,0.06);">
    <div style="width:60px;height:60px;border-radius:50%%;background:%s;margin:0 auto 16px;display:flex;align-items:center;justify-content:center;">
      <span style="font-size:28px;color:white;">%s</span>
    </div>
    <h2 style="color:#1f2937;">Conteúdo %s!</h2>
    <p style="color:#6b7280;">Pode fechar esta janela.</p>
  </div>
</body></html>`, color, mark, label)
}

// ModerationErrorPage is shown when a moderation link is invalid, expired or reused.
func ModerationErrorPage(message string) string {
	return fmt.Sprintf(`<html><body style="font-family:sans-serif;text-align:center;padding:60px;"><h2 style="color:#ef4444;">Acesso negado</h2><p>%s</p></body></html>`, html.EscapeString(message))
}

// VerificationCodeEmail renders the signup / password-reset code email.
func VerificationCodeEmail(name, code string, minutes int) (subject, htmlBody string) {
	if name == "" {
		name = "Mami"
	}
	subject = "Seu código de verificação"
	htmlBody = fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="margin:0;padding:0;background-color:#FFF5F9;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,sans-serif;">
  <div style="max-width:520px;margin:0 auto;padding:40px 24px;">
    <div style="background:white;border-radius:20px;padding:32px 24px;box-shadow:0 2px 12px rgba(0,0,0,0.06);text-align:center;">
      <p style="color:#1f2937;font-size:15px;margin:0 0 16px;">Oi %s, aqui está o seu código:</p>
      <p style="color:#1E3A8A;font-size:32px;letter-spacing:8px;font-weight:bold;margin:0 0 16px;">%s</p>
      <p style="color:#6b7280;font-size:13px;margin:0;">Ele vale por %d minutos. Se não foi você, ignore este email.</p>
    </div>
  </div>
</body>
</html>`, html.EscapeString(name), html.EscapeString(code), minutes)
	return subject, htmlBody
}

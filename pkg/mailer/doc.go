// Package mailer renders transactional emails from markdown templates and
// hands them to a Sender.
//
// Templates live in an fs.FS (usually an embed.FS). Each template is
// markdown with optional YAML frontmatter; the body is executed with
// text/template, converted to HTML with goldmark and wrapped in an
// html/template layout read from the layouts directory:
//
//	---
//	Subject: Confirm your subscription
//	---
//	# Confirm your subscription
//
//	[!button|Confirm Subscription]({{.ConfirmURL}})
//
// The [!button|Label](url) syntax renders an inline-styled call to action
// link that survives email clients stripping <style> blocks.
package mailer

package bot

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/drillbot/internal/quiz"
	"github.com/example/drillbot/internal/session"
)

// present shows view to the owner, or returns err when the operation producing it failed
func (b *Bot) present(view session.View, err error) error {
	if err != nil {
		return err
	}

	switch {
	case !view.Active():
		b.sendText("No question set loaded. Use /sets or /add first.")
	case view.HasQuestion():
		b.sendQuestion(view)
	case view.Exhausted:
		b.sendExhausted(view)
	default:
		msg := tgbotapi.NewMessage(b.owner, progressLine(view))
		msg.ReplyMarkup = createKeyboard([][]MenuButton{{{Text: "▶️ Next question", CallbackData: callbackNext}}})
		_, _ = b.sendMessage(msg)
	}
	return nil
}

// sendQuestion sends the presented prompt with one button per option. Prompts with
// media go out as a photo; if that fails the prompt is sent as text.
func (b *Bot) sendQuestion(view session.View) {
	text := fmt.Sprintf("%s\n\n%s", progressLine(view), view.CurrentPrompt)
	keyboard := optionsKeyboard(view.Options)

	if view.CurrentMedia != "" {
		photo := tgbotapi.NewPhoto(b.owner, mediaFile(view.CurrentMedia, view.Source))
		photo.Caption = text
		photo.ReplyMarkup = keyboard
		sent, err := b.api.Send(photo)
		if err == nil {
			b.questionMsgID = sent.MessageID
			return
		}
		b.logger.Warn("failed to send question media", "media", view.CurrentMedia, "error", err)
		text += "\n\n(image unavailable: " + view.CurrentMedia + ")"
	}

	msg := tgbotapi.NewMessage(b.owner, text)
	msg.ReplyMarkup = keyboard
	sent, err := b.sendMessage(msg)
	if err == nil {
		b.questionMsgID = sent.MessageID
	}
}

func optionsKeyboard(options []string) tgbotapi.InlineKeyboardMarkup {
	buttons := make([][]MenuButton, 0, len(options))
	for i, option := range options {
		buttons = append(buttons, []MenuButton{{Text: option, CallbackData: callbackOption + strconv.Itoa(i)}})
	}
	return createKeyboard(buttons)
}

// mediaFile resolves a media reference: URLs are passed through, relative paths
// are taken relative to the question source
func mediaFile(media, source string) tgbotapi.RequestFileData {
	if strings.HasPrefix(media, "http://") || strings.HasPrefix(media, "https://") {
		return tgbotapi.FileURL(media)
	}
	if !filepath.IsAbs(media) && source != "" {
		media = filepath.Join(filepath.Dir(source), media)
	}
	return tgbotapi.FilePath(media)
}

func (b *Bot) sendResult(result quiz.Result, view session.View) {
	var text string
	if result.Correct {
		text = fmt.Sprintf("✅ Correct! %s → %s", result.Prompt, result.CorrectAnswer)
	} else {
		text = fmt.Sprintf("❌ Wrong. %s → %s (you chose %s). It will come back later.",
			result.Prompt, result.CorrectAnswer, result.Selected)
	}
	text += "\n" + progressLine(view)

	msg := tgbotapi.NewMessage(b.owner, text)
	msg.ReplyMarkup = createKeyboard([][]MenuButton{{{Text: "▶️ Next question", CallbackData: callbackNext}}})
	_, _ = b.sendMessage(msg)
}

func (b *Bot) sendExhausted(view session.View) {
	text := fmt.Sprintf("🎉 Every question of %s answered (%d of %d). Completed %d times so far.",
		view.Alias, view.AnsweredCount, view.Total, view.Completions)
	msg := tgbotapi.NewMessage(b.owner, text)
	msg.ReplyMarkup = createKeyboard([][]MenuButton{{
		{Text: "🔁 Retake", CallbackData: callbackRetake},
		{Text: "📚 Sets", CallbackData: callbackSets},
	}})
	_, _ = b.sendMessage(msg)
}

func (b *Bot) sendProgress(view session.View) {
	if !view.Active() {
		b.sendText("No question set loaded. Use /sets or /add first.")
		return
	}
	text := fmt.Sprintf("📊 %s\nCompleted %d times", progressLine(view), view.Completions)
	if view.Exhausted {
		text += "\nThis pass is finished. Use /retake to start over."
	}
	msg := tgbotapi.NewMessage(b.owner, text)
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	_, _ = b.sendMessage(msg)
}

func progressLine(view session.View) string {
	return fmt.Sprintf("%s: %d of %d answered", view.Alias, view.AnsweredCount, view.Total)
}

// remind nudges the owner to practice the active set
func (b *Bot) remind() {
	view := b.controller.View()
	if !view.Active() {
		b.sendText("⏰ Time to practice! Pick a set with /sets.")
		return
	}
	if view.Exhausted {
		msg := tgbotapi.NewMessage(b.owner, fmt.Sprintf("⏰ Time to practice! %s is finished, retake it?", view.Alias))
		msg.ReplyMarkup = createKeyboard([][]MenuButton{{{Text: "🔁 Retake", CallbackData: callbackRetake}}})
		_, _ = b.sendMessage(msg)
		return
	}
	msg := tgbotapi.NewMessage(b.owner, "⏰ Time to practice! "+progressLine(view))
	msg.ReplyMarkup = createKeyboard([][]MenuButton{{{Text: "▶️ Continue", CallbackData: callbackNext}}})
	_, _ = b.sendMessage(msg)
	b.logger.Info("reminder sent", "alias", view.Alias)
}

package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/drillbot/internal/bank"
	"github.com/example/drillbot/internal/quiz"
	"github.com/example/drillbot/internal/registry"
	"github.com/example/drillbot/internal/session"
)

// Constants for callback data
const (
	callbackOption   = "opt:"
	callbackUse      = "use:"
	callbackNext     = "next"
	callbackRetake   = "retake"
	callbackSets     = "sets"
	callbackProgress = "progress"
)

// Telegram limits callback data to 64 bytes
const maxCallbackData = 64

const helpText = `Flashcard drill bot

/sets - List question sets
/use <name> - Switch to a set
/add <path> - Register a CSV or Excel file (or send the file as a document)
/rename <name> <new name> - Rename a set (use "old -> new" when names contain spaces)
/remove <name> - Delete a set with its progress
/next - Show the next question
/retake - Start a new pass once every question was answered
/progress - Show progress of the current set
/questions - List questions of the current set
/enable <prompt> - Put a question back into rotation
/disable <prompt> - Take a question out of rotation`

// HandleUpdate dispatches one update. Updates from chats other than the owner's are ignored.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	chatID, ok := updateChatID(update)
	if !ok || chatID != b.owner {
		b.logger.Debug("ignoring update from foreign chat", "update_id", update.UpdateID)
		return
	}

	var err error
	switch {
	case update.Message != nil:
		err = b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		err = b.HandleCallback(ctx, update.CallbackQuery)
	}
	if err != nil {
		b.logger.Warn("update failed", "update_id", update.UpdateID, "error", err)
		b.sendText(describeError(err))
	}
}

func updateChatID(update tgbotapi.Update) (int64, bool) {
	switch {
	case update.Message != nil && update.Message.Chat != nil:
		return update.Message.Chat.ID, true
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil && update.CallbackQuery.Message.Chat != nil:
		return update.CallbackQuery.Message.Chat.ID, true
	default:
		return 0, false
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	switch {
	case message.IsCommand():
		return b.HandleCommand(ctx, message)
	case message.Document != nil:
		return b.handleDocument(ctx, message.Document)
	default:
		b.sendText("I don't understand. Use /help to see the commands.")
		return nil
	}
}

// HandleCommand handles bot commands
func (b *Bot) HandleCommand(ctx context.Context, message *tgbotapi.Message) error {
	args := strings.TrimSpace(message.CommandArguments())

	switch message.Command() {
	case "start", "help":
		return b.handleHelp()
	case "sets":
		return b.handleSets(ctx)
	case "use":
		if args == "" {
			return b.handleSets(ctx)
		}
		return b.present(b.controller.Switch(ctx, args))
	case "add":
		if args == "" {
			b.sendText("Usage: /add <path to CSV or Excel file>, or send the file as a document.")
			return nil
		}
		return b.present(b.controller.Add(ctx, args))
	case "rename":
		return b.handleRename(ctx, args)
	case "remove":
		return b.handleRemove(ctx, args)
	case "next":
		return b.present(b.controller.Next(ctx))
	case "retake":
		return b.present(b.controller.Retake(ctx))
	case "progress":
		b.sendProgress(b.controller.View())
		return nil
	case "questions":
		return b.handleQuestions()
	case "enable", "disable":
		if args == "" {
			b.sendText(fmt.Sprintf("Usage: /%s <prompt>", message.Command()))
			return nil
		}
		return b.handleToggle(ctx, args, message.Command() == "enable")
	default:
		b.sendText("Unknown command. Use /help to see the commands.")
		return nil
	}
}

func (b *Bot) handleHelp() error {
	msg := tgbotapi.NewMessage(b.owner, helpText)
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	_, err := b.sendMessage(msg)
	return err
}

// MainMenuButtons returns the buttons shown under help and status messages
func (b *Bot) MainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "📚 Sets", CallbackData: callbackSets},
			{Text: "📊 Progress", CallbackData: callbackProgress},
		},
		{
			{Text: "▶️ Next question", CallbackData: callbackNext},
		},
	}
}

func (b *Bot) handleSets(ctx context.Context) error {
	sets := b.controller.Sets(ctx)
	if len(sets) == 0 {
		b.sendText("No question sets yet. Use /add <path> or send a CSV or Excel file.")
		return nil
	}

	var text strings.Builder
	text.WriteString("Question sets:\n")
	var buttons [][]MenuButton
	for _, set := range sets {
		marker := "•"
		if set.Active {
			marker = "▶️"
		}
		fmt.Fprintf(&text, "%s %s (completed %d times)\n", marker, set.Alias, set.Completions)

		data := callbackUse + set.Alias
		if len(data) <= maxCallbackData {
			buttons = append(buttons, []MenuButton{{Text: set.Alias, CallbackData: data}})
		}
	}

	msg := tgbotapi.NewMessage(b.owner, text.String())
	if len(buttons) > 0 {
		msg.ReplyMarkup = createKeyboard(buttons)
	}
	_, err := b.sendMessage(msg)
	return err
}

func (b *Bot) handleRename(ctx context.Context, args string) error {
	alias, newName, ok := parseRename(args)
	if !ok {
		b.sendText("Usage: /rename <name> <new name>")
		return nil
	}
	if _, err := b.controller.Rename(ctx, alias, newName); err != nil {
		return err
	}
	b.sendText(fmt.Sprintf("Renamed %s to %s.", alias, strings.TrimSpace(newName)))
	return nil
}

// parseRename splits "/rename" arguments into the current alias and the new name.
// "old -> new" allows aliases with spaces; otherwise the first word is the alias.
func parseRename(args string) (string, string, bool) {
	if before, after, found := strings.Cut(args, "->"); found {
		alias, newName := strings.TrimSpace(before), strings.TrimSpace(after)
		return alias, newName, alias != "" && newName != ""
	}
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return "", "", false
	}
	newName := strings.TrimSpace(strings.TrimPrefix(args, fields[0]))
	return fields[0], newName, true
}

func (b *Bot) handleRemove(ctx context.Context, alias string) error {
	if alias == "" {
		b.sendText("Usage: /remove <name>")
		return nil
	}
	if _, err := b.controller.Remove(ctx, alias); err != nil {
		return err
	}
	b.sendText(fmt.Sprintf("Removed %s and its progress.", alias))
	return nil
}

func (b *Bot) handleQuestions() error {
	prompts, err := b.controller.Prompts()
	if err != nil {
		return err
	}

	var text strings.Builder
	text.WriteString("Questions (✅ enabled, ⛔ disabled, ✔ seen this pass):\n")
	for _, p := range prompts {
		status := "⛔"
		if p.Enabled {
			status = "✅"
		}
		seen := ""
		if p.Seen {
			seen = " ✔"
		}
		fmt.Fprintf(&text, "%s %s%s\n", status, p.Prompt, seen)
	}
	b.sendText(text.String())
	return nil
}

func (b *Bot) handleToggle(ctx context.Context, prompt string, enabled bool) error {
	view, err := b.controller.Toggle(ctx, prompt, enabled)
	if err != nil {
		return err
	}
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	b.sendText(fmt.Sprintf("%q %s. %d of %d answered.", prompt, state, view.AnsweredCount, view.Total))
	if enabled && !view.HasQuestion() && !view.Exhausted {
		return b.present(b.controller.Next(ctx))
	}
	return nil
}

// HandleCallback handles inline button presses
func (b *Bot) HandleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	if callback == nil || callback.Message == nil {
		return fmt.Errorf("invalid callback: required fields are missing")
	}

	data := callback.Data
	switch {
	case strings.HasPrefix(data, callbackOption):
		return b.handleOption(ctx, callback)
	case strings.HasPrefix(data, callbackUse):
		b.sendCallbackResponse(callback.ID, "")
		return b.present(b.controller.Switch(ctx, strings.TrimPrefix(data, callbackUse)))
	case data == callbackNext:
		b.sendCallbackResponse(callback.ID, "")
		return b.present(b.controller.Next(ctx))
	case data == callbackRetake:
		b.sendCallbackResponse(callback.ID, "")
		return b.present(b.controller.Retake(ctx))
	case data == callbackSets:
		b.sendCallbackResponse(callback.ID, "")
		return b.handleSets(ctx)
	case data == callbackProgress:
		b.sendCallbackResponse(callback.ID, "")
		b.sendProgress(b.controller.View())
		return nil
	default:
		b.sendCallbackResponse(callback.ID, "Unknown action")
		return nil
	}
}

// handleOption grades the option at the index carried by the button
func (b *Bot) handleOption(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	view := b.controller.View()
	idx, err := strconv.Atoi(strings.TrimPrefix(callback.Data, callbackOption))
	if err != nil || idx < 0 || idx >= len(view.Options) ||
		!view.HasQuestion() || callback.Message.MessageID != b.questionMsgID {
		b.sendCallbackResponse(callback.ID, "This question is no longer open")
		return nil
	}

	result, view, err := b.controller.Answer(ctx, view.Options[idx])
	if err != nil {
		b.sendCallbackResponse(callback.ID, "")
		return err
	}
	b.questionMsgID = 0

	if result.Correct {
		b.sendCallbackResponse(callback.ID, "✅ Correct")
	} else {
		b.sendCallbackResponse(callback.ID, "❌ Wrong")
	}
	b.sendResult(result, view)
	return nil
}

// describeError turns an operation failure into a message for the chat
func describeError(err error) string {
	switch {
	case errors.Is(err, session.ErrNoActiveSet):
		return "No question set loaded. Use /sets or /add first."
	case errors.Is(err, bank.ErrSourceUnreadable):
		return "Could not read the question file: " + err.Error()
	case errors.Is(err, registry.ErrDuplicateAlias):
		return "A set with that name already exists."
	case errors.Is(err, registry.ErrUnknownAlias):
		return "No set with that name. Use /sets to list them."
	case errors.Is(err, registry.ErrInvalidName):
		return "That name cannot be used."
	case errors.Is(err, quiz.ErrNotExhausted):
		return "Finish the current pass before retaking."
	case errors.Is(err, quiz.ErrEmptySet):
		return "Every question is disabled. Enable some with /enable."
	case errors.Is(err, quiz.ErrNoCurrentQuestion):
		return "There is no question waiting for an answer."
	case errors.Is(err, quiz.ErrUnknownPrompt):
		return "No question with that prompt. Use /questions to list them."
	default:
		return "❌ Something went wrong: " + err.Error()
	}
}

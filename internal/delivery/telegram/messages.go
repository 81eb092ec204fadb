// messages.go contains message templates and formatting functions for Telegram.

package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/exam-prep-bot/internal/domain/entities"
	"github.com/aliskhannn/exam-prep-bot/internal/service"
	"github.com/aliskhannn/exam-prep-bot/internal/session"
)

// Error messages.
const (
	msgInternalError      = "Что‑то пошло не так. Попробуйте позже."
	msgBackendUnavailable = "Сервер временно недоступен. Попробуйте ещё раз через минуту."
	msgNotAuthenticated   = "Не удалось определить ваш профиль. Нажмите /start."
	msgNoQuestions        = "Подходящих вопросов пока нет. Попробуйте другой режим или тему."
	msgQuestionExpired    = "Этот вопрос уже неактуален. Начните новый квиз: /quiz"
	msgInvalidCountry     = "Укажите страну двухбуквенным кодом, например: /country de"
	msgInvalidLanguage    = "Укажите язык двухбуквенным кодом, например: /language en"
	msgInvalidDailyGoal   = "Дневная цель должна быть числом от 1 до 500. Пример: /dailygoal 20"
	msgInvalidExamDate    = "Укажите дату в формате ГГГГ-ММ-ДД. Пример: /examdate 2026-12-15"
	msgExamDateInPast     = "Дата экзамена не может быть в прошлом."
	msgSubmitFailed       = "Не удалось отправить ответы. Они сохранены и будут отправлены автоматически."
	msgNoTopics           = "Список тем пока пуст."
	msgUnknownCommand     = "Неизвестная команда. Список доступных команд: /help"
)

const helpText = `Доступные команды:

/quiz — начать повторение (можно указать режим: new, review, mixed)
/topics — выбрать тему
/stats — статистика, дневная цель и серия
/settings — настройки
/country XX — страна экзамена
/language XX — язык вопросов
/uilang XX — язык интерфейса
/examdate ГГГГ-ММ-ДД — дата экзамена
/dailygoal N — своя дневная цель`

// md escapes plain text for MarkdownV2.
func md(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, s)
}

func bold(s string) string {
	return "*" + md(s) + "*"
}

func italic(s string) string {
	return "_" + md(s) + "_"
}

// newMessage creates a message with MarkdownV2 parse mode.
func newMessage(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	return msg
}

// newPlainMessage creates a plain message without parse mode.
func newPlainMessage(chatID int64, text string) tgbotapi.MessageConfig {
	return tgbotapi.NewMessage(chatID, text)
}

// newEdit creates an edit with MarkdownV2 parse mode.
func newEdit(chatID int64, msgID int, text string) tgbotapi.EditMessageTextConfig {
	edit := tgbotapi.NewEditMessageText(chatID, msgID, text)
	edit.ParseMode = tgbotapi.ModeMarkdownV2
	return edit
}

func buildWelcomeMessage(user *entities.User) string {
	greeting := "Здравствуйте!"
	if name := user.DisplayName(); name != "" {
		greeting = fmt.Sprintf("Здравствуйте, %s!", name)
	}

	return fmt.Sprintf(
		"%s\n\n%s\n\n%s",
		bold(greeting),
		md("Этот бот помогает готовиться к экзамену: отвечайте на вопросы, следите за дневной целью и не прерывайте серию."),
		md(helpText),
	)
}

func buildProgressBar(current, total, length int) string {
	if total <= 0 {
		return "[" + strings.Repeat("░", length) + "]"
	}

	filled := min(length, max(0, current*length/total))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", length-filled)
	return fmt.Sprintf("[%s]", bar)
}

// formatQuizMode formats quiz mode for display.
func formatQuizMode(mode string) string {
	switch mode {
	case entities.QuestionModeNew:
		return "🆕 Только новые"
	case entities.QuestionModeReview:
		return "🔄 Повторение"
	case entities.QuestionModeMixed, "":
		return "🎲 Смешанный"
	default:
		return mode
	}
}

func buildQuizStartMessage(mode, topic string, total int) string {
	var sb strings.Builder
	sb.WriteString(bold("🎯 Повторение начинается!"))
	sb.WriteString("\n\n")
	sb.WriteString(md("Режим: "))
	sb.WriteString(bold(formatQuizMode(mode)))
	if topic != "" {
		sb.WriteString("\n")
		sb.WriteString(md("Тема: "))
		sb.WriteString(bold(topic))
	}
	sb.WriteString("\n")
	sb.WriteString(md(fmt.Sprintf("Вопросов: %d", total)))
	return sb.String()
}

// formatQuizQuestion formats a question (MarkdownV2 safe).
func formatQuizQuestion(q entities.Question, currentNum, total int) string {
	text := fmt.Sprintf(
		"%s\n\n%s",
		md(fmt.Sprintf("Вопрос %d из %d", currentNum, total)),
		bold(q.Text),
	)
	if q.Topic != "" {
		text += "\n" + italic(q.Topic)
	}
	return text
}

// formatAnswerFeedback formats feedback for an answer (MarkdownV2 safe).
func formatAnswerFeedback(q entities.Question, isCorrect bool) string {
	var sb strings.Builder
	if isCorrect {
		sb.WriteString(md("✅ Правильно!"))
	} else {
		sb.WriteString(md("❌ Неправильно. Правильный ответ: "))
		sb.WriteString(bold(q.CorrectAnswer()))
	}
	if q.Explanation != "" {
		sb.WriteString("\n\n")
		sb.WriteString(italic(q.Explanation))
	}
	return sb.String()
}

// formatQuizResult formats the result of a finished repetition.
func formatQuizResult(result service.SessionResult) string {
	if result.Submitted == 0 {
		return md("Ответов нет — отправлять нечего.")
	}

	percentage := float64(result.Correct) / float64(result.Submitted) * 100

	emoji, message := "📚", "Продолжайте заниматься!"
	switch {
	case percentage >= 90:
		emoji, message = "🌟", "Отличный результат!"
	case percentage >= 70:
		emoji, message = "👍", "Хороший результат!"
	case percentage >= 50:
		emoji, message = "💪", "Неплохо, продолжайте!"
	}

	return fmt.Sprintf(
		"%s\n\n%s %s\n%s\n\n%s",
		md(emoji+" Повторение завершено!"),
		md("Результат:"),
		bold(fmt.Sprintf("%d/%d (%.0f%%)", result.Correct, result.Submitted, percentage)),
		md(buildProgressBar(result.Correct, result.Submitted, 10)),
		md(message),
	)
}

// formatSummary renders the statistics screen.
func formatSummary(s *service.Summary) string {
	var sb strings.Builder

	sb.WriteString(bold("📊 Ваш прогресс"))
	sb.WriteString("\n\n")
	sb.WriteString(md(buildProgressBar(s.Stats.Correct, s.Stats.TotalQuestions, 20)))
	sb.WriteString("\n")
	sb.WriteString(md(fmt.Sprintf("✅ Освоено: %d / %d", s.Stats.Correct, s.Stats.TotalQuestions)))
	sb.WriteString("\n")
	sb.WriteString(md(fmt.Sprintf("⏳ Осталось: %d", s.Remaining)))
	sb.WriteString("\n")
	sb.WriteString(md(fmt.Sprintf("🎯 Точность: %.1f%%", s.Stats.Accuracy())))
	sb.WriteString("\n\n")

	switch {
	case s.EffectiveGoal > 0:
		sb.WriteString(md(fmt.Sprintf("📅 Сегодня: %d / %d", s.MasteredToday, s.EffectiveGoal)))
		sb.WriteString("\n")
		sb.WriteString(md(buildProgressBar(s.MasteredToday, s.EffectiveGoal, 10)))
	case s.Goal != nil:
		sb.WriteString(md("🎉 Все вопросы освоены!"))
	default:
		sb.WriteString(md("📅 Укажите дату экзамена (/examdate), чтобы рассчитать дневную цель."))
	}

	if s.Goal != nil {
		sb.WriteString("\n")
		sb.WriteString(md(fmt.Sprintf("🗓 До экзамена: %d дн. (учебных: %d)", s.Goal.DaysUntilExam, s.Goal.LearningDays)))
	}

	sb.WriteString("\n\n")
	sb.WriteString(md(fmt.Sprintf("🔥 Серия: %d дн. (рекорд за неделю: %d)", s.CurrentStreak, s.MaxStreak)))
	if len(s.Weekly) > 0 {
		sb.WriteString("\n")
		sb.WriteString(md(formatWeek(s.Weekly, s.EffectiveGoal)))
	}

	if s.PendingAnswers > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(italic(fmt.Sprintf("Ожидают отправки: %d ответ(ов)", s.PendingAnswers)))
	}
	if s.SyncFailed {
		sb.WriteString("\n")
		sb.WriteString(italic("Статистика может быть неточной: последняя синхронизация не удалась."))
	}

	return sb.String()
}

// formatWeek renders one mark per day, oldest first.
func formatWeek(progress []int, goal int) string {
	marks := make([]string, 0, len(progress))
	for _, n := range progress {
		switch {
		case goal > 0 && n >= goal:
			marks = append(marks, "🟩")
		case n > 0:
			marks = append(marks, "🟨")
		default:
			marks = append(marks, "⬜")
		}
	}
	return strings.Join(marks, "")
}

// formatSettings renders the settings screen.
func formatSettings(settings session.Settings, examDate *string, dailyGoal *int) string {
	date := "не указана"
	if examDate != nil {
		date = *examDate
	}
	goal := "автоматически"
	if dailyGoal != nil && *dailyGoal > 0 {
		goal = fmt.Sprintf("%d в день", *dailyGoal)
	}

	return fmt.Sprintf(
		"%s\n\n%s\n%s\n%s\n%s\n%s",
		bold("⚙️ Настройки"),
		md("🌍 Страна экзамена: "+formatCountry(settings.ExamCountry)),
		md("🗣 Язык вопросов: "+formatLanguage(settings.ExamLanguage)),
		md("💬 Язык интерфейса: "+formatLanguage(settings.UILanguage)),
		md("🗓 Дата экзамена: "+date),
		md("🎯 Дневная цель: "+goal),
	)
}

func formatTopics(topics []string) string {
	var sb strings.Builder
	sb.WriteString(bold("📚 Темы"))
	sb.WriteString("\n\n")
	sb.WriteString(md(fmt.Sprintf("Всего тем: %d. Выберите тему, чтобы начать повторение по ней.", len(topics))))
	return sb.String()
}

var countryNames = map[string]string{
	"de": "🇩🇪 Германия",
	"at": "🇦🇹 Австрия",
	"ch": "🇨🇭 Швейцария",
}

var languageNames = map[string]string{
	"de": "Немецкий",
	"en": "Английский",
	"ru": "Русский",
	"uk": "Украинский",
	"tr": "Турецкий",
}

func formatCountry(code string) string {
	if name, ok := countryNames[code]; ok {
		return name
	}
	return strings.ToUpper(code)
}

func formatLanguage(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return strings.ToUpper(code)
}

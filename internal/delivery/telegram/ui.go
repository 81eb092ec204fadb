package telegram

import (
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/exam-prep-bot/internal/domain/entities"
)

var (
	countryChoices   = []string{"de", "at", "ch"}
	languageChoices  = []string{"de", "en", "ru", "uk", "tr"}
	dailyGoalChoices = []int{5, 10, 20, 30, 50}
)

// buildStartKeyboard builds the keyboard shown after /start.
func buildStartKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎯 Начать повторение", buildQuizStartCallback(entities.QuestionModeMixed)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Мой прогресс", buildProgressCallback()),
			tgbotapi.NewInlineKeyboardButtonData("⚙️ Настройки", buildSettingsCallback(settingsMenu)),
		),
	)
}

// buildProgressKeyboard builds keyboard for progress screen.
func buildProgressKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Обновить", buildProgressCallback()),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🆕 Новые", buildQuizStartCallback(entities.QuestionModeNew)),
			tgbotapi.NewInlineKeyboardButtonData("🔄 Повторение", buildQuizStartCallback(entities.QuestionModeReview)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⚙️ Настройки", buildSettingsCallback(settingsMenu)),
		),
	)
}

// buildSettingsKeyboard builds main settings keyboard.
func buildSettingsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🌍 Страна", buildSettingsCallback(settingsCountry)),
			tgbotapi.NewInlineKeyboardButtonData("🗣 Язык вопросов", buildSettingsCallback(settingsLanguage)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎯 Дневная цель", buildSettingsCallback(settingsDailyGoal)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Мой прогресс", buildProgressCallback()),
		),
	)
}

func buildCountryKeyboard() tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	for _, code := range countryChoices {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(formatCountry(code), buildSettingsCallback(settingsCountry, code)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row, buildBackRow())
}

func buildLanguageKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, code := range languageChoices {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(formatLanguage(code), buildSettingsCallback(settingsLanguage, code)),
		))
	}
	rows = append(rows, buildBackRow())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func buildDailyGoalKeyboard() tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	for _, goal := range dailyGoalChoices {
		value := strconv.Itoa(goal)
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(value, buildSettingsCallback(settingsDailyGoal, value)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row, buildBackRow())
}

func buildBackRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("◀️ Назад", buildSettingsCallback(settingsMenu)),
	)
}

// buildQuizAnswerKeyboard builds keyboard for a question.
func buildQuizAnswerKeyboard(q entities.Question, questionIndex int) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, option := range q.Options {
		button := tgbotapi.NewInlineKeyboardButtonData(option, buildQuizAnswerCallback(questionIndex, i))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🏁 Завершить", buildQuizFinishCallback()),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// buildQuizResultKeyboard builds keyboard for the results screen.
func buildQuizResultKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Ещё раз", buildQuizStartCallback(entities.QuestionModeMixed)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Мой прогресс", buildProgressCallback()),
		),
	)
}

// buildTopicsKeyboard lists topics one per row.
func buildTopicsKeyboard(topics []string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(topics))
	for i, topic := range topics {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(topic, buildTopicCallback(i)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

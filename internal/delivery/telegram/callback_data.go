package telegram

import (
	"strconv"
	"strings"
)

// Callback action constants.
const (
	actionQuiz     = "quiz"
	actionProgress = "progress"
	actionSettings = "settings"
	actionTopic    = "topic"
)

// Quiz sub-actions.
const (
	quizStart  = "s" // quiz:s:<mode>
	quizAnswer = "a" // quiz:a:<question index>:<option index>
	quizFinish = "f" // quiz:f
)

// Settings sub-actions.
const (
	settingsMenu      = "menu"
	settingsCountry   = "country"
	settingsLanguage  = "language"
	settingsDailyGoal = "goal"
)

// callbackData represents structured callback data.
type callbackData struct {
	Action string
	Params []string
	Raw    string
}

// encode creates callback string.
func (cd callbackData) encode() string {
	if len(cd.Params) == 0 {
		return cd.Action
	}
	return cd.Action + ":" + strings.Join(cd.Params, ":")
}

// decodeCallback parses callback data string.
func decodeCallback(data string) callbackData {
	parts := strings.Split(data, ":")
	return callbackData{
		Action: parts[0],
		Params: parts[1:],
		Raw:    data,
	}
}

// param returns the i-th parameter or an empty string.
func (cd callbackData) param(i int) string {
	if i < 0 || i >= len(cd.Params) {
		return ""
	}
	return cd.Params[i]
}

// intParam parses the i-th parameter as a non-negative integer.
func (cd callbackData) intParam(i int) (int, bool) {
	n, err := strconv.Atoi(cd.param(i))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func buildQuizStartCallback(mode string) string {
	return callbackData{
		Action: actionQuiz,
		Params: []string{quizStart, mode},
	}.encode()
}

// buildQuizAnswerCallback builds callback data for answering the question at
// questionIndex of the active batch.
func buildQuizAnswerCallback(questionIndex, optionIndex int) string {
	return callbackData{
		Action: actionQuiz,
		Params: []string{
			quizAnswer,
			strconv.Itoa(questionIndex),
			strconv.Itoa(optionIndex),
		},
	}.encode()
}

func buildQuizFinishCallback() string {
	return callbackData{
		Action: actionQuiz,
		Params: []string{quizFinish},
	}.encode()
}

func buildProgressCallback() string {
	return actionProgress
}

// buildSettingsCallback builds callback data for settings-related actions.
func buildSettingsCallback(subAction string, value ...string) string {
	params := []string{subAction}
	params = append(params, value...)
	return callbackData{
		Action: actionSettings,
		Params: params,
	}.encode()
}

// buildTopicCallback refers to a topic by its position in the cached list;
// topic names do not fit the 64-byte callback limit.
func buildTopicCallback(index int) string {
	return callbackData{
		Action: actionTopic,
		Params: []string{strconv.Itoa(index)},
	}.encode()
}

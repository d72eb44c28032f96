package catalog

import "QuizBot/model"

// Builtin returns the demo questionnaires used when no catalog file is configured.
func Builtin() *Catalog {
	c, err := New(
		model.NewQuestionnaire("1", "Choice 1", []model.Question{
			{Title: "var 1", VarName: "var1", Description: "Question #1"},
			{Title: "var 2", VarName: "var2", Description: "Question #2", Presets: []string{"good", "bad"}},
			{Title: "var 3", VarName: "var3", Description: "Question #3"},
		}),
		model.NewQuestionnaire("2", "Choice 2", []model.Question{
			{Title: "var 1", VarName: "var1", Description: "Question #1"},
			{Title: "var 2", VarName: "var2", Description: "Question #2"},
		}),
	)
	if err != nil {
		panic(err)
	}
	return c
}

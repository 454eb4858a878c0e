package vocab

import "classhelper/internal/api"

// Form carries the editable fields of an entry. Binding tags mirror the
// required inputs of the entry form; antonyms are optional.
type Form struct {
	Word            string `form:"word" binding:"required"`
	Translation     string `form:"translation" binding:"required"`
	Definition      string `form:"definition" binding:"required"`
	PartOfSpeech    string `form:"part_of_speech" binding:"required"`
	ExampleSentence string `form:"example_sentence" binding:"required"`
	Synonyms        string `form:"synonyms" binding:"required"`
	Antonyms        string `form:"antonyms"`
}

// NewForm returns an empty create form.
func NewForm() Form {
	return Form{PartOfSpeech: "noun"}
}

// FormFrom pre-populates an edit form from an existing entry.
func FormFrom(v api.Vocab) Form {
	f := Form{
		Word:            v.Word,
		Translation:     v.Translation,
		Definition:      v.Definition,
		PartOfSpeech:    v.PartOfSpeech,
		ExampleSentence: v.ExampleSentence,
		Synonyms:        v.Synonyms,
		Antonyms:        v.Antonyms,
	}
	if f.PartOfSpeech == "" {
		f.PartOfSpeech = "noun"
	}
	return f
}

// Input converts the form to an API request body.
func (f Form) Input() api.VocabInput {
	return api.VocabInput{
		Word:            f.Word,
		Translation:     f.Translation,
		Definition:      f.Definition,
		PartOfSpeech:    f.PartOfSpeech,
		ExampleSentence: f.ExampleSentence,
		Synonyms:        f.Synonyms,
		Antonyms:        f.Antonyms,
	}
}

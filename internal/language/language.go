// Package language maps client language codes to the regional parameters
// search providers expect and the labels used when prompting models.
package language

// Language holds the per-language parameters: gl is the provider geolocation
// code, hl the interface language code, Name the English name used inside
// prompts, and SourceTag the localized citation label.
type Language struct {
	Code      string
	GL        string
	HL        string
	Name      string
	SourceTag string
}

// languages is ordered so FromCode returns the first entry matching a code.
var languages = []Language{
	{Code: "en", GL: "us", HL: "en", Name: "English", SourceTag: "Source"},
	{Code: "ko", GL: "kr", HL: "ko", Name: "Korean", SourceTag: "출처"},
	{Code: "zh", GL: "cn", HL: "zh-cn", Name: "Chinese", SourceTag: "Source"},
	{Code: "ja", GL: "jp", HL: "ja", Name: "Japanese", SourceTag: "Source"},
	{Code: "de", GL: "de", HL: "de", Name: "German", SourceTag: "Source"},
	{Code: "fr", GL: "fr", HL: "fr", Name: "French", SourceTag: "Source"},
	{Code: "es", GL: "es", HL: "es", Name: "Spanish", SourceTag: "Source"},
	{Code: "it", GL: "it", HL: "it", Name: "Italian", SourceTag: "Source"},
	{Code: "nl", GL: "nl", HL: "nl", Name: "Dutch", SourceTag: "Source"},
	{Code: "pt", GL: "pt", HL: "pt", Name: "Portuguese", SourceTag: "Source"},
	{Code: "pt-br", GL: "br", HL: "pt-br", Name: "Portuguese", SourceTag: "Source"},
	{Code: "ru", GL: "ru", HL: "ru", Name: "Russian", SourceTag: "Source"},
	{Code: "pl", GL: "pl", HL: "pl", Name: "Polish", SourceTag: "Source"},
	{Code: "sv", GL: "se", HL: "sv", Name: "Swedish", SourceTag: "Source"},
	{Code: "no", GL: "no", HL: "no", Name: "Norwegian", SourceTag: "Source"},
	{Code: "da", GL: "dk", HL: "da", Name: "Danish", SourceTag: "Source"},
	{Code: "fi", GL: "fi", HL: "fi", Name: "Finnish", SourceTag: "Source"},
	{Code: "ar", GL: "ar", HL: "ar", Name: "Arabic", SourceTag: "Source"},
	{Code: "hi", GL: "in", HL: "hi", Name: "Hindi", SourceTag: "Source"},
	{Code: "id", GL: "id", HL: "id", Name: "Indonesian", SourceTag: "Source"},
	{Code: "tr", GL: "tr", HL: "tr", Name: "Turkish", SourceTag: "Source"},
	{Code: "th", GL: "th", HL: "th", Name: "Thai", SourceTag: "Source"},
	{Code: "vi", GL: "vn", HL: "vi", Name: "Vietnamese", SourceTag: "Source"},
}

// Default is the language assumed when a code is unknown or empty.
var Default = languages[0]

// FromCode resolves a client language code. Unknown codes fall back to
// English so a bad code never fails a request.
func FromCode(code string) Language {
	for _, l := range languages {
		if l.Code == code {
			return l
		}
	}
	return Default
}

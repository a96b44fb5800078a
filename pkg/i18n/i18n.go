package i18n

import (
	"sync"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

var (
	bundle *goi18n.Bundle
	once   sync.Once
)

// Init builds the message bundle with English defaults and the bundled translations.
func Init() {
	once.Do(func() {
		bundle = goi18n.NewBundle(language.English)
		_ = bundle.AddMessages(language.English, english...)
		_ = bundle.AddMessages(language.Indonesian, indonesian...)
	})
}

// T localizes messageID for the first supported language in langs (Accept-Language values).
// Unknown ids fall back to the id itself.
func T(messageID string, data map[string]any, langs ...string) string {
	Init()
	localizer := goi18n.NewLocalizer(bundle, langs...)
	msg, err := localizer.Localize(&goi18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		return messageID
	}
	return msg
}

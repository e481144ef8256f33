package termview

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ru", l10n.LexiconMap{
		"Certificate scanner":      "Сканер сертификатов",
		"Code":                     "Код",
		"Type":                     "Тип",
		"Status":                   "Статус",
		"Owner":                    "Владелец",
		"Email":                    "Email",
		"Phone":                    "Телефон",
		"Issued":                   "Дата покупки",
		"Expires":                  "Действует до",
		"Used":                     "Использован",
		"Not used":                 "Не использован",
		"Unknown":                  "Неизвестно",
		"Activating...":            "Активация...",
		"Activation failed: %s":    "Ошибка активации: %s",
		"Certificate %s activated": "Сертификат %s активирован",
		"start camera":             "включить камеру",
		"scan again":               "сканировать снова",
		"activate":                 "активировать",
		"quit":                     "выход",
	})
}

package logger

import "github.com/ideamans/go-l10n"

// Log lines of the adapters and the command line. The scan package registers its own.
func init() {
	l10n.Register("ru", l10n.LexiconMap{
		// Run level
		"Scanning with %s camera":                  "Сканирование камерой %s",
		"Interrupted, shutting down...":            "Прервано, завершение работы...",
		"Summary saved to %s":                      "Отчёт сохранён в %s",
		"Press Enter to allow camera access":       "Нажмите Enter, чтобы разрешить доступ к камере",
		"Press Enter to try again, Ctrl+C to quit": "Нажмите Enter, чтобы повторить, Ctrl+C для выхода",
		"Certificate %s activated":                 "Сертификат %s активирован",
		"Scan completed successfully":              "Сканирование завершено",
		"No code found within %d ms":               "QR-код не найден за %d мс",

		// Chrome camera
		"Launching browser":                   "Запуск браузера",
		"Launching browser in headless mode":  "Запуск браузера в фоновом режиме",
		"Serving capture page on %s":          "Страница захвата доступна по адресу %s",
		"Browser closed":                      "Браузер закрыт",
		"Installing Chromium with Playwright": "Установка Chromium через Playwright",

		// ffmpeg camera
		"Starting ffmpeg: %s": "Запуск ffmpeg: %s",
		"Probed %s: %dx%d":    "Размер %s: %dx%d",
		"ffmpeg exited: %s":   "ffmpeg завершился: %s",

		// Verifier
		"GET %s (request %s)":          "GET %s (запрос %s)",
		"Verify responded %d in %d ms": "Ответ проверки %d за %d мс",

		// Errors
		"Failed to launch browser: %s": "Не удалось запустить браузер: %s",
		"Failed to write output: %s":   "Не удалось записать файл: %s",
		"Activation failed: %s":        "Ошибка активации: %s",
	})
}

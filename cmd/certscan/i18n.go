// Package main provides localization for the certscan CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Russian translations for CLI messages.
	l10n.Register("ru", l10n.LexiconMap{
		// Flag categories
		"Device":       "Устройство",
		"Scanning":     "Сканирование",
		"Verification": "Проверка",
		"Debug":        "Отладка",
		"Output":       "Вывод",
		"Logging":      "Журнал",

		// Root command
		"Scan certificate QR codes with a camera and verify them": "Сканирование QR-кодов сертификатов камерой и их проверка",
		"Configuration file (YAML or TOML)":                       "Файл конфигурации (YAML или TOML)",
		"Log level (debug, info, warn, error)":                    "Уровень журнала (debug, info, warn, error)",
		"Suppress all log output":                                 "Отключить вывод журнала",

		// Commands
		"Scan a certificate QR code and verify it": "Отсканировать QR-код сертификата и проверить его",
		"Decode a QR code from an image file":      "Распознать QR-код на изображении",
		"Mark a verified certificate as used":      "Отметить проверенный сертификат как использованный",
		"Show version information":                 "Показать версию",
		"certscan version %s":                      "certscan версия %s",

		// Device flags
		"Capture device (chrome, ffmpeg, images, gocv)":           "Устройство захвата (chrome, ffmpeg, images, gocv)",
		"Camera name, device path or video file":                  "Имя камеры, путь к устройству или видеофайл",
		"ffmpeg capture format (v4l2, avfoundation, dshow)":       "Формат захвата ffmpeg (v4l2, avfoundation, dshow)",
		"Image file or glob to replay as camera frames":           "Изображение или шаблон файлов для воспроизведения как кадры камеры",
		"Replay the video or images forever":                      "Воспроизводить видео или изображения по кругу",
		"Path to Chrome executable":                               "Путь к исполняемому файлу Chrome",
		"Install Chromium when no browser is found":               "Установить Chromium, если браузер не найден",
		"Show the browser window":                                 "Показать окно браузера",
		"Feed a .y4m or .mjpeg file to the browser as the camera": "Передать браузеру файл .y4m или .mjpeg вместо камеры",
		"Wait for a user gesture before playback starts":          "Ждать действия пользователя перед запуском видео",
		"Preferred camera (environment, user)":                    "Предпочтительная камера (environment, user)",
		"Ideal frame width":                                       "Желаемая ширина кадра",
		"Ideal frame height":                                      "Желаемая высота кадра",

		// Scanning flags
		"Sampling rate in frames per second":               "Частота опроса, кадров в секунду",
		"Spend more time per frame looking for a code":     "Тщательнее искать код в каждом кадре",
		"Spend more time looking for a code":               "Тщательнее искать код",
		"Give up after this many milliseconds (0 = never)": "Прекратить через указанное число миллисекунд (0 = никогда)",

		// Verification flags
		"Base URL of the verification API":    "Базовый URL API проверки",
		"Base URL of the activation API":      "Базовый URL API активации",
		"Bearer token for the API":            "Bearer-токен для API",
		"Origin the camera is requested from": "Источник (origin), от имени которого запрашивается камера",

		// Debug and output flags
		"Save decoded frames and a JSON report":                         "Сохранять распознанные кадры и JSON-отчёт",
		"Directory for debug output":                                    "Каталог для отладочных файлов",
		"Also save every n-th missed frame":                             "Также сохранять каждый n-й кадр без кода",
		"Write a report of the run (Markdown, or JSON for .json files)": "Записать отчёт о запуске (Markdown или JSON для файлов .json)",
		"Run the interactive terminal view":                             "Запустить интерактивный режим терминала",
		"Write the image with the detection drawn on it":                "Записать изображение с отмеченным кодом",

		// Results
		"No QR code found":               "QR-код не найден",
		"An image file is required":      "Укажите файл изображения",
		"A certificate code is required": "Укажите код сертификата",

		// Summary report
		"Scan Summary":                 "Отчёт о сканировании",
		"Generated":                    "Создан",
		"Generated by certscan":        "Создано certscan",
		"Certificate":                  "Сертификат",
		"No certificate was verified.": "Сертификат не проверен.",
		"Field":                        "Поле",
		"Value":                        "Значение",
		"Metric":                       "Показатель",
		"Setting":                      "Параметр",
		"Outcome":                      "Результат",
		"Error":                        "Ошибка",
		"Ticks":                        "Такты",
		"Frames not ready":             "Кадры не готовы",
		"Misses":                       "Без кода",
		"Camera start":                 "Запуск камеры",
		"Time to decode":               "Время до распознавания",
		"Facing":                       "Камера",
		"Requested size":               "Запрошенный размер",
		"completed":                    "завершено",
		"failed":                       "ошибка",
		"timed out":                    "время истекло",
		"used":                         "использован",
		"unused":                       "не использован",
		"unknown":                      "неизвестно",
	})
}

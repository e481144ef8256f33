package scan

import "github.com/ideamans/go-l10n"

// User-facing texts. The keys double as the English wording.
const (
	msgUnsupported      = "This device does not support camera access"
	msgInsecureContext  = "A secure HTTPS connection or localhost is required"
	msgPermissionDenied = "Camera access was denied"
	msgGestureRequired  = "Camera access is required to scan a QR code"
	msgDeviceError      = "Could not access the camera"
	msgVerifyFailed     = "Could not verify the QR code. Please try again."

	msgInitializing = "Initializing..."
	msgLoading      = "Loading camera..."
	msgReady        = "Point the camera at a QR code"
	msgProcessing   = "Processing QR code..."
	msgDone         = "QR code verified"
)

// Caption returns the localized status line for a non-error state.
func Caption(s State) string {
	switch {
	case s.Status == StatusError, s.PermissionGatePending:
		return s.Message
	case s.Status == StatusInit:
		return l10n.T(msgInitializing)
	case s.Status == StatusLoading:
		return l10n.T(msgLoading)
	case s.Status == StatusReady:
		return l10n.T(msgReady)
	case s.Done:
		return l10n.T(msgDone)
	default:
		return l10n.T(msgProcessing)
	}
}

func init() {
	l10n.Register("ru", l10n.LexiconMap{
		msgUnsupported:      "Ваше устройство не поддерживает доступ к камере",
		msgInsecureContext:  "Требуется HTTPS соединение или localhost",
		msgPermissionDenied: "Не удалось получить доступ к камере",
		msgGestureRequired:  "Для сканирования QR-кода необходим доступ к камере",
		msgDeviceError:      "Не удалось получить доступ к камере",
		msgVerifyFailed:     "Не удалось проверить QR-код. Попробуйте ещё раз.",

		msgInitializing: "Инициализация...",
		msgLoading:      "Загрузка камеры...",
		msgReady:        "Наведите камеру на QR-код",
		msgProcessing:   "Обработка QR-кода...",
		msgDone:         "QR-код проверен",

		// Controller log lines
		"State %s -> %s":                           "Состояние %s -> %s",
		"Acquiring %s camera (%s, %dx%d)":          "Запрос камеры %s (%s, %dx%d)",
		"Camera acquired: %dx%d":                   "Камера получена: %dx%d",
		"Camera blocked, waiting for user gesture": "Камера заблокирована, ожидание действия пользователя",
		"Found QR code after %d ticks: %s":         "QR-код найден после %d тактов: %s",
		"Snapshot failed: %s":                      "Не удалось получить кадр: %s",
		"Activation failed (%s): %s":               "Ошибка активации (%s): %s",
		"Camera released":                          "Камера освобождена",
		"Failed to stop camera: %s":                "Не удалось остановить камеру: %s",
		"Ignoring %s in state %s":                  "Команда %s игнорируется в состоянии %s",
		"Rejected transition %s -> %s":             "Недопустимый переход %s -> %s",
		"Certificate %s verified":                  "Сертификат %s проверен",
		"Failed to save debug frame: %s":           "Не удалось сохранить отладочный кадр: %s",
	})
}

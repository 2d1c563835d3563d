package bot

import (
	"fmt"
	"strings"

	"golos-bot/pkg/models"
)

// Messages содержит тексты ответов бота
type Messages struct{}

// NewMessages создает набор текстов бота
func NewMessages() *Messages {
	return &Messages{}
}

// Welcome приветствие при /start
func (m *Messages) Welcome(name string) string {
	return fmt.Sprintf(`👋 Привет, %s!

Я превращаю текст в голосовые сообщения.

Просто отправь мне любой текст — и я отвечу аудио. 🎙

Команды:
/voices — список доступных голосов
/setvoice — выбрать голос
/settings — текущие настройки
/stats — статистика использования
/help — справка`, name)
}

// Help справка по командам
func (m *Messages) Help(voiceName string, limit, windowSeconds, maxLength int) string {
	return fmt.Sprintf(`🎙 <b>Как пользоваться ботом</b>

Отправь любой текст — получишь голосовое сообщение.

Текущий голос: <b>%s</b>
Лимит: %d сообщений в %d сек, до %d символов.

<b>Команды:</b>
/voices — список доступных голосов
/setvoice &lt;имя&gt; — выбрать голос
/settings — текущие настройки озвучки
/stats — статистика использования
/help — эта справка`, voiceName, limit, windowSeconds, maxLength)
}

// Settings текущие настройки пользователя
func (m *Messages) Settings(pref *models.UserPreference, model string, maxLength int, storage string, status *models.RateStatus, limit int) string {
	rateLine := fmt.Sprintf("✅ Лимит: %d из %d использовано", status.Count, limit)
	if status.Remaining > 0 {
		rateLine += fmt.Sprintf(", сброс через %d сек", int(status.Remaining.Seconds())+1)
	}
	return fmt.Sprintf(`⚙️ <b>Текущие настройки</b>

🎙 Голос: %s
🧠 Модель: %s
🎚 Стабильность: %.2f
🎛 Похожесть: %.2f
✂️ Максимум символов: %d
💾 Хранилище: %s

%s`, pref.VoiceName, model, pref.Stability, pref.SimilarityBoost, maxLength, storage, rateLine)
}

// Названия режимов хранилища для /settings
const (
	StorageRedis  = "Redis (постоянное)"
	StorageMemory = "память процесса"
)

// RateLimited сообщение об исчерпанном лимите
func (m *Messages) RateLimited(seconds int) string {
	return fmt.Sprintf("⏳ Слишком много запросов. Попробуйте через %d сек.", seconds)
}

// TooLong сообщение о слишком длинном тексте
func (m *Messages) TooLong(max int) string {
	return fmt.Sprintf("✂️ Сообщение слишком длинное. Максимум %d символов.", max)
}

// Generating плейсхолдер на время синтеза
func (m *Messages) Generating() string {
	return "🎙 Генерирую аудио..."
}

// GenerationFailed ошибка синтеза
func (m *Messages) GenerationFailed() string {
	return "😔 Не удалось сгенерировать аудио. Попробуйте позже."
}

// VoiceChanged подтверждение смены голоса
func (m *Messages) VoiceChanged(name string) string {
	return fmt.Sprintf("✅ Голос изменен на <b>%s</b>", name)
}

// VoiceNotFound голос не найден в каталоге
func (m *Messages) VoiceNotFound(name string) string {
	return fmt.Sprintf("❌ Голос «%s» не найден. Посмотрите список: /voices", name)
}

// VoiceUsage подсказка по /setvoice без аргумента
func (m *Messages) VoiceUsage() string {
	return "Укажите имя голоса: <code>/setvoice Sarah</code>\n\nСписок голосов: /voices"
}

// Показываем только первые голоса, чтобы сообщение не разрасталось
const maxVoicesShown = 15

// VoiceList каталог голосов
func (m *Messages) VoiceList(voices []models.Voice, currentID string) string {
	if len(voices) > maxVoicesShown {
		voices = voices[:maxVoicesShown]
	}

	var b strings.Builder
	b.WriteString("🎙 <b>Доступные голоса</b>\n\n")
	for _, v := range voices {
		if v.VoiceID == currentID {
			b.WriteString(fmt.Sprintf("▶️ <b>%s</b> (текущий)\n", v.Name))
		} else {
			b.WriteString(fmt.Sprintf("• %s\n", v.Name))
		}
	}
	b.WriteString("\nВыбрать: <code>/setvoice имя</code>")
	return b.String()
}

// VoicesUnavailable список голосов недоступен
func (m *Messages) VoicesUnavailable() string {
	return "😔 Список голосов сейчас недоступен. Попробуйте позже."
}

// Stats статистика использования
func (m *Messages) Stats(stats models.UsageStats) string {
	return fmt.Sprintf(`📊 <b>Статистика бота</b>

🎙 Сгенерировано аудио: %d
🔤 Обработано символов: %d
🔄 Смен голоса: %d`,
		stats["tts_generation"],
		stats["characters_processed"],
		stats["voice_change"])
}

// StatsUnavailable статистика недоступна
func (m *Messages) StatsUnavailable() string {
	return "😔 Статистика сейчас недоступна. Попробуйте позже."
}

// UnknownCommand неизвестная команда
func (m *Messages) UnknownCommand() string {
	return "🤔 Неизвестная команда. Посмотрите /help"
}

// EmptyText пустое сообщение
func (m *Messages) EmptyText() string {
	return "Отправьте текст, который нужно озвучить."
}
